package itemcatalogo

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CrearItemDTO es el body de POST /api/items.
type CrearItemDTO struct {
	Codigo     string           `json:"code" validate:"required,max=64"`
	Nombre     string           `json:"name" validate:"required,max=200"`
	Clase      string           `json:"class" validate:"required,oneof=HABER DESCUENTO"`
	Naturaleza string           `json:"nature" validate:"required,oneof=IMPONIBLE NO_IMPONIBLE"`
	TopeMonto  *decimal.Decimal `json:"cap_amount"`
}

func (d *CrearItemDTO) normalizar() {
	d.Codigo = strings.TrimSpace(d.Codigo)
	d.Nombre = strings.TrimSpace(d.Nombre)
	d.Clase = strings.ToUpper(strings.TrimSpace(d.Clase))
	d.Naturaleza = strings.ToUpper(strings.TrimSpace(d.Naturaleza))
}

func (d CrearItemDTO) toModel() *Item {
	return &Item{
		Codigo:     d.Codigo,
		Nombre:     d.Nombre,
		Clase:      d.Clase,
		Naturaleza: d.Naturaleza,
		TopeMonto:  d.TopeMonto,
		Activo:     true,
	}
}
