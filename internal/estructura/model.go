package estructura

import (
	"time"

	"github.com/guardiaspro/api-estructuras/internal/itemcatalogo"
	"github.com/guardiaspro/api-estructuras/internal/vigencia"
	"github.com/shopspring/decimal"
)

// Cabecera es una versión de estructura de sueldo para una clave de alcance.
type Cabecera struct {
	ID            string          `gorm:"column:id" json:"id"`
	Variante      Variante        `gorm:"-" json:"scope_type"`
	InstalacionID *string         `gorm:"column:instalacion_id" json:"installation_id,omitempty"`
	RolServicioID *string         `gorm:"column:rol_servicio_id" json:"service_role_id,omitempty"`
	GuardiaID     *string         `gorm:"column:guardia_id" json:"guard_id,omitempty"`
	Version       int             `gorm:"column:version" json:"version"`
	VigenciaDesde vigencia.Fecha  `gorm:"column:vigencia_desde" json:"validity_from"`
	VigenciaHasta *vigencia.Fecha `gorm:"column:vigencia_hasta" json:"validity_to"`
	Activo        bool            `gorm:"column:activo" json:"active"`
	CreatedAt     time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

// Clave reconstruye la clave de alcance de la cabecera.
func (c Cabecera) Clave() ClaveAlcance {
	k := ClaveAlcance{Variante: c.Variante}
	if c.InstalacionID != nil {
		k.InstalacionID = *c.InstalacionID
	}
	if c.RolServicioID != nil {
		k.RolServicioID = *c.RolServicioID
	}
	if c.GuardiaID != nil {
		k.GuardiaID = *c.GuardiaID
	}
	return k
}

func (c Cabecera) Intervalo() vigencia.Intervalo {
	return vigencia.Intervalo{Desde: c.VigenciaDesde, Hasta: c.VigenciaHasta}
}

// Linea es un componente de la estructura con su propia vigencia.
// ItemID solo existe en el esquema con FK al catálogo.
type Linea struct {
	ID             string          `gorm:"column:id" json:"id"`
	EstructuraID   string          `gorm:"column:estructura_id" json:"structure_id"`
	ItemID         *string         `gorm:"column:item_id" json:"item_id,omitempty"`
	ItemCodigo     string          `gorm:"column:item_codigo" json:"item_code"`
	ItemNombre     string          `gorm:"column:item_nombre" json:"item_name"`
	ItemClase      string          `gorm:"column:item_clase" json:"item_class"`
	ItemNaturaleza string          `gorm:"column:item_naturaleza" json:"item_nature"`
	Monto          decimal.Decimal `gorm:"column:monto" json:"amount"`
	VigenciaDesde  vigencia.Fecha  `gorm:"column:vigencia_desde" json:"validity_from"`
	VigenciaHasta  *vigencia.Fecha `gorm:"column:vigencia_hasta" json:"validity_to"`
	Activo         bool            `gorm:"column:activo" json:"active"`
}

func (l Linea) Intervalo() vigencia.Intervalo {
	return vigencia.Intervalo{Desde: l.VigenciaDesde, Hasta: l.VigenciaHasta}
}

// nuevaLinea arma una línea activa con la foto del ítem del catálogo.
func nuevaLinea(estructuraID string, item *itemcatalogo.Item, monto decimal.Decimal, iv vigencia.Intervalo) *Linea {
	id := item.ID
	return &Linea{
		EstructuraID:   estructuraID,
		ItemID:         &id,
		ItemCodigo:     item.Codigo,
		ItemNombre:     item.Nombre,
		ItemClase:      item.Clase,
		ItemNaturaleza: item.Naturaleza,
		Monto:          monto,
		VigenciaDesde:  iv.Desde,
		VigenciaHasta:  iv.Hasta,
		Activo:         true,
	}
}

// Resultado es la estructura completa devuelta al crear.
type Resultado struct {
	Header Cabecera `json:"header"`
	Lines  []Linea  `json:"lines"`
	// Cerrada es la versión anterior acortada automáticamente, si la hubo.
	Cerrada *Cabecera `json:"closed_predecessor,omitempty"`
}

// Conflicto describe una cabecera que impide admitir la nueva vigencia.
type Conflicto struct {
	ID            string          `json:"id"`
	Version       int             `json:"version"`
	VigenciaDesde vigencia.Fecha  `json:"validity_from"`
	VigenciaHasta *vigencia.Fecha `json:"validity_to"`
	CubreInicio   bool            `json:"covers_start"`
}

// EstructuraVigente es la respuesta de la vista unificada.
type EstructuraVigente struct {
	Origen Variante       `json:"origin"`
	Fecha  vigencia.Fecha `json:"date"`
	Header Cabecera       `json:"header"`
	Lines  []Linea        `json:"lines"`
}
