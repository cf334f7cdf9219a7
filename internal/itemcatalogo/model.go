package itemcatalogo

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CodigoSueldoBase es el ítem obligatorio de toda estructura.
const CodigoSueldoBase = "sueldo_base"

const (
	ClaseHaber     = "HABER"
	ClaseDescuento = "DESCUENTO"

	NaturalezaImponible   = "IMPONIBLE"
	NaturalezaNoImponible = "NO_IMPONIBLE"
)

// Item es un componente de remuneración reutilizable.
type Item struct {
	ID         string           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Codigo     string           `gorm:"not null" json:"code"`
	Nombre     string           `gorm:"not null" json:"name"`
	Clase      string           `gorm:"not null" json:"class"`
	Naturaleza string           `gorm:"not null" json:"nature"`
	TopeMonto  *decimal.Decimal `gorm:"type:numeric(14,2)" json:"cap_amount"`
	Activo     bool             `gorm:"not null;default:true" json:"active"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func (Item) TableName() string { return "sueldo_items" }

// EsHaber indica si el ítem puede ofrecerse como bono.
func (i Item) EsHaber() bool { return strings.EqualFold(i.Clase, ClaseHaber) }
