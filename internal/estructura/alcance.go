package estructura

import (
	"fmt"
	"strings"
)

// Variante distingue las dos líneas de tiempo de estructuras.
type Variante string

const (
	// VarianteServicio: instalación + rol de servicio.
	VarianteServicio Variante = "servicio"
	// VarianteGuardia: estructura personal de un guardia.
	VarianteGuardia Variante = "guardia"
)

// ParseVariante acepta "servicio"/"instalacion" y "guardia".
func ParseVariante(s string) (Variante, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "servicio", "instalacion":
		return VarianteServicio, true
	case "guardia":
		return VarianteGuardia, true
	}
	return "", false
}

func (v Variante) TablaCabeceras() string {
	if v == VarianteGuardia {
		return "estructuras_guardia"
	}
	return "estructuras_servicio"
}

func (v Variante) TablaLineas() string {
	return v.TablaCabeceras() + "_lineas"
}

// ClaveAlcance identifica la población que comparte una línea de tiempo de versiones.
type ClaveAlcance struct {
	Variante      Variante `json:"type"`
	InstalacionID string   `json:"installation_id,omitempty"`
	RolServicioID string   `json:"service_role_id,omitempty"`
	GuardiaID     string   `json:"guard_id,omitempty"`
}

// campoClave es una columna de la clave con su valor.
type campoClave struct {
	Columna string
	Valor   *string
	EsRol   bool
}

// campos lista las columnas de la clave en el orden de la tabla.
func (c *ClaveAlcance) campos() []campoClave {
	if c.Variante == VarianteGuardia {
		return []campoClave{{Columna: "guardia_id", Valor: &c.GuardiaID}}
	}
	return []campoClave{
		{Columna: "instalacion_id", Valor: &c.InstalacionID},
		{Columna: "rol_servicio_id", Valor: &c.RolServicioID, EsRol: true},
	}
}

// Completa indica si todas las columnas de la clave tienen valor.
func (c ClaveAlcance) Completa() bool {
	for _, f := range c.campos() {
		if strings.TrimSpace(*f.Valor) == "" {
			return false
		}
	}
	return true
}

// filtro arma "col = ? AND col = ?" con sus argumentos.
func (c ClaveAlcance) filtro() (string, []any) {
	campos := c.campos()
	partes := make([]string, 0, len(campos))
	args := make([]any, 0, len(campos))
	for _, f := range campos {
		partes = append(partes, f.Columna+" = ?")
		args = append(args, *f.Valor)
	}
	return strings.Join(partes, " AND "), args
}

func (c ClaveAlcance) String() string {
	if c.Variante == VarianteGuardia {
		return fmt.Sprintf("guardia=%s", c.GuardiaID)
	}
	return fmt.Sprintf("instalacion=%s rol=%s", c.InstalacionID, c.RolServicioID)
}
