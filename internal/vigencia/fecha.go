// Package vigencia modela fechas calendario e intervalos de vigencia de estructuras y líneas.
package vigencia

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const formatoFecha = "2006-01-02"

// Fecha es un día calendario (medianoche UTC). Hora y zona se descartan.
type Fecha struct {
	time.Time
}

// NuevaFecha arma una Fecha a partir de año, mes y día.
func NuevaFecha(anio int, mes time.Month, dia int) Fecha {
	return Fecha{Time: time.Date(anio, mes, dia, 0, 0, 0, 0, time.UTC)}
}

// DesdeTime normaliza un time.Time al día calendario UTC.
func DesdeTime(t time.Time) Fecha {
	if t.IsZero() {
		return Fecha{}
	}
	u := t.UTC()
	y, m, d := u.Date()
	return NuevaFecha(y, m, d)
}

// Hoy es la fecha actual en UTC.
func Hoy() Fecha { return DesdeTime(time.Now()) }

// ParseFecha interpreta "YYYY-MM-DD".
func ParseFecha(s string) (Fecha, error) {
	t, err := time.Parse(formatoFecha, strings.TrimSpace(s))
	if err != nil {
		return Fecha{}, fmt.Errorf("fecha inválida %q: use YYYY-MM-DD", s)
	}
	return DesdeTime(t), nil
}

func (f Fecha) String() string {
	if f.IsZero() {
		return ""
	}
	return f.Format(formatoFecha)
}

// DiaAnterior devuelve el día previo; es el cierre que recibe una versión reemplazada.
func (f Fecha) DiaAnterior() Fecha {
	return Fecha{Time: f.AddDate(0, 0, -1)}
}

// DiaSiguiente devuelve el día posterior.
func (f Fecha) DiaSiguiente() Fecha {
	return Fecha{Time: f.AddDate(0, 0, 1)}
}

func (f Fecha) Antes(o Fecha) bool   { return f.Time.Before(o.Time) }
func (f Fecha) Despues(o Fecha) bool { return f.Time.After(o.Time) }

func (f Fecha) MarshalJSON() ([]byte, error) {
	if f.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(f.String())
}

func (f *Fecha) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("fecha debe ser string YYYY-MM-DD")
	}
	if s == "" {
		*f = Fecha{}
		return nil
	}
	parsed, err := ParseFecha(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Scan acepta lo que devuelve el driver para columnas date.
func (f *Fecha) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*f = Fecha{}
		return nil
	case time.Time:
		*f = DesdeTime(v)
		return nil
	case string:
		parsed, err := ParseFecha(firstN(v, len(formatoFecha)))
		if err != nil {
			return err
		}
		*f = parsed
		return nil
	case []byte:
		return f.Scan(string(v))
	default:
		return fmt.Errorf("vigencia: no se puede leer %T como fecha", src)
	}
}

// Value envía la fecha como texto; el servidor la castea a date.
func (f Fecha) Value() (driver.Value, error) {
	if f.IsZero() {
		return nil, nil
	}
	return f.String(), nil
}

// GormDataType mapea la columna a date.
func (Fecha) GormDataType() string { return "date" }

func firstN(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
