// Package esquema consulta information_schema para saber qué tablas y columnas existen.
package esquema

import (
	"context"

	"gorm.io/gorm"
)

// Inspector responde preguntas sobre el esquema actual.
type Inspector struct {
	DB *gorm.DB
}

func NewInspector(db *gorm.DB) *Inspector {
	return &Inspector{DB: db}
}

// WithDB retorna una copia usando otro *gorm.DB (ej.: tx).
func (i *Inspector) WithDB(db *gorm.DB) *Inspector {
	if db == nil {
		db = i.DB
	}
	return &Inspector{DB: db}
}

// TablaExiste indica si la tabla existe en el schema actual.
func (i *Inspector) TablaExiste(ctx context.Context, tabla string) (bool, error) {
	var existe bool
	err := i.DB.WithContext(ctx).Raw(
		`SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_name = ?
		)`, tabla).Scan(&existe).Error
	return existe, err
}

// TipoColumna devuelve el data_type de la columna ("" si no existe).
func (i *Inspector) TipoColumna(ctx context.Context, tabla, columna string) (string, error) {
	var tipos []string
	err := i.DB.WithContext(ctx).Raw(
		`SELECT data_type FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = ? AND column_name = ?`,
		tabla, columna).Scan(&tipos).Error
	if err != nil || len(tipos) == 0 {
		return "", err
	}
	return tipos[0], nil
}

// TieneColumna es un atajo sobre TipoColumna.
func (i *Inspector) TieneColumna(ctx context.Context, tabla, columna string) (bool, error) {
	tipo, err := i.TipoColumna(ctx, tabla, columna)
	return tipo != "", err
}
