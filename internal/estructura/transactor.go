package estructura

import (
	"context"
	"fmt"

	"github.com/guardiaspro/api-estructuras/internal/esquema"
	"github.com/guardiaspro/api-estructuras/internal/itemcatalogo"
	"gorm.io/gorm"
)

// TransactorGorm abre una transacción explícita por operación. Los repositorios
// base se atan a cada tx con WithDB.
type TransactorGorm struct {
	DB        *gorm.DB
	cabeceras *Repository
	catalogo  *itemcatalogo.Repository
	esquema   *esquema.Inspector
}

func NewTransactor(db *gorm.DB) *TransactorGorm {
	return &TransactorGorm{
		DB:        db,
		cabeceras: NewRepository(db),
		catalogo:  itemcatalogo.NewRepository(db),
		esquema:   esquema.NewInspector(db),
	}
}

func (t *TransactorGorm) Transaccion(ctx context.Context, fn func(Unidad) error) (err error) {
	tx := t.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("no fue posible iniciar la transacción: %w", tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			err = fmt.Errorf("falla interna en transacción: %v", r)
		}
	}()

	u := &unidadGorm{
		tx:        tx,
		cabeceras: t.cabeceras.WithDB(tx),
		catalogo:  t.catalogo.WithDB(tx),
		esquema:   t.esquema.WithDB(tx),
	}
	if err := fn(u); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit().Error; err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("error al confirmar la transacción: %w", err)
	}
	return nil
}

type unidadGorm struct {
	tx        *gorm.DB
	cabeceras *Repository
	catalogo  *itemcatalogo.Repository
	esquema   *esquema.Inspector
}

func (u *unidadGorm) Cabeceras() Repositorio { return u.cabeceras }

func (u *unidadGorm) Catalogo() Catalogo { return u.catalogo }

func (u *unidadGorm) Esquema() Esquema { return u.esquema }

// Lineas inspecciona la tabla en cada llamada: con item_id usa la FK, si no la foto.
func (u *unidadGorm) Lineas(ctx context.Context, v Variante) (RepositorioLineas, error) {
	tabla := v.TablaLineas()
	fk, err := u.esquema.TieneColumna(ctx, tabla, "item_id")
	if err != nil {
		return nil, err
	}
	if fk {
		return &LineasFK{DB: u.tx, Tabla: tabla}, nil
	}
	return &LineasSnapshot{DB: u.tx, Tabla: tabla}, nil
}
