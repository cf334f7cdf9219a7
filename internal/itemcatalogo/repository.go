package itemcatalogo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrItemNoEncontrado = errors.New("item no encontrado")
	ErrCodigoDuplicado  = errors.New("ya existe un item con ese código")
)

// Repository encapsula el acceso al catálogo de ítems.
type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

// WithDB retorna una copia del repo usando un *gorm.DB específico (ej.: tx).
func (r *Repository) WithDB(db *gorm.DB) *Repository {
	if db == nil {
		db = r.DB
	}
	return &Repository{DB: db}
}

/* ============================== Resolución ============================== */

// ResolverPorCodigo busca un ítem activo por código, sin distinguir mayúsculas.
func (r *Repository) ResolverPorCodigo(ctx context.Context, codigo string) (*Item, error) {
	codigo = strings.TrimSpace(codigo)
	if codigo == "" {
		return nil, ErrItemNoEncontrado
	}
	var item Item
	err := r.DB.WithContext(ctx).
		Where("LOWER(codigo) = LOWER(?) AND activo = ?", codigo, true).
		Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrItemNoEncontrado
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ResolverPorIDOCodigo acepta un UUID o un código. Con forma de UUID
// se intenta primero por id y luego por código.
func (r *Repository) ResolverPorIDOCodigo(ctx context.Context, ref string) (*Item, error) {
	ref = strings.TrimSpace(ref)
	if id, err := uuid.Parse(ref); err == nil {
		var item Item
		err := r.DB.WithContext(ctx).
			Where("id = ? AND activo = ?", id.String(), true).
			Take(&item).Error
		if err == nil {
			return &item, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return r.ResolverPorCodigo(ctx, ref)
}

// AsegurarSueldoBase devuelve el ítem sueldo_base, creándolo si falta.
// El índice único sobre lower(codigo) resuelve la carrera entre dos primeros usos.
func (r *Repository) AsegurarSueldoBase(ctx context.Context) (*Item, error) {
	item, err := r.ResolverPorCodigo(ctx, CodigoSueldoBase)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, ErrItemNoEncontrado) {
		return nil, err
	}

	if err := r.DB.WithContext(ctx).Exec(
		`INSERT INTO sueldo_items (codigo, nombre, clase, naturaleza, tope_monto, activo)
		VALUES (?, ?, ?, ?, NULL, true)
		ON CONFLICT DO NOTHING`,
		CodigoSueldoBase, "Sueldo base", ClaseHaber, NaturalezaImponible,
	).Error; err != nil {
		return nil, fmt.Errorf("crear sueldo_base: %w", err)
	}

	item, err = r.ResolverPorCodigo(ctx, CodigoSueldoBase)
	if errors.Is(err, ErrItemNoEncontrado) {
		// el conflicto vino de un sueldo_base inactivo
		return nil, fmt.Errorf("sueldo_base existe pero está inactivo: %w", err)
	}
	return item, err
}

/* ============================ Configuración ============================ */

// Listar devuelve los ítems activos ordenados por código.
func (r *Repository) Listar(ctx context.Context) ([]Item, error) {
	var items []Item
	err := r.DB.WithContext(ctx).
		Where("activo = ?", true).
		Order("codigo ASC").
		Find(&items).Error
	return items, err
}

// Crear inserta un ítem nuevo; código repetido -> ErrCodigoDuplicado.
func (r *Repository) Crear(ctx context.Context, item *Item) error {
	err := r.DB.WithContext(ctx).Create(item).Error
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrCodigoDuplicado
	}
	return err
}
