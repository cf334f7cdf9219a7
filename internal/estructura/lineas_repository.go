package estructura

import (
	"context"
	"strings"

	"github.com/guardiaspro/api-estructuras/internal/vigencia"
	"gorm.io/gorm"
)

// LineasFK guarda item_id y lee la foto del ítem con un JOIN al catálogo.
type LineasFK struct {
	DB    *gorm.DB
	Tabla string
}

// LineasSnapshot guarda código, nombre, clase y naturaleza del ítem en la propia línea.
type LineasSnapshot struct {
	DB    *gorm.DB
	Tabla string
}

/* ============================ Variante FK ============================ */

func (r *LineasFK) selectBase() string {
	return `SELECT l.id::text AS id, l.estructura_id::text AS estructura_id, l.item_id::text AS item_id,
		i.codigo AS item_codigo, i.nombre AS item_nombre, i.clase AS item_clase, i.naturaleza AS item_naturaleza,
		l.monto, l.vigencia_desde, l.vigencia_hasta, l.activo
		FROM ` + r.Tabla + ` l JOIN sueldo_items i ON i.id = l.item_id`
}

func (r *LineasFK) Insertar(ctx context.Context, l *Linea) error {
	var id string
	err := conSavepoint(r.DB.WithContext(ctx), "sp_linea", func(tx *gorm.DB) error {
		return tx.Raw(
			"INSERT INTO "+r.Tabla+` (estructura_id, item_id, monto, vigencia_desde, vigencia_hasta, activo)
			VALUES (?, ?, ?, ?, ?, true) RETURNING id::text`,
			l.EstructuraID, l.ItemID, l.Monto, l.VigenciaDesde, l.VigenciaHasta,
		).Scan(&id).Error
	})
	if err != nil {
		return err
	}
	l.ID, l.Activo = id, true
	return nil
}

func (r *LineasFK) Solapadas(ctx context.Context, estructuraID, itemCodigo string, iv vigencia.Intervalo, excluirID string) ([]Linea, error) {
	sql := r.selectBase() + ` WHERE l.estructura_id = ? AND LOWER(i.codigo) = LOWER(?) AND l.activo
		AND daterange(l.vigencia_desde, l.vigencia_hasta, '[]') && daterange(?::date, ?::date, '[]')`
	args := []any{estructuraID, itemCodigo, iv.Desde, iv.Hasta}
	if excluirID != "" {
		sql += " AND l.id <> ?"
		args = append(args, excluirID)
	}
	var out []Linea
	err := r.DB.WithContext(ctx).Raw(sql+" ORDER BY l.vigencia_desde", args...).Scan(&out).Error
	return out, err
}

func (r *LineasFK) Listar(ctx context.Context, estructuraID string, soloActivas bool) ([]Linea, error) {
	sql := r.selectBase() + " WHERE l.estructura_id = ?"
	if soloActivas {
		sql += " AND l.activo"
	}
	var out []Linea
	err := r.DB.WithContext(ctx).Raw(sql+" ORDER BY l.created_at, l.vigencia_desde", estructuraID).Scan(&out).Error
	return out, err
}

func (r *LineasFK) BuscarPorID(ctx context.Context, estructuraID, lineaID string) (*Linea, error) {
	var out []Linea
	err := r.DB.WithContext(ctx).Raw(
		r.selectBase()+" WHERE l.estructura_id = ? AND l.id = ? FOR UPDATE OF l", estructuraID, lineaID,
	).Scan(&out).Error
	if err != nil || len(out) == 0 {
		return nil, err
	}
	return &out[0], nil
}

func (r *LineasFK) Actualizar(ctx context.Context, l *Linea) error {
	return actualizarLinea(ctx, r.DB, r.Tabla, l)
}

func (r *LineasFK) Desactivar(ctx context.Context, lineaID string) error {
	return desactivarLinea(ctx, r.DB, r.Tabla, lineaID)
}

/* ========================= Variante snapshot ========================= */

func (r *LineasSnapshot) selectBase() string {
	return `SELECT id::text AS id, estructura_id::text AS estructura_id,
		item_codigo, item_nombre, item_clase, item_naturaleza,
		monto, vigencia_desde, vigencia_hasta, activo
		FROM ` + r.Tabla
}

func (r *LineasSnapshot) Insertar(ctx context.Context, l *Linea) error {
	var id string
	err := conSavepoint(r.DB.WithContext(ctx), "sp_linea", func(tx *gorm.DB) error {
		return tx.Raw(
			"INSERT INTO "+r.Tabla+` (estructura_id, item_codigo, item_nombre, item_clase, item_naturaleza,
				monto, vigencia_desde, vigencia_hasta, activo)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, true) RETURNING id::text`,
			l.EstructuraID, l.ItemCodigo, l.ItemNombre, l.ItemClase, l.ItemNaturaleza,
			l.Monto, l.VigenciaDesde, l.VigenciaHasta,
		).Scan(&id).Error
	})
	if err != nil {
		return err
	}
	// este esquema no guarda la FK
	l.ID, l.ItemID, l.Activo = id, nil, true
	return nil
}

func (r *LineasSnapshot) Solapadas(ctx context.Context, estructuraID, itemCodigo string, iv vigencia.Intervalo, excluirID string) ([]Linea, error) {
	sql := r.selectBase() + ` WHERE estructura_id = ? AND LOWER(item_codigo) = LOWER(?) AND activo
		AND daterange(vigencia_desde, vigencia_hasta, '[]') && daterange(?::date, ?::date, '[]')`
	args := []any{estructuraID, strings.TrimSpace(itemCodigo), iv.Desde, iv.Hasta}
	if excluirID != "" {
		sql += " AND id <> ?"
		args = append(args, excluirID)
	}
	var out []Linea
	err := r.DB.WithContext(ctx).Raw(sql+" ORDER BY vigencia_desde", args...).Scan(&out).Error
	return out, err
}

func (r *LineasSnapshot) Listar(ctx context.Context, estructuraID string, soloActivas bool) ([]Linea, error) {
	sql := r.selectBase() + " WHERE estructura_id = ?"
	if soloActivas {
		sql += " AND activo"
	}
	var out []Linea
	err := r.DB.WithContext(ctx).Raw(sql+" ORDER BY created_at, vigencia_desde", estructuraID).Scan(&out).Error
	return out, err
}

func (r *LineasSnapshot) BuscarPorID(ctx context.Context, estructuraID, lineaID string) (*Linea, error) {
	var out []Linea
	err := r.DB.WithContext(ctx).Raw(
		r.selectBase()+" WHERE estructura_id = ? AND id = ? FOR UPDATE", estructuraID, lineaID,
	).Scan(&out).Error
	if err != nil || len(out) == 0 {
		return nil, err
	}
	return &out[0], nil
}

func (r *LineasSnapshot) Actualizar(ctx context.Context, l *Linea) error {
	return actualizarLinea(ctx, r.DB, r.Tabla, l)
}

func (r *LineasSnapshot) Desactivar(ctx context.Context, lineaID string) error {
	return desactivarLinea(ctx, r.DB, r.Tabla, lineaID)
}

/* ============================== Comunes ============================== */

func actualizarLinea(ctx context.Context, db *gorm.DB, tabla string, l *Linea) error {
	return conSavepoint(db.WithContext(ctx), "sp_linea", func(tx *gorm.DB) error {
		return tx.Exec(
			"UPDATE "+tabla+" SET monto = ?, vigencia_desde = ?, vigencia_hasta = ? WHERE id = ?",
			l.Monto, l.VigenciaDesde, l.VigenciaHasta, l.ID,
		).Error
	})
}

func desactivarLinea(ctx context.Context, db *gorm.DB, tabla, lineaID string) error {
	return db.WithContext(ctx).Exec("UPDATE "+tabla+" SET activo = false WHERE id = ?", lineaID).Error
}
