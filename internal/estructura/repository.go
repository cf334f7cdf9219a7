package estructura

import (
	"context"
	"strings"
	"time"

	"github.com/guardiaspro/api-estructuras/internal/vigencia"
	"gorm.io/gorm"
)

// Repository implementa Repositorio sobre gorm. Ambas variantes comparten
// columnas salvo la clave, por eso las consultas se arman por tabla.
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

func columnasCabecera(v Variante) string {
	clave := "instalacion_id::text AS instalacion_id, rol_servicio_id::text AS rol_servicio_id"
	if v == VarianteGuardia {
		clave = "guardia_id::text AS guardia_id"
	}
	return "id::text AS id, " + clave + ", version, vigencia_desde, vigencia_hasta, activo, created_at, updated_at"
}

func conVariante(cabs []Cabecera, v Variante) []Cabecera {
	for i := range cabs {
		cabs[i].Variante = v
	}
	return cabs
}

// conSavepoint corre fn y, si falla, vuelve al savepoint para que la tx siga usable.
func conSavepoint(db *gorm.DB, nombre string, fn func(*gorm.DB) error) error {
	if err := db.SavePoint(nombre).Error; err != nil {
		return err
	}
	if err := fn(db); err != nil {
		_ = db.RollbackTo(nombre).Error
		return err
	}
	return nil
}

/* ============================== Versiones ============================== */

// SiguienteVersion = COALESCE(MAX(version), 0) + 1 sobre todas las cabeceras de la clave.
func (r *Repository) SiguienteVersion(ctx context.Context, clave ClaveAlcance) (int, error) {
	where, args := clave.filtro()
	var max int
	err := r.DB.WithContext(ctx).Raw(
		"SELECT COALESCE(MAX(version), 0) FROM "+clave.Variante.TablaCabeceras()+" WHERE "+where,
		args...,
	).Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

/* ============================== Escritura ============================== */

func (r *Repository) InsertarCabecera(ctx context.Context, c *Cabecera) error {
	var (
		sql  string
		args []any
	)
	if c.Variante == VarianteGuardia {
		sql = `INSERT INTO estructuras_guardia (guardia_id, version, vigencia_desde, vigencia_hasta, activo)
			VALUES (?, ?, ?, ?, ?)
			RETURNING id::text AS id, created_at, updated_at`
		args = []any{c.GuardiaID, c.Version, c.VigenciaDesde, c.VigenciaHasta, c.Activo}
	} else {
		sql = `INSERT INTO estructuras_servicio (instalacion_id, rol_servicio_id, version, vigencia_desde, vigencia_hasta, activo)
			VALUES (?, ?, ?, ?, ?, ?)
			RETURNING id::text AS id, created_at, updated_at`
		args = []any{c.InstalacionID, c.RolServicioID, c.Version, c.VigenciaDesde, c.VigenciaHasta, c.Activo}
	}

	var ret struct {
		ID        string
		CreatedAt time.Time
		UpdatedAt time.Time
	}
	err := conSavepoint(r.DB.WithContext(ctx), "sp_cabecera", func(tx *gorm.DB) error {
		return tx.Raw(sql, args...).Scan(&ret).Error
	})
	if err != nil {
		return err
	}
	c.ID, c.CreatedAt, c.UpdatedAt = ret.ID, ret.CreatedAt, ret.UpdatedAt
	return nil
}

func (r *Repository) FijarVigenciaHasta(ctx context.Context, v Variante, id string, hasta vigencia.Fecha) error {
	return r.DB.WithContext(ctx).Exec(
		"UPDATE "+v.TablaCabeceras()+" SET vigencia_hasta = ? WHERE id = ?", hasta, id,
	).Error
}

/* ============================== Consultas ============================== */

// Solapadas lista las cabeceras activas que intersectan [desde, +inf).
func (r *Repository) Solapadas(ctx context.Context, clave ClaveAlcance, desde vigencia.Fecha) ([]Cabecera, error) {
	where, args := clave.filtro()
	var cabs []Cabecera
	err := r.DB.WithContext(ctx).Raw(
		"SELECT "+columnasCabecera(clave.Variante)+" FROM "+clave.Variante.TablaCabeceras()+
			" WHERE "+where+" AND activo"+
			" AND daterange(vigencia_desde, vigencia_hasta, '[]') && daterange(?::date, NULL::date, '[]')"+
			" ORDER BY vigencia_desde ASC",
		append(args, desde)...,
	).Scan(&cabs).Error
	return conVariante(cabs, clave.Variante), err
}

func (r *Repository) SolapadaMasReciente(ctx context.Context, clave ClaveAlcance, desde vigencia.Fecha) (*Cabecera, error) {
	where, args := clave.filtro()
	var cabs []Cabecera
	err := r.DB.WithContext(ctx).Raw(
		"SELECT "+columnasCabecera(clave.Variante)+" FROM "+clave.Variante.TablaCabeceras()+
			" WHERE "+where+" AND activo"+
			" AND daterange(vigencia_desde, vigencia_hasta, '[]') && daterange(?::date, NULL::date, '[]')"+
			" ORDER BY vigencia_desde DESC LIMIT 1 FOR UPDATE",
		append(args, desde)...,
	).Scan(&cabs).Error
	if err != nil || len(cabs) == 0 {
		return nil, err
	}
	return &conVariante(cabs, clave.Variante)[0], nil
}

func (r *Repository) BuscarCabecera(ctx context.Context, v Variante, id string, bloquear bool) (*Cabecera, error) {
	sql := "SELECT " + columnasCabecera(v) + " FROM " + v.TablaCabeceras() + " WHERE id = ?"
	if bloquear {
		sql += " FOR UPDATE"
	}
	var cabs []Cabecera
	if err := r.DB.WithContext(ctx).Raw(sql, id).Scan(&cabs).Error; err != nil || len(cabs) == 0 {
		return nil, err
	}
	return &conVariante(cabs, v)[0], nil
}

func (r *Repository) ListarCabeceras(ctx context.Context, clave ClaveAlcance) ([]Cabecera, error) {
	where, args := clave.filtro()
	var cabs []Cabecera
	err := r.DB.WithContext(ctx).Raw(
		"SELECT "+columnasCabecera(clave.Variante)+" FROM "+clave.Variante.TablaCabeceras()+
			" WHERE "+where+" ORDER BY version ASC",
		args...,
	).Scan(&cabs).Error
	return conVariante(cabs, clave.Variante), err
}

// Vigente devuelve la cabecera activa que contiene fecha.
func (r *Repository) Vigente(ctx context.Context, clave ClaveAlcance, fecha vigencia.Fecha) (*Cabecera, error) {
	where, args := clave.filtro()
	var cabs []Cabecera
	err := r.DB.WithContext(ctx).Raw(
		"SELECT "+columnasCabecera(clave.Variante)+" FROM "+clave.Variante.TablaCabeceras()+
			" WHERE "+where+" AND activo"+
			" AND vigencia_desde <= ? AND (vigencia_hasta IS NULL OR vigencia_hasta >= ?)"+
			" ORDER BY vigencia_desde DESC LIMIT 1",
		append(args, fecha, fecha)...,
	).Scan(&cabs).Error
	if err != nil || len(cabs) == 0 {
		return nil, err
	}
	return &conVariante(cabs, clave.Variante)[0], nil
}

func (r *Repository) RolServicioExiste(ctx context.Context, id string) (bool, error) {
	var existe bool
	err := r.DB.WithContext(ctx).Raw(
		"SELECT EXISTS (SELECT 1 FROM "+tablaRoles+" WHERE id = ?)", strings.TrimSpace(id),
	).Scan(&existe).Error
	return existe, err
}
