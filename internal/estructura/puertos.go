package estructura

import (
	"context"

	"github.com/guardiaspro/api-estructuras/internal/itemcatalogo"
	"github.com/guardiaspro/api-estructuras/internal/vigencia"
)

// Repositorio persiste cabeceras de ambas variantes.
type Repositorio interface {
	SiguienteVersion(ctx context.Context, clave ClaveAlcance) (int, error)
	// InsertarCabecera corre bajo savepoint: un error deja la transacción usable.
	InsertarCabecera(ctx context.Context, c *Cabecera) error
	// SolapadaMasReciente bloquea y devuelve la cabecera activa más reciente
	// que intersecta [desde, +inf); nil si no hay.
	SolapadaMasReciente(ctx context.Context, clave ClaveAlcance, desde vigencia.Fecha) (*Cabecera, error)
	Solapadas(ctx context.Context, clave ClaveAlcance, desde vigencia.Fecha) ([]Cabecera, error)
	FijarVigenciaHasta(ctx context.Context, v Variante, id string, hasta vigencia.Fecha) error
	// BuscarCabecera devuelve nil si no existe; bloquear agrega FOR UPDATE.
	BuscarCabecera(ctx context.Context, v Variante, id string, bloquear bool) (*Cabecera, error)
	ListarCabeceras(ctx context.Context, clave ClaveAlcance) ([]Cabecera, error)
	Vigente(ctx context.Context, clave ClaveAlcance, fecha vigencia.Fecha) (*Cabecera, error)
	RolServicioExiste(ctx context.Context, id string) (bool, error)
}

// RepositorioLineas abstrae los dos layouts de líneas (FK al catálogo o foto del ítem).
type RepositorioLineas interface {
	// Insertar corre bajo savepoint.
	Insertar(ctx context.Context, l *Linea) error
	// Solapadas lista líneas activas del mismo ítem que intersectan iv; excluirID puede ser "".
	Solapadas(ctx context.Context, estructuraID, itemCodigo string, iv vigencia.Intervalo, excluirID string) ([]Linea, error)
	Listar(ctx context.Context, estructuraID string, soloActivas bool) ([]Linea, error)
	// BuscarPorID bloquea la línea; nil si no existe.
	BuscarPorID(ctx context.Context, estructuraID, lineaID string) (*Linea, error)
	// Actualizar guarda monto y vigencia bajo savepoint.
	Actualizar(ctx context.Context, l *Linea) error
	Desactivar(ctx context.Context, lineaID string) error
}

// Catalogo resuelve ítems de sueldo.
type Catalogo interface {
	ResolverPorIDOCodigo(ctx context.Context, ref string) (*itemcatalogo.Item, error)
	AsegurarSueldoBase(ctx context.Context) (*itemcatalogo.Item, error)
}

// Esquema responde sobre tablas y columnas presentes.
type Esquema interface {
	TablaExiste(ctx context.Context, tabla string) (bool, error)
	TipoColumna(ctx context.Context, tabla, columna string) (string, error)
}

// Unidad agrupa los repositorios que comparten una transacción.
type Unidad interface {
	Cabeceras() Repositorio
	// Lineas elige la implementación según el esquema de la tabla de líneas.
	Lineas(ctx context.Context, v Variante) (RepositorioLineas, error)
	Catalogo() Catalogo
	Esquema() Esquema
}

// Transactor ejecuta fn dentro de una transacción; si fn falla se hace rollback.
type Transactor interface {
	Transaccion(ctx context.Context, fn func(Unidad) error) error
}

// Autorizador es la compuerta previa a toda escritura.
type Autorizador interface {
	Autorizar(ctx context.Context, accion, recurso string) error
}

// Evento se publica después del commit de una estructura nueva.
type Evento struct {
	Tipo          string          `json:"type"`
	EstructuraID  string          `json:"structure_id"`
	Variante      Variante        `json:"scope_type"`
	Clave         ClaveAlcance    `json:"scope"`
	Version       int             `json:"version"`
	VigenciaDesde vigencia.Fecha  `json:"validity_from"`
	Lineas        int             `json:"lines"`
	CerradaID     string          `json:"closed_predecessor_id,omitempty"`
	CerradaHasta  *vigencia.Fecha `json:"closed_predecessor_to,omitempty"`
}

// Notificador recibe los eventos de estructura.
type Notificador interface {
	Notificar(ctx context.Context, ev Evento) error
}
