package estructura

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// falla agrupa los errores de PostgreSQL que el motor de solapes distingue.
type falla int

const (
	fallaOtra falla = iota
	fallaSolape
	fallaVersion
	fallaTipo
	fallaTablas
	fallaReferencia
)

func clasificar(err error) falla {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fallaOtra
	}
	switch pgErr.Code {
	case "23P01": // exclusion_violation
		return fallaSolape
	case "23505": // unique_violation
		if strings.Contains(pgErr.ConstraintName, "version") {
			return fallaVersion
		}
		return fallaSolape
	case "22P02", "42804", "42883": // invalid_text_representation, datatype_mismatch, undefined_function
		return fallaTipo
	case "42P01", "42703": // undefined_table, undefined_column
		return fallaTablas
	case "23503": // foreign_key_violation
		return fallaReferencia
	}
	return fallaOtra
}

// errorDeBD traduce un error de escritura que no es de solape.
func errorDeBD(err error, mensaje string) *Error {
	switch clasificar(err) {
	case fallaVersion:
		registrarConflicto("version")
		return nuevoError(http.StatusConflict, CodigoSolape, "ya existe una versión para este periodo", err)
	case fallaSolape:
		registrarConflicto("solape")
		return nuevoError(http.StatusConflict, CodigoSolape, "la vigencia se solapa con una estructura existente", err)
	case fallaTipo:
		return nuevoError(http.StatusBadRequest, CodigoTipoInvalido, "tipo de dato incompatible con el esquema", err)
	case fallaTablas:
		return errFaltanTablas("faltan tablas o columnas de estructuras; ejecute las migraciones", err)
	case fallaReferencia:
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && strings.Contains(pgErr.ConstraintName, "rol_servicio") {
			return nuevoError(http.StatusBadRequest, CodigoRolInvalido, "el rol de servicio no existe", err)
		}
		return nuevoError(http.StatusBadRequest, CodigoCamposInvalidos, "la referencia indicada no existe", err)
	}
	return errInterno(mensaje, err)
}
