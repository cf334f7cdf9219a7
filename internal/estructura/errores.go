package estructura

import (
	"errors"
	"fmt"
	"net/http"
)

// Codigo es el tipo de error visible por el cliente.
type Codigo string

const (
	CodigoFaltanCampos    Codigo = "MISSING_FIELDS"
	CodigoCamposInvalidos Codigo = "INVALID_FIELDS"
	CodigoRolInvalido     Codigo = "ROL_ID_INVALID"
	CodigoRolTipoInvalido Codigo = "ROL_ID_TYPE_MISMATCH"
	CodigoTipoInvalido    Codigo = "TYPE_MISMATCH"
	CodigoProhibido       Codigo = "FORBIDDEN"
	CodigoNoEncontrado    Codigo = "NOT_FOUND"
	CodigoSolape          Codigo = "OVERLAP"
	CodigoSolapeItem      Codigo = "ITEM_OVERLAP"
	CodigoYaCerrada       Codigo = "ALREADY_CLOSED"
	CodigoFaltanTablas    Codigo = "MISSING_TABLES"
	CodigoInterno         Codigo = "INTERNAL"
)

// Error es el resultado tipado de toda operación fallida del servicio.
type Error struct {
	Status     int
	Codigo     Codigo
	Mensaje    string
	Conflictos []Conflicto
	Item       string
	Causa      error
}

func (e *Error) Error() string {
	if e.Causa == nil {
		return fmt.Sprintf("%s: %s", e.Codigo, e.Mensaje)
	}
	return fmt.Sprintf("%s: %s: %v", e.Codigo, e.Mensaje, e.Causa)
}

func (e *Error) Unwrap() error { return e.Causa }

func nuevoError(status int, codigo Codigo, mensaje string, causa error) *Error {
	return &Error{Status: status, Codigo: codigo, Mensaje: mensaje, Causa: causa}
}

func errFaltanCampos(mensaje string) *Error {
	return nuevoError(http.StatusBadRequest, CodigoFaltanCampos, mensaje, nil)
}

func errCamposInvalidos(mensaje string) *Error {
	return nuevoError(http.StatusBadRequest, CodigoCamposInvalidos, mensaje, nil)
}

func errNoEncontrado(mensaje string) *Error {
	return nuevoError(http.StatusNotFound, CodigoNoEncontrado, mensaje, nil)
}

func errFaltanTablas(mensaje string, causa error) *Error {
	return nuevoError(http.StatusInternalServerError, CodigoFaltanTablas, mensaje, causa)
}

func errInterno(mensaje string, causa error) *Error {
	return nuevoError(http.StatusInternalServerError, CodigoInterno, mensaje, causa)
}

// ComoError extrae el *Error de la cadena; cualquier otro error se reporta como INTERNAL.
func ComoError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return errInterno("error inesperado", err)
}
