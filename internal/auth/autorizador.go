package auth

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrSinCredenciales = errors.New("request sin credenciales")
	ErrSinPermiso      = errors.New("permiso insuficiente")
)

// Autorizador decide con las claims del contexto. Un admin puede todo; el resto
// necesita "recurso:accion" o "recurso:*" entre sus permisos.
type Autorizador struct{}

func (Autorizador) Autorizar(ctx context.Context, accion, recurso string) error {
	c, ok := ClaimsDesdeContexto(ctx)
	if !ok {
		return ErrSinCredenciales
	}
	if c.IsAdmin {
		return nil
	}
	exacto, comodin := recurso+":"+accion, recurso+":*"
	for _, p := range c.Permisos {
		if p == exacto || p == comodin {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrSinPermiso, exacto)
}

// PermitirTodo se usa cuando AUTH_ENABLED=false.
type PermitirTodo struct{}

func (PermitirTodo) Autorizar(context.Context, string, string) error { return nil }
