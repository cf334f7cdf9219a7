package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/guardiaspro/api-estructuras/internal/logger"
	"github.com/guardiaspro/api-estructuras/internal/utils"
)

type ctxKey string

const ctxClaims ctxKey = "claims"

// ConClaims guarda las claims en el contexto.
func ConClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, ctxClaims, c)
}

// ClaimsDesdeContexto devuelve las claims del request autenticado.
func ClaimsDesdeContexto(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ctxClaims).(*Claims)
	return c, ok && c != nil
}

// Middleware exige un Bearer válido y agrega user_id al log del request.
func Middleware(l *Llaves) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			h := r.Header.Get("Authorization")
			if h == "" || !strings.HasPrefix(h, "Bearer ") {
				utils.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "token ausente")
				return
			}
			claims, err := l.Validar(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				logger.DesdeContexto(r.Context()).WithError(err).Debug("token rechazado")
				utils.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "token inválido")
				return
			}
			ctx := ConClaims(r.Context(), claims)
			ctx = logger.ConContexto(ctx, logger.DesdeContexto(ctx).WithField("user_id", claims.UserID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
