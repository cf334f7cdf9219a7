package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/guardiaspro/api-estructuras/internal/config"
	"github.com/guardiaspro/api-estructuras/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nuevaPrivada(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	k, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return k
}

func nuevasLlaves(t *testing.T) *Llaves {
	t.Helper()
	l, err := NuevasLlaves(nuevaPrivada(t), "kid-1", "guardiaspro", "api-estructuras", time.Minute)
	require.NoError(t, err)
	return l
}

func TestGenerarYValidar(t *testing.T) {
	l := nuevasLlaves(t)

	tok, err := l.GenerarAccessToken("u-1", false, []string{"estructuras:crear"})
	require.NoError(t, err)

	c, err := l.Validar(tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", c.UserID)
	assert.False(t, c.IsAdmin)
	assert.Equal(t, []string{"estructuras:crear"}, c.Permisos)
	assert.Equal(t, "u-1", c.Subject)
}

func TestValidar_Rechazos(t *testing.T) {
	l := nuevasLlaves(t)
	otra := nuevasLlaves(t)

	tokOtra, err := otra.GenerarAccessToken("u-1", true, nil)
	require.NoError(t, err)
	_, err = l.Validar(tokOtra)
	assert.Error(t, err, "firma de otra llave con el mismo kid")

	otraAud, err := NuevasLlaves(l.priv, "kid-1", "guardiaspro", "otra-api", time.Minute)
	require.NoError(t, err)
	tokAud, err := otraAud.GenerarAccessToken("u-1", true, nil)
	require.NoError(t, err)
	_, err = l.Validar(tokAud)
	assert.Error(t, err, "audience distinta")

	// HS256 no se acepta aunque el kid exista
	hs := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{UserID: "u-1"})
	hs.Header["kid"] = "kid-1"
	raw, err := hs.SignedString([]byte("secreto"))
	require.NoError(t, err)
	_, err = l.Validar(raw)
	assert.Error(t, err)

	vencido := jwt.NewWithClaims(jwt.SigningMethodRS256, &Claims{
		UserID: "u-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "guardiaspro",
			Audience:  []string{"api-estructuras"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	vencido.Header["kid"] = "kid-1"
	raw, err = vencido.SignedString(l.priv)
	require.NoError(t, err)
	_, err = l.Validar(raw)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestCargarLlaves_PKCS8(t *testing.T) {
	priv := nuevaPrivada(t)
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "priv.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), 0o600))

	l, err := CargarLlaves(config.AuthOptions{RSAPrivatePath: path, KID: "k", Issuer: "i", Audience: "a", AccessTTL: time.Minute})
	require.NoError(t, err)
	assert.True(t, priv.Equal(l.priv))

	_, err = CargarLlaves(config.AuthOptions{RSAPrivatePath: filepath.Join(t.TempDir(), "no-existe.pem"), KID: "k", Issuer: "i", Audience: "a"})
	assert.Error(t, err)

	_, err = ParsePrivada([]byte("no es pem"))
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	l := nuevasLlaves(t)
	var visto *Claims
	var userLog any
	h := Middleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		visto, _ = ClaimsDesdeContexto(r.Context())
		userLog = logger.DesdeContexto(r.Context()).Data["user_id"]
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, visto)

	req := httptest.NewRequest(http.MethodGet, "/api/items", nil)
	req.Header.Set("Authorization", "Bearer basura")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok, err := l.GenerarAccessToken("u-9", false, nil)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/items", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, visto)
	assert.Equal(t, "u-9", visto.UserID)
	assert.Equal(t, "u-9", userLog)

	// preflight pasa sin token
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/items", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAutorizador(t *testing.T) {
	a := Autorizador{}
	ctx := context.Background()

	assert.ErrorIs(t, a.Autorizar(ctx, "crear", "estructuras"), ErrSinCredenciales)

	admin := ConClaims(ctx, &Claims{UserID: "a", IsAdmin: true})
	assert.NoError(t, a.Autorizar(admin, "cerrar", "estructuras"))

	editor := ConClaims(ctx, &Claims{UserID: "e", Permisos: []string{"estructuras:crear", "items:*"}})
	assert.NoError(t, a.Autorizar(editor, "crear", "estructuras"))
	assert.NoError(t, a.Autorizar(editor, "crear", "items"))
	assert.ErrorIs(t, a.Autorizar(editor, "cerrar", "estructuras"), ErrSinPermiso)

	assert.NoError(t, PermitirTodo{}.Autorizar(ctx, "cerrar", "estructuras"))
}

func TestJWKSHandler(t *testing.T) {
	l := nuevasLlaves(t)
	rec := httptest.NewRecorder()
	l.JWKSHandler(rec, httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Keys []jwk `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Keys, 1)
	assert.Equal(t, "kid-1", body.Keys[0].Kid)
	assert.Equal(t, "RS256", body.Keys[0].Alg)
	assert.NotEmpty(t, body.Keys[0].N)
}
