package main

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/guardiaspro/api-estructuras/internal/auth"
	"github.com/guardiaspro/api-estructuras/internal/config"
	"github.com/guardiaspro/api-estructuras/internal/notificacion"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func nuevasDependencias(t *testing.T, conAuth bool) (dependencias, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:               logger.Default.LogMode(logger.Silent),
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)

	d := dependencias{
		DB:          gdb,
		Log:         log,
		Notificador: notificacion.NuevoWebhook("", time.Second),
		Metricas:    config.MetricsOptions{Enabled: true, Path: "/metrics"},
		Origenes:    []string{"http://localhost:3000"},
	}
	if conAuth {
		priv, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		d.Llaves, err = auth.NuevasLlaves(priv, "kid-test", "guardiaspro", "api-estructuras", time.Minute)
		require.NoError(t, err)
	}
	return d, mock
}

func TestRouter_Health(t *testing.T) {
	d, mock := nuevasDependencias(t, false)
	h := nuevoRouter(d)

	mock.ExpectPing()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	mock.ExpectPing().WillReturnError(errors.New("conexión rechazada"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRouter_Metricas(t *testing.T) {
	d, _ := nuevasDependencias(t, false)
	rec := httptest.NewRecorder()
	nuevoRouter(d).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")

	d.Metricas.Enabled = false
	rec = httptest.NewRecorder()
	nuevoRouter(d).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_ConAuth(t *testing.T) {
	d, _ := nuevasDependencias(t, true)
	h := nuevoRouter(d)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/estructuras/instalacion", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kid":"kid-test"`)
}

func TestRouter_SinAuthNoPublicaJWKS(t *testing.T) {
	d, _ := nuevasDependencias(t, false)
	rec := httptest.NewRecorder()
	nuevoRouter(d).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_PreflightCORS(t *testing.T) {
	d, _ := nuevasDependencias(t, true)
	req := httptest.NewRequest(http.MethodOptions, "/api/items", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "authorization,content-type")

	rec := httptest.NewRecorder()
	nuevoRouter(d).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "http://intruso.example")
	rec = httptest.NewRecorder()
	nuevoRouter(d).ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
