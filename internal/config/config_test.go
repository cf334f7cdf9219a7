package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCargar_Defaults(t *testing.T) {
	t.Setenv("AUTH_ENABLED", "false")
	t.Setenv("DB_USERNAME", "postgres")
	t.Setenv("DB_PASSWORD", "postgres")

	cfg, err := Cargar(filepath.Join(t.TempDir(), "no-existe.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, uint(5432), cfg.Database.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 5*time.Second, cfg.Webhook.Timeout)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
}

func TestCargar_DesdeArchivoEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("DB_HOST=db.interno\nDB_PORT=6543\nWEBHOOK_URL=http://hooks.local/estructuras\n"), 0o600))

	t.Setenv("AUTH_ENABLED", "false")
	t.Setenv("DB_SECRET_ID", "prod/estructuras")
	// godotenv.Load no pisa variables ya definidas; se limpian al terminar el test.
	t.Setenv("DB_HOST", "")
	require.NoError(t, os.Unsetenv("DB_HOST"))
	t.Setenv("DB_PORT", "")
	require.NoError(t, os.Unsetenv("DB_PORT"))
	t.Setenv("WEBHOOK_URL", "")
	require.NoError(t, os.Unsetenv("WEBHOOK_URL"))

	cfg, err := Cargar(path)
	require.NoError(t, err)
	assert.Equal(t, "db.interno", cfg.Database.Host)
	assert.Equal(t, uint(6543), cfg.Database.Port)
	assert.Equal(t, "http://hooks.local/estructuras", cfg.Webhook.URL)
}

func TestValidar_AuthIncompleta(t *testing.T) {
	cfg := &Configuracion{
		Auth:     AuthOptions{Enabled: true, KID: "k1"},
		Database: DatabaseOptions{Username: "u", Password: "p"},
	}
	assert.ErrorContains(t, cfg.Validar(), "AUTH_RSA_PRIVATE_PATH")
}

func TestValidar_SinCredenciales(t *testing.T) {
	cfg := &Configuracion{Auth: AuthOptions{Enabled: false}}
	assert.ErrorContains(t, cfg.Validar(), "DB_SECRET_ID")
}

func TestCargarAuth_SinValidarBase(t *testing.T) {
	t.Setenv("AUTH_KID", "k1")
	t.Setenv("AUTH_ISSUER", "guardiaspro")
	t.Setenv("AUTH_ACCESS_TTL", "1h")

	opts, err := CargarAuth(filepath.Join(t.TempDir(), "no-existe.env"))
	require.NoError(t, err)
	assert.Equal(t, "k1", opts.KID)
	assert.Equal(t, time.Hour, opts.AccessTTL)
}
