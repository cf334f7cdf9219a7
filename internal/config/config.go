package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type DatabaseOptions struct {
	Host           string `env:"DB_HOST" envDefault:"localhost"`
	Port           uint   `env:"DB_PORT" envDefault:"5432"`
	Name           string `env:"DB_NAME" envDefault:"estructuras"`
	Username       string `env:"DB_USERNAME"`
	Password       string `env:"DB_PASSWORD"`
	SecretID       string `env:"DB_SECRET_ID"`
	SSLModeDisable bool   `env:"DB_SSL_MODE_DISABLE" envDefault:"false"`
	AutoMigrate    bool   `env:"DB_AUTO_MIGRATE" envDefault:"false"`
}

type AuthOptions struct {
	Enabled        bool          `env:"AUTH_ENABLED" envDefault:"true"`
	RSAPrivatePath string        `env:"AUTH_RSA_PRIVATE_PATH"`
	KID            string        `env:"AUTH_KID"`
	Issuer         string        `env:"AUTH_ISSUER"`
	Audience       string        `env:"AUTH_AUDIENCE"`
	AccessTTL      time.Duration `env:"AUTH_ACCESS_TTL" envDefault:"15m"`
}

type LogOptions struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type WebhookOptions struct {
	URL     string        `env:"WEBHOOK_URL"`
	Timeout time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"5s"`
}

type MetricsOptions struct {
	Enabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
	Path    string `env:"METRICS_PATH" envDefault:"/metrics"`
}

// Configuracion agrupa todo lo que se lee del ambiente al arrancar.
type Configuracion struct {
	Port           string   `env:"PORT" envDefault:"8080"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	Database DatabaseOptions
	Auth     AuthOptions
	Log      LogOptions
	Webhook  WebhookOptions
	Metrics  MetricsOptions
}

// Cargar lee los .env existentes (si hay) y luego las variables de ambiente.
func Cargar(envFiles ...string) (*Configuracion, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env", ".env.local"}
	}
	if err := cargarEnv(envFiles); err != nil {
		return nil, fmt.Errorf("cargar .env: %w", err)
	}

	cfg := &Configuracion{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validar(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// CargarAuth lee solo las opciones de firma de tokens.
func CargarAuth(envFiles ...string) (*AuthOptions, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env", ".env.local"}
	}
	if err := cargarEnv(envFiles); err != nil {
		return nil, fmt.Errorf("cargar .env: %w", err)
	}
	opts := &AuthOptions{}
	if err := env.Parse(opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return opts, nil
}

// Validar revisa combinaciones que env.Parse no puede expresar.
func (c *Configuracion) Validar() error {
	if c.Auth.Enabled {
		if c.Auth.RSAPrivatePath == "" || c.Auth.KID == "" || c.Auth.Issuer == "" || c.Auth.Audience == "" {
			return fmt.Errorf("AUTH_ENABLED=true exige AUTH_RSA_PRIVATE_PATH/AUTH_KID/AUTH_ISSUER/AUTH_AUDIENCE")
		}
	}
	if c.Database.SecretID == "" && (c.Database.Username == "" || c.Database.Password == "") {
		return fmt.Errorf("defina DB_USERNAME/DB_PASSWORD o DB_SECRET_ID")
	}
	return nil
}

func cargarEnv(files []string) error {
	existentes := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existentes = append(existentes, f)
		}
	}
	if len(existentes) == 0 {
		return nil
	}
	return godotenv.Load(existentes...)
}
