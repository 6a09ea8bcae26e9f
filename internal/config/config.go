package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/MrJamesThe3rd/ledgersync/internal/database"
)

type Config struct {
	App struct {
		Name      string `envconfig:"APP_NAME" default:"ledgersync"`
		Port      int    `envconfig:"PORT" default:"8080"`
		LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
		LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
	}

	DB struct {
		Driver   string `envconfig:"DB_DRIVER" default:"sqlite3"`
		Path     string `envconfig:"DB_PATH" default:"data/ledgersync.db"`
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"ledgersync"`
	}

	Firefly struct {
		URL      string `envconfig:"FIREFLY_URL" default:"http://localhost:9595/api"`
		PageSize int    `envconfig:"FIREFLY_PAGE_SIZE" default:"50"`
	}

	Wallet struct {
		URL      string `envconfig:"WALLET_URL" default:"https://api.budgetbakers.com/api/v1"`
		PageSize int    `envconfig:"WALLET_PAGE_SIZE" default:"100"`
	}

	HTTP struct {
		Timeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	}

	Server struct {
		Timeout    time.Duration `envconfig:"SERVER_TIMEOUT" default:"5m"`
		Origins    []string      `envconfig:"CORS_ORIGINS" default:"http://localhost:*,http://127.0.0.1:*"`
		ImportRoot string        `envconfig:"IMPORT_ROOT" default:"imports"`
	}

	GCS struct {
		Endpoint string `envconfig:"GCS_ENDPOINT" default:""`
	}

	Snapshot struct {
		Dir string `envconfig:"SNAPSHOT_DIR" default:"."`
	}

	Import struct {
		SkipSubmitted bool `envconfig:"SKIP_SUBMITTED" default:"false"`
	}
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DB.Driver == database.SQLite {
		return database.SQLiteDSN(c.DB.Path)
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

// Load reads env files into the environment, then the environment into
// Config. Without arguments a missing .env is not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
