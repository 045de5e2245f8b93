package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the application's configuration values.
// Tags like `envconfig:"APP_PORT"` specify the environment variable name.
// `default:""` provides a default value if the env var is not set.
// `required:"true"` makes an environment variable mandatory.
type Config struct {
	AppEnv     string `envconfig:"APP_ENV" default:"development"` // e.g., development, staging, production
	Log        LogConfig
	HttpServer ServerConfig
	GrpcServer GrpcServerConfig
	Database   DatabaseConfig
	Storage    StorageConfig
	Auth       AuthConfig
	Mail       MailConfig
}

// LogConfig controls the zap logger and optional rotated log file.
type LogConfig struct {
	Level      string `envconfig:"LOG_LEVEL" default:"info"`        // debug, info, warn, error
	Mode       string `envconfig:"LOG_MODE" default:"development"`  // development or production encoder
	FileEnable bool   `envconfig:"LOG_FILE_ENABLE" default:"false"`
	Filename   string `envconfig:"LOG_FILENAME" default:"logs/inventory.log"`
	MaxSizeMB  int    `envconfig:"LOG_MAX_SIZE_MB" default:"64"`
	MaxBackups int    `envconfig:"LOG_MAX_BACKUPS" default:"7"`
	MaxAgeDays int    `envconfig:"LOG_MAX_AGE_DAYS" default:"7"`
}

// ServerConfig holds HTTP server-specific configurations.
type ServerConfig struct {
	Port           string        `envconfig:"HTTP_SERVER_PORT" default:"8080"`
	TimeoutRead    time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_READ" default:"15s"`
	TimeoutWrite   time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_WRITE" default:"15s"`
	TimeoutIdle    time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_IDLE" default:"60s"`
	MaxUploadBytes int64         `envconfig:"HTTP_SERVER_MAX_UPLOAD_BYTES" default:"10485760"`
}

// GrpcServerConfig holds gRPC server-specific configurations.
type GrpcServerConfig struct {
	Host      string `envconfig:"GRPC_SERVER_HOST" default:"127.0.0.1"`
	Port      string `envconfig:"GRPC_SERVER_PORT" default:"9090"`
	AuthToken string `envconfig:"GRPC_AUTH_TOKEN"` // bearer token; empty rejects every inventory call
}

// Addr is the listen address of the gRPC server.
func (g *GrpcServerConfig) Addr() string {
	return net.JoinHostPort(g.Host, g.Port)
}

// DatabaseConfig selects the persistence backend.
type DatabaseConfig struct {
	Driver      string `envconfig:"DB_DRIVER" default:"postgres"` // postgres or sqlite
	AutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"true"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"data/inventory.db"`
	Postgres    PostgresConfig
}

// PostgresConfig holds PostgreSQL database connection details.
type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST"`
	Port     string `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER"`
	Password string `envconfig:"POSTGRES_PASSWORD"`
	DBName   string `envconfig:"POSTGRES_DBNAME"`
	SSLMode  string `envconfig:"POSTGRES_SSLMODE" default:"disable"`
}

// DSN constructs the Data Source Name string for connecting to PostgreSQL.
func (pc *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		pc.Host, pc.Port, pc.User, pc.Password, pc.DBName, pc.SSLMode)
}

// StorageConfig describes the product image bucket.
type StorageConfig struct {
	Backend       string `envconfig:"STORAGE_BACKEND" default:"local"` // local or sftp
	Bucket        string `envconfig:"STORAGE_BUCKET" default:"product-images"`
	PublicBaseURL string `envconfig:"STORAGE_PUBLIC_BASE_URL" default:"http://localhost:8080"`
	LocalDir      string `envconfig:"STORAGE_LOCAL_DIR" default:"data/storage"`
	ListSort      string `envconfig:"STORAGE_LIST_SORT" default:"name"` // name or created_at
	SFTP          SFTPConfig
}

// SFTPConfig holds credentials for the remote bucket backend.
type SFTPConfig struct {
	Addr     string `envconfig:"SFTP_ADDR"`
	User     string `envconfig:"SFTP_USER"`
	Password string `envconfig:"SFTP_PASSWORD"`
	HostKey  string `envconfig:"SFTP_HOST_KEY"` // authorized_keys line; empty skips verification
	Dir      string `envconfig:"SFTP_DIR" default:"/srv/storage"`
}

// AuthConfig holds session and password-reset settings.
type AuthConfig struct {
	SessionSecret    string        `envconfig:"SESSION_SECRET" required:"true"`
	ResetTokenSecret string        `envconfig:"RESET_TOKEN_SECRET" required:"true"`
	ResetTokenTTL    time.Duration `envconfig:"RESET_TOKEN_TTL" default:"1h"`
	PublicOrigin     string        `envconfig:"PUBLIC_ORIGIN" default:"http://localhost:3000"`
}

// MailConfig holds SMTP settings. An empty host disables outgoing mail.
type MailConfig struct {
	Host     string `envconfig:"SMTP_HOST"`
	Port     int    `envconfig:"SMTP_PORT" default:"587"`
	User     string `envconfig:"SMTP_USER"`
	Password string `envconfig:"SMTP_PASSWORD"`
	From     string `envconfig:"SMTP_FROM" default:"inventaire@localhost"`
}

// Load initializes the configuration from environment variables.
// It should be called once during application startup.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case "postgres":
		pg := c.Database.Postgres
		if pg.Host == "" || pg.User == "" || pg.DBName == "" {
			return fmt.Errorf("config: POSTGRES_HOST, POSTGRES_USER and POSTGRES_DBNAME are required for DB_DRIVER=postgres")
		}
	case "sqlite":
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("config: SQLITE_PATH is required for DB_DRIVER=sqlite")
		}
	default:
		return fmt.Errorf("config: invalid DB_DRIVER %q", c.Database.Driver)
	}

	switch strings.ToLower(c.Storage.Backend) {
	case "local":
	case "sftp":
		if c.Storage.SFTP.Addr == "" || c.Storage.SFTP.User == "" {
			return fmt.Errorf("config: SFTP_ADDR and SFTP_USER are required for STORAGE_BACKEND=sftp")
		}
	default:
		return fmt.Errorf("config: invalid STORAGE_BACKEND %q", c.Storage.Backend)
	}

	if c.Storage.ListSort != "name" && c.Storage.ListSort != "created_at" {
		return fmt.Errorf("config: invalid STORAGE_LIST_SORT %q", c.Storage.ListSort)
	}
	return nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
