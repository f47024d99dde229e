package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config contains operational core configuration parameters.
type Config struct {
	LogLevel int      `env:"LOG_LEVEL" envDefault:"0"`
	DataRoot string   `env:"DATA_ROOT" envDefault:"./data"`
	Backup   Backup   `envPrefix:"BACKUP_"`
	Security Security `envPrefix:"SECURITY_"`
	Events   Events   `envPrefix:"EVENTS_"`
	Registry Registry `envPrefix:"REGISTRY_"`
	Offsite  Offsite  `envPrefix:"OFFSITE_"`
}

// Backup contains backup orchestration parameters.
type Backup struct {
	Dir           string `env:"DIR" envDefault:"./backups"`
	RetentionDays int    `env:"RETENTION_DAYS" envDefault:"30"`
	DatabaseURL   string `env:"DATABASE_URL"`
	// DatabasePassword is passed to pg_dump via PGPASSWORD, never on argv.
	DatabasePassword string `env:"DATABASE_PASSWORD"`
	SQLitePath       string `env:"SQLITE_PATH"`
	AIDataDir        string `env:"AI_DATA_DIR" envDefault:"./data/ai_training"`
	UploadsDir       string `env:"UPLOADS_DIR" envDefault:"./data/uploads"`
	ModelsDir        string `env:"MODELS_DIR" envDefault:"./data/models"`
}

// Security contains security policy parameters. Flags live here rather
// than as package-level state so tests can toggle policy per instance.
type Security struct {
	RequireAdmin2FA     bool   `env:"REQUIRE_ADMIN_2FA" envDefault:"true"`
	EnforceReadonlyLogs bool   `env:"ENFORCE_READONLY_LOGS" envDefault:"true"`
	TwoFactorSecret     string `env:"TWO_FACTOR_SECRET"`
	// TokenMode selects the verifier: "static" or "jwt".
	TokenMode string `env:"TOKEN_MODE" envDefault:"static"`
	JWTSecret string `env:"JWT_SECRET"`
}

// Events contains interaction log parameters.
type Events struct {
	LogDir  string `env:"LOG_DIR" envDefault:"./data/interaction_logs"`
	LogFile string `env:"LOG_FILE" envDefault:"interactions.jsonl"`
}

// Registry contains capability registry parameters.
type Registry struct {
	Path string `env:"PATH" envDefault:"./config/registry.yaml"`
}

// Offsite contains object storage parameters for archive replication.
type Offsite struct {
	Enabled   bool   `env:"ENABLED" envDefault:"false"`
	Endpoint  string `env:"ENDPOINT" envDefault:"localhost:9000"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Bucket    string `env:"BUCKET_NAME" envDefault:"careertrojan-backups"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
}

// NewConfig loads configuration from environment variables.
func NewConfig() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}
