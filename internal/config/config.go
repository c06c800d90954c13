package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Rate limit store backends
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Config holds all configuration for the application
type Config struct {
	// Server Configuration
	Environment string `env:"ENV" envDefault:"development"`
	Port        string `env:"API_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile     string `env:"LOG_FILE"`
	LogRequests bool   `env:"LOG_REQUESTS" envDefault:"false"`
	MaxBodySize int64  `env:"MAX_BODY_SIZE" envDefault:"65536"`

	// CORS Configuration
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	// Global limiter in front of every route
	GlobalRPS   int `env:"GLOBAL_RPS" envDefault:"10"`
	GlobalBurst int `env:"GLOBAL_BURST" envDefault:"20"`

	// Contact Form Configuration
	ContactEmail    string        `env:"CONTACT_EMAIL"`
	ContactFrom     string        `env:"CONTACT_FROM"`
	Organization    string        `env:"ORGANIZATION_NAME" envDefault:"Project Annie"`
	DispatchTimeout time.Duration `env:"DISPATCH_TIMEOUT" envDefault:"10s"`

	// Notification Provider Configuration
	NotifyProvider   string `env:"NOTIFY_PROVIDER" envDefault:"resend"`
	ResendAPIKey     string `env:"RESEND_API_KEY"`
	ResendBaseURL    string `env:"RESEND_BASE_URL"`
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   string `env:"TELEGRAM_CHAT_ID"`

	// Rate Limit Configuration
	RateLimitMax           int           `env:"RATE_LIMIT_MAX" envDefault:"5"`
	RateLimitWindow        time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"15m"`
	RateLimitHighWater     int           `env:"RATE_LIMIT_HIGH_WATER" envDefault:"1000"`
	RateLimitStore         string        `env:"RATE_LIMIT_STORE" envDefault:"memory"`
	RateLimitDSN           string        `env:"RATE_LIMIT_DSN"`
	RateLimitSweepInterval time.Duration `env:"RATE_LIMIT_SWEEP_INTERVAL" envDefault:"5m"`

	// Telemetry Configuration
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load loads the configuration from environment variables and .env files.
// Variables already set in the environment win over file values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = defaultEnvFiles()
	}

	for _, loc := range envFiles {
		if err := godotenv.Load(loc); err == nil {
			break
		}
	}

	return Parse()
}

// Parse reads the configuration from the environment only
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Set default log file if not set
	if cfg.LogFile == "" {
		if cfg.IsProduction() {
			cfg.LogFile = "/app/logs/contactd.log"
		} else {
			cfg.LogFile = "./logs/contactd.log"
		}
	}

	return cfg, nil
}

func defaultEnvFiles() []string {
	files := []string{".env"}
	if envName := os.Getenv("ENV"); envName != "" {
		files = append([]string{fmt.Sprintf(".env.%s", envName)}, files...)
	}
	return files
}

// Validate rejects settings that would only fail later at runtime. Missing
// provider credentials are not checked here: they surface on first dispatch.
func (c *Config) Validate() error {
	c.RateLimitStore = strings.ToLower(strings.TrimSpace(c.RateLimitStore))
	switch c.RateLimitStore {
	case StoreMemory:
	case StorePostgres, StoreSQLite:
		if c.RateLimitDSN == "" {
			return fmt.Errorf("RATE_LIMIT_DSN is required for the %s rate limit store", c.RateLimitStore)
		}
	default:
		return fmt.Errorf("invalid RATE_LIMIT_STORE: %s", c.RateLimitStore)
	}

	if c.RateLimitMax <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX must be positive")
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	if c.DispatchTimeout <= 0 {
		return fmt.Errorf("DISPATCH_TIMEOUT must be positive")
	}
	if c.GlobalRPS <= 0 || c.GlobalBurst <= 0 {
		return fmt.Errorf("GLOBAL_RPS and GLOBAL_BURST must be positive")
	}

	return nil
}

// IsProduction reports whether ENV is production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
