// Package config provides environment configuration for the API server and the bot CLI.
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the application.
type Config struct {
	Server    Server
	NATS      NATS
	Ingest    Ingest
	Store     Store
	Live      Live
	JWT       JWT
	LLM       LLM
	RateLimit RateLimit
	Log       Log
	Tracing   Tracing
}

// Server settings.
type Server struct {
	Port         string        `env:"PORT" env-default:"8080"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" env-default:"30s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" env-default:"0s" env-description:"0 disables the write timeout so SSE streams stay open"`
	CORSOrigins  []string      `env:"CORS_ORIGINS" env-default:"https://*,http://*" env-separator:","`
	Heartbeat    time.Duration `env:"SSE_HEARTBEAT" env-default:"30s"`
}

// NATS settings.
type NATS struct {
	URL            string `env:"NATS_URL" env-default:"nats://localhost:4222"`
	CAFile         string `env:"NATS_CA_FILE"`
	CertFile       string `env:"NATS_CERT_FILE"`
	KeyFile        string `env:"NATS_KEY_FILE"`
	Token          string `env:"NATS_TOKEN"`
	RealtimePrefix string `env:"REALTIME_SUBJECT_PREFIX" env-default:"rtvi"`
}

// Ingest settings for the broker stream and its durable consumer.
type Ingest struct {
	Enabled       bool          `env:"INGEST_ENABLED" env-default:"true"`
	Stream        string        `env:"INGEST_STREAM" env-default:"PIPECAT"`
	SubjectPrefix string        `env:"INGEST_SUBJECT_PREFIX" env-default:"pipecat"`
	Durable       string        `env:"INGEST_DURABLE" env-default:"ingest"`
	AckWait       time.Duration `env:"INGEST_ACK_WAIT" env-default:"30s"`
	MaxDeliver    int           `env:"INGEST_MAX_DELIVER" env-default:"5"`
	MaxAge        time.Duration `env:"INGEST_MAX_AGE" env-default:"168h"`
}

// Store settings.
type Store struct {
	Driver       string `env:"STORE_DRIVER" env-default:"sqlite"`
	DSN          string `env:"STORE_DSN" env-default:"file:transcripts.db?_pragma=journal_mode(WAL)"`
	MaxOpenConns int    `env:"STORE_MAX_OPEN_CONNS" env-default:"10"`
}

// Live session settings.
type Live struct {
	Mode         string        `env:"LIVE_MODE" env-default:"informational"`
	CleanupDelay time.Duration `env:"LIVE_CLEANUP_DELAY" env-default:"5s"`
	RefreshDelay time.Duration `env:"LIVE_REFRESH_DELAY" env-default:"2s"`
}

// JWT settings.
type JWT struct {
	Secret     string        `env:"JWT_SECRET" env-default:"development-secret-change-in-production"`
	Expiration time.Duration `env:"JWT_EXPIRATION" env-default:"15m"`
}

// LLM settings for the reference bot.
type LLM struct {
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	Default         string `env:"DEFAULT_LLM" env-default:"anthropic"`
	Model           string `env:"LLM_MODEL"`
	SystemPrompt    string `env:"LLM_SYSTEM_PROMPT" env-default:"You are a friendly tutor. Answer briefly."`
}

// RateLimit settings.
type RateLimit struct {
	Requests int           `env:"RATE_LIMIT_REQUESTS" env-default:"60"`
	Window   time.Duration `env:"RATE_LIMIT_WINDOW" env-default:"1m"`
}

// Log settings.
type Log struct {
	Level string `env:"LOG_LEVEL" env-default:"info"`
}

// Tracing settings.
type Tracing struct {
	Enabled  bool   `env:"TRACING_ENABLED" env-default:"false"`
	Endpoint string `env:"TRACING_ENDPOINT" env-default:"localhost:4318"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MustLoad is Load that panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate checks values the environment cannot express as types.
func (c *Config) Validate() error {
	switch c.Live.Mode {
	case "informational", "conversational":
	default:
		return fmt.Errorf("invalid LIVE_MODE %q", c.Live.Mode)
	}
	switch c.Store.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q", c.Store.Driver)
	}
	return nil
}

// Usage describes every supported environment variable.
func Usage() (string, error) {
	var cfg Config
	return cleanenv.GetDescription(&cfg, nil)
}
