package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/creastat/aura"
)

// Config is the service configuration, read from the environment.
type Config struct {
	HTTPPort        int           `env:"PORT" envDefault:"8080"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	// Supabase (required)
	SupabaseURL      string        `env:"SUPABASE_URL,notEmpty"`
	SupabaseKey      string        `env:"SUPABASE_KEY,notEmpty"`
	SupabaseCacheTTL time.Duration `env:"SUPABASE_CACHE_TTL" envDefault:"5m"`

	// Completion endpoint
	AIAPIKey      string        `env:"AI_API_KEY,notEmpty"`
	AIBaseURL     string        `env:"AI_BASE_URL" envDefault:"https://api.deepseek.com"`
	AIModel       string        `env:"AI_MODEL" envDefault:"deepseek-chat"`
	AIMaxTokens   int           `env:"AI_MAX_TOKENS" envDefault:"2000"`
	AITemperature float32       `env:"AI_TEMPERATURE" envDefault:"0.7"`
	AITimeout     time.Duration `env:"AI_TIMEOUT" envDefault:"30s"`
	// AIPromptTokenLimit caps the estimated history tokens per completion; 0 disables it.
	AIPromptTokenLimit int `env:"AI_PROMPT_TOKEN_LIMIT" envDefault:"0"`

	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"10"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`

	// StateStore selects the backend of the rate limiter, turn locks and sessions.
	StateStore string        `env:"STATE_STORE" envDefault:"memory"`
	RedisURL   string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	// TurnLockExpiry bounds a Redis turn lock left by a crashed instance.
	TurnLockExpiry time.Duration `env:"TURN_LOCK_EXPIRY" envDefault:"2m"`

	// Scripture grounding is enabled when QDRANT_URL is set.
	QdrantURL         string  `env:"QDRANT_URL"`
	QdrantAPIKey      string  `env:"QDRANT_API_KEY"`
	QdrantCollection  string  `env:"QDRANT_COLLECTION" envDefault:"bible_verses"`
	EmbeddingModel    string  `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	ScripturePassages int     `env:"SCRIPTURE_PASSAGES" envDefault:"3"`
	ScriptureMinScore float32 `env:"SCRIPTURE_MIN_SCORE" envDefault:"0.5"`
	BibleTranslation  string  `env:"BIBLE_TRANSLATION"`
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads the configuration from the environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	cfg.StateStore = strings.ToLower(strings.TrimSpace(cfg.StateStore))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	switch aura.StoreType(c.StateStore) {
	case aura.StoreTypeMemory, aura.StoreTypeRedis:
	default:
		return fmt.Errorf("%w: STATE_STORE %q", aura.ErrInvalidStoreType, c.StateStore)
	}
	if c.RateLimitRequests <= 0 {
		return fmt.Errorf("%w: RATE_LIMIT_REQUESTS must be positive", aura.ErrInvalidConfig)
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("%w: RATE_LIMIT_WINDOW must be positive", aura.ErrInvalidConfig)
	}
	if c.AITimeout <= 0 {
		return fmt.Errorf("%w: AI_TIMEOUT must be positive", aura.ErrInvalidConfig)
	}
	if c.AIPromptTokenLimit < 0 {
		return fmt.Errorf("%w: AI_PROMPT_TOKEN_LIMIT must not be negative", aura.ErrInvalidConfig)
	}
	if c.TurnLockExpiry <= c.AITimeout {
		return fmt.Errorf("%w: TURN_LOCK_EXPIRY must exceed AI_TIMEOUT", aura.ErrInvalidConfig)
	}
	return nil
}

// Store returns the configured state store type.
func (c *Config) Store() aura.StoreType {
	return aura.StoreType(c.StateStore)
}

// ScriptureEnabled reports whether scripture grounding is configured.
func (c *Config) ScriptureEnabled() bool {
	return c.QdrantURL != ""
}
