package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"ENV"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`

	// External capability endpoints. Empty means the capability is absent
	// and the stages that depend on it degrade per their failure policy.
	OCRURL string `mapstructure:"OCR_URL"`
	NERURL string `mapstructure:"NER_URL"`

	// Terminology tables are loaded once at startup, from JSON files under
	// TerminologyDir or from Postgres when DATABASE_URL is set.
	TerminologyDir string `mapstructure:"TERMINOLOGY_DIR"`

	// Standardization policy, tunable per deployment.
	AcceptanceThreshold float64 `mapstructure:"ACCEPTANCE_THRESHOLD"`
	FuzzyFloor          float64 `mapstructure:"FUZZY_FLOOR"`

	// NLP windowing.
	MaxWindow     int `mapstructure:"MAX_WINDOW"`
	WindowOverlap int `mapstructure:"WINDOW_OVERLAP"`

	// Stage-local retry/timeout policy for external calls.
	StageRetries int           `mapstructure:"STAGE_RETRIES"`
	StageTimeout time.Duration `mapstructure:"STAGE_TIMEOUT"`
	BatchWorkers int           `mapstructure:"BATCH_WORKERS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("TERMINOLOGY_DIR", "./terminology")
	v.SetDefault("ACCEPTANCE_THRESHOLD", 0.75)
	v.SetDefault("FUZZY_FLOOR", 0.6)
	v.SetDefault("MAX_WINDOW", 2000)
	v.SetDefault("WINDOW_OVERLAP", 200)
	v.SetDefault("STAGE_RETRIES", 3)
	v.SetDefault("STAGE_TIMEOUT", "30s")
	v.SetDefault("BATCH_WORKERS", 4)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("OCR_URL")
	v.BindEnv("NER_URL")
	v.BindEnv("TERMINOLOGY_DIR")
	v.BindEnv("ACCEPTANCE_THRESHOLD")
	v.BindEnv("FUZZY_FLOOR")
	v.BindEnv("MAX_WINDOW")
	v.BindEnv("WINDOW_OVERLAP")
	v.BindEnv("STAGE_RETRIES")
	v.BindEnv("STAGE_TIMEOUT")
	v.BindEnv("BATCH_WORKERS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration describes a runnable pipeline.
func (c *Config) Validate() error {
	if c.AcceptanceThreshold < 0 || c.AcceptanceThreshold > 1 {
		return fmt.Errorf("ACCEPTANCE_THRESHOLD must be in [0,1], got %v", c.AcceptanceThreshold)
	}
	if c.FuzzyFloor < 0 || c.FuzzyFloor > 1 {
		return fmt.Errorf("FUZZY_FLOOR must be in [0,1], got %v", c.FuzzyFloor)
	}
	if c.MaxWindow <= 0 {
		return fmt.Errorf("MAX_WINDOW must be positive, got %d", c.MaxWindow)
	}
	if c.WindowOverlap < 0 || c.WindowOverlap >= c.MaxWindow {
		return fmt.Errorf("WINDOW_OVERLAP must be in [0, MAX_WINDOW), got %d", c.WindowOverlap)
	}
	if c.StageRetries < 1 {
		return fmt.Errorf("STAGE_RETRIES must be at least 1, got %d", c.StageRetries)
	}
	if c.BatchWorkers < 1 {
		return fmt.Errorf("BATCH_WORKERS must be at least 1, got %d", c.BatchWorkers)
	}
	return nil
}
