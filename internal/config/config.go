package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/goliatone/go-consent/pkg/activity"
)

// Config holds the console runtime settings.
type Config struct {
	BaseURL     string          `env:"CONSENT_BASE_URL"`
	Namespace   string          `env:"CONSENT_NAMESPACE" envDefault:"/cookiex/v1"`
	Nonce       string          `env:"CONSENT_NONCE"`
	Mock        bool            `env:"CONSENT_MOCK"`
	ScriptURL   string          `env:"CONSENT_SCRIPT_URL"`
	SelectorID  string          `env:"CONSENT_SELECTOR_ID" envDefault:"coookiex-comp-banner-preview"`
	SettleDelay time.Duration   `env:"CONSENT_SETTLE_DELAY" envDefault:"1s"`
	StepTimeout time.Duration   `env:"CONSENT_STEP_TIMEOUT" envDefault:"30s"`
	BannerDelay time.Duration   `env:"CONSENT_BANNER_DELAY" envDefault:"1s"`
	ListenAddr  string          `env:"CONSENT_LISTEN_ADDR" envDefault:":8080"`
	BasePath    string          `env:"CONSENT_BASE_PATH" envDefault:"/console"`
	LogLevel    string          `env:"CONSENT_LOG_LEVEL" envDefault:"info"`
	LogFormat   string          `env:"CONSENT_LOG_FORMAT" envDefault:"json"`
	ActorID     string          `env:"CONSENT_ACTOR_ID"`
	Activity    activity.Config `envPrefix:"CONSENT_ACTIVITY_"`
}

// Load parses the process environment.
func Load() (Config, error) {
	return Parse(env.Options{})
}

// Parse loads configuration with explicit env options, e.g. a fixed
// Environment map in tests. Callers run Validate once flag overrides are
// applied.
func Parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks combinations env tags cannot express.
func (c Config) Validate() error {
	if !c.Mock && c.BaseURL == "" {
		return fmt.Errorf("config: CONSENT_BASE_URL is required unless CONSENT_MOCK is set")
	}
	if c.SettleDelay < 0 || c.StepTimeout <= 0 {
		return fmt.Errorf("config: delays must be positive")
	}
	return nil
}
