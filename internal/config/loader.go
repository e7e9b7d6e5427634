package config

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment conventions.
const (
	EnvPrefix     = "PLAYGROUND_"
	EnvConfigFile = "PLAYGROUND_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if PLAYGROUND_CONFIG is set
//  3. env (prefix PLAYGROUND_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// PLAYGROUND_WEIGHT_NICHE -> weight_niche. Keys are flat, so the
	// delimiter never appears in a mapped key.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// metricName is the Prometheus metric name grammar.
var metricName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}

	err := validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In("text", "json")),
		validation.Field(&c.StoreDriver, validation.Required, validation.In(StoreMemory, StoreSQLite, StoreBolt)),
		validation.Field(&c.StorePath, validation.When(c.StoreDriver != StoreMemory, validation.Required)),
		validation.Field(&c.WeightNiche, validation.Min(0)),
		validation.Field(&c.WeightSkill, validation.Min(0)),
		validation.Field(&c.WeightTools, validation.Min(0)),
		validation.Field(&c.WeightWorkload, validation.Min(0)),
		validation.Field(&c.WeightRichness, validation.Min(0)),
		validation.Field(&c.ScorePrecision, validation.Min(0), validation.Max(6)),
		validation.Field(&c.MaxRankingLimit, validation.Min(1)),
		validation.Field(&c.MetricsNamespace, validation.Required, validation.Match(metricName)),
		validation.Field(&c.MetricsSubsystem, validation.Match(metricName)),
		validation.Field(&c.NotifyRatePerSecond, validation.Min(0.0)),
		validation.Field(&c.MailProvider, validation.In(MailResend, MailLog)),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
