// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Collaborator settings (store path, mail credentials) live here and are
//   passed to constructors explicitly; no package keeps mutable globals.
// - External errors are wrapped with this package's sentinel kinds.
package config

import "runtime"

// Store drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreBolt   = "bolt"
)

// Mail providers.
const (
	MailResend = "resend"
	MailLog    = "log"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// StoreDriver selects the profile store and match log backend.
	StoreDriver string `koanf:"store_driver"`
	// StorePath is the database file for the sqlite and bolt drivers.
	StorePath string `koanf:"store_path"`

	// Factor weights (points available per factor). Zero disables a factor.
	WeightNiche    int `koanf:"weight_niche"`
	WeightSkill    int `koanf:"weight_skill"`
	WeightTools    int `koanf:"weight_tools"`
	WeightWorkload int `koanf:"weight_workload"`
	WeightRichness int `koanf:"weight_richness"`

	// ScorePrecision is the number of decimals scores are rounded to.
	ScorePrecision int `koanf:"score_precision"`

	// RankerConcurrency bounds parallel candidate scoring; 1 scores sequentially.
	RankerConcurrency int `koanf:"ranker_concurrency"`

	// MaxRankingLimit caps GET /admin/seekers/{id}/ranking?limit.
	MaxRankingLimit int `koanf:"max_ranking_limit"`

	// MetricsNamespace and MetricsSubsystem prefix every Prometheus metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`
	// MetricsLatencyBuckets overrides the latency histogram buckets (milliseconds).
	MetricsLatencyBuckets []float64 `koanf:"metrics_latency_buckets"`

	// NotifyEnabled turns match and welcome mails on.
	NotifyEnabled bool `koanf:"notify_enabled"`
	// NotifyOnPersistFailure sends match mails even when the record could not be stored.
	NotifyOnPersistFailure bool `koanf:"notify_on_persist_failure"`
	// NotifyQueueSize bounds pending notification jobs.
	NotifyQueueSize int `koanf:"notify_queue_size"`
	// NotifyWorkerCount sets the number of delivery workers.
	NotifyWorkerCount int `koanf:"notify_worker_count"`
	// NotifyRatePerSecond throttles the mail transport; 0 disables throttling.
	NotifyRatePerSecond float64 `koanf:"notify_rate_per_second"`

	// MailProvider selects the transport: resend or log.
	MailProvider string `koanf:"mail_provider"`
	// MailFrom is the sender address.
	MailFrom string `koanf:"mail_from"`
	// ResendAPIKey authenticates against the Resend API.
	ResendAPIKey string `koanf:"resend_api_key"`
	// ResendEndpoint overrides the Resend API URL.
	ResendEndpoint string `koanf:"resend_endpoint"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		LogFormat:              "text",
		Addr:                   ":9080",
		StoreDriver:            StoreSQLite,
		StorePath:              "playground.db",
		WeightNiche:            4,
		WeightSkill:            3,
		WeightTools:            3,
		WeightWorkload:         3,
		WeightRichness:         2,
		ScorePrecision:         4,
		RankerConcurrency:      runtime.NumCPU(),
		MaxRankingLimit:        100,
		MetricsNamespace:       "playground",
		MetricsSubsystem:       "matcher",
		NotifyEnabled:          true,
		NotifyOnPersistFailure: true,
		NotifyQueueSize:        1_000,
		NotifyWorkerCount:      2,
		NotifyRatePerSecond:    2,
		MailProvider:           MailResend,
		ResendEndpoint:         "https://api.resend.com/emails",
	}
}
