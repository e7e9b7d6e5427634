// Command playground runs the matching service and its admin tooling.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"github.com/okian/playground/internal/adapters/notify"
	service "github.com/okian/playground/internal/app"
	"github.com/okian/playground/internal/config"
	"github.com/okian/playground/internal/domain/scoring"
	"github.com/okian/playground/pkg/logger"
	"github.com/okian/playground/pkg/metrics"
)

const app = "playground"

// Actual version can be specified in build command.
var version = "unknown"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// runtimeEnv is what every subcommand needs once the root has initialized.
type runtimeEnv struct {
	cfg *config.Config
	log logger.Logger
}

func newRootCmd() *cobra.Command {
	var (
		cfgFile string
		env     runtimeEnv
	)

	root := &cobra.Command{
		Use:           app,
		Short:         "playground pairs project seekers with candidates and keeps a match log",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cfgFile != "" {
				if err := os.Setenv(config.EnvConfigFile, cfgFile); err != nil {
					return err
				}
			}
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := logger.Init(logger.WithOutput(cmd.ErrOrStderr()), logger.WithFormat(cfg.LogFormat)); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			if err := logger.SetLevelString(cfg.LogLevel); err != nil {
				logger.Get().Warn(cmd.Context(), "invalid log_level; falling back to info",
					logger.String("log_level", cfg.LogLevel), logger.Error(err))
				_ = logger.SetLevelString("info")
			}
			metrics.Configure(
				metrics.WithNamespace(cfg.MetricsNamespace),
				metrics.WithSubsystem(cfg.MetricsSubsystem),
				metrics.WithHistogramBuckets(cfg.MetricsLatencyBuckets),
			)
			env.cfg, env.log = cfg, logger.Get()
			return nil
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (overrides "+config.EnvConfigFile+")")

	root.AddCommand(
		newServeCmd(&env),
		newRankCmd(&env),
		newMatchesCmd(&env),
		newSeedCmd(&env),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version: %s\n", app, version)
		},
	}
}

// buildService translates configuration into service options.
func buildService(cfg *config.Config, log logger.Logger, extra ...service.Option) (*service.Service, error) {
	opts := []service.Option{
		service.WithLogger(log),
		service.WithStoreDriver(cfg.StoreDriver, cfg.StorePath),
		service.WithWeights(scoring.Weights{
			Niche:    cfg.WeightNiche,
			Skill:    cfg.WeightSkill,
			Tools:    cfg.WeightTools,
			Workload: cfg.WeightWorkload,
			Richness: cfg.WeightRichness,
		}),
		service.WithScorePrecision(cfg.ScorePrecision),
		service.WithRankerConcurrency(cfg.RankerConcurrency),
		service.WithMaxRankingLimit(cfg.MaxRankingLimit),
		service.WithNotifications(cfg.NotifyEnabled),
		service.WithNotifyOnPersistFailure(cfg.NotifyOnPersistFailure),
		service.WithQueueSize(cfg.NotifyQueueSize),
		service.WithWorkerCount(cfg.NotifyWorkerCount),
		service.WithNotifyRate(cfg.NotifyRatePerSecond),
	}
	if cfg.NotifyEnabled {
		d, err := buildDispatcher(cfg, log)
		if err != nil {
			return nil, err
		}
		opts = append(opts, service.WithDispatcher(d))
	}
	return service.New(append(opts, extra...)...), nil
}

// buildDispatcher picks the mail transport. Without an API key the resend
// provider degrades to logging so local runs never fail on mail.
func buildDispatcher(cfg *config.Config, log logger.Logger) (notify.Dispatcher, error) {
	var mailer notify.Mailer
	switch {
	case cfg.MailProvider == config.MailResend && cfg.ResendAPIKey != "":
		var opts []notify.ResendOption
		if cfg.ResendEndpoint != "" {
			opts = append(opts, notify.WithEndpoint(cfg.ResendEndpoint))
		}
		mailer = notify.NewResendMailer(cfg.ResendAPIKey, cfg.MailFrom, opts...)
	default:
		if cfg.MailProvider == config.MailResend {
			log.Warn(context.Background(), "resend_api_key not set; mails will only be logged")
		}
		mailer = notify.NewLogMailer(log)
	}

	d, err := notify.NewMailDispatcher(mailer, notify.WithDispatcherLogger(log))
	if err != nil {
		return nil, fmt.Errorf("build dispatcher: %w", err)
	}
	return d, nil
}
