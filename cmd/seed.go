package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	service "github.com/okian/playground/internal/app"
	"github.com/okian/playground/internal/domain/model"
	"github.com/okian/playground/pkg/logger"
)

// seedFile is the YAML layout accepted by the seed command. Candidates are
// submitted first so every seeker is matched against the full pool.
type seedFile struct {
	Candidates []model.Profile `yaml:"candidates"`
	Seekers    []model.Profile `yaml:"seekers"`
}

func loadSeedFile(path string) (seedFile, error) {
	var sf seedFile
	raw, err := os.ReadFile(path)
	if err != nil {
		return sf, fmt.Errorf("read seed file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &sf); err != nil {
		return sf, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return sf, nil
}

func newSeedCmd(env *runtimeEnv) *cobra.Command {
	var notifyMail bool
	cmd := &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Submit candidates and seekers from a YAML file through the intake flow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sf, err := loadSeedFile(args[0])
			if err != nil {
				return err
			}

			svc, err := buildService(env.cfg, env.log, service.WithNotifications(notifyMail && env.cfg.NotifyEnabled))
			if err != nil {
				return err
			}
			if err := svc.Start(ctx); err != nil {
				return err
			}
			defer svc.Stop()

			for _, p := range sf.Candidates {
				in, err := svc.SubmitCandidate(ctx, p)
				if err != nil {
					return fmt.Errorf("candidate %q: %w", p.Email, err)
				}
				if in.ProfileErr != nil {
					env.log.Warn(ctx, "candidate not stored", logger.Email("email", p.Email), logger.Error(in.ProfileErr))
				}
			}

			matched := 0
			for _, p := range sf.Seekers {
				out, err := svc.SubmitSeeker(ctx, p)
				if err != nil {
					return fmt.Errorf("seeker %q: %w", p.Email, err)
				}
				if out.Matched {
					matched++
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d candidates and %d seekers (%d matched)\n",
				len(sf.Candidates), len(sf.Seekers), matched)
			return nil
		},
	}
	cmd.Flags().BoolVar(&notifyMail, "notify", false, "send match and welcome mails while seeding")
	return cmd
}
