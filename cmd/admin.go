package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	service "github.com/okian/playground/internal/app"
	"github.com/okian/playground/internal/domain/model"
)

func newRankCmd(env *runtimeEnv) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "rank <seeker-id>",
		Short: "Preview how every candidate ranks for a stored seeker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := buildService(env.cfg, env.log, service.WithNotifications(false))
			if err != nil {
				return err
			}
			if err := svc.Start(cmd.Context()); err != nil {
				return err
			}
			defer svc.Stop()

			entries, err := svc.PreviewMatch(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeIndented(out, entries)
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "RANK\tCANDIDATE\tNAME\tSCORE\tMATCH")
			for _, e := range entries {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%.4f\t%d%%\n", e.Rank, e.CandidateID, e.Name, e.Score, e.Percent)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of candidates to show (0 selects the default)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newMatchesCmd(env *runtimeEnv) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "matches",
		Short: "Print the match log, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := buildService(env.cfg, env.log, service.WithNotifications(false))
			if err != nil {
				return err
			}
			if err := svc.Start(cmd.Context()); err != nil {
				return err
			}
			defer svc.Stop()

			records, err := svc.Matches(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeIndented(out, records)
			}
			return writeMatches(out, records)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func writeMatches(w io.Writer, records []model.MatchRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tSEEKER\tCANDIDATE\tMATCH")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d%%\n", r.CreatedAt.Format(time.RFC3339), r.SeekerEmail, r.CandidateEmail, model.Percent(r.Score))
	}
	return tw.Flush()
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
