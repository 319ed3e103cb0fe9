package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mikey/spam-risk-scorer/internal/di"
)

func newPruneCmd(flags *di.CLIFlags) *cobra.Command {
	var retentionDays int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove sender history older than the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(flags, func(a *app) error {
				retention := a.cfg.GetHistory().Retention()
				if cmd.Flags().Changed("retention-days") {
					retention = time.Duration(retentionDays) * 24 * time.Hour
				}

				removed, err := a.history.PruneHistory(cmd.Context(), retention)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d records older than %d days\n", removed, int(retention.Hours()/24))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&retentionDays, "retention-days", 0, "Retention window in days (default history.retention_days)")
	return cmd
}
