package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mikey/spam-risk-scorer/internal/di"
)

func newValidateCmd(flags *di.CLIFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and print the effective scoring settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := di.LoadConfig(flags)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			source := cfg.ConfigFileUsed()
			if source == "" {
				source = "(defaults)"
			}
			fusion := cfg.GetFusion()
			h := cfg.GetHistory()

			fmt.Fprintf(out, "Configuration: %s\n", source)
			fmt.Fprintf(out, "Weights: technical=%.3f nlp=%.3f behavioral=%.3f\n",
				fusion.Weights.Technical, fusion.Weights.NLP, fusion.Weights.Behavioral)
			fmt.Fprintf(out, "Risk levels: low<%.2f medium<%.2f\n", fusion.RiskLevels.Low, fusion.RiskLevels.Medium)
			fmt.Fprintf(out, "Spam score threshold: %.2f, normalization divisor: %.2f\n",
				fusion.SpamScoreThreshold, fusion.NormalizationDivisor)
			fmt.Fprintf(out, "History: backend=%s max_records=%d retention_days=%d\n", h.Backend, h.MaxRecords, h.RetentionDays)
			fmt.Fprintf(out, "Trusted domains: %d\n", len(cfg.GetTrustedDomains()))
			fmt.Fprintln(out, "Configuration is valid")
			return nil
		},
	}
}
