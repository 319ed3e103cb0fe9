package main

import (
	"github.com/spf13/cobra"

	"github.com/mikey/spam-risk-scorer/internal/adapters/report"
	"github.com/mikey/spam-risk-scorer/internal/di"
)

func newHistoryCmd(flags *di.CLIFlags) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "history [sender]",
		Short: "Show the stored history of a sender, or list the known senders",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := report.ParseFormat(output)
			if err != nil {
				return err
			}

			return withApp(flags, func(a *app) error {
				renderer := report.NewRenderer(cmd.OutOrStdout(), format, flags.Verbose)
				if len(args) == 0 {
					senders, err := a.history.Senders(cmd.Context())
					if err != nil {
						return err
					}
					return renderer.RenderSenders(senders)
				}

				records, err := a.history.SenderHistory(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return renderer.RenderHistory(args[0], records)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text, json, yaml)")
	return cmd
}
