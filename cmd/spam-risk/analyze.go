package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/mikey/spam-risk-scorer/internal/adapters/report"
	"github.com/mikey/spam-risk-scorer/internal/core"
	"github.com/mikey/spam-risk-scorer/internal/di"
	"github.com/mikey/spam-risk-scorer/internal/metrics"
)

func newAnalyzeCmd(flags *di.CLIFlags) *cobra.Command {
	var (
		inputFile       string
		output          string
		metricsTextfile string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze one or more analysis requests",
		Long: `Reads AnalysisRequest JSON documents from a file or stdin and prints one result per document.
Several documents may be concatenated or separated by newlines.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := report.ParseFormat(output)
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if inputFile != "" {
				f, err := os.Open(inputFile)
				if err != nil {
					return fmt.Errorf("failed to open input file: %w", err)
				}
				defer f.Close()
				in = f
			}

			return withApp(flags, func(a *app) error {
				renderer := report.NewRenderer(cmd.OutOrStdout(), format, flags.Verbose)
				n, err := analyzeStream(cmd.Context(), a, in, renderer)
				a.logger.Debug("Analysis run finished", zap.Int("emails", n))

				if metricsTextfile != "" {
					if werr := metrics.WriteTextfile(a.registry, metricsTextfile); werr != nil {
						err = multierr.Append(err, werr)
					}
				}
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input file with analysis requests (stdin if not specified)")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text, json, yaml)")
	cmd.Flags().StringVar(&metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file after the run")
	return cmd
}

// analyzeStream analyzes every request of in and returns how many were analyzed
func analyzeStream(ctx context.Context, a *app, in io.Reader, renderer *report.Renderer) (int, error) {
	dec := json.NewDecoder(in)
	n := 0
	for {
		var req core.AnalysisRequest
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				if n == 0 {
					return 0, errors.New("no analysis request found in input")
				}
				return n, nil
			}
			return n, fmt.Errorf("failed to decode analysis request %d: %w", n+1, err)
		}

		result, err := a.analyzer.AnalyzeEmail(ctx, &req)
		if err != nil {
			return n, fmt.Errorf("request %d: %w", n+1, err)
		}
		if err := renderer.RenderResult(result); err != nil {
			return n, fmt.Errorf("failed to write result: %w", err)
		}
		n++
	}
}
