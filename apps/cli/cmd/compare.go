package cmd

import (
	"encoding/json"
	"errors"

	"github.com/abdul-hamid-achik/httprepro/packages/batch"
	"github.com/abdul-hamid-achik/httprepro/packages/capture"
	"github.com/abdul-hamid-achik/httprepro/packages/http"
	"github.com/spf13/cobra"
)

var errStrategiesDiverged = errors.New("strategies diverged")

func newCompareCmd(g *globalOptions) *cobra.Command {
	var (
		request requestFlags
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "compare [url]",
		Short: "Capture a request with both URL strategies and diff the results",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := resolveURL(g.cfg, args)
			if err != nil {
				return err
			}
			req, err := request.build(g.cfg, url)
			if err != nil {
				return err
			}

			contender := func(s http.Strategy) batch.Contender {
				client := http.NewClient(append(clientOptions(g.cfg), http.WithStrategy(s))...)
				return batch.Contender{Name: s.String(), Capturer: capture.New(client)}
			}

			c := batch.Compare(cmd.Context(), req, contender(http.DirectURL), contender(http.ParsedOptions))
			g.logger.Debug("comparison finished",
				"url", c.URL,
				"equivalent", c.Equivalent,
				"differences", len(c.Differences),
			)

			if jsonOut {
				if err := writeComparisonJSON(cmd, c); err != nil {
					return err
				}
			} else {
				batch.NewReporter(
					batch.WithWriter(cmd.OutOrStdout()),
					batch.WithNoColor(g.cfg.GetNoColor()),
				).Comparison(c)
			}

			if !c.Equivalent {
				return withExitCode(ExitTestFailure, errStrategiesDiverged)
			}
			return nil
		},
	}

	request.bind(cmd)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the comparison as JSON")
	return cmd
}

func writeComparisonJSON(cmd *cobra.Command, c *batch.Comparison) error {
	side := func(s batch.Side) map[string]interface{} {
		out := map[string]interface{}{
			"strategy":   s.Name,
			"statusCode": s.StatusCode,
			"durationMs": s.Duration.Milliseconds(),
			"bytes":      len(s.Body),
		}
		if s.Err != nil {
			out["failure"] = s.Kind.String()
			out["error"] = s.Err.Error()
		}
		return out
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(map[string]interface{}{
		"url":         c.URL,
		"equivalent":  c.Equivalent,
		"differences": c.Differences,
		"a":           side(c.A),
		"b":           side(c.B),
	})
}
