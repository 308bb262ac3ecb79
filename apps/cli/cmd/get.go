package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abdul-hamid-achik/httprepro/packages/capture"
	"github.com/abdul-hamid-achik/httprepro/packages/http"
	"github.com/abdul-hamid-achik/httprepro/packages/notify"
	"github.com/spf13/cobra"
)

const (
	getDefaultURL = "https://www.google.com"
	getPrompt     = "Provide a URL to GET."
)

func newGetCmd(g *globalOptions) *cobra.Command {
	var repro bool

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Prompt for a URL and GET it once",
		Long: `Prompt for a URL and capture it once.

With --repro the URL string is handed to the transport as-is. Without it the
URL is first split into protocol, host and path.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			console := newConsole(cmd, g.cfg)
			notifier, err := buildNotifier(g.cfg, console)
			if err != nil {
				return err
			}

			strategy := http.ParsedOptions
			if repro {
				strategy = http.DirectURL
			}
			client := http.NewClient(append(clientOptions(g.cfg), http.WithStrategy(strategy))...)

			return runGet(cmd.Context(), notify.Compose(console, notifier), capture.New(client), g.logger, repro)
		},
	}

	cmd.Flags().BoolVar(&repro, "repro", false, "Hand the URL string to the transport unparsed")
	return cmd
}

// runGet prompts for a URL and captures it. A dismissed prompt ends quietly.
func runGet(ctx context.Context, ui notify.Surface, c *capture.Capturer, logger *slog.Logger, repro bool) error {
	url, ok, err := ui.PromptText(ctx, getDefaultURL, getPrompt, getDefaultURL)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	result, err := c.Capture(ctx, &http.Request{URL: url})
	if err != nil {
		logger.Error(fmt.Sprintf("Repro test? %v", repro),
			"url", url,
			"kind", capture.KindOf(err).String(),
			"error", err,
		)
		return withExitCode(failureExitCode(err), err)
	}

	logger.Debug("capture succeeded",
		"url", url,
		"status", result.StatusCode,
		"bytes", len(result.BodyRaw),
		"json", result.HasParsedBody(),
	)
	if err := ui.NotifyInfo(fmt.Sprintf("Repro test? %v, Request succeeded: %s", repro, url)); err != nil {
		logger.Warn("notification failed", "error", err)
	}
	return nil
}
