package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/httprepro/packages/core/config"
	"github.com/abdul-hamid-achik/httprepro/packages/http"
	"github.com/abdul-hamid-achik/httprepro/packages/notify"
	"github.com/spf13/cobra"
)

// requestFlags describes the request shared by batch and compare
type requestFlags struct {
	method  string
	headers []string
	data    string
}

func (f *requestFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.method, "method", "X", "", "HTTP method (default: GET, or POST when --data is set)")
	cmd.Flags().StringArrayVarP(&f.headers, "header", "H", nil, "Request header as 'Name: value' (repeatable)")
	cmd.Flags().StringVarP(&f.data, "data", "d", "", "Request body, or @file to read it from a file")
}

// build assembles the request. Config headers come first so that --header
// can override them.
func (f *requestFlags) build(cfg *config.Config, url string) (*http.Request, error) {
	if err := http.ValidateURL(url); err != nil {
		return nil, withExitCode(ExitUsageError, err)
	}

	req := &http.Request{
		Method:  f.method,
		URL:     url,
		Headers: make(map[string]string),
	}
	for k, v := range cfg.Headers {
		req.SetHeader(k, v)
	}
	for _, h := range f.headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, withExitCode(ExitUsageError, fmt.Errorf("invalid header %q, expected 'Name: value'", h))
		}
		req.SetHeader(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	if f.data != "" {
		body := []byte(f.data)
		if path, ok := strings.CutPrefix(f.data, "@"); ok {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, withExitCode(ExitUsageError, fmt.Errorf("reading request body: %w", err))
			}
			body = data
		}
		req.SetBody(body)
	}

	return req, nil
}

// resolveURL takes the positional argument, falling back to the configured URL
func resolveURL(cfg *config.Config, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg.URL != "" {
		return cfg.URL, nil
	}
	return "", withExitCode(ExitUsageError, fmt.Errorf("no URL given: pass one as an argument or set url in the config"))
}

// clientOptions maps transport settings from the config
func clientOptions(cfg *config.Config) []http.ClientOption {
	opts := []http.ClientOption{
		http.WithFollowRedirects(cfg.GetFollowRedirects()),
	}
	if cfg.MaxRedirects > 0 {
		opts = append(opts, http.WithMaxRedirects(cfg.MaxRedirects))
	}
	if cfg.Proxy != "" {
		opts = append(opts, http.WithProxy(cfg.Proxy))
	}
	return opts
}

// buildNotifier always reports to the console and forwards to the configured
// webhooks according to the notifyOn policy
func buildNotifier(cfg *config.Config, console notify.Notifier) (notify.Notifier, error) {
	on, err := notify.ParseNotifyOn(cfg.NotifyOn)
	if err != nil {
		return nil, withExitCode(ExitConfigError, err)
	}

	var remote notify.Multi
	if cfg.SlackWebhook != "" {
		remote = append(remote, notify.NewSlackNotifier(cfg.SlackWebhook))
	}
	if cfg.TeamsWebhook != "" {
		remote = append(remote, notify.NewTeamsNotifier(cfg.TeamsWebhook))
	}

	if len(remote) == 0 {
		return console, nil
	}
	return notify.Multi{console, notify.Filter(on, remote)}, nil
}

func newConsole(cmd *cobra.Command, cfg *config.Config) *notify.Console {
	return notify.NewConsole(
		notify.WithInput(cmd.InOrStdin()),
		notify.WithOutput(cmd.ErrOrStderr()),
		notify.WithNoColor(cfg.GetNoColor()),
	)
}
