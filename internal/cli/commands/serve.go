package commands

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/Dainanahan/drugtree/internal/cli/config"
	"github.com/Dainanahan/drugtree/internal/server"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Port      int
	NoBrowser bool
	Watch     bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the registry browser web UI",
		Long: `Start a local web server with the hierarchy on the left and the filtered
drug table on the right.

Clicking a node selects every value on its path; the table is recomputed
from the full view on every click. With --watch, rewriting the CSV exports
reloads the registry and pushes the new table to every open browser.`,
		Example: `  # Serve on the default port
  drugtree serve

  # Serve on a custom port without opening a browser
  drugtree serve --port 3000 --no-browser`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (default: 8765)")
	cmd.Flags().BoolVar(&opts.NoBrowser, "no-browser", false, "Don't auto-open browser")
	cmd.Flags().BoolVar(&opts.Watch, "watch", true, "Reload when the CSV exports change")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg

	// CLI flags override config file
	port := cfg.Server.Port
	if opts.Port != 0 {
		port = opts.Port
	}

	autoOpen := cfg.Server.AutoOpen
	if opts.NoBrowser {
		autoOpen = false
	}

	watch := cfg.Server.Watch
	if cmd.Flags().Changed("watch") {
		watch = opts.Watch
	}
	if watch && cfg.Source.CSVDir != "" {
		if _, err := os.Stat(cfg.Source.CSVDir); os.IsNotExist(err) {
			return fmt.Errorf("export directory does not exist: %s", cfg.Source.CSVDir)
		}
	}

	levels, err := cfg.HierarchyLevels()
	if err != nil {
		return err
	}

	srv, err := server.New(cmd.Context(), server.Config{
		Loader:        cmdCtx.Loader,
		Levels:        levels,
		PageSize:      cfg.Browse.PageSize,
		Port:          port,
		Watch:         watch,
		WatchDir:      cfg.Source.CSVDir,
		SessionSecret: sessionSecret(cfg),
		Logger:        cmdCtx.Logger,
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("http://localhost:%d", port)
	if autoOpen {
		go openBrowser(url)
	}

	r := cmdCtx.Renderer
	r.Success(fmt.Sprintf("Serving %d rows on %s", srv.RowCount(), url))
	r.Muted("Press Ctrl+C to stop")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	return srv.Serve(ctx)
}

// sessionSecret returns the configured cookie secret. An empty secret
// makes the server generate one, so sessions do not survive restarts.
func sessionSecret(cfg *config.Config) string {
	if cfg.Server.SessionSecret != "" {
		return cfg.Server.SessionSecret
	}
	return os.Getenv(config.EnvPrefix + "SESSION_SECRET")
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}

	_ = cmd.Start()
}
