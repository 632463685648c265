package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Dainanahan/drugtree/internal/cli/config"
	"github.com/Dainanahan/drugtree/internal/cli/output"
	"github.com/Dainanahan/drugtree/internal/loader"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Loader   *loader.Loader
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with a registry loader and
// renderer.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cmdCtx := NewCommandContextWithoutLoader(cmd)
	cmdCtx.Loader = loader.New(cmdCtx.Cfg.Source.LoaderConfig(), cmdCtx.Logger)
	return cmdCtx
}

// NewCommandContextWithoutLoader creates a CommandContext for commands
// that never touch the registry.
func NewCommandContextWithoutLoader(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	source := &config.SourceConfig{
		Type:     getEnvOrDefault(config.EnvPrefix+"SOURCE__TYPE", config.DefaultSourceType),
		CSVDir:   os.Getenv(config.EnvPrefix + "SOURCE__CSV_DIR"),
		Database: os.Getenv(config.EnvPrefix + "SOURCE__DATABASE"),
	}
	config.ApplySourceDefaults(source)

	return &config.Config{
		Source:       source,
		Browse:       config.BrowseConfig{PageSize: config.DefaultPageSize},
		Server:       config.ServerConfig{Port: config.DefaultPort, Watch: true},
		Verbose:      os.Getenv(config.EnvPrefix+"VERBOSE") == "true",
		OutputFormat: os.Getenv(config.EnvPrefix + "OUTPUT"),
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
