package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/Dainanahan/drugtree/internal/cli/output"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display drugtree version and build information.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := NewCommandContextWithoutLoader(cmd).Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(output.VersionOutput{Version: version, GoVersion: runtime.Version()})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "drugtree v%s\n", version)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Drug registry browser built with Go %s\n", runtime.Version())
			return nil
		},
	}
}
