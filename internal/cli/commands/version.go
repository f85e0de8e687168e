package commands

import (
	"github.com/leapstack-labs/leappatch/internal/cli/output"
	"github.com/spf13/cobra"
)

// VersionInfo describes the running binary.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(info VersionInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the leappatch build",
		Long:  `Print the leappatch release, the commit it was built from and the build date.`,
		Example: `  leappatch version
  leappatch version -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := NewCommandContext(cmd).Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(info)
			}
			r.Println("leappatch " + info.Version)
			r.Println(output.FormatKeyValue("commit", info.Commit))
			r.Println(output.FormatKeyValue("built", info.BuildDate))
			return nil
		},
	}
}
