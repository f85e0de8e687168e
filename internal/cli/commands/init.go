package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/leappatch/internal/cli/config"
	"github.com/leapstack-labs/leappatch/internal/cli/output"
	"github.com/leapstack-labs/leappatch/internal/plan"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// projectConfig is the leappatch.yaml written by init.
type projectConfig struct {
	Plan        string `yaml:"plan"`
	Atomic      bool   `yaml:"atomic"`
	Strict      bool   `yaml:"strict"`
	HistoryPath string `yaml:"history_path"`
	Output      string `yaml:"output"`
	Watch       struct {
		Debounce string `yaml:"debounce"`
	} `yaml:"watch"`
}

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new leappatch project",
		Long: `Initialize a leappatch project with a starter plan and configuration.

This creates:
  - leappatch.plan.yaml, a plan that scopes a generated Express server
    (src/server.ts) to a default project
  - leappatch.yaml, the CLI configuration`,
		Example: `  # Initialize in current directory
  leappatch init

  # Initialize in a new directory
  leappatch init patches

  # Force overwrite existing files
  leappatch init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			cfg := getConfig()
			mode := output.Mode(cfg.OutputFormat)
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

			return runInit(r, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")

	return cmd
}

func runInit(r *output.Renderer, dir string, force bool) error {
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	planPath := filepath.Join(dir, plan.FileName)
	configPath := filepath.Join(dir, config.ConfigFileName)
	if !force {
		for _, path := range []string{planPath, configPath} {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists. Use --force to overwrite", filepath.Base(path))
			}
		}
	}

	planData, err := plan.Default().Bytes()
	if err != nil {
		return err
	}

	pc := projectConfig{
		Plan:        plan.FileName,
		Atomic:      true,
		HistoryPath: config.DefaultHistory,
		Output:      config.DefaultOutput,
	}
	pc.Watch.Debounce = config.DefaultDebounce.String()
	configData, err := yaml.Marshal(&pc)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	files := []struct {
		path string
		data []byte
	}{
		{planPath, planData},
		{configPath, configData},
	}
	for _, f := range files {
		if err := os.WriteFile(f.path, f.data, 0600); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.path, err)
		}
		r.StatusLine(filepath.Base(f.path), "success", "")
	}

	r.Println("")
	r.Success("leappatch project initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Point 'target' in " + plan.FileName + " at your generated artifact")
	r.Println("  2. Run 'leappatch plan validate' to check the rules")
	r.Println("  3. Run 'leappatch apply --dry-run' to preview the patch")
	r.Println("  4. Run 'leappatch watch' to re-apply whenever the artifact is regenerated")

	return nil
}
