package commands

import (
	"bytes"
	"context"
	"testing"

	"github.com/leapstack-labs/leappatch/internal/cli/config"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

var testVersion = VersionInfo{Version: "0.0.0-test", Commit: "deadbeef", BuildDate: "2026-01-01"}

// execute runs args through a root command carrying the global flags and
// config loading, and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return executeContext(context.Background(), t, args...)
}

func executeContext(ctx context.Context, t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	root := &cobra.Command{
		Use:           "leappatch",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfgFile, _ := cmd.Flags().GetString("config")
			_, err := config.LoadConfig(cfgFile, cmd.Flags())
			return err
		},
	}
	config.RegisterFlags(root.PersistentFlags())
	root.AddCommand(
		NewVersionCommand(testVersion),
		NewApplyCommand(),
		NewCheckCommand(),
		NewPlanCommand(),
		NewHistoryCommand(),
		NewWatchCommand(),
		NewInitCommand(),
	)

	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{cmd: NewApplyCommand(), use: "apply", flags: []string{"dry-run"}},
		{cmd: NewCheckCommand(), use: "check", flags: []string{"diff"}},
		{cmd: NewPlanCommand(), use: "plan"},
		{cmd: NewHistoryCommand(), use: "history", flags: []string{"limit", "run"}},
		{cmd: NewWatchCommand(), use: "watch", flags: []string{"debounce"}},
	}

	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			for _, flag := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(flag), "flag %q should exist", flag)
			}
		})
	}
}

func TestNewPlanCommand_Subcommands(t *testing.T) {
	cmd := NewPlanCommand()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"validate", "show"}, names)
}
