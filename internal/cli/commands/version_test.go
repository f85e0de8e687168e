package commands

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/leapstack-labs/leappatch/internal/cli/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVersionCommand(t *testing.T) {
	config.ResetConfig()

	tests := []struct {
		name    string
		info    VersionInfo
		wantOut []string
	}{
		{
			name:    "release",
			info:    VersionInfo{Version: "0.1.0", Commit: "abc1234", BuildDate: "2026-01-02"},
			wantOut: []string{"leappatch 0.1.0", "- **commit:** abc1234", "- **built:** 2026-01-02"},
		},
		{
			name:    "dev build",
			info:    VersionInfo{Version: "dev", Commit: "unknown", BuildDate: "unknown"},
			wantOut: []string{"leappatch dev", "- **commit:** unknown"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewVersionCommand(tt.info)
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)
			cmd.SetArgs([]string{})

			require.NoError(t, cmd.Execute())
			for _, want := range tt.wantOut {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestVersionCommand_JSON(t *testing.T) {
	stdout, _, err := execute(t, "version", "-o", "json")
	require.NoError(t, err)

	var got VersionInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, testVersion, got)
}

func TestVersionCommandMetadata(t *testing.T) {
	cmd := NewVersionCommand(VersionInfo{Version: "test"})

	assert.Equal(t, "version", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
	assert.Error(t, cmd.Args(cmd, []string{"extra"}))
}
