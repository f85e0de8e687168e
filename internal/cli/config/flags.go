package config

import (
	"strings"

	"github.com/leapstack-labs/leappatch/internal/cli/output"
	"github.com/spf13/pflag"
)

// RegisterFlags declares the global flags LoadConfig understands. Defaults
// are left empty where the koanf defaults apply, since only changed flags
// are loaded.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "config file (default: ./leappatch.yaml, searched upward)")
	flags.String("plan", "", "Path to the patch plan (default: "+DefaultPlan+")")
	flags.String("target", "", "Artifact to patch, overriding the plan's target")
	flags.String("encoding", "", "Text encoding of the artifact (utf-8, utf-16le, latin1, auto, ...)")
	flags.Bool("atomic", true, "Write through a temp file and rename")
	flags.Bool("strict", false, "Fail when a rule finds nothing to patch")
	flags.String("history", "", "Path to the run history database (default: "+DefaultHistory+")")
	flags.Bool("no-history", false, "Do not record runs")
	flags.BoolP("verbose", "v", false, "Verbose output")
	flags.StringP("output", "o", "", "Output format ("+strings.Join(output.Modes, "|")+")")
}
