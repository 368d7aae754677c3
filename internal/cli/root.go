package cli

import (
	"context"
	"fmt"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	version = "dev" // semantic version (e.g., "v1.2.3")
	commit  string  // git commit SHA
	date    string  // build timestamp
)

// SetVersion sets the build information shown by --version and the
// version command. main calls it with values injected via ldflags.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// NewRootCommand builds the tally command tree. The logger is attached to
// each command's context before it runs and writes to the command's
// stderr.
func NewRootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "tally",
		Short: "Tally applies ranked-ballot voting rules to elections",
		Long: `Tally loads ranked ballots from a YAML or TOML election file and
applies plurality, majority, IRV, Borda, Condorcet and related rules to them.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(cmd.ErrOrStderr(), level))
			cmd.SetContext(ctx)
		},
	}

	root.SetVersionTemplate(versionString() + "\n")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newRunCmd())
	root.AddCommand(newPairwiseCmd())
	root.AddCommand(newSweepCmd())
	root.AddCommand(newRulesCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// Execute runs the tally CLI with ctx. Cancellation of ctx stops any
// running tabulation.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func versionString() string {
	return fmt.Sprintf("tally %s\ncommit: %s\nbuilt: %s", version, commit, date)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), versionString())
		},
	}
}
