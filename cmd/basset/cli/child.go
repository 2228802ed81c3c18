package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/i-ky/basset/internal/trace"
)

// childCmd is the rendezvous half of the tracer launch: the tracer
// re-executes /proc/self/exe with this command, which blocks until the
// tracer is attached and then replaces itself with the build command.
var childCmd = &cobra.Command{
	Use:                "child command [args...]",
	Short:              "Internal rendezvous child",
	Hidden:             true,
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		err := trace.AwaitAndExec(args)
		// AwaitAndExec only returns on failure; exit without ever
		// falling through to parent logic.
		fmt.Fprintf(os.Stderr, "basset: %v\n", err)
		os.Exit(127)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(childCmd)
}
