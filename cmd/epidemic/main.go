// Package main is the command-line front end of the regional epidemic simulator.
// It only wires scenarios, the engine, reporters and storage together.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes.
const (
	exitOK        = 0
	exitRunFailed = 1
	exitBadInput  = 2
)

// errUsage marks errors caused by bad flags or scenario files.
var errUsage = errors.New("usage")

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if errors.Is(err, errUsage) {
			os.Exit(exitBadInput)
		}
		os.Exit(exitRunFailed)
	}
	os.Exit(exitOK)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "epidemic",
		Short: "Commuter-coupled regional SEIR simulator",
		Long: `epidemic advances a discrete-time S-I-R model over regions linked by
daily commuting flows and reports the compartments day by day.

Without --scenario the embedded eight-region Slovak reference scenario is used.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newRunCmd(),
		newValidateCmd(),
		newScenarioCmd(),
		newHistoryCmd(),
		newAuditCmd(),
	)
	return root
}
