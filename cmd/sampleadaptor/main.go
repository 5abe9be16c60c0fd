// Command sampleadaptor is C8: the entrypoint that parses argv, selects
// "run" or "daemon {_serve,start,run,stop}" mode, and wires a demo Adaptor
// against the rest of the runtime. The entrypoint is mode-dispatch only —
// the interesting behaviors live in the adaptor/background/frontend/
// rendezvous/transport packages.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// argError marks a CLI argument/flag mistake, mapped to exit code 2
// (spec.md §6: "2 for argument errors").
type argError struct{ err error }

func (e *argError) Error() string { return e.err.Error() }
func (e *argError) Unwrap() error { return e.err }

func newArgError(format string, args ...any) error {
	return &argError{err: fmt.Errorf(format, args...)}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var ae *argError
		if errors.As(err, &ae) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var showConfig bool

	cmd := &cobra.Command{
		Use:           "sampleadaptor",
		Short:         "Demo adaptor driven by the adaptor runtime",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showConfig {
				// Configuration discovery/merging is an external collaborator
				// (spec.md §1 OUT OF SCOPE); this runtime owns no config of
				// its own to print.
				fmt.Println("{}")
				return nil
			}
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().BoolVar(&showConfig, "show-config", false, "print the adaptor runtime configuration and exit")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newDaemonCmd())
	return cmd
}
