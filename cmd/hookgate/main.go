// Command hookgate runs and controls the hook event-dispatch daemon.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hookgate",
		Short: "Hook event-dispatch daemon",
		Long: `hookgate hosts a chain of decision handlers behind a local Unix
socket. The host tool sends hook events (tool use, lifecycle, stop
requests) as newline-delimited JSON and receives a synchronous allow,
deny, or ask decision shaped per event kind.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newDaemonCmd(),
		newStatusCmd(),
		newStopCmd(),
		newHealthCmd(),
		newHandlersCmd(),
		newSendCmd(),
	)
	return root
}
