// genrelay forwards prompts to a chat completion endpoint and optionally
// threads conversation history through the calls.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildSHA  = "unknown"
	buildDate = "unknown"
)

func versionString() string {
	return fmt.Sprintf("genrelay version=%s sha=%s date=%s", version, buildSHA, buildDate)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "genrelay",
		Short: "Relay prompts to a chat completion endpoint",
		Long: `genrelay is a small HTTP relay in front of a chat completion endpoint.

  genrelay serve                      Start the HTTP server
  genrelay ask "what is a relay?"     Send one prompt and print the reply
  genrelay version                    Print build information`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newAskCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString())
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errAskFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
