// Command dioctl plans, applies and inspects GPIO pin configuration tables
// and monitors the diagnostic channel of the firmware.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"godio/core"
)

var (
	verbose bool

	rootCmd = &cobra.Command{
		Use:           "dioctl",
		Short:         "GPIO configuration tool",
		Long:          "Plan and apply GPIO pin configuration tables, poke registers and watch firmware diagnostics.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			core.SetDebugWriter(func(s string) {
				fmt.Fprintln(cmd.ErrOrStderr(), s)
			})
			core.SetDebugEnabled(verbose)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug output")
	rootCmd.AddCommand(planCmd, applyCmd, peekCmd, pokeCmd, monitorCmd, shellCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
