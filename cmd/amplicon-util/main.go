// Command amplicon-util bundles the sequence helpers used by the pipeline stages.
package main

import (
	"fmt"
	"os"

	"github.com/liserjrqlxue/version"
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var showVersion bool

	cmd := &cobra.Command{
		Use:           "amplicon-util",
		Short:         "Sequence helpers of the amplicon pipeline",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showVersion {
				version.LogVersion()

				return nil
			}

			return cmd.Help()
		},
	}

	cmd.Flags().BoolVar(&showVersion, "version", false, "Show the version and exit")
	cmd.AddCommand(revcompCommand(), mapCommand())

	return cmd
}

func main() {
	err := newRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
