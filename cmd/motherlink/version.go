package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/motherlink"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of motherlink",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "motherlink version %s\n", strings.TrimSpace(motherlink.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
