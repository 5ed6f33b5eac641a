package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/coldchain"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of coldchain",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "coldchain version %s\n", strings.TrimSpace(coldchain.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
