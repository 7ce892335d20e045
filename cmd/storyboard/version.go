package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/storyboard"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of storyboard",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "storyboard version %s\n", strings.TrimSpace(storyboard.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
