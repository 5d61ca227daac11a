package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zoneforge/fwctl/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		if version.Version == "dev" {
			fmt.Println("fwctl dev build")
		} else {
			fmt.Println("fwctl " + version.String())
		}
	},
}
