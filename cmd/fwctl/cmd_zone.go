package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/zoneforge/fwctl/pkg/cli"
	"github.com/zoneforge/fwctl/pkg/fwcmd"
	"github.com/zoneforge/fwctl/pkg/util"
)

var zoneCmd = &cobra.Command{
	Use:   "zone",
	Short: "Inspect live firewalld zones",
}

var zoneListCmd = &cobra.Command{
	Use:   "list",
	Short: "List zones and the services enabled in each",
	RunE: func(cmd *cobra.Command, args []string) error {
		runner := fwcmd.NewRunner(app.fwCmdPath)

		zones, err := runner.ListAllZones(context.Background())
		if err != nil {
			return fmt.Errorf("listing zones: %w", err)
		}

		names := make([]string, 0, len(zones))
		for name := range zones {
			names = append(names, name)
		}
		sort.Strings(names)

		t := cli.NewTable("ZONE", "SERVICES")
		for _, name := range names {
			services := zones[name]
			sort.Strings(services)
			t.Row(util.CapitalizeFirst(name), joinOrNone(services))
		}
		t.Flush()
		return nil
	},
}

func init() {
	zoneCmd.AddCommand(zoneListCmd)
}

func joinOrNone(services []string) string {
	if len(services) == 0 {
		return "(none)"
	}
	out := services[0]
	for _, s := range services[1:] {
		out += ", " + s
	}
	return out
}
