package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zoneforge/fwctl/pkg/svcfile"
	"github.com/zoneforge/fwctl/pkg/util"
)

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Inspect firewalld service definition files",
}

var serviceLoadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Load a service document and report whether it parses",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		name := serviceNameFromPath(path)

		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()

		svc, err := svcfile.Load(name, f)
		if err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}

		fmt.Println(green(fmt.Sprintf("%s: valid service document (%d targets)", path, len(svc.Targets()))))
		return nil
	},
}

var serviceShowCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Show a service document's targets",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		name := serviceNameFromPath(path)

		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()

		svc, err := svcfile.Load(name, f)
		if err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}

		printServiceSummary(svc)
		return nil
	},
}

func init() {
	serviceCmd.AddCommand(serviceLoadCmd, serviceShowCmd)
}

// serviceNameFromPath derives a service's daemon-facing name from its file
// path: the base name with its extension stripped, sanitized to the
// character set firewalld service names use.
func serviceNameFromPath(path string) string {
	base := path
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '/' {
			base = base[i+1:]
			break
		}
	}
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '.' {
			base = base[:i]
			break
		}
	}
	return util.SanitizeName(base)
}
