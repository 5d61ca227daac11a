package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zoneforge/fwctl/pkg/model"
	"github.com/zoneforge/fwctl/pkg/optimize"
	"github.com/zoneforge/fwctl/pkg/svcfile"
	"github.com/zoneforge/fwctl/pkg/targetfile"
)

var optimizeServicePath string

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Reduce a target set against a template into a minimal service set",
	Long: `Loads a template service document and the target-set file, and prints
the minimal family of services that admits exactly the same traffic.

This never touches firewalld or the filesystem beyond reading its inputs;
use 'fwctl sync commit' to reconcile the result against a live system.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if optimizeServicePath == "" {
			return fmt.Errorf("--service is required")
		}

		name := serviceNameFromPath(optimizeServicePath)
		f, err := os.Open(optimizeServicePath)
		if err != nil {
			return fmt.Errorf("opening %s: %w", optimizeServicePath, err)
		}
		defer f.Close()

		template, err := svcfile.Load(name, f)
		if err != nil {
			return fmt.Errorf("loading %s: %w", optimizeServicePath, err)
		}

		targets, err := targetfile.Load(app.targetsPath)
		if err != nil {
			return fmt.Errorf("loading %s: %w", app.targetsPath, err)
		}

		ss, err := optimize.Optimize(template, targets)
		if err != nil {
			return fmt.Errorf("optimizing: %w", err)
		}

		if ss.Empty() {
			fmt.Println(yellow("No services produced: target set is empty."))
			return nil
		}

		for _, svc := range ss.Services() {
			printServiceSummary(svc)
			fmt.Println()
		}
		fmt.Printf("%d service(s) for %d target(s).\n", len(ss.Services()), len(ss.Targets()))
		return nil
	},
}

func init() {
	optimizeCmd.Flags().StringVar(&optimizeServicePath, "service", "", "Template service document (required)")
}

// printServiceSummary prints a human-readable rundown of a service's
// identity and the ports/protocols/modules it carries.
func printServiceSummary(svc *model.Service) {
	fmt.Println(bold(svc.Name()))
	if d := svc.Description(); d != "" {
		fmt.Println("  " + d)
	}
	for _, r := range svc.Ports() {
		fmt.Printf("  port:     %s/%s\n", r.String(), r.Protocol().Name())
	}
	for _, p := range svc.Protocols() {
		fmt.Printf("  protocol: %s\n", p.Name())
	}
	for _, m := range svc.Modules() {
		fmt.Printf("  module:   %s\n", m)
	}
	if d := svc.DestinationIPv4(); d != nil {
		fmt.Printf("  dest4:    %s\n", d.String())
	}
	if d := svc.DestinationIPv6(); d != nil {
		fmt.Printf("  dest6:    %s\n", d.String())
	}
}
