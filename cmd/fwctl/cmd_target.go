package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zoneforge/fwctl/pkg/cli"
	"github.com/zoneforge/fwctl/pkg/targetfile"
	"github.com/zoneforge/fwctl/pkg/util"
)

var targetCmd = &cobra.Command{
	Use:   "target",
	Short: "Manage the target-set file",
	Long: `Manage the targets.yaml file: a list of (destination, protocol,
port-range) triples that 'fwctl optimize' and 'fwctl sync commit' reduce into
a minimal set of firewalld service definitions.`,
}

// targetDoc mirrors pkg/targetfile's on-disk shape so the CLI can append to
// and rewrite the same file without exposing targetfile's internals.
type targetDoc struct {
	Targets []targetEntry `yaml:"targets"`
}

type targetEntry struct {
	Destination string `yaml:"destination"`
	Protocol    string `yaml:"protocol"`
	Port        int    `yaml:"port,omitempty"`
	PortEnd     int    `yaml:"port_end,omitempty"`
}

var targetAddCmd = &cobra.Command{
	Use:   "add <destination> <protocol> [port-spec]",
	Short: "Append one or more targets to the target-set file",
	Long: `port-spec accepts a single port, a range, or a comma-separated mix of
either, matching the syntax firewall-cmd itself uses for --add-port:

  fwctl target add 10.0.0.0/24 tcp 22
  fwctl target add 10.0.0.0/24 tcp 8000-8010
  fwctl target add 10.0.0.0/24 tcp 22,80,8000-8010
  fwctl target add 0.0.0.0/0 esp

A comma-separated spec appends one target per contiguous range it compacts
to, not one target per port.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		destination, protocol := args[0], args[1]

		var entries []targetEntry
		if len(args) == 3 {
			ranges, err := parsePortSpec(args[2])
			if err != nil {
				return err
			}
			for _, r := range ranges {
				entries = append(entries, targetEntry{
					Destination: destination,
					Protocol:    protocol,
					Port:        r[0],
					PortEnd:     r[1],
				})
			}
		} else {
			entries = []targetEntry{{Destination: destination, Protocol: protocol}}
		}

		doc, err := loadTargetDoc(app.targetsPath)
		if err != nil {
			return err
		}
		doc.Targets = append(doc.Targets, entries...)

		if err := saveTargetDoc(app.targetsPath, doc); err != nil {
			return err
		}

		fmt.Printf(green("%d target(s) added to %s\n"), len(entries), app.targetsPath)
		return nil
	},
}

var targetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List targets in the target-set file",
	RunE: func(cmd *cobra.Command, args []string) error {
		targets, err := targetfile.Load(app.targetsPath)
		if err != nil {
			return fmt.Errorf("loading %s: %w", app.targetsPath, err)
		}

		t := cli.NewTable("DESTINATION", "ATOM")
		for _, target := range targets {
			t.Row(target.Destination().String(), target.Atom().String())
		}
		t.Flush()
		return nil
	},
}

func init() {
	targetCmd.AddCommand(targetAddCmd, targetListCmd)
}

// parsePortSpec expands a firewall-cmd-style port spec ("22", "8000-8010",
// "22,80,8000-8010") into a minimal set of contiguous [from, to] ranges.
func parsePortSpec(spec string) ([][2]int, error) {
	ports, err := util.ExpandRange(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid port spec %q: %w", spec, err)
	}
	if len(ports) == 0 {
		return nil, fmt.Errorf("invalid port spec %q: no ports", spec)
	}

	var ranges [][2]int
	for _, part := range strings.Split(util.CompactRange(ports), ",") {
		if idx := strings.Index(part, "-"); idx > 0 {
			from, _ := strconv.Atoi(part[:idx])
			to, _ := strconv.Atoi(part[idx+1:])
			ranges = append(ranges, [2]int{from, to})
			continue
		}
		p, _ := strconv.Atoi(part)
		ranges = append(ranges, [2]int{p, p})
	}
	return ranges, nil
}

func loadTargetDoc(path string) (*targetDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &targetDoc{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var doc targetDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &doc, nil
}

func saveTargetDoc(path string, doc *targetDoc) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
