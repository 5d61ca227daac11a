// fwctl optimizes and synchronizes firewalld service definitions.
//
// Noun-group CLI pattern:
//
//	fwctl <resource> <action> [args] [-x]
//
// Write commands preview changes by default; -x executes them.
//
// Examples:
//
//	fwctl target add 10.0.0.0/24 tcp 22
//	fwctl target list
//	fwctl optimize --service ssh.xml
//	fwctl service load ssh.xml
//	fwctl sync commit --service ssh.xml --zone public -x
//	fwctl zone list
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zoneforge/fwctl/pkg/settings"
	"github.com/zoneforge/fwctl/pkg/util"
)

// App holds CLI state shared across all commands.
type App struct {
	// Option flags
	targetsPath string
	systemDir   string
	localDir    string
	fwCmdPath   string
	zones       []string
	executeMode bool
	jsonOutput  bool
	verbose     bool

	settings *settings.Settings
}

var app = &App{}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "fwctl",
	Short:             "Optimize and synchronize firewalld service definitions",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Long: `fwctl computes a minimal set of firewalld service definitions from a
list of (destination, protocol, port-range) targets, and reconciles that set
against the live firewalld configuration.

  fwctl <resource> <action> [args] [-x]

Write commands preview changes by default — use -x to execute.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if isSettingsOrHelp(cmd) {
			return nil
		}

		var err error
		app.settings, err = settings.Load()
		if err != nil {
			util.Warnf("could not load settings: %v", err)
			app.settings = &settings.Settings{}
		}

		if app.systemDir == "" {
			app.systemDir = app.settings.GetSystemDir()
		}
		if app.localDir == "" {
			app.localDir = app.settings.GetLocalDir()
		}
		if app.fwCmdPath == "" {
			app.fwCmdPath = app.settings.GetFirewallCmdPath()
		}
		if len(app.zones) == 0 {
			app.zones = app.settings.Zones
		}

		if app.verbose {
			util.SetLogLevel("debug")
		} else {
			util.SetLogLevel("warn")
		}
		if app.settings.JSONLogs {
			util.SetJSONFormat()
		}

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&app.targetsPath, "targets", "t", "targets.yaml", "Target-set file")
	rootCmd.PersistentFlags().StringVar(&app.systemDir, "system-dir", "", "System service directory")
	rootCmd.PersistentFlags().StringVar(&app.localDir, "local-dir", "", "Local service override directory")
	rootCmd.PersistentFlags().StringVar(&app.fwCmdPath, "firewall-cmd", "", "Path to the firewall-cmd binary")
	rootCmd.PersistentFlags().StringSliceVarP(&app.zones, "zone", "z", nil, "Zone(s) to synchronize (repeatable)")
	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "Verbose logging")
	rootCmd.PersistentFlags().BoolVar(&app.jsonOutput, "json", false, "Accepted but not read by any command; output is always text")

	rootCmd.AddGroup(
		&cobra.Group{ID: "resource", Title: "Resource Commands:"},
		&cobra.Group{ID: "meta", Title: "Configuration & Meta:"},
	)

	for _, cmd := range []*cobra.Command{targetCmd, optimizeCmd, serviceCmd, syncCmd, zoneCmd} {
		cmd.GroupID = "resource"
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{settingsCmd, versionCmd} {
		cmd.GroupID = "meta"
		rootCmd.AddCommand(cmd)
	}

	addWriteFlags(syncCommitCmd)
}

// isSettingsOrHelp checks whether cmd (or any ancestor) is a settings, help,
// or version command — these must work before settings are loaded.
func isSettingsOrHelp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "version", "settings":
			return true
		}
	}
	return false
}

// addWriteFlags registers -x/--execute as a local flag.
func addWriteFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&app.executeMode, "execute", "x", false, "Execute changes (default is dry-run)")
}

func printDryRunNotice() {
	if !app.executeMode {
		fmt.Println("\n" + yellow("DRY-RUN: no changes applied. Use -x to execute."))
	}
}
