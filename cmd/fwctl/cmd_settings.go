package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zoneforge/fwctl/pkg/settings"
	"github.com/zoneforge/fwctl/pkg/util"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage persistent settings",
	Long: `Manage persistent settings stored in ~/.fwctl/settings.yaml.

Examples:
  fwctl settings show
  fwctl settings set system_dir /usr/lib/firewalld/services
  fwctl settings set redis_addr 127.0.0.1:6379
  fwctl settings clear`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.Load()
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}

		fmt.Printf("Settings file: %s\n\n", settings.DefaultSettingsPath())

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SETTING\tVALUE")
		fmt.Fprintln(w, "-------\t-----")

		print := func(name, value string) {
			if value == "" {
				value = "(not set)"
			}
			fmt.Fprintf(w, "%s\t%s\n", name, value)
		}

		print("system_dir", s.GetSystemDir())
		print("local_dir", s.GetLocalDir())
		print("firewall_cmd_path", s.GetFirewallCmdPath())
		print("log_level", s.LogLevel)
		print("json_logs", strconv.FormatBool(s.JSONLogs))
		print("redis_addr", s.RedisAddr)
		print("redis_lock_ttl_ms", strconv.Itoa(s.GetRedisLockTTLMS()))
		print("zones", strings.Join(s.Zones, ","))

		w.Flush()
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <setting> <value>",
	Short: "Set a setting value",
	Long: `Available settings:
  system_dir         - System service directory
  local_dir          - Local override service directory
  firewall_cmd_path  - Path to the firewall-cmd binary
  log_level          - logrus level (debug, info, warn, error)
  json_logs          - "true" or "false"
  redis_addr         - Redis address for the distributed commit lock
  redis_lock_ttl_ms  - Distributed lock lease time in milliseconds
  zones              - Comma-separated default zone list`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.Load()
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}

		name, value := args[0], args[1]
		switch name {
		case "system_dir":
			s.SystemDir = value
		case "local_dir":
			s.LocalDir = value
		case "firewall_cmd_path":
			s.FirewallCmdPath = value
		case "log_level":
			s.LogLevel = value
		case "json_logs":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("json_logs must be true or false: %w", err)
			}
			s.JSONLogs = b
		case "redis_addr":
			s.RedisAddr = value
		case "redis_lock_ttl_ms":
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("redis_lock_ttl_ms must be an integer: %w", err)
			}
			s.RedisLockTTLMS = n
		case "zones":
			s.Zones = util.SplitCommaSeparated(value)
		default:
			return fmt.Errorf("unknown setting: %s", name)
		}

		if err := s.Save(); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}
		fmt.Println(green("Setting saved."))
		return nil
	},
}

var settingsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Reset all settings to defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := &settings.Settings{}
		if err := s.Save(); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}
		fmt.Println(green("Settings cleared."))
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd, settingsClearCmd)
}
