// Package fwcmd wraps invocation of the external firewall control program
// (firewall-cmd by default) and parses its zone-listing output.
package fwcmd

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/zoneforge/fwctl/pkg/util"
)

// Runner invokes the external control program. The zero value uses the
// default path (/usr/bin/firewall-cmd, overridden by Path).
type Runner struct {
	// Path is the control program's executable path.
	Path string
}

// NewRunner constructs a Runner bound to path.
func NewRunner(path string) *Runner {
	return &Runner{Path: path}
}

// run executes the control program with args and returns stdout. Non-zero
// exit surfaces as an ExternalFailure carrying the child's stderr.
func (r *Runner) run(ctx context.Context, args ...string) (string, error) {
	path := r.Path
	if path == "" {
		path = "/usr/bin/firewall-cmd"
	}
	cmd := exec.CommandContext(ctx, path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", util.NewExternalError(path, args, strings.TrimSpace(stderr.String()), err)
	}
	return stdout.String(), nil
}

// ListAllZones runs `--permanent --list-all-zones` and returns the per-zone
// service listing.
func (r *Runner) ListAllZones(ctx context.Context) (map[string][]string, error) {
	out, err := r.run(ctx, "--permanent", "--list-all-zones")
	if err != nil {
		return nil, err
	}
	return ParseZoneListing(out), nil
}

// AddService runs `--permanent --zone=<zone> --add-service=<service>`.
func (r *Runner) AddService(ctx context.Context, zone, service string) error {
	_, err := r.run(ctx, "--permanent", "--zone="+zone, "--add-service="+service)
	return err
}

// RemoveService runs `--permanent --zone=<zone> --remove-service=<service>`.
func (r *Runner) RemoveService(ctx context.Context, zone, service string) error {
	_, err := r.run(ctx, "--permanent", "--zone="+zone, "--remove-service="+service)
	return err
}

// Reload runs `--reload`.
func (r *Runner) Reload(ctx context.Context) error {
	_, err := r.run(ctx, "--reload")
	return err
}

// ParseZoneListing parses the line-oriented output of
// `--list-all-zones`: zones begin at column 0 (optionally followed by a
// " (active)" suffix to strip); indented lines beginning with "  services:"
// enumerate space-separated service names.
func ParseZoneListing(output string) map[string][]string {
	zones := make(map[string][]string)
	var current string

	for _, line := range strings.Split(output, "\n") {
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, " ") && !strings.HasPrefix(line, "\t") {
			name := strings.TrimSpace(line)
			name = strings.TrimSuffix(name, " (active)")
			current = name
			if current != "" {
				zones[current] = nil
			}
			continue
		}
		trimmed := strings.TrimSpace(line)
		if current == "" || !strings.HasPrefix(trimmed, "services:") {
			continue
		}
		rest := strings.TrimSpace(strings.TrimPrefix(trimmed, "services:"))
		if rest == "" {
			continue
		}
		zones[current] = strings.Fields(rest)
	}

	return zones
}
