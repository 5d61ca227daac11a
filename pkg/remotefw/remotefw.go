// Package remotefw drives the external firewall control program on a remote
// host over SSH, and fans a commit out across a fleet of hosts.
package remotefw

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/zoneforge/fwctl/pkg/fwcmd"
	"github.com/zoneforge/fwctl/pkg/util"
)

// Host drives firewall-cmd on a single remote machine through a persistent
// SSH connection. It satisfies fwsync.ControlProgram.
type Host struct {
	addr            string
	user            string
	client          *ssh.Client
	firewallCmdPath string
}

// DialOptions configures a remote Host connection.
type DialOptions struct {
	// FirewallCmdPath is the remote control program path. Defaults to
	// "/usr/bin/firewall-cmd".
	FirewallCmdPath string
	// Timeout bounds the SSH handshake. Defaults to 30s.
	Timeout time.Duration
}

// Dial opens an SSH connection to host:port authenticating as user with
// auth, and returns a Host ready to drive firewall-cmd remotely.
func Dial(host string, port int, user string, auth []ssh.AuthMethod, hostKeyCallback ssh.HostKeyCallback, opts DialOptions) (*Host, error) {
	if port == 0 {
		port = 22
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	firewallCmdPath := opts.FirewallCmdPath
	if firewallCmdPath == "" {
		firewallCmdPath = "/usr/bin/firewall-cmd"
	}

	config := &ssh.ClientConfig{
		User:            user,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         timeout,
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, util.NewExternalError("ssh", []string{addr}, err.Error(), err)
	}

	return &Host{
		addr:            addr,
		user:            user,
		client:          client,
		firewallCmdPath: firewallCmdPath,
	}, nil
}

// Close tears down the underlying SSH connection.
func (h *Host) Close() error {
	return h.client.Close()
}

// Addr returns the "host:port" this Host connects to.
func (h *Host) Addr() string { return h.addr }

// run executes the control program remotely with args, returning stdout.
// The session is created per call, matching firewall-cmd's one-shot
// invocation model. Context cancellation closes the session to unblock a
// hung remote command.
func (h *Host) run(ctx context.Context, args ...string) (string, error) {
	session, err := h.client.NewSession()
	if err != nil {
		return "", util.NewExternalError(h.firewallCmdPath, args, "", err)
	}
	defer session.Close()

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			session.Close()
		case <-done:
		}
	}()
	defer close(done)

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	cmd := h.firewallCmdPath
	for _, a := range args {
		cmd += " " + shellQuote(a)
	}

	if err := session.Run(cmd); err != nil {
		return "", util.NewExternalError(h.firewallCmdPath, args, strings.TrimSpace(stderr.String()), err)
	}
	return stdout.String(), nil
}

// shellQuote wraps s in single quotes for the remote shell, escaping any
// embedded single quote.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// ListAllZones runs `--permanent --list-all-zones` on the remote host.
func (h *Host) ListAllZones(ctx context.Context) (map[string][]string, error) {
	out, err := h.run(ctx, "--permanent", "--list-all-zones")
	if err != nil {
		return nil, err
	}
	return fwcmd.ParseZoneListing(out), nil
}

// AddService runs `--permanent --zone=<zone> --add-service=<service>` on the
// remote host.
func (h *Host) AddService(ctx context.Context, zone, service string) error {
	_, err := h.run(ctx, "--permanent", "--zone="+zone, "--add-service="+service)
	return err
}

// RemoveService runs `--permanent --zone=<zone> --remove-service=<service>`
// on the remote host.
func (h *Host) RemoveService(ctx context.Context, zone, service string) error {
	_, err := h.run(ctx, "--permanent", "--zone="+zone, "--remove-service="+service)
	return err
}

// Reload runs `--reload` on the remote host.
func (h *Host) Reload(ctx context.Context) error {
	_, err := h.run(ctx, "--reload")
	return err
}

// Fleet fans a commit out across named hosts in parallel and collects a
// per-host result.
type Fleet struct {
	hosts map[string]*Host
}

// NewFleet constructs a Fleet from named hosts.
func NewFleet(hosts map[string]*Host) *Fleet {
	return &Fleet{hosts: hosts}
}

// CommitEach runs commit once per host in parallel, passing that host's
// Host as the ControlProgram, and returns the first error encountered per
// host keyed by host name. A failure on one host does not prevent the
// others from completing.
func (f *Fleet) CommitEach(commit func(host *Host) error) map[string]error {
	var wg sync.WaitGroup
	var mu sync.Mutex
	results := make(map[string]error, len(f.hosts))

	for name, host := range f.hosts {
		wg.Add(1)
		go func(name string, host *Host) {
			defer wg.Done()
			err := commit(host)
			mu.Lock()
			results[name] = err
			mu.Unlock()
		}(name, host)
	}
	wg.Wait()
	return results
}

// Close closes every host's SSH connection, returning the first error
// encountered.
func (f *Fleet) Close() error {
	var firstErr error
	for _, host := range f.hosts {
		if err := host.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
