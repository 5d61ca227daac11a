package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/zoneforge/fwctl/pkg/fwcmd"
	"github.com/zoneforge/fwctl/pkg/fwsync"
	"github.com/zoneforge/fwctl/pkg/model"
	"github.com/zoneforge/fwctl/pkg/optimize"
	"github.com/zoneforge/fwctl/pkg/svcfile"
	"github.com/zoneforge/fwctl/pkg/synclock"
	"github.com/zoneforge/fwctl/pkg/targetfile"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile local service definitions against live firewalld state",
}

var syncCommitCmd = &cobra.Command{
	Use:   "commit --service <file>",
	Short: "Optimize and commit a target set against the given zones",
	Long: `Loads the template service, optimizes the target-set file against it, and
commits the result: writing local service overrides, removing stale managed
services, and reloading firewalld. Dry-run by default — pass -x to execute.

When settings.redis_addr is set, the commit acquires a Redis-backed
distributed lock first, so only one host in a fleet applies a given
template's changes at a time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if optimizeServicePath == "" {
			return fmt.Errorf("--service is required")
		}
		if len(app.zones) == 0 {
			return fmt.Errorf("at least one --zone is required")
		}

		name := serviceNameFromPath(optimizeServicePath)
		f, err := os.Open(optimizeServicePath)
		if err != nil {
			return fmt.Errorf("opening %s: %w", optimizeServicePath, err)
		}
		template, err := svcfile.Load(name, f)
		f.Close()
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

		fmt.Printf("Computed %d service(s) for %d target(s) from %s.\n",
			len(ss.Services()), len(ss.Targets()), optimizeServicePath)

		if !app.executeMode {
			for _, svc := range ss.Services() {
				printServiceSummary(svc)
				fmt.Println()
			}
			printDryRunNotice()
			return nil
		}

		ctx := context.Background()

		if app.settings != nil && app.settings.UsesDistributedLock() {
			lock := synclock.New(app.settings.RedisAddr, name, time.Duration(app.settings.GetRedisLockTTLMS())*time.Millisecond)
			defer lock.Close()

			if err := lock.TryLock(ctx); err != nil {
				return fmt.Errorf("acquiring commit lock for %s: %w", name, err)
			}
			defer lock.Unlock(ctx)
		}

		runner := fwcmd.NewRunner(app.fwCmdPath)
		sync := fwsync.New(runner, app.systemDir, app.localDir)

		if err := sync.Commit(ctx, []*model.ServiceSet{ss}, app.zones); err != nil {
			return fmt.Errorf("committing: %w", err)
		}

		fmt.Println(green("Committed."))
		return nil
	},
}

func init() {
	syncCmd.AddCommand(syncCommitCmd)
	syncCommitCmd.Flags().StringVar(&optimizeServicePath, "service", "", "Template service document (required)")
}
