package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pofactory/po-translator/internal/config"
	"github.com/pofactory/po-translator/internal/watch"
	"github.com/pofactory/po-translator/pkg/log"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var (
		sourceDir string
		output    string
		cronExpr  string
		module    string
		writeMO   bool
		offline   bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run merge-and-translate sweeps on a cron schedule",
		Long: `watch keeps the merged catalog up to date: on every cron fire it checks the
source tree for changed .po files and, when something changed, reruns the
merge-and-translate pass. An initial sweep runs immediately on startup.
Stops on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(func(c *config.Config) {
				if cronExpr != "" {
					c.Watch.CronExpr = cronExpr
				}
				if cmd.Flags().Changed("offline") {
					c.Translate.Offline = offline
				}
			})
			if err != nil {
				return err
			}
			return runWatch(cmd.Context(), cfg, passArgs{
				sourceDir: sourceDir,
				output:    output,
				module:    module,
				writeMO:   writeMO,
			})
		},
	}

	cmd.Flags().StringVarP(&sourceDir, "source-dir", "s", ".", "directory tree to scan for .po files")
	cmd.Flags().StringVarP(&output, "output", "o", "merged.po", "path of the translated catalog")
	cmd.Flags().StringVar(&cronExpr, "cron", "", "cron expression for the sweep schedule (default from config)")
	cmd.Flags().StringVarP(&module, "module", "m", "", "only translate entries of this module")
	cmd.Flags().BoolVar(&writeMO, "mo", false, "also compile a binary .mo next to the output")
	cmd.Flags().BoolVar(&offline, "offline", false, "translate from glossaries only, no API calls")

	return cmd
}

func runWatch(ctx context.Context, cfg *config.Config, args passArgs) error {
	if err := checkLanguages(cfg); err != nil {
		return err
	}
	args.language = cfg.Translate.TargetLang

	orch, cleanup, err := buildOrchestrator(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	sweep := func(ctx context.Context) error {
		res, err := runPass(ctx, orch, args)
		if err != nil {
			return err
		}
		log.Info("watch: sweep done, %d translated, %d skipped, %d failed -> %s",
			res.Translated, res.Skipped, res.Failed, args.output)
		return nil
	}

	svc, err := watch.New(cfg.Watch.CronExpr, args.sourceDir, sweep)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := svc.TriggerNow(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Warn("watch: initial sweep: %v", err)
	}
	if err := svc.Start(ctx); err != nil {
		return err
	}
	if info, err := svc.Schedule(time.Now()); err == nil {
		log.Info("watch: schedule %q, next sweep at %s (in %s)",
			info.Expression, info.Next.Format(time.RFC3339), info.TimeUntilNext.Round(time.Second))
	}

	<-ctx.Done()
	status := svc.Status()
	log.Info("watch: shutting down after %d run(s), %d skip(s)", status.Runs, status.Skips)
	return nil
}
