package cmd

import (
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/rhymednick/inw-radio-log/internal/api"
	"github.com/rhymednick/inw-radio-log/internal/archive"
	"github.com/rhymednick/inw-radio-log/internal/scheduler"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the radiolog server",
	Long:  `Start the radiolog HTTP API and the scheduled maintenance jobs.`,
	Example: `radiolog serve --config config.yml
radiolog serve -c /path/to/config.yml --log-level debug
`,
	RunE: startServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func startServer(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	sched, err := scheduler.New()
	if err != nil {
		return err
	}
	if err := a.maintainer.RegisterJobs(sched, archive.Schedules{
		LogRotation:     a.cfg.Maintenance.LogRotationSchedule,
		UserBackup:      a.cfg.Maintenance.UserBackupSchedule,
		PhotoCompaction: a.cfg.Maintenance.PhotoCompactionSchedule,
	}); err != nil {
		return err
	}
	sched.Start()
	defer func() {
		if err := sched.Stop(); err != nil {
			log.Error("failed to stop scheduler", "error", err)
		}
	}()

	server, err := api.New(a.cfg, api.Services{
		Users:      a.users,
		Inventory:  a.inventory,
		Ledger:     a.ledger,
		Photos:     a.photos,
		Maintainer: a.maintainer,
		Scheduler:  sched,
	}, log.GetLevel() == log.DebugLevel)
	if err != nil {
		return err
	}

	log.Info("radiolog started successfully", "listen", a.cfg.Listen)
	if err := server.Run(ctx); err != nil {
		return err
	}
	log.Info("shutting down gracefully...")
	return nil
}
