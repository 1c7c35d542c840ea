package archive

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/rhymednick/inw-radio-log/internal/scheduler"
)

// Job ids of the maintenance jobs.
const (
	JobLogRotation     = "log_rotation"
	JobUserBackup      = "user_backup"
	JobPhotoCompaction = "photo_compaction"
)

// Schedules holds the cron schedules of the maintenance jobs. An empty
// schedule leaves the job out.
type Schedules struct {
	LogRotation     string
	UserBackup      string
	PhotoCompaction string
}

// RegisterJobs adds the scheduled maintenance jobs to s.
func (m *Maintainer) RegisterJobs(s *scheduler.Scheduler, schedules Schedules) error {
	jobs := []struct {
		id, name, description, schedule string
		run                             scheduler.JobFunc
	}{
		{
			JobLogRotation, "Checkout Log Rotation",
			"Archives the checkout log and starts an empty one",
			schedules.LogRotation,
			func(ctx context.Context) error {
				_, err := m.ArchiveLog(ctx)
				return err
			},
		},
		{
			JobUserBackup, "User Backup",
			"Copies the user registry to a timestamped backup",
			schedules.UserBackup,
			func(ctx context.Context) error {
				_, err := m.BackupUsers(ctx)
				return err
			},
		},
		{
			JobPhotoCompaction, "Photo Compaction",
			"Re-encodes oversized profile photos",
			schedules.PhotoCompaction,
			func(ctx context.Context) error {
				_, err := m.CompactPhotos(ctx)
				return err
			},
		},
	}

	for _, j := range jobs {
		if j.schedule == "" {
			log.Debug("job disabled, no schedule configured", "id", j.id)
			continue
		}
		if err := s.AddCronJob(j.id, j.name, j.description, j.schedule, j.run); err != nil {
			return fmt.Errorf("failed to add %s job: %w", j.id, err)
		}
	}
	return nil
}
