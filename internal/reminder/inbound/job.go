package inbound

import (
	"github.com/shandysiswandi/gofocus/internal/pkg/config"
	"github.com/shandysiswandi/gofocus/internal/pkg/scheduler"
)

const (
	JobDailyDigest    = "reminder.daily_digest"
	JobEventReminders = "reminder.event_reminders"
)

// RegisterJob schedules the digest and event reminder jobs. An empty cron
// spec leaves that job off.
func RegisterJob(s *scheduler.Scheduler, cfg config.Config, uc uc) error {
	jobs := []struct {
		name string
		key  string
		fn   scheduler.JobFunc
	}{
		{name: JobDailyDigest, key: "modules.reminder.digest_cron", fn: uc.DailyDigest},
		{name: JobEventReminders, key: "modules.reminder.event_cron", fn: uc.EventReminders},
	}

	for _, j := range jobs {
		spec := cfg.GetString(j.key)
		if spec == "" {
			continue
		}
		if err := s.Register(j.name, spec, j.fn); err != nil {
			return err
		}
	}

	return nil
}
