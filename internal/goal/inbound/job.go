package inbound

import (
	"github.com/shandysiswandi/gofocus/internal/pkg/config"
	"github.com/shandysiswandi/gofocus/internal/pkg/scheduler"
)

const JobStreakSweep = "goal.streak_sweep"

// RegisterJob schedules the streak sweep. An empty cron spec disables it.
func RegisterJob(s *scheduler.Scheduler, cfg config.Config, uc uc) error {
	spec := cfg.GetString("modules.goal.streak_sweep_cron")
	if spec == "" {
		return nil
	}

	return s.Register(JobStreakSweep, spec, uc.StreakSweep)
}
