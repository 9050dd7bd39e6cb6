package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Scheduler runs background jobs on cron schedules. Jobs receive the base
// context so a shutdown cancels them between portfolio boundaries.
type Scheduler struct {
	cron    *cron.Cron
	baseCtx context.Context
}

// New creates a scheduler bound to the given base context.
func New(baseCtx context.Context) *Scheduler {
	return &Scheduler{cron: cron.New(), baseCtx: baseCtx}
}

// Add registers a job under a cron spec.
func (s *Scheduler) Add(spec, name string, job func(ctx context.Context)) error {
	_, err := s.cron.AddFunc(spec, func() {
		log.Infof("scheduled job %s starting", name)
		job(s.baseCtx)
		log.Infof("scheduled job %s finished", name)
	})
	if err != nil {
		return err
	}
	log.Infof("scheduled job %s registered with spec %q", name, spec)
	return nil
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling; running jobs finish on their own.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}
