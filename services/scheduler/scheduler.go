// Package scheduler runs named background jobs on cron specs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/swimschool/core"
	"github.com/trezcool/swimschool/services/metrics"
)

// Job is a unit of background work. It must honour ctx cancellation.
type Job func(ctx context.Context) error

type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	logger core.Logger
}

// New returns a scheduler evaluating specs in loc. Overlapping runs of a job are skipped.
func New(loc *time.Location, logger core.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	return &Scheduler{cron: c, ctx: ctx, cancel: cancel, logger: logger}
}

// Add registers fn under name. An empty spec disables the job.
func (s *Scheduler) Add(spec, name string, fn Job) error {
	if spec == "" {
		s.logger.Info(fmt.Sprintf("job %q disabled", name))
		return nil
	}
	if _, err := s.cron.AddFunc(spec, func() { s.Run(name, fn) }); err != nil {
		return errors.Wrapf(err, "scheduling job %q", name)
	}
	return nil
}

// Run executes fn once, recording its metrics.
func (s *Scheduler) Run(name string, fn Job) {
	start := time.Now()
	err := fn(s.ctx)
	metrics.ObserveJob(name, start, err)
	if err != nil {
		s.logger.Error(fmt.Sprintf("job %q failed: %v", name, err), err)
		return
	}
	s.logger.Info(fmt.Sprintf("job %q done in %s", name, time.Since(start)))
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels the running jobs and waits for them to return or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
