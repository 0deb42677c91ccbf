package workflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type Controller interface {
	Schedule(ctx context.Context, spec string, runner *Runner) error
	Cancel(ctx context.Context, name string) error
}

type jobDescriptor struct {
	entry  cron.EntryID
	spec   string
	runner *Runner
}

// DefaultController drives runners from cron schedules.
type DefaultController struct {
	cron *cron.Cron

	mu   sync.Mutex
	jobs map[string]jobDescriptor
}

func NewController() *DefaultController {
	return &DefaultController{
		cron: cron.New(cron.WithParser(cron.NewParser(
			cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
		))),
		jobs: make(map[string]jobDescriptor),
	}
}

// Schedule registers runner under its name. ctx carries the logger and is
// the parent of every tick.
func (ctrl *DefaultController) Schedule(ctx context.Context, spec string, runner *Runner) error {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()

	if _, ok := ctrl.jobs[runner.Name()]; ok {
		return fmt.Errorf("job already scheduled: %s", runner.Name())
	}

	id, err := ctrl.cron.AddFunc(spec, func() { runner.Tick(ctx) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	ctrl.jobs[runner.Name()] = jobDescriptor{entry: id, spec: spec, runner: runner}

	zerolog.Ctx(ctx).Info().Str("job", runner.Name()).Str("schedule", spec).Msg("Job scheduled")
	return nil
}

func (ctrl *DefaultController) Cancel(_ context.Context, name string) error {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()

	desc, ok := ctrl.jobs[name]
	if !ok {
		return fmt.Errorf("job not scheduled: %s", name)
	}
	ctrl.cron.Remove(desc.entry)
	delete(ctrl.jobs, name)
	return nil
}

// Runner returns the scheduled runner with name.
func (ctrl *DefaultController) Runner(name string) (*Runner, bool) {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	desc, ok := ctrl.jobs[name]
	return desc.runner, ok
}

func (ctrl *DefaultController) Start() {
	ctrl.cron.Start()
}

// Stop prevents new ticks and blocks until running ones finish or ctx ends.
func (ctrl *DefaultController) Stop(ctx context.Context) error {
	done := ctrl.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
