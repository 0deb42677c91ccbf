package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/de-tools/cost-guardian/pkg/services/guardian"
	"github.com/rs/zerolog"
)

// Runner executes one guardian job per tick. Ticks never overlap: a tick
// that fires while the previous one is still running is skipped.
type Runner struct {
	name      string
	evaluator guardian.Evaluator
	config    RunnerConfig

	running sync.Mutex

	mu      sync.RWMutex
	last    *domain.EvaluationResult
	lastErr error
	skipped int64
}

type RunnerConfig struct {
	DryRun bool
	// Timeout bounds a single tick.
	Timeout time.Duration
}

func NewRunner(name string, evaluator guardian.Evaluator, config RunnerConfig) *Runner {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Minute
	}
	return &Runner{name: name, evaluator: evaluator, config: config}
}

func (r *Runner) Name() string { return r.name }

// Tick runs one evaluation. It returns false when the tick was skipped.
func (r *Runner) Tick(ctx context.Context) bool {
	logger := zerolog.Ctx(ctx).With().Str("job", r.name).Logger()

	if !r.running.TryLock() {
		r.mu.Lock()
		r.skipped++
		r.mu.Unlock()
		logger.Warn().Msg("previous run still in progress, skipping tick")
		return false
	}
	defer r.running.Unlock()

	ctx, cancel := context.WithTimeout(logger.WithContext(ctx), r.config.Timeout)
	defer cancel()

	started := time.Now()
	result, err := r.evaluator.Evaluate(ctx, r.config.DryRun)

	r.mu.Lock()
	r.lastErr = err
	if err == nil {
		r.last = result
	}
	r.mu.Unlock()

	if err != nil {
		logger.Error().Err(err).Msg("evaluation failed")
		return true
	}
	logger.Info().
		Str("run_id", result.RunID).
		Str("action", string(result.Action())).
		Str("projected", result.ProjectedTotal().StringFixed(2)).
		Bool("dry_run", result.DryRun).
		Dur("took", time.Since(started)).
		Msg("evaluation finished")
	return true
}

// Last returns the most recent successful result and the error of the most
// recent tick.
func (r *Runner) Last() (*domain.EvaluationResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last, r.lastErr
}

func (r *Runner) Skipped() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.skipped
}
