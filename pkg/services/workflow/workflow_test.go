package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockEvaluator struct{ mock.Mock }

func (m *mockEvaluator) Evaluate(ctx context.Context, dryRun bool) (*domain.EvaluationResult, error) {
	args := m.Called(ctx, dryRun)
	result, _ := args.Get(0).(*domain.EvaluationResult)
	return result, args.Error(1)
}

// blockingEvaluator holds every call until release is closed.
type blockingEvaluator struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingEvaluator) Evaluate(_ context.Context, dryRun bool) (*domain.EvaluationResult, error) {
	b.entered <- struct{}{}
	<-b.release
	return &domain.EvaluationResult{RunID: "slow", DryRun: dryRun}, nil
}

func TestRunner_Tick(t *testing.T) {
	ctx := context.Background()

	t.Run("stores the result", func(t *testing.T) {
		ev := new(mockEvaluator)
		ev.On("Evaluate", mock.Anything, true).Return(&domain.EvaluationResult{RunID: "r1", DryRun: true}, nil).Once()

		runner := NewRunner("budget", ev, RunnerConfig{DryRun: true})
		assert.True(t, runner.Tick(ctx))

		last, err := runner.Last()
		require.NoError(t, err)
		assert.Equal(t, "r1", last.RunID)
		ev.AssertExpectations(t)
	})

	t.Run("failure keeps the previous result", func(t *testing.T) {
		ev := new(mockEvaluator)
		ev.On("Evaluate", mock.Anything, false).Return(&domain.EvaluationResult{RunID: "r1"}, nil).Once()
		ev.On("Evaluate", mock.Anything, false).Return(nil, errors.New("throttled")).Once()

		runner := NewRunner("budget", ev, RunnerConfig{})
		runner.Tick(ctx)
		runner.Tick(ctx)

		last, err := runner.Last()
		assert.EqualError(t, err, "throttled")
		require.NotNil(t, last)
		assert.Equal(t, "r1", last.RunID)
	})

	t.Run("overlapping tick is skipped", func(t *testing.T) {
		ev := &blockingEvaluator{entered: make(chan struct{}), release: make(chan struct{})}
		runner := NewRunner("rules", ev, RunnerConfig{})

		done := make(chan bool)
		go func() { done <- runner.Tick(ctx) }()
		<-ev.entered

		assert.False(t, runner.Tick(ctx))
		assert.Equal(t, int64(1), runner.Skipped())

		close(ev.release)
		assert.True(t, <-done)
	})

	t.Run("tick is bounded by the timeout", func(t *testing.T) {
		ev := new(mockEvaluator)
		ev.On("Evaluate", mock.MatchedBy(func(ctx context.Context) bool {
			_, ok := ctx.Deadline()
			return ok
		}), false).Return(&domain.EvaluationResult{RunID: "r1"}, nil).Once()

		runner := NewRunner("budget", ev, RunnerConfig{Timeout: time.Minute})
		runner.Tick(ctx)
		ev.AssertExpectations(t)
	})
}

func TestController_Schedule(t *testing.T) {
	ctx := context.Background()
	ctrl := NewController()
	runner := NewRunner("budget", new(mockEvaluator), RunnerConfig{})

	require.NoError(t, ctrl.Schedule(ctx, "*/15 * * * *", runner))

	got, ok := ctrl.Runner("budget")
	require.True(t, ok)
	assert.Same(t, runner, got)

	err := ctrl.Schedule(ctx, "@hourly", runner)
	assert.ErrorContains(t, err, "already scheduled")

	err = ctrl.Schedule(ctx, "every now and then", NewRunner("other", new(mockEvaluator), RunnerConfig{}))
	assert.ErrorContains(t, err, "invalid schedule")

	require.NoError(t, ctrl.Cancel(ctx, "budget"))
	_, ok = ctrl.Runner("budget")
	assert.False(t, ok)
	assert.Error(t, ctrl.Cancel(ctx, "budget"))
}

func TestController_StartStop(t *testing.T) {
	ctrl := NewController()
	ctrl.Start()
	assert.NoError(t, ctrl.Stop(context.Background()))
}
