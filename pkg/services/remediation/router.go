package remediation

import (
	"context"
	"fmt"

	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/de-tools/cost-guardian/pkg/services/cost"
	"github.com/rs/zerolog"
)

// Request carries everything a handler needs for one remediation.
type Request struct {
	Params     domain.RemediationParams
	Projection domain.Projection
	Region     string
	DryRun     bool
}

// Handler performs one remediation action. Per-item failures are reported in
// the outcome, never as a panic or early return.
type Handler func(ctx context.Context, req Request) domain.RemediationOutcome

// Observer is notified of every item result.
type Observer interface {
	ObserveRemediation(action domain.ActionID, status domain.ItemStatus)
}

type Option func(*Router)

// WithDefaultRegion sets the region used when a projection carries none.
func WithDefaultRegion(region string) Option {
	return func(r *Router) {
		r.region = region
	}
}

// WithProtectedFunctions lists functions that are never throttled.
func WithProtectedFunctions(names ...string) Option {
	return func(r *Router) {
		for _, n := range names {
			if n != "" {
				r.protected[n] = struct{}{}
			}
		}
	}
}

func WithObserver(o Observer) Option {
	return func(r *Router) {
		r.observer = o
	}
}

// Router dispatches remediation actions through a fixed handler table. It
// keeps no state between calls.
type Router struct {
	actuator  cost.Actuator
	notifier  cost.Notifier
	handlers  map[domain.ActionID]Handler
	region    string
	protected map[string]struct{}
	observer  Observer
}

func NewRouter(actuator cost.Actuator, notifier cost.Notifier, opts ...Option) (*Router, error) {
	r := &Router{
		actuator:  actuator,
		notifier:  notifier,
		handlers:  make(map[domain.ActionID]Handler),
		protected: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}

	builtin := []struct {
		id      domain.ActionID
		handler Handler
	}{
		{domain.ActionThrottleLambda, r.throttleLambda},
		{domain.ActionDisableLambda, r.disableLambda},
		{domain.ActionSetReservedConcurrency, r.setReservedConcurrency},
		{domain.ActionScaleDown, r.scaleDown},
		{domain.ActionNotifySNS, r.notifySNS},
		{domain.ActionStartStepFunction, r.startStepFunction},
		{domain.ActionStopEC2, r.stopEC2},
		{domain.ActionStopRDS, r.stopRDS},
		{domain.ActionPauseAppRunner, r.pauseAppRunner},
		{domain.ActionScaleECSToZero, r.scaleECSToZero},
	}
	for _, b := range builtin {
		if err := r.register(b.id, b.handler); err != nil {
			return nil, err
		}
	}

	for _, id := range domain.ActionIDs() {
		if _, ok := r.handlers[id]; !ok {
			return nil, fmt.Errorf("no handler registered for action: %s", id)
		}
	}
	return r, nil
}

func (r *Router) register(id domain.ActionID, h Handler) error {
	if !id.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownAction, id)
	}
	if h == nil {
		return fmt.Errorf("handler for %s cannot be nil", id)
	}
	if _, exists := r.handlers[id]; exists {
		return fmt.Errorf("action %q is already registered", id)
	}
	r.handlers[id] = h
	return nil
}

// Execute runs action against the targets named in params, or the resources
// carried by projection when params names none.
func (r *Router) Execute(
	ctx context.Context,
	action domain.ActionID,
	params domain.RemediationParams,
	projection domain.Projection,
) (domain.RemediationOutcome, error) {
	return r.dispatch(ctx, action, params, projection, false)
}

// Plan resolves the same targets as Execute without calling the actuator or
// notifier. Items are reported with status dry_run.
func (r *Router) Plan(
	ctx context.Context,
	action domain.ActionID,
	params domain.RemediationParams,
	projection domain.Projection,
) (domain.RemediationOutcome, error) {
	return r.dispatch(ctx, action, params, projection, true)
}

func (r *Router) dispatch(
	ctx context.Context,
	action domain.ActionID,
	params domain.RemediationParams,
	projection domain.Projection,
	dryRun bool,
) (domain.RemediationOutcome, error) {
	h, ok := r.handlers[action]
	if !ok {
		err := fmt.Errorf("%w: %q", domain.ErrUnknownAction, action)
		return domain.RemediationOutcome{Action: action, DryRun: dryRun, Error: err.Error()}, err
	}

	region := projection.Region
	if region == "" {
		region = r.region
	}

	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("action", string(action)).
		Str("rule", projection.RuleID).
		Bool("dry_run", dryRun).
		Msg("executing remediation")

	out := h(ctx, Request{Params: params, Projection: projection, Region: region, DryRun: dryRun})
	out.Action = action
	out.DryRun = dryRun
	if out.Items == nil {
		out.Items = []domain.ItemResult{}
	}
	r.observe(action, out.Items)

	for _, failed := range out.Failed() {
		logger.Error().
			Str("action", string(action)).
			Str("id", failed.ID).
			Str("error", failed.Error).
			Msg("remediation item failed")
	}
	return out, nil
}

func (r *Router) observe(action domain.ActionID, items []domain.ItemResult) {
	if r.observer == nil {
		return
	}
	for _, it := range items {
		r.observer.ObserveRemediation(action, it.Status)
	}
}

func (r *Router) isProtected(function string) bool {
	_, ok := r.protected[function]
	return ok
}

func itemError(id string, kind domain.ResourceKind, region string, err error) domain.ItemResult {
	return domain.ItemResult{ID: id, Kind: kind, Region: region, Status: domain.StatusError, Error: err.Error()}
}

func applied(id string, kind domain.ResourceKind, region string, status domain.ItemStatus, dryRun bool) domain.ItemResult {
	if dryRun {
		status = domain.StatusDryRun
	}
	return domain.ItemResult{ID: id, Kind: kind, Region: region, Status: status}
}
