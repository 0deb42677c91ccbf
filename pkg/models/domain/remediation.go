package domain

import (
	"fmt"
	"sort"
	"strings"
)

// ActionID identifies one remediation handler.
type ActionID string

const (
	ActionThrottleLambda         ActionID = "throttle_lambda"
	ActionDisableLambda          ActionID = "disable_lambda"
	ActionSetReservedConcurrency ActionID = "set_reserved_concurrency"
	ActionScaleDown              ActionID = "scale_down"
	ActionNotifySNS              ActionID = "notify_sns"
	ActionStartStepFunction      ActionID = "start_step_function"
	ActionStopEC2                ActionID = "stop_ec2"
	ActionStopRDS                ActionID = "stop_rds"
	ActionPauseAppRunner         ActionID = "pause_apprunner"
	ActionScaleECSToZero         ActionID = "scale_ecs_to_zero"
)

var actionIDs = []ActionID{
	ActionThrottleLambda,
	ActionDisableLambda,
	ActionSetReservedConcurrency,
	ActionScaleDown,
	ActionNotifySNS,
	ActionStartStepFunction,
	ActionStopEC2,
	ActionStopRDS,
	ActionPauseAppRunner,
	ActionScaleECSToZero,
}

// ActionIDs lists every known remediation action.
func ActionIDs() []ActionID {
	out := make([]ActionID, len(actionIDs))
	copy(out, actionIDs)
	return out
}

func (a ActionID) Valid() bool {
	for _, id := range actionIDs {
		if id == a {
			return true
		}
	}
	return false
}

// ParseActionID rejects identifiers outside the closed set.
func ParseActionID(s string) (ActionID, error) {
	id := ActionID(strings.TrimSpace(s))
	if !id.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
	return id, nil
}

// RemediationParams holds the typed parameters of every action. Only the
// fields relevant to the rule's action are read.
type RemediationParams struct {
	FunctionName      string            `json:"function_name,omitempty" yaml:"function_name,omitempty"`
	Concurrency       *int32            `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`
	ServiceNamespace  string            `json:"service_namespace,omitempty" yaml:"service_namespace,omitempty"`
	ResourceID        string            `json:"resource_id,omitempty" yaml:"resource_id,omitempty"`
	ScalableDimension string            `json:"scalable_dimension,omitempty" yaml:"scalable_dimension,omitempty"`
	MinCapacity       *int32            `json:"min_capacity,omitempty" yaml:"min_capacity,omitempty"`
	MaxCapacity       *int32            `json:"max_capacity,omitempty" yaml:"max_capacity,omitempty"`
	TopicARN          string            `json:"topic_arn,omitempty" yaml:"topic_arn,omitempty"`
	StateMachineARN   string            `json:"state_machine_arn,omitempty" yaml:"state_machine_arn,omitempty"`
	InstanceIDs       []string          `json:"instance_ids,omitempty" yaml:"instance_ids,omitempty"`
	DBInstanceIDs     []string          `json:"db_instance_ids,omitempty" yaml:"db_instance_ids,omitempty"`
	ServiceARNs       []string          `json:"service_arns,omitempty" yaml:"service_arns,omitempty"`
	Cluster           string            `json:"cluster,omitempty" yaml:"cluster,omitempty"`
	Services          []string          `json:"services,omitempty" yaml:"services,omitempty"`
	NotifyBefore      bool              `json:"notify_before,omitempty" yaml:"notify_before,omitempty"`
	AdditionalParams  map[string]string `json:"additional_params,omitempty" yaml:"additional_params,omitempty"`
}

// Validate checks the parameters required by action.
func (p RemediationParams) Validate(action ActionID) error {
	var missing []string
	require := func(name, v string) {
		if v == "" {
			missing = append(missing, name)
		}
	}

	switch action {
	case ActionThrottleLambda, ActionDisableLambda:
		require("function_name", p.FunctionName)
	case ActionSetReservedConcurrency:
		require("function_name", p.FunctionName)
		if p.Concurrency == nil {
			missing = append(missing, "concurrency")
		}
	case ActionScaleDown:
		require("service_namespace", p.ServiceNamespace)
		require("resource_id", p.ResourceID)
		require("scalable_dimension", p.ScalableDimension)
	case ActionNotifySNS:
		require("topic_arn", p.TopicARN)
	case ActionStartStepFunction:
		require("state_machine_arn", p.StateMachineARN)
	case ActionStopEC2, ActionStopRDS:
		if p.NotifyBefore {
			require("topic_arn", p.TopicARN)
		}
	case ActionPauseAppRunner:
	case ActionScaleECSToZero:
		if len(p.Services) > 0 {
			require("cluster", p.Cluster)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	if len(missing) > 0 {
		return fmt.Errorf("%s requires %s", action, strings.Join(missing, ", "))
	}
	for _, c := range []*int32{p.Concurrency, p.MinCapacity, p.MaxCapacity} {
		if c != nil && *c < 0 {
			return fmt.Errorf("%s: capacity and concurrency must be >= 0", action)
		}
	}
	if p.MinCapacity != nil && p.MaxCapacity != nil && *p.MinCapacity > *p.MaxCapacity {
		return fmt.Errorf("%s: min_capacity %d exceeds max_capacity %d", action, *p.MinCapacity, *p.MaxCapacity)
	}
	return nil
}

// ItemStatus is the per-resource result of a remediation.
type ItemStatus string

const (
	StatusStopped          ItemStatus = "stopped"
	StatusThrottled        ItemStatus = "throttled"
	StatusAlreadyThrottled ItemStatus = "already_throttled"
	StatusPaused           ItemStatus = "paused"
	StatusScaledDown       ItemStatus = "scaled_down"
	StatusDisabled         ItemStatus = "disabled"
	StatusNotified         ItemStatus = "notified"
	StatusStarted          ItemStatus = "started"
	StatusDryRun           ItemStatus = "dry_run"
	StatusSkipped          ItemStatus = "skipped"
	StatusError            ItemStatus = "error"
)

// Changed reports whether the status describes an applied (or would-be
// applied) change.
func (s ItemStatus) Changed() bool {
	switch s {
	case StatusStopped, StatusThrottled, StatusPaused, StatusScaledDown, StatusDisabled, StatusDryRun:
		return true
	}
	return false
}

type ItemResult struct {
	ID     string       `json:"id"`
	Kind   ResourceKind `json:"kind,omitempty"`
	Region string       `json:"region,omitempty"`
	Status ItemStatus   `json:"status"`
	Error  string       `json:"error,omitempty"`
}

// RemediationOutcome is the result of one remediation pass.
type RemediationOutcome struct {
	Action    ActionID     `json:"action"`
	Items     []ItemResult `json:"items"`
	MessageID string       `json:"message_id,omitempty"`
	DryRun    bool         `json:"dry_run"`
	Error     string       `json:"error,omitempty"`
}

// Failed returns the items that ended in error.
func (o RemediationOutcome) Failed() []ItemResult {
	var out []ItemResult
	for _, it := range o.Items {
		if it.Status == StatusError {
			out = append(out, it)
		}
	}
	return out
}

// AnyChanged reports whether at least one item was (or would be) changed.
func (o RemediationOutcome) AnyChanged() bool {
	for _, it := range o.Items {
		if it.Status.Changed() {
			return true
		}
	}
	return false
}

// CountByStatus groups item counts by status.
func (o RemediationOutcome) CountByStatus() map[ItemStatus]int {
	counts := make(map[ItemStatus]int)
	for _, it := range o.Items {
		counts[it.Status]++
	}
	return counts
}

// SortItems orders items by kind, region and id.
func (o *RemediationOutcome) SortItems() {
	sort.SliceStable(o.Items, func(i, j int) bool {
		a, b := o.Items[i], o.Items[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Region != b.Region {
			return a.Region < b.Region
		}
		return a.ID < b.ID
	})
}
