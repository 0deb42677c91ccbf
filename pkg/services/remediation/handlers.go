package remediation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/de-tools/cost-guardian/pkg/services/cost"
)

const (
	defaultThrottleConcurrency int32 = 1
	defaultScaleDownMin        int32 = 0
	defaultScaleDownMax        int32 = 1
)

type projectionMessage struct {
	RuleID           string            `json:"rule_id"`
	Action           domain.ActionID   `json:"action,omitempty"`
	ProjectedCost    string            `json:"projected_cost"`
	Threshold        string            `json:"threshold"`
	RatePerSecond    string            `json:"rate_per_second,omitempty"`
	Timestamp        string            `json:"timestamp,omitempty"`
	Breach           *bool             `json:"breach,omitempty"`
	InstanceIDs      []string          `json:"instance_ids,omitempty"`
	DBInstanceIDs    []string          `json:"db_instance_ids,omitempty"`
	AdditionalParams map[string]string `json:"additional_params,omitempty"`
}

func newProjectionMessage(p domain.Projection) projectionMessage {
	return projectionMessage{
		RuleID:        p.RuleID,
		ProjectedCost: p.ProjectedCost.String(),
		Threshold:     p.Threshold.String(),
		RatePerSecond: p.RatePerSecond.String(),
		Timestamp:     p.Timestamp.Format(time.RFC3339),
	}
}

func (m projectionMessage) encode() string {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", m)
	}
	return string(b)
}

func (r *Router) throttleLambda(ctx context.Context, req Request) domain.RemediationOutcome {
	concurrency := defaultThrottleConcurrency
	if req.Params.Concurrency != nil {
		concurrency = *req.Params.Concurrency
	}
	return r.putConcurrency(ctx, req, concurrency, domain.StatusThrottled)
}

func (r *Router) disableLambda(ctx context.Context, req Request) domain.RemediationOutcome {
	return r.putConcurrency(ctx, req, 0, domain.StatusDisabled)
}

func (r *Router) setReservedConcurrency(ctx context.Context, req Request) domain.RemediationOutcome {
	if req.Params.Concurrency == nil {
		return domain.RemediationOutcome{Error: "set_reserved_concurrency requires concurrency"}
	}
	return r.putConcurrency(ctx, req, *req.Params.Concurrency, domain.StatusThrottled)
}

func (r *Router) putConcurrency(ctx context.Context, req Request, concurrency int32, status domain.ItemStatus) domain.RemediationOutcome {
	fn := req.Params.FunctionName
	kind := domain.KindServerlessFunction
	if r.isProtected(fn) {
		return domain.RemediationOutcome{Items: []domain.ItemResult{{
			ID: fn, Kind: kind, Region: req.Region, Status: domain.StatusSkipped, Error: "function is protected",
		}}}
	}
	if !req.DryRun {
		if err := r.actuator.PutFunctionConcurrency(ctx, req.Region, fn, concurrency); err != nil {
			return domain.RemediationOutcome{Items: []domain.ItemResult{itemError(fn, kind, req.Region, err)}}
		}
	}
	return domain.RemediationOutcome{Items: []domain.ItemResult{applied(fn, kind, req.Region, status, req.DryRun)}}
}

func (r *Router) scaleDown(ctx context.Context, req Request) domain.RemediationOutcome {
	p := req.Params
	target := cost.ScalableTarget{
		ServiceNamespace:  p.ServiceNamespace,
		ResourceID:        p.ResourceID,
		ScalableDimension: p.ScalableDimension,
		MinCapacity:       defaultScaleDownMin,
		MaxCapacity:       defaultScaleDownMax,
	}
	if p.MinCapacity != nil {
		target.MinCapacity = *p.MinCapacity
	}
	if p.MaxCapacity != nil {
		target.MaxCapacity = *p.MaxCapacity
	}

	if !req.DryRun {
		if err := r.actuator.RegisterScalableTarget(ctx, req.Region, target); err != nil {
			return domain.RemediationOutcome{Items: []domain.ItemResult{itemError(p.ResourceID, "", req.Region, err)}}
		}
	}
	return domain.RemediationOutcome{Items: []domain.ItemResult{applied(p.ResourceID, "", req.Region, domain.StatusScaledDown, req.DryRun)}}
}

func (r *Router) notifySNS(ctx context.Context, req Request) domain.RemediationOutcome {
	msg := newProjectionMessage(req.Projection)
	breach := req.Projection.Breach
	msg.Breach = &breach

	subject := fmt.Sprintf("Cost Alert: %s", req.Projection.RuleID)
	topic := req.Params.TopicARN
	if req.DryRun {
		return domain.RemediationOutcome{Items: []domain.ItemResult{applied(topic, "", req.Region, domain.StatusNotified, true)}}
	}

	id, err := r.notifier.Notify(ctx, topic, subject, msg.encode())
	if err != nil {
		return domain.RemediationOutcome{
			Items: []domain.ItemResult{itemError(topic, "", req.Region, err)},
			Error: err.Error(),
		}
	}
	return domain.RemediationOutcome{
		Items:     []domain.ItemResult{{ID: topic, Region: req.Region, Status: domain.StatusNotified}},
		MessageID: id,
	}
}

func (r *Router) startStepFunction(ctx context.Context, req Request) domain.RemediationOutcome {
	msg := newProjectionMessage(req.Projection)
	msg.AdditionalParams = req.Params.AdditionalParams
	if msg.AdditionalParams == nil {
		msg.AdditionalParams = map[string]string{}
	}

	arn := req.Params.StateMachineARN
	if req.DryRun {
		return domain.RemediationOutcome{Items: []domain.ItemResult{applied(arn, "", req.Region, domain.StatusStarted, true)}}
	}

	executionARN, err := r.actuator.StartExecution(ctx, req.Region, arn, msg.encode())
	if err != nil {
		return domain.RemediationOutcome{Items: []domain.ItemResult{itemError(arn, "", req.Region, err)}}
	}
	return domain.RemediationOutcome{Items: []domain.ItemResult{{ID: executionARN, Region: req.Region, Status: domain.StatusStarted}}}
}

// targets returns explicit ids in the request region, or the projection's
// carried resources of kind.
func targets(req Request, kind domain.ResourceKind, explicit []string) []domain.ResourceDescriptor {
	if len(explicit) > 0 {
		out := make([]domain.ResourceDescriptor, 0, len(explicit))
		for _, id := range explicit {
			out = append(out, domain.ResourceDescriptor{Kind: kind, ID: id, Name: id, Region: req.Region})
		}
		return out
	}
	return req.Projection.ResourcesOf(kind)
}

func ids(resources []domain.ResourceDescriptor) []string {
	out := make([]string, 0, len(resources))
	for _, r := range resources {
		out = append(out, r.ID)
	}
	return out
}

func (r *Router) preNotify(ctx context.Context, req Request, kind string, msg projectionMessage, count int) {
	if !req.Params.NotifyBefore || req.Params.TopicARN == "" || req.DryRun {
		return
	}
	subject := fmt.Sprintf("Cost Guardian: Stopping %d %s instances", count, kind)
	if _, err := r.notifier.Notify(ctx, req.Params.TopicARN, subject, msg.encode()); err != nil {
		// The stop still proceeds; the failure shows up in the logs.
		logNotifyFailure(ctx, req.Params.TopicARN, err)
	}
}

func (r *Router) stopEC2(ctx context.Context, req Request) domain.RemediationOutcome {
	instances := targets(req, domain.KindComputeInstance, req.Params.InstanceIDs)
	if len(instances) == 0 {
		return domain.RemediationOutcome{}
	}

	msg := projectionMessage{
		RuleID:        req.Projection.RuleID,
		Action:        domain.ActionStopEC2,
		InstanceIDs:   ids(instances),
		ProjectedCost: req.Projection.ProjectedCost.String(),
		Threshold:     req.Projection.Threshold.String(),
	}
	r.preNotify(ctx, req, "EC2", msg, len(instances))

	return domain.RemediationOutcome{Items: r.stopInstances(ctx, instances, req.DryRun)}
}

func (r *Router) stopRDS(ctx context.Context, req Request) domain.RemediationOutcome {
	databases := targets(req, domain.KindManagedDatabase, req.Params.DBInstanceIDs)
	if len(databases) == 0 {
		return domain.RemediationOutcome{}
	}

	msg := projectionMessage{
		RuleID:        req.Projection.RuleID,
		Action:        domain.ActionStopRDS,
		DBInstanceIDs: ids(databases),
		ProjectedCost: req.Projection.ProjectedCost.String(),
		Threshold:     req.Projection.Threshold.String(),
	}
	r.preNotify(ctx, req, "RDS", msg, len(databases))

	return domain.RemediationOutcome{Items: r.stopDatabases(ctx, databases, req.DryRun)}
}

func (r *Router) pauseAppRunner(ctx context.Context, req Request) domain.RemediationOutcome {
	services := targets(req, domain.KindPlatformService, req.Params.ServiceARNs)
	return domain.RemediationOutcome{Items: r.pauseServices(ctx, services, req.DryRun)}
}

func (r *Router) scaleECSToZero(ctx context.Context, req Request) domain.RemediationOutcome {
	var services []domain.ResourceDescriptor
	if len(req.Params.Services) > 0 {
		for _, name := range req.Params.Services {
			services = append(services, domain.NewContainerService(name, req.Region, domain.ContainerAttributes{
				Cluster:    req.Params.Cluster,
				ServiceARN: name,
			}))
		}
	} else {
		services = req.Projection.ResourcesOf(domain.KindContainerService)
	}
	return domain.RemediationOutcome{Items: r.scaleServices(ctx, services, req.DryRun)}
}
