package remediation

import (
	"context"
	"fmt"

	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/rs/zerolog"
)

// StopAllAction labels account-wide stops in outcomes and metrics.
const StopAllAction domain.ActionID = "stop_all"

// StopAll stops every running resource: instances and databases are
// stopped, functions throttled to zero, platform services paused and
// container services scaled to zero. Items already at zero concurrency are
// reported as already_throttled.
func (r *Router) StopAll(ctx context.Context, resources domain.ResourceSet, dryRun bool) domain.RemediationOutcome {
	var items []domain.ItemResult
	items = append(items, r.stopInstances(ctx, resources[domain.KindComputeInstance], dryRun)...)
	items = append(items, r.stopDatabases(ctx, resources[domain.KindManagedDatabase], dryRun)...)
	items = append(items, r.throttleFunctions(ctx, resources[domain.KindServerlessFunction], dryRun)...)
	items = append(items, r.pauseServices(ctx, resources[domain.KindPlatformService], dryRun)...)
	items = append(items, r.scaleServices(ctx, resources[domain.KindContainerService], dryRun)...)
	if items == nil {
		items = []domain.ItemResult{}
	}

	out := domain.RemediationOutcome{Action: StopAllAction, Items: items, DryRun: dryRun}
	r.observe(StopAllAction, items)

	counts := out.CountByStatus()
	zerolog.Ctx(ctx).Info().
		Bool("dry_run", dryRun).
		Int("stopped", counts[domain.StatusStopped]).
		Int("throttled", counts[domain.StatusThrottled]).
		Int("paused", counts[domain.StatusPaused]).
		Int("scaled_down", counts[domain.StatusScaledDown]).
		Int("errors", counts[domain.StatusError]).
		Msg("stop all completed")
	return out
}

// stopInstances stops instances in one call per region. When a batch fails
// each instance is retried alone so that failures are attributed per item.
func (r *Router) stopInstances(ctx context.Context, instances []domain.ResourceDescriptor, dryRun bool) []domain.ItemResult {
	byRegion := make(map[string][]string)
	var regions []string
	for _, inst := range instances {
		if _, ok := byRegion[inst.Region]; !ok {
			regions = append(regions, inst.Region)
		}
		byRegion[inst.Region] = append(byRegion[inst.Region], inst.ID)
	}

	var items []domain.ItemResult
	for _, region := range regions {
		batch := byRegion[region]
		if dryRun {
			for _, id := range batch {
				items = append(items, applied(id, domain.KindComputeInstance, region, domain.StatusStopped, true))
			}
			continue
		}

		err := r.actuator.StopInstances(ctx, region, batch)
		if err == nil {
			for _, id := range batch {
				items = append(items, applied(id, domain.KindComputeInstance, region, domain.StatusStopped, false))
			}
			continue
		}
		if len(batch) == 1 {
			items = append(items, itemError(batch[0], domain.KindComputeInstance, region, err))
			continue
		}
		for _, id := range batch {
			if err := r.actuator.StopInstances(ctx, region, []string{id}); err != nil {
				items = append(items, itemError(id, domain.KindComputeInstance, region, err))
				continue
			}
			items = append(items, applied(id, domain.KindComputeInstance, region, domain.StatusStopped, false))
		}
	}
	return items
}

func (r *Router) stopDatabases(ctx context.Context, databases []domain.ResourceDescriptor, dryRun bool) []domain.ItemResult {
	var items []domain.ItemResult
	for _, db := range databases {
		if !dryRun {
			if err := r.actuator.StopDatabase(ctx, db.Region, db.ID); err != nil {
				items = append(items, itemError(db.ID, domain.KindManagedDatabase, db.Region, err))
				continue
			}
		}
		items = append(items, applied(db.ID, domain.KindManagedDatabase, db.Region, domain.StatusStopped, dryRun))
	}
	return items
}

func (r *Router) throttleFunctions(ctx context.Context, functions []domain.ResourceDescriptor, dryRun bool) []domain.ItemResult {
	var items []domain.ItemResult
	for _, fn := range functions {
		if r.isProtected(fn.ID) {
			continue
		}

		current, err := r.actuator.GetFunctionConcurrency(ctx, fn.Region, fn.ID)
		if err == nil && current != nil && *current == 0 {
			items = append(items, domain.ItemResult{
				ID: fn.ID, Kind: domain.KindServerlessFunction, Region: fn.Region, Status: domain.StatusAlreadyThrottled,
			})
			continue
		}

		if !dryRun {
			if err := r.actuator.PutFunctionConcurrency(ctx, fn.Region, fn.ID, 0); err != nil {
				items = append(items, itemError(fn.ID, domain.KindServerlessFunction, fn.Region, err))
				continue
			}
		}
		items = append(items, applied(fn.ID, domain.KindServerlessFunction, fn.Region, domain.StatusThrottled, dryRun))
	}
	return items
}

func (r *Router) pauseServices(ctx context.Context, services []domain.ResourceDescriptor, dryRun bool) []domain.ItemResult {
	var items []domain.ItemResult
	for _, svc := range services {
		if !dryRun {
			if err := r.actuator.PauseService(ctx, svc.Region, svc.ID); err != nil {
				items = append(items, itemError(svc.ID, domain.KindPlatformService, svc.Region, err))
				continue
			}
		}
		items = append(items, applied(svc.ID, domain.KindPlatformService, svc.Region, domain.StatusPaused, dryRun))
	}
	return items
}

func (r *Router) scaleServices(ctx context.Context, services []domain.ResourceDescriptor, dryRun bool) []domain.ItemResult {
	var items []domain.ItemResult
	for _, svc := range services {
		attrs := svc.Attributes.Container
		if attrs == nil || attrs.Cluster == "" {
			items = append(items, itemError(svc.ID, domain.KindContainerService, svc.Region,
				fmt.Errorf("service %s has no cluster", svc.Name)))
			continue
		}
		if !dryRun {
			if err := r.actuator.ScaleService(ctx, svc.Region, attrs.Cluster, svc.Name, 0); err != nil {
				items = append(items, itemError(svc.ID, domain.KindContainerService, svc.Region, err))
				continue
			}
		}
		items = append(items, applied(svc.ID, domain.KindContainerService, svc.Region, domain.StatusScaledDown, dryRun))
	}
	return items
}

func logNotifyFailure(ctx context.Context, topic string, err error) {
	zerolog.Ctx(ctx).Warn().Err(err).Str("topic", topic).Msg("pre-stop notification failed")
}
