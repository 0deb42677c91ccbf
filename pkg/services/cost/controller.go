package cost

import (
	"context"
	"fmt"

	"github.com/de-tools/cost-guardian/pkg/models/domain"
)

type controller struct {
	analyzers map[domain.ResourceKind]Analyzer
	order     []domain.ResourceKind
}

// NewInventory builds an Inventory from one analyzer per resource kind.
func NewInventory(analyzers ...Analyzer) (Inventory, error) {
	c := &controller{analyzers: make(map[domain.ResourceKind]Analyzer)}

	for _, a := range analyzers {
		kind := a.GetResourceKind()
		if _, exists := c.analyzers[kind]; exists {
			return nil, fmt.Errorf("duplicate analyzer for resource kind: %s", kind)
		}
		c.analyzers[kind] = a
		c.order = append(c.order, kind)
	}

	if len(c.analyzers) == 0 {
		return nil, fmt.Errorf("at least one analyzer must be provided")
	}

	return c, nil
}

func (c *controller) ListResources(
	ctx context.Context,
	region string,
	kind domain.ResourceKind,
	filter domain.InstanceFilter,
) ([]domain.ResourceDescriptor, error) {
	an, err := c.getAnalyzer(kind)
	if err != nil {
		return nil, err
	}

	resources, err := an.Discover(ctx, region, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to discover %s in %s: %w", kind.ShortName(), region, err)
	}
	return resources, nil
}

func (c *controller) SupportedKinds() []domain.ResourceKind {
	kinds := make([]domain.ResourceKind, len(c.order))
	copy(kinds, c.order)
	return kinds
}

func (c *controller) getAnalyzer(kind domain.ResourceKind) (Analyzer, error) {
	an, ok := c.analyzers[kind]
	if !ok {
		return nil, fmt.Errorf("unsupported resource kind: %s", kind)
	}
	return an, nil
}
