package cost

import (
	"context"
	"errors"
	"testing"

	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAnalyzer lets us simulate any Analyzer with preset outputs or errors.
type stubAnalyzer struct {
	kind      domain.ResourceKind
	resources []domain.ResourceDescriptor
	err       error
	regions   []string
}

func (s *stubAnalyzer) GetResourceKind() domain.ResourceKind {
	return s.kind
}

func (s *stubAnalyzer) Discover(_ context.Context, region string, _ domain.InstanceFilter) ([]domain.ResourceDescriptor, error) {
	s.regions = append(s.regions, region)
	return s.resources, s.err
}

func TestNewInventory_ValidAnalyzers_ShouldListSupportedKinds(t *testing.T) {
	// Given
	a1 := &stubAnalyzer{kind: domain.KindComputeInstance}
	a2 := &stubAnalyzer{kind: domain.KindManagedDatabase}

	// When
	inv, err := NewInventory(a1, a2)

	// Then
	require.NoError(t, err)
	assert.Equal(t, []domain.ResourceKind{domain.KindComputeInstance, domain.KindManagedDatabase}, inv.SupportedKinds())
}

func TestNewInventory_DuplicateKind_ShouldError(t *testing.T) {
	_, err := NewInventory(
		&stubAnalyzer{kind: domain.KindComputeInstance},
		&stubAnalyzer{kind: domain.KindComputeInstance},
	)
	require.EqualError(t, err, "duplicate analyzer for resource kind: compute-instance")
}

func TestNewInventory_NoAnalyzers_ShouldError(t *testing.T) {
	_, err := NewInventory()
	require.EqualError(t, err, "at least one analyzer must be provided")
}

func TestInventory_ListResources(t *testing.T) {
	instance := domain.NewInstance("i-1", "t3.micro", "us-east-1", domain.InstanceAttributes{})

	tests := []struct {
		name    string
		kind    domain.ResourceKind
		err     error
		want    []domain.ResourceDescriptor
		wantErr string
	}{
		{
			name: "delegates to analyzer",
			kind: domain.KindComputeInstance,
			want: []domain.ResourceDescriptor{instance},
		},
		{
			name:    "unsupported kind",
			kind:    domain.KindPlatformService,
			wantErr: "unsupported resource kind: platform-service",
		},
		{
			name:    "analyzer error is wrapped",
			kind:    domain.KindComputeInstance,
			err:     errors.New("boom"),
			wantErr: "failed to discover ec2 in us-east-1: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &stubAnalyzer{kind: domain.KindComputeInstance, resources: []domain.ResourceDescriptor{instance}, err: tt.err}
			inv, err := NewInventory(a)
			require.NoError(t, err)

			got, err := inv.ListResources(context.Background(), "us-east-1", tt.kind, domain.InstanceFilter{})
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, []string{"us-east-1"}, a.regions)
		})
	}
}
