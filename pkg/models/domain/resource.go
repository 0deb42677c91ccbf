package domain

import (
	"fmt"
	"strings"
	"time"
)

// ResourceKind identifies the billing shape of a discovered resource.
type ResourceKind string

const (
	KindComputeInstance    ResourceKind = "compute-instance"
	KindManagedDatabase    ResourceKind = "managed-database"
	KindServerlessFunction ResourceKind = "serverless-function"
	KindContainerService   ResourceKind = "container-service"
	KindPlatformService    ResourceKind = "platform-service"
)

// ResourceKinds lists every kind in discovery order.
var ResourceKinds = []ResourceKind{
	KindComputeInstance,
	KindManagedDatabase,
	KindServerlessFunction,
	KindContainerService,
	KindPlatformService,
}

func (k ResourceKind) Valid() bool {
	for _, known := range ResourceKinds {
		if k == known {
			return true
		}
	}
	return false
}

// ShortName returns the label used in reports and metrics ("ec2", "rds", ...).
func (k ResourceKind) ShortName() string {
	switch k {
	case KindComputeInstance:
		return "ec2"
	case KindManagedDatabase:
		return "rds"
	case KindServerlessFunction:
		return "lambda"
	case KindContainerService:
		return "ecs"
	case KindPlatformService:
		return "apprunner"
	default:
		return string(k)
	}
}

// ResourceDescriptor references a single billable unit. Attributes holds the
// kind-specific typed attribute set; use the accessor matching Kind.
type ResourceDescriptor struct {
	Kind       ResourceKind `json:"kind"`
	ID         string       `json:"id"`
	Name       string       `json:"name,omitempty"`
	Type       string       `json:"type,omitempty"`
	Region     string       `json:"region"`
	Attributes Attributes   `json:"attributes"`
}

// Attributes is a closed union; only one field is set, matching the
// descriptor kind.
type Attributes struct {
	Instance  *InstanceAttributes  `json:"instance,omitempty"`
	Database  *DatabaseAttributes  `json:"database,omitempty"`
	Function  *FunctionAttributes  `json:"function,omitempty"`
	Container *ContainerAttributes `json:"container,omitempty"`
	Platform  *PlatformAttributes  `json:"platform,omitempty"`
}

type InstanceAttributes struct {
	LaunchTime time.Time         `json:"launch_time"`
	Tags       map[string]string `json:"tags,omitempty"`
}

type DatabaseAttributes struct {
	Engine string `json:"engine"`
}

type FunctionAttributes struct {
	MemoryMB int32 `json:"memory_mb"`
}

type ContainerAttributes struct {
	Cluster        string `json:"cluster"`
	ServiceARN     string `json:"service_arn"`
	TaskDefinition string `json:"task_definition"`
	RunningCount   int32  `json:"running_count"`
	CPUUnits       int32  `json:"cpu_units"`
	MemoryMB       int32  `json:"memory_mb"`
}

type PlatformAttributes struct {
	ServiceARN string `json:"service_arn"`
	CPUUnits   int32  `json:"cpu_units"`
	MemoryMB   int32  `json:"memory_mb"`
}

func NewInstance(id, instanceType, region string, attrs InstanceAttributes) ResourceDescriptor {
	return ResourceDescriptor{
		Kind:       KindComputeInstance,
		ID:         id,
		Name:       id,
		Type:       instanceType,
		Region:     region,
		Attributes: Attributes{Instance: &attrs},
	}
}

func NewDatabase(id, instanceClass, engine, region string) ResourceDescriptor {
	return ResourceDescriptor{
		Kind:       KindManagedDatabase,
		ID:         id,
		Name:       id,
		Type:       instanceClass,
		Region:     region,
		Attributes: Attributes{Database: &DatabaseAttributes{Engine: engine}},
	}
}

func NewFunction(name, region string, memoryMB int32) ResourceDescriptor {
	return ResourceDescriptor{
		Kind:       KindServerlessFunction,
		ID:         name,
		Name:       name,
		Region:     region,
		Attributes: Attributes{Function: &FunctionAttributes{MemoryMB: memoryMB}},
	}
}

func NewContainerService(name, region string, attrs ContainerAttributes) ResourceDescriptor {
	return ResourceDescriptor{
		Kind:       KindContainerService,
		ID:         attrs.ServiceARN,
		Name:       name,
		Type:       attrs.TaskDefinition,
		Region:     region,
		Attributes: Attributes{Container: &attrs},
	}
}

func NewPlatformService(name, region string, attrs PlatformAttributes) ResourceDescriptor {
	return ResourceDescriptor{
		Kind:       KindPlatformService,
		ID:         attrs.ServiceARN,
		Name:       name,
		Region:     region,
		Attributes: Attributes{Platform: &attrs},
	}
}

// Engine returns the database engine, or "" for non-database kinds.
func (r ResourceDescriptor) Engine() string {
	if r.Attributes.Database == nil {
		return ""
	}
	return r.Attributes.Database.Engine
}

// MemoryMB returns the configured memory for functions and services.
// Functions without an explicit size default to 128 MB.
func (r ResourceDescriptor) MemoryMB() int32 {
	switch {
	case r.Attributes.Function != nil:
		if r.Attributes.Function.MemoryMB <= 0 {
			return 128
		}
		return r.Attributes.Function.MemoryMB
	case r.Attributes.Platform != nil:
		return r.Attributes.Platform.MemoryMB
	case r.Attributes.Container != nil:
		return r.Attributes.Container.MemoryMB
	default:
		return 0
	}
}

// CacheKey is the canonical price-cache key: kind, type and region, plus the
// engine for databases.
func (r ResourceDescriptor) CacheKey() string {
	parts := []string{string(r.Kind), r.Type, r.Region}
	if engine := r.Engine(); engine != "" {
		parts = append(parts, strings.ToLower(engine))
	}
	return strings.Join(parts, "|")
}

func (r ResourceDescriptor) String() string {
	if r.Type != "" {
		return fmt.Sprintf("%s %s (%s) in %s", r.Kind.ShortName(), r.ID, r.Type, r.Region)
	}
	return fmt.Sprintf("%s %s in %s", r.Kind.ShortName(), r.ID, r.Region)
}

// ResourceSet groups discovered resources by kind.
type ResourceSet map[ResourceKind][]ResourceDescriptor

func NewResourceSet() ResourceSet {
	set := make(ResourceSet, len(ResourceKinds))
	for _, kind := range ResourceKinds {
		set[kind] = []ResourceDescriptor{}
	}
	return set
}

func (s ResourceSet) Count(kind ResourceKind) int {
	return len(s[kind])
}

func (s ResourceSet) Total() int {
	total := 0
	for _, resources := range s {
		total += len(resources)
	}
	return total
}

// InstanceFilter narrows hourly-rule discovery.
type InstanceFilter struct {
	EC2Filters []TagFilter `json:"ec2_filters,omitempty" yaml:"ec2_filters,omitempty"`
	RDSEngines []string    `json:"rds_engines,omitempty" yaml:"rds_engines,omitempty"`
}

// TagFilter mirrors an EC2 DescribeInstances filter.
type TagFilter struct {
	Name   string   `json:"Name" yaml:"Name"`
	Values []string `json:"Values" yaml:"Values"`
}

// MatchesEngine reports whether engine passes the RDS engine filter; an empty
// filter matches everything.
func (f InstanceFilter) MatchesEngine(engine string) bool {
	if len(f.RDSEngines) == 0 {
		return true
	}
	for _, e := range f.RDSEngines {
		if strings.EqualFold(e, engine) {
			return true
		}
	}
	return false
}
