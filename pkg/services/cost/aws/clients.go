package aws

import (
	"sync"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/applicationautoscaling"
	"github.com/aws/aws-sdk-go-v2/service/apprunner"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// regional builds one client per region on first use.
type regional[T any] struct {
	mu      sync.Mutex
	clients map[string]T
	build   func(region string) T
}

func newRegional[T any](build func(region string) T) *regional[T] {
	return &regional[T]{clients: make(map[string]T), build: build}
}

func (r *regional[T]) get(region string) T {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.clients[region]; ok {
		return c
	}
	c := r.build(region)
	r.clients[region] = c
	return c
}

// Clients hands out regional service clients sharing one SDK config.
type Clients struct {
	cfg awssdk.Config

	ec2        *regional[*ec2.Client]
	rds        *regional[*rds.Client]
	lambda     *regional[*lambda.Client]
	ecs        *regional[*ecs.Client]
	apprunner  *regional[*apprunner.Client]
	cloudwatch *regional[*cloudwatch.Client]
	logs       *regional[*cloudwatchlogs.Client]
	scaling    *regional[*applicationautoscaling.Client]
	sfn        *regional[*sfn.Client]
	sns        *regional[*sns.Client]
}

func NewClients(cfg awssdk.Config) *Clients {
	return &Clients{
		cfg: cfg,
		ec2: newRegional(func(region string) *ec2.Client {
			return ec2.NewFromConfig(cfg, func(o *ec2.Options) { o.Region = region })
		}),
		rds: newRegional(func(region string) *rds.Client {
			return rds.NewFromConfig(cfg, func(o *rds.Options) { o.Region = region })
		}),
		lambda: newRegional(func(region string) *lambda.Client {
			return lambda.NewFromConfig(cfg, func(o *lambda.Options) { o.Region = region })
		}),
		ecs: newRegional(func(region string) *ecs.Client {
			return ecs.NewFromConfig(cfg, func(o *ecs.Options) { o.Region = region })
		}),
		apprunner: newRegional(func(region string) *apprunner.Client {
			return apprunner.NewFromConfig(cfg, func(o *apprunner.Options) { o.Region = region })
		}),
		cloudwatch: newRegional(func(region string) *cloudwatch.Client {
			return cloudwatch.NewFromConfig(cfg, func(o *cloudwatch.Options) { o.Region = region })
		}),
		logs: newRegional(func(region string) *cloudwatchlogs.Client {
			return cloudwatchlogs.NewFromConfig(cfg, func(o *cloudwatchlogs.Options) { o.Region = region })
		}),
		scaling: newRegional(func(region string) *applicationautoscaling.Client {
			return applicationautoscaling.NewFromConfig(cfg, func(o *applicationautoscaling.Options) { o.Region = region })
		}),
		sfn: newRegional(func(region string) *sfn.Client {
			return sfn.NewFromConfig(cfg, func(o *sfn.Options) { o.Region = region })
		}),
		sns: newRegional(func(region string) *sns.Client {
			return sns.NewFromConfig(cfg, func(o *sns.Options) { o.Region = region })
		}),
	}
}

func (c *Clients) Config() awssdk.Config { return c.cfg }

func (c *Clients) EC2(region string) *ec2.Client               { return c.ec2.get(region) }
func (c *Clients) RDS(region string) *rds.Client               { return c.rds.get(region) }
func (c *Clients) Lambda(region string) *lambda.Client         { return c.lambda.get(region) }
func (c *Clients) ECS(region string) *ecs.Client               { return c.ecs.get(region) }
func (c *Clients) AppRunner(region string) *apprunner.Client   { return c.apprunner.get(region) }
func (c *Clients) CloudWatch(region string) *cloudwatch.Client { return c.cloudwatch.get(region) }
func (c *Clients) Logs(region string) *cloudwatchlogs.Client   { return c.logs.get(region) }
func (c *Clients) SFN(region string) *sfn.Client               { return c.sfn.get(region) }
func (c *Clients) SNS(region string) *sns.Client               { return c.sns.get(region) }

func (c *Clients) AutoScaling(region string) *applicationautoscaling.Client {
	return c.scaling.get(region)
}
