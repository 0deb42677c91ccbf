package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/de-tools/cost-guardian/pkg/services/cost"
	"github.com/de-tools/cost-guardian/pkg/services/cost/aws/analyzers"
)

// Services are the AWS-backed collaborators of the guardian.
type Services struct {
	Clients   *Clients
	Billing   cost.BillingSource
	Inventory cost.Inventory
	Prices    cost.PriceSource
	Metrics   cost.MetricsSource
	Logs      cost.LogQuerier
	Actuator  cost.Actuator
	Notifier  cost.Notifier
	Account   cost.AccountDescriber

	// Rule document stores.
	SSM *ssm.Client
	S3  *s3.Client
}

// ServicesFactory loads the SDK config for profile and builds every
// collaborator on it.
func ServicesFactory(ctx context.Context, profile string, callTimeout time.Duration) (*Services, error) {
	cfg, err := LoadConfig(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}
	return NewServices(NewClients(*cfg), callTimeout)
}

func NewServices(clients *Clients, callTimeout time.Duration) (*Services, error) {
	cfg := clients.Config()

	inventory, err := cost.NewInventory(
		analyzers.NewEC2Analyzer(func(region string) analyzers.EC2API { return clients.EC2(region) }),
		analyzers.NewRDSAnalyzer(func(region string) analyzers.RDSAPI { return clients.RDS(region) }),
		analyzers.NewLambdaAnalyzer(func(region string) analyzers.LambdaAPI { return clients.Lambda(region) }),
		analyzers.NewECSAnalyzer(func(region string) analyzers.ECSAPI { return clients.ECS(region) }),
		analyzers.NewAppRunnerAnalyzer(func(region string) analyzers.AppRunnerAPI { return clients.AppRunner(region) }),
	)
	if err != nil {
		return nil, err
	}

	return &Services{
		Clients:   clients,
		Billing:   NewBillingSource(costexplorer.NewFromConfig(cfg), callTimeout),
		Inventory: inventory,
		Prices: NewPriceSource(pricing.NewFromConfig(cfg, func(o *pricing.Options) {
			o.Region = PricingRegion
		}), callTimeout),
		Metrics:  NewMetricsSource(func(region string) CloudWatchAPI { return clients.CloudWatch(region) }, callTimeout),
		Logs:     NewInsightsQuerier(func(region string) LogsAPI { return clients.Logs(region) }, callTimeout),
		Actuator: NewActuator(ActuatorClientsFrom(clients), callTimeout),
		Notifier: NewNotifier(func(region string) SNSAPI { return clients.SNS(region) }, cfg.Region, callTimeout),
		Account: NewAccountDescriber(
			sts.NewFromConfig(cfg),
			iam.NewFromConfig(cfg),
			organizations.NewFromConfig(cfg),
			callTimeout,
		),
		SSM: ssm.NewFromConfig(cfg),
		S3:  s3.NewFromConfig(cfg),
	}, nil
}
