package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	"github.com/aws/aws-sdk-go-v2/service/pricing/types"
	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/de-tools/cost-guardian/pkg/services/cost"
	"github.com/shopspring/decimal"
)

var regionLocations = map[string]string{
	"us-east-1":      "US East (N. Virginia)",
	"us-east-2":      "US East (Ohio)",
	"us-west-1":      "US West (N. California)",
	"us-west-2":      "US West (Oregon)",
	"eu-west-1":      "EU (Ireland)",
	"eu-west-2":      "EU (London)",
	"eu-west-3":      "EU (Paris)",
	"eu-central-1":   "EU (Frankfurt)",
	"ap-northeast-1": "Asia Pacific (Tokyo)",
	"ap-southeast-1": "Asia Pacific (Singapore)",
	"ap-southeast-2": "Asia Pacific (Sydney)",
}

// Location maps a region code to its Price List location name. Unknown
// regions price as us-east-1.
func Location(region string) string {
	if loc, ok := regionLocations[region]; ok {
		return loc
	}
	return regionLocations[DefaultRegion]
}

var engineNames = map[string]string{
	"mysql":             "MySQL",
	"postgres":          "PostgreSQL",
	"mariadb":           "MariaDB",
	"aurora-mysql":      "Aurora MySQL",
	"aurora-postgresql": "Aurora PostgreSQL",
	"oracle-ee":         "Oracle",
	"oracle-se2":        "Oracle",
	"sqlserver-ee":      "SQL Server",
	"sqlserver-se":      "SQL Server",
	"sqlserver-ex":      "SQL Server",
	"sqlserver-web":     "SQL Server",
}

func databaseEngine(engine string) string {
	if name, ok := engineNames[strings.ToLower(engine)]; ok {
		return name
	}
	return engine
}

type PricingAPI interface {
	GetProducts(
		ctx context.Context,
		params *pricing.GetProductsInput,
		optFns ...func(*pricing.Options),
	) (*pricing.GetProductsOutput, error)
}

type priceList struct {
	client  PricingAPI
	timeout timeout
}

var _ cost.PriceSource = (*priceList)(nil)

// NewPriceSource looks prices up in the Price List API. The client must
// target us-east-1.
func NewPriceSource(client PricingAPI, callTimeout time.Duration) cost.PriceSource {
	return &priceList{client: client, timeout: timeout(callTimeout)}
}

func termMatch(field, value string) types.Filter {
	return types.Filter{
		Type:  types.FilterTypeTermMatch,
		Field: awssdk.String(field),
		Value: awssdk.String(value),
	}
}

func (p *priceList) Lookup(ctx context.Context, r domain.ResourceDescriptor) cost.LookupResult {
	var input *pricing.GetProductsInput
	switch r.Kind {
	case domain.KindComputeInstance:
		input = &pricing.GetProductsInput{
			ServiceCode: awssdk.String("AmazonEC2"),
			Filters: []types.Filter{
				termMatch("instanceType", r.Type),
				termMatch("location", Location(r.Region)),
				termMatch("operatingSystem", "Linux"),
				termMatch("tenancy", "Shared"),
				termMatch("preInstalledSw", "NA"),
				termMatch("capacitystatus", "Used"),
			},
		}
	case domain.KindManagedDatabase:
		input = &pricing.GetProductsInput{
			ServiceCode: awssdk.String("AmazonRDS"),
			Filters: []types.Filter{
				termMatch("instanceType", r.Type),
				termMatch("location", Location(r.Region)),
				termMatch("databaseEngine", databaseEngine(r.Engine())),
				termMatch("deploymentOption", "Single-AZ"),
			},
		}
	default:
		return cost.NotFound(fmt.Sprintf("no list price for %s", r.Kind))
	}
	input.MaxResults = awssdk.Int32(1)

	callCtx, cancel := p.timeout.bound(ctx)
	defer cancel()
	resp, err := p.client.GetProducts(callCtx, input)
	if err != nil {
		return cost.Failed(fmt.Sprintf("price list error for %s", r.Type), err)
	}
	if len(resp.PriceList) == 0 {
		return cost.NotFound(fmt.Sprintf("no product for %s", r.CacheKey()))
	}

	price, err := onDemandPrice(resp.PriceList[0])
	if err != nil {
		return cost.Failed(fmt.Sprintf("unreadable product for %s", r.CacheKey()), err)
	}
	if price == nil {
		return cost.NotFound(fmt.Sprintf("no on-demand USD price for %s", r.CacheKey()))
	}
	return cost.Found(*price)
}

type product struct {
	Terms struct {
		OnDemand map[string]struct {
			PriceDimensions map[string]struct {
				PricePerUnit map[string]string `json:"pricePerUnit"`
			} `json:"priceDimensions"`
		} `json:"OnDemand"`
	} `json:"terms"`
}

// onDemandPrice returns the first positive USD on-demand price of a Price
// List product document.
func onDemandPrice(doc string) (*decimal.Decimal, error) {
	var p product
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return nil, fmt.Errorf("failed to decode price list entry: %w", err)
	}
	for _, term := range p.Terms.OnDemand {
		for _, dim := range term.PriceDimensions {
			usd, ok := dim.PricePerUnit["USD"]
			if !ok {
				continue
			}
			price, err := decimal.NewFromString(usd)
			if err != nil {
				return nil, fmt.Errorf("invalid USD price %q: %w", usd, err)
			}
			if price.IsPositive() {
				return &price, nil
			}
		}
	}
	return nil, nil
}
