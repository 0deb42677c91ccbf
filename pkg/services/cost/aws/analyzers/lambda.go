package analyzers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/de-tools/cost-guardian/pkg/services/cost"
)

type LambdaAPI interface {
	ListFunctions(ctx context.Context, params *lambda.ListFunctionsInput, optFns ...func(*lambda.Options)) (*lambda.ListFunctionsOutput, error)
}

type lambdaAnalyzer struct {
	client func(region string) LambdaAPI
}

var _ cost.Analyzer = (*lambdaAnalyzer)(nil)

func NewLambdaAnalyzer(client func(region string) LambdaAPI) cost.Analyzer {
	return &lambdaAnalyzer{client: client}
}

func (a *lambdaAnalyzer) GetResourceKind() domain.ResourceKind {
	return domain.KindServerlessFunction
}

func (a *lambdaAnalyzer) Discover(ctx context.Context, region string, _ domain.InstanceFilter) ([]domain.ResourceDescriptor, error) {
	var functions []domain.ResourceDescriptor
	paginator := lambda.NewListFunctionsPaginator(a.client(region), &lambda.ListFunctionsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list Lambda functions: %w", err)
		}
		for _, fn := range page.Functions {
			name := aws.ToString(fn.FunctionName)
			if name == "" {
				continue
			}
			functions = append(functions, domain.NewFunction(name, region, aws.ToInt32(fn.MemorySize)))
		}
	}
	return functions, nil
}
