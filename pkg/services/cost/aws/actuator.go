package aws

import (
	"context"
	"fmt"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/applicationautoscaling"
	scalingtypes "github.com/aws/aws-sdk-go-v2/service/applicationautoscaling/types"
	"github.com/aws/aws-sdk-go-v2/service/apprunner"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/de-tools/cost-guardian/pkg/services/cost"
	"github.com/rs/zerolog"
)

type EC2StopAPI interface {
	StopInstances(ctx context.Context, params *ec2.StopInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StopInstancesOutput, error)
}

type RDSStopAPI interface {
	StopDBInstance(ctx context.Context, params *rds.StopDBInstanceInput, optFns ...func(*rds.Options)) (*rds.StopDBInstanceOutput, error)
}

type LambdaConcurrencyAPI interface {
	GetFunctionConcurrency(
		ctx context.Context,
		params *lambda.GetFunctionConcurrencyInput,
		optFns ...func(*lambda.Options),
	) (*lambda.GetFunctionConcurrencyOutput, error)
	PutFunctionConcurrency(
		ctx context.Context,
		params *lambda.PutFunctionConcurrencyInput,
		optFns ...func(*lambda.Options),
	) (*lambda.PutFunctionConcurrencyOutput, error)
}

type ScalingAPI interface {
	RegisterScalableTarget(
		ctx context.Context,
		params *applicationautoscaling.RegisterScalableTargetInput,
		optFns ...func(*applicationautoscaling.Options),
	) (*applicationautoscaling.RegisterScalableTargetOutput, error)
}

type StepFunctionsAPI interface {
	StartExecution(ctx context.Context, params *sfn.StartExecutionInput, optFns ...func(*sfn.Options)) (*sfn.StartExecutionOutput, error)
}

type AppRunnerPauseAPI interface {
	PauseService(
		ctx context.Context,
		params *apprunner.PauseServiceInput,
		optFns ...func(*apprunner.Options),
	) (*apprunner.PauseServiceOutput, error)
}

type ECSUpdateAPI interface {
	UpdateService(ctx context.Context, params *ecs.UpdateServiceInput, optFns ...func(*ecs.Options)) (*ecs.UpdateServiceOutput, error)
}

// ActuatorClients resolve a regional client per service.
type ActuatorClients struct {
	EC2       func(region string) EC2StopAPI
	RDS       func(region string) RDSStopAPI
	Lambda    func(region string) LambdaConcurrencyAPI
	Scaling   func(region string) ScalingAPI
	SFN       func(region string) StepFunctionsAPI
	AppRunner func(region string) AppRunnerPauseAPI
	ECS       func(region string) ECSUpdateAPI
}

// ActuatorClientsFrom wires every actuator getter to c.
func ActuatorClientsFrom(c *Clients) ActuatorClients {
	return ActuatorClients{
		EC2:       func(region string) EC2StopAPI { return c.EC2(region) },
		RDS:       func(region string) RDSStopAPI { return c.RDS(region) },
		Lambda:    func(region string) LambdaConcurrencyAPI { return c.Lambda(region) },
		Scaling:   func(region string) ScalingAPI { return c.AutoScaling(region) },
		SFN:       func(region string) StepFunctionsAPI { return c.SFN(region) },
		AppRunner: func(region string) AppRunnerPauseAPI { return c.AppRunner(region) },
		ECS:       func(region string) ECSUpdateAPI { return c.ECS(region) },
	}
}

type actuator struct {
	clients ActuatorClients
	timeout timeout
}

var _ cost.Actuator = (*actuator)(nil)

func NewActuator(clients ActuatorClients, callTimeout time.Duration) cost.Actuator {
	return &actuator{clients: clients, timeout: timeout(callTimeout)}
}

func (a *actuator) StopInstances(ctx context.Context, region string, ids []string) error {
	ctx, cancel := a.timeout.bound(ctx)
	defer cancel()
	_, err := a.clients.EC2(region).StopInstances(ctx, &ec2.StopInstancesInput{InstanceIds: ids})
	if err != nil {
		logAPIError(ctx, "StopInstances", region, err)
		return fmt.Errorf("failed to stop instances %v: %w", ids, err)
	}
	return nil
}

func (a *actuator) StopDatabase(ctx context.Context, region, id string) error {
	ctx, cancel := a.timeout.bound(ctx)
	defer cancel()
	_, err := a.clients.RDS(region).StopDBInstance(ctx, &rds.StopDBInstanceInput{
		DBInstanceIdentifier: awssdk.String(id),
	})
	if err != nil {
		logAPIError(ctx, "StopDBInstance", region, err)
		return fmt.Errorf("failed to stop database %s: %w", id, err)
	}
	return nil
}

// GetFunctionConcurrency returns the reserved concurrency, or nil when none
// is set.
func (a *actuator) GetFunctionConcurrency(ctx context.Context, region, function string) (*int32, error) {
	ctx, cancel := a.timeout.bound(ctx)
	defer cancel()
	resp, err := a.clients.Lambda(region).GetFunctionConcurrency(ctx, &lambda.GetFunctionConcurrencyInput{
		FunctionName: awssdk.String(function),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get concurrency of %s: %w", function, err)
	}
	return resp.ReservedConcurrentExecutions, nil
}

func (a *actuator) PutFunctionConcurrency(ctx context.Context, region, function string, concurrency int32) error {
	ctx, cancel := a.timeout.bound(ctx)
	defer cancel()
	_, err := a.clients.Lambda(region).PutFunctionConcurrency(ctx, &lambda.PutFunctionConcurrencyInput{
		FunctionName:                 awssdk.String(function),
		ReservedConcurrentExecutions: awssdk.Int32(concurrency),
	})
	if err != nil {
		logAPIError(ctx, "PutFunctionConcurrency", region, err)
		return fmt.Errorf("failed to set concurrency of %s to %d: %w", function, concurrency, err)
	}
	return nil
}

func (a *actuator) RegisterScalableTarget(ctx context.Context, region string, target cost.ScalableTarget) error {
	ctx, cancel := a.timeout.bound(ctx)
	defer cancel()
	_, err := a.clients.Scaling(region).RegisterScalableTarget(ctx, &applicationautoscaling.RegisterScalableTargetInput{
		ServiceNamespace:  scalingtypes.ServiceNamespace(target.ServiceNamespace),
		ResourceId:        awssdk.String(target.ResourceID),
		ScalableDimension: scalingtypes.ScalableDimension(target.ScalableDimension),
		MinCapacity:       awssdk.Int32(target.MinCapacity),
		MaxCapacity:       awssdk.Int32(target.MaxCapacity),
	})
	if err != nil {
		logAPIError(ctx, "RegisterScalableTarget", region, err)
		return fmt.Errorf("failed to scale %s: %w", target.ResourceID, err)
	}
	return nil
}

func (a *actuator) StartExecution(ctx context.Context, region, stateMachineARN, input string) (string, error) {
	ctx, cancel := a.timeout.bound(ctx)
	defer cancel()
	resp, err := a.clients.SFN(region).StartExecution(ctx, &sfn.StartExecutionInput{
		StateMachineArn: awssdk.String(stateMachineARN),
		Input:           awssdk.String(input),
	})
	if err != nil {
		logAPIError(ctx, "StartExecution", region, err)
		return "", fmt.Errorf("failed to start %s: %w", stateMachineARN, err)
	}
	return awssdk.ToString(resp.ExecutionArn), nil
}

func (a *actuator) PauseService(ctx context.Context, region, serviceARN string) error {
	ctx, cancel := a.timeout.bound(ctx)
	defer cancel()
	_, err := a.clients.AppRunner(region).PauseService(ctx, &apprunner.PauseServiceInput{
		ServiceArn: awssdk.String(serviceARN),
	})
	if err != nil {
		logAPIError(ctx, "PauseService", region, err)
		return fmt.Errorf("failed to pause %s: %w", serviceARN, err)
	}
	return nil
}

func (a *actuator) ScaleService(ctx context.Context, region, cluster, service string, desired int32) error {
	ctx, cancel := a.timeout.bound(ctx)
	defer cancel()
	_, err := a.clients.ECS(region).UpdateService(ctx, &ecs.UpdateServiceInput{
		Cluster:      awssdk.String(cluster),
		Service:      awssdk.String(service),
		DesiredCount: awssdk.Int32(desired),
	})
	if err != nil {
		logAPIError(ctx, "UpdateService", region, err)
		return fmt.Errorf("failed to scale %s/%s to %d: %w", cluster, service, desired, err)
	}
	return nil
}

func logAPIError(ctx context.Context, operation, region string, err error) {
	zerolog.Ctx(ctx).Warn().
		Err(err).
		Str("operation", operation).
		Str("region", region).
		Str("code", errorCode(err)).
		Msg("AWS call failed")
}
