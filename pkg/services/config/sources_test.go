package config

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSSM struct{ mock.Mock }

func (m *mockSSM) GetParameter(ctx context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*ssm.GetParameterOutput)
	return out, args.Error(1)
}

type mockS3 struct{ mock.Mock }

func (m *mockS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.GetObjectOutput)
	return out, args.Error(1)
}

const minimalDocument = `{"rules": [{"rule_id": "r1", "metric_namespace": "AWS/Lambda", "metric_name": "Invocations",
  "lookback_seconds": 60, "projection_seconds": 3600, "unit_cost": 0.0000002, "threshold": 1,
  "remediation_action": "throttle_lambda", "remediation_params": {"function_name": "api"}}]}`

func TestRuleLoader_Priority(t *testing.T) {
	ctx := context.Background()

	t.Run("inline wins over every store", func(t *testing.T) {
		ssmClient, s3Client := new(mockSSM), new(mockS3)
		loader := NewRuleLoader(ssmClient, s3Client, time.Second)

		set, err := loader.Load(ctx, RuleSource{
			Inline:       minimalDocument,
			SSMParameter: "/rules",
			S3Bucket:     "bucket",
		}, "us-east-1")

		require.NoError(t, err)
		require.Len(t, set.Rules, 1)
		ssmClient.AssertNotCalled(t, "GetParameter", mock.Anything, mock.Anything)
		s3Client.AssertNotCalled(t, "GetObject", mock.Anything, mock.Anything)
	})

	t.Run("ssm parameter is decrypted", func(t *testing.T) {
		ssmClient, s3Client := new(mockSSM), new(mockS3)
		ssmClient.On("GetParameter", mock.Anything, mock.MatchedBy(func(in *ssm.GetParameterInput) bool {
			return aws.ToString(in.Name) == "/rules" && aws.ToBool(in.WithDecryption)
		})).Return(&ssm.GetParameterOutput{
			Parameter: &ssmtypes.Parameter{Value: aws.String(minimalDocument)},
		}, nil)

		loader := NewRuleLoader(ssmClient, s3Client, time.Second)
		data, origin, err := loader.Fetch(ctx, RuleSource{SSMParameter: "/rules", S3Bucket: "bucket"})

		require.NoError(t, err)
		assert.Equal(t, minimalDocument, string(data))
		assert.Equal(t, "ssm:/rules", origin)
		s3Client.AssertNotCalled(t, "GetObject", mock.Anything, mock.Anything)
	})

	t.Run("s3 uses the default key", func(t *testing.T) {
		s3Client := new(mockS3)
		s3Client.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
			return aws.ToString(in.Bucket) == "bucket" && aws.ToString(in.Key) == DefaultS3Key
		})).Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(minimalDocument))}, nil)

		loader := NewRuleLoader(nil, s3Client, time.Second)
		_, origin, err := loader.Fetch(ctx, RuleSource{S3Bucket: "bucket"})

		require.NoError(t, err)
		assert.Equal(t, "s3://bucket/"+DefaultS3Key, origin)
	})

	t.Run("file is the last resort", func(t *testing.T) {
		loader := NewRuleLoader(nil, nil, time.Second)
		loader.readFile = func(path string) ([]byte, error) {
			assert.Equal(t, "rules.yaml", path)
			return []byte(minimalDocument), nil
		}

		set, err := loader.Load(ctx, RuleSource{File: "rules.yaml"}, "us-east-1")
		require.NoError(t, err)
		assert.Equal(t, "r1", set.Rules[0].ID)
	})

	t.Run("nothing configured", func(t *testing.T) {
		loader := NewRuleLoader(nil, nil, time.Second)
		_, err := loader.Load(ctx, RuleSource{}, "us-east-1")
		assert.ErrorIs(t, err, ErrNoRuleSource)
	})
}

func TestRuleLoader_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("store failure", func(t *testing.T) {
		ssmClient := new(mockSSM)
		ssmClient.On("GetParameter", mock.Anything, mock.Anything).Return(nil, errors.New("AccessDenied"))

		loader := NewRuleLoader(ssmClient, nil, time.Second)
		_, err := loader.Load(ctx, RuleSource{SSMParameter: "/rules"}, "us-east-1")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "AccessDenied")
	})

	t.Run("missing client", func(t *testing.T) {
		loader := NewRuleLoader(nil, nil, time.Second)
		_, _, err := loader.Fetch(ctx, RuleSource{S3Bucket: "bucket"})
		require.Error(t, err)
	})

	t.Run("invalid document names its origin", func(t *testing.T) {
		loader := NewRuleLoader(nil, nil, time.Second)
		_, err := loader.Load(ctx, RuleSource{Inline: `{"rules": [{"rule_id": "x"}]}`}, "us-east-1")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "env:COST_GUARDIAN_CONFIG")
		var verr *ValidationError
		assert.True(t, errors.As(err, &verr))
	})
}
