package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog"
)

const DefaultS3Key = "cost-guardian/rules.json"

var ErrNoRuleSource = errors.New("no rule source configured: set COST_GUARDIAN_CONFIG, CONFIG_SSM_PARAMETER, CONFIG_S3_BUCKET or RULES_FILE")

// RuleSource names the places a rule document may live. The first
// configured one wins, in field order.
type RuleSource struct {
	Inline       string
	SSMParameter string
	S3Bucket     string
	S3Key        string
	File         string
}

func (s RuleSource) Configured() bool {
	return s.Inline != "" || s.SSMParameter != "" || s.S3Bucket != "" || s.File != ""
}

type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// RuleLoader fetches rule documents. Either store may be nil when the
// corresponding source is never configured.
type RuleLoader struct {
	ssm      SSMAPI
	s3       S3API
	timeout  time.Duration
	readFile func(string) ([]byte, error)
}

func NewRuleLoader(ssmClient SSMAPI, s3Client S3API, timeout time.Duration) *RuleLoader {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &RuleLoader{ssm: ssmClient, s3: s3Client, timeout: timeout, readFile: os.ReadFile}
}

// Fetch returns the raw document of the highest priority configured source
// and a description of where it came from.
func (l *RuleLoader) Fetch(ctx context.Context, src RuleSource) ([]byte, string, error) {
	logger := zerolog.Ctx(ctx)

	switch {
	case src.Inline != "":
		logger.Info().Msg("Loaded rules from COST_GUARDIAN_CONFIG")
		return []byte(src.Inline), "env:COST_GUARDIAN_CONFIG", nil

	case src.SSMParameter != "":
		data, err := l.fromSSM(ctx, src.SSMParameter)
		if err != nil {
			return nil, "", err
		}
		logger.Info().Str("parameter", src.SSMParameter).Msg("Loaded rules from SSM")
		return data, "ssm:" + src.SSMParameter, nil

	case src.S3Bucket != "":
		key := src.S3Key
		if key == "" {
			key = DefaultS3Key
		}
		data, err := l.fromS3(ctx, src.S3Bucket, key)
		if err != nil {
			return nil, "", err
		}
		origin := fmt.Sprintf("s3://%s/%s", src.S3Bucket, key)
		logger.Info().Str("object", origin).Msg("Loaded rules from S3")
		return data, origin, nil

	case src.File != "":
		data, err := l.readFile(src.File)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read rules file: %w", err)
		}
		logger.Info().Str("file", src.File).Msg("Loaded rules from file")
		return data, "file:" + src.File, nil
	}
	return nil, "", ErrNoRuleSource
}

// Load fetches and parses the rule document.
func (l *RuleLoader) Load(ctx context.Context, src RuleSource, defaultRegion string) (*RuleSet, error) {
	data, origin, err := l.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	set, err := ParseRules(data, defaultRegion)
	if err != nil {
		return nil, fmt.Errorf("invalid rules in %s: %w", origin, err)
	}
	return set, nil
}

func (l *RuleLoader) fromSSM(ctx context.Context, name string) ([]byte, error) {
	if l.ssm == nil {
		return nil, errors.New("SSM client is not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	out, err := l.ssm.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get SSM parameter %s: %w", name, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return nil, fmt.Errorf("SSM parameter %s has no value", name)
	}
	return []byte(aws.ToString(out.Parameter.Value)), nil
}

func (l *RuleLoader) fromS3(ctx context.Context, bucket, key string) ([]byte, error) {
	if l.s3 == nil {
		return nil, errors.New("S3 client is not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	out, err := l.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read s3://%s/%s: %w", bucket, key, err)
	}
	return data, nil
}
