package aws

import (
	"context"
	"fmt"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/arn"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/de-tools/cost-guardian/pkg/services/cost"
)

type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type notifier struct {
	client        func(region string) SNSAPI
	defaultRegion string
	timeout       timeout
}

var _ cost.Notifier = (*notifier)(nil)

// NewNotifier publishes to SNS topics, using the region encoded in each
// topic ARN.
func NewNotifier(client func(region string) SNSAPI, defaultRegion string, callTimeout time.Duration) cost.Notifier {
	return &notifier{client: client, defaultRegion: defaultRegion, timeout: timeout(callTimeout)}
}

func (n *notifier) Notify(ctx context.Context, topicARN, subject, body string) (string, error) {
	region := n.defaultRegion
	if parsed, err := arn.Parse(topicARN); err == nil && parsed.Region != "" {
		region = parsed.Region
	}

	ctx, cancel := n.timeout.bound(ctx)
	defer cancel()
	resp, err := n.client(region).Publish(ctx, &sns.PublishInput{
		TopicArn: awssdk.String(topicARN),
		Subject:  awssdk.String(subject),
		Message:  awssdk.String(body),
	})
	if err != nil {
		logAPIError(ctx, "Publish", region, err)
		return "", fmt.Errorf("failed to publish to %s: %w", topicARN, err)
	}
	return awssdk.ToString(resp.MessageId), nil
}
