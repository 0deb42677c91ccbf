package aws

import (
	"context"
	"fmt"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/de-tools/cost-guardian/pkg/services/cost"
	"github.com/rs/zerolog"
)

type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

type IAMAPI interface {
	ListAccountAliases(ctx context.Context, params *iam.ListAccountAliasesInput, optFns ...func(*iam.Options)) (*iam.ListAccountAliasesOutput, error)
}

type OrganizationsAPI interface {
	DescribeOrganization(
		ctx context.Context,
		params *organizations.DescribeOrganizationInput,
		optFns ...func(*organizations.Options),
	) (*organizations.DescribeOrganizationOutput, error)
}

type accountDescriber struct {
	sts     STSAPI
	iam     IAMAPI
	orgs    OrganizationsAPI
	timeout timeout
}

var _ cost.AccountDescriber = (*accountDescriber)(nil)

func NewAccountDescriber(stsClient STSAPI, iamClient IAMAPI, orgsClient OrganizationsAPI, callTimeout time.Duration) cost.AccountDescriber {
	return &accountDescriber{sts: stsClient, iam: iamClient, orgs: orgsClient, timeout: timeout(callTimeout)}
}

// DescribeAccount returns whatever identity details the caller may read.
// Only a failed caller-identity lookup is an error; alias and organization
// are optional.
func (a *accountDescriber) DescribeAccount(ctx context.Context) (domain.AccountInfo, error) {
	var info domain.AccountInfo
	logger := zerolog.Ctx(ctx)

	callCtx, cancel := a.timeout.bound(ctx)
	identity, err := a.sts.GetCallerIdentity(callCtx, &sts.GetCallerIdentityInput{})
	cancel()
	if err != nil {
		return info, fmt.Errorf("failed to get caller identity: %w", err)
	}
	info.AccountID = awssdk.ToString(identity.Account)

	callCtx, cancel = a.timeout.bound(ctx)
	aliases, err := a.iam.ListAccountAliases(callCtx, &iam.ListAccountAliasesInput{})
	cancel()
	if err != nil {
		logger.Debug().Err(err).Str("code", errorCode(err)).Msg("account alias unavailable")
	} else if len(aliases.AccountAliases) > 0 {
		info.Alias = aliases.AccountAliases[0]
	}

	callCtx, cancel = a.timeout.bound(ctx)
	org, err := a.orgs.DescribeOrganization(callCtx, &organizations.DescribeOrganizationInput{})
	cancel()
	switch {
	case err != nil && isCode(err, "AWSOrganizationsNotInUseException"):
	case err != nil:
		logger.Debug().Err(err).Str("code", errorCode(err)).Msg("organization unavailable")
	case org.Organization != nil:
		info.OrganizationID = awssdk.ToString(org.Organization.Id)
		info.ManagementAccountID = awssdk.ToString(org.Organization.MasterAccountId)
	}

	return info, nil
}
