// internal/push/exchange.go
package push

import (
	"context"
	"fmt"

	"kitchen-hub/internal/common/config"
	"kitchen-hub/internal/common/logger"
	"kitchen-hub/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// SNSService is the slice of the SNS client used for token exchange.
type SNSService interface {
	CreatePlatformEndpoint(ctx context.Context, params *sns.CreatePlatformEndpointInput, optFns ...func(*sns.Options)) (*sns.CreatePlatformEndpointOutput, error)
}

// SNSExchanger trades a raw OS device token for an SNS platform-endpoint
// ARN, the delivery-service token the backend targets pushes at.
type SNSExchanger struct {
	client SNSService
	appARN string
	logger logger.Logger
}

func NewSNSExchanger(ctx context.Context, cfg config.AWSConfig, platform models.Platform, log logger.Logger) (*SNSExchanger, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	appARN := cfg.PlatformAppARN
	if platform == models.PlatformIOS && cfg.PlatformAppARNiOS != "" {
		appARN = cfg.PlatformAppARNiOS
	}

	return &SNSExchanger{
		client: sns.NewFromConfig(awsCfg),
		appARN: appARN,
		logger: log.WithFields(map[string]interface{}{"component": "push.exchange"}),
	}, nil
}

// Exchange creates (or re-resolves, SNS endpoint creation is idempotent per
// token) the platform endpoint for deviceToken and returns its ARN.
func (e *SNSExchanger) Exchange(ctx context.Context, deviceToken string) (string, error) {
	out, err := e.client.CreatePlatformEndpoint(ctx, &sns.CreatePlatformEndpointInput{
		PlatformApplicationArn: aws.String(e.appARN),
		Token:                  aws.String(deviceToken),
	})
	if err != nil {
		return "", fmt.Errorf("create platform endpoint: %w", err)
	}
	if out.EndpointArn == nil || *out.EndpointArn == "" {
		return "", fmt.Errorf("create platform endpoint: empty endpoint ARN")
	}

	e.logger.Debug("device token exchanged", map[string]interface{}{
		"endpointArn": *out.EndpointArn,
	})
	return *out.EndpointArn, nil
}
