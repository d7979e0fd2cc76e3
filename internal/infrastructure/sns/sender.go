package sns

import (
	"context"
	"errors"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/campusboard-api/internal/config"
)

// SMSSender sends SMS messages via AWS SNS.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type sender struct {
	client   *sns.Client
	senderID string
}

// NewSender builds an SNS-backed sender. SNS_REGION must be set explicitly;
// without it the SMS channel is considered unconfigured and main keeps the
// sender nil so issuance reports the missing channel instead of failing sends.
func NewSender(cfg *config.Config) (SMSSender, error) {
	if cfg.SNSRegion == "" {
		return nil, errors.New("SNS_REGION not set, SMS channel disabled")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.SNSRegion),
	)
	if err != nil {
		return nil, err
	}
	return &sender{client: sns.NewFromConfig(awsCfg), senderID: cfg.SNSSenderID}, nil
}

func (s *sender) SendSMS(ctx context.Context, to, message string) error {
	input := &sns.PublishInput{
		PhoneNumber: &to,
		Message:     &message,
	}
	if s.senderID != "" {
		input.MessageAttributes = map[string]types.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {
				DataType:    strPtr("String"),
				StringValue: &s.senderID,
			},
		}
	}
	_, err := s.client.Publish(ctx, input)
	return err
}

func strPtr(s string) *string { return &s }
