package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/dmitrijs2005/accountability/internal/common"
	"github.com/dmitrijs2005/accountability/internal/logging"
)

// Publisher is the part of the SNS client the sender needs.
type Publisher interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// newSNSClient is a seam for testing sns.NewFromConfig.
var newSNSClient = func(cfg aws.Config) Publisher {
	return sns.NewFromConfig(cfg)
}

// SNSSender sends transactional SMS through Amazon SNS.
type SNSSender struct {
	client Publisher
	logger logging.Logger
}

func NewSNSSender(cfg aws.Config, logger logging.Logger) *SNSSender {
	return NewSNSSenderWithClient(newSNSClient(cfg), logger)
}

func NewSNSSenderWithClient(client Publisher, logger logging.Logger) *SNSSender {
	return &SNSSender{client: client, logger: logger.With("module", "notify.sns")}
}

func (s *SNSSender) Send(ctx context.Context, to, body string) error {
	if to == "" {
		return fmt.Errorf("%w: empty phone number", common.ErrNotification)
	}

	out, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(body),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"AWS.SNS.SMS.SMSType": {
				DataType:    aws.String("String"),
				StringValue: aws.String("Transactional"),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: sns publish: %w", common.ErrNotification, err)
	}

	s.logger.Debug(ctx, "sms published", "message_id", aws.ToString(out.MessageId))
	return nil
}
