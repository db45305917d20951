// Package ses delivers rendered emails through AWS SES v2.
package ses

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	appconfig "github.com/microlearning/site-api/internal/config"
	"github.com/microlearning/site-api/internal/domain"
	"github.com/microlearning/site-api/internal/pkg/logger"
	"github.com/microlearning/site-api/internal/service/sending"
)

// Provider is the name reported in send results.
const Provider = "ses"

// SendAPI is the subset of the SES v2 client used here.
type SendAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Client is an AWS SES v2 transport.
type Client struct {
	api              SendAPI
	configurationSet string
}

var _ sending.Transport = (*Client)(nil)

// NewClient creates an SES client. Static keys are used when both are set;
// otherwise the default AWS credential chain applies.
func NewClient(ctx context.Context, cfg appconfig.SESConfig) (*Client, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return NewClientWithAPI(sesv2.NewFromConfig(awsCfg), cfg.ConfigurationSet), nil
}

// NewClientWithAPI wraps an existing SES API implementation.
func NewClientWithAPI(api SendAPI, configurationSet string) *Client {
	return &Client{api: api, configurationSet: configurationSet}
}

// Deliver sends one message with SendEmail.
func (c *Client) Deliver(ctx context.Context, msg *domain.EmailMessage) (*domain.SendResult, error) {
	from := msg.FromEmail
	if msg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", msg.FromName, msg.FromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(msg.HTMLContent), Charset: aws.String("UTF-8")},
				},
			},
		},
	}

	if msg.TextContent != "" {
		input.Content.Simple.Body.Text = &types.Content{Data: aws.String(msg.TextContent), Charset: aws.String("UTF-8")}
	}
	if msg.ReplyTo != "" {
		input.ReplyToAddresses = []string{msg.ReplyTo}
	}
	if c.configurationSet != "" {
		input.ConfigurationSetName = aws.String(c.configurationSet)
	}
	for name, value := range msg.Tags {
		input.EmailTags = append(input.EmailTags, types.MessageTag{Name: aws.String(name), Value: aws.String(value)})
	}

	result, err := c.api.SendEmail(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("ses send to %s: %w", logger.RedactEmail(msg.To), err)
	}

	return &domain.SendResult{
		MessageID: aws.ToString(result.MessageId),
		Provider:  Provider,
		SentAt:    time.Now(),
	}, nil
}
