package sqs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	envConfig "github.com/BarkinBalci/ga4-warehouse-loader/internal/config"
	"github.com/BarkinBalci/ga4-warehouse-loader/internal/pipeline"
)

// Run statuses carried in the Status message attribute
const (
	StatusSucceeded = "succeeded"
	StatusPartial   = "partial"
)

// SendMessageAPI is the part of the SQS client the notifier uses
type SendMessageAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Notifier publishes run summaries to an SQS queue
type Notifier struct {
	client SendMessageAPI
	config envConfig.Notify
	log    *zap.Logger
}

// NewNotifier creates a new SQS notifier
func NewNotifier(ctx context.Context, notifyConfig envConfig.Notify, log *zap.Logger) (*Notifier, error) {
	configOpts := []func(*config.LoadOptions) error{
		config.WithRegion(notifyConfig.Region),
	}

	var clientOpts []func(*sqs.Options)

	// Configure for local development with ElasticMQ
	if notifyConfig.Endpoint != "" {
		log.Info("Configuring SQS for local development",
			zap.String("endpoint", notifyConfig.Endpoint))
		configOpts = append(configOpts,
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("dummy", "dummy", "")))

		clientOpts = append(clientOpts, func(o *sqs.Options) {
			o.BaseEndpoint = aws.String(notifyConfig.Endpoint)
		})
	}

	cfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info("SQS notifier created",
		zap.String("region", notifyConfig.Region),
		zap.String("queue_url", notifyConfig.QueueURL))

	return NewNotifierWithClient(sqs.NewFromConfig(cfg, clientOpts...), notifyConfig, log), nil
}

// NewNotifierWithClient wraps an existing client
func NewNotifierWithClient(client SendMessageAPI, notifyConfig envConfig.Notify, log *zap.Logger) *Notifier {
	return &Notifier{client: client, config: notifyConfig, log: log}
}

type partitionMessage struct {
	Partition string `json:"partition"`
	Table     string `json:"table"`
	Created   bool   `json:"created"`
	Inserted  int    `json:"inserted"`
	Error     string `json:"error,omitempty"`
}

type runMessage struct {
	RunID           string             `json:"run_id"`
	Mode            string             `json:"mode"`
	Status          string             `json:"status"`
	WindowStart     string             `json:"window_start"`
	WindowEnd       string             `json:"window_end"`
	Fetched         int                `json:"fetched"`
	Exported        int                `json:"exported"`
	Skipped         int                `json:"skipped"`
	ArchiveLocation string             `json:"archive_location,omitempty"`
	Partitions      []partitionMessage `json:"partitions"`
}

func newRunMessage(summary *pipeline.Summary) runMessage {
	msg := runMessage{
		RunID:           summary.RunID,
		Mode:            string(summary.Mode),
		Status:          StatusSucceeded,
		WindowStart:     summary.Window.Start,
		WindowEnd:       summary.Window.End,
		Fetched:         summary.Fetched,
		Exported:        summary.Exported,
		Skipped:         summary.Skipped,
		ArchiveLocation: summary.ArchiveLocation,
		Partitions:      make([]partitionMessage, 0, len(summary.Partitions)),
	}

	for _, p := range summary.Partitions {
		pm := partitionMessage{
			Partition: p.Partition.String(),
			Table:     p.Table,
			Created:   p.Created,
			Inserted:  p.Inserted,
		}
		if p.Err != nil {
			pm.Error = p.Err.Error()
			msg.Status = StatusPartial
		}
		msg.Partitions = append(msg.Partitions, pm)
	}

	return msg
}

// Notify implements pipeline.Notifier
func (n *Notifier) Notify(ctx context.Context, summary *pipeline.Summary) error {
	msg := newRunMessage(summary)

	bodyJSON, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	_, err = n.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(n.config.QueueURL),
		MessageBody: aws.String(string(bodyJSON)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"Mode": {
				DataType:    aws.String("String"),
				StringValue: aws.String(msg.Mode),
			},
			"Status": {
				DataType:    aws.String("String"),
				StringValue: aws.String(msg.Status),
			},
		},
	})
	if err != nil {
		n.log.Error("Failed to send run summary to SQS",
			zap.String("run_id", msg.RunID),
			zap.Error(err))
		return fmt.Errorf("failed to send message to SQS: %w", err)
	}

	n.log.Info("Run summary published to SQS",
		zap.String("run_id", msg.RunID),
		zap.String("status", msg.Status))

	return nil
}
