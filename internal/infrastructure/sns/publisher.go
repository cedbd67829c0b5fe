package sns

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/go-directory-api/internal/config"
)

// Account lifecycle event names published to the directory topic.
const (
	EventUserCreated = "user.created"
	EventUserDeleted = "user.deleted"
)

// EventPublisher broadcasts account lifecycle events. Delivery is
// fire-and-forget from the directory's perspective.
type EventPublisher interface {
	PublishAccountEvent(ctx context.Context, event, userID string) error
}

type publisher struct {
	client   *sns.Client
	topicARN string
}

func NewPublisher(cfg *config.Config) (EventPublisher, error) {
	if cfg.SNSTopicARN == "" {
		return nil, fmt.Errorf("SNS_TOPIC_ARN not configured")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.SNSRegion),
	)
	if err != nil {
		return nil, err
	}
	return &publisher{client: sns.NewFromConfig(awsCfg), topicARN: cfg.SNSTopicARN}, nil
}

func (p *publisher) PublishAccountEvent(ctx context.Context, event, userID string) error {
	payload, err := json.Marshal(map[string]string{
		"event":   event,
		"user_id": userID,
		"at":      time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(payload)),
	})
	return err
}
