package notifier

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub/v2"
	pubsubpb "cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/pkg/errors"

	"local-dispatch/internal/domain"
	"local-dispatch/internal/logx"
)

// PubSubSink publishes notifications to a Google Pub/Sub topic.
type PubSubSink struct {
	publish func(ctx context.Context, msg *pubsub.Message) (string, error)
	close   func() error
	logger  logx.Logger
}

// NewPubSubSink connects to projectID and checks that topicID exists.
func NewPubSubSink(ctx context.Context, projectID, topicID string, logger logx.Logger) (*PubSubSink, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	topicPath := fmt.Sprintf("projects/%s/topics/%s", projectID, topicID)
	if _, err := client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: topicPath}); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "failed to get topic %s", topicID)
	}

	publisher := client.Publisher(topicID)
	logger.Info("pubsub sink initialized",
		logx.String("project_id", projectID),
		logx.String("topic_id", topicID),
	)

	return &PubSubSink{
		publish: func(ctx context.Context, msg *pubsub.Message) (string, error) {
			return publisher.Publish(ctx, msg).Get(ctx)
		},
		close: func() error {
			publisher.Stop()
			return errors.WithStack(client.Close())
		},
		logger: logger,
	}, nil
}

// Send publishes n and waits for the server id.
func (s *PubSubSink) Send(ctx context.Context, n domain.Notification) error {
	data, err := encode(n)
	if err != nil {
		return errors.WithStack(err)
	}
	serverID, err := s.publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attributes(n),
	})
	if err != nil {
		return errors.Wrapf(err, "pubsub publish %s", n.ID)
	}
	s.logger.Debug("notification published",
		logx.String("notification_id", n.ID),
		logx.String("server_id", serverID),
	)
	return nil
}

// Close stops the publisher and releases the client.
func (s *PubSubSink) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}
