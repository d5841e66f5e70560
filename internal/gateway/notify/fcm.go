package notifier

import (
	"context"
	"strings"

	"firebase.google.com/go/v4/messaging"
	"github.com/pkg/errors"

	"local-dispatch/internal/domain"
)

// TopicPrefix is prepended to the recipient id to form the FCM topic every
// device of that user subscribes to.
const TopicPrefix = "user-"

type messagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMSink pushes notifications through Firebase Cloud Messaging topics.
type FCMSink struct {
	client messagingClient
}

// NewFCMSink creates an FCMSink over a messaging client.
func NewFCMSink(client messagingClient) *FCMSink {
	return &FCMSink{client: client}
}

// Topic returns the FCM topic of a recipient.
func Topic(recipientID string) string {
	// topics allow [a-zA-Z0-9-_.~%]
	r := strings.NewReplacer(":", "_", "/", "_", " ", "_", "@", "_")
	return TopicPrefix + r.Replace(recipientID)
}

// Send publishes n to the recipient's topic.
func (s *FCMSink) Send(ctx context.Context, n domain.Notification) error {
	msg := &messaging.Message{
		Topic: Topic(n.RecipientID),
		Data:  attributes(n),
		Notification: &messaging.Notification{
			Title: "Pedido " + n.OrderID,
			Body:  n.Message,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
	}
	if _, err := s.client.Send(ctx, msg); err != nil {
		return errors.Wrapf(err, "fcm send to %s", n.RecipientID)
	}
	return nil
}
