package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"cloud.google.com/go/pubsub/v2"
	"firebase.google.com/go/v4/messaging"
	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/require"

	"local-dispatch/internal/domain"
	testlog "local-dispatch/internal/testutil"
)

var sample = domain.Notification{
	ID:          "ev1-0",
	RecipientID: "courier-7",
	Message:     "Tienes una nueva entrega",
	Type:        domain.NotifyNewDelivery,
	Channel:     domain.ChannelCourier,
	OrderID:     "o1",
}

type messagingStub struct {
	sendFn func(ctx context.Context, m *messaging.Message) (string, error)
}

func (s messagingStub) Send(ctx context.Context, m *messaging.Message) (string, error) {
	return s.sendFn(ctx, m)
}

func TestFCMSink_SendsToRecipientTopic(t *testing.T) {
	t.Parallel()

	var got *messaging.Message
	sink := NewFCMSink(messagingStub{sendFn: func(_ context.Context, m *messaging.Message) (string, error) {
		got = m
		return "projects/p/messages/1", nil
	}})

	require.NoError(t, sink.Send(context.Background(), sample))
	require.Equal(t, "user-courier-7", got.Topic)
	require.Equal(t, "Tienes una nueva entrega", got.Notification.Body)
	require.Equal(t, "new_delivery", got.Data["type"])
	require.Equal(t, "o1", got.Data["order_id"])
}

func TestFCMSink_WrapsError(t *testing.T) {
	t.Parallel()

	boom := errors.New("unavailable")
	sink := NewFCMSink(messagingStub{sendFn: func(context.Context, *messaging.Message) (string, error) {
		return "", boom
	}})

	err := sink.Send(context.Background(), sample)
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), "courier-7")
}

func TestTopic_SanitizesRecipient(t *testing.T) {
	t.Parallel()

	require.Equal(t, "user-admins", Topic(domain.AdminRecipient))
	require.Equal(t, "user-a_b_c", Topic("a:b/c"))
}

func TestPubSubSink_Send(t *testing.T) {
	t.Parallel()

	var got *pubsub.Message
	sink := &PubSubSink{
		publish: func(_ context.Context, msg *pubsub.Message) (string, error) {
			got = msg
			return "server-1", nil
		},
		logger: testlog.New().Logger(),
	}

	require.NoError(t, sink.Send(context.Background(), sample))
	require.Equal(t, "courier-7", got.Attributes["recipient_id"])

	var body payload
	require.NoError(t, json.Unmarshal(got.Data, &body))
	require.Equal(t, "ev1-0", body.ID)
	require.Equal(t, "courier", body.Channel)
	require.NoError(t, sink.Close())
}

func TestPubSubSink_PublishError(t *testing.T) {
	t.Parallel()

	boom := errors.New("topic deleted")
	sink := &PubSubSink{
		publish: func(context.Context, *pubsub.Message) (string, error) { return "", boom },
		logger:  testlog.New().Logger(),
	}

	require.ErrorIs(t, sink.Send(context.Background(), sample), boom)
}

func TestKafkaSink_Send(t *testing.T) {
	t.Parallel()

	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var body payload
		if err := json.Unmarshal(val, &body); err != nil {
			return err
		}
		if body.RecipientID != "courier-7" {
			return errors.New("unexpected recipient " + body.RecipientID)
		}
		return nil
	})
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	sink := NewKafkaSinkWithProducer(producer, "notifications")
	require.NoError(t, sink.Send(context.Background(), sample))
	require.ErrorIs(t, sink.Send(context.Background(), sample), sarama.ErrOutOfBrokers)
	require.NoError(t, sink.Close())
}

func TestKafkaSink_CancelledContext(t *testing.T) {
	t.Parallel()

	producer := mocks.NewSyncProducer(t, nil)
	sink := NewKafkaSinkWithProducer(producer, "notifications")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, sink.Send(ctx, sample), context.Canceled)
	require.NoError(t, sink.Close())
}

func TestLogSink_Send(t *testing.T) {
	t.Parallel()

	rec := testlog.New()
	require.NoError(t, NewLogSink(rec.Logger()).Send(context.Background(), sample))

	entry, ok := rec.Find("notification")
	require.True(t, ok)
	recipient, _ := entry.Field("recipient_id")
	require.Equal(t, "courier-7", recipient)
}
