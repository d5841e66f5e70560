// Package notifier holds the notification sinks: Firebase Cloud Messaging,
// Google Pub/Sub, Kafka and a log-only sink.
package notifier

import (
	"encoding/json"

	"local-dispatch/internal/domain"
)

type payload struct {
	ID          string `json:"id"`
	RecipientID string `json:"recipient_id"`
	Message     string `json:"message"`
	Type        string `json:"type"`
	Channel     string `json:"channel"`
	OrderID     string `json:"order_id"`
}

func encode(n domain.Notification) ([]byte, error) {
	return json.Marshal(payload{
		ID:          n.ID,
		RecipientID: n.RecipientID,
		Message:     n.Message,
		Type:        string(n.Type),
		Channel:     string(n.Channel),
		OrderID:     n.OrderID,
	})
}

func attributes(n domain.Notification) map[string]string {
	return map[string]string{
		"notification_id": n.ID,
		"recipient_id":    n.RecipientID,
		"type":            string(n.Type),
		"channel":         string(n.Channel),
		"order_id":        n.OrderID,
	}
}
