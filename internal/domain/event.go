package domain

import "time"

// EventKind classifies an order event.
type EventKind string

// List of possible event kinds
const (
	EventTransition     EventKind = "transition"
	EventDispatched     EventKind = "dispatched"
	EventDispatchFailed EventKind = "dispatch_failed"
)

// OrderEvent is published after an order change is committed.
type OrderEvent struct {
	ID          string
	Kind        EventKind
	OrderID     string
	From        OrderStatus
	To          OrderStatus
	Actor       Actor
	CourierID   string
	CustomerID  string
	BusinessIDs []string
	At          time.Time
}

// Channel is the audience of a notification.
type Channel string

// List of possible channels
const (
	ChannelCustomer Channel = "customer"
	ChannelCourier  Channel = "courier"
	ChannelBusiness Channel = "business"
	ChannelAdmin    Channel = "admin"
)

// AdminRecipient is the shared inbox of platform admins.
const AdminRecipient = "admins"

// NotificationType is the machine-readable kind of a notification.
type NotificationType string

// List of possible notification types
const (
	NotifyStatusChanged   NotificationType = "order_status_changed"
	NotifyNewDelivery     NotificationType = "new_delivery"
	NotifyOnTheWay        NotificationType = "order_on_the_way"
	NotifyNeedsRedispatch NotificationType = "order_needs_redispatch"
	NotifyDelivered       NotificationType = "order_delivered"
	NotifyNoCourier       NotificationType = "no_courier_available"
	NotifyCancelled       NotificationType = "order_cancelled"
)

// Notification is one message for one recipient.
type Notification struct {
	ID          string
	RecipientID string
	Message     string
	Type        NotificationType
	Channel     Channel
	OrderID     string
}

// OrderChange is the store-level change record pushed to change-feed subscribers.
type OrderChange struct {
	OrderID   string      `json:"order_id"`
	From      OrderStatus `json:"from"`
	To        OrderStatus `json:"to"`
	CourierID string      `json:"courier_id,omitempty"`
	Version   int64       `json:"version"`
}
