// Package notify turns committed order events into notifications and delivers them.
package notify

import (
	"fmt"

	"local-dispatch/internal/domain"
)

var statusMessages = map[domain.OrderStatus]string{
	domain.OrderPending:        "Recibimos tu pedido",
	domain.OrderPreparing:      "Tu pedido se está preparando",
	domain.OrderReadyForPickup: "Tu pedido está listo y espera a un repartidor",
	domain.OrderPickedUp:       "Un repartidor recogió tu pedido",
	domain.OrderOnTheWay:       "Tu pedido está en camino",
	domain.OrderDelivered:      "Tu pedido ha sido entregado",
	domain.OrderCancelled:      "Tu pedido fue cancelado",
}

// Messages shown to couriers, customers and businesses.
const (
	MsgNewDelivery        = "Tienes una nueva entrega"
	MsgOnTheWay           = "Tu pedido está en camino"
	MsgCourierCancelled   = "Tu repartidor canceló la entrega, el pedido necesita ser reasignado"
	MsgNeedsRedispatchFmt = "El pedido %s necesita ser reasignado"
	MsgDeliveredFmt       = "El pedido %s fue entregado"
	MsgNoCourierFmt       = "No hay repartidores disponibles para el pedido %s"
	MsgCancelledFmt       = "El pedido %s fue cancelado"
	MsgDeliveryDroppedFmt = "La entrega del pedido %s fue cancelada"
)

// StatusMessage returns the customer-facing text for status.
func StatusMessage(status domain.OrderStatus) string {
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	return fmt.Sprintf("Tu pedido cambió a %s", status)
}

// Plan lists the notifications an event produces. It is pure: the same event
// always yields the same notifications with the same ids.
func Plan(ev domain.OrderEvent) []domain.Notification {
	p := planner{ev: ev, seen: make(map[[2]string]struct{})}

	switch ev.Kind {
	case domain.EventDispatched:
		p.add(ev.CourierID, domain.ChannelCourier, domain.NotifyNewDelivery, MsgNewDelivery)
		p.add(ev.CustomerID, domain.ChannelCustomer, domain.NotifyOnTheWay, MsgOnTheWay)

	case domain.EventDispatchFailed:
		for _, b := range ev.BusinessIDs {
			p.add(b, domain.ChannelBusiness, domain.NotifyNoCourier, fmt.Sprintf(MsgNoCourierFmt, ev.OrderID))
		}

	case domain.EventTransition:
		switch {
		case ev.To == domain.OrderCancelled && ev.Actor.Role == domain.RoleDeliveryPerson:
			p.add(ev.CustomerID, domain.ChannelCustomer, domain.NotifyNeedsRedispatch, MsgCourierCancelled)
			msg := fmt.Sprintf(MsgNeedsRedispatchFmt, ev.OrderID)
			for _, b := range ev.BusinessIDs {
				p.add(b, domain.ChannelBusiness, domain.NotifyNeedsRedispatch, msg)
			}
			p.add(domain.AdminRecipient, domain.ChannelAdmin, domain.NotifyNeedsRedispatch, msg)

		case ev.To == domain.OrderCancelled:
			p.add(ev.CustomerID, domain.ChannelCustomer, domain.NotifyCancelled, StatusMessage(ev.To))
			msg := fmt.Sprintf(MsgCancelledFmt, ev.OrderID)
			for _, b := range ev.BusinessIDs {
				p.add(b, domain.ChannelBusiness, domain.NotifyCancelled, msg)
			}
			// the courier who lost the job, unless they cancelled it themselves
			if ev.CourierID != "" && ev.Actor.UserID != ev.CourierID {
				p.add(ev.CourierID, domain.ChannelCourier, domain.NotifyCancelled, fmt.Sprintf(MsgDeliveryDroppedFmt, ev.OrderID))
			}

		case ev.To == domain.OrderDelivered:
			p.add(ev.CustomerID, domain.ChannelCustomer, domain.NotifyDelivered, StatusMessage(ev.To))
			msg := fmt.Sprintf(MsgDeliveredFmt, ev.OrderID)
			for _, b := range ev.BusinessIDs {
				p.add(b, domain.ChannelBusiness, domain.NotifyDelivered, msg)
			}

		default:
			typ := domain.NotifyStatusChanged
			if ev.To == domain.OrderOnTheWay {
				typ = domain.NotifyOnTheWay
			}
			p.add(ev.CustomerID, domain.ChannelCustomer, typ, StatusMessage(ev.To))
		}
	}
	return p.out
}

type planner struct {
	ev   domain.OrderEvent
	seen map[[2]string]struct{}
	out  []domain.Notification
}

func (p *planner) add(recipient string, ch domain.Channel, typ domain.NotificationType, msg string) {
	if recipient == "" {
		return
	}
	key := [2]string{recipient, msg}
	if _, dup := p.seen[key]; dup {
		return
	}
	p.seen[key] = struct{}{}
	p.out = append(p.out, domain.Notification{
		ID:          fmt.Sprintf("%s-%d", p.ev.ID, len(p.out)),
		RecipientID: recipient,
		Message:     msg,
		Type:        typ,
		Channel:     ch,
		OrderID:     p.ev.OrderID,
	})
}
