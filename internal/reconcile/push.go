package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-sync/internal/push"
	"github.com/angelmondragon/storefront-sync/internal/store"
	"github.com/angelmondragon/storefront-sync/pkg/enums"
	"github.com/angelmondragon/storefront-sync/pkg/types"
)

// pushHandler binds push events to the session that subscribed. Once that
// session is gone its events change nothing.
func (s *Scheduler) pushHandler(generation uint64) push.Handler {
	return func(ctx context.Context, event push.Event) {
		s.handlePush(ctx, generation, event)
	}
}

// handlePush folds one push event. Every event becomes a notification;
// delivery updates and delivered events also move the order's status.
func (s *Scheduler) handlePush(ctx context.Context, generation uint64, event push.Event) bool {
	class := enums.ClassifyPushType(event.Type)
	s.metrics.IncPushEvent(string(class))

	note := pushNotification(class, event)
	note.Timestamp = s.now().UTC()
	actions := []store.Action{store.AddNotification{Notification: note}}

	if status := pushOrderStatus(class, event); status != "" && event.OrderID != "" {
		actions = append(actions, store.UpdateOrder{
			OrderID: event.OrderID,
			Patch:   types.OrderPatch{Status: &status},
		})
	}

	applied := s.dispatchIf(generation, true, actions...)
	if !applied {
		s.logg.Debug(s.logg.WithEventType(ctx, string(class)), "push event after teardown ignored")
	}
	return applied
}

func pushOrderStatus(class enums.NotificationType, event push.Event) string {
	status := strings.TrimSpace(event.Status)
	switch class {
	case enums.NotificationTypeDeliveryUpdate:
		return status
	case enums.NotificationTypeOrderDelivered:
		if status == "" {
			return "delivered"
		}
		return status
	default:
		return ""
	}
}

func pushNotification(class enums.NotificationType, event push.Event) types.Notification {
	id := strings.TrimSpace(event.ID)
	if id == "" {
		id = uuid.NewString()
	}
	title, message := defaultPushCopy(class, event)
	if t := strings.TrimSpace(event.Title); t != "" {
		title = t
	}
	if m := strings.TrimSpace(event.Message); m != "" {
		message = m
	}
	note := types.Notification{
		ID:      id,
		Type:    class,
		Title:   title,
		Message: message,
		OrderID: strings.TrimSpace(event.OrderID),
		Status:  strings.TrimSpace(event.Status),
	}
	if event.Amount != nil {
		amount := *event.Amount
		note.Amount = &amount
	}
	return note
}

func defaultPushCopy(class enums.NotificationType, event push.Event) (string, string) {
	order := event.OrderID
	switch class {
	case enums.NotificationTypePaymentReminder:
		if event.Amount != nil {
			return "Payment reminder", fmt.Sprintf("A payment of ₹%s is due for order #%s.", event.Amount.StringFixed(2), order)
		}
		return "Payment reminder", fmt.Sprintf("A payment is due for order #%s.", order)
	case enums.NotificationTypeDeliveryUpdate:
		return "Delivery update", fmt.Sprintf("Your order #%s is now %s.", order, strings.ReplaceAll(event.Status, "_", " "))
	case enums.NotificationTypeOrderAssigned:
		vendor := strings.TrimSpace(event.VendorName)
		if vendor == "" {
			vendor = "A vendor"
		}
		return "Order assigned", fmt.Sprintf("%s is handling your order #%s.", vendor, order)
	case enums.NotificationTypeOrderDelivered:
		return "Order delivered", fmt.Sprintf("Your order #%s has been delivered.", order)
	case enums.NotificationTypeOffer:
		return "New offer", "A new offer is waiting for you."
	case enums.NotificationTypeAnnouncement:
		return "Announcement", "There is news from the store."
	default:
		return "Notification", "You have a new notification."
	}
}
