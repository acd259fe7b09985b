package enums

import (
	"fmt"
	"strings"
)

// NotificationType is the closed set of push/poll notification kinds. Anything
// the backend sends outside this set classifies as NotificationTypeUnclassified.
type NotificationType string

const (
	NotificationTypePaymentReminder NotificationType = "payment_reminder"
	NotificationTypeDeliveryUpdate  NotificationType = "delivery_update"
	NotificationTypeOrderAssigned   NotificationType = "order_assigned"
	NotificationTypeOrderDelivered  NotificationType = "order_delivered"
	NotificationTypeOffer           NotificationType = "offer"
	NotificationTypeAnnouncement    NotificationType = "announcement"
	NotificationTypeOrderStatus     NotificationType = "order_status"
	NotificationTypeWelcome         NotificationType = "welcome"
	NotificationTypeUnclassified    NotificationType = "unclassified"
)

var validNotificationTypes = []NotificationType{
	NotificationTypePaymentReminder,
	NotificationTypeDeliveryUpdate,
	NotificationTypeOrderAssigned,
	NotificationTypeOrderDelivered,
	NotificationTypeOffer,
	NotificationTypeAnnouncement,
	NotificationTypeOrderStatus,
	NotificationTypeWelcome,
	NotificationTypeUnclassified,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

// pushTypes are the tags the push channel is allowed to carry.
var pushTypes = []NotificationType{
	NotificationTypePaymentReminder,
	NotificationTypeDeliveryUpdate,
	NotificationTypeOrderAssigned,
	NotificationTypeOrderDelivered,
	NotificationTypeOffer,
	NotificationTypeAnnouncement,
}

// ClassifyPushType maps a raw push `type` tag onto a NotificationType. It
// never fails: unknown tags classify as NotificationTypeUnclassified.
func ClassifyPushType(raw string) NotificationType {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	for _, candidate := range pushTypes {
		if string(candidate) == normalized {
			return candidate
		}
	}
	return NotificationTypeUnclassified
}
