package orders

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-sync/pkg/types"
)

type statusCopy struct {
	title  string
	format string
}

// statusMessages holds the copy for well-known raw statuses. Each format takes
// the display order number.
var statusMessages = map[string]statusCopy{
	"accepted":         {title: "Order accepted", format: "Your order #%s has been accepted by the vendor."},
	"confirmed":        {title: "Order confirmed", format: "Your order #%s is confirmed."},
	"preparing":        {title: "Order being prepared", format: "The vendor is preparing your order #%s."},
	"processing":       {title: "Order being prepared", format: "The vendor is preparing your order #%s."},
	"dispatched":       {title: "Order dispatched", format: "Your order #%s is on its way."},
	"shipped":          {title: "Order dispatched", format: "Your order #%s is on its way."},
	"out_for_delivery": {title: "Out for delivery", format: "Your order #%s is out for delivery."},
	"delivered":        {title: "Order delivered", format: "Your order #%s has been delivered."},
	"cancelled":        {title: "Order cancelled", format: "Your order #%s has been cancelled."},
	"canceled":         {title: "Order cancelled", format: "Your order #%s has been cancelled."},
	"rejected":         {title: "Order rejected", format: "The vendor could not accept your order #%s."},
}

// StatusMessage returns the notification title and message announcing that
// order moved to status. Unknown statuses get a generic message.
func StatusMessage(order types.Order, status string) (string, string) {
	key := strings.ToLower(strings.TrimSpace(status))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if entry, ok := statusMessages[key]; ok {
		return entry.title, fmt.Sprintf(entry.format, order.DisplayNumber())
	}
	return "Order update", fmt.Sprintf("Your order #%s status updated to %s.", order.DisplayNumber(), humanize(status))
}

func humanize(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return "unknown"
	}
	return strings.ReplaceAll(status, "_", " ")
}

// StatusPatch compares the cached order with its server copy. It reports a
// change only when the status differs; the returned patch then carries the
// new status plus any payment fields that moved.
func StatusPatch(local, remote types.Order) (types.OrderPatch, bool) {
	if local.Status == remote.Status {
		return types.OrderPatch{}, false
	}

	status := remote.Status
	patch := types.OrderPatch{Status: &status}
	if remote.PaymentStatus != "" && remote.PaymentStatus != local.PaymentStatus {
		paymentStatus := remote.PaymentStatus
		patch.PaymentStatus = &paymentStatus
	}
	if !remote.UpfrontAmount.Equal(local.UpfrontAmount) {
		upfront := remote.UpfrontAmount
		patch.UpfrontAmount = &upfront
	}
	if !remote.RemainingAmount.Equal(local.RemainingAmount) {
		remaining := remote.RemainingAmount
		patch.RemainingAmount = &remaining
	}
	if len(remote.StatusTimeline) > 0 {
		patch.StatusTimeline = append([]types.StatusChange(nil), remote.StatusTimeline...)
	}
	return patch, true
}
