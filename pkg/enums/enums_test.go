package enums

import "testing"

func TestNormalizeOrderStatus(t *testing.T) {
	cases := map[string]OrderStatusKey{
		"delivered":           OrderStatusKeyDelivered,
		"Out_For_Delivery":    OrderStatusKeyDelivered,
		"partially-delivered": OrderStatusKeyDelivered,
		"dispatched":          OrderStatusKeyDispatched,
		"shipped":             OrderStatusKeyDispatched,
		"in_transit":          OrderStatusKeyDispatched,
		"awaiting_vendor":     OrderStatusKeyAwaiting,
		"pending":             OrderStatusKeyAwaiting,
		"accepted":            OrderStatusKeyAwaiting,
		"vendor_assigned":     OrderStatusKeyAwaiting,
		"cancelled":           OrderStatusKeyOther,
		"":                    OrderStatusKeyOther,
	}
	for raw, want := range cases {
		if got := NormalizeOrderStatus(raw); got != want {
			t.Fatalf("NormalizeOrderStatus(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestClassifyPushType(t *testing.T) {
	cases := map[string]NotificationType{
		"payment_reminder": NotificationTypePaymentReminder,
		"Delivery-Update":  NotificationTypeDeliveryUpdate,
		"order_assigned":   NotificationTypeOrderAssigned,
		"order_delivered":  NotificationTypeOrderDelivered,
		"offer":            NotificationTypeOffer,
		" announcement ":   NotificationTypeAnnouncement,
		"welcome":          NotificationTypeUnclassified,
		"flash_sale":       NotificationTypeUnclassified,
		"":                 NotificationTypeUnclassified,
	}
	for raw, want := range cases {
		if got := ClassifyPushType(raw); got != want {
			t.Fatalf("ClassifyPushType(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestParsePaymentPreference(t *testing.T) {
	if got, err := ParsePaymentPreference(" FULL "); err != nil || got != PaymentPreferenceFull {
		t.Fatalf("expected full, got %q err=%v", got, err)
	}
	if _, err := ParsePaymentPreference("installments"); err == nil {
		t.Fatal("expected error for unknown preference")
	}
}

func TestPlacementTransitions(t *testing.T) {
	if !PlacementIdle.CanTransition(PlacementPreviewBuilt) {
		t.Fatal("idle should move to preview")
	}
	if PlacementIdle.CanTransition(PlacementOrderCreated) {
		t.Fatal("order creation must follow a preview")
	}
	if !PlacementOrderCreated.CanTransition(PlacementPaymentFailed) {
		t.Fatal("created order may fail payment")
	}
	for _, terminal := range []PlacementState{PlacementPaymentConfirmed, PlacementPaymentFailed, PlacementOrderCreationFailed} {
		if !terminal.IsTerminal() {
			t.Fatalf("%s should be terminal", terminal)
		}
		if terminal.CanTransition(PlacementPreviewBuilt) {
			t.Fatalf("%s should not transition", terminal)
		}
	}
}
