package orders

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-sync/pkg/enums"
	"github.com/angelmondragon/storefront-sync/pkg/types"
)

func TestProjectAll(t *testing.T) {
	raw := `[
		{"_id": "o1", "orderNumber": "1001", "status": "accepted", "subtotal": 2000, "deliveryCharge": 0,
		 "paymentPreference": "partial", "upfrontAmount": 600, "remainingAmount": 1400, "paymentStatus": "advance_paid",
		 "createdAt": "2024-03-01T10:00:00Z",
		 "items": [
			{"product": {"_id": "p1", "name": "Apples", "priceToUser": 1000}, "quantity": 2},
			{"productId": 7, "name": "Pears", "quantity": 1, "price": 50},
			{"name": "ghost", "quantity": 1}
		 ],
		 "statusTimeline": [{"status": "placed", "timestamp": "2024-03-01T10:00:00Z"}]},
		{"orderNumber": "no-id", "status": "accepted"},
		{"id": 22, "status": "delivered", "paymentPreference": "bogus"}
	]`
	var payloads []Payload
	if err := json.Unmarshal([]byte(raw), &payloads); err != nil {
		t.Fatalf("decode: %v", err)
	}

	got := ProjectAll(payloads)
	if len(got) != 2 {
		t.Fatalf("expected unidentifiable order dropped, got %d orders", len(got))
	}

	first := got[0]
	if first.OrderID != "o1" || first.PaymentStatus != enums.PaymentStatusAdvancePaid {
		t.Fatalf("unexpected order %+v", first)
	}
	if !first.UpfrontAmount.Equal(decimal.NewFromInt(600)) || !first.RemainingAmount.Equal(decimal.NewFromInt(1400)) {
		t.Fatalf("unexpected split %s/%s", first.UpfrontAmount, first.RemainingAmount)
	}
	if len(first.Items) != 2 {
		t.Fatalf("expected item without product dropped, got %+v", first.Items)
	}
	if first.Items[0].ProductID != "p1" || !first.Items[0].UnitPrice.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("unexpected first item %+v", first.Items[0])
	}
	if first.Items[1].ProductID != "7" || first.Items[1].Name != "Pears" {
		t.Fatalf("unexpected second item %+v", first.Items[1])
	}
	if len(first.StatusTimeline) != 1 || first.StatusTimeline[0].At.IsZero() {
		t.Fatalf("expected timeline entry with timestamp, got %+v", first.StatusTimeline)
	}

	second := got[1]
	if second.OrderID != "22" || second.StatusKey() != enums.OrderStatusKeyDelivered {
		t.Fatalf("unexpected second order %+v", second)
	}
	if second.PaymentPreference != enums.PaymentPreferencePartial {
		t.Fatalf("expected unknown preference to fall back to partial, got %q", second.PaymentPreference)
	}
}

func TestStatusMessage(t *testing.T) {
	order := types.Order{OrderID: "o1", OrderNumber: "1001"}

	title, msg := StatusMessage(order, "Out for delivery")
	if title != "Out for delivery" || !strings.Contains(msg, "#1001") {
		t.Fatalf("unexpected copy %q / %q", title, msg)
	}

	title, msg = StatusMessage(types.Order{OrderID: "o2"}, "quality_check")
	if title != "Order update" {
		t.Fatalf("expected generic title, got %q", title)
	}
	if msg != "Your order #o2 status updated to quality check." {
		t.Fatalf("unexpected generic message %q", msg)
	}
}

func TestStatusPatch(t *testing.T) {
	local := types.Order{
		OrderID:         "o1",
		Status:          "accepted",
		PaymentStatus:   enums.PaymentStatusAdvancePaid,
		UpfrontAmount:   decimal.NewFromInt(600),
		RemainingAmount: decimal.NewFromInt(1400),
	}

	if _, changed := StatusPatch(local, local); changed {
		t.Fatal("identical orders must not produce a patch")
	}

	remote := local
	remote.Status = "delivered"
	remote.PaymentStatus = enums.PaymentStatusPaid
	remote.RemainingAmount = decimal.Zero

	patch, changed := StatusPatch(local, remote)
	if !changed {
		t.Fatal("expected a patch on status mismatch")
	}
	if patch.Status == nil || *patch.Status != "delivered" {
		t.Fatalf("unexpected status patch %+v", patch)
	}
	if patch.PaymentStatus == nil || *patch.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("expected payment status patch, got %+v", patch)
	}
	if patch.UpfrontAmount != nil {
		t.Fatal("unchanged upfront amount must not be patched")
	}
	if patch.RemainingAmount == nil || !patch.RemainingAmount.IsZero() {
		t.Fatalf("expected remaining amount patch, got %+v", patch.RemainingAmount)
	}

	applied := local.Apply(patch)
	if applied.Status != "delivered" || applied.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("unexpected applied order %+v", applied)
	}
	if local.Status != "accepted" {
		t.Fatal("apply must not mutate the original order")
	}
}

func TestStatusPatchIgnoresPaymentOnlyChanges(t *testing.T) {
	local := types.Order{OrderID: "o1", Status: "accepted", PaymentStatus: enums.PaymentStatusPending}
	remote := local
	remote.PaymentStatus = enums.PaymentStatusPaid
	if _, changed := StatusPatch(local, remote); changed {
		t.Fatal("poll reconciles on status mismatch only")
	}
}
