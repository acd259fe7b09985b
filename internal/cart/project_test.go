package cart

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func decodePayload(t *testing.T, raw string) *Payload {
	t.Helper()
	var payload Payload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	return &payload
}

func TestProjectPricePrecedence(t *testing.T) {
	payload := decodePayload(t, `{
		"items": [
			{"_id": "l1", "quantity": 1, "unitPrice": 120, "product": {"_id": "p1", "price": 100, "priceToUser": 110}},
			{"_id": "l2", "quantity": 1, "product": {"_id": "p2", "price": 100, "priceToUser": 110}},
			{"_id": "l3", "quantity": 1, "product": {"_id": "p3", "price": 100}},
			{"_id": "l4", "quantity": 1, "product": {"_id": "p4"}}
		]
	}`)

	lines := Project(payload)
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	want := []int64{120, 110, 100, 0}
	for i, line := range lines {
		if !line.UnitPrice.Equal(decimal.NewFromInt(want[i])) {
			t.Fatalf("line %d: expected price %d, got %s", i, want[i], line.UnitPrice)
		}
	}
}

func TestProjectDropsItemsWithoutProductIdentity(t *testing.T) {
	payload := decodePayload(t, `{
		"items": [
			{"id": "l1", "quantity": 2, "product": {"name": "ghost"}},
			{"id": "l2", "quantity": 1, "productId": "p2"},
			{"id": "l3", "quantity": 1, "product": null}
		]
	}`)

	lines := Project(payload)
	if len(lines) != 1 {
		t.Fatalf("expected malformed lines dropped, got %+v", lines)
	}
	if lines[0].ProductID != "p2" || lines[0].CartLineID != "l2" {
		t.Fatalf("unexpected surviving line %+v", lines[0])
	}
}

func TestProjectResolvesHeterogeneousIDs(t *testing.T) {
	payload := decodePayload(t, `{
		"items": [
			{"id": 11, "quantity": 1, "product": "p-bare"},
			{"_id": {"id": "l2"}, "quantity": 1, "product": {"id": 42, "vendor": {"_id": "v9", "name": "Fresh Farm"}}}
		]
	}`)

	lines := Project(payload)
	if len(lines) != 2 {
		t.Fatalf("expected two lines, got %d", len(lines))
	}
	if lines[0].CartLineID != "11" || lines[0].ProductID != "p-bare" {
		t.Fatalf("unexpected first line %+v", lines[0])
	}
	if lines[1].CartLineID != "l2" || lines[1].ProductID != "42" || lines[1].VendorRef != "v9" {
		t.Fatalf("unexpected second line %+v", lines[1])
	}
}

func TestProjectPreservesOrderAndVariants(t *testing.T) {
	payload := decodePayload(t, `{
		"items": [
			{"quantity": 1, "product": {"_id": "p1", "name": "Tee", "images": ["", "tee.png"]}, "variantAttributes": {"size": "M", "color": "red"}},
			{"quantity": 3, "product": {"_id": "p1", "name": "Tee"}, "variantAttributes": {"size": "L"}},
			{"quantity": 0, "product": {"_id": "p2", "name": "Mug", "image": "mug.png"}}
		]
	}`)

	lines := Project(payload)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0].CartLineID != "p1:color=red;size=M" || lines[0].Image != "tee.png" {
		t.Fatalf("unexpected synthetic variant line %+v", lines[0])
	}
	if lines[1].CartLineID != "p1:size=L" || lines[1].Quantity != 3 {
		t.Fatalf("unexpected second variant line %+v", lines[1])
	}
	if lines[2].CartLineID != "p2" || lines[2].Quantity != 1 || lines[2].Image != "mug.png" {
		t.Fatalf("expected quantity default and image fallback, got %+v", lines[2])
	}
}

func TestProjectKeepsLineIDsUnique(t *testing.T) {
	lines := ProjectItems([]Item{
		{ProductID: "p1", Quantity: 1},
		{ProductID: "p1", Quantity: 2},
	})
	if len(lines) != 2 {
		t.Fatalf("expected two lines, got %d", len(lines))
	}
	if lines[0].CartLineID == lines[1].CartLineID {
		t.Fatalf("expected unique cart line ids, got %q twice", lines[0].CartLineID)
	}
}

func TestProjectNilPayload(t *testing.T) {
	if lines := Project(nil); lines == nil || len(lines) != 0 {
		t.Fatalf("expected empty non-nil cart, got %#v", lines)
	}
}
