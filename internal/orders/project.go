// Package orders projects server orders into the cached order shape and
// decides what changed between a cached order and its server copy.
package orders

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-sync/internal/cart"
	"github.com/angelmondragon/storefront-sync/internal/identity"
	"github.com/angelmondragon/storefront-sync/pkg/enums"
	"github.com/angelmondragon/storefront-sync/pkg/types"
)

// Project converts a server order. ok is false when the order id cannot be
// resolved; such orders are dropped by callers.
func Project(p Payload) (types.Order, bool) {
	id := identity.Resolve(p.UnderscoreID)
	if id == "" {
		id = identity.Resolve(p.ID)
	}
	if id == "" {
		return types.Order{}, false
	}

	order := types.Order{
		OrderID:           id,
		OrderNumber:       strings.TrimSpace(p.OrderNumber),
		Status:            strings.TrimSpace(p.Status),
		Subtotal:          valueOrZero(p.Subtotal),
		DeliveryCharge:    valueOrZero(p.DeliveryCharge),
		PaymentPreference: parsePreference(p.PaymentPreference),
		UpfrontAmount:     valueOrZero(p.UpfrontAmount),
		RemainingAmount:   valueOrZero(p.RemainingAmount),
		PaymentStatus:     enums.PaymentStatus(strings.ToLower(strings.TrimSpace(p.PaymentStatus))),
		Items:             make([]types.OrderItem, 0, len(p.Items)),
		StatusTimeline:    make([]types.StatusChange, 0, len(p.StatusTimeline)),
	}
	if p.CreatedAt != nil {
		order.CreatedAt = p.CreatedAt.UTC()
	}
	for _, item := range p.Items {
		if projected, ok := projectItem(item); ok {
			order.Items = append(order.Items, projected)
		}
	}
	for _, entry := range p.StatusTimeline {
		order.StatusTimeline = append(order.StatusTimeline, projectStatus(entry))
	}
	return order, true
}

// ProjectAll converts a server order list, preserving server order and
// dropping unidentifiable orders.
func ProjectAll(payloads []Payload) []types.Order {
	out := make([]types.Order, 0, len(payloads))
	for _, p := range payloads {
		if order, ok := Project(p); ok {
			out = append(out, order)
		}
	}
	return out
}

func projectItem(item ItemPayload) (types.OrderItem, bool) {
	productID := ""
	name := strings.TrimSpace(item.Name)
	var productPrice *decimal.Decimal
	if p := item.Product; p != nil {
		productID = identity.Resolve(p.ID)
		if productID == "" {
			productID = identity.Resolve(p.UnderscoreID)
		}
		if name == "" {
			name = strings.TrimSpace(p.Name)
		}
		productPrice = p.PriceToUser
		if productPrice == nil {
			productPrice = p.Price
		}
	}
	if productID == "" {
		productID = identity.Resolve(item.ProductID)
	}
	if productID == "" {
		return types.OrderItem{}, false
	}

	price := decimal.Zero
	switch {
	case item.UnitPrice != nil:
		price = *item.UnitPrice
	case item.Price != nil:
		price = *item.Price
	case productPrice != nil:
		price = *productPrice
	}
	return types.OrderItem{
		ProductID:         productID,
		Name:              name,
		Quantity:          item.Quantity,
		UnitPrice:         price,
		VariantAttributes: cart.NormalizeVariant(item.VariantAttributes),
	}, true
}

func projectStatus(entry StatusPayload) types.StatusChange {
	change := types.StatusChange{
		Status: strings.TrimSpace(entry.Status),
		Note:   entry.Note,
	}
	switch {
	case entry.Timestamp != nil:
		change.At = entry.Timestamp.UTC()
	case entry.At != nil:
		change.At = entry.At.UTC()
	}
	return change
}

func parsePreference(raw string) enums.PaymentPreference {
	pref, err := enums.ParsePaymentPreference(raw)
	if err != nil {
		return enums.PaymentPreferencePartial
	}
	return pref
}

func valueOrZero(v *decimal.Decimal) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return *v
}
