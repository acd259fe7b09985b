package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-sync/internal/cart"
)

// Payload is a server order as returned by the orders endpoints.
type Payload struct {
	ID                any              `json:"id,omitempty"`
	UnderscoreID      any              `json:"_id,omitempty"`
	OrderNumber       string           `json:"orderNumber,omitempty"`
	Status            string           `json:"status"`
	Subtotal          *decimal.Decimal `json:"subtotal,omitempty"`
	DeliveryCharge    *decimal.Decimal `json:"deliveryCharge,omitempty"`
	PaymentPreference string           `json:"paymentPreference,omitempty"`
	UpfrontAmount     *decimal.Decimal `json:"upfrontAmount,omitempty"`
	RemainingAmount   *decimal.Decimal `json:"remainingAmount,omitempty"`
	PaymentStatus     string           `json:"paymentStatus,omitempty"`
	Items             []ItemPayload    `json:"items,omitempty"`
	StatusTimeline    []StatusPayload  `json:"statusTimeline,omitempty"`
	CreatedAt         *time.Time       `json:"createdAt,omitempty"`
}

// ItemPayload is one ordered item. It shares the loose product shape of cart
// items.
type ItemPayload struct {
	ProductID         any              `json:"productId,omitempty"`
	Product           *cart.ProductRef `json:"product,omitempty"`
	Name              string           `json:"name,omitempty"`
	Quantity          int              `json:"quantity"`
	Price             *decimal.Decimal `json:"price,omitempty"`
	UnitPrice         *decimal.Decimal `json:"unitPrice,omitempty"`
	VariantAttributes map[string]any   `json:"variantAttributes,omitempty"`
}

type StatusPayload struct {
	Status    string     `json:"status"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	At        *time.Time `json:"at,omitempty"`
	Note      string     `json:"note,omitempty"`
}
