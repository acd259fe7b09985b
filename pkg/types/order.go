package types

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-sync/pkg/enums"
)

type OrderItem struct {
	ProductID         string            `json:"productId"`
	Name              string            `json:"name"`
	Quantity          int               `json:"quantity"`
	UnitPrice         decimal.Decimal   `json:"unitPrice"`
	VariantAttributes map[string]string `json:"variantAttributes,omitempty"`
}

type StatusChange struct {
	Status string    `json:"status"`
	At     time.Time `json:"at"`
	Note   string    `json:"note,omitempty"`
}

// Order is the cached copy of a server order.
type Order struct {
	OrderID           string                  `json:"orderId"`
	OrderNumber       string                  `json:"orderNumber"`
	Status            string                  `json:"status"`
	Subtotal          decimal.Decimal         `json:"subtotal"`
	DeliveryCharge    decimal.Decimal         `json:"deliveryCharge"`
	PaymentPreference enums.PaymentPreference `json:"paymentPreference"`
	UpfrontAmount     decimal.Decimal         `json:"upfrontAmount"`
	RemainingAmount   decimal.Decimal         `json:"remainingAmount"`
	PaymentStatus     enums.PaymentStatus     `json:"paymentStatus"`
	Items             []OrderItem             `json:"items"`
	StatusTimeline    []StatusChange          `json:"statusTimeline"`
	CreatedAt         time.Time               `json:"createdAt"`
}

// StatusKey is the canonical bucket of the order's raw status.
func (o Order) StatusKey() enums.OrderStatusKey {
	return enums.NormalizeOrderStatus(o.Status)
}

// DisplayNumber prefers the human order number over the id.
func (o Order) DisplayNumber() string {
	if o.OrderNumber != "" {
		return o.OrderNumber
	}
	return o.OrderID
}

// Clone returns a deep copy of the order.
func (o Order) Clone() Order {
	out := o
	if o.Items != nil {
		out.Items = make([]OrderItem, len(o.Items))
		for i, item := range o.Items {
			copied := item
			if item.VariantAttributes != nil {
				copied.VariantAttributes = make(map[string]string, len(item.VariantAttributes))
				for k, v := range item.VariantAttributes {
					copied.VariantAttributes[k] = v
				}
			}
			out.Items[i] = copied
		}
	}
	if o.StatusTimeline != nil {
		out.StatusTimeline = append([]StatusChange(nil), o.StatusTimeline...)
	}
	return out
}

// OrderPatch is a shallow field-group update. Nil fields are left untouched.
type OrderPatch struct {
	Status          *string              `json:"status,omitempty"`
	PaymentStatus   *enums.PaymentStatus `json:"paymentStatus,omitempty"`
	UpfrontAmount   *decimal.Decimal     `json:"upfrontAmount,omitempty"`
	RemainingAmount *decimal.Decimal     `json:"remainingAmount,omitempty"`
	StatusTimeline  []StatusChange       `json:"statusTimeline,omitempty"`
}

func (p OrderPatch) IsEmpty() bool {
	return p.Status == nil && p.PaymentStatus == nil && p.UpfrontAmount == nil &&
		p.RemainingAmount == nil && p.StatusTimeline == nil
}

// Apply returns a copy of o with the patch merged in.
func (o Order) Apply(p OrderPatch) Order {
	out := o.Clone()
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.PaymentStatus != nil {
		out.PaymentStatus = *p.PaymentStatus
	}
	if p.UpfrontAmount != nil {
		out.UpfrontAmount = *p.UpfrontAmount
	}
	if p.RemainingAmount != nil {
		out.RemainingAmount = *p.RemainingAmount
	}
	if p.StatusTimeline != nil {
		out.StatusTimeline = append([]StatusChange(nil), p.StatusTimeline...)
	}
	return out
}
