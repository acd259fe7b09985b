package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type Profile struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Phone  string `json:"phone,omitempty"`
}

type Vendor struct {
	VendorID string `json:"vendorId"`
	Name     string `json:"name"`
}

// VendorAvailability is the tri-state checkout gate reported by the backend.
type VendorAvailability struct {
	VendorAvailable bool `json:"vendorAvailable"`
	CanPlaceOrder   bool `json:"canPlaceOrder"`
	IsInBufferZone  bool `json:"isInBufferZone"`
}

// Permits reports whether the shopper may place an order. The buffer zone
// counts as available even when CanPlaceOrder reads false.
func (v VendorAvailability) Permits() bool {
	return v.CanPlaceOrder || v.IsInBufferZone
}

type Favourite struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name,omitempty"`
	Image     string          `json:"image,omitempty"`
	Price     decimal.Decimal `json:"price"`
}

type Offer struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}
