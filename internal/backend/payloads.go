package backend

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-sync/internal/cart"
	"github.com/angelmondragon/storefront-sync/internal/identity"
	"github.com/angelmondragon/storefront-sync/pkg/types"
)

type profilePayload struct {
	ID           any             `json:"id,omitempty"`
	UnderscoreID any             `json:"_id,omitempty"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	Phone        string          `json:"phone"`
	User         *profilePayload `json:"user,omitempty"`
}

func (p profilePayload) project() (types.Profile, bool) {
	if p.User != nil {
		return p.User.project()
	}
	id := firstID(p.UnderscoreID, p.ID)
	if id == "" {
		return types.Profile{}, false
	}
	return types.Profile{
		UserID: id,
		Name:   strings.TrimSpace(p.Name),
		Email:  strings.TrimSpace(p.Email),
		Phone:  strings.TrimSpace(p.Phone),
	}, true
}

type vendorPayload struct {
	ID           any    `json:"id,omitempty"`
	UnderscoreID any    `json:"_id,omitempty"`
	Name         string `json:"name"`
}

type availabilityPayload struct {
	VendorAvailable bool           `json:"vendorAvailable"`
	CanPlaceOrder   bool           `json:"canPlaceOrder"`
	IsInBufferZone  bool           `json:"isInBufferZone"`
	Vendor          *vendorPayload `json:"vendor,omitempty"`
}

// Availability is the vendor-availability answer together with the vendor
// assigned to the shopper, when the backend names one.
type Availability struct {
	Availability types.VendorAvailability
	Vendor       *types.Vendor
}

func (p availabilityPayload) project() Availability {
	out := Availability{Availability: types.VendorAvailability{
		VendorAvailable: p.VendorAvailable,
		CanPlaceOrder:   p.CanPlaceOrder,
		IsInBufferZone:  p.IsInBufferZone,
	}}
	if p.Vendor != nil {
		if id := firstID(p.Vendor.UnderscoreID, p.Vendor.ID); id != "" {
			out.Vendor = &types.Vendor{VendorID: id, Name: strings.TrimSpace(p.Vendor.Name)}
		}
	}
	return out
}

type addressPayload struct {
	ID           any    `json:"id,omitempty"`
	UnderscoreID any    `json:"_id,omitempty"`
	Label        string `json:"label"`
	Street       string `json:"street"`
	City         string `json:"city"`
	State        string `json:"state"`
	Pincode      string `json:"pincode"`
	Phone        string `json:"phone"`
	IsDefault    bool   `json:"isDefault"`
}

func (p addressPayload) project() (types.Address, bool) {
	id := firstID(p.UnderscoreID, p.ID)
	if id == "" {
		return types.Address{}, false
	}
	return types.Address{
		AddressID: id,
		Label:     strings.TrimSpace(p.Label),
		Street:    strings.TrimSpace(p.Street),
		City:      strings.TrimSpace(p.City),
		State:     strings.TrimSpace(p.State),
		Pincode:   strings.TrimSpace(p.Pincode),
		Phone:     strings.TrimSpace(p.Phone),
		IsDefault: p.IsDefault,
	}, true
}

func projectAddresses(payloads []addressPayload) []types.Address {
	out := make([]types.Address, 0, len(payloads))
	for _, p := range payloads {
		if addr, ok := p.project(); ok {
			out = append(out, addr)
		}
	}
	return out
}

type favouritePayload struct {
	ProductID any              `json:"productId,omitempty"`
	Product   *cart.ProductRef `json:"product,omitempty"`
	Name      string           `json:"name"`
	Image     string           `json:"image"`
	Price     *decimal.Decimal `json:"price,omitempty"`
}

func (p favouritePayload) project() (types.Favourite, bool) {
	fav := types.Favourite{Name: strings.TrimSpace(p.Name), Image: strings.TrimSpace(p.Image)}
	if p.Price != nil {
		fav.Price = *p.Price
	}
	if p.Product != nil {
		fav.ProductID = firstID(p.Product.UnderscoreID, p.Product.ID)
		if fav.Name == "" {
			fav.Name = strings.TrimSpace(p.Product.Name)
		}
		if fav.Image == "" {
			if len(p.Product.Images) > 0 {
				fav.Image = strings.TrimSpace(p.Product.Images[0])
			} else {
				fav.Image = strings.TrimSpace(p.Product.Image)
			}
		}
		if p.Price == nil {
			switch {
			case p.Product.PriceToUser != nil:
				fav.Price = *p.Product.PriceToUser
			case p.Product.Price != nil:
				fav.Price = *p.Product.Price
			}
		}
	}
	if fav.ProductID == "" {
		fav.ProductID = identity.Resolve(p.ProductID)
	}
	return fav, fav.ProductID != ""
}

func projectFavourites(payloads []favouritePayload) []types.Favourite {
	out := make([]types.Favourite, 0, len(payloads))
	for _, p := range payloads {
		if fav, ok := p.project(); ok {
			out = append(out, fav)
		}
	}
	return out
}

type offerPayload struct {
	ID           any        `json:"id,omitempty"`
	UnderscoreID any        `json:"_id,omitempty"`
	Title        string     `json:"title"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
}

func projectOffers(payloads []offerPayload) []types.Offer {
	out := make([]types.Offer, 0, len(payloads))
	for _, p := range payloads {
		id := firstID(p.UnderscoreID, p.ID)
		if id == "" || p.CreatedAt == nil {
			continue
		}
		out = append(out, types.Offer{ID: id, Title: strings.TrimSpace(p.Title), CreatedAt: p.CreatedAt.UTC()})
	}
	return out
}

// PaymentIntent is the gateway order the backend opens for a placed order.
type PaymentIntent struct {
	RazorpayOrderID string          `json:"razorpayOrderId"`
	KeyID           string          `json:"keyId"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
}

// CartItemRequest adds a product to the server cart.
type CartItemRequest struct {
	ProductID         string            `json:"productId"`
	Quantity          int               `json:"quantity"`
	VariantAttributes map[string]string `json:"variantAttributes,omitempty"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

// CreateOrderRequest places an order for the current server cart.
type CreateOrderRequest struct {
	AddressID         string          `json:"addressId"`
	PaymentPreference string          `json:"paymentPreference"`
	ShippingMethod    string          `json:"shippingMethod,omitempty"`
	DeliveryCharge    decimal.Decimal `json:"deliveryCharge"`
	UpfrontAmount     decimal.Decimal `json:"upfrontAmount"`
}

type paymentIntentRequest struct {
	OrderID string `json:"orderId"`
}

// PaymentConfirmation carries the gateway's success callback to the backend.
type PaymentConfirmation struct {
	OrderID           string `json:"orderId"`
	RazorpayOrderID   string `json:"razorpayOrderId"`
	RazorpayPaymentID string `json:"razorpayPaymentId"`
	RazorpaySignature string `json:"razorpaySignature"`
}

type favouriteRequest struct {
	ProductID string `json:"productId"`
}

func firstID(values ...any) string {
	for _, v := range values {
		if id := identity.Resolve(v); id != "" {
			return id
		}
	}
	return ""
}
