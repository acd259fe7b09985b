// Package store holds the shopper's session state: a single state tree, the
// closed set of actions that change it and the reducer that applies them.
package store

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-sync/pkg/types"
)

// State is one immutable version of the session tree. Reduce never modifies a
// State it was given; every transition builds fresh slices for what changed.
type State struct {
	// Version increases by one for every dispatch that changed the tree.
	Version uint64 `json:"version"`
	// Session changes on every Login and Logout. Work started under one
	// session value must not land under another.
	Session uint64 `json:"session"`

	Authenticated      bool                      `json:"authenticated"`
	Profile            *types.Profile            `json:"profile,omitempty"`
	SellerID           string                    `json:"sellerId,omitempty"`
	AssignedVendor     *types.Vendor             `json:"assignedVendor,omitempty"`
	VendorAvailability *types.VendorAvailability `json:"vendorAvailability,omitempty"`
	RealtimeConnected  bool                      `json:"realtimeConnected"`

	Cart          []types.CartLine     `json:"cart"`
	Orders        []types.Order        `json:"orders"`
	Addresses     []types.Address      `json:"addresses"`
	Favourites    []types.Favourite    `json:"favourites"`
	Notifications []types.Notification `json:"notifications"`
}

// Empty returns the initial guest state.
func Empty() State {
	return State{
		Cart:          []types.CartLine{},
		Orders:        []types.Order{},
		Addresses:     []types.Address{},
		Favourites:    []types.Favourite{},
		Notifications: []types.Notification{},
	}
}

// Clone returns a deep copy that shares nothing mutable with s.
func (s State) Clone() State {
	out := s
	if s.Profile != nil {
		profile := *s.Profile
		out.Profile = &profile
	}
	if s.AssignedVendor != nil {
		vendor := *s.AssignedVendor
		out.AssignedVendor = &vendor
	}
	if s.VendorAvailability != nil {
		availability := *s.VendorAvailability
		out.VendorAvailability = &availability
	}
	out.Cart = make([]types.CartLine, len(s.Cart))
	for i, line := range s.Cart {
		out.Cart[i] = line.Clone()
	}
	out.Orders = make([]types.Order, len(s.Orders))
	for i, order := range s.Orders {
		out.Orders[i] = order.Clone()
	}
	out.Addresses = append(make([]types.Address, 0, len(s.Addresses)), s.Addresses...)
	out.Favourites = append(make([]types.Favourite, 0, len(s.Favourites)), s.Favourites...)
	out.Notifications = make([]types.Notification, len(s.Notifications))
	for i, n := range s.Notifications {
		out.Notifications[i] = cloneNotification(n)
	}
	return out
}

// CartCount is the total quantity across all cart lines.
func (s State) CartCount() int {
	total := 0
	for _, line := range s.Cart {
		total += line.Quantity
	}
	return total
}

// CartSubtotal is the sum of unit price times quantity.
func (s State) CartSubtotal() decimal.Decimal {
	subtotal := decimal.Zero
	for _, line := range s.Cart {
		subtotal = subtotal.Add(line.LineTotal())
	}
	return subtotal
}

// DefaultAddress returns the address flagged default, if any.
func (s State) DefaultAddress() (types.Address, bool) {
	for _, addr := range s.Addresses {
		if addr.IsDefault {
			return addr, true
		}
	}
	return types.Address{}, false
}

// Order looks up a cached order by id.
func (s State) Order(orderID string) (types.Order, bool) {
	for _, order := range s.Orders {
		if order.OrderID == orderID {
			return order, true
		}
	}
	return types.Order{}, false
}

// UnreadCount is the number of unread notifications.
func (s State) UnreadCount() int {
	count := 0
	for _, n := range s.Notifications {
		if !n.Read {
			count++
		}
	}
	return count
}

func cloneNotification(n types.Notification) types.Notification {
	if n.Amount != nil {
		amount := *n.Amount
		n.Amount = &amount
	}
	return n
}
