package store

import (
	"reflect"

	"github.com/angelmondragon/storefront-sync/pkg/types"
)

// Action is a member of the closed set of state transitions. Only types in
// this package implement it.
type Action interface {
	isAction()
}

// Session.

type Login struct {
	Profile *types.Profile
}

// Logout resets cart, vendor assignment and availability. Favourites and
// notifications are kept.
type Logout struct{}

type SetProfile struct {
	Profile types.Profile
}

type SetSellerID struct {
	SellerID string
}

// AssignVendor sets the vendor serving the shopper; a nil Vendor clears it.
type AssignVendor struct {
	Vendor *types.Vendor
}

type SetVendorAvailability struct {
	Availability types.VendorAvailability
}

type SetRealtimeConnected struct {
	Connected bool
}

// Cart.

// SetCart replaces the cart wholesale, typically with a fresh projection.
type SetCart struct {
	Lines []types.CartLine
}

// AddCartLine merges into an existing line only when the product matches and
// neither line has variant attributes.
type AddCartLine struct {
	Line types.CartLine
}

// UpdateCartLine sets a line's quantity; a quantity below one removes it.
type UpdateCartLine struct {
	CartLineID string
	Quantity   int
}

type RemoveCartLine struct {
	CartLineID string
}

type ClearCart struct{}

// Orders.

// SetOrders replaces the cached order list.
type SetOrders struct {
	Orders []types.Order
}

// AddOrder puts an order at the front of the list, replacing any cached order
// with the same id.
type AddOrder struct {
	Order types.Order
}

// UpdateOrder shallow-merges Patch into the order with OrderID. Unknown ids
// are ignored.
type UpdateOrder struct {
	OrderID string
	Patch   types.OrderPatch
}

// Addresses.

type AddAddress struct {
	Address types.Address
}

type UpdateAddress struct {
	Address types.Address
}

type DeleteAddress struct {
	AddressID string
}

type SetDefaultAddress struct {
	AddressID string
}

type ClearAddresses struct{}

// Favourites.

type SetFavourites struct {
	Favourites []types.Favourite
}

type AddFavourite struct {
	Favourite types.Favourite
}

type RemoveFavourite struct {
	ProductID string
}

// Notifications.

// AddNotification prepends a notification. A notification whose id is
// already present is ignored.
type AddNotification struct {
	Notification types.Notification
}

type MarkNotificationRead struct {
	ID string
}

type MarkAllNotificationsRead struct{}

func (Login) isAction()                    {}
func (Logout) isAction()                   {}
func (SetProfile) isAction()               {}
func (SetSellerID) isAction()              {}
func (AssignVendor) isAction()             {}
func (SetVendorAvailability) isAction()    {}
func (SetRealtimeConnected) isAction()     {}
func (SetCart) isAction()                  {}
func (AddCartLine) isAction()              {}
func (UpdateCartLine) isAction()           {}
func (RemoveCartLine) isAction()           {}
func (ClearCart) isAction()                {}
func (SetOrders) isAction()                {}
func (AddOrder) isAction()                 {}
func (UpdateOrder) isAction()              {}
func (AddAddress) isAction()               {}
func (UpdateAddress) isAction()            {}
func (DeleteAddress) isAction()            {}
func (SetDefaultAddress) isAction()        {}
func (ClearAddresses) isAction()           {}
func (SetFavourites) isAction()            {}
func (AddFavourite) isAction()             {}
func (RemoveFavourite) isAction()          {}
func (AddNotification) isAction()          {}
func (MarkNotificationRead) isAction()     {}
func (MarkAllNotificationsRead) isAction() {}

// ActionName returns the action's type name, e.g. "AddCartLine".
func ActionName(a Action) string {
	if a == nil {
		return "nil"
	}
	t := reflect.TypeOf(a)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}
