package store

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-sync/pkg/types"
)

// Reduce applies action to state and returns the next state. It is pure: the
// input is never modified and slices that change are rebuilt. Unknown actions
// return state unchanged.
func Reduce(state State, action Action) State {
	next, _ := reduce(state, action)
	return next
}

// reduce also reports whether the action changed anything, so the Store can
// skip version bumps and listener fan-out for no-ops.
func reduce(s State, action Action) (State, bool) {
	switch a := action.(type) {
	case Login:
		s.Session++
		s.Authenticated = true
		if a.Profile != nil {
			profile := *a.Profile
			s.Profile = &profile
		}
		return s, true
	case Logout:
		s.Session++
		s.Authenticated = false
		s.Profile = nil
		s.Cart = []types.CartLine{}
		s.AssignedVendor = nil
		s.VendorAvailability = nil
		s.RealtimeConnected = false
		return s, true
	case SetProfile:
		profile := a.Profile
		s.Profile = &profile
		return s, true
	case SetSellerID:
		if s.SellerID == a.SellerID {
			return s, false
		}
		s.SellerID = a.SellerID
		return s, true
	case AssignVendor:
		if a.Vendor == nil {
			s.AssignedVendor = nil
			return s, true
		}
		vendor := *a.Vendor
		s.AssignedVendor = &vendor
		return s, true
	case SetVendorAvailability:
		availability := a.Availability
		s.VendorAvailability = &availability
		return s, true
	case SetRealtimeConnected:
		if s.RealtimeConnected == a.Connected {
			return s, false
		}
		s.RealtimeConnected = a.Connected
		return s, true

	case SetCart:
		s.Cart = cloneLines(a.Lines)
		return s, true
	case AddCartLine:
		return addCartLine(s, a.Line)
	case UpdateCartLine:
		return updateCartLine(s, a)
	case RemoveCartLine:
		return removeCartLine(s, a.CartLineID)
	case ClearCart:
		if len(s.Cart) == 0 {
			return s, false
		}
		s.Cart = []types.CartLine{}
		return s, true

	case SetOrders:
		orders := make([]types.Order, 0, len(a.Orders))
		for _, order := range a.Orders {
			if order.OrderID == "" {
				continue
			}
			orders = append(orders, order.Clone())
		}
		s.Orders = orders
		return s, true
	case AddOrder:
		return addOrder(s, a.Order)
	case UpdateOrder:
		return updateOrder(s, a)

	case AddAddress:
		return addAddress(s, a.Address)
	case UpdateAddress:
		return updateAddress(s, a.Address)
	case DeleteAddress:
		return deleteAddress(s, a.AddressID)
	case SetDefaultAddress:
		return setDefaultAddress(s, a.AddressID)
	case ClearAddresses:
		if len(s.Addresses) == 0 {
			return s, false
		}
		s.Addresses = []types.Address{}
		return s, true

	case SetFavourites:
		favourites := make([]types.Favourite, 0, len(a.Favourites))
		seen := map[string]struct{}{}
		for _, fav := range a.Favourites {
			if _, dup := seen[fav.ProductID]; dup || fav.ProductID == "" {
				continue
			}
			seen[fav.ProductID] = struct{}{}
			favourites = append(favourites, fav)
		}
		s.Favourites = favourites
		return s, true
	case AddFavourite:
		if a.Favourite.ProductID == "" {
			return s, false
		}
		for _, fav := range s.Favourites {
			if fav.ProductID == a.Favourite.ProductID {
				return s, false
			}
		}
		s.Favourites = append(append(make([]types.Favourite, 0, len(s.Favourites)+1), s.Favourites...), a.Favourite)
		return s, true
	case RemoveFavourite:
		favourites := make([]types.Favourite, 0, len(s.Favourites))
		for _, fav := range s.Favourites {
			if fav.ProductID != a.ProductID {
				favourites = append(favourites, fav)
			}
		}
		if len(favourites) == len(s.Favourites) {
			return s, false
		}
		s.Favourites = favourites
		return s, true

	case AddNotification:
		return addNotification(s, a.Notification)
	case MarkNotificationRead:
		return markRead(s, a.ID)
	case MarkAllNotificationsRead:
		if s.UnreadCount() == 0 {
			return s, false
		}
		notifications := make([]types.Notification, len(s.Notifications))
		for i, n := range s.Notifications {
			n = cloneNotification(n)
			n.Read = true
			notifications[i] = n
		}
		s.Notifications = notifications
		return s, true

	default:
		return s, false
	}
}

func cloneLines(lines []types.CartLine) []types.CartLine {
	out := make([]types.CartLine, len(lines))
	for i, line := range lines {
		out[i] = line.Clone()
	}
	return out
}

func addCartLine(s State, line types.CartLine) (State, bool) {
	if line.ProductID == "" {
		return s, false
	}
	if line.Quantity <= 0 {
		line.Quantity = 1
	}

	if !line.HasVariant() {
		for i, existing := range s.Cart {
			if existing.ProductID == line.ProductID && !existing.HasVariant() {
				cart := cloneLines(s.Cart)
				cart[i].Quantity += line.Quantity
				s.Cart = cart
				return s, true
			}
		}
	}

	line = line.Clone()
	line.CartLineID = nextLineID(s.Cart, line)
	cart := make([]types.CartLine, 0, len(s.Cart)+1)
	cart = append(cart, cloneLines(s.Cart)...)
	s.Cart = append(cart, line)
	return s, true
}

// nextLineID keeps cart line ids unique when a locally added line has no id
// or collides with an existing one.
func nextLineID(cart []types.CartLine, line types.CartLine) string {
	base := strings.TrimSpace(line.CartLineID)
	if base == "" {
		base = line.ProductID
		if key := line.VariantKey(); key != "" {
			base += ":" + key
		}
	}
	taken := make(map[string]struct{}, len(cart))
	for _, existing := range cart {
		taken[existing.CartLineID] = struct{}{}
	}
	candidate := base
	for n := 2; ; n++ {
		if _, clash := taken[candidate]; !clash {
			return candidate
		}
		candidate = fmt.Sprintf("%s#%d", base, n)
	}
}

func updateCartLine(s State, a UpdateCartLine) (State, bool) {
	if a.Quantity < 1 {
		return removeCartLine(s, a.CartLineID)
	}
	for i, line := range s.Cart {
		if line.CartLineID != a.CartLineID {
			continue
		}
		if line.Quantity == a.Quantity {
			return s, false
		}
		cart := cloneLines(s.Cart)
		cart[i].Quantity = a.Quantity
		s.Cart = cart
		return s, true
	}
	return s, false
}

func removeCartLine(s State, cartLineID string) (State, bool) {
	cart := make([]types.CartLine, 0, len(s.Cart))
	for _, line := range s.Cart {
		if line.CartLineID != cartLineID {
			cart = append(cart, line.Clone())
		}
	}
	if len(cart) == len(s.Cart) {
		return s, false
	}
	s.Cart = cart
	return s, true
}

func addOrder(s State, order types.Order) (State, bool) {
	if order.OrderID == "" {
		return s, false
	}
	orders := make([]types.Order, 0, len(s.Orders)+1)
	orders = append(orders, order.Clone())
	for _, existing := range s.Orders {
		if existing.OrderID != order.OrderID {
			orders = append(orders, existing.Clone())
		}
	}
	s.Orders = orders
	return s, true
}

func updateOrder(s State, a UpdateOrder) (State, bool) {
	if a.Patch.IsEmpty() {
		return s, false
	}
	for i, order := range s.Orders {
		if order.OrderID != a.OrderID {
			continue
		}
		orders := make([]types.Order, len(s.Orders))
		for j, existing := range s.Orders {
			orders[j] = existing.Clone()
		}
		orders[i] = order.Apply(a.Patch)
		s.Orders = orders
		return s, true
	}
	return s, false
}

func addAddress(s State, addr types.Address) (State, bool) {
	if addr.AddressID == "" {
		return s, false
	}
	addresses := make([]types.Address, 0, len(s.Addresses)+1)
	replaced := false
	for _, existing := range s.Addresses {
		if existing.AddressID == addr.AddressID {
			addresses = append(addresses, addr)
			replaced = true
			continue
		}
		addresses = append(addresses, existing)
	}
	if !replaced {
		addresses = append(addresses, addr)
	}
	if addr.IsDefault {
		addresses = exclusiveDefault(addresses, addr.AddressID)
	}
	s.Addresses = addresses
	return s, true
}

func updateAddress(s State, addr types.Address) (State, bool) {
	for _, existing := range s.Addresses {
		if existing.AddressID == addr.AddressID {
			return addAddress(s, addr)
		}
	}
	return s, false
}

func deleteAddress(s State, addressID string) (State, bool) {
	addresses := make([]types.Address, 0, len(s.Addresses))
	for _, existing := range s.Addresses {
		if existing.AddressID != addressID {
			addresses = append(addresses, existing)
		}
	}
	if len(addresses) == len(s.Addresses) {
		return s, false
	}
	s.Addresses = addresses
	return s, true
}

func setDefaultAddress(s State, addressID string) (State, bool) {
	found := false
	for _, existing := range s.Addresses {
		if existing.AddressID == addressID {
			found = true
			break
		}
	}
	if !found {
		return s, false
	}
	s.Addresses = exclusiveDefault(append([]types.Address(nil), s.Addresses...), addressID)
	return s, true
}

// exclusiveDefault flags addressID as the only default. addresses must already
// be a private copy.
func exclusiveDefault(addresses []types.Address, addressID string) []types.Address {
	for i := range addresses {
		addresses[i].IsDefault = addresses[i].AddressID == addressID
	}
	return addresses
}

func addNotification(s State, n types.Notification) (State, bool) {
	if n.ID == "" {
		return s, false
	}
	for _, existing := range s.Notifications {
		if existing.ID == n.ID {
			return s, false
		}
	}
	notifications := make([]types.Notification, 0, len(s.Notifications)+1)
	notifications = append(notifications, cloneNotification(n))
	for _, existing := range s.Notifications {
		notifications = append(notifications, cloneNotification(existing))
	}
	s.Notifications = notifications
	return s, true
}

func markRead(s State, id string) (State, bool) {
	for i, n := range s.Notifications {
		if n.ID != id {
			continue
		}
		if n.Read {
			return s, false
		}
		notifications := make([]types.Notification, len(s.Notifications))
		for j, existing := range s.Notifications {
			notifications[j] = cloneNotification(existing)
		}
		notifications[i].Read = true
		s.Notifications = notifications
		return s, true
	}
	return s, false
}
