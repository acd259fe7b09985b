package backend

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/angelmondragon/storefront-sync/internal/cart"
	"github.com/angelmondragon/storefront-sync/internal/orders"
	pkgerrors "github.com/angelmondragon/storefront-sync/pkg/errors"
	"github.com/angelmondragon/storefront-sync/pkg/types"
)

// Profile fetches the signed-in shopper.
func (c *Client) Profile(ctx context.Context) (types.Profile, error) {
	payload, err := call[profilePayload](ctx, c, http.MethodGet, "/api/users/profile", nil)
	if err != nil {
		return types.Profile{}, err
	}
	profile, ok := payload.project()
	if !ok {
		return types.Profile{}, pkgerrors.New(pkgerrors.CodeDecode, "profile has no user id")
	}
	return profile, nil
}

// VendorAvailability fetches whether the assigned vendor can take an order.
func (c *Client) VendorAvailability(ctx context.Context) (Availability, error) {
	payload, err := call[availabilityPayload](ctx, c, http.MethodGet, "/api/vendors/availability", nil)
	if err != nil {
		return Availability{}, err
	}
	return payload.project(), nil
}

// Cart fetches the server cart.
func (c *Client) Cart(ctx context.Context) (*cart.Payload, error) {
	return cartCall(ctx, c, http.MethodGet, "/api/cart", nil)
}

// AddCartItem adds a product and returns the updated cart.
func (c *Client) AddCartItem(ctx context.Context, req CartItemRequest) (*cart.Payload, error) {
	return cartCall(ctx, c, http.MethodPost, "/api/cart/items", req)
}

// UpdateCartItem sets the quantity of a cart line.
func (c *Client) UpdateCartItem(ctx context.Context, cartLineID string, quantity int) (*cart.Payload, error) {
	return cartCall(ctx, c, http.MethodPut, "/api/cart/items/"+escape(cartLineID), quantityRequest{Quantity: quantity})
}

// RemoveCartItem deletes a cart line.
func (c *Client) RemoveCartItem(ctx context.Context, cartLineID string) (*cart.Payload, error) {
	return cartCall(ctx, c, http.MethodDelete, "/api/cart/items/"+escape(cartLineID), nil)
}

// ClearCart empties the server cart.
func (c *Client) ClearCart(ctx context.Context) (*cart.Payload, error) {
	return cartCall(ctx, c, http.MethodDelete, "/api/cart", nil)
}

func cartCall(ctx context.Context, c *Client, method, path string, body any) (*cart.Payload, error) {
	payload, err := call[*cart.Payload](ctx, c, method, path, body)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		payload = &cart.Payload{}
	}
	return payload, nil
}

// Orders fetches the shopper's orders, newest first as the backend sends them.
func (c *Client) Orders(ctx context.Context) ([]types.Order, error) {
	payloads, err := call[[]orders.Payload](ctx, c, http.MethodGet, "/api/orders", nil)
	if err != nil {
		return nil, err
	}
	return orders.ProjectAll(payloads), nil
}

// CreateOrder places an order for the current server cart.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (types.Order, error) {
	return orderCall(ctx, c, "/api/orders", req)
}

// CreatePaymentIntent opens a gateway order for a placed order.
func (c *Client) CreatePaymentIntent(ctx context.Context, orderID string) (PaymentIntent, error) {
	return call[PaymentIntent](ctx, c, http.MethodPost, "/api/payments/intent", paymentIntentRequest{OrderID: orderID})
}

// ConfirmPayment reports a gateway success to the backend and returns the
// updated order.
func (c *Client) ConfirmPayment(ctx context.Context, req PaymentConfirmation) (types.Order, error) {
	return orderCall(ctx, c, "/api/payments/confirm", req)
}

func orderCall(ctx context.Context, c *Client, path string, body any) (types.Order, error) {
	payload, err := call[orders.Payload](ctx, c, http.MethodPost, path, body)
	if err != nil {
		return types.Order{}, err
	}
	order, ok := orders.Project(payload)
	if !ok {
		return types.Order{}, pkgerrors.New(pkgerrors.CodeDecode, "order has no id")
	}
	return order, nil
}

// Addresses lists saved addresses.
func (c *Client) Addresses(ctx context.Context) ([]types.Address, error) {
	payloads, err := call[[]addressPayload](ctx, c, http.MethodGet, "/api/addresses", nil)
	if err != nil {
		return nil, err
	}
	return projectAddresses(payloads), nil
}

// CreateAddress saves a new address.
func (c *Client) CreateAddress(ctx context.Context, addr types.Address) (types.Address, error) {
	return addressCall(ctx, c, http.MethodPost, "/api/addresses", addr)
}

// UpdateAddress replaces a saved address.
func (c *Client) UpdateAddress(ctx context.Context, addr types.Address) (types.Address, error) {
	return addressCall(ctx, c, http.MethodPut, "/api/addresses/"+escape(addr.AddressID), addr)
}

// DeleteAddress removes a saved address.
func (c *Client) DeleteAddress(ctx context.Context, addressID string) error {
	_, err := call[json.RawMessage](ctx, c, http.MethodDelete, "/api/addresses/"+escape(addressID), nil)
	return err
}

// SetDefaultAddress marks an address as the default delivery address.
func (c *Client) SetDefaultAddress(ctx context.Context, addressID string) error {
	_, err := call[json.RawMessage](ctx, c, http.MethodPut, "/api/addresses/"+escape(addressID)+"/default", nil)
	return err
}

func addressCall(ctx context.Context, c *Client, method, path string, addr types.Address) (types.Address, error) {
	payload, err := call[addressPayload](ctx, c, method, path, addr)
	if err != nil {
		return types.Address{}, err
	}
	projected, ok := payload.project()
	if !ok {
		return types.Address{}, pkgerrors.New(pkgerrors.CodeDecode, "address has no id")
	}
	return projected, nil
}

// Favourites lists the shopper's favourites.
func (c *Client) Favourites(ctx context.Context) ([]types.Favourite, error) {
	payloads, err := call[[]favouritePayload](ctx, c, http.MethodGet, "/api/favourites", nil)
	if err != nil {
		return nil, err
	}
	return projectFavourites(payloads), nil
}

// AddFavourite saves a product as favourite and returns the updated list.
func (c *Client) AddFavourite(ctx context.Context, productID string) ([]types.Favourite, error) {
	payloads, err := call[[]favouritePayload](ctx, c, http.MethodPost, "/api/favourites", favouriteRequest{ProductID: productID})
	if err != nil {
		return nil, err
	}
	return projectFavourites(payloads), nil
}

// RemoveFavourite drops a favourite.
func (c *Client) RemoveFavourite(ctx context.Context, productID string) error {
	_, err := call[json.RawMessage](ctx, c, http.MethodDelete, "/api/favourites/"+escape(productID), nil)
	return err
}

// Offers lists active offers.
func (c *Client) Offers(ctx context.Context) ([]types.Offer, error) {
	payloads, err := call[[]offerPayload](ctx, c, http.MethodGet, "/api/offers", nil)
	if err != nil {
		return nil, err
	}
	return projectOffers(payloads), nil
}

// MarkNotificationRead flags one notification as read on the server.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	_, err := call[json.RawMessage](ctx, c, http.MethodPut, "/api/notifications/"+escape(id)+"/read", nil)
	return err
}

// MarkAllNotificationsRead flags every notification as read on the server.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	_, err := call[json.RawMessage](ctx, c, http.MethodPut, "/api/notifications/read-all", nil)
	return err
}
