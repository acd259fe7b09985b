// Package commands is the write surface offered to the UI. Every command talks
// to the backend, folds the answer into the store and reports the outcome as a
// Result; nothing here panics or leaves an error unreturned.
package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-sync/internal/backend"
	"github.com/angelmondragon/storefront-sync/internal/cart"
	"github.com/angelmondragon/storefront-sync/internal/checkout"
	"github.com/angelmondragon/storefront-sync/internal/payment"
	"github.com/angelmondragon/storefront-sync/internal/store"
	pkgerrors "github.com/angelmondragon/storefront-sync/pkg/errors"
	"github.com/angelmondragon/storefront-sync/pkg/logger"
	"github.com/angelmondragon/storefront-sync/pkg/types"
)

// Result is the outcome of a command. Err is nil on success.
type Result[T any] struct {
	Data T
	Err  error
}

// OK reports whether the command succeeded.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

func ok[T any](data T) Result[T] {
	return Result[T]{Data: data}
}

func fail[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// Backend is the subset of the backend client the commands call.
type Backend interface {
	Cart(ctx context.Context) (*cart.Payload, error)
	AddCartItem(ctx context.Context, req backend.CartItemRequest) (*cart.Payload, error)
	UpdateCartItem(ctx context.Context, cartLineID string, quantity int) (*cart.Payload, error)
	RemoveCartItem(ctx context.Context, cartLineID string) (*cart.Payload, error)
	ClearCart(ctx context.Context) (*cart.Payload, error)

	CreateAddress(ctx context.Context, addr types.Address) (types.Address, error)
	UpdateAddress(ctx context.Context, addr types.Address) (types.Address, error)
	DeleteAddress(ctx context.Context, addressID string) error
	SetDefaultAddress(ctx context.Context, addressID string) error

	AddFavourite(ctx context.Context, productID string) ([]types.Favourite, error)
	RemoveFavourite(ctx context.Context, productID string) error

	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error

	CreateOrder(ctx context.Context, req backend.CreateOrderRequest) (types.Order, error)
	CreatePaymentIntent(ctx context.Context, orderID string) (backend.PaymentIntent, error)
	ConfirmPayment(ctx context.Context, req backend.PaymentConfirmation) (types.Order, error)
}

// Payer runs the payment widget for an intent.
type Payer interface {
	Pay(ctx context.Context, intent payment.Intent, order types.Order, profile *types.Profile) (payment.Success, error)
}

// Service executes commands against one store.
type Service struct {
	store   *store.Store
	backend Backend
	payer   Payer
	policy  checkout.Policy
	logg    *logger.Logger

	placement *placement
}

// Option customizes a Service.
type Option func(*Service)

// WithPolicy overrides the default checkout policy.
func WithPolicy(policy checkout.Policy) Option {
	return func(s *Service) {
		s.policy = policy
	}
}

// WithLogger attaches a logger.
func WithLogger(logg *logger.Logger) Option {
	return func(s *Service) {
		if logg != nil {
			s.logg = logg
		}
	}
}

// NewService wires the command façade.
func NewService(st *store.Store, be Backend, payer Payer, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	if be == nil {
		return nil, fmt.Errorf("backend is required")
	}
	if payer == nil {
		return nil, fmt.Errorf("payer is required")
	}
	s := &Service{
		store:     st,
		backend:   be,
		payer:     payer,
		policy:    checkout.DefaultPolicy(),
		logg:      logger.Nop(),
		placement: newPlacement(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Cart.

// AddToCart adds quantity of a product, optionally a specific variant.
func (s *Service) AddToCart(ctx context.Context, productID string, quantity int, variant map[string]string) Result[[]types.CartLine] {
	session := s.store.Session()
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return fail[[]types.CartLine](pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
	}
	if quantity < 1 {
		quantity = 1
	}
	payload, err := s.backend.AddCartItem(ctx, backend.CartItemRequest{
		ProductID:         productID,
		Quantity:          quantity,
		VariantAttributes: variant,
	})
	return s.foldCart(ctx, session, "add to cart", payload, err)
}

// UpdateCartLine sets a line's quantity. A quantity below one removes the
// line.
func (s *Service) UpdateCartLine(ctx context.Context, cartLineID string, quantity int) Result[[]types.CartLine] {
	session := s.store.Session()
	if strings.TrimSpace(cartLineID) == "" {
		return fail[[]types.CartLine](pkgerrors.New(pkgerrors.CodeValidation, "cart line id is required"))
	}
	if quantity < 1 {
		return s.RemoveCartLine(ctx, cartLineID)
	}
	payload, err := s.backend.UpdateCartItem(ctx, cartLineID, quantity)
	return s.foldCart(ctx, session, "update cart line", payload, err)
}

// RemoveCartLine deletes a line.
func (s *Service) RemoveCartLine(ctx context.Context, cartLineID string) Result[[]types.CartLine] {
	session := s.store.Session()
	if strings.TrimSpace(cartLineID) == "" {
		return fail[[]types.CartLine](pkgerrors.New(pkgerrors.CodeValidation, "cart line id is required"))
	}
	payload, err := s.backend.RemoveCartItem(ctx, cartLineID)
	return s.foldCart(ctx, session, "remove cart line", payload, err)
}

// ClearCart empties the cart.
func (s *Service) ClearCart(ctx context.Context) Result[[]types.CartLine] {
	session := s.store.Session()
	payload, err := s.backend.ClearCart(ctx)
	return s.foldCart(ctx, session, "clear cart", payload, err)
}

// RefreshCart replaces the cached cart with the server's.
func (s *Service) RefreshCart(ctx context.Context) Result[[]types.CartLine] {
	session := s.store.Session()
	payload, err := s.backend.Cart(ctx)
	return s.foldCart(ctx, session, "refresh cart", payload, err)
}

func (s *Service) foldCart(ctx context.Context, session uint64, op string, payload *cart.Payload, err error) Result[[]types.CartLine] {
	if err != nil {
		s.logg.Warn(s.logg.WithCommand(ctx, op), fmt.Sprintf("%s failed: %v", op, err))
		return fail[[]types.CartLine](err)
	}
	next, err := s.fold(ctx, session, op, store.SetCart{Lines: cart.Project(payload)})
	if err != nil {
		return fail[[]types.CartLine](err)
	}
	return ok(next.Cart)
}

// fold applies actions only while the store is still in the session the
// command started in. A sign-in or sign-out in between discards them.
func (s *Service) fold(ctx context.Context, session uint64, op string, actions ...store.Action) (store.State, error) {
	next, applied := s.store.DispatchIf(func(state store.State) bool {
		return state.Session == session
	}, actions...)
	if !applied {
		s.logg.Info(s.logg.WithCommand(ctx, op), "session changed, result discarded")
		return next, pkgerrors.New(pkgerrors.CodeStateConflict, "session changed before "+op+" completed")
	}
	return next, nil
}

// Addresses.

// AddAddress validates and saves a new address.
func (s *Service) AddAddress(ctx context.Context, addr types.Address) Result[types.Address] {
	session := s.store.Session()
	if err := validateAddress(addr); err != nil {
		return fail[types.Address](err)
	}
	saved, err := s.backend.CreateAddress(ctx, addr)
	if err != nil {
		return fail[types.Address](err)
	}
	if _, err := s.fold(ctx, session, "add address", store.AddAddress{Address: saved}); err != nil {
		return fail[types.Address](err)
	}
	return ok(saved)
}

// UpdateAddress validates and replaces a saved address.
func (s *Service) UpdateAddress(ctx context.Context, addr types.Address) Result[types.Address] {
	session := s.store.Session()
	if strings.TrimSpace(addr.AddressID) == "" {
		return fail[types.Address](pkgerrors.New(pkgerrors.CodeValidation, "address id is required"))
	}
	if err := validateAddress(addr); err != nil {
		return fail[types.Address](err)
	}
	saved, err := s.backend.UpdateAddress(ctx, addr)
	if err != nil {
		return fail[types.Address](err)
	}
	if _, err := s.fold(ctx, session, "update address", store.UpdateAddress{Address: saved}); err != nil {
		return fail[types.Address](err)
	}
	return ok(saved)
}

// DeleteAddress removes a saved address.
func (s *Service) DeleteAddress(ctx context.Context, addressID string) Result[string] {
	session := s.store.Session()
	if strings.TrimSpace(addressID) == "" {
		return fail[string](pkgerrors.New(pkgerrors.CodeValidation, "address id is required"))
	}
	if err := s.backend.DeleteAddress(ctx, addressID); err != nil {
		return fail[string](err)
	}
	if _, err := s.fold(ctx, session, "delete address", store.DeleteAddress{AddressID: addressID}); err != nil {
		return fail[string](err)
	}
	return ok(addressID)
}

// SetDefaultAddress makes addressID the only default address.
func (s *Service) SetDefaultAddress(ctx context.Context, addressID string) Result[string] {
	session := s.store.Session()
	if strings.TrimSpace(addressID) == "" {
		return fail[string](pkgerrors.New(pkgerrors.CodeValidation, "address id is required"))
	}
	if err := s.backend.SetDefaultAddress(ctx, addressID); err != nil {
		return fail[string](err)
	}
	if _, err := s.fold(ctx, session, "set default address", store.SetDefaultAddress{AddressID: addressID}); err != nil {
		return fail[string](err)
	}
	return ok(addressID)
}

// Favourites.

// AddFavourite saves a product and replaces the cached favourites with the
// server's list.
func (s *Service) AddFavourite(ctx context.Context, productID string) Result[[]types.Favourite] {
	session := s.store.Session()
	if strings.TrimSpace(productID) == "" {
		return fail[[]types.Favourite](pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
	}
	favourites, err := s.backend.AddFavourite(ctx, productID)
	if err != nil {
		return fail[[]types.Favourite](err)
	}
	next, err := s.fold(ctx, session, "add favourite", store.SetFavourites{Favourites: favourites})
	if err != nil {
		return fail[[]types.Favourite](err)
	}
	return ok(next.Favourites)
}

// RemoveFavourite drops a product from favourites.
func (s *Service) RemoveFavourite(ctx context.Context, productID string) Result[[]types.Favourite] {
	session := s.store.Session()
	if strings.TrimSpace(productID) == "" {
		return fail[[]types.Favourite](pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
	}
	if err := s.backend.RemoveFavourite(ctx, productID); err != nil {
		return fail[[]types.Favourite](err)
	}
	next, err := s.fold(ctx, session, "remove favourite", store.RemoveFavourite{ProductID: productID})
	if err != nil {
		return fail[[]types.Favourite](err)
	}
	return ok(next.Favourites)
}

// Notifications.

// MarkNotificationRead flags a notification as read. Notifications raised
// locally (welcome, offers, poll results) are unknown to the server, so a
// NOT_FOUND answer still counts as success.
func (s *Service) MarkNotificationRead(ctx context.Context, id string) Result[int] {
	session := s.store.Session()
	if strings.TrimSpace(id) == "" {
		return fail[int](pkgerrors.New(pkgerrors.CodeValidation, "notification id is required"))
	}
	if err := s.backend.MarkNotificationRead(ctx, id); err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return fail[int](err)
	}
	next, err := s.fold(ctx, session, "mark notification read", store.MarkNotificationRead{ID: id})
	if err != nil {
		return fail[int](err)
	}
	return ok(next.UnreadCount())
}

// MarkAllNotificationsRead flags every notification as read.
func (s *Service) MarkAllNotificationsRead(ctx context.Context) Result[int] {
	session := s.store.Session()
	if err := s.backend.MarkAllNotificationsRead(ctx); err != nil {
		return fail[int](err)
	}
	next, err := s.fold(ctx, session, "mark all notifications read", store.MarkAllNotificationsRead{})
	if err != nil {
		return fail[int](err)
	}
	return ok(next.UnreadCount())
}
