package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-sync/internal/backend"
	"github.com/angelmondragon/storefront-sync/internal/cart"
	"github.com/angelmondragon/storefront-sync/internal/checkout"
	"github.com/angelmondragon/storefront-sync/internal/payment"
	"github.com/angelmondragon/storefront-sync/internal/store"
	"github.com/angelmondragon/storefront-sync/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-sync/pkg/errors"
	"github.com/angelmondragon/storefront-sync/pkg/types"
)

type fakeBackend struct {
	cart       *cart.Payload
	cartErr    error
	favourites []types.Favourite

	markReadErr error

	createOrderErr error
	intent         backend.PaymentIntent
	intentErr      error
	confirmErr     error

	createdOrders []backend.CreateOrderRequest
	confirmations []backend.PaymentConfirmation

	// inFlight runs while a cart or address call is outstanding.
	inFlight func()
}

func (f *fakeBackend) during() {
	if f.inFlight != nil {
		f.inFlight()
	}
}

func (f *fakeBackend) Cart(context.Context) (*cart.Payload, error) { return f.cart, f.cartErr }
func (f *fakeBackend) AddCartItem(context.Context, backend.CartItemRequest) (*cart.Payload, error) {
	f.during()
	return f.cart, f.cartErr
}
func (f *fakeBackend) UpdateCartItem(context.Context, string, int) (*cart.Payload, error) {
	return f.cart, f.cartErr
}
func (f *fakeBackend) RemoveCartItem(context.Context, string) (*cart.Payload, error) {
	return &cart.Payload{}, f.cartErr
}
func (f *fakeBackend) ClearCart(context.Context) (*cart.Payload, error) {
	return &cart.Payload{}, f.cartErr
}
func (f *fakeBackend) CreateAddress(_ context.Context, addr types.Address) (types.Address, error) {
	f.during()
	addr.AddressID = "a-new"
	return addr, nil
}
func (f *fakeBackend) UpdateAddress(_ context.Context, addr types.Address) (types.Address, error) {
	return addr, nil
}
func (f *fakeBackend) DeleteAddress(context.Context, string) error     { return nil }
func (f *fakeBackend) SetDefaultAddress(context.Context, string) error { return nil }
func (f *fakeBackend) AddFavourite(context.Context, string) ([]types.Favourite, error) {
	return f.favourites, nil
}
func (f *fakeBackend) RemoveFavourite(context.Context, string) error { return nil }
func (f *fakeBackend) MarkNotificationRead(context.Context, string) error {
	return f.markReadErr
}
func (f *fakeBackend) MarkAllNotificationsRead(context.Context) error { return nil }
func (f *fakeBackend) CreateOrder(_ context.Context, req backend.CreateOrderRequest) (types.Order, error) {
	f.createdOrders = append(f.createdOrders, req)
	if f.createOrderErr != nil {
		return types.Order{}, f.createOrderErr
	}
	return types.Order{OrderID: "o1", OrderNumber: "1001", Status: "pending"}, nil
}
func (f *fakeBackend) CreatePaymentIntent(context.Context, string) (backend.PaymentIntent, error) {
	return f.intent, f.intentErr
}
func (f *fakeBackend) ConfirmPayment(_ context.Context, req backend.PaymentConfirmation) (types.Order, error) {
	f.confirmations = append(f.confirmations, req)
	if f.confirmErr != nil {
		return types.Order{}, f.confirmErr
	}
	return types.Order{OrderID: "o1", OrderNumber: "1001", Status: "confirmed", PaymentStatus: enums.PaymentStatus("partial")}, nil
}

type fakePayer struct {
	err    error
	calls  int
	paying func()
}

func (f *fakePayer) Pay(_ context.Context, intent payment.Intent, _ types.Order, _ *types.Profile) (payment.Success, error) {
	f.calls++
	if f.paying != nil {
		f.paying()
	}
	if f.err != nil {
		return payment.Success{}, f.err
	}
	return payment.Success{PaymentID: "pay_1", OrderID: intent.GatewayOrderID, Signature: "sig"}, nil
}

func readyState() store.State {
	state := store.Empty()
	state.Authenticated = true
	state.Profile = &types.Profile{UserID: "u1", Name: "Asha"}
	state.VendorAvailability = &types.VendorAvailability{VendorAvailable: true, CanPlaceOrder: true}
	state.Cart = []types.CartLine{{CartLineID: "l1", ProductID: "p1", UnitPrice: decimal.NewFromInt(1000), Quantity: 2}}
	state.Addresses = []types.Address{{AddressID: "a1", Street: "MG Road", City: "Pune", State: "MH", Pincode: "411001", IsDefault: true}}
	return state
}

func validIntent() backend.PaymentIntent {
	return backend.PaymentIntent{RazorpayOrderID: "rzp_1", KeyID: "key", Amount: decimal.NewFromInt(600), Currency: "INR"}
}

func newService(t *testing.T, state store.State, be *fakeBackend, payer *fakePayer) (*Service, *store.Store) {
	t.Helper()
	st := store.New(store.WithInitialState(state))
	svc, err := NewService(st, be, payer)
	require.NoError(t, err)
	return svc, st
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, &fakeBackend{}, &fakePayer{})
	assert.Error(t, err)
	_, err = NewService(store.New(), nil, &fakePayer{})
	assert.Error(t, err)
	_, err = NewService(store.New(), &fakeBackend{}, nil)
	assert.Error(t, err)
}

func TestCartCommandsFoldProjection(t *testing.T) {
	price := decimal.NewFromInt(150)
	be := &fakeBackend{cart: &cart.Payload{Items: []cart.Item{
		{ID: "l1", ProductID: "p1", Quantity: 2, UnitPrice: &price},
		{ID: "l2", Quantity: 1},
	}}}
	svc, st := newService(t, store.Empty(), be, &fakePayer{})
	ctx := context.Background()

	res := svc.AddToCart(ctx, "p1", 2, nil)
	require.True(t, res.OK())
	require.Len(t, res.Data, 1)
	assert.Equal(t, "l1", st.Snapshot().Cart[0].CartLineID)

	res = svc.UpdateCartLine(ctx, "l1", 0)
	require.NoError(t, res.Err)
	assert.Empty(t, st.Snapshot().Cart)

	res = svc.AddToCart(ctx, " ", 1, nil)
	assert.True(t, pkgerrors.IsCode(res.Err, pkgerrors.CodeValidation))
}

func TestCartFailureLeavesStoreUntouched(t *testing.T) {
	be := &fakeBackend{cartErr: pkgerrors.New(pkgerrors.CodeDependency, "down")}
	state := readyState()
	svc, st := newService(t, state, be, &fakePayer{})
	before := st.Version()

	res := svc.RefreshCart(context.Background())
	require.Error(t, res.Err)
	assert.Equal(t, before, st.Version())
	assert.Len(t, st.Snapshot().Cart, 1)
}

func TestCommandResultAfterSignOutIsDiscarded(t *testing.T) {
	price := decimal.NewFromInt(150)
	be := &fakeBackend{cart: &cart.Payload{Items: []cart.Item{
		{ID: "l9", ProductID: "p9", Quantity: 3, UnitPrice: &price},
	}}}
	svc, st := newService(t, readyState(), be, &fakePayer{})
	be.inFlight = func() { st.Dispatch(store.Logout{}) }
	ctx := context.Background()

	res := svc.AddToCart(ctx, "p9", 3, nil)
	require.Error(t, res.Err)
	assert.True(t, pkgerrors.IsCode(res.Err, pkgerrors.CodeStateConflict))
	snap := st.Snapshot()
	assert.False(t, snap.Authenticated)
	assert.Empty(t, snap.Cart)

	addr := svc.AddAddress(ctx, types.Address{Street: "FC Road", City: "Pune", State: "MH", Pincode: "411004"})
	assert.True(t, pkgerrors.IsCode(addr.Err, pkgerrors.CodeStateConflict))
	assert.Len(t, st.Snapshot().Addresses, 1)

	be.inFlight = nil
	res = svc.AddToCart(ctx, "p9", 3, nil)
	require.NoError(t, res.Err)
	assert.Len(t, st.Snapshot().Cart, 1)
}

func TestAddAddressValidates(t *testing.T) {
	svc, st := newService(t, store.Empty(), &fakeBackend{}, &fakePayer{})
	ctx := context.Background()

	res := svc.AddAddress(ctx, types.Address{Street: "MG Road", City: "Pune", State: "MH", Pincode: "4110", Phone: "12ab"})
	require.Error(t, res.Err)
	assert.True(t, pkgerrors.IsCode(res.Err, pkgerrors.CodeValidation))
	details, ok := pkgerrors.As(res.Err).Details().(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details, "pincode")
	assert.Contains(t, details, "phone")
	assert.Empty(t, st.Snapshot().Addresses)

	res = svc.AddAddress(ctx, types.Address{Street: "MG Road", City: "Pune", State: "MH", Pincode: "411001", Phone: "9876543210", IsDefault: true})
	require.NoError(t, res.Err)
	assert.Equal(t, "a-new", res.Data.AddressID)
	def, found := st.Snapshot().DefaultAddress()
	require.True(t, found)
	assert.Equal(t, "a-new", def.AddressID)
}

func TestFavouritesAndNotifications(t *testing.T) {
	state := store.Empty()
	state.Notifications = []types.Notification{{ID: "local-1", Title: "Welcome"}, {ID: "n2", Title: "Offer"}}
	be := &fakeBackend{
		favourites:  []types.Favourite{{ProductID: "p1"}},
		markReadErr: pkgerrors.New(pkgerrors.CodeNotFound, "no such notification"),
	}
	svc, st := newService(t, state, be, &fakePayer{})
	ctx := context.Background()

	fav := svc.AddFavourite(ctx, "p1")
	require.NoError(t, fav.Err)
	assert.Len(t, st.Snapshot().Favourites, 1)

	read := svc.MarkNotificationRead(ctx, "local-1")
	require.NoError(t, read.Err)
	assert.Equal(t, 1, read.Data)

	be.markReadErr = pkgerrors.New(pkgerrors.CodeDependency, "down")
	read = svc.MarkNotificationRead(ctx, "n2")
	require.Error(t, read.Err)
	assert.Equal(t, 1, st.Snapshot().UnreadCount())

	all := svc.MarkAllNotificationsRead(ctx)
	require.NoError(t, all.Err)
	assert.Zero(t, all.Data)
}

func TestBuildPreviewIsLocal(t *testing.T) {
	be := &fakeBackend{}
	svc, st := newService(t, readyState(), be, &fakePayer{})
	before := st.Version()

	res := svc.BuildPreview(enums.PaymentPreferencePartial, checkout.Shipping{})
	require.NoError(t, res.Err)
	assert.Equal(t, enums.PlacementPreviewBuilt, res.Data.State)
	assert.True(t, res.Data.Eligibility.Eligible)
	assert.True(t, res.Data.Quote.Total.Equal(decimal.NewFromInt(2000)))
	assert.True(t, res.Data.Quote.Advance.Equal(decimal.NewFromInt(600)))
	assert.Equal(t, before, st.Version())
	assert.Empty(t, be.createdOrders)
}

func TestPlaceOrderHappyPath(t *testing.T) {
	be := &fakeBackend{intent: validIntent()}
	svc, st := newService(t, readyState(), be, &fakePayer{})
	ctx := context.Background()

	require.NoError(t, svc.BuildPreview(enums.PaymentPreferencePartial, checkout.Shipping{}).Err)
	res := svc.PlaceOrder(ctx)
	require.NoError(t, res.Err)
	assert.Equal(t, enums.PlacementPaymentConfirmed, res.Data.State)
	assert.Equal(t, "pay_1", res.Data.PaymentID)

	snap := st.Snapshot()
	assert.Empty(t, snap.Cart)
	order, found := snap.Order("o1")
	require.True(t, found)
	assert.Equal(t, "confirmed", order.Status)

	require.Len(t, be.createdOrders, 1)
	assert.Equal(t, "a1", be.createdOrders[0].AddressID)
	assert.True(t, be.createdOrders[0].UpfrontAmount.Equal(decimal.NewFromInt(600)))
	require.Len(t, be.confirmations, 1)
	assert.Equal(t, "rzp_1", be.confirmations[0].RazorpayOrderID)

	svc.ResetPlacement()
	assert.Equal(t, enums.PlacementIdle, svc.PlacementState())
}

func TestPlaceOrderAfterSignOutLeavesGuestStore(t *testing.T) {
	be := &fakeBackend{intent: validIntent()}
	payer := &fakePayer{}
	svc, st := newService(t, readyState(), be, payer)
	payer.paying = func() { st.Dispatch(store.Logout{}) }

	require.NoError(t, svc.BuildPreview(enums.PaymentPreferencePartial, checkout.Shipping{}).Err)
	res := svc.PlaceOrder(context.Background())
	require.NoError(t, res.Err)
	assert.Equal(t, enums.PlacementPaymentConfirmed, res.Data.State)

	order, found := st.Snapshot().Order("o1")
	require.True(t, found)
	assert.Equal(t, "pending", order.Status, "confirmation must not land in the next session")
}

func TestPlaceOrderRequiresPreview(t *testing.T) {
	svc, _ := newService(t, readyState(), &fakeBackend{}, &fakePayer{})
	res := svc.PlaceOrder(context.Background())
	assert.True(t, pkgerrors.IsCode(res.Err, pkgerrors.CodeStateConflict))
	assert.Equal(t, enums.PlacementIdle, res.Data.State)
}

func TestPlaceOrderRechecksGates(t *testing.T) {
	be := &fakeBackend{intent: validIntent()}
	svc, st := newService(t, readyState(), be, &fakePayer{})

	require.NoError(t, svc.BuildPreview(enums.PaymentPreferencePartial, checkout.Shipping{}).Err)
	st.Dispatch(store.SetVendorAvailability{Availability: types.VendorAvailability{}})

	res := svc.PlaceOrder(context.Background())
	require.Error(t, res.Err)
	assert.True(t, pkgerrors.IsCode(res.Err, pkgerrors.CodeCheckoutBlocked))
	assert.Equal(t, enums.PlacementPreviewBuilt, svc.PlacementState())
	assert.Empty(t, be.createdOrders)
}

func TestPlaceOrderFailuresKeepCart(t *testing.T) {
	cases := []struct {
		name  string
		be    *fakeBackend
		payer *fakePayer
		state enums.PlacementState
	}{
		{"order creation", &fakeBackend{createOrderErr: errors.New("boom")}, &fakePayer{}, enums.PlacementOrderCreationFailed},
		{"intent error", &fakeBackend{intentErr: errors.New("boom")}, &fakePayer{}, enums.PlacementPaymentFailed},
		{"zero amount intent", &fakeBackend{intent: backend.PaymentIntent{RazorpayOrderID: "rzp_1", KeyID: "key"}}, &fakePayer{}, enums.PlacementPaymentFailed},
		{"gateway cancelled", &fakeBackend{intent: validIntent()}, &fakePayer{err: payment.ErrCancelled}, enums.PlacementPaymentFailed},
		{"gateway rejected", &fakeBackend{intent: validIntent()}, &fakePayer{err: errors.New("declined")}, enums.PlacementPaymentFailed},
		{"confirmation error", &fakeBackend{intent: validIntent(), confirmErr: errors.New("timeout")}, &fakePayer{}, enums.PlacementPaymentFailed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, st := newService(t, readyState(), tc.be, tc.payer)
			require.NoError(t, svc.BuildPreview(enums.PaymentPreferenceFull, checkout.Shipping{}).Err)

			res := svc.PlaceOrder(context.Background())
			require.Error(t, res.Err)
			assert.Equal(t, tc.state, res.Data.State)
			assert.Equal(t, tc.state, svc.PlacementState())
			assert.Len(t, st.Snapshot().Cart, 1)
			if tc.state == enums.PlacementPaymentFailed {
				assert.True(t, pkgerrors.IsCode(res.Err, pkgerrors.CodePaymentFailed))
			}

			// a finished flow can start over from a new preview
			assert.Equal(t, enums.PlacementPreviewBuilt, svc.BuildPreview(enums.PaymentPreferenceFull, checkout.Shipping{}).Data.State)
		})
	}
}
