package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-sync/api/responses"
	"github.com/angelmondragon/storefront-sync/api/validators"
	"github.com/angelmondragon/storefront-sync/internal/checkout"
	"github.com/angelmondragon/storefront-sync/internal/commands"
	"github.com/angelmondragon/storefront-sync/pkg/enums"
	"github.com/angelmondragon/storefront-sync/pkg/logger"
	"github.com/angelmondragon/storefront-sync/pkg/types"
)

// Commands is the intent surface of the command service.
type Commands interface {
	AddToCart(ctx context.Context, productID string, quantity int, variant map[string]string) commands.Result[[]types.CartLine]
	UpdateCartLine(ctx context.Context, cartLineID string, quantity int) commands.Result[[]types.CartLine]
	RemoveCartLine(ctx context.Context, cartLineID string) commands.Result[[]types.CartLine]
	ClearCart(ctx context.Context) commands.Result[[]types.CartLine]
	RefreshCart(ctx context.Context) commands.Result[[]types.CartLine]

	AddAddress(ctx context.Context, addr types.Address) commands.Result[types.Address]
	UpdateAddress(ctx context.Context, addr types.Address) commands.Result[types.Address]
	DeleteAddress(ctx context.Context, addressID string) commands.Result[string]
	SetDefaultAddress(ctx context.Context, addressID string) commands.Result[string]

	AddFavourite(ctx context.Context, productID string) commands.Result[[]types.Favourite]
	RemoveFavourite(ctx context.Context, productID string) commands.Result[[]types.Favourite]

	MarkNotificationRead(ctx context.Context, id string) commands.Result[int]
	MarkAllNotificationsRead(ctx context.Context) commands.Result[int]

	BuildPreview(preference enums.PaymentPreference, shipping checkout.Shipping) commands.Result[commands.Preview]
	PlaceOrder(ctx context.Context) commands.Result[commands.Placement]
	PlacementState() enums.PlacementState
	ResetPlacement()
}

func writeResult[T any](w http.ResponseWriter, r *http.Request, logg *logger.Logger, res commands.Result[T]) {
	if res.Err != nil {
		responses.WriteError(r.Context(), logg, w, res.Err)
		return
	}
	responses.WriteSuccess(w, res.Data)
}

type addCartItemRequest struct {
	ProductID         string            `json:"productId" validate:"required"`
	Quantity          int               `json:"quantity" validate:"required,min=1"`
	VariantAttributes map[string]string `json:"variantAttributes,omitempty"`
}

type updateCartLineRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

func CartAddItem(cmds Commands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addCartItemRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeResult(w, r, logg, cmds.AddToCart(r.Context(), req.ProductID, req.Quantity, req.VariantAttributes))
	}
}

// CartUpdateItem sets a line's quantity; zero or less removes the line.
func CartUpdateItem(cmds Commands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateCartLineRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeResult(w, r, logg, cmds.UpdateCartLine(r.Context(), chi.URLParam(r, "cartLineId"), *req.Quantity))
	}
}

func CartRemoveItem(cmds Commands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, r, logg, cmds.RemoveCartLine(r.Context(), chi.URLParam(r, "cartLineId")))
	}
}

func CartClear(cmds Commands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, r, logg, cmds.ClearCart(r.Context()))
	}
}

func CartRefresh(cmds Commands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, r, logg, cmds.RefreshCart(r.Context()))
	}
}

// addressRequest carries no validation tags; the command service validates
// the address itself.
type addressRequest struct {
	Label     string `json:"label"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Pincode   string `json:"pincode"`
	Phone     string `json:"phone"`
	IsDefault bool   `json:"isDefault"`
}

func (a addressRequest) toAddress(id string) types.Address {
	return types.Address{
		AddressID: id,
		Label:     a.Label,
		Street:    a.Street,
		City:      a.City,
		State:     a.State,
		Pincode:   a.Pincode,
		Phone:     a.Phone,
		IsDefault: a.IsDefault,
	}
}

func AddressCreate(cmds Commands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addressRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		res := cmds.AddAddress(r.Context(), req.toAddress(""))
		if res.Err != nil {
			responses.WriteError(r.Context(), logg, w, res.Err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, res.Data)
	}
}

func AddressUpdate(cmds Commands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addressRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeResult(w, r, logg, cmds.UpdateAddress(r.Context(), req.toAddress(chi.URLParam(r, "addressId"))))
	}
}

func AddressDelete(cmds Commands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, r, logg, cmds.DeleteAddress(r.Context(), chi.URLParam(r, "addressId")))
	}
}

func AddressSetDefault(cmds Commands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, r, logg, cmds.SetDefaultAddress(r.Context(), chi.URLParam(r, "addressId")))
	}
}

func FavouriteAdd(cmds Commands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, r, logg, cmds.AddFavourite(r.Context(), chi.URLParam(r, "productId")))
	}
}

func FavouriteRemove(cmds Commands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, r, logg, cmds.RemoveFavourite(r.Context(), chi.URLParam(r, "productId")))
	}
}

type unreadResponse struct {
	UnreadCount int `json:"unreadCount"`
}

func MarkNotificationRead(cmds Commands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := cmds.MarkNotificationRead(r.Context(), chi.URLParam(r, "notificationId"))
		if res.Err != nil {
			responses.WriteError(r.Context(), logg, w, res.Err)
			return
		}
		responses.WriteSuccess(w, unreadResponse{UnreadCount: res.Data})
	}
}

func MarkAllNotificationsRead(cmds Commands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := cmds.MarkAllNotificationsRead(r.Context())
		if res.Err != nil {
			responses.WriteError(r.Context(), logg, w, res.Err)
			return
		}
		responses.WriteSuccess(w, unreadResponse{UnreadCount: res.Data})
	}
}
