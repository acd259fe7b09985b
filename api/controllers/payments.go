package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-sync/api/responses"
	"github.com/angelmondragon/storefront-sync/api/validators"
	"github.com/angelmondragon/storefront-sync/internal/payment"
	"github.com/angelmondragon/storefront-sync/pkg/logger"
)

// PaymentRelay hands open widget checkouts to the UI and takes back their
// outcome. *payment.Relay satisfies it.
type PaymentRelay interface {
	Pending() []payment.Checkout
	Complete(orderID string, success payment.Success) error
	Cancel(orderID string) error
	Reject(orderID, reason string) error
}

type completePaymentRequest struct {
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	OrderID   string `json:"razorpay_order_id,omitempty"`
	Signature string `json:"razorpay_signature" validate:"required"`
}

type rejectPaymentRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

func PaymentsPending(relay PaymentRelay) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, relay.Pending())
	}
}

func PaymentComplete(relay PaymentRelay, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req completePaymentRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID := chi.URLParam(r, "gatewayOrderId")
		err := relay.Complete(orderID, payment.Success{
			PaymentID: req.PaymentID,
			OrderID:   req.OrderID,
			Signature: req.Signature,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{"status": "submitted"})
	}
}

func PaymentCancel(relay PaymentRelay, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := relay.Cancel(chi.URLParam(r, "gatewayOrderId")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{"status": "cancelled"})
	}
}

// PaymentReject accepts an optional {"reason"} body.
func PaymentReject(relay PaymentRelay, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req rejectPaymentRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(w, r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		if err := relay.Reject(chi.URLParam(r, "gatewayOrderId"), req.Reason); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{"status": "rejected"})
	}
}
