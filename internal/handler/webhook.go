package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/tobiloba/kudiwallet/internal/response"
	"github.com/tobiloba/kudiwallet/internal/wallet"
)

const paystackSignatureHeader = "X-Paystack-Signature"

// HandlePaystackWebhook receives gateway events. The signature is checked
// over the exact raw body before anything is parsed; an invalid signature
// gets a 401 with no detail. Paystack retries anything that isn't a 2xx,
// so every recognized event is answered 200 even when the reference is
// unknown to us.
func (h *RouteHandler) HandlePaystackWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1_048_576))
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	signature := r.Header.Get(paystackSignatureHeader)

	err = h.Wallet.HandleWebhook(r.Context(), signature, payload)
	if err != nil {
		switch {
		case errors.Is(err, wallet.ErrInvalidWebhookSignature):
			response.JSONErrorResponse(w, nil, "Invalid signature", http.StatusUnauthorized, nil)

		case errors.Is(err, wallet.ErrInvalidWebhookPayload):
			response.JSONErrorResponse(w, nil, "Invalid payload", http.StatusBadRequest, nil)

		default:
			h.ErrHandler.ServerError(w, r, err)
		}
		return
	}

	err = response.JSONOkResponse(w, nil, "Webhook processed", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
