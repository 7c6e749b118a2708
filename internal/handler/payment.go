package handler

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/tobiloba/kudiwallet/internal/context"
	"github.com/tobiloba/kudiwallet/internal/models"
	"github.com/tobiloba/kudiwallet/internal/money"
	"github.com/tobiloba/kudiwallet/internal/repository"
	"github.com/tobiloba/kudiwallet/internal/request"
	"github.com/tobiloba/kudiwallet/internal/response"
	"github.com/tobiloba/kudiwallet/internal/validator"
)

func (h *RouteHandler) HandleInitiateFunding(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	var input struct {
		Amount    int64               `json:"amount"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(input.Amount > 0, "Amount must be greater than zero")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	amount, err := money.FromKobo(input.Amount)
	if err != nil {
		h.ErrHandler.FailedValidation(w, r, []string{err.Error()})
		return
	}

	intent, err := h.Wallet.InitiateFunding(r.Context(), user.ID, amount)
	if err != nil {
		h.respondLedgerError(w, r, err)
		return
	}

	message := "Funding initiated, complete payment at the authorization URL"

	data := map[string]any{
		"reference":         intent.Reference,
		"authorization_url": intent.AuthorizationURL,
	}

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *RouteHandler) HandleDepositStatus(w http.ResponseWriter, r *http.Request) {
	reference := r.PathValue("reference")

	refresh := r.URL.Query().Get("refresh") == "true"

	status, err := h.Wallet.GetDepositStatus(r.Context(), reference, refresh)
	if err != nil {
		h.respondLedgerError(w, r, err)
		return
	}

	message := "Deposit status fetched successfully"

	data := map[string]any{
		"reference": status.Reference,
		"status":    status.Status,
		"amount":    status.Amount.Kobo(),
	}
	if status.PaidAt != nil {
		data["paid_at"] = status.PaidAt.Format(time.RFC3339)
	}

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleApiInitiatePayment creates a payment intent on behalf of an API
// key holder. These payments carry the api_payment purpose and never
// credit a wallet; merchants reconcile them via the deposit status
// endpoint and webhooks.
func (h *RouteHandler) HandleApiInitiatePayment(w http.ResponseWriter, r *http.Request) {
	apiKey := context.ContextGetApiKey(r)

	var input struct {
		Amount    int64               `json:"amount"`
		Email     string              `json:"email"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(input.Amount > 0, "Amount must be greater than zero")
	input.Validator.Check(validator.NotBlank(input.Email), "Email is required")
	input.Validator.Check(validator.IsEmail(input.Email), "Must be a valid email address")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	amount, err := money.FromKobo(input.Amount)
	if err != nil {
		h.ErrHandler.FailedValidation(w, r, []string{err.Error()})
		return
	}

	reference, err := money.GenerateReference()
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	res, err := h.Wallet.InitializePayment(r.Context(), reference, amount, input.Email)
	if err != nil {
		h.respondLedgerError(w, r, err)
		return
	}

	_, err = h.DB.Transaction().Insert(&models.Transaction{
		Reference:        reference,
		Amount:           amount,
		Purpose:          repository.TransactionPurposeApiPayment,
		AuthorizationURL: sql.NullString{String: res.AuthorizationURL, Valid: true},
		UserID:           sql.NullString{String: apiKey.UserID, Valid: apiKey.UserID != ""},
	}, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	message := "Payment initiated"

	data := map[string]any{
		"reference":         reference,
		"authorization_url": res.AuthorizationURL,
	}

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *RouteHandler) HandleListPayments(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	limit := queryLimit(r)
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	payments, err := h.DB.Transaction().ListByUser(user.ID, limit)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	type paymentData struct {
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
		Status    string `json:"status"`
		Purpose   string `json:"purpose"`
		PaidAt    string `json:"paid_at,omitempty"`
		CreatedAt string `json:"created_at"`
	}

	data := make([]paymentData, 0, len(payments))
	for _, payment := range payments {
		pd := paymentData{
			Reference: payment.Reference,
			Amount:    payment.Amount.Kobo(),
			Status:    payment.Status,
			Purpose:   payment.Purpose,
			CreatedAt: payment.CreatedAt.Format(time.RFC3339),
		}
		if payment.PaidAt.Valid {
			pd.PaidAt = payment.PaidAt.Time.Format(time.RFC3339)
		}
		data = append(data, pd)
	}

	message := "Payments fetched successfully"

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
