package handler

import (
	"net/http"
	"time"

	"github.com/tobiloba/kudiwallet/internal/context"
	"github.com/tobiloba/kudiwallet/internal/models"
	"github.com/tobiloba/kudiwallet/internal/money"
	"github.com/tobiloba/kudiwallet/internal/request"
	"github.com/tobiloba/kudiwallet/internal/response"
	"github.com/tobiloba/kudiwallet/internal/validator"
)

type WalletResponseData struct {
	ID           string    `json:"id"`
	WalletNumber string    `json:"wallet_number"`
	Balance      int64     `json:"balance"`
	BalanceText  string    `json:"balance_text"`
	TotalFunded  int64     `json:"total_funded"`
	IsLocked     bool      `json:"is_locked"`
	CreatedAt    time.Time `json:"created_at"`
}

func newWalletResponseData(wallet *models.Wallet) *WalletResponseData {
	return &WalletResponseData{
		ID:           wallet.ID,
		WalletNumber: wallet.WalletNumber,
		Balance:      wallet.Balance.Kobo(),
		BalanceText:  wallet.Balance.String(),
		TotalFunded:  wallet.TotalFunded.Kobo(),
		IsLocked:     wallet.IsLocked,
		CreatedAt:    wallet.CreatedAt,
	}
}

func (h *RouteHandler) HandleWalletDetails(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	userWallet, err := h.Wallet.GetOrCreateWallet(r.Context(), user.ID)
	if err != nil {
		h.respondLedgerError(w, r, err)
		return
	}

	message := "Wallet fetched successfully"

	err = response.JSONOkResponse(w, newWalletResponseData(userWallet), message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *RouteHandler) HandleWalletBalance(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	balance, err := h.Wallet.GetBalance(r.Context(), user.ID)
	if err != nil {
		h.respondLedgerError(w, r, err)
		return
	}

	message := "Balance fetched successfully"

	data := map[string]any{
		"balance":      balance.Kobo(),
		"balance_text": balance.String(),
		"currency":     "NGN",
	}

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *RouteHandler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	var input struct {
		WalletNumber string              `json:"wallet_number"`
		Amount       int64               `json:"amount"`
		Description  string              `json:"description"`
		Validator    validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(input.Amount > 0, "Amount must be greater than zero")
	input.Validator.Check(validator.NotBlank(input.WalletNumber), "Wallet number is required")
	input.Validator.Check(validator.Matches(input.WalletNumber, validator.RgxWalletNumber), "Wallet number must be 13 digits")
	input.Validator.Check(validator.MaxRunes(input.Description, 140), "Description is too long")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	amount, err := money.FromKobo(input.Amount)
	if err != nil {
		h.ErrHandler.FailedValidation(w, r, []string{err.Error()})
		return
	}

	receipt, err := h.Wallet.TransferToUser(r.Context(), user.ID, input.WalletNumber, amount, input.Description)
	if err != nil {
		h.respondLedgerError(w, r, err)
		return
	}

	message := "Transfer completed successfully"

	data := map[string]any{
		"reference": receipt.Reference,
		"amount":    receipt.Amount.Kobo(),
		"status":    receipt.Status,
	}

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *RouteHandler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	var input struct {
		Amount        int64               `json:"amount"`
		AccountNumber string              `json:"account_number"`
		BankCode      string              `json:"bank_code"`
		Validator     validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(input.Amount > 0, "Amount must be greater than zero")
	input.Validator.Check(validator.NotBlank(input.AccountNumber), "Account number is required")
	input.Validator.Check(validator.Matches(input.AccountNumber, validator.RgxBankAccountNumber), "Account number must be 10 digits")
	input.Validator.Check(validator.NotBlank(input.BankCode), "Bank code is required")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	amount, err := money.FromKobo(input.Amount)
	if err != nil {
		h.ErrHandler.FailedValidation(w, r, []string{err.Error()})
		return
	}

	receipt, err := h.Wallet.InitiateWithdrawal(r.Context(), user.ID, amount, input.AccountNumber, input.BankCode)
	if err != nil {
		h.respondLedgerError(w, r, err)
		return
	}

	message := "Withdrawal initiated"

	data := map[string]any{
		"reference": receipt.Reference,
		"amount":    receipt.Amount.Kobo(),
		"status":    receipt.Status,
	}

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

type LedgerEntryResponseData struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Amount        int64     `json:"amount"`
	BalanceBefore int64     `json:"balance_before"`
	BalanceAfter  int64     `json:"balance_after"`
	Status        string    `json:"status"`
	Reference     string    `json:"reference"`
	Description   string    `json:"description,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func (h *RouteHandler) HandleTransactionHistory(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	entries, err := h.Wallet.GetTransactionHistory(r.Context(), user.ID, queryLimit(r))
	if err != nil {
		h.respondLedgerError(w, r, err)
		return
	}

	data := make([]LedgerEntryResponseData, 0, len(entries))
	for _, entry := range entries {
		data = append(data, LedgerEntryResponseData{
			ID:            entry.ID,
			Type:          entry.Type,
			Amount:        entry.Amount.Kobo(),
			BalanceBefore: entry.BalanceBefore.Kobo(),
			BalanceAfter:  entry.BalanceAfter.Kobo(),
			Status:        entry.Status,
			Reference:     entry.Reference,
			Description:   entry.Description.String,
			CreatedAt:     entry.CreatedAt,
		})
	}

	message := "Transactions fetched successfully"

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
