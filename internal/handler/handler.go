package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/tobiloba/kudiwallet/internal/config"
	"github.com/tobiloba/kudiwallet/internal/errHandler"
	"github.com/tobiloba/kudiwallet/internal/helper"
	"github.com/tobiloba/kudiwallet/internal/paystack"
	"github.com/tobiloba/kudiwallet/internal/repository"
	"github.com/tobiloba/kudiwallet/internal/smtp"
	"github.com/tobiloba/kudiwallet/internal/wallet"
)

type RouteHandler struct {
	DB         repository.Database
	Wallet     *wallet.Service
	ErrHandler *errHandler.ErrorHandler
	Helper     *helper.HelperRepository
	Mailer     smtp.MailerInterface
	Config     *config.Config
}

func NewRouteHandler(handler *RouteHandler) *RouteHandler {
	return &RouteHandler{
		DB:         handler.DB,
		Wallet:     handler.Wallet,
		ErrHandler: handler.ErrHandler,
		Helper:     handler.Helper,
		Mailer:     handler.Mailer,
		Config:     handler.Config,
	}
}

// respondLedgerError translates the ledger engine's sentinel errors into
// HTTP responses. Anything unrecognized is a server error.
func (h *RouteHandler) respondLedgerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, wallet.ErrInvalidAmount):
		h.ErrHandler.FailedValidation(w, r, []string{err.Error()})

	case errors.Is(err, wallet.ErrUserNotFound),
		errors.Is(err, wallet.ErrWalletNotFound),
		errors.Is(err, wallet.ErrTransactionNotFound):
		h.ErrHandler.NotFoundWithMessage(w, r, err.Error())

	case errors.Is(err, wallet.ErrRecipientNotFound),
		errors.Is(err, wallet.ErrWalletLocked),
		errors.Is(err, wallet.ErrRecipientWalletLocked),
		errors.Is(err, wallet.ErrInsufficientBalance),
		errors.Is(err, wallet.ErrSelfTransfer),
		errors.Is(err, wallet.ErrDuplicateReference):
		h.ErrHandler.UnprocessableEntity(w, r, err)

	case errors.Is(err, paystack.ErrGatewayUnavailable),
		errors.Is(err, paystack.ErrGatewayRejected):
		h.ErrHandler.BadGateway(w, r, err)

	default:
		h.ErrHandler.ServerError(w, r, err)
	}
}

func queryLimit(r *http.Request) int {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		return 0
	}

	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 0 {
		return 0
	}

	return limit
}
