package wallet

import "errors"

var (
	ErrInvalidAmount = errors.New("amount must be a positive number of kobo")

	ErrUserNotFound        = errors.New("user not found")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrRecipientNotFound   = errors.New("recipient wallet not found")
	ErrTransactionNotFound = errors.New("transaction not found")

	ErrDuplicateReference = errors.New("transaction reference already exists")

	ErrWalletLocked          = errors.New("wallet is locked")
	ErrRecipientWalletLocked = errors.New("recipient wallet is locked")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrSelfTransfer          = errors.New("cannot transfer to your own wallet")

	// ErrInvalidWebhookSignature deliberately carries no detail about
	// which part of the check failed.
	ErrInvalidWebhookSignature = errors.New("invalid webhook signature")
	ErrInvalidWebhookPayload   = errors.New("invalid webhook payload")
)
