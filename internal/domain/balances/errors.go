package balances

import "timebank-go/internal/domain/apperr"

var (
	ErrInsufficientBalance = apperr.New(apperr.ErrInsufficientBalance, "insufficient balance")
	ErrSelfTransfer        = apperr.New(apperr.ErrInvalidArgument, "cannot transfer hours to yourself")
	ErrRecipientNotFound   = apperr.New(apperr.ErrNotFound, "recipient not found")
)
