package user

import "timebank-go/internal/domain/apperr"

var ErrUserNotFound = apperr.New(apperr.ErrNotFound, "user not found")
