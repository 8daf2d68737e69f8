package entries

import "timebank-go/internal/domain/apperr"

var (
	ErrEntryNotFound     = apperr.New(apperr.ErrNotFound, "entry not found")
	ErrEntryNotPending   = apperr.New(apperr.ErrNotFound, "entry not found or already handled")
	ErrEntryNotDeletable = apperr.New(apperr.ErrNotFound, "entry not found or no longer pending")
	ErrTaskInactive      = apperr.New(apperr.ErrConflict, "task is inactive")
	ErrAdminCannotSubmit = apperr.New(apperr.ErrForbidden, "admins cannot submit time entries")
)
