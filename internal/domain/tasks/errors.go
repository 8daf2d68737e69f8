package tasks

import "timebank-go/internal/domain/apperr"

var (
	ErrTaskNotFound  = apperr.New(apperr.ErrNotFound, "task not found")
	ErrTaskNameTaken = apperr.New(apperr.ErrConflict, "task name already exists")
	ErrTaskInUse     = apperr.New(apperr.ErrConflict, "task is referenced by time entries; deactivate it instead")
)
