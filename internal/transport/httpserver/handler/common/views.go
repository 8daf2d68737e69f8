package common

import (
	"time"

	entriesdomain "timebank-go/internal/domain/entries"
	"timebank-go/internal/domain/ledger"
)

type EntryResponse struct {
	ID              int64      `json:"id"`
	UserID          int64      `json:"user_id"`
	UserName        string     `json:"user_name,omitempty"`
	TaskID          *int64     `json:"task_id"`
	TaskName        *string    `json:"task_name"`
	Hours           string     `json:"hours"`
	EntryType       string     `json:"entry_type"`
	Description     string     `json:"description"`
	Status          string     `json:"status"`
	InputMinutes    *int       `json:"input_minutes"`
	CalculatedHours *string    `json:"calculated_hours"`
	CreatedAt       time.Time  `json:"created_at"`
	ApprovedAt      *time.Time `json:"approved_at"`
	ApprovedBy      *int64     `json:"approved_by"`
}

func ToEntryResponse(entry entriesdomain.Entry) EntryResponse {
	return EntryResponse{
		ID:              entry.ID,
		UserID:          entry.UserID,
		TaskID:          entry.TaskID,
		Hours:           FormatHours(entry.Hours),
		EntryType:       string(entry.EntryType),
		Description:     entry.Description,
		Status:          string(entry.Status),
		InputMinutes:    entry.InputMinutes,
		CalculatedHours: FormatOptionalHours(entry.CalculatedHours),
		CreatedAt:       entry.CreatedAt,
		ApprovedAt:      entry.ApprovedAt,
		ApprovedBy:      entry.ApprovedBy,
	}
}

func ToEntryViewResponse(view entriesdomain.EntryView) EntryResponse {
	response := ToEntryResponse(view.Entry)
	response.TaskName = view.TaskName
	response.UserName = view.UserName
	return response
}

func ToEntryViewResponses(views []entriesdomain.EntryView) []EntryResponse {
	items := make([]EntryResponse, 0, len(views))
	for _, view := range views {
		items = append(items, ToEntryViewResponse(view))
	}
	return items
}

type BalanceResponse struct {
	UserID         int64      `json:"user_id"`
	CurrentBalance string     `json:"current_balance"`
	LastUpdated    *time.Time `json:"last_updated"`
}

func ToBalanceResponse(balance ledger.Balance) BalanceResponse {
	response := BalanceResponse{
		UserID:         balance.UserID,
		CurrentBalance: FormatHours(balance.CurrentBalance),
	}
	if !balance.LastUpdated.IsZero() {
		updated := balance.LastUpdated
		response.LastUpdated = &updated
	}
	return response
}
