package entries

import (
	"net/http"

	"github.com/shopspring/decimal"

	entriesdomain "timebank-go/internal/domain/entries"
	"timebank-go/internal/transport/httpserver/handler/common"
	"timebank-go/pkg/logger"
)

const defaultListLimit = 50

type Handlers struct {
	Entries *entriesdomain.Service
	log     logger.Logger
}

func New(entries *entriesdomain.Service, log logger.Logger) *Handlers {
	return &Handlers{
		Entries: entries,
		log:     log,
	}
}

type createEntryRequest struct {
	EntryType    string           `json:"entry_type"`
	TaskID       *int64           `json:"task_id"`
	InputMinutes *int             `json:"input_minutes"`
	ManualHours  *decimal.Decimal `json:"manual_hours"`
	Description  string           `json:"description"`
}

type entryListResponse struct {
	Items []common.EntryResponse `json:"items"`
}

func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := common.RequirePrincipal(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	limit, err := common.ParseIntParam(query.Get("limit"), defaultListLimit)
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid_request", "invalid limit")
		return
	}

	filter := entriesdomain.ListFilter{Limit: limit}
	if raw := query.Get("status"); raw != "" {
		status, ok := entriesdomain.ParseStatus(raw)
		if !ok {
			common.WriteError(w, http.StatusBadRequest, "invalid_argument", "invalid status")
			return
		}
		filter.Status = &status
	}

	views, err := h.Entries.ListForUser(r.Context(), principal, filter)
	if err != nil {
		common.WriteDomainError(w, h.log, "entries.list", err, "user_id", principal.ID)
		return
	}

	common.WriteJSON(w, http.StatusOK, entryListResponse{Items: common.ToEntryViewResponses(views)})
}

func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.InvalidJSON(w)
		return
	}

	principal, ok := common.RequirePrincipal(w, r)
	if !ok {
		return
	}

	view, err := h.Entries.Create(r.Context(), principal, entriesdomain.CreateInput{
		EntryType:    req.EntryType,
		TaskID:       req.TaskID,
		InputMinutes: req.InputMinutes,
		ManualHours:  req.ManualHours,
		Description:  req.Description,
	})
	if err != nil {
		common.WriteDomainError(w, h.log, "entries.create", err, "user_id", principal.ID)
		return
	}

	common.WriteJSON(w, http.StatusCreated, common.ToEntryViewResponse(*view))
}

func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := common.RequirePrincipal(w, r)
	if !ok {
		return
	}

	entryID, err := common.IDParam(r, "id")
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.Entries.Delete(r.Context(), principal, entryID); err != nil {
		common.WriteDomainError(w, h.log, "entries.delete", err, "user_id", principal.ID, "entry_id", entryID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
