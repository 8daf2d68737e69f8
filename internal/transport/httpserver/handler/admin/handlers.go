package admin

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"timebank-go/internal/config"
	balancesdomain "timebank-go/internal/domain/balances"
	entriesdomain "timebank-go/internal/domain/entries"
	"timebank-go/internal/domain/identity"
	statsdomain "timebank-go/internal/domain/stats"
	"timebank-go/internal/transport/httpserver/handler/common"
	"timebank-go/pkg/logger"
)

type Handlers struct {
	Entries    *entriesdomain.Service
	Balances   *balancesdomain.Service
	Stats      *statsdomain.Service
	cleanupAge time.Duration
	log        logger.Logger
}

func New(entries *entriesdomain.Service, balances *balancesdomain.Service, stats *statsdomain.Service, cleanupAge time.Duration, log logger.Logger) *Handlers {
	return &Handlers{
		Entries:    entries,
		Balances:   balances,
		Stats:      stats,
		cleanupAge: cleanupAge,
		log:        log,
	}
}

type pendingResponse struct {
	Items []common.EntryResponse `json:"items"`
}

type decisionResponse struct {
	Entry      common.EntryResponse `json:"entry"`
	OwnerName  string               `json:"owner_name"`
	OwnerEmail string               `json:"owner_email,omitempty"`
}

type hoursRequest struct {
	Hours decimal.Decimal `json:"hours"`
}

type balanceRequest struct {
	Balance decimal.Decimal `json:"balance"`
}

type cleanupRequest struct {
	OlderThan string `json:"older_than"`
	Mode      string `json:"mode"`
}

type cleanupResponse struct {
	Mode           string    `json:"mode"`
	Cutoff         time.Time `json:"cutoff"`
	DeletedEntries int64     `json:"deleted_entries"`
	AffectedUsers  int       `json:"affected_users"`
	BalanceDelta   string    `json:"balance_delta"`
}

type userStatsResponse struct {
	UserID             int64   `json:"user_id"`
	Name               string  `json:"name"`
	Email              *string `json:"email"`
	Role               string  `json:"role"`
	CurrentBalance     string  `json:"current_balance"`
	RecentEntries      int64   `json:"recent_entries"`
	RecentPending      int64   `json:"recent_pending"`
	ApprovedProductive string  `json:"approved_productive_hours"`
	ApprovedScreenTime string  `json:"approved_screen_time_hours"`
}

type statsResponse struct {
	Since time.Time           `json:"since"`
	Users []userStatsResponse `json:"users"`
}

type reconcileResponse struct {
	UserID         int64  `json:"user_id"`
	StoredBalance  string `json:"stored_balance"`
	DerivedBalance string `json:"derived_balance"`
	Drift          string `json:"drift"`
	Consistent     bool   `json:"consistent"`
	ApprovedHours  string `json:"approved_hours"`
	ReceivedHours  string `json:"received_hours"`
	SentHours      string `json:"sent_hours"`
	AdjustedHours  string `json:"adjusted_hours"`
}

func (h *Handlers) ListPending(w http.ResponseWriter, r *http.Request) {
	principal, ok := common.RequirePrincipal(w, r)
	if !ok {
		return
	}

	views, err := h.Entries.ListPending(r.Context(), principal)
	if err != nil {
		common.WriteDomainError(w, h.log, "admin.list_pending", err, "admin_id", principal.ID)
		return
	}
	common.WriteJSON(w, http.StatusOK, pendingResponse{Items: common.ToEntryViewResponses(views)})
}

func (h *Handlers) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "admin.approve", h.Entries.Approve)
}

func (h *Handlers) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "admin.reject", h.Entries.Reject)
}

type decideFunc func(ctx context.Context, principal identity.Principal, entryID int64) (*entriesdomain.Decision, error)

func (h *Handlers) decide(w http.ResponseWriter, r *http.Request, op string, fn decideFunc) {
	principal, entryID, ok := principalAndID(w, r)
	if !ok {
		return
	}

	decision, err := fn(r.Context(), principal, entryID)
	if err != nil {
		common.WriteDomainError(w, h.log, op, err, "admin_id", principal.ID, "entry_id", entryID)
		return
	}
	common.WriteJSON(w, http.StatusOK, decisionResponse{
		Entry:      common.ToEntryResponse(decision.Entry),
		OwnerName:  decision.OwnerName,
		OwnerEmail: decision.OwnerEmail,
	})
}

func (h *Handlers) UpdateHours(w http.ResponseWriter, r *http.Request) {
	var req hoursRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.InvalidJSON(w)
		return
	}

	principal, entryID, ok := principalAndID(w, r)
	if !ok {
		return
	}

	entry, err := h.Entries.AdminUpdateHours(r.Context(), principal, entryID, req.Hours)
	if err != nil {
		common.WriteDomainError(w, h.log, "admin.update_hours", err, "admin_id", principal.ID, "entry_id", entryID)
		return
	}
	common.WriteJSON(w, http.StatusOK, common.ToEntryResponse(*entry))
}

func (h *Handlers) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	principal, entryID, ok := principalAndID(w, r)
	if !ok {
		return
	}

	entry, err := h.Entries.AdminDelete(r.Context(), principal, entryID)
	if err != nil {
		common.WriteDomainError(w, h.log, "admin.delete_entry", err, "admin_id", principal.ID, "entry_id", entryID)
		return
	}
	common.WriteJSON(w, http.StatusOK, common.ToEntryResponse(*entry))
}

func (h *Handlers) Cleanup(w http.ResponseWriter, r *http.Request) {
	var req cleanupRequest
	if err := common.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		common.InvalidJSON(w)
		return
	}

	principal, ok := common.RequirePrincipal(w, r)
	if !ok {
		return
	}

	age, err := config.ParseAge(req.OlderThan, h.cleanupAge)
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid_argument", err.Error())
		return
	}

	result, err := h.Entries.Cleanup(r.Context(), principal, entriesdomain.CleanupInput{
		OlderThan: age,
		Mode:      entriesdomain.CleanupMode(req.Mode),
	})
	if err != nil {
		common.WriteDomainError(w, h.log, "admin.cleanup", err, "admin_id", principal.ID, "mode", req.Mode)
		return
	}

	common.WriteJSON(w, http.StatusOK, cleanupResponse{
		Mode:           string(result.Mode),
		Cutoff:         result.Cutoff,
		DeletedEntries: result.DeletedEntries,
		AffectedUsers:  result.AffectedUsers,
		BalanceDelta:   common.FormatHours(result.BalanceDelta),
	})
}

func (h *Handlers) UserStats(w http.ResponseWriter, r *http.Request) {
	principal, ok := common.RequirePrincipal(w, r)
	if !ok {
		return
	}

	overview, err := h.Stats.Users(r.Context(), principal)
	if err != nil {
		common.WriteDomainError(w, h.log, "admin.stats", err, "admin_id", principal.ID)
		return
	}

	users := make([]userStatsResponse, 0, len(overview.Users))
	for _, row := range overview.Users {
		users = append(users, userStatsResponse{
			UserID:             row.UserID,
			Name:               row.Name,
			Email:              row.Email,
			Role:               row.Role,
			CurrentBalance:     common.FormatHours(row.CurrentBalance),
			RecentEntries:      row.RecentEntries,
			RecentPending:      row.RecentPending,
			ApprovedProductive: common.FormatHours(row.ApprovedProductive),
			ApprovedScreenTime: common.FormatHours(row.ApprovedScreenTime),
		})
	}
	common.WriteJSON(w, http.StatusOK, statsResponse{Since: overview.Since, Users: users})
}

func (h *Handlers) Reconcile(w http.ResponseWriter, r *http.Request) {
	principal, userID, ok := principalAndID(w, r)
	if !ok {
		return
	}

	result, err := h.Stats.Reconcile(r.Context(), principal, userID)
	if err != nil {
		common.WriteDomainError(w, h.log, "admin.reconcile", err, "admin_id", principal.ID, "user_id", userID)
		return
	}
	if !result.Consistent() {
		h.log.Warn("admin.reconcile: balance drift detected", "user_id", userID, "drift", result.Drift.StringFixed(2))
	}

	common.WriteJSON(w, http.StatusOK, reconcileResponse{
		UserID:         result.UserID,
		StoredBalance:  common.FormatHours(result.StoredBalance),
		DerivedBalance: common.FormatHours(result.DerivedBalance),
		Drift:          common.FormatHours(result.Drift),
		Consistent:     result.Consistent(),
		ApprovedHours:  common.FormatHours(result.Totals.ApprovedHours),
		ReceivedHours:  common.FormatHours(result.Totals.ReceivedHours),
		SentHours:      common.FormatHours(result.Totals.SentHours),
		AdjustedHours:  common.FormatHours(result.Totals.AdjustedHours),
	})
}

func (h *Handlers) SetBalance(w http.ResponseWriter, r *http.Request) {
	var req balanceRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.InvalidJSON(w)
		return
	}

	principal, userID, ok := principalAndID(w, r)
	if !ok {
		return
	}

	balance, err := h.Balances.AdjustUserBalance(r.Context(), principal, userID, req.Balance)
	if err != nil {
		common.WriteDomainError(w, h.log, "admin.set_balance", err, "admin_id", principal.ID, "user_id", userID)
		return
	}
	common.WriteJSON(w, http.StatusOK, common.ToBalanceResponse(*balance))
}

func principalAndID(w http.ResponseWriter, r *http.Request) (identity.Principal, int64, bool) {
	principal, ok := common.RequirePrincipal(w, r)
	if !ok {
		return identity.Principal{}, 0, false
	}
	id, err := common.IDParam(r, "id")
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return identity.Principal{}, 0, false
	}
	return principal, id, true
}
