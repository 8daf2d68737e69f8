package balances

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	balancesdomain "timebank-go/internal/domain/balances"
	"timebank-go/internal/transport/httpserver/handler/common"
	"timebank-go/pkg/logger"
)

type Handlers struct {
	Balances *balancesdomain.Service
	log      logger.Logger
}

func New(balances *balancesdomain.Service, log logger.Logger) *Handlers {
	return &Handlers{
		Balances: balances,
		log:      log,
	}
}

type transferRequest struct {
	ToUserID int64           `json:"to_user_id"`
	Hours    decimal.Decimal `json:"hours"`
	Reason   string          `json:"reason"`
}

type transferResponse struct {
	ID         int64     `json:"id"`
	FromUserID int64     `json:"from_user_id"`
	ToUserID   int64     `json:"to_user_id"`
	Hours      string    `json:"hours"`
	Reason     *string   `json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}

type historyItemResponse struct {
	transferResponse
	Direction        string `json:"direction"`
	CounterpartyID   int64  `json:"counterparty_id"`
	CounterpartyName string `json:"counterparty_name"`
}

type historyResponse struct {
	Items []historyItemResponse `json:"items"`
}

type resetResponse struct {
	DeletedTransfers int64 `json:"deleted_transfers"`
	AffectedUsers    int   `json:"affected_users"`
}

func (h *Handlers) GetBalance(w http.ResponseWriter, r *http.Request) {
	principal, ok := common.RequirePrincipal(w, r)
	if !ok {
		return
	}

	balance, err := h.Balances.GetBalance(r.Context(), principal, principal.ID)
	if err != nil {
		common.WriteDomainError(w, h.log, "balances.get", err, "user_id", principal.ID)
		return
	}
	common.WriteJSON(w, http.StatusOK, common.ToBalanceResponse(*balance))
}

func (h *Handlers) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.InvalidJSON(w)
		return
	}

	principal, ok := common.RequirePrincipal(w, r)
	if !ok {
		return
	}

	transfer, err := h.Balances.Transfer(r.Context(), principal, balancesdomain.TransferInput{
		ToUserID: req.ToUserID,
		Hours:    req.Hours,
		Reason:   req.Reason,
	})
	if err != nil {
		common.WriteDomainError(w, h.log, "balances.transfer", err, "user_id", principal.ID, "to_user_id", req.ToUserID)
		return
	}
	common.WriteJSON(w, http.StatusCreated, toTransferResponse(*transfer))
}

func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	principal, ok := common.RequirePrincipal(w, r)
	if !ok {
		return
	}

	items, err := h.Balances.History(r.Context(), principal, principal.ID)
	if err != nil {
		common.WriteDomainError(w, h.log, "balances.history", err, "user_id", principal.ID)
		return
	}

	response := make([]historyItemResponse, 0, len(items))
	for _, item := range items {
		response = append(response, historyItemResponse{
			transferResponse: toTransferResponse(item.Transfer),
			Direction:        string(item.Direction),
			CounterpartyID:   item.CounterpartyID,
			CounterpartyName: item.CounterpartyName,
		})
	}
	common.WriteJSON(w, http.StatusOK, historyResponse{Items: response})
}

func (h *Handlers) ResetHistory(w http.ResponseWriter, r *http.Request) {
	principal, ok := common.RequirePrincipal(w, r)
	if !ok {
		return
	}

	result, err := h.Balances.ResetHistory(r.Context(), principal, principal.ID)
	if err != nil {
		common.WriteDomainError(w, h.log, "balances.reset_history", err, "user_id", principal.ID)
		return
	}
	common.WriteJSON(w, http.StatusOK, resetResponse{
		DeletedTransfers: result.DeletedTransfers,
		AffectedUsers:    result.AffectedUsers,
	})
}

func toTransferResponse(transfer balancesdomain.Transfer) transferResponse {
	return transferResponse{
		ID:         transfer.ID,
		FromUserID: transfer.FromUserID,
		ToUserID:   transfer.ToUserID,
		Hours:      common.FormatHours(transfer.Hours),
		Reason:     transfer.Reason,
		CreatedAt:  transfer.CreatedAt,
	}
}
