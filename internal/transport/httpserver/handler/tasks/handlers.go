package tasks

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"timebank-go/internal/domain/identity"
	tasksdomain "timebank-go/internal/domain/tasks"
	"timebank-go/internal/transport/httpserver/handler/common"
	"timebank-go/pkg/logger"
)

type Handlers struct {
	Tasks *tasksdomain.Service
	log   logger.Logger
}

func New(tasks *tasksdomain.Service, log logger.Logger) *Handlers {
	return &Handlers{
		Tasks: tasks,
		log:   log,
	}
}

type taskResponse struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Hours        *string   `json:"hours"`
	WeightFactor string    `json:"weight_factor"`
	Description  string    `json:"description"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type taskListResponse struct {
	Items []taskResponse `json:"items"`
}

type createTaskRequest struct {
	Name         string           `json:"name"`
	Hours        *decimal.Decimal `json:"hours"`
	WeightFactor *decimal.Decimal `json:"weight_factor"`
	Description  string           `json:"description"`
}

type updateTaskRequest struct {
	Name         *string                `json:"name"`
	Hours        common.NullableDecimal `json:"hours"`
	WeightFactor *decimal.Decimal       `json:"weight_factor"`
	Description  *string                `json:"description"`
	IsActive     *bool                  `json:"is_active"`
}

type weightRequest struct {
	WeightFactor decimal.Decimal `json:"weight_factor"`
}

func (h *Handlers) ListActive(w http.ResponseWriter, r *http.Request) {
	if _, ok := common.RequirePrincipal(w, r); !ok {
		return
	}

	tasks, err := h.Tasks.ListActive(r.Context())
	if err != nil {
		common.WriteDomainError(w, h.log, "tasks.list_active", err)
		return
	}
	common.WriteJSON(w, http.StatusOK, taskListResponse{Items: toTaskResponses(tasks)})
}

func (h *Handlers) ListAll(w http.ResponseWriter, r *http.Request) {
	principal, ok := common.RequirePrincipal(w, r)
	if !ok {
		return
	}

	tasks, err := h.Tasks.ListAll(r.Context(), principal)
	if err != nil {
		common.WriteDomainError(w, h.log, "tasks.list_all", err, "user_id", principal.ID)
		return
	}
	common.WriteJSON(w, http.StatusOK, taskListResponse{Items: toTaskResponses(tasks)})
}

func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.InvalidJSON(w)
		return
	}

	principal, ok := common.RequirePrincipal(w, r)
	if !ok {
		return
	}

	task, err := h.Tasks.Create(r.Context(), principal, tasksdomain.CreateInput{
		Name:         req.Name,
		Hours:        req.Hours,
		WeightFactor: req.WeightFactor,
		Description:  req.Description,
	})
	if err != nil {
		common.WriteDomainError(w, h.log, "tasks.create", err, "user_id", principal.ID)
		return
	}
	common.WriteJSON(w, http.StatusCreated, toTaskResponse(*task))
}

func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	var req updateTaskRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.InvalidJSON(w)
		return
	}

	principal, taskID, ok := h.principalAndID(w, r)
	if !ok {
		return
	}

	task, err := h.Tasks.Update(r.Context(), principal, tasksdomain.UpdateInput{
		ID:           taskID,
		Name:         req.Name,
		Hours:        tasksdomain.OptionalNullableDecimal{Set: req.Hours.Set, Value: req.Hours.Value},
		WeightFactor: req.WeightFactor,
		Description:  req.Description,
		IsActive:     req.IsActive,
	})
	if err != nil {
		common.WriteDomainError(w, h.log, "tasks.update", err, "user_id", principal.ID, "task_id", taskID)
		return
	}
	common.WriteJSON(w, http.StatusOK, toTaskResponse(*task))
}

func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	principal, taskID, ok := h.principalAndID(w, r)
	if !ok {
		return
	}

	if err := h.Tasks.Delete(r.Context(), principal, taskID); err != nil {
		common.WriteDomainError(w, h.log, "tasks.delete", err, "user_id", principal.ID, "task_id", taskID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) Deactivate(w http.ResponseWriter, r *http.Request) {
	principal, taskID, ok := h.principalAndID(w, r)
	if !ok {
		return
	}

	task, err := h.Tasks.Deactivate(r.Context(), principal, taskID)
	if err != nil {
		common.WriteDomainError(w, h.log, "tasks.deactivate", err, "user_id", principal.ID, "task_id", taskID)
		return
	}
	common.WriteJSON(w, http.StatusOK, toTaskResponse(*task))
}

func (h *Handlers) SetWeight(w http.ResponseWriter, r *http.Request) {
	var req weightRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.InvalidJSON(w)
		return
	}

	principal, taskID, ok := h.principalAndID(w, r)
	if !ok {
		return
	}

	task, err := h.Tasks.SetWeightFactor(r.Context(), principal, taskID, req.WeightFactor)
	if err != nil {
		common.WriteDomainError(w, h.log, "tasks.set_weight", err, "user_id", principal.ID, "task_id", taskID)
		return
	}
	common.WriteJSON(w, http.StatusOK, toTaskResponse(*task))
}

func (h *Handlers) principalAndID(w http.ResponseWriter, r *http.Request) (principal identity.Principal, taskID int64, ok bool) {
	principal, ok = common.RequirePrincipal(w, r)
	if !ok {
		return principal, 0, false
	}
	taskID, err := common.IDParam(r, "id")
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return principal, 0, false
	}
	return principal, taskID, true
}

func toTaskResponse(task tasksdomain.Task) taskResponse {
	return taskResponse{
		ID:           task.ID,
		Name:         task.Name,
		Hours:        common.FormatOptionalHours(task.Hours),
		WeightFactor: task.WeightFactor.StringFixed(2),
		Description:  task.Description,
		IsActive:     task.IsActive,
		CreatedAt:    task.CreatedAt,
		UpdatedAt:    task.UpdatedAt,
	}
}

func toTaskResponses(tasks []tasksdomain.Task) []taskResponse {
	items := make([]taskResponse, 0, len(tasks))
	for _, task := range tasks {
		items = append(items, toTaskResponse(task))
	}
	return items
}
