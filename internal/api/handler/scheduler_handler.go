package handler

import (
	"net/http"

	"github.com/medtrack/notify/internal/scheduler"
)

// TaskLister exposes the scheduler's pending task snapshot.
type TaskLister interface {
	List() []scheduler.ExpiryTask
}

// SchedulerHandler serves a JSON snapshot of pending expiry tasks.
type SchedulerHandler struct {
	tasks TaskLister
}

func NewSchedulerHandler(tasks TaskLister) *SchedulerHandler {
	return &SchedulerHandler{tasks: tasks}
}

// Pending handles GET /api/v1/scheduler
//
// @Summary  Pending expiry tasks in trigger order
// @Tags     scheduler
// @Produce  json
// @Success  200  {object}  map[string]any
// @Router   /api/v1/scheduler [get]
func (h *SchedulerHandler) Pending(w http.ResponseWriter, r *http.Request) {
	tasks := h.tasks.List()
	respondJSON(w, http.StatusOK, map[string]any{
		"pending": len(tasks),
		"tasks":   tasks,
	})
}
