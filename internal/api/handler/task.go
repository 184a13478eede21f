package handler

import (
	"net/http"

	"github.com/Rrens/task-manager/internal/api/middleware"
	"github.com/Rrens/task-manager/internal/api/response"
	"github.com/Rrens/task-manager/internal/domain"
	"github.com/Rrens/task-manager/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// TaskHandler handles task endpoints. Every route runs behind the session
// middleware.
type TaskHandler struct {
	taskService *service.TaskService
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// List returns the caller's tasks
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	tasks, err := h.taskService.List(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, tasks)
}

// Create creates a task for the caller
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input domain.TaskCreate
	if !decodeAndValidate(w, r, &input) {
		return
	}

	task, err := h.taskService.Create(r.Context(), user.ID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Created(w, task)
}

// Get returns one of the caller's tasks
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, taskID, ok := taskParams(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.Get(r.Context(), user.ID, taskID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, task)
}

// Update applies a partial update to one of the caller's tasks
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, taskID, ok := taskParams(w, r)
	if !ok {
		return
	}

	var input domain.TaskUpdate
	if !decodeAndValidate(w, r, &input) {
		return
	}

	task, err := h.taskService.Update(r.Context(), user.ID, taskID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, task)
}

// Delete removes one of the caller's tasks
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, taskID, ok := taskParams(w, r)
	if !ok {
		return
	}

	if err := h.taskService.Delete(r.Context(), user.ID, taskID); err != nil {
		writeError(w, r, err)
		return
	}

	response.NoContent(w)
}

func taskParams(w http.ResponseWriter, r *http.Request) (*domain.User, uuid.UUID, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return nil, uuid.Nil, false
	}

	taskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid task ID")
		return nil, uuid.Nil, false
	}

	return user, taskID, true
}
