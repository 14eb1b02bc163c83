package handlers

import (
	"net/http"
	"strconv"

	"taskify-project/microservices/tasks-service/logging"
	"taskify-project/microservices/tasks-service/middleware"
	"taskify-project/microservices/tasks-service/models"
	"taskify-project/microservices/tasks-service/services"

	"github.com/gorilla/mux"
)

const msgNotifyFailed = "but the team could not be notified."

type TaskHandler struct {
	service   *services.TaskService
	dashboard *services.DashboardService
}

func NewTaskHandler(service *services.TaskService, dashboard *services.DashboardService) *TaskHandler {
	return &TaskHandler{service: service, dashboard: dashboard}
}

// scopeOf returns the caller's scope or answers 401 when the request carries none.
func scopeOf(w http.ResponseWriter, r *http.Request) (models.Scope, bool) {
	scope, ok := middleware.ScopeFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Response{Status: false, Message: "Not authorized. Try login again."})
	}
	return scope, ok
}

// writeMutation answers a create or duplicate. A failed notification still reports
// success since the task itself was saved.
func writeMutation(w http.ResponseWriter, r *http.Request, task *models.Task, err error, done string) {
	if err != nil && task != nil && services.IsDependency(err) {
		logging.Logger.Warnf("Event ID: TASK_NOTIFY_FAILED, Description: Task %s saved without notification: %v", task.ID.Hex(), err)
		writeJSON(w, http.StatusCreated, Response{Status: true, Message: done + ", " + msgNotifyFailed, Data: task})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, Response{Status: true, Message: done + ".", Data: task})
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	var in services.TaskInput
	if err := decodeJSON(r, &in); err != nil {
		writeBadRequest(w, "Invalid request payload")
		return
	}

	task, err := h.service.CreateTask(r.Context(), scope, in)
	writeMutation(w, r, task, err, "Task created successfully")
}

func (h *TaskHandler) DuplicateTask(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	task, err := h.service.DuplicateTask(r.Context(), scope, mux.Vars(r)["id"])
	writeMutation(w, r, task, err, "Task duplicated successfully")
}

func (h *TaskHandler) PostActivity(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	var in services.ActivityInput
	if err := decodeJSON(r, &in); err != nil {
		writeBadRequest(w, "Invalid request payload")
		return
	}
	if err := h.service.PostActivity(r.Context(), scope, mux.Vars(r)["id"], in); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Activity posted successfully.", nil)
}

func (h *TaskHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	summary, err := h.dashboard.Summary(r.Context(), scope)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Successfully", summary)
}

// parseFlag treats any non-empty value other than an explicit false as true.
func parseFlag(value string) bool {
	if value == "" {
		return false
	}
	b, err := strconv.ParseBool(value)
	return err != nil || b
}

func (h *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	tasks, err := h.service.GetTasks(r.Context(), scope, services.TaskQuery{
		Stage:     q.Get("stage"),
		IsTrashed: parseFlag(q.Get("isTrashed")),
		Search:    q.Get("search"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "", tasks)
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	task, err := h.service.GetTaskByID(r.Context(), scope, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "", task)
}

func (h *TaskHandler) CreateSubTask(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	var in services.SubTaskInput
	if err := decodeJSON(r, &in); err != nil {
		writeBadRequest(w, "Invalid request payload")
		return
	}
	if err := h.service.CreateSubTask(r.Context(), scope, mux.Vars(r)["id"], in); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "SubTask added successfully.", nil)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	var in services.TaskInput
	if err := decodeJSON(r, &in); err != nil {
		writeBadRequest(w, "Invalid request payload")
		return
	}
	if err := h.service.UpdateTask(r.Context(), scope, mux.Vars(r)["id"], in); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Task updated successfully.", nil)
}

func (h *TaskHandler) TrashTask(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	if err := h.service.TrashTask(r.Context(), scope, mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Task trashed successfully.", nil)
}

func (h *TaskHandler) DeleteRestore(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	action := r.URL.Query().Get("actionType")
	if err := h.service.DeleteRestore(r.Context(), scope, mux.Vars(r)["id"], action); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Operation performed successfully.", nil)
}
