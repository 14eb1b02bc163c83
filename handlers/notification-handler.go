package handlers

import (
	"net/http"

	"taskify-project/microservices/tasks-service/services"
)

type NotificationHandler struct {
	service *services.NotificationService
}

func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

func (h *NotificationHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	notifications, err := h.service.ListUnread(r.Context(), scope)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "", notifications)
}

// MarkRead handles ?isReadType=all and ?isReadType=one&id=<notification id>.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	if err := h.service.MarkRead(r.Context(), scope, q.Get("isReadType"), q.Get("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Done", nil)
}
