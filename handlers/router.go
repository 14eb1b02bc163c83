package handlers

import (
	"net/http"

	"taskify-project/microservices/tasks-service/middleware"

	"github.com/gorilla/mux"
)

// NewRouter registers every route. Everything under /api requires a valid token.
func NewRouter(auth *middleware.Authenticator, tasks *TaskHandler, assets *AssetHandler, notifications *NotificationHandler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, "ok", nil)
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(auth.JWTAuthMiddleware)

	admin := func(h http.HandlerFunc) http.Handler {
		return middleware.AdminOnly(h)
	}

	api.Handle("/task/create", admin(tasks.CreateTask)).Methods(http.MethodPost)
	api.Handle("/task/duplicate/{id}", admin(tasks.DuplicateTask)).Methods(http.MethodPost)
	api.HandleFunc("/task/activity/{id}", tasks.PostActivity).Methods(http.MethodPost)

	api.HandleFunc("/task/dashboard", tasks.Dashboard).Methods(http.MethodGet)
	api.HandleFunc("/task", tasks.GetTasks).Methods(http.MethodGet)
	api.HandleFunc("/task/{id}", tasks.GetTask).Methods(http.MethodGet)

	api.HandleFunc("/task/create-subtask/{id}", tasks.CreateSubTask).Methods(http.MethodPut)
	api.HandleFunc("/task/update/{id}", tasks.UpdateTask).Methods(http.MethodPut)
	api.HandleFunc("/task/{id}", tasks.TrashTask).Methods(http.MethodPut)

	api.HandleFunc("/task/delete-restore/{id}", tasks.DeleteRestore).Methods(http.MethodDelete)
	api.HandleFunc("/task/delete-restore", tasks.DeleteRestore).Methods(http.MethodDelete)

	api.HandleFunc("/task/{id}/assets", assets.UploadAssets).Methods(http.MethodPost)
	api.HandleFunc("/task/{id}/assets", assets.ListAssets).Methods(http.MethodGet)
	api.HandleFunc("/task/{id}/assets/{assetId}/download", assets.DownloadAsset).Methods(http.MethodGet)
	api.HandleFunc("/task/{id}/assets/{assetId}", assets.DeleteAsset).Methods(http.MethodDelete)

	api.HandleFunc("/user/notifications", notifications.GetNotifications).Methods(http.MethodGet)
	api.HandleFunc("/user/read-noti", notifications.MarkRead).Methods(http.MethodPut)

	return r
}
