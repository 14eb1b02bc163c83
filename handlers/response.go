package handlers

import (
	"encoding/json"
	"net/http"

	"taskify-project/microservices/tasks-service/logging"
	"taskify-project/microservices/tasks-service/services"
)

// Response is the envelope of every JSON answer.
type Response struct {
	Status  bool        `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Logger.Errorf("Event ID: RESPONSE_ENCODE_FAILED, Description: %v", err)
	}
}

func writeOK(w http.ResponseWriter, message string, data interface{}) {
	writeJSON(w, http.StatusOK, Response{Status: true, Message: message, Data: data})
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case services.IsNotFound(err):
		return http.StatusNotFound
	case services.IsValidation(err):
		return http.StatusBadRequest
	case services.IsUnauthorized(err):
		return http.StatusUnauthorized
	case services.IsDependency(err):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError answers with the caller-facing message only. Causes go to the log.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		logging.Logger.Errorf("Event ID: REQUEST_FAILED, Description: %s %s failed: %v", r.Method, r.URL.Path, err)
	} else {
		logging.Logger.Debugf("Event ID: REQUEST_REJECTED, Description: %s %s rejected: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, code, Response{Status: false, Message: services.PublicMessage(err)})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, Response{Status: false, Message: message})
}

func decodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
