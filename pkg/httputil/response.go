package httputil

import (
	"encoding/json"
	"net/http"

	"naskahweb/pkg/logger"
)

// RespondJSON marshals data before writing headers so an encoding failure
// still produces a clean 500.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		logger.Sugar.Errorf("Failed to encode response: %v", err)
		RespondError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}

type errorBody struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

func RespondError(w http.ResponseWriter, status int, message string) {
	payload, _ := json.Marshal(errorBody{Error: message, Status: status})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}

// Redirect sends a 303 so a redirected POST or DELETE turns into a GET.
func Redirect(w http.ResponseWriter, r *http.Request, location string) {
	http.Redirect(w, r, location, http.StatusSeeOther)
}
