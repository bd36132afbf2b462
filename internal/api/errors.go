package api

import (
	"encoding/json"
	"net/http"
)

// notFound and methodNotAllowed keep router-level errors in the same JSON
// shape the handlers use.
func notFound(w http.ResponseWriter, _ *http.Request) {
	writeRouterError(w, http.StatusNotFound, "route not found")
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeRouterError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeRouterError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message}) //nolint:errcheck
}
