// Handler helpers: JSON encoding, error mapping and request context access.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/skillsteps/skillsteps/internal/api/ctxkeys"
	"github.com/skillsteps/skillsteps/pkg/apperr"
)

// maxBodyBytes caps request bodies; saved paths are the largest payload.
const maxBodyBytes = 1 << 20

var errMissingUserID = errors.New("user_id not found in context")

// getUserID retrieves the authenticated user id injected by AuthMiddleware.
func getUserID(ctx context.Context) (string, error) {
	userID := ctxkeys.String(ctx, ctxkeys.UserID)
	if userID == "" {
		return "", errMissingUserID
	}
	return userID, nil
}

// decodeJSON reads a size-limited JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorResponse{Error: message})
}

// writeGenerationError maps a generation failure to its HTTP status and
// reports the error kind so clients can tell a bad request from a bad upstream.
// Wrapped causes are not sent; the generator logs them.
func writeGenerationError(w http.ResponseWriter, err error) {
	var e *apperr.Error
	if !errors.As(err, &e) {
		writeError(w, http.StatusInternalServerError, "generation failed")
		return
	}
	writeJSON(w, statusForKind(e.Kind), errorResponse{Error: publicMessage(e), Kind: string(e.Kind)})
}

// publicMessage renders e without its wrapped cause or upstream body.
func publicMessage(e *apperr.Error) string {
	msg := string(e.Kind) + " error"
	if e.Message != "" {
		msg = e.Message
	}
	if e.Action != "" {
		msg = e.Action + ": " + msg
	}
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	return msg
}

func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidArgument:
		return http.StatusBadRequest
	case apperr.KindConfiguration:
		return http.StatusServiceUnavailable
	case apperr.KindTransport, apperr.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
