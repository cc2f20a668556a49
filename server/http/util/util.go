// Package util holds the HTTP response helpers shared by every handler:
// JSON encoding and the single place status.Error.Type is translated into
// an HTTP status code (spec.md §7).
package util

import (
	"encoding/json"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/Yundera/mesh-router-backend/server/status"
)

// ErrorResponse is the JSON shape of an error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteJSONObject writes obj as a 200 JSON response.
func WriteJSONObject(w http.ResponseWriter, obj interface{}) {
	WriteJSONObjectWithStatus(w, http.StatusOK, obj)
}

// WriteJSONObjectWithStatus writes obj as a JSON response with an explicit status code,
// needed for spec.md's non-standard sentinels (209 availability, 280 user-not-found).
func WriteJSONObjectWithStatus(w http.ResponseWriter, httpStatus int, obj interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(httpStatus)
	if err := json.NewEncoder(w).Encode(obj); err != nil {
		log.WithError(err).Error("failed encoding JSON response")
	}
}

// WriteErrorResponse writes {"error": errMsg} with an explicit status code.
func WriteErrorResponse(errMsg string, httpStatus int, w http.ResponseWriter) {
	WriteJSONObjectWithStatus(w, httpStatus, &ErrorResponse{Error: errMsg})
}

// StatusCodeFor maps a status.Type to its default HTTP status. Individual
// handlers may deviate from this default where spec.md calls for it (e.g.
// POST /routes preserves a historical 500 for validation failures).
func StatusCodeFor(t status.Type) int {
	switch t {
	case status.NotFound:
		return http.StatusNotFound
	case status.Conflict, status.AlreadyExists:
		return http.StatusInternalServerError
	case status.InvalidArgument:
		return http.StatusBadRequest
	case status.Unauthenticated:
		return http.StatusUnauthorized
	case status.PermissionDenied:
		return http.StatusForbidden
	case status.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteError converts err into a JSON error response, using StatusCodeFor's
// default mapping for any *status.Error and 500 for anything unrecognized
// (infrastructure errors bubble up unchanged per spec.md §7).
func WriteError(err error, w http.ResponseWriter) {
	log.WithError(err).Error("handler error")

	httpStatus := http.StatusInternalServerError
	msg := err.Error()
	if se, ok := status.FromError(err); ok && se != nil {
		httpStatus = StatusCodeFor(se.Type())
		msg = strings.ToLower(se.Error())
	}
	WriteErrorResponse(msg, httpStatus, w)
}
