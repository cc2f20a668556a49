package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/Yundera/mesh-router-backend/server"
	"github.com/Yundera/mesh-router-backend/server/auth"
	"github.com/Yundera/mesh-router-backend/server/identity"
	"github.com/Yundera/mesh-router-backend/server/http/util"
)

const rfc3339 = time.RFC3339

// PublicHandlers serves spec.md §6's unauthenticated endpoints.
type PublicHandlers struct {
	svc *server.Service
}

// NewPublicHandlers wraps svc.
func NewPublicHandlers(svc *server.Service) *PublicHandlers {
	return &PublicHandlers{svc: svc}
}

type availabilityResponse struct {
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

// GetAvailable handles GET /available/{label}.
func (h *PublicHandlers) GetAvailable(w http.ResponseWriter, r *http.Request) {
	label := strings.ToLower(mux.Vars(r)["label"])

	avail, err := h.svc.Registry.CheckAvailability(r.Context(), label)
	if err != nil {
		util.WriteError(err, w)
		return
	}

	resp := availabilityResponse{Available: avail.Available, Message: avail.Message}
	if avail.Available {
		util.WriteJSONObjectWithStatus(w, http.StatusOK, resp)
		return
	}
	// 209 is a deliberate non-standard sentinel for "label unavailable" (spec.md §6/§9).
	util.WriteJSONObjectWithStatus(w, 209, resp)
}

type domainResponse struct {
	DomainName   string `json:"domainName"`
	ServerDomain string `json:"serverDomain"`
	PublicKey    string `json:"publicKey"`
}

// GetDomain handles GET /domain/{userId}.
func (h *PublicHandlers) GetDomain(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	rec, err := h.svc.Registry.GetByID(r.Context(), userID)
	if err != nil {
		util.WriteError(err, w)
		return
	}
	if rec == nil {
		// 280 is a deliberate non-standard sentinel for "user not found" on this endpoint.
		util.WriteJSONObjectWithStatus(w, 280, map[string]string{"error": "User not found."})
		return
	}

	util.WriteJSONObject(w, domainResponse{
		DomainName:   rec.Label(),
		ServerDomain: rec.ServerDomain,
		PublicKey:    rec.PublicKey,
	})
}

// GetVerify handles GET /verify/{userId}/{sig}. It always returns 200: the
// body shape alone distinguishes success from failure (spec.md §6).
func (h *PublicHandlers) GetVerify(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, sig := vars["userId"], vars["sig"]

	result, err := h.svc.Auth.Authenticate(r.Context(), userID, sig)
	if err != nil {
		util.WriteError(err, w)
		return
	}

	switch result {
	case auth.Authenticated:
		rec, err := h.svc.Registry.GetByID(r.Context(), userID)
		if err != nil || rec == nil {
			util.WriteJSONObjectWithStatus(w, http.StatusOK, map[string]string{"error": "unknown user"})
			return
		}
		util.WriteJSONObjectWithStatus(w, http.StatusOK, map[string]string{
			"serverDomain": rec.ServerDomain,
			"domainName":   rec.Label(),
		})
	case auth.UnknownUser:
		util.WriteJSONObjectWithStatus(w, http.StatusOK, map[string]string{"error": "unknown user"})
	default: // BadFormat, Mismatch
		util.WriteJSONObjectWithStatus(w, http.StatusOK, map[string]bool{"valid": false})
	}
}

type statusResponse struct {
	Online         bool    `json:"online"`
	LastSeenOnline *string `json:"lastSeenOnline"`
}

// GetStatus handles GET /status/{userId}.
func (h *PublicHandlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	rec, err := h.svc.Registry.GetByID(r.Context(), userID)
	if err != nil {
		util.WriteError(err, w)
		return
	}
	if rec == nil {
		util.WriteErrorResponse("user not found", http.StatusNotFound, w)
		return
	}

	resp := statusResponse{Online: identity.IsOnline(rec.LastSeenOnline, identity.DefaultOnlineThreshold)}
	if rec.LastSeenOnline != nil {
		formatted := rec.LastSeenOnline.UTC().Format(rfc3339)
		resp.LastSeenOnline = &formatted
	}
	util.WriteJSONObject(w, resp)
}
