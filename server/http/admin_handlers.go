package http

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/Yundera/mesh-router-backend/server"
	"github.com/Yundera/mesh-router-backend/server/http/middleware"
	"github.com/Yundera/mesh-router-backend/server/http/util"
	"github.com/Yundera/mesh-router-backend/server/identity"
)

// AdminHandlers serves the token-authenticated administrative endpoints,
// treating the bearer token parsing/validation as an external collaborator
// behind middleware.CheckServiceAPIKey.
type AdminHandlers struct {
	svc *server.Service
}

// NewAdminHandlers wraps svc.
func NewAdminHandlers(svc *server.Service) *AdminHandlers {
	return &AdminHandlers{svc: svc}
}

// requireServiceToken accepts either admin bearer form: the preshared
// "key;userId" token, or an identity-provider JWT carrying the user id in
// its "sub" claim.
func (h *AdminHandlers) requireServiceToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	if userID, ok := middleware.CheckServiceAPIKey(r, h.svc.Config.ServiceAPIKey); ok {
		return userID, true
	}
	if userID, ok := middleware.CheckIdentityToken(r, h.svc.Config.JWTSigningKey); ok {
		return userID, true
	}
	util.WriteErrorResponse("authentication failed", http.StatusUnauthorized, w)
	return "", false
}

type domainPatchRequest struct {
	DomainName   *string `json:"domainName"`
	ServerDomain *string `json:"serverDomain"`
	PublicKey    *string `json:"publicKey"`
}

type domainPatchResponse struct {
	UserID       string `json:"userId"`
	DomainName   string `json:"domainName"`
	ServerDomain string `json:"serverDomain"`
	PublicKey    string `json:"publicKey"`
}

// PostDomain handles POST /domain, merge-writing the identity record
// embedded in the bearer token's user id.
func (h *AdminHandlers) PostDomain(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireServiceToken(w, r)
	if !ok {
		return
	}

	var body domainPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		util.WriteErrorResponse("invalid request body", http.StatusBadRequest, w)
		return
	}

	rec, err := h.svc.Registry.Upsert(r.Context(), userID, identity.Patch{
		DomainName:   body.DomainName,
		ServerDomain: body.ServerDomain,
		PublicKey:    body.PublicKey,
	})
	if err != nil {
		util.WriteError(err, w)
		return
	}

	if body.DomainName != nil && *body.DomainName != "" {
		if err := h.svc.AuditLog.Assigned(*body.DomainName, userID); err != nil {
			log.WithError(err).Warn("admin: failed writing audit log line")
		}
	}

	util.WriteJSONObject(w, domainPatchResponse{
		UserID:       rec.UserID,
		DomainName:   rec.Label(),
		ServerDomain: rec.ServerDomain,
		PublicKey:    rec.PublicKey,
	})
}

// DeleteDomain handles DELETE /domain, releasing the label owned by the
// bearer token's user id without deleting the rest of the identity record.
func (h *AdminHandlers) DeleteDomain(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireServiceToken(w, r)
	if !ok {
		return
	}

	if err := h.svc.Registry.ClearDomainAssignment(r.Context(), userID); err != nil {
		util.WriteError(err, w)
		return
	}
	util.WriteJSONObject(w, map[string]string{"message": "domain released"})
}

// PostAdminCleanup handles POST /admin/cleanup, triggering the Cleanup
// Controller's pass on demand instead of waiting for its cron schedule. A
// burst of calls within the debounce window collapses into a single pass.
func (h *AdminHandlers) PostAdminCleanup(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireServiceToken(w, r); !ok {
		return
	}

	h.svc.Cleanup.TriggerAsync()
	util.WriteJSONObject(w, map[string]string{"message": "cleanup triggered"})
}
