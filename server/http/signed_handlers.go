package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/Yundera/mesh-router-backend/server"
	"github.com/Yundera/mesh-router-backend/server/auth"
	"github.com/Yundera/mesh-router-backend/server/http/middleware"
	"github.com/Yundera/mesh-router-backend/server/http/util"
	"github.com/Yundera/mesh-router-backend/server/routestore"
)

// SignedHandlers serves the signature-authenticated endpoints of spec.md §6:
// every request carries a path-embedded signature over the user id.
type SignedHandlers struct {
	svc *server.Service
}

// NewSignedHandlers wraps svc.
func NewSignedHandlers(svc *server.Service) *SignedHandlers {
	return &SignedHandlers{svc: svc}
}

// logAuthDenial records a warning entry for an auth failure without leaking
// which flavor (bad format vs. mismatch) to the caller (spec.md §7).
func logAuthDenial(r *http.Request, endpoint, userID string) {
	log.WithFields(log.Fields{
		"clientIP":  r.RemoteAddr,
		"userAgent": r.UserAgent(),
		"endpoint":  endpoint,
		"userID":    userID,
	}).Warn("signature authentication denied")
}

// authenticate runs the signature check for endpoint, writing the error
// response itself on failure: 404 for an unknown user, 401 for a denied
// signature. Returns (userID, request carrying the user id, ok).
func (h *SignedHandlers) authenticate(w http.ResponseWriter, r *http.Request, endpoint string) (string, *http.Request, bool) {
	vars := mux.Vars(r)
	userID, sig := vars["userId"], vars["sig"]

	result, r2 := middleware.AuthenticateSignature(r, h.svc.Auth, userID, sig)
	switch result {
	case auth.Authenticated:
		return userID, r2, true
	case auth.UnknownUser:
		util.WriteErrorResponse("user not found", http.StatusNotFound, w)
		return "", r, false
	default: // BadFormat, Mismatch
		logAuthDenial(r, endpoint, userID)
		util.WriteErrorResponse("authentication failed", http.StatusUnauthorized, w)
		return "", r, false
	}
}

type registerRoutesRequest struct {
	Routes []routestore.Route `json:"routes"`
}

type registerRoutesResponse struct {
	Message string             `json:"message"`
	Routes  []routestore.Route `json:"routes"`
	Domain  string             `json:"domain"`
}

// PostRoutes handles POST /routes/{userId}/{sig}.
func (h *SignedHandlers) PostRoutes(w http.ResponseWriter, r *http.Request) {
	userID, r, ok := h.authenticate(w, r, "POST /routes")
	if !ok {
		return
	}

	var body registerRoutesRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Routes) == 0 {
		util.WriteErrorResponse("routes is required and must not be empty", http.StatusBadRequest, w)
		return
	}

	if err := h.svc.Routes.Register(r.Context(), userID, body.Routes); err != nil {
		// spec.md §7/§9: validation rejections here preserve the historical
		// 500 response observed in production rather than the generic 400
		// StatusCodeFor would otherwise assign.
		util.WriteErrorResponse(err.Error(), http.StatusInternalServerError, w)
		return
	}

	if _, err := h.svc.Registry.TouchRouteRegistration(r.Context(), userID); err != nil {
		util.WriteError(err, w)
		return
	}

	routes, err := h.svc.Routes.GetRoutes(r.Context(), userID)
	if err != nil {
		util.WriteError(err, w)
		return
	}

	rec, err := h.svc.Registry.GetByID(r.Context(), userID)
	if err != nil {
		util.WriteError(err, w)
		return
	}
	domain := rec.Label()

	util.WriteJSONObject(w, registerRoutesResponse{
		Message: "routes registered",
		Routes:  routes,
		Domain:  domain,
	})
}

// DeleteRoutes handles DELETE /routes/{userId}/{sig}.
func (h *SignedHandlers) DeleteRoutes(w http.ResponseWriter, r *http.Request) {
	userID, r, ok := h.authenticate(w, r, "DELETE /routes")
	if !ok {
		return
	}

	if err := h.svc.Routes.DeleteRoutes(r.Context(), userID); err != nil {
		util.WriteError(err, w)
		return
	}
	util.WriteJSONObject(w, map[string]string{"message": "routes deleted"})
}

type heartbeatResponse struct {
	Message        string `json:"message"`
	LastSeenOnline string `json:"lastSeenOnline"`
}

// PostHeartbeat handles POST /heartbeat/{userId}/{sig}.
func (h *SignedHandlers) PostHeartbeat(w http.ResponseWriter, r *http.Request) {
	userID, r, ok := h.authenticate(w, r, "POST /heartbeat")
	if !ok {
		return
	}

	now, err := h.svc.Registry.TouchHeartbeat(r.Context(), userID)
	if err != nil {
		util.WriteError(err, w)
		return
	}

	util.WriteJSONObject(w, heartbeatResponse{
		Message:        "heartbeat recorded",
		LastSeenOnline: now.UTC().Format(rfc3339),
	})
}

type certRequest struct {
	CSR      string `json:"csr"`
	PublicIP string `json:"publicIp"`
}

type certResponse struct {
	Certificate   string `json:"certificate"`
	ExpiresAt     string `json:"expiresAt"`
	CACertificate string `json:"caCertificate"`
}

// PostCert handles POST /cert/{userId}/{sig}.
func (h *SignedHandlers) PostCert(w http.ResponseWriter, r *http.Request) {
	userID, r, ok := h.authenticate(w, r, "POST /cert")
	if !ok {
		return
	}

	var body certRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.CSR == "" {
		util.WriteErrorResponse("csr is required", http.StatusBadRequest, w)
		return
	}

	result, err := h.svc.CA.SignCSR([]byte(body.CSR), userID, body.PublicIP)
	if err != nil {
		util.WriteError(err, w)
		return
	}

	caCertPEM, err := h.svc.CA.GetCACertificate()
	if err != nil {
		util.WriteError(err, w)
		return
	}

	util.WriteJSONObject(w, certResponse{
		Certificate:   string(result.CertificatePEM),
		ExpiresAt:     result.NotAfter.UTC().Format(rfc3339),
		CACertificate: string(caCertPEM),
	})
}
