package http

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/Yundera/mesh-router-backend/server"
	"github.com/Yundera/mesh-router-backend/server/http/util"
	"github.com/Yundera/mesh-router-backend/server/routestore"
)

// ResolveHandlers serves the consumer-facing lookup endpoints: a label-to-routes
// resolution used by edge proxies, and the raw route/CA-cert reads.
type ResolveHandlers struct {
	svc *server.Service
}

// NewResolveHandlers wraps svc.
func NewResolveHandlers(svc *server.Service) *ResolveHandlers {
	return &ResolveHandlers{svc: svc}
}

type resolveResponse struct {
	UserID         string             `json:"userId"`
	DomainName     string             `json:"domainName"`
	ServerDomain   string             `json:"serverDomain"`
	Routes         []routestore.Route `json:"routes"`
	RoutesTTL      int64              `json:"routesTtl"`
	LastSeenOnline *string            `json:"lastSeenOnline"`
}

// GetResolve handles GET /resolve/v2/{label}.
func (h *ResolveHandlers) GetResolve(w http.ResponseWriter, r *http.Request) {
	label := strings.ToLower(mux.Vars(r)["label"])

	userID, rec, err := h.svc.Registry.GetByDomain(r.Context(), label)
	if err != nil {
		util.WriteError(err, w)
		return
	}
	if rec == nil {
		util.WriteErrorResponse("domain not found", http.StatusNotFound, w)
		return
	}

	routes, err := h.svc.Routes.GetRoutes(r.Context(), userID)
	if err != nil {
		util.WriteError(err, w)
		return
	}
	ttl, err := h.svc.Routes.GetRoutesTTL(r.Context(), userID)
	if err != nil {
		util.WriteError(err, w)
		return
	}

	resp := resolveResponse{
		UserID:       userID,
		DomainName:   rec.Label(),
		ServerDomain: rec.ServerDomain,
		Routes:       routes,
		RoutesTTL:    ttl,
	}
	if rec.LastSeenOnline != nil {
		formatted := rec.LastSeenOnline.UTC().Format(rfc3339)
		resp.LastSeenOnline = &formatted
	}
	util.WriteJSONObject(w, resp)
}

type routesResponse struct {
	Routes []routestore.Route `json:"routes"`
}

// GetRoutes handles GET /routes/{userId}.
func (h *ResolveHandlers) GetRoutes(w http.ResponseWriter, r *http.Request) {
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

	routes, err := h.svc.Routes.GetRoutes(r.Context(), userID)
	if err != nil {
		util.WriteError(err, w)
		return
	}
	util.WriteJSONObject(w, routesResponse{Routes: routes})
}

// GetCACert handles GET /ca-cert.
func (h *ResolveHandlers) GetCACert(w http.ResponseWriter, r *http.Request) {
	pem, err := h.svc.CA.GetCACertificate()
	if err != nil {
		util.WriteError(err, w)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=UTF-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pem)
}
