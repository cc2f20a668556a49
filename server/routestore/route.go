// Package routestore implements the Route Store of spec.md §4.3: a
// per-(userId, source) leased registry of reachable endpoints, backed by
// an ephemeral key-value store (Redis) that provides per-key TTL and
// sorted sets.
package routestore

import (
	"fmt"
	"net"

	"github.com/Yundera/mesh-router-backend/server/status"
)

// RouteType distinguishes an IP-literal endpoint from a domain-name endpoint.
type RouteType string

const (
	TypeIP     RouteType = "ip"
	TypeDomain RouteType = "domain"
)

// Scheme is the URL scheme a route should be reached through.
type Scheme string

const (
	SchemeHTTP  Scheme = "http"
	SchemeHTTPS Scheme = "https"
)

// HealthCheck is an optional, advisory probe description. The Route Store
// never itself probes routes (spec.md §1 Non-goals): it only stores this
// field for a consumer that might.
type HealthCheck struct {
	Path string `json:"path"`
	Host string `json:"host,omitempty"`
}

// Route is one reachable endpoint within a lease.
type Route struct {
	IP          string       `json:"ip"`
	Port        int          `json:"port"`
	Priority    int          `json:"priority"`
	Scheme      Scheme       `json:"scheme,omitempty"`
	Source      string       `json:"source"`
	HealthCheck *HealthCheck `json:"healthCheck,omitempty"`
	Type        RouteType    `json:"type,omitempty"`
	Domain      string       `json:"domain,omitempty"`
}

// dedupeKey is the composite key that makes a route unique within one lease.
func (r Route) dedupeKey() string {
	return fmt.Sprintf("%s|%d|%s|%s|%s", r.IP, r.Port, r.effectiveScheme(), r.effectiveType(), r.Domain)
}

func (r Route) effectiveScheme() Scheme {
	if r.Scheme == "" {
		return SchemeHTTPS
	}
	return r.Scheme
}

func (r Route) effectiveType() RouteType {
	if r.Type == "" {
		return TypeIP
	}
	return r.Type
}

// Normalize fills in the default scheme/type so stored routes always carry
// explicit values, matching the closed-sum shape spec.md §9 calls for.
func (r Route) Normalize() Route {
	r.Scheme = r.effectiveScheme()
	r.Type = r.effectiveType()
	return r
}

// Validate checks one route against the field/range rules of spec.md §3.
func (r Route) Validate() error {
	if r.Source == "" {
		return status.Errorf(status.InvalidArgument, "route is missing source")
	}
	if !validIP(r.IP) {
		return status.Errorf(status.InvalidArgument, "route has invalid ip: %q", r.IP)
	}
	if r.Port < 1 || r.Port > 65535 {
		return status.Errorf(status.InvalidArgument, "route port out of range: %d", r.Port)
	}
	switch r.Scheme {
	case "", SchemeHTTP, SchemeHTTPS:
	default:
		return status.Errorf(status.InvalidArgument, "route has invalid scheme: %q", r.Scheme)
	}
	switch r.Type {
	case "", TypeIP, TypeDomain:
	default:
		return status.Errorf(status.InvalidArgument, "route has invalid type: %q", r.Type)
	}
	if r.effectiveType() == TypeDomain && r.Domain == "" {
		return status.Errorf(status.InvalidArgument, "route of type domain is missing domain")
	}
	return nil
}

// validIP accepts IPv4 or IPv6 literals with at most one "::" compression.
// Beyond rejecting the empty string it relies on net.ParseIP, which already
// rejects a double "::".
func validIP(s string) bool {
	if s == "" {
		return false
	}
	return net.ParseIP(s) != nil
}

// ValidateBatch validates every route and rejects the whole batch if any
// route is missing its source field (spec.md §4.3 step 1).
func ValidateBatch(routes []Route) error {
	for i, r := range routes {
		if r.Source == "" {
			return status.Errorf(status.InvalidArgument, "route[%d] is missing source", i)
		}
	}
	for i, r := range routes {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("route[%d]: %w", i, err)
		}
	}
	return nil
}

// GroupBySource groups routes by Source, deduplicating within each group by
// the composite (ip, port, scheme, type, domain) key and keeping the last
// occurrence, preserving the first-seen order of surviving entries.
func GroupBySource(routes []Route) map[string][]Route {
	groups := make(map[string][]Route)
	seen := make(map[string]map[string]int)

	for _, r := range routes {
		r = r.Normalize()
		key := r.dedupeKey()
		if seen[r.Source] == nil {
			seen[r.Source] = make(map[string]int)
		}
		if idx, ok := seen[r.Source][key]; ok {
			groups[r.Source][idx] = r
			continue
		}
		groups[r.Source] = append(groups[r.Source], r)
		seen[r.Source][key] = len(groups[r.Source]) - 1
	}
	return groups
}
