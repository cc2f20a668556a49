package server

import (
	"github.com/Yundera/mesh-router-backend/server/activity"
	"github.com/Yundera/mesh-router-backend/server/auth"
	"github.com/Yundera/mesh-router-backend/server/audit"
	"github.com/Yundera/mesh-router-backend/server/ca"
	"github.com/Yundera/mesh-router-backend/server/cleanup"
	"github.com/Yundera/mesh-router-backend/server/identity"
	"github.com/Yundera/mesh-router-backend/server/routestore"
)

// Service bundles every component the HTTP layer needs, constructed once at
// startup and passed into handlers — the teacher's equivalent of AccountManager,
// kept as an explicit dependency rather than a process-wide singleton (spec.md §9).
type Service struct {
	Config     *Config
	Registry   *identity.Registry
	Auth       *auth.Authenticator
	Routes     *routestore.Store
	Activity   *activity.Tracker
	Cleanup    *cleanup.Controller
	CronRunner *cleanup.CronRunner
	CA         *ca.Authority
	AuditLog   *audit.Log
}
