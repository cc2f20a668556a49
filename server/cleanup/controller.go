// Package cleanup implements the Cleanup Controller: it reclaims subdomain
// labels whose owners have gone silent past the configured inactivity
// threshold, on a cron schedule and on demand.
package cleanup

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/Yundera/mesh-router-backend/server/audit"
	"github.com/Yundera/mesh-router-backend/server/identity"
	"github.com/Yundera/mesh-router-backend/server/reqctx"
	"github.com/Yundera/mesh-router-backend/util"
)

// ActivityTracker is the subset of activity.Tracker the controller needs.
type ActivityTracker interface {
	GetInactiveSince(ctx context.Context, days int) ([]string, error)
	GetTimestamp(ctx context.Context, userID string) (*int64, error)
	Remove(ctx context.Context, userID string) error
}

// Result is the outcome of one cleanup pass. RunID correlates the pass's
// log lines across the cron and on-demand entry points.
type Result struct {
	RunID         string   `json:"runId"`
	ReleasedCount int      `json:"releasedCount"`
	Domains       []string `json:"domains"`
}

// triggerDebounce is the window within which repeated on-demand cleanup
// triggers collapse into a single pass (see TriggerAsync).
const triggerDebounce = 2 * time.Second

// Controller runs the label-reclamation algorithm.
type Controller struct {
	registry       *identity.Registry
	activity       ActivityTracker
	auditLog       *audit.Log
	inactivityDays int

	trigger *debouncer
}

// NewController wires the registry, activity tracker, audit log, and
// inactivity threshold (in days) the controller reads from configuration.
func NewController(registry *identity.Registry, activity ActivityTracker, auditLog *audit.Log, inactivityDays int) *Controller {
	return &Controller{
		registry:       registry,
		activity:       activity,
		auditLog:       auditLog,
		inactivityDays: inactivityDays,
		trigger:        newDebouncer(),
	}
}

// TriggerAsync schedules a cleanup pass to run after the debounce window, so
// a burst of concurrent calls to POST /admin/cleanup collapses into a
// single pass instead of running one overlapping Run per request.
func (c *Controller) TriggerAsync() {
	c.trigger.Trigger(triggerDebounce, func() {
		ctx := context.WithValue(context.Background(), reqctx.SourceKey, util.CleanupSource)
		if result, err := c.Run(ctx); err != nil {
			log.WithContext(ctx).WithField("runId", result.RunID).WithError(err).Warn("on-demand cleanup pass completed with errors")
		} else {
			log.WithContext(ctx).WithField("runId", result.RunID).Infof("on-demand cleanup pass released %d domain(s)", result.ReleasedCount)
		}
	})
}

// Run performs one cleanup pass. Each user id's pipeline is isolated: a
// failure for one user is collected and logged but never aborts the others.
func (c *Controller) Run(ctx context.Context) (Result, error) {
	runID := uuid.New().String()
	ids, err := c.activity.GetInactiveSince(ctx, c.inactivityDays)
	if err != nil {
		return Result{RunID: runID}, err
	}

	var released []string
	var errs *multierror.Error

	for _, userID := range ids {
		label, err := c.releaseOne(ctx, userID)
		if err != nil {
			errs = multierror.Append(errs, err)
			log.WithField("runId", runID).WithError(err).Warnf("cleanup: failed releasing user %s", userID)
			continue
		}
		if label != "" {
			released = append(released, label)
		}
	}

	return Result{RunID: runID, ReleasedCount: len(released), Domains: released}, errs.ErrorOrNil()
}

// releaseOne releases one user's label and clears their activity record,
// returning the released label ("" if the user had no label to release).
func (c *Controller) releaseOne(ctx context.Context, userID string) (string, error) {
	rec, err := c.registry.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if rec == nil || rec.DomainName == nil {
		return "", c.activity.Remove(ctx, userID)
	}

	inactiveDays := c.inactivityDays
	if ts, err := c.activity.GetTimestamp(ctx, userID); err == nil && ts != nil {
		elapsed := time.Since(time.UnixMilli(*ts))
		inactiveDays = int(elapsed / (24 * time.Hour))
	}

	label := rec.Label()
	if c.auditLog != nil {
		if err := c.auditLog.Released(label, userID, inactiveDays); err != nil {
			log.WithError(err).Warn("cleanup: failed writing audit log line")
		}
	}

	if err := c.registry.ClearDomainAssignment(ctx, userID); err != nil {
		return "", err
	}
	if err := c.activity.Remove(ctx, userID); err != nil {
		return "", err
	}
	return label, nil
}
