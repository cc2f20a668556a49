package identity

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/Yundera/mesh-router-backend/server/status"
)

// DefaultOnlineThreshold is the window spec.md §4.2 uses to derive online status.
const DefaultOnlineThreshold = 120 * time.Second

// Patch is a merge-write for upsert: a nil field is left untouched ("undefined"),
// matching spec.md's "ignores undefined-valued fields" rule. An explicit
// empty string still counts as a set field.
type Patch struct {
	DomainName   *string
	ServerDomain *string
	PublicKey    *string
}

// Availability is the result of checkAvailability.
type Availability struct {
	Available bool
	Message   string
}

// Registry is the Identity Registry of spec.md §4.2.
type Registry struct {
	store DocumentStore
}

// NewRegistry wraps a DocumentStore with the registry's business rules.
func NewRegistry(store DocumentStore) *Registry {
	return &Registry{store: store}
}

func withRetry(ctx context.Context, op func() error) error {
	bo := backoff.WithContext(&backoff.ExponentialBackOff{
		InitialInterval:     100 * time.Millisecond,
		RandomizationFactor: 0.5,
		Multiplier:          2,
		MaxInterval:         1 * time.Second,
		MaxElapsedTime:      3 * time.Second,
		Clock:               backoff.SystemClock,
	}, ctx)
	return backoff.Retry(op, bo)
}

// GetByID returns the record for userID, or nil if absent.
func (r *Registry) GetByID(ctx context.Context, userID string) (*Record, error) {
	var rec *Record
	err := withRetry(ctx, func() error {
		var innerErr error
		rec, innerErr = r.store.GetByID(ctx, userID)
		return innerErr
	})
	return rec, err
}

// GetByDomain looks up the owner of label. label must already be lower-cased by the caller.
func (r *Registry) GetByDomain(ctx context.Context, label string) (string, *Record, error) {
	var userID string
	var rec *Record
	err := withRetry(ctx, func() error {
		var innerErr error
		userID, rec, innerErr = r.store.GetByDomain(ctx, label)
		return innerErr
	})
	return userID, rec, err
}

// CheckAvailability validates syntax, reserved status, and current ownership, in that order.
func (r *Registry) CheckAvailability(ctx context.Context, label string) (Availability, error) {
	if !ValidLabelSyntax(label) {
		return Availability{Available: false, Message: "Domain name is invalid."}, nil
	}
	if IsReserved(label) {
		return Availability{Available: false, Message: "Domain name is not available."}, nil
	}
	_, existing, err := r.GetByDomain(ctx, label)
	if err != nil {
		return Availability{}, err
	}
	if existing != nil {
		return Availability{Available: false, Message: "Domain name is not available."}, nil
	}
	return Availability{Available: true, Message: "Domain name is available."}, nil
}

// Upsert merge-writes patch into userID's record, creating it if absent.
// If patch sets DomainName, ownership is enforced: the label must be either
// unowned or already owned by userID.
func (r *Registry) Upsert(ctx context.Context, userID string, patch Patch) (*Record, error) {
	if patch.DomainName == nil && patch.ServerDomain == nil && patch.PublicKey == nil {
		return nil, status.NewEmptyMergeError()
	}

	if patch.DomainName != nil && *patch.DomainName != "" {
		if !ValidLabelSyntax(*patch.DomainName) || IsReserved(*patch.DomainName) {
			return nil, status.NewDomainUnavailableError(*patch.DomainName)
		}

		ownerID, _, err := r.GetByDomain(ctx, *patch.DomainName)
		if err != nil {
			return nil, err
		}
		if ownerID != "" && ownerID != userID {
			return nil, status.NewDomainNotOwnedError(*patch.DomainName, userID)
		}
	}

	existing, err := r.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var rec Record
	if existing != nil {
		rec = *existing
	}
	rec.UserID = userID
	if patch.DomainName != nil {
		if *patch.DomainName == "" {
			rec.DomainName = nil
		} else {
			label := *patch.DomainName
			rec.DomainName = &label
		}
	}
	if patch.ServerDomain != nil {
		rec.ServerDomain = *patch.ServerDomain
	}
	if patch.PublicKey != nil {
		rec.PublicKey = *patch.PublicKey
	}

	err = withRetry(ctx, func() error {
		return r.store.Put(ctx, userID, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Delete hard-deletes userID's record.
func (r *Registry) Delete(ctx context.Context, userID string) error {
	return withRetry(ctx, func() error {
		return r.store.Delete(ctx, userID)
	})
}

// ClearDomainAssignment unsets domainName and publicKey while keeping the rest of the record.
func (r *Registry) ClearDomainAssignment(ctx context.Context, userID string) error {
	existing, err := r.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if existing == nil {
		return status.NewUserNotFoundError(userID)
	}
	existing.DomainName = nil
	existing.PublicKey = ""
	return withRetry(ctx, func() error {
		return r.store.Put(ctx, userID, existing)
	})
}

// TouchHeartbeat writes the current time to lastSeenOnline and returns it.
func (r *Registry) TouchHeartbeat(ctx context.Context, userID string) (time.Time, error) {
	return r.touchTimestamp(ctx, userID, func(rec *Record, now time.Time) { rec.LastSeenOnline = &now })
}

// TouchRouteRegistration writes the current time to lastRouteRegistration and returns it.
func (r *Registry) TouchRouteRegistration(ctx context.Context, userID string) (time.Time, error) {
	return r.touchTimestamp(ctx, userID, func(rec *Record, now time.Time) { rec.LastRouteRegistration = &now })
}

func (r *Registry) touchTimestamp(ctx context.Context, userID string, set func(*Record, time.Time)) (time.Time, error) {
	existing, err := r.GetByID(ctx, userID)
	if err != nil {
		return time.Time{}, err
	}
	if existing == nil {
		return time.Time{}, status.NewUserNotFoundError(userID)
	}
	now := time.Now().UTC()
	set(existing, now)
	err = withRetry(ctx, func() error {
		return r.store.Put(ctx, userID, existing)
	})
	if err != nil {
		return time.Time{}, err
	}
	return now, nil
}

// IsOnline derives online status from lastSeenOnline against threshold.
func IsOnline(lastSeenOnline *time.Time, threshold time.Duration) bool {
	if lastSeenOnline == nil {
		return false
	}
	return time.Since(*lastSeenOnline) <= threshold
}
