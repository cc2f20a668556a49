package identity

import "context"

// DocumentStore is the external document store's fixed interface (spec.md
// §4.2): per-id read/write plus an equality query on domainName. The
// concrete implementation lives in gormstore.go; memstore.go backs tests.
type DocumentStore interface {
	// GetByID returns the record for userID, or (nil, nil) if absent.
	GetByID(ctx context.Context, userID string) (*Record, error)
	// GetByDomain returns the (userID, record) owning label, or ("", nil, nil) if unowned.
	GetByDomain(ctx context.Context, label string) (string, *Record, error)
	// Put creates or fully overwrites the record for userID.
	Put(ctx context.Context, userID string, record *Record) error
	// Delete hard-deletes the record for userID. Deleting an absent record is not an error.
	Delete(ctx context.Context, userID string) error
}
