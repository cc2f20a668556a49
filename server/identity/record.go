// Package identity implements the directory's authoritative mapping
// between a user id, the subdomain label that user owns, and the
// Ed25519 public key that authenticates every mutation the user makes.
package identity

import (
	"regexp"
	"time"
)

// labelPattern matches spec.md's domainName syntax: lowercase letters and
// digits only, 1-63 characters.
var labelPattern = regexp.MustCompile(`^[a-z0-9]{1,63}$`)

// reservedLabels can never be allocated to a user.
var reservedLabels = map[string]bool{
	"root": true,
	"app":  true,
	"www":  true,
}

// Record is one identity document, keyed by user id in the store.
//
// DomainName is a *string, not string: a record with no assigned label must
// persist as SQL NULL, not the empty string. A unique index on an empty
// string column would collide the first time two unclaimed records (or two
// records freshly released by the Cleanup Controller) were written, since
// Postgres treats '' as an ordinary indexed value but never indexes NULL.
type Record struct {
	UserID                string     `json:"userId" gorm:"column:user_id;primaryKey"`
	DomainName            *string    `json:"domainName,omitempty" gorm:"column:domain_name;uniqueIndex"`
	ServerDomain          string     `json:"serverDomain,omitempty" gorm:"column:server_domain"`
	PublicKey             string     `json:"publicKey,omitempty" gorm:"column:public_key"`
	LastSeenOnline        *time.Time `json:"lastSeenOnline,omitempty" gorm:"column:last_seen_online"`
	LastRouteRegistration *time.Time `json:"lastRouteRegistration,omitempty" gorm:"column:last_route_registration"`
}

// TableName pins the gorm table name regardless of struct name changes.
func (Record) TableName() string {
	return "nsl_router"
}

// Label returns the record's domain name, or "" if it has none assigned.
func (r *Record) Label() string {
	if r == nil || r.DomainName == nil {
		return ""
	}
	return *r.DomainName
}

// ValidLabelSyntax reports whether label matches the lowercase [a-z0-9]{1,63} rule.
func ValidLabelSyntax(label string) bool {
	return labelPattern.MatchString(label)
}

// IsReserved reports whether label is in the reserved set.
func IsReserved(label string) bool {
	return reservedLabels[label]
}
