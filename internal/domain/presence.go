package domain

import "context"

// PresenceTracker reports whether a professional is currently active.
// IsActive never fails: absence of data (or a backend error) means inactive.
type PresenceTracker interface {
	IsActive(ctx context.Context, ownerID string) bool
}
