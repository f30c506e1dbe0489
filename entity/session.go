package entity

import "time"

// Identity is the slice of the external identity service record this
// core cares about: who a session token belongs to.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// SessionMeta is authoritative session metadata held by the identity
// service; it is merged into listings, never persisted locally.
type SessionMeta struct {
	LastSignInAt time.Time `json:"last_sign_in_at"`
}

// ProfileView is a profile enriched with session metadata. LastSignInAt
// is nil when the identity service could not be reached for this profile
// or the user has never signed in.
type ProfileView struct {
	Profile
	LastSignInAt *time.Time `json:"last_sign_in_at,omitempty"`
}

// ProfileDetail backs the admin confirmation dialog before teardown:
// the enriched profile plus how many owned records erasure would remove.
type ProfileDetail struct {
	ProfileView
	OwnedRecords int64 `json:"owned_records"`
}

// PendingUser is one logical outstanding invitation. A pending profile
// and a pending invite with the same email are the same invitation
// surfaced through two records; unified listings collapse them here.
type PendingUser struct {
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	IsAdmin   bool       `json:"is_admin"`
	ProfileID string     `json:"profile_id,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}
