package entity

import "time"

// ProfileStatus is the lifecycle state of an account.
// Status machine: pending -> active (registrant completes signup),
// active <-> suspended (administrator-driven, reversible).
// There is no path back to pending; a pending profile is either
// activated by signup or removed entirely.
type ProfileStatus string

const (
	StatusPending   ProfileStatus = "pending"
	StatusActive    ProfileStatus = "active"
	StatusSuspended ProfileStatus = "suspended"
)

func (s ProfileStatus) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusSuspended:
		return true
	}
	return false
}

// CanTransitionTo reports whether the status machine allows moving
// from s to next. pending -> active is reserved for signup completion;
// administrative activate/suspend only move between active and suspended.
func (s ProfileStatus) CanTransitionTo(next ProfileStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusActive
	case StatusActive:
		return next == StatusSuspended
	case StatusSuspended:
		return next == StatusActive
	}
	return false
}

// Profile is the local record for one identity: role flag and lifecycle
// status, correlated to the external identity service by ID and email.
// ID is assigned by the identity service and never changes.
type Profile struct {
	ID        string        `json:"id"`
	Email     string        `json:"email"`
	Name      string        `json:"name"`
	IsAdmin   bool          `json:"is_admin"`
	Status    ProfileStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}

func (p *Profile) IsPending() bool {
	return p.Status == StatusPending
}

func (p *Profile) IsSuspended() bool {
	return p.Status == StatusSuspended
}
