package entity

import "errors"

// Sentinel errors shared across coordinators and the HTTP layer.
// Wrap with fmt.Errorf("...: %w", err) to add context, match with errors.Is.
var (
	// ErrDuplicateInvite: an invite with status pending already exists for
	// the email. Raised only from the store's uniqueness constraint.
	ErrDuplicateInvite = errors.New("an active invite already exists for this email; cancel it first")

	// ErrSelfModification: an administrator tried to change their own role
	// or status through the admin path.
	ErrSelfModification = errors.New("administrators cannot modify their own account")

	// ErrIllegalTransition: the requested status change is not allowed by
	// the profile status machine.
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrNotPending: pending-user removal was invoked on an active or
	// suspended profile; full account erasure is the correct operation.
	ErrNotPending = errors.New("profile is not pending")

	// ErrNotFound: the record does not exist. A repeated delete lands here
	// and is treated as success of intent by callers that retry.
	ErrNotFound = errors.New("not found")

	// ErrEraseFailed: the profile row could not be deleted; the erase was
	// aborted before touching the identity service.
	ErrEraseFailed = errors.New("account erase failed")

	// ErrIdentityOrphaned: local records are gone but the external identity
	// could not be deleted. Partial success, never conflated with either
	// full success or full failure.
	ErrIdentityOrphaned = errors.New("local records removed but identity deletion failed")

	// ErrForbidden: the acting profile lacks administrator privilege.
	ErrForbidden = errors.New("administrator privilege required")
)
