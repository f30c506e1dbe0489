package entity

import "time"

// InviteStatus is the stored tag on an invitation. For pending invites
// the tag is advisory only: the expiry timestamp is authoritative, and
// EffectiveStatus must be used instead of reading Status directly.
type InviteStatus string

const (
	InvitePending   InviteStatus = "pending"
	InviteAccepted  InviteStatus = "accepted"
	InviteExpired   InviteStatus = "expired"
	InviteCancelled InviteStatus = "cancelled"
)

// Invite records one administrator request to onboard a new identity.
// At most one invite per email may be pending at any time; the store
// enforces that with a uniqueness constraint, not a client-side check.
type Invite struct {
	ID        int64        `json:"id"`
	Email     string       `json:"email"`
	Name      string       `json:"name"`
	IsAdmin   bool         `json:"is_admin"`
	Status    InviteStatus `json:"status"`
	Token     string       `json:"token"`
	InvitedBy string       `json:"invited_by"`
	IssuedAt  time.Time    `json:"issued_at"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// EffectiveStatus computes the state of the invite at the given moment.
// A stored pending tag past its expiry timestamp reads as expired even
// if no job ever flipped the stored value.
func (i *Invite) EffectiveStatus(now time.Time) InviteStatus {
	if i.Status == InvitePending && now.After(i.ExpiresAt) {
		return InviteExpired
	}
	return i.Status
}

// IsOutstanding reports whether the invite still blocks a re-invite
// and still entitles the invitee to complete signup.
func (i *Invite) IsOutstanding(now time.Time) bool {
	return i.EffectiveStatus(now) == InvitePending
}

// InviteReceipt is what invite issuance returns to the administrator.
// SignupLink is always present; when Delivered is false the email could
// not be sent and the link has to be shared manually.
type InviteReceipt struct {
	Invite     *Invite `json:"invite"`
	SignupLink string  `json:"signup_link"`
	Delivered  bool    `json:"delivered"`
}
