// Package invite orchestrates invitation issuance across the invite
// store, the identity service and the mail collaborator. The invite row
// is the authoritative proof an invitation was requested; everything
// after the insert is best-effort.
package invite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"techlog/entity"
	"techlog/lib/sl"
	"techlog/lib/validate"

	"github.com/google/uuid"
)

type InviteStore interface {
	InsertInvite(inv *entity.Invite) error
	GetPendingInvite(email string) (*entity.Invite, error)
	SetInviteStatus(email string, status entity.InviteStatus) error
}

type ProfileStore interface {
	InsertProfile(p *entity.Profile) error
}

type IdentityService interface {
	CreateShadowIdentity(ctx context.Context, email string, meta map[string]string) (string, error)
}

type Mailer interface {
	SendInviteEmail(email, name, signupLink, inviterName string) error
}

type Audit interface {
	SaveAuditEvent(event *entity.AuditEvent) error
}

type Coordinator struct {
	invites   InviteStore
	profiles  ProfileStore
	identity  IdentityService
	mail      Mailer
	audit     Audit
	signupURL string
	ttl       time.Duration
	now       func() time.Time
	log       *slog.Logger
}

func New(invites InviteStore, profiles ProfileStore, identity IdentityService, signupURL string, expiryDays int, log *slog.Logger) *Coordinator {
	if invites == nil {
		panic("invite store is nil")
	}
	if expiryDays <= 0 {
		expiryDays = 7
	}
	return &Coordinator{
		invites:   invites,
		profiles:  profiles,
		identity:  identity,
		signupURL: signupURL,
		ttl:       time.Duration(expiryDays) * 24 * time.Hour,
		now:       time.Now,
		log:       log.With(sl.Module("invite")),
	}
}

func (c *Coordinator) SetMailer(mail Mailer) {
	c.mail = mail
}

func (c *Coordinator) SetAudit(audit Audit) {
	c.audit = audit
}

func (c *Coordinator) SetClock(now func() time.Time) {
	c.now = now
}

// Issue creates the invite row, then tries to create a shadow identity
// and send the invitation email. Only the insert can fail the operation:
// a duplicate pending invite surfaces as entity.ErrDuplicateInvite from
// the store constraint and nothing further is attempted. Identity or
// mail failures leave the invite standing and the administrator gets the
// signup link to share manually.
func (c *Coordinator) Issue(ctx context.Context, req *entity.InviteRequest, acting *entity.Profile) (*entity.InviteReceipt, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid invite request: %w", err)
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	now := c.now().UTC()

	log := c.log.With(
		slog.String("email", email),
		slog.String("acting_id", acting.ID),
	)

	inv := &entity.Invite{
		Email:     email,
		Name:      req.Name,
		IsAdmin:   req.IsAdmin,
		Status:    entity.InvitePending,
		Token:     uuid.NewString(),
		InvitedBy: acting.ID,
		IssuedAt:  now,
		ExpiresAt: now.Add(c.ttl),
	}
	if err := c.insertReleasingExpired(inv, now); err != nil {
		if errors.Is(err, entity.ErrDuplicateInvite) {
			c.auditStep(acting.ID, "invite.issue", email, "insert-invite", err)
			return nil, entity.ErrDuplicateInvite
		}
		return nil, fmt.Errorf("issue invite: %w", err)
	}
	c.auditStep(acting.ID, "invite.issue", email, "insert-invite", nil)

	link := c.signupLink(inv)

	identityID, err := c.identity.CreateShadowIdentity(ctx, email, map[string]string{
		"status":     string(entity.StatusPending),
		"invited_by": acting.Name,
	})
	c.auditStep(acting.ID, "invite.issue", email, "shadow-identity", err)
	if err != nil {
		// invite row already proves the request; the admin can retry
		log.Warn("shadow identity creation failed", sl.Step("shadow-identity"), sl.Err(err))
	} else if c.profiles != nil {
		p := &entity.Profile{
			ID:        identityID,
			Email:     email,
			Name:      req.Name,
			IsAdmin:   req.IsAdmin,
			Status:    entity.StatusPending,
			CreatedAt: now,
		}
		if err = c.profiles.InsertProfile(p); err != nil {
			log.Warn("pending profile insert failed", sl.Step("pending-profile"), sl.Err(err))
		}
		c.auditStep(acting.ID, "invite.issue", email, "pending-profile", err)
	}

	delivered := false
	if c.mail != nil {
		err = c.mail.SendInviteEmail(email, req.Name, link, acting.Name)
		c.auditStep(acting.ID, "invite.issue", email, "notify", err)
		if err != nil {
			log.Warn("invite email failed, share the signup link manually", sl.Step("notify"), sl.Err(err))
		} else {
			delivered = true
		}
	}

	log.Info("invite issued", slog.Bool("delivered", delivered))
	return &entity.InviteReceipt{
		Invite:     inv,
		SignupLink: link,
		Delivered:  delivered,
	}, nil
}

// Cancel resolves the pending invite for an email as cancelled.
func (c *Coordinator) Cancel(ctx context.Context, email string, acting *entity.Profile) error {
	email = strings.ToLower(strings.TrimSpace(email))
	err := c.invites.SetInviteStatus(email, entity.InviteCancelled)
	c.auditStep(acting.ID, "invite.cancel", email, "cancel-invite", err)
	if errors.Is(err, entity.ErrNotFound) {
		return fmt.Errorf("no pending invite for %s: %w", email, entity.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("cancel invite: %w", err)
	}
	c.log.Info("invite cancelled", slog.String("email", email), slog.String("acting_id", acting.ID))
	return nil
}

// Accept resolves the pending invite once the registrant completed
// signup. Self-registered users have no invite; that is not an error.
func (c *Coordinator) Accept(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	err := c.invites.SetInviteStatus(email, entity.InviteAccepted)
	if errors.Is(err, entity.ErrNotFound) {
		return nil
	}
	return err
}

// insertReleasingExpired inserts the invite row. When the uniqueness
// constraint rejects it, the blocking row may be pending only by its
// stored tag; the expiry timestamp is authoritative. A timestamp-expired
// blocker gets its tag persisted as expired, which frees the constraint
// slot, and the insert is retried once. Only a genuinely outstanding
// blocker surfaces as entity.ErrDuplicateInvite.
func (c *Coordinator) insertReleasingExpired(inv *entity.Invite, now time.Time) error {
	err := c.invites.InsertInvite(inv)
	if !errors.Is(err, entity.ErrDuplicateInvite) {
		return err
	}
	blocker, getErr := c.invites.GetPendingInvite(inv.Email)
	if errors.Is(getErr, entity.ErrNotFound) {
		// resolved between the failed insert and the lookup
		return c.invites.InsertInvite(inv)
	}
	if getErr != nil {
		return entity.ErrDuplicateInvite
	}
	if blocker.IsOutstanding(now) {
		return entity.ErrDuplicateInvite
	}
	if setErr := c.invites.SetInviteStatus(inv.Email, entity.InviteExpired); setErr != nil && !errors.Is(setErr, entity.ErrNotFound) {
		return setErr
	}
	c.log.Debug("expired invite released", slog.String("email", inv.Email))
	return c.invites.InsertInvite(inv)
}

func (c *Coordinator) signupLink(inv *entity.Invite) string {
	q := url.Values{}
	q.Set("email", inv.Email)
	q.Set("token", inv.Token)
	return c.signupURL + "?" + q.Encode()
}

func (c *Coordinator) auditStep(actorID, action, email, step string, err error) {
	if c.audit == nil {
		return
	}
	event := &entity.AuditEvent{
		ID:      uuid.NewString(),
		ActorID: actorID,
		Action:  action,
		Entity:  email,
		Step:    step,
		At:      c.now().UTC(),
	}
	if err != nil {
		event.Error = err.Error()
	}
	if auditErr := c.audit.SaveAuditEvent(event); auditErr != nil {
		c.log.Debug("audit write failed", sl.Err(auditErr))
	}
}
