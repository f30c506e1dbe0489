// Package lifecycle enforces the profile status machine and the
// self-modification guard on administrative account changes.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"techlog/entity"
	"techlog/lib/sl"

	"github.com/google/uuid"
)

type ProfileStore interface {
	GetProfile(id string) (*entity.Profile, error)
	GetProfileByEmail(email string) (*entity.Profile, error)
	InsertProfile(p *entity.Profile) error
	SetProfileStatus(id string, status entity.ProfileStatus) error
	SetProfileRole(id string, isAdmin bool) error
}

type InviteResolver interface {
	Accept(ctx context.Context, email string) error
}

type Audit interface {
	SaveAuditEvent(event *entity.AuditEvent) error
}

type Guard struct {
	profiles ProfileStore
	invites  InviteResolver
	audit    Audit
	now      func() time.Time
	log      *slog.Logger
}

func New(profiles ProfileStore, invites InviteResolver, log *slog.Logger) *Guard {
	if profiles == nil {
		panic("profile store is nil")
	}
	return &Guard{
		profiles: profiles,
		invites:  invites,
		now:      time.Now,
		log:      log.With(sl.Module("lifecycle")),
	}
}

func (g *Guard) SetAudit(audit Audit) {
	g.audit = audit
}

func (g *Guard) SetClock(now func() time.Time) {
	g.now = now
}

// SetRole flips the admin flag. An administrator can never change their
// own role through this path; the last admin demoting themself would
// lock everyone out.
func (g *Guard) SetRole(ctx context.Context, targetID string, makeAdmin bool, actingID string) error {
	if targetID == actingID {
		return entity.ErrSelfModification
	}
	if _, err := g.profiles.GetProfile(targetID); err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	err := g.profiles.SetProfileRole(targetID, makeAdmin)
	g.auditStep(actingID, "lifecycle.set-role", targetID, "set-role", err)
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	g.log.Info("role changed",
		slog.String("target_id", targetID),
		slog.Bool("is_admin", makeAdmin),
		slog.String("acting_id", actingID))
	return nil
}

// Suspend moves an active profile to suspended. Any role can be
// suspended, but never the acting administrator themself.
func (g *Guard) Suspend(ctx context.Context, targetID, actingID string) error {
	return g.transition(targetID, actingID, entity.StatusSuspended, "lifecycle.suspend")
}

// Activate moves a suspended profile back to active. A pending profile
// cannot be activated here; only signup completion does that.
func (g *Guard) Activate(ctx context.Context, targetID, actingID string) error {
	return g.transition(targetID, actingID, entity.StatusActive, "lifecycle.activate")
}

func (g *Guard) transition(targetID, actingID string, next entity.ProfileStatus, action string) error {
	if targetID == actingID {
		return entity.ErrSelfModification
	}
	p, err := g.profiles.GetProfile(targetID)
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	if !p.Status.CanTransitionTo(next) || (next == entity.StatusActive && p.Status != entity.StatusSuspended) {
		return fmt.Errorf("%s from %s: %w", action, p.Status, entity.ErrIllegalTransition)
	}
	err = g.profiles.SetProfileStatus(targetID, next)
	g.auditStep(actingID, action, targetID, "set-status", err)
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	g.log.Info("status changed",
		slog.String("target_id", targetID),
		slog.String("from", string(p.Status)),
		slog.String("to", string(next)),
		slog.String("acting_id", actingID))
	return nil
}

// CompleteSignup runs when the registrant finishes self-service signup:
// the pending profile becomes active and the matching invite resolves as
// accepted. Users who self-registered without an invite get an active
// profile created on the spot.
func (g *Guard) CompleteSignup(ctx context.Context, evt *entity.SignupEvent) error {
	email := strings.ToLower(strings.TrimSpace(evt.Email))

	p, err := g.profiles.GetProfileByEmail(email)
	switch {
	case errors.Is(err, entity.ErrNotFound):
		p = &entity.Profile{
			ID:        evt.ID,
			Email:     email,
			Name:      evt.Name,
			IsAdmin:   false,
			Status:    entity.StatusActive,
			CreatedAt: g.now().UTC(),
		}
		if err = g.profiles.InsertProfile(p); err != nil {
			return fmt.Errorf("complete signup: %w", err)
		}
	case err != nil:
		return fmt.Errorf("complete signup: %w", err)
	case p.Status == entity.StatusPending:
		if err = g.profiles.SetProfileStatus(p.ID, entity.StatusActive); err != nil {
			return fmt.Errorf("complete signup: %w", err)
		}
	default:
		// already active or suspended; signup events may be redelivered
		g.log.Debug("signup event for non-pending profile", slog.String("email", email))
	}
	g.auditStep(evt.ID, "lifecycle.complete-signup", email, "activate", nil)

	if g.invites != nil {
		if err = g.invites.Accept(ctx, email); err != nil {
			g.log.Warn("invite acceptance failed", slog.String("email", email), sl.Err(err))
		}
	}
	return nil
}

func (g *Guard) auditStep(actorID, action, target, step string, err error) {
	if g.audit == nil {
		return
	}
	event := &entity.AuditEvent{
		ID:      uuid.NewString(),
		ActorID: actorID,
		Action:  action,
		Entity:  target,
		Step:    step,
		At:      g.now().UTC(),
	}
	if err != nil {
		event.Error = err.Error()
	}
	if auditErr := g.audit.SaveAuditEvent(event); auditErr != nil {
		g.log.Debug("audit write failed", sl.Err(auditErr))
	}
}
