// Package teardown removes accounts across two independently failing
// stores. There is no shared transaction: each operation is a fixed step
// order with best-effort and load-bearing steps, safe to re-drive after
// a partial failure rather than rolled back.
package teardown

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
	DeleteProfile(id string) error
}

type InviteStore interface {
	SetInviteStatus(email string, status entity.InviteStatus) error
}

type RecordStore interface {
	DeleteLogEntries(ownerID string) (int64, error)
	DeleteAircraft(ownerID string) (int64, error)
	DeleteSupervisors(ownerID string) (int64, error)
	DeleteEmployment(ownerID string) (int64, error)
	DeleteAddresses(ownerID string) (int64, error)
}

type IdentityService interface {
	DeleteIdentity(ctx context.Context, id string) error
}

type Audit interface {
	SaveAuditEvent(event *entity.AuditEvent) error
}

type Coordinator struct {
	profiles ProfileStore
	invites  InviteStore
	records  RecordStore
	identity IdentityService
	audit    Audit
	now      func() time.Time
	log      *slog.Logger
}

func New(profiles ProfileStore, invites InviteStore, records RecordStore, identity IdentityService, log *slog.Logger) *Coordinator {
	if profiles == nil {
		panic("profile store is nil")
	}
	return &Coordinator{
		profiles: profiles,
		invites:  invites,
		records:  records,
		identity: identity,
		now:      time.Now,
		log:      log.With(sl.Module("teardown")),
	}
}

func (c *Coordinator) SetAudit(audit Audit) {
	c.audit = audit
}

func (c *Coordinator) SetClock(now func() time.Time) {
	c.now = now
}

// RemovePendingUser tears down an invited account that never completed
// signup: invite cancelled, profile row deleted, shadow identity
// deleted. It refuses active and suspended profiles, which own records
// this path does not clean up; EraseAccount handles those.
func (c *Coordinator) RemovePendingUser(ctx context.Context, id, email string, acting *entity.Profile) error {
	email = strings.ToLower(strings.TrimSpace(email))
	log := c.log.With(
		slog.String("target_id", id),
		slog.String("email", email),
		slog.String("acting_id", acting.ID),
	)

	p, err := c.profiles.GetProfile(id)
	if err != nil {
		return fmt.Errorf("remove pending user: %w", err)
	}
	if !p.IsPending() {
		return fmt.Errorf("remove pending user: status %s: %w", p.Status, entity.ErrNotPending)
	}

	err = c.invites.SetInviteStatus(email, entity.InviteCancelled)
	c.auditStep(acting.ID, "teardown.remove-pending", id, "cancel-invite", err)
	if err != nil && !errors.Is(err, entity.ErrNotFound) {
		log.Warn("cancel invite failed", sl.Step("cancel-invite"), sl.Err(err))
	}

	err = c.profiles.DeleteProfile(id)
	c.auditStep(acting.ID, "teardown.remove-pending", id, "delete-profile", err)
	if err != nil {
		return fmt.Errorf("remove pending user: delete profile: %w", errors.Join(entity.ErrEraseFailed, err))
	}

	err = c.identity.DeleteIdentity(ctx, id)
	c.auditStep(acting.ID, "teardown.remove-pending", id, "delete-identity", err)
	if err != nil && !errors.Is(err, entity.ErrNotFound) {
		log.Warn("shadow identity left behind", sl.Step("delete-identity"), sl.Err(err))
		return fmt.Errorf("remove pending user: %w", errors.Join(entity.ErrIdentityOrphaned, err))
	}

	log.Info("pending user removed")
	return nil
}

// EraseAccount removes every owned record, the profile row and the
// external identity, in that order. Owned-record steps are best-effort:
// a failure is logged and the teardown continues, since the erase can be
// re-driven. The profile row is load-bearing; if it cannot be deleted
// the operation aborts before touching the identity service. Identity
// deletion failing after the row is gone is partial success, reported
// as entity.ErrIdentityOrphaned, never as full success.
func (c *Coordinator) EraseAccount(ctx context.Context, id, email string, acting *entity.Profile) error {
	email = strings.ToLower(strings.TrimSpace(email))
	log := c.log.With(
		slog.String("target_id", id),
		slog.String("email", email),
		slog.String("acting_id", acting.ID),
	)

	if _, err := c.profiles.GetProfile(id); err != nil {
		return fmt.Errorf("erase account: %w", err)
	}

	steps := []struct {
		name string
		fn   func(string) (int64, error)
	}{
		{"delete-entries", c.records.DeleteLogEntries},
		{"delete-aircraft", c.records.DeleteAircraft},
		{"delete-supervisors", c.records.DeleteSupervisors},
		{"delete-employment", c.records.DeleteEmployment},
		{"delete-addresses", c.records.DeleteAddresses},
	}
	for _, step := range steps {
		removed, err := step.fn(id)
		c.auditStep(acting.ID, "teardown.erase", id, step.name, err)
		if err != nil {
			log.Warn("owned record deletion failed, continuing", sl.Step(step.name), sl.Err(err))
			continue
		}
		log.Debug("owned records removed", sl.Step(step.name), slog.Int64("rows", removed))
	}

	err := c.profiles.DeleteProfile(id)
	c.auditStep(acting.ID, "teardown.erase", id, "delete-profile", err)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return fmt.Errorf("erase account: %w", entity.ErrNotFound)
		}
		return fmt.Errorf("erase account: delete profile: %w", errors.Join(entity.ErrEraseFailed, err))
	}

	err = c.identity.DeleteIdentity(ctx, id)
	c.auditStep(acting.ID, "teardown.erase", id, "delete-identity", err)
	if err != nil && !errors.Is(err, entity.ErrNotFound) {
		log.Warn("identity left behind after local erase", sl.Step("delete-identity"), sl.Err(err))
		return fmt.Errorf("erase account: %w", errors.Join(entity.ErrIdentityOrphaned, err))
	}

	log.Info("account erased")
	return nil
}

func (c *Coordinator) auditStep(actorID, action, target, step string, err error) {
	if c.audit == nil {
		return
	}
	event := &entity.AuditEvent{
		ID:      uuid.NewString(),
		ActorID: actorID,
		Action:  action,
		Entity:  target,
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
