// Package reconcile builds read-side views that merge authoritative
// session metadata from the identity service into local profiles.
// Nothing here persists; enrichment failures degrade single rows,
// never the batch.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"techlog/entity"
	"techlog/lib/sl"
)

type ProfileStore interface {
	GetProfile(id string) (*entity.Profile, error)
	ListProfiles() ([]*entity.Profile, error)
}

type InviteStore interface {
	ListPendingInvites() ([]*entity.Invite, error)
}

type RecordStore interface {
	CountOwnedRecords(ownerID string) (int64, error)
	ListLogEntries(ownerID string) ([]entity.LogEntry, error)
	ListAircraft(ownerID string) ([]entity.Aircraft, error)
	ListSupervisors(ownerID string) ([]entity.Supervisor, error)
	ListEmployment(ownerID string) ([]entity.Employment, error)
	ListAddresses(ownerID string) ([]entity.Address, error)
}

type IdentityService interface {
	GetSessionMetadata(ctx context.Context, id string) (*entity.SessionMeta, error)
}

type Reconciler struct {
	profiles ProfileStore
	invites  InviteStore
	records  RecordStore
	identity IdentityService
	now      func() time.Time
	log      *slog.Logger
}

func New(profiles ProfileStore, invites InviteStore, records RecordStore, identity IdentityService, log *slog.Logger) *Reconciler {
	if profiles == nil {
		panic("profile store is nil")
	}
	return &Reconciler{
		profiles: profiles,
		invites:  invites,
		records:  records,
		identity: identity,
		now:      time.Now,
		log:      log.With(sl.Module("reconcile")),
	}
}

func (r *Reconciler) SetClock(now func() time.Time) {
	r.now = now
}

// ListProfilesEnriched returns all profiles with last sign-in merged in
// from the identity service. Administrator-only; the privilege check
// runs before any fetch. One profile's metadata failing leaves that row
// without enrichment and never fails the listing.
func (r *Reconciler) ListProfilesEnriched(ctx context.Context, acting *entity.Profile) ([]*entity.ProfileView, error) {
	if acting == nil || !acting.IsAdmin {
		return nil, entity.ErrForbidden
	}
	profiles, err := r.profiles.ListProfiles()
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	views := make([]*entity.ProfileView, 0, len(profiles))
	for _, p := range profiles {
		view := &entity.ProfileView{Profile: *p}
		meta, metaErr := r.identity.GetSessionMetadata(ctx, p.ID)
		if metaErr != nil {
			r.log.Debug("session metadata unavailable",
				slog.String("id", p.ID), sl.Err(metaErr))
		} else if !meta.LastSignInAt.IsZero() {
			t := meta.LastSignInAt
			view.LastSignInAt = &t
		}
		views = append(views, view)
	}
	return views, nil
}

// GetProfileDetail backs the confirmation dialog shown before teardown:
// enriched profile plus the owned-record count erasure would remove.
func (r *Reconciler) GetProfileDetail(ctx context.Context, id string, acting *entity.Profile) (*entity.ProfileDetail, error) {
	if acting == nil || !acting.IsAdmin {
		return nil, entity.ErrForbidden
	}
	p, err := r.profiles.GetProfile(id)
	if err != nil {
		return nil, fmt.Errorf("profile detail: %w", err)
	}
	detail := &entity.ProfileDetail{ProfileView: entity.ProfileView{Profile: *p}}

	if meta, metaErr := r.identity.GetSessionMetadata(ctx, p.ID); metaErr != nil {
		r.log.Debug("session metadata unavailable", slog.String("id", p.ID), sl.Err(metaErr))
	} else if !meta.LastSignInAt.IsZero() {
		t := meta.LastSignInAt
		detail.LastSignInAt = &t
	}

	if r.records != nil {
		if detail.OwnedRecords, err = r.records.CountOwnedRecords(id); err != nil {
			r.log.Debug("owned record count unavailable", slog.String("id", p.ID), sl.Err(err))
		}
	}
	return detail, nil
}

// BuildExportSnapshot assembles the full owned data set for the report
// renderer. Administrators can export any account; other callers only
// their own. Addresses with a country the ISO registry does not know are
// exported as stored but logged, since the regulator rejects them
// downstream.
func (r *Reconciler) BuildExportSnapshot(ctx context.Context, id string, acting *entity.Profile) (*entity.ExportSnapshot, error) {
	if acting == nil || (!acting.IsAdmin && acting.ID != id) {
		return nil, entity.ErrForbidden
	}
	if r.records == nil {
		return nil, fmt.Errorf("record store not connected")
	}
	p, err := r.profiles.GetProfile(id)
	if err != nil {
		return nil, fmt.Errorf("export snapshot: %w", err)
	}

	snap := &entity.ExportSnapshot{Profile: *p, GeneratedAt: r.now().UTC()}
	if snap.LogEntries, err = r.records.ListLogEntries(id); err != nil {
		return nil, fmt.Errorf("export snapshot: %w", err)
	}
	if snap.Aircraft, err = r.records.ListAircraft(id); err != nil {
		return nil, fmt.Errorf("export snapshot: %w", err)
	}
	if snap.Supervisors, err = r.records.ListSupervisors(id); err != nil {
		return nil, fmt.Errorf("export snapshot: %w", err)
	}
	if snap.Employment, err = r.records.ListEmployment(id); err != nil {
		return nil, fmt.Errorf("export snapshot: %w", err)
	}
	if snap.Addresses, err = r.records.ListAddresses(id); err != nil {
		return nil, fmt.Errorf("export snapshot: %w", err)
	}
	for _, addr := range snap.Addresses {
		if vErr := addr.Validate(); vErr != nil {
			r.log.Warn("exported address fails validation",
				slog.String("id", id), sl.Err(vErr))
		}
	}
	return snap, nil
}

// ListPendingUsers returns the unified outstanding-invitation listing.
// A pending profile and a pending invite with the same email are one
// logical invitation, collapsed into a single row keyed on email.
func (r *Reconciler) ListPendingUsers(ctx context.Context, acting *entity.Profile) ([]*entity.PendingUser, error) {
	if acting == nil || !acting.IsAdmin {
		return nil, entity.ErrForbidden
	}
	now := r.now().UTC()

	byEmail := make(map[string]*entity.PendingUser)
	var order []string

	profiles, err := r.profiles.ListProfiles()
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	for _, p := range profiles {
		if !p.IsPending() {
			continue
		}
		byEmail[p.Email] = &entity.PendingUser{
			Email:     p.Email,
			Name:      p.Name,
			IsAdmin:   p.IsAdmin,
			ProfileID: p.ID,
		}
		order = append(order, p.Email)
	}

	invites, err := r.invites.ListPendingInvites()
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	for _, inv := range invites {
		if !inv.IsOutstanding(now) {
			continue
		}
		expires := inv.ExpiresAt
		if existing, ok := byEmail[inv.Email]; ok {
			existing.ExpiresAt = &expires
			continue
		}
		byEmail[inv.Email] = &entity.PendingUser{
			Email:     inv.Email,
			Name:      inv.Name,
			IsAdmin:   inv.IsAdmin,
			ExpiresAt: &expires,
		}
		order = append(order, inv.Email)
	}

	pending := make([]*entity.PendingUser, 0, len(order))
	for _, email := range order {
		pending = append(pending, byEmail[email])
	}
	return pending, nil
}
