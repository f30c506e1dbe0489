package reconcile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"techlog/entity"
)

type fakeProfileStore struct {
	list     []*entity.Profile
	listErr  error
	fetches  int
	listings int
}

func (f *fakeProfileStore) GetProfile(id string) (*entity.Profile, error) {
	f.fetches++
	for _, p := range f.list {
		if p.ID == id {
			copied := *p
			return &copied, nil
		}
	}
	return nil, entity.ErrNotFound
}

func (f *fakeProfileStore) ListProfiles() ([]*entity.Profile, error) {
	f.listings++
	return f.list, f.listErr
}

type fakeInviteStore struct {
	list []*entity.Invite
}

func (f *fakeInviteStore) ListPendingInvites() ([]*entity.Invite, error) {
	return f.list, nil
}

type fakeRecordStore struct {
	counts      map[string]int64
	entries     []entity.LogEntry
	craft       []entity.Aircraft
	supervisors []entity.Supervisor
	employment  []entity.Employment
	addresses   []entity.Address
}

func (f *fakeRecordStore) CountOwnedRecords(ownerID string) (int64, error) {
	return f.counts[ownerID], nil
}

func (f *fakeRecordStore) ListLogEntries(string) ([]entity.LogEntry, error) {
	return f.entries, nil
}

func (f *fakeRecordStore) ListAircraft(string) ([]entity.Aircraft, error) {
	return f.craft, nil
}

func (f *fakeRecordStore) ListSupervisors(string) ([]entity.Supervisor, error) {
	return f.supervisors, nil
}

func (f *fakeRecordStore) ListEmployment(string) ([]entity.Employment, error) {
	return f.employment, nil
}

func (f *fakeRecordStore) ListAddresses(string) ([]entity.Address, error) {
	return f.addresses, nil
}

type fakeIdentity struct {
	meta    map[string]time.Time
	failFor string
}

func (f *fakeIdentity) GetSessionMetadata(_ context.Context, id string) (*entity.SessionMeta, error) {
	if id == f.failFor {
		return nil, errors.New("identity service unreachable")
	}
	return &entity.SessionMeta{LastSignInAt: f.meta[id]}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAdmin() *entity.Profile {
	return &entity.Profile{ID: "admin-1", IsAdmin: true, Status: entity.StatusActive}
}

func newTestReconciler(profiles *fakeProfileStore, invites *fakeInviteStore, records *fakeRecordStore, ident *fakeIdentity) *Reconciler {
	r := New(profiles, invites, records, ident, testLogger())
	fixed := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	r.SetClock(func() time.Time { return fixed })
	return r
}

func TestListProfilesForbidden(t *testing.T) {
	profiles := &fakeProfileStore{list: []*entity.Profile{{ID: "a"}}}
	r := newTestReconciler(profiles, &fakeInviteStore{}, &fakeRecordStore{}, &fakeIdentity{})

	for _, acting := range []*entity.Profile{nil, {ID: "user-1", Status: entity.StatusActive}} {
		if _, err := r.ListProfilesEnriched(context.Background(), acting); !errors.Is(err, entity.ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	}
	if profiles.listings != 0 {
		t.Fatal("privilege check must run before any fetch")
	}
}

func TestListProfilesEnriched(t *testing.T) {
	signIn := time.Date(2026, 3, 9, 18, 30, 0, 0, time.UTC)
	profiles := &fakeProfileStore{list: []*entity.Profile{
		{ID: "a", Email: "a@x.com", Status: entity.StatusActive},
		{ID: "b", Email: "b@x.com", Status: entity.StatusActive},
		{ID: "c", Email: "c@x.com", Status: entity.StatusPending},
	}}
	ident := &fakeIdentity{
		meta:    map[string]time.Time{"a": signIn},
		failFor: "b",
	}
	r := newTestReconciler(profiles, &fakeInviteStore{}, &fakeRecordStore{}, ident)

	views, err := r.ListProfilesEnriched(context.Background(), testAdmin())
	if err != nil {
		t.Fatalf("list profiles: %v", err)
	}
	if len(views) != 3 {
		t.Fatalf("one failing enrichment must not drop rows, got %d", len(views))
	}
	if views[0].LastSignInAt == nil || !views[0].LastSignInAt.Equal(signIn) {
		t.Fatal("expected last sign-in merged into the first row")
	}
	if views[1].LastSignInAt != nil {
		t.Fatal("failing enrichment should leave the row bare")
	}
	if views[2].LastSignInAt != nil {
		t.Fatal("zero sign-in time should not be surfaced")
	}
}

func TestGetProfileDetail(t *testing.T) {
	profiles := &fakeProfileStore{list: []*entity.Profile{
		{ID: "a", Email: "a@x.com", Status: entity.StatusActive},
	}}
	records := &fakeRecordStore{counts: map[string]int64{"a": 42}}
	r := newTestReconciler(profiles, &fakeInviteStore{}, records, &fakeIdentity{})

	detail, err := r.GetProfileDetail(context.Background(), "a", testAdmin())
	if err != nil {
		t.Fatalf("profile detail: %v", err)
	}
	if detail.OwnedRecords != 42 {
		t.Fatalf("expected 42 owned records, got %d", detail.OwnedRecords)
	}
}

func TestGetProfileDetailNotFound(t *testing.T) {
	r := newTestReconciler(&fakeProfileStore{}, &fakeInviteStore{}, &fakeRecordStore{}, &fakeIdentity{})
	_, err := r.GetProfileDetail(context.Background(), "ghost", testAdmin())
	if !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBuildExportSnapshot(t *testing.T) {
	profiles := &fakeProfileStore{list: []*entity.Profile{
		{ID: "a", Email: "a@x.com", Name: "Jane Doe", Status: entity.StatusActive},
	}}
	records := &fakeRecordStore{
		entries:   []entity.LogEntry{{ID: 1, OwnerID: "a", Registration: "G-ABCD", Hours: 2.5}},
		craft:     []entity.Aircraft{{ID: 1, OwnerID: "a", Registration: "G-ABCD"}},
		addresses: []entity.Address{{OwnerID: "a", Line1: "1 Hangar Lane", City: "Bristol", Country: "United Kingdom"}},
	}
	r := newTestReconciler(profiles, &fakeInviteStore{}, records, &fakeIdentity{})

	// owners can export their own account without admin privilege
	owner := &entity.Profile{ID: "a", Email: "a@x.com", Status: entity.StatusActive}
	snap, err := r.BuildExportSnapshot(context.Background(), "a", owner)
	if err != nil {
		t.Fatalf("export snapshot: %v", err)
	}
	if snap.Profile.Email != "a@x.com" {
		t.Fatalf("expected profile in snapshot, got %+v", snap.Profile)
	}
	if len(snap.LogEntries) != 1 || len(snap.Aircraft) != 1 || len(snap.Addresses) != 1 {
		t.Fatal("expected owned records in snapshot")
	}
	if len(snap.Supervisors) != 0 || len(snap.Employment) != 0 {
		t.Fatal("empty categories must stay empty")
	}
	want := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	if !snap.GeneratedAt.Equal(want) {
		t.Fatalf("expected generated-at %v, got %v", want, snap.GeneratedAt)
	}
}

func TestBuildExportSnapshotForbidden(t *testing.T) {
	profiles := &fakeProfileStore{list: []*entity.Profile{
		{ID: "a", Email: "a@x.com", Status: entity.StatusActive},
	}}
	r := newTestReconciler(profiles, &fakeInviteStore{}, &fakeRecordStore{}, &fakeIdentity{})

	other := &entity.Profile{ID: "b", Status: entity.StatusActive}
	if _, err := r.BuildExportSnapshot(context.Background(), "a", other); !errors.Is(err, entity.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for another user's export, got %v", err)
	}
	if profiles.fetches != 0 {
		t.Fatal("privilege check must run before any fetch")
	}
}

func TestListPendingUsers(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	profiles := &fakeProfileStore{list: []*entity.Profile{
		{ID: "p-1", Email: "both@x.com", Name: "Both Rows", Status: entity.StatusPending},
		{ID: "p-2", Email: "active@x.com", Status: entity.StatusActive},
	}}
	invites := &fakeInviteStore{list: []*entity.Invite{
		{Email: "both@x.com", Name: "Both Rows", Status: entity.InvitePending, ExpiresAt: now.Add(24 * time.Hour)},
		{Email: "fresh@x.com", Name: "Fresh Invite", Status: entity.InvitePending, ExpiresAt: now.Add(48 * time.Hour)},
		{Email: "stale@x.com", Status: entity.InvitePending, ExpiresAt: now.Add(-time.Hour)},
	}}
	r := newTestReconciler(profiles, invites, &fakeRecordStore{}, &fakeIdentity{})

	pending, err := r.ListPendingUsers(context.Background(), testAdmin())
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending rows, got %d", len(pending))
	}

	merged := pending[0]
	if merged.Email != "both@x.com" || merged.ProfileID != "p-1" {
		t.Fatalf("expected merged row first, got %+v", merged)
	}
	if merged.ExpiresAt == nil || !merged.ExpiresAt.Equal(now.Add(24*time.Hour)) {
		t.Fatal("merged row must carry the invite expiry")
	}

	fresh := pending[1]
	if fresh.Email != "fresh@x.com" || fresh.ProfileID != "" {
		t.Fatalf("expected invite-only row, got %+v", fresh)
	}
}

func TestListPendingUsersForbidden(t *testing.T) {
	r := newTestReconciler(&fakeProfileStore{}, &fakeInviteStore{}, &fakeRecordStore{}, &fakeIdentity{})
	if _, err := r.ListPendingUsers(context.Background(), nil); !errors.Is(err, entity.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
