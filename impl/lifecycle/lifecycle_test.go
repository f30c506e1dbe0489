package lifecycle

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
	profiles  map[string]*entity.Profile
	statusSet map[string]entity.ProfileStatus
	roleSet   map[string]bool
	inserted  []*entity.Profile
}

func newFakeProfileStore(profiles ...*entity.Profile) *fakeProfileStore {
	f := &fakeProfileStore{
		profiles:  make(map[string]*entity.Profile),
		statusSet: make(map[string]entity.ProfileStatus),
		roleSet:   make(map[string]bool),
	}
	for _, p := range profiles {
		f.profiles[p.ID] = p
	}
	return f
}

func (f *fakeProfileStore) GetProfile(id string) (*entity.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakeProfileStore) GetProfileByEmail(email string) (*entity.Profile, error) {
	for _, p := range f.profiles {
		if p.Email == email {
			copied := *p
			return &copied, nil
		}
	}
	return nil, entity.ErrNotFound
}

func (f *fakeProfileStore) InsertProfile(p *entity.Profile) error {
	f.inserted = append(f.inserted, p)
	f.profiles[p.ID] = p
	return nil
}

func (f *fakeProfileStore) SetProfileStatus(id string, status entity.ProfileStatus) error {
	if _, ok := f.profiles[id]; !ok {
		return entity.ErrNotFound
	}
	f.statusSet[id] = status
	f.profiles[id].Status = status
	return nil
}

func (f *fakeProfileStore) SetProfileRole(id string, isAdmin bool) error {
	if _, ok := f.profiles[id]; !ok {
		return entity.ErrNotFound
	}
	f.roleSet[id] = isAdmin
	f.profiles[id].IsAdmin = isAdmin
	return nil
}

type fakeInviteResolver struct {
	accepted []string
	err      error
}

func (f *fakeInviteResolver) Accept(_ context.Context, email string) error {
	if f.err != nil {
		return f.err
	}
	f.accepted = append(f.accepted, email)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestGuard(store *fakeProfileStore, invites *fakeInviteResolver) *Guard {
	g := New(store, invites, testLogger())
	fixed := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	g.SetClock(func() time.Time { return fixed })
	return g
}

func TestSetRoleSelfModification(t *testing.T) {
	store := newFakeProfileStore(&entity.Profile{ID: "admin-1", IsAdmin: true, Status: entity.StatusActive})
	g := newTestGuard(store, nil)

	for _, makeAdmin := range []bool{true, false} {
		err := g.SetRole(context.Background(), "admin-1", makeAdmin, "admin-1")
		if !errors.Is(err, entity.ErrSelfModification) {
			t.Fatalf("expected ErrSelfModification, got %v", err)
		}
	}
	if len(store.roleSet) != 0 {
		t.Fatal("self-targeted role change must not reach the store")
	}
}

func TestSetRole(t *testing.T) {
	store := newFakeProfileStore(
		&entity.Profile{ID: "admin-1", IsAdmin: true, Status: entity.StatusActive},
		&entity.Profile{ID: "user-1", Status: entity.StatusActive},
	)
	g := newTestGuard(store, nil)

	if err := g.SetRole(context.Background(), "user-1", true, "admin-1"); err != nil {
		t.Fatalf("set role: %v", err)
	}
	if !store.roleSet["user-1"] {
		t.Fatal("expected role flag set")
	}
}

func TestSetRoleNotFound(t *testing.T) {
	g := newTestGuard(newFakeProfileStore(), nil)
	err := g.SetRole(context.Background(), "ghost", true, "admin-1")
	if !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSuspendSelf(t *testing.T) {
	store := newFakeProfileStore(&entity.Profile{ID: "admin-1", IsAdmin: true, Status: entity.StatusActive})
	g := newTestGuard(store, nil)

	if err := g.Suspend(context.Background(), "admin-1", "admin-1"); !errors.Is(err, entity.ErrSelfModification) {
		t.Fatalf("expected ErrSelfModification, got %v", err)
	}
}

func TestSuspendActivate(t *testing.T) {
	store := newFakeProfileStore(&entity.Profile{ID: "user-1", Status: entity.StatusActive})
	g := newTestGuard(store, nil)

	if err := g.Suspend(context.Background(), "user-1", "admin-1"); err != nil {
		t.Fatalf("suspend active: %v", err)
	}
	if store.statusSet["user-1"] != entity.StatusSuspended {
		t.Fatal("expected suspended status")
	}

	if err := g.Activate(context.Background(), "user-1", "admin-1"); err != nil {
		t.Fatalf("activate suspended: %v", err)
	}
	if store.statusSet["user-1"] != entity.StatusActive {
		t.Fatal("expected active status")
	}
}

func TestIllegalTransitions(t *testing.T) {
	store := newFakeProfileStore(
		&entity.Profile{ID: "pending-1", Status: entity.StatusPending},
		&entity.Profile{ID: "active-1", Status: entity.StatusActive},
		&entity.Profile{ID: "suspended-1", Status: entity.StatusSuspended},
	)
	g := newTestGuard(store, nil)

	cases := []struct {
		name string
		call func() error
	}{
		{"suspend pending", func() error { return g.Suspend(context.Background(), "pending-1", "admin-1") }},
		{"activate pending", func() error { return g.Activate(context.Background(), "pending-1", "admin-1") }},
		{"activate active", func() error { return g.Activate(context.Background(), "active-1", "admin-1") }},
		{"suspend suspended", func() error { return g.Suspend(context.Background(), "suspended-1", "admin-1") }},
	}
	for _, tc := range cases {
		if err := tc.call(); !errors.Is(err, entity.ErrIllegalTransition) {
			t.Errorf("%s: expected ErrIllegalTransition, got %v", tc.name, err)
		}
	}
	if len(store.statusSet) != 0 {
		t.Fatal("illegal transitions must not change state")
	}
}

func TestCompleteSignupPendingProfile(t *testing.T) {
	store := newFakeProfileStore(&entity.Profile{ID: "id-1", Email: "b@x.com", Status: entity.StatusPending})
	invites := &fakeInviteResolver{}
	g := newTestGuard(store, invites)

	err := g.CompleteSignup(context.Background(), &entity.SignupEvent{ID: "id-1", Email: "B@x.com"})
	if err != nil {
		t.Fatalf("complete signup: %v", err)
	}
	if store.statusSet["id-1"] != entity.StatusActive {
		t.Fatal("expected pending profile activated")
	}
	if len(invites.accepted) != 1 || invites.accepted[0] != "b@x.com" {
		t.Fatal("expected invite accepted for normalized email")
	}
}

func TestCompleteSignupSelfRegistered(t *testing.T) {
	store := newFakeProfileStore()
	g := newTestGuard(store, &fakeInviteResolver{err: entity.ErrNotFound})

	err := g.CompleteSignup(context.Background(), &entity.SignupEvent{ID: "id-9", Email: "new@x.com", Name: "New User"})
	if err != nil {
		t.Fatalf("complete signup: %v", err)
	}
	if len(store.inserted) != 1 {
		t.Fatal("expected a profile created for the self-registered user")
	}
	p := store.inserted[0]
	if p.ID != "id-9" || p.Status != entity.StatusActive || p.IsAdmin {
		t.Fatalf("unexpected created profile: %+v", p)
	}
}

func TestCompleteSignupRedelivered(t *testing.T) {
	store := newFakeProfileStore(&entity.Profile{ID: "id-1", Email: "b@x.com", Status: entity.StatusActive})
	g := newTestGuard(store, &fakeInviteResolver{})

	// webhook redelivery for an already-active profile is harmless
	if err := g.CompleteSignup(context.Background(), &entity.SignupEvent{ID: "id-1", Email: "b@x.com"}); err != nil {
		t.Fatalf("redelivered signup event: %v", err)
	}
	if len(store.statusSet) != 0 {
		t.Fatal("no status change expected on redelivery")
	}
}
