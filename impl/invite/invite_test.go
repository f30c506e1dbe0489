package invite

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"techlog/entity"
)

// fakeInviteStore mimics the relational store: one pending row per
// email enforced on insert, status writes matching pending rows only.
type fakeInviteStore struct {
	insertErr error
	rows      []*entity.Invite
	setStatus map[string]entity.InviteStatus
	setErr    error
}

func (f *fakeInviteStore) InsertInvite(inv *entity.Invite) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	for _, row := range f.rows {
		if row.Email == inv.Email && row.Status == entity.InvitePending {
			return entity.ErrDuplicateInvite
		}
	}
	f.rows = append(f.rows, inv)
	return nil
}

func (f *fakeInviteStore) GetPendingInvite(email string) (*entity.Invite, error) {
	for _, row := range f.rows {
		if row.Email == email && row.Status == entity.InvitePending {
			return row, nil
		}
	}
	return nil, entity.ErrNotFound
}

func (f *fakeInviteStore) SetInviteStatus(email string, status entity.InviteStatus) error {
	if f.setErr != nil {
		return f.setErr
	}
	if f.setStatus == nil {
		f.setStatus = make(map[string]entity.InviteStatus)
	}
	f.setStatus[email] = status
	for _, row := range f.rows {
		if row.Email == email && row.Status == entity.InvitePending {
			row.Status = status
		}
	}
	return nil
}

type fakeProfileStore struct {
	inserted  []*entity.Profile
	insertErr error
}

func (f *fakeProfileStore) InsertProfile(p *entity.Profile) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, p)
	return nil
}

type fakeIdentity struct {
	id    string
	err   error
	calls int
}

func (f *fakeIdentity) CreateShadowIdentity(_ context.Context, _ string, _ map[string]string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.id, nil
}

type fakeMailer struct {
	err  error
	sent int
}

func (f *fakeMailer) SendInviteEmail(_, _, _, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.sent++
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAdmin() *entity.Profile {
	return &entity.Profile{ID: "admin-1", Email: "ops@x.com", Name: "Ops Admin", IsAdmin: true, Status: entity.StatusActive}
}

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestCoordinator(invites *fakeInviteStore, profiles *fakeProfileStore, ident *fakeIdentity, mail *fakeMailer) *Coordinator {
	c := New(invites, profiles, ident, "https://logbook.example/signup", 7, testLogger())
	if mail != nil {
		c.SetMailer(mail)
	}
	c.SetClock(func() time.Time { return testNow })
	return c
}

func TestIssueInvite(t *testing.T) {
	invites := &fakeInviteStore{}
	profiles := &fakeProfileStore{}
	ident := &fakeIdentity{id: "id-123"}
	mail := &fakeMailer{}
	c := newTestCoordinator(invites, profiles, ident, mail)

	receipt, err := c.Issue(context.Background(), &entity.InviteRequest{
		Email: "Jane.Doe@X.com ", Name: "Jane Doe",
	}, testAdmin())
	if err != nil {
		t.Fatalf("issue invite: %v", err)
	}
	if len(invites.rows) != 1 {
		t.Fatalf("expected one invite row, got %d", len(invites.rows))
	}
	inv := invites.rows[0]
	if inv.Email != "jane.doe@x.com" {
		t.Fatalf("expected normalized email, got %q", inv.Email)
	}
	if inv.Status != entity.InvitePending {
		t.Fatalf("expected pending invite, got %s", inv.Status)
	}
	wantExpiry := time.Date(2026, 3, 17, 9, 0, 0, 0, time.UTC)
	if !inv.ExpiresAt.Equal(wantExpiry) {
		t.Fatalf("expected expiry %v, got %v", wantExpiry, inv.ExpiresAt)
	}
	if len(profiles.inserted) != 1 || profiles.inserted[0].ID != "id-123" {
		t.Fatal("expected pending profile for the shadow identity")
	}
	if profiles.inserted[0].Status != entity.StatusPending {
		t.Fatalf("shadow profile should be pending, got %s", profiles.inserted[0].Status)
	}
	if !receipt.Delivered || mail.sent != 1 {
		t.Fatal("expected delivered invite email")
	}
	if !strings.Contains(receipt.SignupLink, "jane.doe%40x.com") || !strings.Contains(receipt.SignupLink, inv.Token) {
		t.Fatalf("signup link missing email or token: %s", receipt.SignupLink)
	}
}

func TestIssueInviteDuplicate(t *testing.T) {
	outstanding := &entity.Invite{
		Email:     "a@x.com",
		Status:    entity.InvitePending,
		IssuedAt:  testNow.Add(-24 * time.Hour),
		ExpiresAt: testNow.Add(6 * 24 * time.Hour),
	}
	invites := &fakeInviteStore{rows: []*entity.Invite{outstanding}}
	ident := &fakeIdentity{id: "id-123"}
	mail := &fakeMailer{}
	c := newTestCoordinator(invites, &fakeProfileStore{}, ident, mail)

	_, err := c.Issue(context.Background(), &entity.InviteRequest{
		Email: "a@x.com", Name: "Jane Doe",
	}, testAdmin())
	if !errors.Is(err, entity.ErrDuplicateInvite) {
		t.Fatalf("expected ErrDuplicateInvite, got %v", err)
	}
	if len(invites.rows) != 1 {
		t.Fatal("outstanding invite must stay the only row")
	}
	if outstanding.Status != entity.InvitePending {
		t.Fatal("outstanding invite must not be rewritten")
	}
	if ident.calls != 0 {
		t.Fatal("identity service must not be called after a duplicate insert")
	}
	if mail.sent != 0 {
		t.Fatal("no email for a duplicate invite")
	}
}

func TestIssueInviteAfterExpiry(t *testing.T) {
	stale := &entity.Invite{
		Email:     "a@x.com",
		Status:    entity.InvitePending,
		IssuedAt:  testNow.Add(-10 * 24 * time.Hour),
		ExpiresAt: testNow.Add(-3 * 24 * time.Hour),
	}
	invites := &fakeInviteStore{rows: []*entity.Invite{stale}}
	ident := &fakeIdentity{id: "id-123"}
	mail := &fakeMailer{}
	c := newTestCoordinator(invites, &fakeProfileStore{}, ident, mail)

	// the stored tag still says pending, but the expiry timestamp has
	// passed; a re-invite must succeed, not report a duplicate
	receipt, err := c.Issue(context.Background(), &entity.InviteRequest{
		Email: "a@x.com", Name: "Jane Doe",
	}, testAdmin())
	if err != nil {
		t.Fatalf("re-invite after passive expiry: %v", err)
	}
	if stale.Status != entity.InviteExpired {
		t.Fatalf("stale invite tag should be persisted as expired, got %s", stale.Status)
	}
	if len(invites.rows) != 2 {
		t.Fatalf("expected a fresh invite row, got %d rows", len(invites.rows))
	}
	fresh := invites.rows[1]
	if fresh.Status != entity.InvitePending {
		t.Fatalf("fresh invite should be pending, got %s", fresh.Status)
	}
	if !fresh.ExpiresAt.Equal(testNow.Add(7 * 24 * time.Hour)) {
		t.Fatalf("fresh invite expiry wrong: %v", fresh.ExpiresAt)
	}
	if !receipt.Delivered || mail.sent != 1 {
		t.Fatal("expected delivered invite email")
	}
}

func TestIssueInviteIdentityOutage(t *testing.T) {
	invites := &fakeInviteStore{}
	profiles := &fakeProfileStore{}
	ident := &fakeIdentity{err: errors.New("identity service unreachable")}
	mail := &fakeMailer{}
	c := newTestCoordinator(invites, profiles, ident, mail)

	receipt, err := c.Issue(context.Background(), &entity.InviteRequest{
		Email: "a@x.com", Name: "Jane Doe",
	}, testAdmin())
	if err != nil {
		t.Fatalf("identity outage must not fail issuance: %v", err)
	}
	if len(invites.rows) != 1 || invites.rows[0].Status != entity.InvitePending {
		t.Fatal("invite row must persist through the outage")
	}
	if len(profiles.inserted) != 0 {
		t.Fatal("no profile without a shadow identity")
	}
	if receipt.SignupLink == "" {
		t.Fatal("expected a shareable signup link")
	}
}

func TestIssueInviteMailFailure(t *testing.T) {
	invites := &fakeInviteStore{}
	ident := &fakeIdentity{id: "id-123"}
	mail := &fakeMailer{err: errors.New("smtp refused")}
	c := newTestCoordinator(invites, &fakeProfileStore{}, ident, mail)

	receipt, err := c.Issue(context.Background(), &entity.InviteRequest{
		Email: "a@x.com", Name: "Jane Doe",
	}, testAdmin())
	if err != nil {
		t.Fatalf("mail failure must not fail issuance: %v", err)
	}
	if receipt.Delivered {
		t.Fatal("expected delivered=false on mail failure")
	}
	if receipt.SignupLink == "" {
		t.Fatal("expected fallback signup link")
	}
}

func TestIssueInviteInvalidRequest(t *testing.T) {
	invites := &fakeInviteStore{}
	c := newTestCoordinator(invites, &fakeProfileStore{}, &fakeIdentity{id: "x"}, nil)

	cases := []entity.InviteRequest{
		{Email: "not-an-email", Name: "Jane"},
		{Email: "a@x.com", Name: ""},
	}
	for _, req := range cases {
		if _, err := c.Issue(context.Background(), &req, testAdmin()); err == nil {
			t.Errorf("expected validation error for %+v", req)
		}
	}
	if len(invites.rows) != 0 {
		t.Fatal("invalid requests must not reach the store")
	}
}

func TestCancelInvite(t *testing.T) {
	invites := &fakeInviteStore{}
	c := newTestCoordinator(invites, &fakeProfileStore{}, &fakeIdentity{id: "x"}, nil)

	if err := c.Cancel(context.Background(), "B@X.com", testAdmin()); err != nil {
		t.Fatalf("cancel invite: %v", err)
	}
	if invites.setStatus["b@x.com"] != entity.InviteCancelled {
		t.Fatal("expected invite resolved as cancelled")
	}
}

func TestCancelInviteNotFound(t *testing.T) {
	invites := &fakeInviteStore{setErr: entity.ErrNotFound}
	c := newTestCoordinator(invites, &fakeProfileStore{}, &fakeIdentity{id: "x"}, nil)

	err := c.Cancel(context.Background(), "b@x.com", testAdmin())
	if !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAcceptWithoutInvite(t *testing.T) {
	invites := &fakeInviteStore{setErr: entity.ErrNotFound}
	c := newTestCoordinator(invites, &fakeProfileStore{}, &fakeIdentity{id: "x"}, nil)

	// self-registered users have no invite to resolve
	if err := c.Accept(context.Background(), "c@x.com"); err != nil {
		t.Fatalf("accept without invite must be a no-op: %v", err)
	}
}
