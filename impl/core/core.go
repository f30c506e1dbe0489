// Package core wires the coordinators behind one facade the HTTP layer
// talks to. Every call takes the acting profile explicitly; nothing here
// reads ambient session state.
package core

import (
	"context"
	"fmt"
	"log/slog"

	"techlog/entity"
	"techlog/lib/sl"
)

type AuthService interface {
	UserByToken(ctx context.Context, token string) (*entity.Profile, error)
}

type InviteService interface {
	Issue(ctx context.Context, req *entity.InviteRequest, acting *entity.Profile) (*entity.InviteReceipt, error)
	Cancel(ctx context.Context, email string, acting *entity.Profile) error
}

type LifecycleService interface {
	SetRole(ctx context.Context, targetID string, makeAdmin bool, actingID string) error
	Suspend(ctx context.Context, targetID, actingID string) error
	Activate(ctx context.Context, targetID, actingID string) error
	CompleteSignup(ctx context.Context, evt *entity.SignupEvent) error
}

type TeardownService interface {
	RemovePendingUser(ctx context.Context, id, email string, acting *entity.Profile) error
	EraseAccount(ctx context.Context, id, email string, acting *entity.Profile) error
}

type ReconcileService interface {
	ListProfilesEnriched(ctx context.Context, acting *entity.Profile) ([]*entity.ProfileView, error)
	GetProfileDetail(ctx context.Context, id string, acting *entity.Profile) (*entity.ProfileDetail, error)
	ListPendingUsers(ctx context.Context, acting *entity.Profile) ([]*entity.PendingUser, error)
	BuildExportSnapshot(ctx context.Context, id string, acting *entity.Profile) (*entity.ExportSnapshot, error)
}

type PasswordService interface {
	SendPasswordResetEmail(ctx context.Context, email, redirectTo string) error
}

type Core struct {
	auth      AuthService
	invites   InviteService
	lifecycle LifecycleService
	teardown  TeardownService
	reconcile ReconcileService
	passwords PasswordService
	resetURL  string
	log       *slog.Logger
}

func New(log *slog.Logger) *Core {
	return &Core{
		log: log.With(sl.Module("core")),
	}
}

func (c *Core) SetAuthService(auth AuthService) {
	c.auth = auth
}

func (c *Core) SetInviteService(invites InviteService) {
	c.invites = invites
}

func (c *Core) SetLifecycleService(lifecycle LifecycleService) {
	c.lifecycle = lifecycle
}

func (c *Core) SetTeardownService(teardown TeardownService) {
	c.teardown = teardown
}

func (c *Core) SetReconcileService(reconcile ReconcileService) {
	c.reconcile = reconcile
}

func (c *Core) SetPasswordService(passwords PasswordService, resetURL string) {
	c.passwords = passwords
	c.resetURL = resetURL
}

func (c *Core) AuthenticateByToken(ctx context.Context, token string) (*entity.Profile, error) {
	if c.auth == nil {
		return nil, fmt.Errorf("auth service not connected")
	}
	return c.auth.UserByToken(ctx, token)
}

func (c *Core) IssueInvite(ctx context.Context, req *entity.InviteRequest, acting *entity.Profile) (*entity.InviteReceipt, error) {
	if c.invites == nil {
		return nil, fmt.Errorf("invite service not connected")
	}
	if err := requireAdmin(acting); err != nil {
		return nil, err
	}
	return c.invites.Issue(ctx, req, acting)
}

func (c *Core) CancelInvite(ctx context.Context, email string, acting *entity.Profile) error {
	if c.invites == nil {
		return fmt.Errorf("invite service not connected")
	}
	if err := requireAdmin(acting); err != nil {
		return err
	}
	return c.invites.Cancel(ctx, email, acting)
}

func (c *Core) SetRole(ctx context.Context, targetID string, makeAdmin bool, acting *entity.Profile) error {
	if c.lifecycle == nil {
		return fmt.Errorf("lifecycle service not connected")
	}
	if err := requireAdmin(acting); err != nil {
		return err
	}
	return c.lifecycle.SetRole(ctx, targetID, makeAdmin, acting.ID)
}

func (c *Core) Suspend(ctx context.Context, targetID string, acting *entity.Profile) error {
	if c.lifecycle == nil {
		return fmt.Errorf("lifecycle service not connected")
	}
	if err := requireAdmin(acting); err != nil {
		return err
	}
	return c.lifecycle.Suspend(ctx, targetID, acting.ID)
}

func (c *Core) Activate(ctx context.Context, targetID string, acting *entity.Profile) error {
	if c.lifecycle == nil {
		return fmt.Errorf("lifecycle service not connected")
	}
	if err := requireAdmin(acting); err != nil {
		return err
	}
	return c.lifecycle.Activate(ctx, targetID, acting.ID)
}

func (c *Core) CompleteSignup(ctx context.Context, evt *entity.SignupEvent) error {
	if c.lifecycle == nil {
		return fmt.Errorf("lifecycle service not connected")
	}
	return c.lifecycle.CompleteSignup(ctx, evt)
}

func (c *Core) RemovePendingUser(ctx context.Context, id, email string, acting *entity.Profile) error {
	if c.teardown == nil {
		return fmt.Errorf("teardown service not connected")
	}
	if err := requireAdmin(acting); err != nil {
		return err
	}
	return c.teardown.RemovePendingUser(ctx, id, email, acting)
}

func (c *Core) EraseAccount(ctx context.Context, id, email string, acting *entity.Profile) error {
	if c.teardown == nil {
		return fmt.Errorf("teardown service not connected")
	}
	if err := requireAdmin(acting); err != nil {
		return err
	}
	return c.teardown.EraseAccount(ctx, id, email, acting)
}

func (c *Core) ListProfilesEnriched(ctx context.Context, acting *entity.Profile) ([]*entity.ProfileView, error) {
	if c.reconcile == nil {
		return nil, fmt.Errorf("reconcile service not connected")
	}
	return c.reconcile.ListProfilesEnriched(ctx, acting)
}

func (c *Core) GetProfileDetail(ctx context.Context, id string, acting *entity.Profile) (*entity.ProfileDetail, error) {
	if c.reconcile == nil {
		return nil, fmt.Errorf("reconcile service not connected")
	}
	return c.reconcile.GetProfileDetail(ctx, id, acting)
}

func (c *Core) ListPendingUsers(ctx context.Context, acting *entity.Profile) ([]*entity.PendingUser, error) {
	if c.reconcile == nil {
		return nil, fmt.Errorf("reconcile service not connected")
	}
	return c.reconcile.ListPendingUsers(ctx, acting)
}

// BuildExportSnapshot has no admin gate here: the reconciler allows
// owners to export their own account.
func (c *Core) BuildExportSnapshot(ctx context.Context, id string, acting *entity.Profile) (*entity.ExportSnapshot, error) {
	if c.reconcile == nil {
		return nil, fmt.Errorf("reconcile service not connected")
	}
	return c.reconcile.BuildExportSnapshot(ctx, id, acting)
}

func (c *Core) SendPasswordReset(ctx context.Context, email string, acting *entity.Profile) error {
	if c.passwords == nil {
		return fmt.Errorf("password service not connected")
	}
	if err := requireAdmin(acting); err != nil {
		return err
	}
	return c.passwords.SendPasswordResetEmail(ctx, email, c.resetURL)
}

func requireAdmin(acting *entity.Profile) error {
	if acting == nil || !acting.IsAdmin {
		return entity.ErrForbidden
	}
	return nil
}
