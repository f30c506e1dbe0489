package auth

import (
	"context"
	"fmt"
	"techlog/entity"
)

type IdentityService interface {
	UserByToken(ctx context.Context, token string) (*entity.Identity, error)
}

type ProfileStore interface {
	GetProfile(id string) (*entity.Profile, error)
}

// Auth resolves a bearer session token to the acting profile. The
// identity service owns the token; this only correlates it to the local
// role and lifecycle status.
type Auth struct {
	identity IdentityService
	profiles ProfileStore
}

func New(identity IdentityService, profiles ProfileStore) *Auth {
	return &Auth{identity: identity, profiles: profiles}
}

func (a *Auth) UserByToken(ctx context.Context, token string) (*entity.Profile, error) {
	if a.identity == nil || a.profiles == nil {
		return nil, fmt.Errorf("auth not connected")
	}
	ident, err := a.identity.UserByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	profile, err := a.profiles.GetProfile(ident.ID)
	if err != nil {
		return nil, fmt.Errorf("profile for identity %s: %w", ident.ID, err)
	}
	if profile.IsSuspended() {
		return nil, fmt.Errorf("account suspended")
	}
	return profile, nil
}
