package entity

import (
	"net/http"
	"techlog/lib/validate"
)

// InviteRequest is the admin payload for issuing an invitation.
type InviteRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Name    string `json:"name" validate:"required"`
	IsAdmin bool   `json:"is_admin"`
}

func (r *InviteRequest) Bind(_ *http.Request) error {
	return validate.Struct(r)
}

// RoleRequest flips the admin flag on a target profile.
type RoleRequest struct {
	IsAdmin bool `json:"is_admin"`
}

func (r *RoleRequest) Bind(_ *http.Request) error {
	return nil
}

// RemovalRequest identifies the account a teardown operation targets.
// Email travels alongside the id because invites correlate by email only.
type RemovalRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (r *RemovalRequest) Bind(_ *http.Request) error {
	return validate.Struct(r)
}

// SignupEvent is posted by the identity service when a registrant
// completes signup.
type SignupEvent struct {
	ID    string `json:"id" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"omitempty"`
}

func (e *SignupEvent) Bind(_ *http.Request) error {
	return validate.Struct(e)
}

// ResetRequest asks the identity service to send a password reset email.
type ResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (r *ResetRequest) Bind(_ *http.Request) error {
	return validate.Struct(r)
}
