package database

import (
	"database/sql"
	"errors"
	"fmt"
	"techlog/entity"

	"github.com/go-sql-driver/mysql"
)

const erDupEntry = 1062

// InsertInvite relies on the uq_invite_pending_email index for the
// one-pending-invite-per-email rule. A concurrent second insert loses at
// the index, never at a racing pre-check.
func (s *MySql) InsertInvite(inv *entity.Invite) error {
	stmt, err := s.stmtInsertInvite()
	if err != nil {
		return err
	}
	result, err := stmt.Exec(
		inv.Email,
		inv.Name,
		inv.IsAdmin,
		string(inv.Status),
		inv.Token,
		inv.InvitedBy,
		inv.IssuedAt,
		inv.ExpiresAt,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == erDupEntry {
			return entity.ErrDuplicateInvite
		}
		return fmt.Errorf("insert invite: %w", err)
	}
	if inv.ID, err = result.LastInsertId(); err != nil {
		return fmt.Errorf("invite id: %w", err)
	}
	return nil
}

// GetPendingInvite returns the invite currently holding the pending
// slot for an email, stored tag as-is; callers judge expiry themselves.
func (s *MySql) GetPendingInvite(email string) (*entity.Invite, error) {
	stmt, err := s.stmtSelectPendingInvite()
	if err != nil {
		return nil, err
	}
	var inv entity.Invite
	var status string
	err = stmt.QueryRow(email).Scan(
		&inv.ID, &inv.Email, &inv.Name, &inv.IsAdmin, &status,
		&inv.Token, &inv.InvitedBy, &inv.IssuedAt, &inv.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan invite: %w", err)
	}
	inv.Status = entity.InviteStatus(status)
	return &inv, nil
}

func (s *MySql) ListPendingInvites() ([]*entity.Invite, error) {
	stmt, err := s.stmtSelectPendingInvites()
	if err != nil {
		return nil, err
	}
	rows, err := stmt.Query()
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	defer rows.Close()

	var invites []*entity.Invite
	for rows.Next() {
		var inv entity.Invite
		var status string
		if err = rows.Scan(
			&inv.ID, &inv.Email, &inv.Name, &inv.IsAdmin, &status,
			&inv.Token, &inv.InvitedBy, &inv.IssuedAt, &inv.ExpiresAt,
		); err != nil {
			return nil, fmt.Errorf("scan invite: %w", err)
		}
		inv.Status = entity.InviteStatus(status)
		invites = append(invites, &inv)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return invites, nil
}

// SetInviteStatus resolves the pending invite for an email. Only pending
// rows match, so accepted or cancelled invites are never rewritten.
func (s *MySql) SetInviteStatus(email string, status entity.InviteStatus) error {
	stmt, err := s.stmtUpdateInviteStatus()
	if err != nil {
		return err
	}
	result, err := stmt.Exec(string(status), email)
	if err != nil {
		return fmt.Errorf("update invite status: %w", err)
	}
	return s.requireRow(result)
}
