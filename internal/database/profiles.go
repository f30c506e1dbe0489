package database

import (
	"database/sql"
	"errors"
	"fmt"
	"techlog/entity"
)

func (s *MySql) InsertProfile(p *entity.Profile) error {
	stmt, err := s.stmtInsertProfile()
	if err != nil {
		return err
	}
	_, err = stmt.Exec(p.ID, p.Email, p.Name, p.IsAdmin, string(p.Status), p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (s *MySql) GetProfile(id string) (*entity.Profile, error) {
	stmt, err := s.stmtSelectProfile()
	if err != nil {
		return nil, err
	}
	return s.scanProfile(stmt.QueryRow(id))
}

func (s *MySql) GetProfileByEmail(email string) (*entity.Profile, error) {
	stmt, err := s.stmtSelectProfileByEmail()
	if err != nil {
		return nil, err
	}
	return s.scanProfile(stmt.QueryRow(email))
}

func (s *MySql) scanProfile(row *sql.Row) (*entity.Profile, error) {
	var p entity.Profile
	var status string
	err := row.Scan(&p.ID, &p.Email, &p.Name, &p.IsAdmin, &status, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	p.Status = entity.ProfileStatus(status)
	return &p, nil
}

func (s *MySql) ListProfiles() ([]*entity.Profile, error) {
	stmt, err := s.stmtSelectProfiles()
	if err != nil {
		return nil, err
	}
	rows, err := stmt.Query()
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*entity.Profile
	for rows.Next() {
		var p entity.Profile
		var status string
		if err = rows.Scan(&p.ID, &p.Email, &p.Name, &p.IsAdmin, &status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		p.Status = entity.ProfileStatus(status)
		profiles = append(profiles, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (s *MySql) SetProfileStatus(id string, status entity.ProfileStatus) error {
	stmt, err := s.stmtUpdateProfileStatus()
	if err != nil {
		return err
	}
	result, err := stmt.Exec(string(status), id)
	if err != nil {
		return fmt.Errorf("update profile status: %w", err)
	}
	return s.requireRow(result)
}

func (s *MySql) SetProfileRole(id string, isAdmin bool) error {
	stmt, err := s.stmtUpdateProfileRole()
	if err != nil {
		return err
	}
	result, err := stmt.Exec(isAdmin, id)
	if err != nil {
		return fmt.Errorf("update profile role: %w", err)
	}
	// zero rows affected still means the row exists when the value did
	// not change, so look the profile up before reporting not found
	if err = s.requireRow(result); errors.Is(err, entity.ErrNotFound) {
		if _, getErr := s.GetProfile(id); getErr == nil {
			return nil
		}
		return entity.ErrNotFound
	}
	return err
}

func (s *MySql) DeleteProfile(id string) error {
	stmt, err := s.stmtDeleteProfile()
	if err != nil {
		return err
	}
	result, err := stmt.Exec(id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return s.requireRow(result)
}

func (s *MySql) requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return entity.ErrNotFound
	}
	return nil
}
