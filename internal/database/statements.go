package database

import (
	"database/sql"
	"fmt"
)

func (s *MySql) prepareStmt(name, query string) (*sql.Stmt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stmt, ok := s.statements[name]; ok {
		return stmt, nil
	}

	stmt, err := s.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("prepare statement [%s]: %w", name, err)
	}

	s.statements[name] = stmt
	return stmt, nil
}

func (s *MySql) closeStmt() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, stmt := range s.statements {
		_ = stmt.Close()
		delete(s.statements, name)
	}
}

func (s *MySql) stmtInsertProfile() (*sql.Stmt, error) {
	query := `INSERT INTO profile (id, email, name, is_admin, status, created_at)
	          VALUES (?, ?, ?, ?, ?, ?)`
	return s.prepareStmt("insertProfile", query)
}

func (s *MySql) stmtSelectProfile() (*sql.Stmt, error) {
	query := `SELECT id, email, name, is_admin, status, created_at
	          FROM profile WHERE id = ?`
	return s.prepareStmt("selectProfile", query)
}

func (s *MySql) stmtSelectProfileByEmail() (*sql.Stmt, error) {
	query := `SELECT id, email, name, is_admin, status, created_at
	          FROM profile WHERE email = ?`
	return s.prepareStmt("selectProfileByEmail", query)
}

func (s *MySql) stmtSelectProfiles() (*sql.Stmt, error) {
	query := `SELECT id, email, name, is_admin, status, created_at
	          FROM profile ORDER BY created_at`
	return s.prepareStmt("selectProfiles", query)
}

func (s *MySql) stmtUpdateProfileStatus() (*sql.Stmt, error) {
	query := `UPDATE profile SET status = ? WHERE id = ?`
	return s.prepareStmt("updateProfileStatus", query)
}

func (s *MySql) stmtUpdateProfileRole() (*sql.Stmt, error) {
	query := `UPDATE profile SET is_admin = ? WHERE id = ?`
	return s.prepareStmt("updateProfileRole", query)
}

func (s *MySql) stmtDeleteProfile() (*sql.Stmt, error) {
	query := `DELETE FROM profile WHERE id = ?`
	return s.prepareStmt("deleteProfile", query)
}

func (s *MySql) stmtInsertInvite() (*sql.Stmt, error) {
	query := `INSERT INTO invite (email, name, is_admin, status, token, invited_by, issued_at, expires_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	return s.prepareStmt("insertInvite", query)
}

func (s *MySql) stmtSelectPendingInvite() (*sql.Stmt, error) {
	query := `SELECT id, email, name, is_admin, status, token, invited_by, issued_at, expires_at
	          FROM invite WHERE email = ? AND status = 'pending'`
	return s.prepareStmt("selectPendingInvite", query)
}

func (s *MySql) stmtSelectPendingInvites() (*sql.Stmt, error) {
	query := `SELECT id, email, name, is_admin, status, token, invited_by, issued_at, expires_at
	          FROM invite WHERE status = 'pending' ORDER BY issued_at`
	return s.prepareStmt("selectPendingInvites", query)
}

func (s *MySql) stmtUpdateInviteStatus() (*sql.Stmt, error) {
	query := `UPDATE invite SET status = ? WHERE email = ? AND status = 'pending'`
	return s.prepareStmt("updateInviteStatus", query)
}

func (s *MySql) stmtSelectLogEntries() (*sql.Stmt, error) {
	query := `SELECT id, owner_id, entry_date, registration, aircraft_type, engine_type, COALESCE(details, ''), hours
	          FROM log_entry WHERE owner_id = ? ORDER BY entry_date`
	return s.prepareStmt("selectLogEntries", query)
}

func (s *MySql) stmtSelectAircraft() (*sql.Stmt, error) {
	query := `SELECT id, owner_id, registration, aircraft_type, engine_type
	          FROM aircraft WHERE owner_id = ? ORDER BY registration`
	return s.prepareStmt("selectAircraft", query)
}

func (s *MySql) stmtSelectSupervisors() (*sql.Stmt, error) {
	query := `SELECT id, owner_id, name, licence_no
	          FROM supervisor WHERE owner_id = ? ORDER BY name`
	return s.prepareStmt("selectSupervisors", query)
}

func (s *MySql) stmtSelectEmployment() (*sql.Stmt, error) {
	query := `SELECT id, owner_id, company, position, from_date, to_date
	          FROM employment WHERE owner_id = ? ORDER BY from_date`
	return s.prepareStmt("selectEmployment", query)
}

func (s *MySql) stmtSelectAddresses() (*sql.Stmt, error) {
	query := `SELECT id, owner_id, line1, line2, city, postcode, country
	          FROM address WHERE owner_id = ?`
	return s.prepareStmt("selectAddresses", query)
}

func (s *MySql) stmtDeleteOwned(table string) (*sql.Stmt, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE owner_id = ?`, table)
	return s.prepareStmt("deleteOwned_"+table, query)
}

func (s *MySql) stmtCountOwned(table string) (*sql.Stmt, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE owner_id = ?`, table)
	return s.prepareStmt("countOwned_"+table, query)
}
