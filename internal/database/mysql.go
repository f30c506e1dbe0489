package database

import (
	"database/sql"
	"fmt"
	"sync"
	"techlog/internal/config"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

// MySql holds the relational backend shared by the profile store, the
// invite store and the owned-record tables.
type MySql struct {
	db         *sql.DB
	statements map[string]*sql.Stmt
	mu         sync.Mutex
}

func NewSQLClient(conf *config.Config) (*MySql, error) {
	connectionURI := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		conf.MySQL.UserName, conf.MySQL.Password, conf.MySQL.HostName, conf.MySQL.Port, conf.MySQL.Database)
	db, err := sql.Open("mysql", connectionURI)
	if err != nil {
		return nil, fmt.Errorf("sql connect: %w", err)
	}

	// try to ping three times with a 30-second interval; wait for a database to start
	for i := 0; i < 3; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		if i == 2 {
			return nil, fmt.Errorf("ping database: %w", err)
		}
		time.Sleep(30 * time.Second)
	}

	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &MySql{
		db:         db,
		statements: make(map[string]*sql.Stmt),
	}

	if err = sdb.initSchema(); err != nil {
		return nil, err
	}

	return sdb, nil
}

func (s *MySql) Close() {
	s.closeStmt()
	_ = s.db.Close()
}

// initSchema creates the tables on first start. The invite table carries
// a generated column that holds the email only while the invite is
// pending; MySQL unique indexes skip NULLs, so resolved invites never
// block a re-invite while two pending invites for one email collide.
// That index is the sole duplicate-invite authority; there is no
// check-then-insert anywhere above it.
func (s *MySql) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS profile (
			id VARCHAR(36) NOT NULL,
			email VARCHAR(255) NOT NULL,
			name VARCHAR(255) NOT NULL DEFAULT '',
			is_admin TINYINT(1) NOT NULL DEFAULT 0,
			status VARCHAR(16) NOT NULL DEFAULT 'pending',
			created_at DATETIME NOT NULL,
			PRIMARY KEY (id),
			UNIQUE KEY uq_profile_email (email)
		)`,
		`CREATE TABLE IF NOT EXISTS invite (
			id BIGINT NOT NULL AUTO_INCREMENT,
			email VARCHAR(255) NOT NULL,
			name VARCHAR(255) NOT NULL DEFAULT '',
			is_admin TINYINT(1) NOT NULL DEFAULT 0,
			status VARCHAR(16) NOT NULL DEFAULT 'pending',
			token VARCHAR(36) NOT NULL,
			invited_by VARCHAR(36) NOT NULL DEFAULT '',
			issued_at DATETIME NOT NULL,
			expires_at DATETIME NOT NULL,
			pending_email VARCHAR(255) GENERATED ALWAYS AS (IF(status = 'pending', email, NULL)) STORED,
			PRIMARY KEY (id),
			UNIQUE KEY uq_invite_pending_email (pending_email)
		)`,
		`CREATE TABLE IF NOT EXISTS log_entry (
			id BIGINT NOT NULL AUTO_INCREMENT,
			owner_id VARCHAR(36) NOT NULL,
			entry_date DATETIME NOT NULL,
			registration VARCHAR(16) NOT NULL DEFAULT '',
			aircraft_type VARCHAR(64) NOT NULL DEFAULT '',
			engine_type VARCHAR(64) NOT NULL DEFAULT '',
			details TEXT,
			hours DOUBLE NOT NULL DEFAULT 0,
			PRIMARY KEY (id),
			KEY idx_log_entry_owner (owner_id)
		)`,
		`CREATE TABLE IF NOT EXISTS aircraft (
			id BIGINT NOT NULL AUTO_INCREMENT,
			owner_id VARCHAR(36) NOT NULL,
			registration VARCHAR(16) NOT NULL DEFAULT '',
			aircraft_type VARCHAR(64) NOT NULL DEFAULT '',
			engine_type VARCHAR(64) NOT NULL DEFAULT '',
			PRIMARY KEY (id),
			KEY idx_aircraft_owner (owner_id)
		)`,
		`CREATE TABLE IF NOT EXISTS supervisor (
			id BIGINT NOT NULL AUTO_INCREMENT,
			owner_id VARCHAR(36) NOT NULL,
			name VARCHAR(255) NOT NULL DEFAULT '',
			licence_no VARCHAR(64) NOT NULL DEFAULT '',
			PRIMARY KEY (id),
			KEY idx_supervisor_owner (owner_id)
		)`,
		`CREATE TABLE IF NOT EXISTS employment (
			id BIGINT NOT NULL AUTO_INCREMENT,
			owner_id VARCHAR(36) NOT NULL,
			company VARCHAR(255) NOT NULL DEFAULT '',
			position VARCHAR(255) NOT NULL DEFAULT '',
			from_date DATETIME NOT NULL,
			to_date DATETIME NULL,
			PRIMARY KEY (id),
			KEY idx_employment_owner (owner_id)
		)`,
		`CREATE TABLE IF NOT EXISTS address (
			id BIGINT NOT NULL AUTO_INCREMENT,
			owner_id VARCHAR(36) NOT NULL,
			line1 VARCHAR(255) NOT NULL DEFAULT '',
			line2 VARCHAR(255) NOT NULL DEFAULT '',
			city VARCHAR(128) NOT NULL DEFAULT '',
			postcode VARCHAR(32) NOT NULL DEFAULT '',
			country VARCHAR(64) NOT NULL DEFAULT '',
			PRIMARY KEY (id),
			KEY idx_address_owner (owner_id)
		)`,
	}
	for _, query := range statements {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
