package database

import (
	"fmt"
	"techlog/entity"
)

const (
	tableLogEntry   = "log_entry"
	tableAircraft   = "aircraft"
	tableSupervisor = "supervisor"
	tableEmployment = "employment"
	tableAddress    = "address"
)

func (s *MySql) deleteOwned(table, ownerID string) (int64, error) {
	stmt, err := s.stmtDeleteOwned(table)
	if err != nil {
		return 0, err
	}
	result, err := stmt.Exec(ownerID)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", table, err)
	}
	return result.RowsAffected()
}

func (s *MySql) DeleteLogEntries(ownerID string) (int64, error) {
	return s.deleteOwned(tableLogEntry, ownerID)
}

func (s *MySql) DeleteAircraft(ownerID string) (int64, error) {
	return s.deleteOwned(tableAircraft, ownerID)
}

func (s *MySql) DeleteSupervisors(ownerID string) (int64, error) {
	return s.deleteOwned(tableSupervisor, ownerID)
}

func (s *MySql) DeleteEmployment(ownerID string) (int64, error) {
	return s.deleteOwned(tableEmployment, ownerID)
}

func (s *MySql) DeleteAddresses(ownerID string) (int64, error) {
	return s.deleteOwned(tableAddress, ownerID)
}

func (s *MySql) ListLogEntries(ownerID string) ([]entity.LogEntry, error) {
	stmt, err := s.stmtSelectLogEntries()
	if err != nil {
		return nil, err
	}
	rows, err := stmt.Query(ownerID)
	if err != nil {
		return nil, fmt.Errorf("list log entries: %w", err)
	}
	defer rows.Close()

	var entries []entity.LogEntry
	for rows.Next() {
		var e entity.LogEntry
		if err = rows.Scan(&e.ID, &e.OwnerID, &e.Date, &e.Registration,
			&e.AircraftType, &e.EngineType, &e.Details, &e.Hours); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *MySql) ListAircraft(ownerID string) ([]entity.Aircraft, error) {
	stmt, err := s.stmtSelectAircraft()
	if err != nil {
		return nil, err
	}
	rows, err := stmt.Query(ownerID)
	if err != nil {
		return nil, fmt.Errorf("list aircraft: %w", err)
	}
	defer rows.Close()

	var craft []entity.Aircraft
	for rows.Next() {
		var a entity.Aircraft
		if err = rows.Scan(&a.ID, &a.OwnerID, &a.Registration, &a.AircraftType, &a.EngineType); err != nil {
			return nil, fmt.Errorf("scan aircraft: %w", err)
		}
		craft = append(craft, a)
	}
	return craft, rows.Err()
}

func (s *MySql) ListSupervisors(ownerID string) ([]entity.Supervisor, error) {
	stmt, err := s.stmtSelectSupervisors()
	if err != nil {
		return nil, err
	}
	rows, err := stmt.Query(ownerID)
	if err != nil {
		return nil, fmt.Errorf("list supervisors: %w", err)
	}
	defer rows.Close()

	var supervisors []entity.Supervisor
	for rows.Next() {
		var sv entity.Supervisor
		if err = rows.Scan(&sv.ID, &sv.OwnerID, &sv.Name, &sv.LicenceNo); err != nil {
			return nil, fmt.Errorf("scan supervisor: %w", err)
		}
		supervisors = append(supervisors, sv)
	}
	return supervisors, rows.Err()
}

func (s *MySql) ListEmployment(ownerID string) ([]entity.Employment, error) {
	stmt, err := s.stmtSelectEmployment()
	if err != nil {
		return nil, err
	}
	rows, err := stmt.Query(ownerID)
	if err != nil {
		return nil, fmt.Errorf("list employment: %w", err)
	}
	defer rows.Close()

	var employment []entity.Employment
	for rows.Next() {
		var e entity.Employment
		if err = rows.Scan(&e.ID, &e.OwnerID, &e.Company, &e.Position, &e.From, &e.To); err != nil {
			return nil, fmt.Errorf("scan employment: %w", err)
		}
		employment = append(employment, e)
	}
	return employment, rows.Err()
}

func (s *MySql) ListAddresses(ownerID string) ([]entity.Address, error) {
	stmt, err := s.stmtSelectAddresses()
	if err != nil {
		return nil, err
	}
	rows, err := stmt.Query(ownerID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	var addresses []entity.Address
	for rows.Next() {
		var a entity.Address
		if err = rows.Scan(&a.ID, &a.OwnerID, &a.Line1, &a.Line2, &a.City, &a.Postcode, &a.Country); err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		addresses = append(addresses, a)
	}
	return addresses, rows.Err()
}

// CountOwnedRecords sums rows across all owned tables for one profile;
// used by the admin detail view to show what erasure will remove.
func (s *MySql) CountOwnedRecords(ownerID string) (int64, error) {
	var total int64
	for _, table := range []string{tableLogEntry, tableAircraft, tableSupervisor, tableEmployment, tableAddress} {
		stmt, err := s.stmtCountOwned(table)
		if err != nil {
			return 0, err
		}
		var n int64
		if err = stmt.QueryRow(ownerID).Scan(&n); err != nil {
			return 0, fmt.Errorf("count %s: %w", table, err)
		}
		total += n
	}
	return total, nil
}
