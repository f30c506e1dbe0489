package entity

import (
	"fmt"
	"time"

	"github.com/biter777/countries"
)

// Owned records: everything below belongs to exactly one profile and is
// torn down by account erasure in dependency order (log entries first,
// addresses last, then the profile row itself).

// LogEntry is one maintenance logbook line.
type LogEntry struct {
	ID           int64     `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Date         time.Time `json:"date"`
	Registration string    `json:"registration"`
	AircraftType string    `json:"aircraft_type"`
	EngineType   string    `json:"engine_type"`
	Details      string    `json:"details"`
	Hours        float64   `json:"hours"`
}

// Aircraft is an airframe the engineer has worked on.
type Aircraft struct {
	ID           int64  `json:"id"`
	OwnerID      string `json:"owner_id"`
	Registration string `json:"registration"`
	AircraftType string `json:"aircraft_type"`
	EngineType   string `json:"engine_type"`
}

// Supervisor countersigns logbook entries.
type Supervisor struct {
	ID        int64  `json:"id"`
	OwnerID   string `json:"owner_id"`
	Name      string `json:"name"`
	LicenceNo string `json:"licence_no"`
}

// Employment is one employer period on the engineer's record.
type Employment struct {
	ID       int64      `json:"id"`
	OwnerID  string     `json:"owner_id"`
	Company  string     `json:"company"`
	Position string     `json:"position"`
	From     time.Time  `json:"from"`
	To       *time.Time `json:"to,omitempty"`
}

// Address is a postal address on the engineer's record.
type Address struct {
	ID       int64  `json:"id"`
	OwnerID  string `json:"owner_id"`
	Line1    string `json:"line1"`
	Line2    string `json:"line2,omitempty"`
	City     string `json:"city"`
	Postcode string `json:"postcode"`
	Country  string `json:"country"`
}

// Validate checks the country against the ISO registry; regulators reject
// exports with free-text countries.
func (a *Address) Validate() error {
	if a.Line1 == "" || a.City == "" {
		return fmt.Errorf("address requires line1 and city")
	}
	if countries.ByName(a.Country) == countries.Unknown {
		return fmt.Errorf("unknown country: %s", a.Country)
	}
	return nil
}
