package entity

import "time"

// ExportSnapshot is the finalized data set handed to the external report
// renderer: the profile plus everything it owns, assembled in one read
// so the renderer never talks to the stores directly.
type ExportSnapshot struct {
	Profile     Profile      `json:"profile"`
	LogEntries  []LogEntry   `json:"log_entries"`
	Aircraft    []Aircraft   `json:"aircraft"`
	Supervisors []Supervisor `json:"supervisors"`
	Employment  []Employment `json:"employment"`
	Addresses   []Address    `json:"addresses"`
	GeneratedAt time.Time    `json:"generated_at"`
}
