package entity

import "time"

// AuditEvent is one step of an administrative workflow, written to the
// audit store as it happens. Error is empty for successful steps.
type AuditEvent struct {
	ID      string    `bson:"id" json:"id"`
	ActorID string    `bson:"actor_id" json:"actor_id"`
	Action  string    `bson:"action" json:"action"`
	Entity  string    `bson:"entity" json:"entity"`
	Step    string    `bson:"step" json:"step"`
	Error   string    `bson:"error,omitempty" json:"error,omitempty"`
	At      time.Time `bson:"at" json:"at"`
}
