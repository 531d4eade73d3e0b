package domain

import (
	"time"
)

// UnassignedBucket is the assignee name used for tickets without an owner.
const UnassignedBucket = "Unassigned"

// TicketRecord is one support ticket as supplied by a ticket loader.
// Records are read-only to the engine.
type TicketRecord struct {
	Key       string
	Created   *time.Time
	Updated   *time.Time
	Status    string
	Assignee  string
	IssueType string
}

// IsUnassigned reports whether the ticket has no owner. Both an empty
// assignee and the explicit "Unassigned" marker count.
func (t TicketRecord) IsUnassigned() bool {
	return t.Assignee == "" || t.Assignee == UnassignedBucket
}

// AssigneeBucket returns the name the ticket is counted under in workload
// statistics.
func (t TicketRecord) AssigneeBucket() string {
	if t.IsUnassigned() {
		return UnassignedBucket
	}
	return t.Assignee
}
