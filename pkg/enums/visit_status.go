package enums

// VisitStatus drives the visit request lifecycle. Transitions only move
// forward: PENDING, then ASSIGNED, then COMPLETED.
type VisitStatus string

const (
	VisitStatusPending   VisitStatus = "PENDING"
	VisitStatusAssigned  VisitStatus = "ASSIGNED"
	VisitStatusCompleted VisitStatus = "COMPLETED"
)

var visitStatuses = newSet("visit status", VisitStatusPending, VisitStatusAssigned, VisitStatusCompleted)

func (v VisitStatus) String() string { return string(v) }

func (v VisitStatus) IsValid() bool { return visitStatuses.has(v) }

func ParseVisitStatus(value string) (VisitStatus, error) { return visitStatuses.parse(value) }
