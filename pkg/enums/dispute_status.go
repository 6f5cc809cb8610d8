package enums

// DisputeStatus tracks a dispute independently of its visit.
type DisputeStatus string

const (
	DisputeStatusOpen     DisputeStatus = "OPEN"
	DisputeStatusInReview DisputeStatus = "IN_REVIEW"
	DisputeStatusResolved DisputeStatus = "RESOLVED"
	DisputeStatusClosed   DisputeStatus = "CLOSED"
)

var disputeStatuses = newSet("dispute status",
	DisputeStatusOpen, DisputeStatusInReview, DisputeStatusResolved, DisputeStatusClosed)

func (d DisputeStatus) String() string { return string(d) }

func (d DisputeStatus) IsValid() bool { return disputeStatuses.has(d) }

// ParseDisputeStatus rejects anything outside the four known states.
func ParseDisputeStatus(value string) (DisputeStatus, error) { return disputeStatuses.parse(value) }

// IsTerminal reports whether no further transition is allowed.
func (d DisputeStatus) IsTerminal() bool {
	return d == DisputeStatusResolved || d == DisputeStatusClosed
}
