package enums

// VisitSource records which path created a visit request.
type VisitSource string

const (
	VisitSourceClient  VisitSource = "CLIENT"
	VisitSourcePayment VisitSource = "PAYMENT"
)

var visitSources = newSet("visit source", VisitSourceClient, VisitSourcePayment)

func (v VisitSource) IsValid() bool { return visitSources.has(v) }

func ParseVisitSource(value string) (VisitSource, error) { return visitSources.parse(value) }
