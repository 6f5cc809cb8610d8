package enums

// TransactionType tells the webhook what a confirmed charge paid for. It
// travels in the Paystack metadata.
type TransactionType string

const (
	TransactionTypeSubscription TransactionType = "SUBSCRIPTION"
	TransactionTypeVisit        TransactionType = "VISIT"
)

var transactionTypes = newSet("transaction type", TransactionTypeSubscription, TransactionTypeVisit)

func (t TransactionType) String() string { return string(t) }

func (t TransactionType) IsValid() bool { return transactionTypes.has(t) }

func ParseTransactionType(value string) (TransactionType, error) {
	return transactionTypes.parse(value)
}
