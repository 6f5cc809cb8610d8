package enums

// SubscriptionPlan selects the monthly monitoring tier.
type SubscriptionPlan string

const (
	SubscriptionPlanBasic   SubscriptionPlan = "BASIC"
	SubscriptionPlanPremium SubscriptionPlan = "PREMIUM"
)

var subscriptionPlans = newSet("subscription plan", SubscriptionPlanBasic, SubscriptionPlanPremium)

func (s SubscriptionPlan) String() string { return string(s) }

func (s SubscriptionPlan) IsValid() bool { return subscriptionPlans.has(s) }

func ParseSubscriptionPlan(value string) (SubscriptionPlan, error) {
	return subscriptionPlans.parse(value)
}
