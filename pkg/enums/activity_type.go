package enums

// ActivityType labels entries in the activity feed.
type ActivityType string

const (
	ActivityTypeVisitScheduled        ActivityType = "VISIT_SCHEDULED"
	ActivityTypeVisitClaimed          ActivityType = "VISIT_CLAIMED"
	ActivityTypeVisitReleased         ActivityType = "VISIT_RELEASED"
	ActivityTypePhotoUploaded         ActivityType = "PHOTO_UPLOADED"
	ActivityTypeSubscriptionActivated ActivityType = "SUBSCRIPTION_ACTIVATED"
	ActivityTypeDisputeFiled          ActivityType = "DISPUTE_FILED"
	ActivityTypeDisputeUpdated        ActivityType = "DISPUTE_UPDATED"
	ActivityTypeAchievementUnlocked   ActivityType = "ACHIEVEMENT_UNLOCKED"
)

var activityTypes = newSet("activity type",
	ActivityTypeVisitScheduled, ActivityTypeVisitClaimed, ActivityTypeVisitReleased,
	ActivityTypePhotoUploaded, ActivityTypeSubscriptionActivated,
	ActivityTypeDisputeFiled, ActivityTypeDisputeUpdated, ActivityTypeAchievementUnlocked,
)

func (a ActivityType) IsValid() bool { return activityTypes.has(a) }

func ParseActivityType(value string) (ActivityType, error) { return activityTypes.parse(value) }
