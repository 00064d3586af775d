package shared

const (
	UserID    = "user_id"
	SessionID = "session_id"

	AreaSpiritual    = "spiritual"
	AreaIntellectual = "intellectual"
	AreaFamily       = "family"
	AreaSocial       = "social"
	AreaFinancial    = "financial"
	AreaProfessional = "professional"
	AreaHealth       = "health"

	AchievementTypeGoals  = "goals"
	AchievementTypeStreak = "streak"
	AchievementTypeLevel  = "level"

	NotificationTypeReminder    = "reminder"
	NotificationTypeAchievement = "achievement"
	NotificationTypeSystem      = "system"
)

// LifeAreas lists the seven canonical area ids in display order.
var LifeAreas = []string{
	AreaSpiritual,
	AreaIntellectual,
	AreaFamily,
	AreaSocial,
	AreaFinancial,
	AreaProfessional,
	AreaHealth,
}

func IsLifeArea(area string) bool {
	for _, a := range LifeAreas {
		if a == area {
			return true
		}
	}
	return false
}
