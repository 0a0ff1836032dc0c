package taskname

const (
	// Notification tasks
	NotificationDispatch = "notification:dispatch"

	// Leaderboard tasks
	LeaderboardRebuild = "leaderboard:rebuild"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)
