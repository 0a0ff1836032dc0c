package rediskey

import "fmt"

const (
	LeaderboardPrefix     = "leaderboard"
	AffiliateSettingsKey  = "affiliate:settings"
	LeaderboardXPBoard    = "xp"
	LeaderboardWeeklyBase = "xp:week"
)

func NamespaceKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s", namespace, key)
}

// BuildLeaderboardKey returns "leaderboard:{board}"
func BuildLeaderboardKey(board string) string {
	return NamespaceKey(LeaderboardPrefix, board)
}

// BuildWeeklyLeaderboardKey returns "leaderboard:xp:week:{year}-{week}"
func BuildWeeklyLeaderboardKey(year, week int) string {
	return NamespaceKey(LeaderboardPrefix, fmt.Sprintf("%s:%04d-%02d", LeaderboardWeeklyBase, year, week))
}
