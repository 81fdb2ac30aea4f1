package entities

// PointsField selects which counter a leaderboard or rank query reads
type PointsField string

const (
	FieldTotal  PointsField = "total"
	FieldWeekly PointsField = "weekly"
)

// Standing is one leaderboard row: a user and their point value for the
// queried field. Ordering is points descending, ties broken by account
// creation order (earliest first).
type Standing struct {
	Rank   int
	UserID int64
	Points int64
}

// ActionAward is one line of a batch-commit breakdown
type ActionAward struct {
	Kind   ActionKind
	Points int64
}

// DeclareResult is the confirmation returned for a committed action
type DeclareResult struct {
	PointsAwarded  int64
	NewTotal       int64
	NewWeeklyTotal int64
}

// BatchResult is the confirmation returned for a committed sanction batch
type BatchResult struct {
	TotalAwarded int64
	Breakdown    []ActionAward
}
