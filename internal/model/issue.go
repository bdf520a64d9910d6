package model

import "time"

// IssueRecord is the audit row written after an issue is filed on GitHub.
// It is never updated and never read back into the request path.
type IssueRecord struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Repository string    `json:"repository"`
	Owner      string    `json:"owner"`
	URL        string    `json:"url"`
	CreatedAt  time.Time `json:"createdAt"`
}

// StatsKind names the operation a stats event counts.
type StatsKind string

const (
	StatsGeneration StatsKind = "generation"
	StatsCreation   StatsKind = "creation"
)

// StatsEvent is applied to UserStats after every generate or create call,
// whether it succeeded or not.
type StatsEvent struct {
	Kind      StatsKind
	Succeeded bool
}

// UserStats are the per-user issue counters.
type UserStats struct {
	UserID               string `json:"userId"`
	GenerationsAttempted int64  `json:"generationsAttempted"`
	GenerationsSucceeded int64  `json:"generationsSucceeded"`
	CreationsAttempted   int64  `json:"creationsAttempted"`
	CreationsSucceeded   int64  `json:"creationsSucceeded"`
}
