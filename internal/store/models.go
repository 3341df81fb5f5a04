package store

import "time"

// Status tracks a scan session's lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusStopped   Status = "stopped"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the session has finished, for any reason.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusStopped, StatusFailed:
		return true
	}
	return false
}

// Session is one recorded scan run. Name is an optional user label;
// FileTypes is the comma-joined category list the scan covered.
type Session struct {
	ID           int64
	Token        string
	Name         string
	Status       Status
	FileTypes    string
	Threshold    float64
	FileCount    int
	GroupCount   int
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
}

// ScannedPath is one root directory covered by a session.
type ScannedPath struct {
	ID             int64
	SessionID      int64
	Path           string
	IncludeSubdirs bool
}

// Group is a persisted duplicate group. HashValue is set for exact
// groups only.
type Group struct {
	ID         int64
	SessionID  int64
	Category   string
	Similarity float64
	HashValue  string
	Files      []File
}

// File is one member of a persisted group.
type File struct {
	ID         int64
	GroupID    int64
	Path       string
	SizeBytes  int64
	ModifiedAt time.Time
}
