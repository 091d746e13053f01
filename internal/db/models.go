package db

import "time"

// Workday is a single calendar date's work session boundaries, per
// at most one row per date.
type Workday struct {
	ID    int64
	Date  string // YYYY-MM-DD, local zone
	Start time.Time
	End   *time.Time
}

// Pause is a detected or manually-inserted inactivity interval, per
// at most one open pause per date, and pauses never overlap.
type Pause struct {
	ID       int64
	Date     string // derived from Start, YYYY-MM-DD local zone
	Start    time.Time
	End      *time.Time
	Duration *int64 // seconds; set only once End is set
	Manual   bool   // true for an "adjust" insertion, false for sampler-detected
}

// Task is auxiliary to the core: the report aggregator reads tasks dated
// to the same day as a workday.
type Task struct {
	ID                 int64
	Timestamp          time.Time
	Name               string
	Comment            *string
	Completeness       int // 0-100
	TaskID             *string
	ExcludedFromSearch bool
}

// Tag is a user-defined label, many-to-many with Task via TaskTag.
type Tag struct {
	ID    int64
	Name  string
	Color *string
}

// Template is a reusable task skeleton.
type Template struct {
	ID                  int64
	Name                string
	TaskName            string
	Comment             *string
	DefaultCompleteness int
}

// Migration records one applied schema change.
type Migration struct {
	Version   int
	Name      string
	AppliedAt time.Time
}
