package domain

import "time"

// Status is the lifecycle state of a Flag in the Flag Store.
type Status string

const (
	StatusQueued   Status = "queued"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// ManualExploit is the exploit identifier used for flags inserted through
// the enqueue-manual endpoint rather than produced by a running exploit.
const ManualExploit = "manual"

// UnknownTarget is the target recorded for manually-submitted flags, which
// have no associated host.
const UnknownTarget = "unknown"

// Flag is the authoritative, server-side record of a captured flag value.
// Value is the global dedup key: the Flag Store enforces uniqueness on it.
type Flag struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Value     string `gorm:"uniqueIndex;not null"`
	Exploit   string `gorm:"index"`
	Player    string `gorm:"index"`
	Tick      int64  `gorm:"index"`
	Target    string
	Timestamp time.Time
	Status    Status `gorm:"index"`
	Response  string
}

// TableName pins the GORM table name regardless of struct renames.
func (Flag) TableName() string { return "flags" }

// StatusCounts is the result of a count-by-status query against the Flag
// Store (§4.7).
type StatusCounts struct {
	Queued   int64 `json:"queued"`
	Accepted int64 `json:"accepted"`
	Rejected int64 `json:"rejected"`
}

// EnqueueResult is the response shape of the enqueue family of endpoints.
// New/Duplicates are not omitempty: scenario S1 requires the exact shape
// {"new":[...],"duplicates":[...]} even when one side is empty. Own is
// populated only on the own-team short-circuit, where New/Duplicates are
// empty.
type EnqueueResult struct {
	New        []string `json:"new"`
	Duplicates []string `json:"duplicates"`
	Own        int      `json:"own,omitempty"`
}

// AnalyticsPoint is one (player, exploit, tick) row of the exploit-analytics
// group-by query (§4.7), carrying the flag count for that tick in the
// requested [lo, hi] window.
type AnalyticsPoint struct {
	Player  string
	Exploit string
	Tick    int64
	Count   int64
}
