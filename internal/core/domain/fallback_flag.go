package domain

import "time"

// FallbackStatus is the lifecycle state of a FallbackFlag row.
type FallbackStatus string

const (
	FallbackPending   FallbackStatus = "pending"
	FallbackForwarded FallbackStatus = "forwarded"
)

// FallbackFlag is a client-local record of a flag that could not reach the
// server at enqueue time (§3). It carries the fields a later
// enqueue-fallback call needs to reconstruct server-side tick assignment.
type FallbackFlag struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Value     string `gorm:"uniqueIndex;not null"`
	Exploit   string
	Target    string
	Timestamp time.Time
	Status    FallbackStatus `gorm:"index"`
}

func (FallbackFlag) TableName() string { return "fallback_flags" }

// FallbackEntry is the wire shape POSTed to /enqueue-fallback.
type FallbackEntry struct {
	Flag      string     `json:"flag"`
	Exploit   string     `json:"exploit"`
	Target    string     `json:"target"`
	Player    string     `json:"player"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}
