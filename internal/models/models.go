package models

import (
	"time"

	"github.com/lehigh-university-libraries/volmerge/internal/matching"
	"github.com/lehigh-university-libraries/volmerge/internal/records"
)

// MergeSession is a review session held by the HTTP API
type MergeSession struct {
	ID        string           `json:"id"`
	DatasetA  []records.Record `json:"-"`
	DatasetB  []records.Record `json:"-"`
	Options   SessionOptions   `json:"options"`
	Review    *matching.Review `json:"review"`
	CreatedAt time.Time        `json:"created_at"`
}

// SessionOptions are the matching options a session was created with
type SessionOptions struct {
	Threshold  float64  `json:"threshold"`
	MaxMatches int      `json:"max_matches"`
	Fields     []string `json:"fields"`
	Exclusive  bool     `json:"exclusive"`
}

// SessionSummary is the listing view of a session
type SessionSummary struct {
	ID        string    `json:"id"`
	RecordsA  int       `json:"records_a"`
	RecordsB  int       `json:"records_b"`
	Pending   int       `json:"pending"`
	Confirmed int       `json:"confirmed"`
	Rejected  int       `json:"rejected"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary returns the listing view of the session
func (s *MergeSession) Summary() SessionSummary {
	return SessionSummary{
		ID:        s.ID,
		RecordsA:  len(s.DatasetA),
		RecordsB:  len(s.DatasetB),
		Pending:   len(s.Review.Pending),
		Confirmed: len(s.Review.Confirmed),
		Rejected:  s.Review.Rejected,
		CreatedAt: s.CreatedAt,
	}
}
