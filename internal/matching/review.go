package matching

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrCandidateNotFound is returned when a candidate ID is not pending
var ErrCandidateNotFound = errors.New("candidate not found in pending matches")

// Review is the human-in-the-loop queue for candidate matches. Every
// candidate is either pending or confirmed; rejected candidates are dropped.
//
// When Exclusive is set, confirming a candidate also drops every other
// pending candidate that shares its A or B record, so no record can be
// merged twice.
type Review struct {
	Pending   []Candidate `json:"pending" yaml:"pending"`
	Confirmed []Candidate `json:"confirmed" yaml:"confirmed"`
	Rejected  int         `json:"rejected" yaml:"rejected"`
	Exclusive bool        `json:"exclusive" yaml:"exclusive"`
}

// NewReview starts a review over candidates in their ranked order
func NewReview(candidates []Candidate, exclusive bool) *Review {
	return &Review{
		Pending:   append([]Candidate{}, candidates...),
		Confirmed: []Candidate{},
		Exclusive: exclusive,
	}
}

// ConfirmMatch removes the candidate at index from pending and returns the
// remaining pending list together with the removed candidate. The input
// slice is left untouched. An out-of-range index panics: callers must only
// pass indices of the list they currently display.
func ConfirmMatch(pending []Candidate, index int) ([]Candidate, Candidate) {
	if index < 0 || index >= len(pending) {
		panic(fmt.Sprintf("matching: confirm index %d out of range [0,%d)", index, len(pending)))
	}
	return removeAt(pending, index), pending[index]
}

// RejectMatch removes the candidate at index from pending and discards it.
// An out-of-range index panics.
func RejectMatch(pending []Candidate, index int) []Candidate {
	if index < 0 || index >= len(pending) {
		panic(fmt.Sprintf("matching: reject index %d out of range [0,%d)", index, len(pending)))
	}
	return removeAt(pending, index)
}

func removeAt(pending []Candidate, index int) []Candidate {
	out := make([]Candidate, 0, len(pending)-1)
	out = append(out, pending[:index]...)
	return append(out, pending[index+1:]...)
}

// Find returns the pending candidate with the given ID
func (r *Review) Find(id string) (Candidate, bool) {
	if i := r.indexOf(id); i >= 0 {
		return r.Pending[i], true
	}
	return Candidate{}, false
}

func (r *Review) indexOf(id string) int {
	for i, c := range r.Pending {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// Confirm moves the pending candidate with the given ID to the confirmed list
func (r *Review) Confirm(id string) (Candidate, error) {
	i := r.indexOf(id)
	if i < 0 {
		return Candidate{}, fmt.Errorf("confirm %s: %w", id, ErrCandidateNotFound)
	}
	return r.ConfirmAt(i), nil
}

// Reject drops the pending candidate with the given ID
func (r *Review) Reject(id string) (Candidate, error) {
	i := r.indexOf(id)
	if i < 0 {
		return Candidate{}, fmt.Errorf("reject %s: %w", id, ErrCandidateNotFound)
	}
	c := r.Pending[i]
	r.RejectAt(i)
	return c, nil
}

// ConfirmAt confirms the candidate at a position of the pending list.
// It panics on an out-of-range index.
func (r *Review) ConfirmAt(index int) Candidate {
	var c Candidate
	r.Pending, c = ConfirmMatch(r.Pending, index)
	r.Confirmed = append(r.Confirmed, c)

	if r.Exclusive {
		kept := r.Pending[:0]
		dropped := 0
		for _, p := range r.Pending {
			if p.IndexA == c.IndexA || p.IndexB == c.IndexB {
				dropped++
				continue
			}
			kept = append(kept, p)
		}
		r.Pending = kept
		if dropped > 0 {
			slog.Debug("Dropped conflicting candidates", "confirmed", c.ID, "dropped", dropped)
		}
	}

	return c
}

// RejectAt rejects the candidate at a position of the pending list.
// It panics on an out-of-range index.
func (r *Review) RejectAt(index int) {
	r.Pending = RejectMatch(r.Pending, index)
	r.Rejected++
}

// AutoConfirm confirms, in review order, every pending candidate whose
// confidence is at least minConfidence and returns the confirmed candidates.
func (r *Review) AutoConfirm(minConfidence float64) []Candidate {
	var confirmed []Candidate
	for i := 0; i < len(r.Pending); {
		if r.Pending[i].Confidence < minConfidence {
			i++
			continue
		}
		confirmed = append(confirmed, r.ConfirmAt(i))
		// exclusive mode may have removed entries before i
		i = 0
	}
	return confirmed
}

// Done reports whether every candidate has been adjudicated
func (r *Review) Done() bool {
	return len(r.Pending) == 0
}
