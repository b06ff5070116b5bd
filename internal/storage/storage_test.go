package storage

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/volmerge/internal/matching"
	"github.com/lehigh-university-libraries/volmerge/internal/models"
)

func newSession(id string, created time.Time, pending int) *models.MergeSession {
	candidates := make([]matching.Candidate, pending)
	for i := range candidates {
		candidates[i] = matching.Candidate{ID: fmt.Sprintf("%s-%d", id, i), IndexA: i, IndexB: i, Confidence: 0.9}
	}
	return &models.MergeSession{
		ID:        id,
		Review:    matching.NewReview(candidates, false),
		CreatedAt: created,
	}
}

func TestSessionStore(t *testing.T) {
	store := New()
	now := time.Now()
	store.Set("b", newSession("b", now, 1))
	store.Set("a", newSession("a", now.Add(-time.Minute), 2))

	if store.View("missing", func(*models.MergeSession) {}) {
		t.Error("View found a missing session")
	}
	var id string
	if !store.View("a", func(s *models.MergeSession) { id = s.ID }) || id != "a" {
		t.Fatalf("View(a) saw %q", id)
	}

	summaries := store.Summaries()
	if len(summaries) != 2 || summaries[0].ID != "a" || summaries[1].ID != "b" {
		t.Errorf("summaries = %+v", summaries)
	}
	if summaries[0].Pending != 2 {
		t.Errorf("pending = %d", summaries[0].Pending)
	}

	if !store.Delete("a") {
		t.Error("Delete(a) = false")
	}
	if store.Delete("a") {
		t.Error("second Delete(a) = true")
	}
}

func TestSessionStore_Update(t *testing.T) {
	store := New()
	store.Set("s", newSession("s", time.Now(), 1))

	found, err := store.Update("s", func(s *models.MergeSession) error {
		_, err := s.Review.Confirm("s-0")
		return err
	})
	if !found || err != nil {
		t.Fatalf("Update = %v, %v", found, err)
	}

	found, err = store.Update("s", func(s *models.MergeSession) error {
		_, err := s.Review.Confirm("s-0")
		return err
	})
	if !found || !errors.Is(err, matching.ErrCandidateNotFound) {
		t.Errorf("second confirm = %v, %v", found, err)
	}

	if found, _ := store.Update("missing", func(*models.MergeSession) error { return nil }); found {
		t.Error("Update found a missing session")
	}
}

func TestSessionStore_ConcurrentConfirm(t *testing.T) {
	const n = 50
	store := New()
	store.Set("s", newSession("s", time.Now(), n))

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = store.Update("s", func(s *models.MergeSession) error {
				_, err := s.Review.Confirm(fmt.Sprintf("s-%d", i))
				return err
			})
		}(i)
	}
	wg.Wait()

	store.View("s", func(s *models.MergeSession) {
		if len(s.Review.Confirmed) != n || len(s.Review.Pending) != 0 {
			t.Errorf("confirmed = %d, pending = %d", len(s.Review.Confirmed), len(s.Review.Pending))
		}
	})
}
