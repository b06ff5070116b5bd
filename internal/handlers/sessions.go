package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/volmerge/internal/matching"
	"github.com/lehigh-university-libraries/volmerge/internal/models"
	"github.com/lehigh-university-libraries/volmerge/internal/records"
)

type createSessionRequest struct {
	DatasetA    []records.Record `json:"dataset_a"`
	DatasetB    []records.Record `json:"dataset_b"`
	Threshold   *float64         `json:"threshold"`
	MaxMatches  *int             `json:"max_matches"`
	Fields      []string         `json:"fields"`
	Exclusive   bool             `json:"exclusive"`
	AutoConfirm *float64         `json:"auto_confirm"`
}

type candidateRequest struct {
	CandidateID string `json:"candidate_id"`
}

type candidateResponse struct {
	Candidate matching.Candidate `json:"candidate"`
	Pending   int                `json:"pending"`
	Confirmed int                `json:"confirmed"`
	Rejected  int                `json:"rejected"`
}

func (h *Handler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.writeJSON(w, h.sessionStore.Summaries())
	case http.MethodPost:
		h.createSession(w, r)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	var request createSessionRequest
	if !h.decodeJSON(w, r, &request) {
		return
	}
	if request.DatasetA == nil || request.DatasetB == nil {
		h.writeError(w, "dataset_a and dataset_b are required", http.StatusBadRequest)
		return
	}

	opts := h.defaults
	if request.Threshold != nil {
		if *request.Threshold < 0 || *request.Threshold > 1 {
			h.writeError(w, "threshold must be between 0 and 1", http.StatusBadRequest)
			return
		}
		opts.Threshold = *request.Threshold
	}
	if request.MaxMatches != nil {
		opts.MaxMatches = *request.MaxMatches
	}
	if len(request.Fields) > 0 {
		opts.Fields = request.Fields
	}

	candidates, err := matching.FindBestMatches(r.Context(), request.DatasetA, request.DatasetB, opts)
	if err != nil {
		h.writeError(w, "Failed to find matches: "+err.Error(), http.StatusServiceUnavailable)
		return
	}

	session := &models.MergeSession{
		ID:       uuid.NewString(),
		DatasetA: request.DatasetA,
		DatasetB: request.DatasetB,
		Options: models.SessionOptions{
			Threshold:  opts.Threshold,
			MaxMatches: opts.MaxMatches,
			Fields:     opts.Fields,
			Exclusive:  request.Exclusive,
		},
		Review:    matching.NewReview(candidates, request.Exclusive),
		CreatedAt: time.Now(),
	}
	if request.AutoConfirm != nil {
		confirmed := session.Review.AutoConfirm(*request.AutoConfirm)
		slog.Info("Auto-confirmed matches", "session_id", session.ID, "count", len(confirmed), "min_confidence", *request.AutoConfirm)
	}

	body, err := marshalSession(session)
	if err != nil {
		h.writeError(w, "Failed to encode session: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.sessionStore.Set(session.ID, session)
	slog.Info("Created merge session",
		"session_id", session.ID,
		"records_a", len(request.DatasetA),
		"records_b", len(request.DatasetB),
		"candidates", len(candidates))

	h.writeBody(w, http.StatusCreated, body)
}

func (h *Handler) HandleSessionDetail(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/sessions/"), "/")
	sessionID, action, _ := strings.Cut(rest, "/")
	if sessionID == "" {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return
	}

	switch action {
	case "":
		h.handleSession(w, r, sessionID)
	case "confirm", "reject":
		if r.Method != http.MethodPost {
			h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.reviewCandidate(w, r, sessionID, action)
	case "merge":
		if r.Method != http.MethodPost {
			h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.mergeSession(w, sessionID)
	default:
		h.writeError(w, "Not found", http.StatusNotFound)
	}
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	switch r.Method {
	case http.MethodGet:
		var body []byte
		var err error
		found := h.sessionStore.View(sessionID, func(s *models.MergeSession) {
			body, err = marshalSession(s)
		})
		if !found {
			h.writeError(w, "Session not found", http.StatusNotFound)
			return
		}
		if err != nil {
			h.writeError(w, "Failed to encode session: "+err.Error(), http.StatusInternalServerError)
			return
		}
		h.writeBody(w, http.StatusOK, body)
	case http.MethodDelete:
		if !h.sessionStore.Delete(sessionID) {
			h.writeError(w, "Session not found", http.StatusNotFound)
			return
		}
		slog.Info("Deleted merge session", "session_id", sessionID)
		w.WriteHeader(http.StatusNoContent)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) reviewCandidate(w http.ResponseWriter, r *http.Request, sessionID, action string) {
	var request candidateRequest
	if !h.decodeJSON(w, r, &request) {
		return
	}
	if request.CandidateID == "" {
		h.writeError(w, "candidate_id is required", http.StatusBadRequest)
		return
	}

	var response candidateResponse
	found, err := h.sessionStore.Update(sessionID, func(s *models.MergeSession) error {
		var c matching.Candidate
		var err error
		if action == "confirm" {
			c, err = s.Review.Confirm(request.CandidateID)
		} else {
			c, err = s.Review.Reject(request.CandidateID)
		}
		if err != nil {
			return err
		}
		response = candidateResponse{
			Candidate: c,
			Pending:   len(s.Review.Pending),
			Confirmed: len(s.Review.Confirmed),
			Rejected:  s.Review.Rejected,
		}
		return nil
	})
	if !found {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.writeReviewError(w, err)
		return
	}

	slog.Info("Reviewed candidate", "session_id", sessionID, "candidate_id", request.CandidateID, "action", action)
	h.writeJSON(w, response)
}

func (h *Handler) mergeSession(w http.ResponseWriter, sessionID string) {
	var result matching.MergeResult
	found := h.sessionStore.View(sessionID, func(s *models.MergeSession) {
		result = matching.ExecuteMerge(s.Review.Confirmed, s.DatasetA, s.DatasetB)
	})
	if !found {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, result)
}

// marshalSession encodes a session; callers hold the store lock so the
// review lists cannot change mid-encode.
func marshalSession(s *models.MergeSession) ([]byte, error) {
	return json.Marshal(s)
}
