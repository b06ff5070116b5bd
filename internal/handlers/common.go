package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/volmerge/internal/assist"
	"github.com/lehigh-university-libraries/volmerge/internal/matching"
	"github.com/lehigh-university-libraries/volmerge/internal/schema"
	"github.com/lehigh-university-libraries/volmerge/internal/storage"
)

// request bodies carry whole datasets
const maxBodyBytes = 32 << 20

type Handler struct {
	sessionStore *storage.SessionStore
	schema       *schema.Schema
	defaults     matching.Options
	newAssistant func(provider, model string) (schema.Assistant, error)
}

// New returns a handler that creates sessions with the given default options
func New(defaults matching.Options) *Handler {
	return &Handler{
		sessionStore: storage.New(),
		schema:       schema.DefaultSchema,
		defaults:     defaults,
		newAssistant: func(provider, model string) (schema.Assistant, error) {
			a, err := assist.New(provider, model)
			if err != nil {
				return nil, err
			}
			return a, nil
		},
	}
}

// Routes registers the API on a new mux
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/schema", h.HandleSchema)
	mux.HandleFunc("/api/headers/map", h.HandleMapHeaders)
	mux.HandleFunc("/api/sessions", h.HandleSessions)
	mux.HandleFunc("/api/sessions/", h.HandleSessionDetail)
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
	return mux
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data any) {
	h.writeJSONStatus(w, http.StatusOK, data)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, code int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.writeBody(w, code, body)
}

func (h *Handler) writeBody(w http.ResponseWriter, code int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(append(body, '\n')); err != nil {
		slog.Error("Unable to write JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message)
	} else {
		slog.Warn(message, "status", code)
	}
	http.Error(w, message, code)
}

// writeReviewError maps review errors onto status codes
func (h *Handler) writeReviewError(w http.ResponseWriter, err error) {
	if errors.Is(err, matching.ErrCandidateNotFound) {
		h.writeError(w, err.Error(), http.StatusNotFound)
		return
	}
	h.writeError(w, err.Error(), http.StatusInternalServerError)
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, fmt.Sprintf("Request body too large (max %d bytes)", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return false
		}
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}
