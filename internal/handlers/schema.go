package handlers

import (
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/volmerge/internal/schema"
)

type schemaResponse struct {
	Fields   []schema.CanonicalField `json:"fields"`
	Required []schema.FieldName      `json:"required"`
}

func (h *Handler) HandleSchema(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.writeJSON(w, schemaResponse{
		Fields:   h.schema.Fields(),
		Required: h.schema.Required(),
	})
}

type mapHeadersRequest struct {
	Headers []string `json:"headers"`
	Assist  string   `json:"assist"`
	Model   string   `json:"model"`
}

type mapHeadersResponse struct {
	Mapping    map[string]schema.FieldName `json:"mapping"`
	Confidence map[string]float64          `json:"confidence"`
	Unmapped   []string                    `json:"unmapped"`
	Validation schema.Validation           `json:"validation"`
}

func (h *Handler) HandleMapHeaders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request mapHeadersRequest
	if !h.decodeJSON(w, r, &request) {
		return
	}
	if request.Headers == nil {
		h.writeError(w, "headers is required", http.StatusBadRequest)
		return
	}

	mapping := h.schema.AutoMapHeaders(request.Headers)
	if provider := strings.TrimSpace(request.Assist); provider != "" {
		assistant, err := h.newAssistant(provider, request.Model)
		if err != nil {
			h.writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		mapping, err = h.schema.AutoMapHeadersAssisted(r.Context(), request.Headers, assistant)
		if err != nil {
			h.writeError(w, "Header mapping cancelled: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
	}

	unmapped := mapping.Unmapped(request.Headers)
	if unmapped == nil {
		unmapped = []string{}
	}
	h.writeJSON(w, mapHeadersResponse{
		Mapping:    mapping.Fields,
		Confidence: mapping.Confidence,
		Unmapped:   unmapped,
		Validation: h.schema.ValidateMapping(mapping.Fields),
	})
}
