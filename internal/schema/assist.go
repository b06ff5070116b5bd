package schema

import (
	"context"
	"log/slog"
)

// AssistedConfidence is assigned to mappings suggested by an Assistant
const AssistedConfidence = 0.5

// Assistant suggests a canonical field for a header the alias pass could not
// place. Returning ok=false means no suggestion.
type Assistant interface {
	SuggestField(ctx context.Context, header string, available []CanonicalField) (FieldName, bool, error)
}

// AutoMapHeadersAssisted runs AutoMapHeaders and then asks the assistant about
// each header left unmapped. Suggestions naming an unknown or already used
// field are ignored, as are assistant errors.
func (s *Schema) AutoMapHeadersAssisted(ctx context.Context, headers []string, assistant Assistant) (HeaderMapping, error) {
	mapping := s.AutoMapHeaders(headers)
	if assistant == nil {
		return mapping, nil
	}

	used := mapping.Used()
	for _, header := range mapping.Unmapped(headers) {
		if err := ctx.Err(); err != nil {
			return mapping, err
		}
		if NormalizeHeader(header) == "" {
			continue
		}
		if _, done := mapping.Fields[header]; done {
			continue
		}

		var available []CanonicalField
		for _, f := range s.Fields() {
			if !used[f.Name] {
				available = append(available, f)
			}
		}
		if len(available) == 0 {
			break
		}

		field, ok, err := assistant.SuggestField(ctx, header, available)
		if err != nil {
			slog.Warn("Header assistant failed", "header", header, "err", err)
			continue
		}
		if !ok {
			continue
		}
		if _, known := s.Field(field); !known || used[field] {
			slog.Debug("Discarding assistant suggestion", "header", header, "field", field)
			continue
		}

		used[field] = true
		mapping.Fields[header] = field
		mapping.Confidence[header] = AssistedConfidence
		slog.Info("Assistant mapped header", "header", header, "field", field)
	}

	return mapping, nil
}

// AutoMapHeadersAssisted runs assisted mapping against DefaultSchema
func AutoMapHeadersAssisted(ctx context.Context, headers []string, assistant Assistant) (HeaderMapping, error) {
	return DefaultSchema.AutoMapHeadersAssisted(ctx, headers, assistant)
}
