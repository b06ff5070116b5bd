package schema

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	// ExactConfidence is assigned when a header equals a known alias after normalization
	ExactConfidence = 1.0
	// SubstringConfidence is assigned when a header and an alias contain one another
	SubstringConfidence = 0.7
)

var (
	nonAlnum   = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespace = regexp.MustCompile(`\s+`)
)

// HeaderMapping maps raw header strings to canonical fields, with a
// confidence per mapped header. Unmapped headers are absent from both maps.
type HeaderMapping struct {
	Fields     map[string]FieldName `json:"mapping" yaml:"mapping"`
	Confidence map[string]float64   `json:"confidence" yaml:"confidence"`
}

// Validation reports how well a mapping covers the schema
type Validation struct {
	IsValid         bool        `json:"is_valid" yaml:"is_valid"`
	MissingRequired []FieldName `json:"missing_required" yaml:"missing_required"`
	Coverage        float64     `json:"coverage" yaml:"coverage"`
}

// NormalizeHeader lower-cases a header, replaces anything outside [a-z0-9\s]
// with a space, collapses whitespace and joins the words with underscores.
func NormalizeHeader(header string) string {
	s := strings.ToLower(header)
	s = nonAlnum.ReplaceAllString(s, " ")
	s = whitespace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	return strings.ReplaceAll(s, " ", "_")
}

// FindBestMatch returns the canonical field a header most likely refers to,
// skipping fields already in used. Exact alias matches win over substring
// matches; within a pass the first field in declaration order wins.
func (s *Schema) FindBestMatch(header string, used map[FieldName]bool) (FieldName, bool) {
	field, _, ok := s.findBestMatch(header, used)
	return field, ok
}

func (s *Schema) findBestMatch(header string, used map[FieldName]bool) (FieldName, bool, bool) {
	normalized := NormalizeHeader(header)
	if normalized == "" {
		return "", false, false
	}

	for _, f := range s.fields {
		if used[f.Name] {
			continue
		}
		for _, alias := range f.Aliases {
			if NormalizeHeader(alias) == normalized {
				return f.Name, true, true
			}
		}
	}

	for _, f := range s.fields {
		if used[f.Name] {
			continue
		}
		for _, alias := range f.Aliases {
			a := NormalizeHeader(alias)
			if a == "" {
				continue
			}
			if strings.Contains(normalized, a) || strings.Contains(a, normalized) {
				return f.Name, false, true
			}
		}
	}

	return "", false, false
}

// AutoMapHeaders assigns canonical fields to headers. Longer headers are
// processed first so specific headers claim fields before generic ones;
// each field is assigned at most once.
func (s *Schema) AutoMapHeaders(headers []string) HeaderMapping {
	mapping := HeaderMapping{
		Fields:     make(map[string]FieldName),
		Confidence: make(map[string]float64),
	}

	ordered := append([]string(nil), headers...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return utf8.RuneCountInString(ordered[i]) > utf8.RuneCountInString(ordered[j])
	})

	used := make(map[FieldName]bool)
	for _, header := range ordered {
		if _, seen := mapping.Fields[header]; seen {
			continue
		}
		field, exact, ok := s.findBestMatch(header, used)
		if !ok {
			slog.Debug("No canonical field for header", "header", header)
			continue
		}
		used[field] = true
		mapping.Fields[header] = field
		if exact {
			mapping.Confidence[header] = ExactConfidence
		} else {
			mapping.Confidence[header] = SubstringConfidence
		}
		slog.Debug("Mapped header", "header", header, "field", field, "confidence", mapping.Confidence[header])
	}

	return mapping
}

// ValidateMapping checks that every required field is covered by the mapping
func (s *Schema) ValidateMapping(fields map[string]FieldName) Validation {
	covered := make(map[FieldName]bool)
	for _, f := range fields {
		if _, ok := s.Field(f); ok {
			covered[f] = true
		}
	}

	v := Validation{MissingRequired: []FieldName{}}
	for _, name := range s.Required() {
		if !covered[name] {
			v.MissingRequired = append(v.MissingRequired, name)
		}
	}
	v.IsValid = len(v.MissingRequired) == 0
	if s.Len() > 0 {
		v.Coverage = float64(len(covered)) / float64(s.Len())
	}
	return v
}

// Unmapped returns the headers that have no canonical field, in input order
func (m HeaderMapping) Unmapped(headers []string) []string {
	var out []string
	for _, h := range headers {
		if _, ok := m.Fields[h]; !ok {
			out = append(out, h)
		}
	}
	return out
}

// Used returns the set of canonical fields already claimed by the mapping
func (m HeaderMapping) Used() map[FieldName]bool {
	used := make(map[FieldName]bool, len(m.Fields))
	for _, f := range m.Fields {
		used[f] = true
	}
	return used
}

// Package-level helpers operate on DefaultSchema.

func FindBestMatch(header string, used map[FieldName]bool) (FieldName, bool) {
	return DefaultSchema.FindBestMatch(header, used)
}

func AutoMapHeaders(headers []string) HeaderMapping {
	return DefaultSchema.AutoMapHeaders(headers)
}

func ValidateMapping(fields map[string]FieldName) Validation {
	return DefaultSchema.ValidateMapping(fields)
}
