package assist

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/lehigh-university-libraries/volmerge/internal/gemini"
	"github.com/lehigh-university-libraries/volmerge/internal/ollama"
	"github.com/lehigh-university-libraries/volmerge/internal/openai"
	"github.com/lehigh-university-libraries/volmerge/internal/providers"
	"github.com/lehigh-university-libraries/volmerge/internal/schema"
)

// Assistant asks an LLM which canonical field an unrecognised header holds.
// It implements schema.Assistant.
type Assistant struct {
	provider providers.Provider
	name     string
	model    string
}

// New returns an assistant for the named provider (gemini, openai or
// ollama). An empty provider falls back to ASSIST_PROVIDER, then gemini; an
// empty model falls back to the provider's default model.
func New(provider, model string) (*Assistant, error) {
	if provider == "" {
		provider = os.Getenv("ASSIST_PROVIDER")
		if provider == "" {
			provider = "gemini"
		}
	}

	var p providers.Provider
	switch provider {
	case "gemini":
		p = gemini.New()
	case "openai":
		p = openai.New()
	case "ollama":
		p = ollama.New()
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}

	if model == "" {
		model = DefaultModel(provider)
	}
	return NewWithProvider(provider, p, model), nil
}

// NewWithProvider wraps an existing provider
func NewWithProvider(name string, p providers.Provider, model string) *Assistant {
	return &Assistant{provider: p, name: name, model: model}
}

// DefaultModel returns the model used for a provider when none is given
func DefaultModel(provider string) string {
	switch provider {
	case "openai":
		if model := os.Getenv("OPENAI_MODEL"); model != "" {
			return model
		}
		return "gpt-4o-mini"
	case "ollama":
		if model := os.Getenv("OLLAMA_MODEL"); model != "" {
			return model
		}
		return "mistral-small3.2:24b"
	case "gemini":
		if model := os.Getenv("GEMINI_MODEL"); model != "" {
			return model
		}
		return "gemini-2.5-flash"
	default:
		return ""
	}
}

// SuggestField asks the provider to pick one of the available fields
func (a *Assistant) SuggestField(ctx context.Context, header string, available []schema.CanonicalField) (schema.FieldName, bool, error) {
	prompt := buildPrompt(header, available)

	answer, err := a.provider.Generate(ctx, providers.Config{
		Model:       a.model,
		Temperature: 0,
		Prompt:      prompt,
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to get suggestion from %s: %w", a.name, err)
	}

	field, ok := parseSuggestion(answer, available)
	slog.Debug("Header suggestion", "provider", a.name, "model", a.model, "header", header, "answer", answer, "field", field, "ok", ok)
	return field, ok, nil
}

func buildPrompt(header string, available []schema.CanonicalField) string {
	var sb strings.Builder
	sb.WriteString("You map spreadsheet column headers from volunteer activity exports onto a fixed schema.\n\n")
	sb.WriteString("Schema fields:\n")
	for _, f := range available {
		fmt.Fprintf(&sb, "- %s (%s", f.Name, f.Type)
		if f.Required {
			sb.WriteString(", required")
		}
		sb.WriteString(")")
		if len(f.Aliases) > 0 {
			fmt.Fprintf(&sb, ": e.g. %s", strings.Join(f.Aliases, ", "))
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "\nColumn header: %q\n\n", header)
	sb.WriteString("Answer with exactly one field name from the list, or NONE if the column fits none of them. Do not explain.")
	return sb.String()
}

// parseSuggestion reads the first line of the answer as a field name
func parseSuggestion(answer string, available []schema.CanonicalField) (schema.FieldName, bool) {
	line, _, _ := strings.Cut(strings.TrimSpace(answer), "\n")
	line = strings.Trim(strings.TrimSpace(line), "`\"'.*")
	line = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(line), " ", "_"))
	if line == "" || line == "none" {
		return "", false
	}

	for _, f := range available {
		if string(f.Name) == line {
			return f.Name, true
		}
	}
	return "", false
}
