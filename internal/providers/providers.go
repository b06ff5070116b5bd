package providers

import (
	"context"
)

// Config is one prompt sent to an LLM provider
type Config struct {
	Model       string
	Temperature float64
	Prompt      string
}

// Provider generates a text completion for a prompt
type Provider interface {
	Generate(ctx context.Context, config Config) (string, error)
}
