package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/manasbridge/backend/internal/config"
)

// ErrSafetyStop is returned by a reply stream when the provider halts generation on a safety policy.
var ErrSafetyStop = errors.New("provider stopped generation for safety")

// Role tags a prior turn for the provider.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one prior message sent as context.
type Turn struct {
	Role Role
	Text string
}

// Request is everything a provider needs to generate one reply.
type Request struct {
	SystemPrompt string
	History      []Turn
	Message      string
	Temperature  float64
	TopP         float64
	MaxTokens    *int
}

// Provider streams a reply from a hosted model.
//
// The returned reader yields text fragments in arrival order. Recv returns io.EOF on natural
// completion, ErrSafetyStop on a safety stop, and any other error on transport failure.
// Closing the reader cancels the request.
type Provider interface {
	Name() string
	Stream(ctx context.Context, req Request) (*schema.StreamReader[string], error)
}

// NewProvider builds the provider selected in cfg.
func NewProvider(ctx context.Context, cfg config.AIConfig) (Provider, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("%s provider is not configured", cfg.Provider)
	}

	switch cfg.Provider {
	case config.ProviderArk:
		return NewArkProvider(ctx, cfg)
	case config.ProviderGemini:
		return NewGeminiProvider(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
}
