package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/zhouzirui/manasbridge/backend/internal/model/chat"
	"github.com/zhouzirui/manasbridge/backend/internal/model/persona"
)

// Sampling carries the generation parameters sent with every request.
type Sampling struct {
	Temperature float64
	TopP        float64
	MaxTokens   *int
}

// Service encapsulates AI-powered chat functionality.
type Service struct {
	provider Provider
	prompts  *PromptManager
	sampling Sampling
	logger   *zap.Logger
}

// NewService wraps a provider with persona prompts and sampling parameters.
func NewService(provider Provider, personas persona.Store, sampling Sampling, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		provider: provider,
		prompts:  NewPromptManager(personas),
		sampling: sampling,
		logger:   logger.Named("ai"),
	}
}

// Prompts exposes the prompt manager.
func (s *Service) Prompts() *PromptManager {
	return s.prompts
}

// StreamResponse streams a reply to userMessage in the voice of personaID, with transcript as context.
func (s *Service) StreamResponse(ctx context.Context, personaID persona.ID, transcript []chat.Message, userMessage string) (*schema.StreamReader[string], error) {
	p := s.prompts.Resolve(personaID)
	req := Request{
		SystemPrompt: s.prompts.BuildSystemPrompt(p),
		History:      BuildHistory(transcript),
		Message:      userMessage,
		Temperature:  s.sampling.Temperature,
		TopP:         s.sampling.TopP,
		MaxTokens:    s.sampling.MaxTokens,
	}

	stream, err := s.provider.Stream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s stream: %w", s.provider.Name(), err)
	}

	s.logger.Debug("stream opened",
		zap.String("provider", s.provider.Name()),
		zap.String("persona", string(p.ID)),
		zap.Int("history", len(req.History)))
	return stream, nil
}

// BuildHistory converts the transcript into role-tagged turns, skipping the welcome message and empty turns.
func BuildHistory(transcript []chat.Message) []Turn {
	if len(transcript) == 0 {
		return nil
	}

	history := make([]Turn, 0, len(transcript))
	for _, msg := range transcript {
		if msg.ID == chat.WelcomeMessageID || msg.Text == "" {
			continue
		}
		switch msg.Sender {
		case chat.SenderUser:
			history = append(history, Turn{Role: RoleUser, Text: msg.Text})
		case chat.SenderAssistant:
			history = append(history, Turn{Role: RoleAssistant, Text: msg.Text})
		}
	}
	return history
}
