package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/manasbridge/backend/internal/config"
)

// finishReasonContentFilter is what Ark reports when its moderation stops a reply.
const finishReasonContentFilter = "content_filter"

// ArkProvider streams replies from a Volcengine Ark model through an eino chain.
type ArkProvider struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewArkProvider creates the chat model from cfg and compiles the prompt chain.
func NewArkProvider(ctx context.Context, cfg config.AIConfig) (*ArkProvider, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return newArkProviderWithModel(ctx, chatModel)
}

func newArkProviderWithModel(ctx context.Context, chatModel model.BaseChatModel) (*ArkProvider, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &ArkProvider{chain: runnable}, nil
}

// Name identifies the provider in logs.
func (p *ArkProvider) Name() string {
	return string(config.ProviderArk)
}

// Stream runs the chain in streaming mode and converts message chunks into text fragments.
func (p *ArkProvider) Stream(ctx context.Context, req Request) (*schema.StreamReader[string], error) {
	opts := []model.Option{
		model.WithTemperature(float32(req.Temperature)),
		model.WithTopP(float32(req.TopP)),
	}
	if req.MaxTokens != nil {
		opts = append(opts, model.WithMaxTokens(*req.MaxTokens))
	}

	stream, err := p.chain.Stream(ctx, buildChainInput(req), compose.WithChatModelOption(opts...))
	if err != nil {
		return nil, fmt.Errorf("failed to stream AI chain output: %w", err)
	}

	return schema.StreamReaderWithConvert(stream, convertChunk), nil
}

func convertChunk(chunk *schema.Message) (string, error) {
	if chunk == nil {
		return "", schema.ErrNoValue
	}
	if chunk.ResponseMeta != nil && chunk.ResponseMeta.FinishReason == finishReasonContentFilter {
		return "", ErrSafetyStop
	}
	if chunk.Content == "" {
		return "", schema.ErrNoValue
	}
	return chunk.Content, nil
}

func buildChainInput(req Request) map[string]any {
	return map[string]any{
		"system":  req.SystemPrompt,
		"history": buildHistoryMessages(req.History),
		"query":   req.Message,
	}
}

func buildHistoryMessages(turns []Turn) []*schema.Message {
	if len(turns) == 0 {
		return nil
	}

	history := make([]*schema.Message, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case RoleUser:
			history = append(history, schema.UserMessage(turn.Text))
		case RoleAssistant:
			history = append(history, schema.AssistantMessage(turn.Text, nil))
		}
	}
	return history
}
