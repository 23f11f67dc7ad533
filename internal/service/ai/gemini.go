package ai

import (
	"context"
	"fmt"
	"iter"

	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/zhouzirui/manasbridge/backend/internal/config"
)

const fragmentBuffer = 8

// contentStreamer is the slice of the genai client the provider needs.
type contentStreamer interface {
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

// GeminiProvider streams replies from the Gemini API.
type GeminiProvider struct {
	models contentStreamer
	model  string
}

// NewGeminiProvider creates a Gemini API client.
func NewGeminiProvider(ctx context.Context, cfg config.AIConfig) (*GeminiProvider, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiProvider{models: client.Models, model: cfg.GeminiModel}, nil
}

// Name identifies the provider in logs.
func (p *GeminiProvider) Name() string {
	return string(config.ProviderGemini)
}

// Stream starts GenerateContentStream and pipes text fragments to the returned reader.
func (p *GeminiProvider) Stream(ctx context.Context, req Request) (*schema.StreamReader[string], error) {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, turn := range req.History {
		switch turn.Role {
		case RoleUser:
			contents = append(contents, genai.NewContentFromText(turn.Text, genai.RoleUser))
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(turn.Text, genai.RoleModel))
		}
	}
	contents = append(contents, genai.NewContentFromText(req.Message, genai.RoleUser))

	genCfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
		TopP:        genai.Ptr(float32(req.TopP)),
	}
	if req.SystemPrompt != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.MaxTokens != nil {
		genCfg.MaxOutputTokens = int32(*req.MaxTokens)
	}

	seq := p.models.GenerateContentStream(ctx, p.model, contents, genCfg)

	reader, writer := schema.Pipe[string](fragmentBuffer)
	go pump(seq, writer)
	return reader, nil
}

// pump forwards responses until the sequence ends, a safety stop arrives, or the reader is closed.
func pump(seq iter.Seq2[*genai.GenerateContentResponse, error], writer *schema.StreamWriter[string]) {
	defer writer.Close()

	for resp, err := range seq {
		if err != nil {
			writer.Send("", fmt.Errorf("gemini stream: %w", err))
			return
		}
		if resp == nil {
			continue
		}
		if safetyStopped(resp) {
			writer.Send("", ErrSafetyStop)
			return
		}
		text := resp.Text()
		if text == "" {
			continue
		}
		if closed := writer.Send(text, nil); closed {
			return
		}
	}
}

func safetyStopped(resp *genai.GenerateContentResponse) bool {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return true
	}
	for _, candidate := range resp.Candidates {
		if candidate != nil && candidate.FinishReason == genai.FinishReasonSafety {
			return true
		}
	}
	return false
}
