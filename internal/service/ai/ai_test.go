package ai

import (
	"context"
	"errors"
	"io"
	"iter"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"google.golang.org/genai"

	"github.com/zhouzirui/manasbridge/backend/internal/model/chat"
	"github.com/zhouzirui/manasbridge/backend/internal/model/persona"
	"github.com/zhouzirui/manasbridge/backend/internal/safety"
)

func drain(t *testing.T, sr *schema.StreamReader[string]) ([]string, error) {
	t.Helper()
	defer sr.Close()

	var out []string
	for {
		chunk, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, chunk)
	}
}

type fakeChatModel struct {
	chunks []*schema.Message
	input  []*schema.Message
	opts   *model.Options
}

func (f *fakeChatModel) Generate(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	return schema.AssistantMessage("unused", nil), nil
}

func (f *fakeChatModel) Stream(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	f.input = input
	f.opts = model.GetCommonOptions(&model.Options{}, opts...)
	return schema.StreamReaderFromArray(f.chunks), nil
}

func TestArkProviderStreamsFragmentsInOrder(t *testing.T) {
	fake := &fakeChatModel{chunks: []*schema.Message{
		schema.AssistantMessage("That ", nil),
		schema.AssistantMessage("", nil),
		schema.AssistantMessage("sounds ", nil),
		schema.AssistantMessage("hard.", nil),
	}}
	provider, err := newArkProviderWithModel(context.Background(), fake)
	require.NoError(t, err)

	sr, err := provider.Stream(context.Background(), Request{
		SystemPrompt: "be kind",
		History:      []Turn{{Role: RoleUser, Text: "hi"}, {Role: RoleAssistant, Text: "hello"}},
		Message:      "rough day",
		Temperature:  0.8,
		TopP:         0.9,
	})
	require.NoError(t, err)

	got, err := drain(t, sr)
	require.NoError(t, err)
	assert.Equal(t, []string{"That ", "sounds ", "hard."}, got)

	require.Len(t, fake.input, 4)
	assert.Equal(t, schema.System, fake.input[0].Role)
	assert.Equal(t, "be kind", fake.input[0].Content)
	assert.Equal(t, schema.User, fake.input[1].Role)
	assert.Equal(t, schema.Assistant, fake.input[2].Role)
	assert.Equal(t, "rough day", fake.input[3].Content)

	require.NotNil(t, fake.opts.Temperature)
	assert.InDelta(t, 0.8, *fake.opts.Temperature, 1e-6)
	require.NotNil(t, fake.opts.TopP)
	assert.InDelta(t, 0.9, *fake.opts.TopP, 1e-6)
}

func TestArkProviderContentFilterIsSafetyStop(t *testing.T) {
	blocked := schema.AssistantMessage("", nil)
	blocked.ResponseMeta = &schema.ResponseMeta{FinishReason: "content_filter"}
	fake := &fakeChatModel{chunks: []*schema.Message{schema.AssistantMessage("Partial", nil), blocked}}

	provider, err := newArkProviderWithModel(context.Background(), fake)
	require.NoError(t, err)

	sr, err := provider.Stream(context.Background(), Request{Message: "x"})
	require.NoError(t, err)

	got, err := drain(t, sr)
	assert.ErrorIs(t, err, ErrSafetyStop)
	assert.Equal(t, []string{"Partial"}, got)
}

type fakeStreamer struct {
	responses []*genai.GenerateContentResponse
	err       error
	contents  []*genai.Content
	config    *genai.GenerateContentConfig
}

func (f *fakeStreamer) GenerateContentStream(_ context.Context, _ string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
	f.contents = contents
	f.config = config
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		for _, resp := range f.responses {
			if !yield(resp, nil) {
				return
			}
		}
		if f.err != nil {
			yield(nil, f.err)
		}
	}
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: genai.NewContentFromText(text, genai.RoleModel),
	}}}
}

func TestGeminiProviderStreams(t *testing.T) {
	defer goleak.VerifyNone(t)

	fake := &fakeStreamer{responses: []*genai.GenerateContentResponse{
		textResponse("One "), textResponse("two "), textResponse("three"),
	}}
	provider := &GeminiProvider{models: fake, model: "gemini-2.5-flash"}

	sr, err := provider.Stream(context.Background(), Request{
		SystemPrompt: "system",
		History:      []Turn{{Role: RoleUser, Text: "a"}, {Role: RoleAssistant, Text: "b"}},
		Message:      "c",
		Temperature:  0.8,
		TopP:         0.9,
	})
	require.NoError(t, err)

	got, err := drain(t, sr)
	require.NoError(t, err)
	assert.Equal(t, "One two three", strings.Join(got, ""))

	require.Len(t, fake.contents, 3)
	roles := []string{string(fake.contents[0].Role), string(fake.contents[1].Role), string(fake.contents[2].Role)}
	if diff := cmp.Diff([]string{"user", "model", "user"}, roles); diff != "" {
		t.Fatalf("roles mismatch (-want +got):\n%s", diff)
	}
	require.NotNil(t, fake.config.SystemInstruction)
	assert.InDelta(t, 0.9, *fake.config.TopP, 1e-6)
}

func TestGeminiProviderSafetyAndErrors(t *testing.T) {
	defer goleak.VerifyNone(t)

	safetyResp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}}}
	provider := &GeminiProvider{models: &fakeStreamer{responses: []*genai.GenerateContentResponse{
		textResponse("Hmm"), safetyResp, textResponse("never"),
	}}}
	sr, err := provider.Stream(context.Background(), Request{Message: "x"})
	require.NoError(t, err)
	got, err := drain(t, sr)
	assert.ErrorIs(t, err, ErrSafetyStop)
	assert.Equal(t, []string{"Hmm"}, got)

	transport := errors.New("connection reset")
	provider = &GeminiProvider{models: &fakeStreamer{responses: []*genai.GenerateContentResponse{textResponse("a")}, err: transport}}
	sr, err = provider.Stream(context.Background(), Request{Message: "x"})
	require.NoError(t, err)
	_, err = drain(t, sr)
	assert.ErrorIs(t, err, transport)
	assert.NotErrorIs(t, err, ErrSafetyStop)
}

func TestGeminiProviderStopsWhenReaderCloses(t *testing.T) {
	defer goleak.VerifyNone(t)

	responses := make([]*genai.GenerateContentResponse, 64)
	for i := range responses {
		responses[i] = textResponse("x")
	}
	provider := &GeminiProvider{models: &fakeStreamer{responses: responses}}

	sr, err := provider.Stream(context.Background(), Request{Message: "x"})
	require.NoError(t, err)
	_, err = sr.Recv()
	require.NoError(t, err)
	sr.Close()
}

func TestBuildSystemPromptCarriesSafetyAndSentinel(t *testing.T) {
	pm := NewPromptManager(persona.NewMemoryStore(persona.Seed()))

	zen := pm.Resolve(persona.Zen)
	assert.Equal(t, persona.Zen, zen.ID)

	prompt := pm.BuildSystemPrompt(zen)
	assert.Contains(t, prompt, "You are Zen Guide")
	assert.Contains(t, prompt, "NOT a doctor or therapist")
	assert.Contains(t, prompt, safety.MoodLogSentinel)

	assert.Equal(t, persona.ManasBridge, pm.Resolve("unknown").ID)
}

func TestBuildHistorySkipsWelcomeMessage(t *testing.T) {
	transcript := []chat.Message{
		{ID: chat.WelcomeMessageID, Sender: chat.SenderAssistant, Text: "Hello!"},
		{ID: "1", Sender: chat.SenderUser, Text: "hi"},
		{ID: "2", Sender: chat.SenderAssistant, Text: "hey there"},
		{ID: "3", Sender: chat.SenderAssistant, Text: ""},
	}

	got := BuildHistory(transcript)
	want := []Turn{{Role: RoleUser, Text: "hi"}, {Role: RoleAssistant, Text: "hey there"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}
}
