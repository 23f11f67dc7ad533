package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"go.uber.org/zap"

	analysis "github.com/zhouzirui/manasbridge/backend/internal/analysis/mood"
	"github.com/zhouzirui/manasbridge/backend/internal/model/chat"
	"github.com/zhouzirui/manasbridge/backend/internal/model/mood"
	"github.com/zhouzirui/manasbridge/backend/internal/model/persona"
	"github.com/zhouzirui/manasbridge/backend/internal/model/resource"
	"github.com/zhouzirui/manasbridge/backend/internal/safety"
	"github.com/zhouzirui/manasbridge/backend/internal/service/ai"
	"github.com/zhouzirui/manasbridge/backend/internal/storage"
)

var (
	ErrEmptyMessage  = errors.New("message is empty")
	ErrReplyInFlight = errors.New("a reply is already in progress")
)

const (
	WelcomeText = "Hello! I'm ManasBridge, your personal wellness assistant. I'm here to listen and support you. How are you feeling today?\n\n---\nImportant: I am an AI assistant and not a substitute for professional medical advice. If you are in crisis, please seek help from a professional immediately."

	SafetyRedirectText = "I am unable to continue this conversation as it may be venturing into sensitive topics. My purpose is to provide support, and in this case, the best support I can offer is to guide you to our Resources page or the 'Find Help' section for professional assistance."

	ApologyText = "I'm sorry, something went wrong. Please try again."

	noNote = "No specific note."
)

// Streamer opens a model reply stream.
type Streamer interface {
	StreamResponse(ctx context.Context, personaID persona.ID, transcript []chat.Message, userMessage string) (*schema.StreamReader[string], error)
}

// PersonaSource reports the persona selected by the user.
type PersonaSource interface {
	Persona(ctx context.Context) (persona.ID, error)
}

// MoodRecorder stores a mood check-in.
type MoodRecorder interface {
	Record(ctx context.Context, m mood.Mood, note string) (mood.Entry, error)
}

// Observer receives the stored user message once, then the assistant message after every change.
type Observer func(chat.Message)

// Service orchestrates chat turns over the persisted transcript.
type Service struct {
	store    storage.Store
	ai       Streamer
	personas PersonaSource
	moods    MoodRecorder
	logger   *zap.Logger
	now      func() time.Time

	// inflight gates one outbound request at a time.
	inflight  sync.Mutex
	streaming atomic.Bool
	// mu guards transcript read-modify-write.
	mu sync.Mutex
}

// NewService wires the chat service. A nil streamer makes every turn fail with the apology.
func NewService(store storage.Store, streamer Streamer, personas PersonaSource, moods MoodRecorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		ai:       streamer,
		personas: personas,
		moods:    moods,
		logger:   logger.Named("chat"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Busy reports whether a reply is being generated.
func (s *Service) Busy() bool {
	return s.streaming.Load()
}

// History loads the transcript. A trailing empty assistant message left by an interrupted turn
// is dropped, and an empty transcript is seeded with the welcome message.
func (s *Service) History(ctx context.Context) ([]chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history(ctx)
}

func (s *Service) history(ctx context.Context) ([]chat.Message, error) {
	transcript, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	dirty := false
	if n := len(transcript); n > 0 && !s.streaming.Load() {
		last := transcript[n-1]
		if last.Sender == chat.SenderAssistant && last.Text == "" {
			transcript = transcript[:n-1]
			dirty = true
		}
	}
	if len(transcript) == 0 {
		transcript = []chat.Message{s.welcome()}
		dirty = true
	}

	if dirty {
		if err := s.save(ctx, transcript); err != nil {
			return nil, err
		}
	}
	return transcript, nil
}

// Persona resolves the stored persona selection. Callers resolve it once when a chat
// session starts and pass it to every Send of that session.
func (s *Service) Persona(ctx context.Context) (persona.ID, error) {
	if s.personas == nil {
		return persona.DefaultID, nil
	}
	id, err := s.personas.Persona(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve persona: %w", err)
	}
	return id, nil
}

// Send submits one user message and streams the reply under personaID. Crisis language
// short-circuits with the emergency contacts and nothing is stored. Provider failures are
// folded into the reply outcome; the returned error covers input rejection and storage only.
func (s *Service) Send(ctx context.Context, personaID persona.ID, text string, observe Observer) (chat.Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return chat.Reply{}, ErrEmptyMessage
	}
	if !s.inflight.TryLock() {
		return chat.Reply{}, ErrReplyInFlight
	}
	defer s.inflight.Unlock()

	if safety.ContainsCrisisLanguage(text) {
		s.logger.Warn("crisis language detected, reply suppressed")
		return chat.Reply{Outcome: chat.OutcomeCrisis, Contacts: resource.EmergencyContacts()}, nil
	}
	if observe == nil {
		observe = func(chat.Message) {}
	}

	if personaID == "" {
		personaID = persona.DefaultID
	}

	userMsg := chat.Message{ID: uuid.NewString(), Sender: chat.SenderUser, Text: text, Timestamp: s.now()}
	reply := chat.Message{ID: uuid.NewString(), Sender: chat.SenderAssistant, Timestamp: s.now()}

	prior, err := s.begin(ctx, userMsg, reply)
	if err != nil {
		return chat.Reply{}, err
	}
	defer s.streaming.Store(false)
	observe(userMsg)

	outcome := s.stream(ctx, personaID, prior, text, &reply, observe)
	if outcome == chat.OutcomeCompleted {
		if stripped, _ := safety.StripMoodLogSentinel(reply.Text); strings.TrimSpace(stripped) == "" {
			// An empty reply would read as an interrupted turn on the next load.
			s.logger.Warn("provider finished without any reply text")
			outcome = chat.OutcomeErrored
		}
	}

	switch outcome {
	case chat.OutcomeSafetyStopped:
		reply.Text = SafetyRedirectText
	case chat.OutcomeErrored:
		reply.Text = ApologyText
	case chat.OutcomeCompleted:
		if stripped, offered := safety.StripMoodLogSentinel(reply.Text); offered {
			reply.Text = stripped
			reply.Component = chat.ComponentMoodLog
			reply.MoodLogCompleted = false
			if suggestion := analysis.Suggest(text); suggestion.Score > 0 {
				reply.SuggestedMood = suggestion.Mood
			}
		}
	}

	if err := s.update(ctx, reply); err != nil {
		return chat.Reply{}, err
	}
	observe(reply)

	s.logger.Info("chat turn finished",
		zap.String("outcome", string(outcome)),
		zap.String("persona", string(personaID)),
		zap.Int("chars", len(reply.Text)))

	return chat.Reply{Outcome: outcome, User: &userMsg, Assistant: &reply}, nil
}

// begin appends the user message and the empty reply, returning the transcript before the turn.
func (s *Service) begin(ctx context.Context, userMsg, reply chat.Message) ([]chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prior, err := s.history(ctx)
	if err != nil {
		return nil, err
	}

	transcript := make([]chat.Message, 0, len(prior)+2)
	transcript = append(transcript, prior...)
	transcript = append(transcript, userMsg, reply)

	s.streaming.Store(true)
	if err := s.save(ctx, transcript); err != nil {
		s.streaming.Store(false)
		return nil, err
	}
	return prior, nil
}

func (s *Service) stream(ctx context.Context, personaID persona.ID, prior []chat.Message, userText string, reply *chat.Message, observe Observer) chat.Outcome {
	if s.ai == nil {
		s.logger.Warn("no AI provider configured")
		return chat.OutcomeErrored
	}

	reader, err := s.ai.StreamResponse(ctx, personaID, prior, userText)
	if err != nil {
		s.logger.Error("open reply stream", zap.Error(err))
		return chat.OutcomeErrored
	}
	defer reader.Close()

	for {
		chunk, err := reader.Recv()
		if errors.Is(err, io.EOF) {
			return chat.OutcomeCompleted
		}
		if errors.Is(err, ai.ErrSafetyStop) {
			s.logger.Warn("reply stopped by provider safety policy")
			return chat.OutcomeSafetyStopped
		}
		if err != nil {
			s.logger.Error("reply stream failed", zap.Error(err))
			return chat.OutcomeErrored
		}
		if chunk == "" {
			continue
		}

		reply.Text += chunk
		if err := s.update(ctx, *reply); err != nil {
			s.logger.Warn("persist partial reply", zap.Error(err))
		}
		observe(*reply)
	}
}

// CompleteMoodLog records m from the inline check-in, noting the latest user message, and
// marks every mood-log offer in the transcript as completed.
func (s *Service) CompleteMoodLog(ctx context.Context, m mood.Mood) (mood.Entry, error) {
	if s.moods == nil {
		return mood.Entry{}, errors.New("mood recorder not configured")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	transcript, err := s.load(ctx)
	if err != nil {
		return mood.Entry{}, err
	}

	lastUser := noNote
	for i := len(transcript) - 1; i >= 0; i-- {
		if transcript[i].Sender == chat.SenderUser && transcript[i].Text != "" {
			lastUser = transcript[i].Text
			break
		}
	}

	entry, err := s.moods.Record(ctx, m, `From chat: "`+lastUser+`"`)
	if err != nil {
		return mood.Entry{}, err
	}

	changed := false
	for i := range transcript {
		if transcript[i].OffersMoodLog() && !transcript[i].MoodLogCompleted {
			transcript[i].MoodLogCompleted = true
			changed = true
		}
	}
	if changed {
		if err := s.save(ctx, transcript); err != nil {
			return mood.Entry{}, err
		}
	}
	return entry, nil
}

// Clear removes the transcript.
func (s *Service) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, storage.KeyChatHistory); err != nil {
		return fmt.Errorf("clear chat history: %w", err)
	}
	return nil
}

// update replaces the stored message with the same id. A message missing from storage
// (the transcript was cleared mid-turn) is not re-added.
func (s *Service) update(ctx context.Context, msg chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	transcript, err := s.load(ctx)
	if err != nil {
		return err
	}
	for i := range transcript {
		if transcript[i].ID == msg.ID {
			transcript[i] = msg
			return s.save(ctx, transcript)
		}
	}
	return nil
}

func (s *Service) welcome() chat.Message {
	return chat.Message{
		ID:        chat.WelcomeMessageID,
		Sender:    chat.SenderAssistant,
		Text:      WelcomeText,
		Timestamp: s.now(),
	}
}

func (s *Service) load(ctx context.Context) ([]chat.Message, error) {
	var transcript []chat.Message
	if _, err := s.store.Get(ctx, storage.KeyChatHistory, &transcript); err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}
	return transcript, nil
}

func (s *Service) save(ctx context.Context, transcript []chat.Message) error {
	if err := s.store.Set(ctx, storage.KeyChatHistory, transcript); err != nil {
		return fmt.Errorf("save chat history: %w", err)
	}
	return nil
}
