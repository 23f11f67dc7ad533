package mood

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	analysis "github.com/zhouzirui/manasbridge/backend/internal/analysis/mood"
	"github.com/zhouzirui/manasbridge/backend/internal/model/mood"
	"github.com/zhouzirui/manasbridge/backend/internal/model/resource"
	"github.com/zhouzirui/manasbridge/backend/internal/storage"
)

// ErrInvalidMood is returned when recording a mood outside the known set.
var ErrInvalidMood = errors.New("please select a mood")

// Service owns the newest-first mood history.
type Service struct {
	store  storage.Store
	logger *zap.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewService binds the mood journal to a store.
func NewService(store storage.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		logger: logger.Named("mood"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Record creates an entry and prepends it to the history.
func (s *Service) Record(ctx context.Context, m mood.Mood, note string) (mood.Entry, error) {
	if !m.Valid() {
		return mood.Entry{}, ErrInvalidMood
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.load(ctx)
	if err != nil {
		return mood.Entry{}, err
	}

	entry := mood.Entry{
		ID:   uuid.NewString(),
		Mood: m,
		Note: note,
		Date: s.now(),
	}

	updated := make([]mood.Entry, 0, len(history)+1)
	updated = append(updated, entry)
	updated = append(updated, history...)

	if err := s.store.Set(ctx, storage.KeyMoodHistory, updated); err != nil {
		return mood.Entry{}, fmt.Errorf("save mood history: %w", err)
	}

	s.logger.Info("mood recorded", zap.String("mood", string(m)), zap.Int("total", len(updated)))
	return entry, nil
}

// List returns the newest limit entries; limit <= 0 returns everything.
func (s *Service) List(ctx context.Context, limit int) ([]mood.Entry, error) {
	history, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > len(history) {
		limit = len(history)
	}
	return history[:limit], nil
}

// Count returns the number of check-ins.
func (s *Service) Count(ctx context.Context) (int, error) {
	history, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	return len(history), nil
}

// Chart projects the history onto the valence axis, oldest first. Storage order is left untouched.
func (s *Service) Chart(ctx context.Context) ([]mood.ChartPoint, error) {
	history, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	points := make([]mood.ChartPoint, len(history))
	for i, entry := range history {
		points[len(history)-1-i] = mood.ChartPoint{
			Date:  entry.Date,
			Mood:  entry.Mood,
			Value: entry.Mood.Ordinal(),
		}
	}
	return points, nil
}

// Clear drops the whole history.
func (s *Service) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, storage.KeyMoodHistory); err != nil {
		return fmt.Errorf("clear mood history: %w", err)
	}
	return nil
}

// Suggest guesses the mood expressed in text.
func (s *Service) Suggest(text string) analysis.Suggestion {
	return analysis.Suggest(text)
}

// RandomPrompt picks a journal prompt for the check-in page.
func (s *Service) RandomPrompt() string {
	prompts := resource.JournalPrompts()
	return prompts[rand.IntN(len(prompts))]
}

func (s *Service) load(ctx context.Context) ([]mood.Entry, error) {
	var history []mood.Entry
	if _, err := s.store.Get(ctx, storage.KeyMoodHistory, &history); err != nil {
		return nil, fmt.Errorf("load mood history: %w", err)
	}
	return history, nil
}
