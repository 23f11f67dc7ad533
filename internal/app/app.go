// Package app assembles storage and services from configuration for the server and the CLI.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/zhouzirui/manasbridge/backend/internal/config"
	"github.com/zhouzirui/manasbridge/backend/internal/model/persona"
	"github.com/zhouzirui/manasbridge/backend/internal/service/account"
	"github.com/zhouzirui/manasbridge/backend/internal/service/ai"
	"github.com/zhouzirui/manasbridge/backend/internal/service/chat"
	"github.com/zhouzirui/manasbridge/backend/internal/service/mood"
	"github.com/zhouzirui/manasbridge/backend/internal/service/settings"
	"github.com/zhouzirui/manasbridge/backend/internal/storage"
	"github.com/zhouzirui/manasbridge/backend/internal/storage/bolt"
	"github.com/zhouzirui/manasbridge/backend/internal/storage/memory"
)

// App holds every wired service.
type App struct {
	Store    storage.Store
	Personas persona.Store
	AI       *ai.Service
	Chat     *chat.Service
	Mood     *mood.Service
	Account  *account.Service
	Settings *settings.Service
}

// OpenStore opens the configured storage backend.
func OpenStore(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Backend {
	case config.StorageMemory:
		return memory.NewStore(), nil
	case config.StorageBolt:
		return bolt.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}

// New wires services over store. A missing or broken AI configuration is logged and leaves
// chat replying with the apology rather than failing startup.
func New(ctx context.Context, cfg *config.Config, store storage.Store, logger *zap.Logger) *App {
	personas := persona.NewMemoryStore(persona.Seed())
	moods := mood.NewService(store, logger)
	prefs := settings.NewService(store, personas)

	a := &App{
		Store:    store,
		Personas: personas,
		Mood:     moods,
		Settings: prefs,
		Account:  account.NewService(store, moods, logger),
	}

	var streamer chat.Streamer
	if cfg.AI.Enabled() {
		provider, err := ai.NewProvider(ctx, cfg.AI)
		if err != nil {
			logger.Warn("failed to initialize AI provider, continuing without replies",
				zap.String("provider", string(cfg.AI.Provider)), zap.Error(err))
		} else {
			a.AI = ai.NewService(provider, personas, ai.Sampling{
				Temperature: cfg.AI.Temperature,
				TopP:        cfg.AI.TopP,
				MaxTokens:   cfg.AI.MaxTokens,
			}, logger)
			streamer = a.AI
			logger.Info("AI provider initialized", zap.String("provider", provider.Name()))
		}
	} else {
		logger.Warn("AI credentials not configured, chat replies are disabled",
			zap.String("provider", string(cfg.AI.Provider)))
	}

	a.Chat = chat.NewService(store, streamer, prefs, moods, logger)
	return a
}
