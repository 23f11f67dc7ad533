package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zhouzirui/manasbridge/backend/internal/handler/account"
	"github.com/zhouzirui/manasbridge/backend/internal/handler/chat"
	"github.com/zhouzirui/manasbridge/backend/internal/handler/mood"
	"github.com/zhouzirui/manasbridge/backend/internal/handler/persona"
	"github.com/zhouzirui/manasbridge/backend/internal/handler/resource"
	"github.com/zhouzirui/manasbridge/backend/internal/handler/settings"
	"github.com/zhouzirui/manasbridge/backend/internal/handler/stream"
	"github.com/zhouzirui/manasbridge/backend/internal/handler/ws"
	middlewarePkg "github.com/zhouzirui/manasbridge/backend/internal/middleware"
	personaModel "github.com/zhouzirui/manasbridge/backend/internal/model/persona"
	accountService "github.com/zhouzirui/manasbridge/backend/internal/service/account"
	chatService "github.com/zhouzirui/manasbridge/backend/internal/service/chat"
	moodService "github.com/zhouzirui/manasbridge/backend/internal/service/mood"
	settingsService "github.com/zhouzirui/manasbridge/backend/internal/service/settings"
	"github.com/zhouzirui/manasbridge/backend/internal/storage"
)

// Dependencies 汇总路由所需的服务
type Dependencies struct {
	Personas personaModel.Store
	Store    storage.Store
	Chat     *chatService.Service
	Mood     *moodService.Service
	Account  *accountService.Service
	Settings *settingsService.Service
	Logger   *zap.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(api chi.Router) {
		persona.New(deps.Personas).RegisterRoutes(api)
		resource.New(deps.Mood).RegisterRoutes(api)

		chat.New(deps.Chat, logger).RegisterRoutes(api)
		stream.New(deps.Chat, logger).RegisterRoutes(api)
		ws.New(deps.Chat, deps.Store, logger).RegisterRoutes(api)

		mood.New(deps.Mood, logger).RegisterRoutes(api)
		account.New(deps.Account, logger).RegisterRoutes(api)
		settings.New(deps.Settings, logger).RegisterRoutes(api)
	})

	return r
}
