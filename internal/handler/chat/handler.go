package chat

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/manasbridge/backend/internal/model/mood"
	chatService "github.com/zhouzirui/manasbridge/backend/internal/service/chat"
	moodService "github.com/zhouzirui/manasbridge/backend/internal/service/mood"
	"github.com/zhouzirui/manasbridge/backend/pkg/utils"
)

// Handler 聊天记录的HTTP处理器
type Handler struct {
	chatSvc *chatService.Service
	logger  *zap.Logger
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{chatSvc: chatSvc, logger: logger.Named("chat-handler")}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/chat/messages", h.handleListMessages)
	r.Delete("/chat/messages", h.handleClearMessages)
	r.Post("/chat/mood-log", h.handleMoodLog)
}

// handleListMessages 返回完整对话记录，空记录会带上欢迎语
func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	history, err := h.chatSvc.History(r.Context())
	if err != nil {
		h.logger.Error("load history", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "failed to load messages")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"messages": history,
		"busy":     h.chatSvc.Busy(),
	})
}

// handleClearMessages 清空对话记录
func (h *Handler) handleClearMessages(w http.ResponseWriter, r *http.Request) {
	if err := h.chatSvc.Clear(r.Context()); err != nil {
		h.logger.Error("clear history", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "failed to clear messages")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMoodLog 完成对话内的心情打卡
func (h *Handler) handleMoodLog(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Mood string `json:"mood"`
	}
	if !utils.DecodeJSON(w, r, &payload) {
		return
	}

	m, err := mood.Parse(payload.Mood)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, moodService.ErrInvalidMood.Error())
		return
	}

	entry, err := h.chatSvc.CompleteMoodLog(r.Context(), m)
	if err != nil {
		if errors.Is(err, moodService.ErrInvalidMood) {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("complete mood log", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "failed to log mood")
		return
	}
	utils.RespondJSON(w, http.StatusCreated, entry)
}
