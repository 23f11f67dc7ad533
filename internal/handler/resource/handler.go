package resource

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/manasbridge/backend/internal/model/resource"
	"github.com/zhouzirui/manasbridge/backend/pkg/utils"
)

// PromptPicker 随机挑选一条日记提示
type PromptPicker interface {
	RandomPrompt() string
}

// Handler 求助资源的HTTP处理器
type Handler struct {
	prompts PromptPicker
}

// New 创建资源处理器
func New(prompts PromptPicker) *Handler {
	return &Handler{prompts: prompts}
}

// RegisterRoutes 注册资源相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/resources", func(r chi.Router) {
		r.Get("/contacts", h.handleContacts)
		r.Get("/prompts", h.handlePrompts)
		r.Get("/prompts/random", h.handleRandomPrompt)
	})
}

// handleContacts 返回紧急求助热线
func (h *Handler) handleContacts(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, resource.EmergencyContacts())
}

// handlePrompts 返回全部日记提示
func (h *Handler) handlePrompts(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, resource.JournalPrompts())
}

// handleRandomPrompt 返回一条随机日记提示
func (h *Handler) handleRandomPrompt(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{"prompt": h.prompts.RandomPrompt()})
}
