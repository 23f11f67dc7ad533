package mood

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/manasbridge/backend/internal/model/mood"
	moodService "github.com/zhouzirui/manasbridge/backend/internal/service/mood"
	"github.com/zhouzirui/manasbridge/backend/pkg/utils"
)

// Handler 心情记录的HTTP处理器
type Handler struct {
	moodSvc *moodService.Service
	logger  *zap.Logger
}

// New 创建心情处理器
func New(moodSvc *moodService.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{moodSvc: moodSvc, logger: logger.Named("mood-handler")}
}

// RegisterRoutes 注册心情相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/moods", func(r chi.Router) {
		r.Post("/", h.handleRecord)
		r.Get("/", h.handleList)
		r.Get("/chart", h.handleChart)
		r.Get("/suggest", h.handleSuggest)
	})
}

// handleRecord 记录一次心情打卡
func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Mood string `json:"mood"`
		Note string `json:"note"`
	}
	if !utils.DecodeJSON(w, r, &payload) {
		return
	}

	m, err := mood.Parse(payload.Mood)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, moodService.ErrInvalidMood.Error())
		return
	}

	entry, err := h.moodSvc.Record(r.Context(), m, payload.Note)
	if err != nil {
		if errors.Is(err, moodService.ErrInvalidMood) {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("record mood", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "failed to record mood")
		return
	}
	utils.RespondJSON(w, http.StatusCreated, entry)
}

// handleList 按时间倒序返回心情记录，limit 可选
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			utils.RespondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := h.moodSvc.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("list moods", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "failed to load moods")
		return
	}
	if entries == nil {
		entries = []mood.Entry{}
	}
	utils.RespondJSON(w, http.StatusOK, entries)
}

// handleChart 返回按时间正序的心情曲线
func (h *Handler) handleChart(w http.ResponseWriter, r *http.Request) {
	points, err := h.moodSvc.Chart(r.Context())
	if err != nil {
		h.logger.Error("chart moods", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "failed to load chart")
		return
	}
	utils.RespondJSON(w, http.StatusOK, points)
}

// handleSuggest 根据文本推测心情
func (h *Handler) handleSuggest(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.moodSvc.Suggest(r.URL.Query().Get("text")))
}
