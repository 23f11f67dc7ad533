package settings

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	settingsService "github.com/zhouzirui/manasbridge/backend/internal/service/settings"
	"github.com/zhouzirui/manasbridge/backend/pkg/utils"
)

// Handler 偏好设置的HTTP处理器
type Handler struct {
	settingsSvc *settingsService.Service
	logger      *zap.Logger
}

// New 创建偏好设置处理器
func New(settingsSvc *settingsService.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{settingsSvc: settingsSvc, logger: logger.Named("settings-handler")}
}

// RegisterRoutes 注册偏好设置路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/settings", h.handleGet)
	r.Put("/settings", h.handleUpdate)
}

// handleGet 读取全部偏好
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.settingsSvc.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("load settings", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	utils.RespondJSON(w, http.StatusOK, prefs)
}

// handleUpdate 部分更新偏好，任一字段非法则全部不写入
func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch settingsService.Patch
	if !utils.DecodeJSON(w, r, &patch) {
		return
	}

	prefs, err := h.settingsSvc.Update(r.Context(), patch)
	if err != nil {
		if errors.Is(err, settingsService.ErrUnknownPersona) ||
			errors.Is(err, settingsService.ErrUnknownTheme) ||
			errors.Is(err, settingsService.ErrUnknownLang) {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("update settings", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "failed to update settings")
		return
	}
	utils.RespondJSON(w, http.StatusOK, prefs)
}
