package account

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	accountService "github.com/zhouzirui/manasbridge/backend/internal/service/account"
	"github.com/zhouzirui/manasbridge/backend/pkg/utils"
)

// Handler 本地账户的HTTP处理器。账户只是本地演示，不提供任何安全保证。
type Handler struct {
	accountSvc *accountService.Service
	logger     *zap.Logger
}

// New 创建账户处理器
func New(accountSvc *accountService.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{accountSvc: accountSvc, logger: logger.Named("account-handler")}
}

// RegisterRoutes 注册账户相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/account", func(r chi.Router) {
		r.Get("/", h.handleProfile)
		r.Delete("/", h.handleDelete)
		r.Post("/register", h.handleRegister)
		r.Post("/login", h.handleLogin)
		r.Post("/logout", h.handleLogout)
		r.Post("/password", h.handleChangePassword)
	})
}

// handleRegister 注册并自动登录
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload accountService.Registration
	if !utils.DecodeJSON(w, r, &payload) {
		return
	}

	u, err := h.accountSvc.Register(r.Context(), payload)
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, u)
}

// handleLogin 登录
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !utils.DecodeJSON(w, r, &payload) {
		return
	}

	u, err := h.accountSvc.Login(r.Context(), payload.Username, payload.Password)
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, u)
}

// handleLogout 登出
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.accountSvc.Logout(r.Context()); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleProfile 返回当前用户及打卡次数
func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.accountSvc.Profile(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, profile)
}

// handleChangePassword 修改密码
func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if !utils.DecodeJSON(w, r, &payload) {
		return
	}

	if err := h.accountSvc.ChangePassword(r.Context(), payload.CurrentPassword, payload.NewPassword); err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully!"})
}

// handleDelete 删除当前账户并登出
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.accountSvc.DeleteAccount(r.Context()); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// fail 将业务错误映射为状态码，错误文案直接展示给用户
func (h *Handler) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, accountService.ErrFieldsRequired),
		errors.Is(err, accountService.ErrUsernameWhitespace),
		errors.Is(err, accountService.ErrPasswordTooShort),
		errors.Is(err, accountService.ErrUnknownLanguage):
		status = http.StatusBadRequest
	case errors.Is(err, accountService.ErrUsernameTaken):
		status = http.StatusConflict
	case errors.Is(err, accountService.ErrInvalidCredentials),
		errors.Is(err, accountService.ErrNotLoggedIn),
		errors.Is(err, accountService.ErrWrongCurrentPassword):
		status = http.StatusUnauthorized
	default:
		h.logger.Error("account operation failed", zap.Error(err))
	}
	utils.RespondError(w, status, accountService.Feedback(err))
}
