package stream

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/manasbridge/backend/internal/model/chat"
	"github.com/zhouzirui/manasbridge/backend/internal/model/resource"
	chatService "github.com/zhouzirui/manasbridge/backend/internal/service/chat"
	"github.com/zhouzirui/manasbridge/backend/pkg/utils"
)

// SSE event names.
const (
	EventUser    = "user"
	EventDelta   = "delta"
	EventMessage = "message"
	EventCrisis  = "crisis"
	EventEnd     = "end"
	EventError   = "error"
)

// Handler manages streaming chat replies via Server-Sent Events
type Handler struct {
	chatSvc *chatService.Service
	logger  *zap.Logger
}

// New creates a new stream handler
func New(chatSvc *chatService.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{chatSvc: chatSvc, logger: logger.Named("stream")}
}

// RegisterRoutes 注册流式聊天路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat/stream", h.handleStream)
}

// DeltaEvent carries one fragment of the assistant reply.
type DeltaEvent struct {
	ID    string `json:"id"`
	Delta string `json:"delta"`
}

// CrisisEvent tells the client to show the emergency overlay.
type CrisisEvent struct {
	Contacts []resource.Contact `json:"contacts"`
}

// EndEvent closes a turn.
type EndEvent struct {
	Outcome chat.Outcome `json:"outcome"`
}

// handleStream 提交一条用户消息，并以 SSE 推送助手回复
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if !utils.DecodeJSON(w, r, &payload) {
		return
	}
	if strings.TrimSpace(payload.Text) == "" {
		utils.RespondError(w, http.StatusBadRequest, chatService.ErrEmptyMessage.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	// 每个流式请求是一次独立会话，人设按请求解析。
	personaID, err := h.chatSvc.Persona(r.Context())
	if err != nil {
		h.logger.Error("resolve persona", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "failed to start chat session")
		return
	}

	sse := &eventWriter{w: w, flusher: flusher, logger: h.logger}
	reply, err := h.chatSvc.Send(r.Context(), personaID, payload.Text, sse.observe)
	if err != nil {
		h.fail(w, sse, err)
		return
	}

	if reply.Outcome == chat.OutcomeCrisis {
		sse.send(EventCrisis, CrisisEvent{Contacts: reply.Contacts})
		sse.send(EventEnd, EndEvent{Outcome: reply.Outcome})
		return
	}

	sse.send(EventMessage, reply.Assistant)
	sse.send(EventEnd, EndEvent{Outcome: reply.Outcome})

	h.logger.Debug("stream completed", zap.String("outcome", string(reply.Outcome)))
}

func (h *Handler) fail(w http.ResponseWriter, sse *eventWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, chatService.ErrReplyInFlight):
		status = http.StatusConflict
	case errors.Is(err, chatService.ErrEmptyMessage):
		status = http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		return
	default:
		h.logger.Error("chat turn failed", zap.Error(err))
	}

	if !sse.started {
		utils.RespondError(w, status, err.Error())
		return
	}
	sse.send(EventError, map[string]string{"error": err.Error()})
}

// eventWriter writes SSE headers on the first event, so early failures can still answer with JSON.
type eventWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	logger  *zap.Logger

	started bool
	sent    map[string]string
}

func (e *eventWriter) send(event string, data any) {
	if !e.started {
		utils.SetupSSEHeaders(e.w)
		e.w.WriteHeader(http.StatusOK)
		e.started = true
	}
	if err := utils.SendSSEEvent(e.w, e.flusher, event, data); err != nil {
		e.logger.Debug("sse write failed", zap.String("event", event), zap.Error(err))
	}
}

// observe converts accumulated assistant text into deltas. Replacement text such as the apology
// is not a delta and only arrives with the final message event.
func (e *eventWriter) observe(m chat.Message) {
	if m.Sender == chat.SenderUser {
		e.send(EventUser, m)
		return
	}

	if e.sent == nil {
		e.sent = make(map[string]string)
	}
	prev := e.sent[m.ID]
	if len(m.Text) <= len(prev) || !strings.HasPrefix(m.Text, prev) {
		return
	}
	e.send(EventDelta, DeltaEvent{ID: m.ID, Delta: m.Text[len(prev):]})
	e.sent[m.ID] = m.Text
}
