package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/manasbridge/backend/internal/model/chat"
	"github.com/zhouzirui/manasbridge/backend/internal/model/mood"
	"github.com/zhouzirui/manasbridge/backend/internal/model/persona"
	chatservice "github.com/zhouzirui/manasbridge/backend/internal/service/chat"
	"github.com/zhouzirui/manasbridge/backend/internal/storage"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

var errClientClosed = errors.New("client closed")

// Subscriber 提供存储变更通知
type Subscriber interface {
	Subscribe(key storage.Key) (<-chan storage.Change, func())
}

// Handler WebSocket聊天处理器
type Handler struct {
	chatSvc  *chatservice.Service
	changes  Subscriber
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// New 创建WebSocket处理器
func New(chatSvc *chatservice.Service, changes Subscriber, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		chatSvc: chatSvc,
		changes: changes,
		logger:  logger.Named("ws"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/chat", h.handleWebSocket)
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// TextMessage 文本消息
type TextMessage struct {
	Text string `json:"text"`
}

// MoodLogMessage 对话内心情打卡
type MoodLogMessage struct {
	Mood string `json:"mood"`
}

type outgoingMessage struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// connection serialises writes; gorilla allows one concurrent writer.
type connection struct {
	conn   *websocket.Conn
	logger *zap.Logger
	mu     sync.Mutex
}

func (c *connection) write(msgType string, data any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	msg := outgoingMessage{Type: msgType, Data: data, Timestamp: time.Now().Unix()}
	if err := c.conn.WriteJSON(msg); err != nil {
		c.logger.Debug("write failed", zap.String("type", msgType), zap.Error(err))
	}
}

func (c *connection) result(data map[string]any) {
	c.write("result", data)
}

func (c *connection) fail(message string) {
	c.write("error", map[string]string{"message": message})
}

func (c *connection) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

// handleWebSocket 处理WebSocket连接：读循环、存储变更推送和心跳并行运行。
// 人设在连接建立时确定，整个会话内保持不变。
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	personaID, err := h.chatSvc.Persona(r.Context())
	if err != nil {
		h.logger.Error("resolve persona", zap.Error(err))
		http.Error(w, "failed to start chat session", http.StatusInternalServerError)
		return
	}

	raw, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", zap.Error(err))
		return
	}
	defer raw.Close()

	conn := &connection{conn: raw, logger: h.logger}

	// Subscribe before announcing the connection so no change after "connected" is missed.
	var feeds []<-chan storage.Change
	if h.changes != nil {
		for _, key := range []storage.Key{storage.KeyChatHistory, storage.KeyMoodHistory} {
			ch, cancel := h.changes.Subscribe(key)
			defer cancel()
			feeds = append(feeds, ch)
		}
	}

	conn.result(map[string]any{"type": "connected", "busy": h.chatSvc.Busy(), "persona": personaID})

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error { return h.readLoop(ctx, g, conn, personaID) })
	g.Go(func() error { return pushChanges(ctx, conn, feeds) })
	g.Go(func() error { return pingLoop(ctx, conn) })
	g.Go(func() error {
		// Unblocks the reader when the request context ends first.
		<-ctx.Done()
		_ = raw.Close()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errClientClosed) && !errors.Is(err, context.Canceled) {
		h.logger.Warn("connection ended", zap.Error(err))
	}
}

func (h *Handler) readLoop(ctx context.Context, g *errgroup.Group, conn *connection, personaID persona.ID) error {
	_ = conn.conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.conn.SetPongHandler(func(string) error {
		return conn.conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		var msg inboundMessage
		if err := conn.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("read error", zap.Error(err))
			}
			return errClientClosed
		}
		_ = conn.conn.SetReadDeadline(time.Now().Add(readTimeout))

		switch msg.Type {
		case "text":
			var text TextMessage
			if err := json.Unmarshal(msg.Data, &text); err != nil || strings.TrimSpace(text.Text) == "" {
				conn.fail("invalid text payload")
				continue
			}
			// The turn runs beside the reader so pongs keep arriving during long replies.
			g.Go(func() error {
				h.runTurn(ctx, conn, personaID, text.Text)
				return nil
			})
		case "mood_log":
			var payload MoodLogMessage
			if err := json.Unmarshal(msg.Data, &payload); err != nil {
				conn.fail("invalid mood payload")
				continue
			}
			h.completeMoodLog(ctx, conn, payload.Mood)
		default:
			conn.fail("unsupported message type: " + msg.Type)
		}
	}
}

func (h *Handler) runTurn(ctx context.Context, conn *connection, personaID persona.ID, text string) {
	sent := make(map[string]string)
	observe := func(m chat.Message) {
		if m.Sender == chat.SenderUser {
			conn.result(map[string]any{"type": "user", "message": m})
			return
		}
		prev := sent[m.ID]
		if len(m.Text) > len(prev) && strings.HasPrefix(m.Text, prev) {
			conn.result(map[string]any{"type": "delta", "id": m.ID, "delta": m.Text[len(prev):]})
			sent[m.ID] = m.Text
		}
	}

	reply, err := h.chatSvc.Send(ctx, personaID, text, observe)
	if err != nil {
		conn.fail(err.Error())
		return
	}

	if reply.Outcome == chat.OutcomeCrisis {
		conn.result(map[string]any{"type": "crisis", "contacts": reply.Contacts})
	} else {
		conn.result(map[string]any{"type": "message", "message": reply.Assistant})
	}
	conn.result(map[string]any{"type": "end", "outcome": reply.Outcome})
}

func (h *Handler) completeMoodLog(ctx context.Context, conn *connection, raw string) {
	m, err := mood.Parse(raw)
	if err != nil {
		conn.fail("please select a mood")
		return
	}

	entry, err := h.chatSvc.CompleteMoodLog(ctx, m)
	if err != nil {
		conn.fail(err.Error())
		return
	}
	conn.result(map[string]any{"type": "mood_logged", "entry": entry})
}

// pushChanges 将聊天记录和心情记录的变更推送给客户端
func pushChanges(ctx context.Context, conn *connection, feeds []<-chan storage.Change) error {
	merged := make(chan storage.Change)
	var wg sync.WaitGroup
	for _, feed := range feeds {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case change, ok := <-feed:
					if !ok {
						return
					}
					select {
					case merged <- change:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case change := <-merged:
			conn.write("sync", map[string]any{"key": change.Key, "deleted": change.Deleted})
		}
	}
}

// pingLoop 定期发送ping消息
func pingLoop(ctx context.Context, conn *connection) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				return err
			}
		}
	}
}
