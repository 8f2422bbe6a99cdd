package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/freightlane/internal/logger"

	"github.com/gorilla/websocket"
)

// HubSinkName 推送投递端名称
const HubSinkName = "websocket"

// wsConn 推送连接所需的最小能力
type wsConn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Session 单个推送连接
type Session struct {
	conn     wsConn
	channels []Recipient
	writeMu  sync.Mutex
}

// Hub 按通道管理推送连接
type Hub struct {
	mu           sync.RWMutex
	channels     map[Recipient]map[*Session]struct{}
	writeTimeout time.Duration
	pongWait     time.Duration
}

// NewHub 创建推送中心
func NewHub(writeTimeout, pongWait time.Duration) *Hub {
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	if pongWait <= 0 {
		pongWait = 60 * time.Second
	}
	return &Hub{
		channels:     make(map[Recipient]map[*Session]struct{}),
		writeTimeout: writeTimeout,
		pongWait:     pongWait,
	}
}

// Name 投递端名称
func (h *Hub) Name() string {
	return HubSinkName
}

// Register 注册连接到若干通道
func (h *Hub) Register(conn wsConn, channels ...Recipient) *Session {
	session := &Session{conn: conn, channels: dedupeRecipients(channels)}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, channel := range session.channels {
		sessions, ok := h.channels[channel]
		if !ok {
			sessions = make(map[*Session]struct{})
			h.channels[channel] = sessions
		}
		sessions[session] = struct{}{}
	}
	logger.Debugw("ws_session_registered", "channels", session.channels)
	return session
}

// Unregister 注销连接
func (h *Hub) Unregister(session *Session) {
	if session == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, channel := range session.channels {
		sessions, ok := h.channels[channel]
		if !ok {
			continue
		}
		delete(sessions, session)
		if len(sessions) == 0 {
			delete(h.channels, channel)
		}
	}
}

// SessionCount 通道当前连接数
func (h *Hub) SessionCount(channel Recipient) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

// CloseAll 关闭全部连接，用于服务停止
func (h *Hub) CloseAll() {
	h.mu.Lock()
	sessions := make(map[*Session]struct{})
	for _, members := range h.channels {
		for session := range members {
			sessions[session] = struct{}{}
		}
	}
	h.channels = make(map[Recipient]map[*Session]struct{})
	h.mu.Unlock()

	for session := range sessions {
		_ = session.conn.Close()
	}
	logger.Infow("ws_sessions_closed", "count", len(sessions))
}

// Deliver 按事件接收范围推送，离线通道直接跳过
func (h *Hub) Deliver(_ context.Context, evt Event) error {
	message, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	for _, session := range h.targets(evt.Recipients) {
		if err := h.write(session, message); err != nil {
			logger.Debugw("ws_session_write_failed", "event_id", evt.ID, "error", err)
			h.Unregister(session)
			_ = session.conn.Close()
		}
	}
	return nil
}

func (h *Hub) targets(recipients []Recipient) []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[*Session]struct{})
	var result []*Session
	for _, recipient := range recipients {
		for session := range h.channels[recipient] {
			if _, ok := seen[session]; ok {
				continue
			}
			seen[session] = struct{}{}
			result = append(result, session)
		}
	}
	return result
}

func (h *Hub) write(session *Session, message []byte) error {
	session.writeMu.Lock()
	defer session.writeMu.Unlock()
	if err := session.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout)); err != nil {
		return err
	}
	return session.conn.WriteMessage(websocket.TextMessage, message)
}

// Serve 接管已升级的连接直到对端断开
func (h *Hub) Serve(conn *websocket.Conn, channels ...Recipient) {
	session := h.Register(conn, channels...)
	defer func() {
		h.Unregister(session)
		_ = conn.Close()
	}()

	_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongWait))
	})
	conn.SetPingHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))
		session.writeMu.Lock()
		defer session.writeMu.Unlock()
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(h.writeTimeout))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warnw("ws_unexpected_close", "channels", session.channels, "error", err)
			}
			return
		}
	}
}
