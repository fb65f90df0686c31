package live

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/midas-viewer/internal/modal"
	"github.com/zhouzirui/midas-viewer/internal/render"
	"github.com/zhouzirui/midas-viewer/internal/service/store"
)

const (
	readTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// Message types exchanged with the page.
const (
	TypeOpen  = "open"
	TypeClose = "close"
	TypeKey   = "key"
	TypeClick = "click"

	TypeRender   = "render"
	TypeTreasury = "treasury"
	TypeModal    = "modal"
	TypeError    = "error"
)

// Handler serves live page sessions over WebSocket.
type Handler struct {
	store    *store.Store
	renderer *render.Renderer
	logger   zerolog.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]struct{}
}

// New creates the live session handler.
func New(st *store.Store, renderer *render.Renderer, logger zerolog.Logger) *Handler {
	return &Handler{
		store:    st,
		renderer: renderer,
		logger:   logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		sessions: make(map[string]struct{}),
	}
}

// RegisterRoutes mounts the WebSocket route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

// Sessions returns the number of connected pages.
func (h *Handler) Sessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

type inboundMessage struct {
	Type   string `json:"type"`
	Index  *int   `json:"index,omitempty"`
	Key    string `json:"key,omitempty"`
	Target string `json:"target,omitempty"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// session is one connected page with its own modal state.
type session struct {
	id       string
	store    *store.Store
	renderer *render.Renderer
	modal    *modal.Controller
}

func newSession(id string, st *store.Store, renderer *render.Renderer) *session {
	return &session{
		id:       id,
		store:    st,
		renderer: renderer,
		modal:    modal.NewController(renderer),
	}
}

func (s *session) message(msgType string, data interface{}) *outgoingMessage {
	return &outgoingMessage{
		Type:      msgType,
		SessionID: s.id,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}
}

func (s *session) renderMessage() *outgoingMessage {
	return s.message(TypeRender, s.renderer.Render(s.store.Snapshot()))
}

func (s *session) treasuryMessage() *outgoingMessage {
	state := s.store.Snapshot()
	latest, ok := state.Latest()
	return s.message(TypeTreasury, s.renderer.Treasury(state.Treasury, latest, ok))
}

func (s *session) modalMessage() *outgoingMessage {
	if view, ok := s.modal.Current(); ok {
		return s.message(TypeModal, view)
	}
	return s.message(TypeModal, nil)
}

// handle applies one page event. It returns nil when nothing changed.
func (s *session) handle(msg inboundMessage) *outgoingMessage {
	switch msg.Type {
	case TypeOpen:
		if msg.Index == nil {
			return s.message(TypeError, "index is required")
		}
		if !s.modal.Open(*msg.Index, s.store.Snapshot().Conversations) {
			return nil
		}
		return s.modalMessage()
	case TypeClose:
		s.modal.Close()
		return s.modalMessage()
	case TypeKey:
		if !s.modal.HandleKey(msg.Key) {
			return nil
		}
		return s.modalMessage()
	case TypeClick:
		if !s.modal.HandleClick(msg.Target) {
			return nil
		}
		return s.modalMessage()
	default:
		return s.message(TypeError, "unsupported message type: "+msg.Type)
	}
}

// forChange maps a store change onto the update the page needs: treasury
// changes refresh only the balance widgets.
func (s *session) forChange(change store.Change) *outgoingMessage {
	if change.Slice == store.SliceTreasury {
		return s.treasuryMessage()
	}
	return s.renderMessage()
}

type connWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *connWriter) send(msg *outgoingMessage) error {
	if msg == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return w.conn.WriteJSON(msg)
}

func (w *connWriter) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	sess := newSession(uuid.NewString(), h.store, h.renderer)
	logger := h.logger.With().Str("session", sess.id).Logger()
	h.track(sess.id, true)
	defer h.track(sess.id, false)
	logger.Debug().Msg("live session opened")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	writer := &connWriter{conn: conn}

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	changes, unsubscribe := h.store.Subscribe()
	defer unsubscribe()

	if err := writer.send(sess.renderMessage()); err != nil {
		logger.Debug().Err(err).Msg("initial render failed")
		return
	}

	go h.pushLoop(ctx, cancel, writer, sess, changes, logger)

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn().Err(err).Msg("websocket read error")
			}
			break
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		if err := writer.send(sess.handle(msg)); err != nil {
			logger.Debug().Err(err).Msg("websocket write failed")
			break
		}
	}
	logger.Debug().Msg("live session closed")
}

// pushLoop forwards store changes and keeps the connection alive.
func (h *Handler) pushLoop(ctx context.Context, cancel context.CancelFunc, writer *connWriter, sess *session, changes <-chan store.Change, logger zerolog.Logger) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			if err := writer.send(sess.forChange(change)); err != nil {
				logger.Debug().Err(err).Msg("push failed")
				cancel()
				writer.conn.Close()
				return
			}
		case <-ticker.C:
			if err := writer.ping(); err != nil {
				cancel()
				writer.conn.Close()
				return
			}
		}
	}
}

func (h *Handler) track(id string, connected bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if connected {
		h.sessions[id] = struct{}{}
	} else {
		delete(h.sessions, id)
	}
}
