package ws

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/josuelopezv/GeminiT-sub000/internal/infrastructure/logging"
	"github.com/josuelopezv/GeminiT-sub000/internal/infrastructure/monitoring"
	"github.com/josuelopezv/GeminiT-sub000/internal/providers/terminal"
	"github.com/josuelopezv/GeminiT-sub000/internal/shared/id"
	"github.com/josuelopezv/GeminiT-sub000/internal/shared/types"
	"github.com/josuelopezv/GeminiT-sub000/internal/shared/utils"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = utils.MaxInputSize + 1024

	defaultSendBuffer = 256
)

// Message types
const (
	TypeInput  = "input"
	TypeResize = "resize"
	TypePing   = "ping"
	TypePong   = "pong"
	TypeExit   = "exit"
	TypeError  = "error"
)

// Options configures a Handler.
type Options struct {
	// SendBuffer is how many frames may wait for a client before it is
	// disconnected as too slow.
	SendBuffer int
	// AllowedOrigins restricts browser origins. Empty or "*" allows all.
	AllowedOrigins []string
}

// Handler streams terminal sessions over WebSocket connections.
type Handler struct {
	manager    *terminal.Manager
	metrics    *monitoring.Metrics
	logger     *logging.Logger
	sendBuffer int
	upgrader   websocket.Upgrader
}

// NewHandler creates a new WebSocket handler
func NewHandler(manager *terminal.Manager, metrics *monitoring.Metrics, logger *logging.Logger, opts Options) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaultSendBuffer
	}
	return &Handler{
		manager:    manager,
		metrics:    metrics,
		logger:     logger,
		sendBuffer: opts.SendBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(opts.AllowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			allowed = nil
			break
		}
	}
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == origin {
				return true
			}
		}
		return false
	}
}

// frame is one queued outgoing message.
type frame struct {
	kind int
	data []byte
	tag  string
}

// client is one attached viewer. Only writePump writes to conn.
type client struct {
	conn *websocket.Conn
	send chan frame
	done chan struct{}
	log  *zap.Logger

	once        sync.Once
	closeCode   int
	closeReason string
}

// shutdown asks the writer to close the connection with code and reason.
func (c *client) shutdown(code int, reason string) {
	c.once.Do(func() {
		c.closeCode = code
		c.closeReason = reason
		close(c.done)
	})
}

// enqueue queues f without blocking. A full queue means the client cannot
// keep up with the session, so it is dropped.
func (c *client) enqueue(f frame) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- f:
		return true
	default:
		c.log.Warn("Stream client too slow, disconnecting")
		c.shutdown(websocket.ClosePolicyViolation, "client too slow")
		return false
	}
}

func (c *client) sendJSON(msg types.StreamMessage) {
	data, err := sonic.Marshal(msg)
	if err != nil {
		c.log.Error("Failed to encode stream message", zap.Error(err))
		return
	}
	c.enqueue(frame{kind: websocket.TextMessage, data: data, tag: msg.Type})
}

func (c *client) sendError(message string) {
	c.sendJSON(types.StreamMessage{Type: TypeError, Message: message})
}

// HandleConnection attaches a WebSocket to the session named by :id. The
// session's retained history is sent first, then live output, as binary
// frames. Binary frames from the client are raw input; text frames carry
// JSON control messages.
func (h *Handler) HandleConnection(c *gin.Context) {
	sessionID := c.Param("id")
	if err := utils.ValidateID(sessionID, "session_id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := h.manager.GetSession(sessionID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	replay := true
	if v, err := strconv.ParseBool(c.DefaultQuery("replay", "true")); err == nil {
		replay = v
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Debug("WebSocket upgrade failed", zap.String("session_id", sessionID), zap.Error(err))
		return
	}

	connID := id.NewConnectionID().String()
	cl := &client{
		conn: conn,
		send: make(chan frame, h.sendBuffer),
		done: make(chan struct{}),
		log:  h.logger.Connection(connID, sessionID),
	}

	h.metrics.IncWSConnections()
	defer h.metrics.DecWSConnections()
	cl.log.Info("Stream attached")

	onData := func(chunk []byte) {
		cl.enqueue(frame{kind: websocket.BinaryMessage, data: chunk, tag: "output"})
	}
	onClose := func() {
		cl.sendJSON(types.StreamMessage{Type: TypeExit, Message: "session ended"})
		cl.shutdown(websocket.CloseNormalClosure, "session ended")
	}

	var sub *terminal.Subscription
	if replay {
		sub, err = h.manager.Attach(sessionID, onData, onClose)
	} else {
		sub, err = h.manager.Subscribe(sessionID, onData, onClose)
	}
	if err != nil {
		cl.log.Debug("Stream attach failed", zap.Error(err))
		cl.sendError(err.Error())
		cl.shutdown(websocket.CloseNormalClosure, "session ended")
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writePump(cl)
	}()

	h.readPump(cl, sessionID)

	if sub != nil {
		sub.Dispose()
	}
	cl.shutdown(websocket.CloseNormalClosure, "")
	<-writerDone
	cl.log.Info("Stream detached", zap.String("reason", cl.closeReason))
}

// writePump drains the send queue into the connection. Queued frames are
// flushed before a requested close is sent.
func (h *Handler) writePump(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()

	write := func(f frame) bool {
		cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := cl.conn.WriteMessage(f.kind, f.data); err != nil {
			cl.log.Debug("Stream write failed", zap.Error(err))
			return false
		}
		h.metrics.RecordWSMessage("out", f.tag)
		return true
	}

	for {
		select {
		case f := <-cl.send:
			if !write(f) {
				return
			}
		case <-ticker.C:
			if err := cl.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-cl.done:
			if cl.closeCode == websocket.CloseNormalClosure {
				for drained := false; !drained; {
					select {
					case f := <-cl.send:
						if !write(f) {
							return
						}
					default:
						drained = true
					}
				}
			}
			msg := websocket.FormatCloseMessage(cl.closeCode, cl.closeReason)
			_ = cl.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			return
		}
	}
}

// readPump handles client frames until the connection fails or closes.
func (h *Handler) readPump(cl *client, sessionID string) {
	cl.conn.SetReadLimit(maxMessageSize)
	cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, data, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				cl.log.Debug("Stream read error", zap.Error(err))
			}
			return
		}

		switch kind {
		case websocket.BinaryMessage:
			h.metrics.RecordWSMessage("in", TypeInput)
			if err := h.manager.Write(sessionID, data); err != nil {
				cl.sendError(err.Error())
			}
		case websocket.TextMessage:
			h.handleControl(cl, sessionID, data)
		}
	}
}

func (h *Handler) handleControl(cl *client, sessionID string, data []byte) {
	var msg types.StreamMessage
	if err := sonic.Unmarshal(data, &msg); err != nil {
		h.metrics.RecordWSMessage("in", "invalid")
		cl.sendError("invalid message")
		return
	}
	h.metrics.RecordWSMessage("in", msg.Type)

	switch msg.Type {
	case TypeInput:
		if err := utils.ValidateInput(msg.Data); err != nil {
			cl.sendError(err.Error())
			return
		}
		if err := h.manager.Write(sessionID, []byte(msg.Data)); err != nil {
			cl.sendError(err.Error())
		}
	case TypeResize:
		if err := utils.ValidateTerminalSize(msg.Cols, msg.Rows); err != nil {
			cl.sendError(err.Error())
			return
		}
		if err := h.manager.Resize(sessionID, msg.Cols, msg.Rows); err != nil {
			cl.sendError(err.Error())
		}
	case TypePing:
		cl.sendJSON(types.StreamMessage{Type: TypePong})
	default:
		cl.sendError("unknown message type")
	}
}
