package orchestration

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"ai-tutoring-sync/internal/pkg/logger"

	"github.com/fasthttp/websocket"
)

const (
	handshakeTimeout = 10 * time.Second
	readLimit        = 64 * 1024
)

// Channel owns exactly one socket for one session id and delivers decoded
// frames in arrival order. It performs no reconnection: if the peer drops the
// connection the channel reports connected=false and goes quiet until the
// owner opens a fresh one.
type Channel struct {
	baseURL string
	token   string
	log     logger.ILogger

	onFrame func(Frame)
	onState func(connected bool)

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

// NewChannel wires a channel to its consumer callbacks. onFrame receives every
// well-formed frame; onState fires on connectivity flips. Both run on the
// channel's read goroutine, so frames are never delivered concurrently.
func NewChannel(baseURL, token string, log logger.ILogger, onFrame func(Frame), onState func(connected bool)) *Channel {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Channel{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		log:     log,
		onFrame: onFrame,
		onState: onState,
	}
}

// Open dials the orchestration endpoint for the given session. It never
// returns an error: a failed dial is logged and surfaces only as a
// connected=false report, matching the rest of the subsystem's
// nothing-here-is-fatal posture.
func (c *Channel) Open(sessionID string) {
	endpoint := c.baseURL + "/ws/orchestration/" + sessionID

	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.Dial(endpoint, header)
	if err != nil {
		c.log.Warn("Channel", "WebSocket dial failed", map[string]interface{}{
			"endpoint": endpoint,
			"error":    err.Error(),
		})
		c.report(false)
		return
	}

	c.mu.Lock()
	if c.closed {
		// Close raced the dial; honor the close.
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.mu.Unlock()

	conn.SetReadLimit(readLimit)

	c.log.Info("Channel", "WebSocket connected", map[string]interface{}{"session_id": sessionID})
	c.report(true)

	go c.readPump(conn, sessionID)
}

// readPump delivers inbound frames until the connection dies. One goroutine
// per open; it exits when the socket closes for any reason.
func (c *Channel) readPump(conn *websocket.Conn, sessionID string) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if !closed {
				c.log.Warn("Channel", "WebSocket read failed", map[string]interface{}{
					"session_id": sessionID,
					"error":      err.Error(),
				})
			}
			c.report(false)
			return
		}
		c.dispatch(data)
	}
}

// dispatch decodes one frame and hands it to the consumer. A frame that is
// not valid JSON is dropped and logged; it must never stall the ones behind it.
func (c *Channel) dispatch(data []byte) {
	frame, err := DecodeFrame(data)
	if err != nil {
		c.log.Warn("Channel", "Dropping malformed frame", map[string]interface{}{
			"error": err.Error(),
			"size":  len(data),
		})
		return
	}
	if c.onFrame != nil {
		c.onFrame(frame)
	}
}

// Close tears the socket down. Idempotent: exactly one underlying close per
// open, no matter how many times it is called.
func (c *Channel) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	c.report(false)
}

func (c *Channel) report(connected bool) {
	if c.onState != nil {
		c.onState(connected)
	}
}
