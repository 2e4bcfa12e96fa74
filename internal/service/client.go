package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 64 * 1024
	sendBufferSize = 256
)

// Identity is the server-verified identity attached to a connection.
type Identity struct {
	SSOID     string
	Role      string
	Username  string
	FirstName string
	LastName  string
}

// IsAdmin reports whether the identity belongs to support staff.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == "ADMIN"
}

// Client is a WebSocket connection. Frames are written only by its write pump.
type Client struct {
	id       string
	conn     *websocket.Conn
	identity *Identity
	send     chan []byte
	done     chan struct{}
	once     sync.Once
	logger   *zap.Logger
}

// NewClient wraps an upgraded connection. identity may be nil.
func NewClient(conn *websocket.Conn, identity *Identity, logger *zap.Logger) *Client {
	id := uuid.NewString()
	return &Client{
		id:       id,
		conn:     conn,
		identity: identity,
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
		logger:   logger.With(zap.String("conn", id)),
	}
}

func (c *Client) ID() string { return c.id }

func (c *Client) Identity() *Identity { return c.identity }

func (c *Client) Send(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Close stops the write pump, which closes the socket and ends the read pump.
func (c *Client) Close() {
	c.once.Do(func() { close(c.done) })
}

// Serve runs the read and write pumps until the connection ends. Each inbound
// envelope is dispatched in order; onClose runs once the reader stops.
func (c *Client) Serve(ctx context.Context, dispatch func(context.Context, *Client, Envelope), onClose func(*Client)) {
	defer func() {
		onClose(c)
		c.Close()
		c.conn.Close()
	}()

	go c.writePump()
	c.readPump(ctx, dispatch)
}

func (c *Client) readPump(ctx context.Context, dispatch func(context.Context, *Client, Envelope)) {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Info("websocket unexpected close", zap.Error(err))
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(message, &env); err != nil || env.Event == "" {
			c.logger.Debug("ignoring malformed frame", zap.Error(err))
			continue
		}
		dispatch(ctx, c, env)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Debug("websocket write failed", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
