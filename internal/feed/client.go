package feed

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/idlecamp/server/internal/system"
)

// client is one websocket subscriber. Only writePump writes to conn.
type client struct {
	conn         *websocket.Conn
	remote       string
	send         chan []byte
	writeTimeout time.Duration

	once sync.Once
	quit chan struct{}
}

func newClient(conn *websocket.Conn, buffer int, writeTimeout time.Duration) *client {
	return &client{
		conn:         conn,
		remote:       conn.RemoteAddr().String(),
		send:         make(chan []byte, buffer),
		writeTimeout: writeTimeout,
		quit:         make(chan struct{}),
	}
}

// enqueue reports false when the client's buffer is full or it is closed.
func (c *client) enqueue(data []byte) bool {
	select {
	case <-c.quit:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.once.Do(func() { close(c.quit) })
}

func (c *client) writePump() {
	ping := time.NewTicker(pingInterval)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case <-c.quit:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server closing"))
			return
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.close()
				return
			}
		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}

// clientMessage is a command sent by the browser.
type clientMessage struct {
	Type string `json:"type"` // skill | travel | auto | rest
	ID   int32  `json:"id"`
	On   bool   `json:"on"`
}

// resultMessage answers one clientMessage.
type resultMessage struct {
	Command string `json:"command"`
	OK      bool   `json:"ok"`
	Reason  string `json:"reason,omitempty"`
	Error   string `json:"error,omitempty"`
}

// readLoop executes client commands until the connection drops.
func (h *Hub) readLoop(ctx context.Context, c *client) {
	c.conn.SetReadLimit(readLimit)
	c.conn.SetPongHandler(func(string) error { return nil })
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.log.Debug("捨棄格式錯誤的訊息", zap.String("remote", c.remote), zap.Error(err))
			continue
		}
		res := h.execute(ctx, msg)
		data, err := json.Marshal(Message{Type: "result", Data: res})
		if err != nil {
			continue
		}
		if !c.enqueue(data) {
			return
		}
	}
}

func (h *Hub) execute(ctx context.Context, msg clientMessage) resultMessage {
	var (
		rej *system.Rejection
		err error
	)
	switch msg.Type {
	case "skill":
		rej, err = h.src.UseSkill(ctx, msg.ID)
	case "travel":
		rej, err = h.src.Travel(ctx, msg.ID)
	case "auto":
		err = h.src.SetAutoAttack(ctx, msg.On)
	case "rest":
		rej, err = h.src.SetResting(ctx, msg.On)
	default:
		return resultMessage{Command: msg.Type, Error: "unknown command"}
	}
	res := resultMessage{Command: msg.Type, OK: err == nil && rej == nil}
	if rej != nil {
		res.Reason = rej.String()
	}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}
