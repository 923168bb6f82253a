package server

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/cpayne/go-codecollab/internal/types"
	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = (pongWait * 9) / 10
	// Full documents travel on this channel, so the read limit is
	// generous compared to a chat server's.
	maxMessageSize = 1 << 20
)

// Client is one websocket connection. Its identity is attached exactly
// once, before registration, and never changes for the lifetime of the
// session. A zero-value identity means the handshake never
// authenticated; such a connection stays open but the server drops all
// its room operations.
type Client struct {
	id       string
	conn     *websocket.Conn
	cs       *CollabServer
	log      *log.Logger
	user     types.User
	send     chan *types.ServerEvent
	stop     chan struct{}
	stopOnce sync.Once
}

func NewClient(id string, user types.User, conn *websocket.Conn, cs *CollabServer, l *log.Logger) *Client {
	return &Client{
		id:   id,
		conn: conn,
		cs:   cs,
		log:  l,
		user: user,
		send: make(chan *types.ServerEvent, 256),
		stop: make(chan struct{}),
	}
}

func (c *Client) authenticated() bool {
	return c.user.Id != 0
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.log.Println("write exiting")
	}()

	for {
		select {
		case ev, ok := <-c.send:
			if !ok {
				return
			}

			bytes, err := json.Marshal(ev)
			if err != nil {
				c.log.Println("failed to serialize event:", err)
				continue
			}

			if !c.sendMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			return
		case <-ticker.C:
			if !c.sendMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.cleanup()
		c.log.Println("read exiting")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(appData string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			break
		}

		var ev types.ClientEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			// Malformed events are dropped without a response.
			c.log.Println("error parsing event:", err)
			continue
		}

		c.forward(&inboundEvent{ClientEvent: ev, client: c})
	}
}

func (c *Client) forward(ev *inboundEvent) {
	select {
	case c.cs.eventChan <- ev:
	default:
		c.log.Printf("event channel full, dropping event from %q", c.user.Username)
	}
}

// queueEvent hands an outbound event to the write pump. Events are
// fire-and-forget: if the client's buffer is full the event is lost,
// superseded by whatever comes next.
func (c *Client) queueEvent(ev *types.ServerEvent) bool {
	select {
	case c.send <- ev:
	default:
		c.log.Println("failed to queue event, channel is full")
		return false
	}

	return true
}

func (c *Client) sendMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("write message: %s", err)
		}
		return false
	}

	return true
}

func (c *Client) stopClient() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

func (c *Client) cleanup() {
	c.cs.deRegisterChan <- c
	c.stopClient()
}
