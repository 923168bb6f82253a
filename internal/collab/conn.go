package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/cpayne/go-codecollab/internal/types"
	"github.com/gorilla/websocket"
)

const connWriteWait = 10 * time.Second

// Conn is an explicitly owned realtime connection handle with an
// open/close lifecycle. It is constructor-injected into whatever
// component needs it; there is no shared module-level socket.
type Conn struct {
	ws   *websocket.Conn
	log  *log.Logger
	user types.User

	writeLock sync.Mutex
	closeOnce sync.Once
}

// Dial opens the realtime channel, presenting the session token as the
// credential for the connection handshake. The user identity is stamped
// into every outbound event so receivers can attribute it.
func Dial(ctx context.Context, url, token string, user types.User, logger *log.Logger) (*Conn, error) {
	header := http.Header{}
	header.Set("Cookie", "token="+token)

	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	return &Conn{ws: ws, log: logger, user: user}, nil
}

// Listen reads server events until the connection fails or is closed,
// handing each decoded event to the handler. Malformed frames are
// logged and skipped.
func (c *Conn) Listen(handler func(*types.ServerEvent)) error {
	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		var ev types.ServerEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			c.log.Println("error parsing server event:", err)
			continue
		}

		handler(&ev)
	}
}

func (c *Conn) JoinProject(projectId string) {
	c.send(&types.ClientEvent{Join: &types.JoinProject{ProjectId: projectId}})
}

func (c *Conn) LeaveProject(projectId string) {
	c.send(&types.ClientEvent{Leave: &types.LeaveProject{ProjectId: projectId}})
}

func (c *Conn) SendCodeChange(projectId, content string, cursor *types.Position) {
	c.send(&types.ClientEvent{CodeChange: &types.CodeChange{
		ProjectId:      projectId,
		Content:        content,
		CursorPosition: cursor,
		UserId:         c.user.Id,
		Username:       c.user.Username,
	}})
}

func (c *Conn) SendCursorUpdate(projectId string, pos types.Position) {
	c.send(&types.ClientEvent{CursorUpdate: &types.CursorUpdate{
		ProjectId: projectId,
		Position:  pos,
		UserId:    c.user.Id,
		Username:  c.user.Username,
	}})
}

func (c *Conn) SendTypingIndicator(projectId string, isTyping bool) {
	c.send(&types.ClientEvent{Typing: &types.TypingIndicator{
		ProjectId: projectId,
		IsTyping:  isTyping,
		UserId:    c.user.Id,
		Username:  c.user.Username,
	}})
}

// send writes an event, fire-and-forget: a failed write is logged, not
// surfaced, matching the protocol's no-retry policy.
func (c *Conn) send(ev *types.ClientEvent) {
	bytes, err := json.Marshal(ev)
	if err != nil {
		c.log.Println("failed to serialize event:", err)
		return
	}

	c.writeLock.Lock()
	defer c.writeLock.Unlock()

	c.ws.SetWriteDeadline(time.Now().Add(connWriteWait))
	if err := c.ws.WriteMessage(websocket.TextMessage, bytes); err != nil {
		c.log.Println("write event:", err)
	}
}

func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.writeLock.Lock()
		c.ws.SetWriteDeadline(time.Now().Add(connWriteWait))
		c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeLock.Unlock()
		err = c.ws.Close()
	})
	return err
}
