package server

import (
	"time"

	"github.com/cpayne/go-codecollab/internal/types"
)

// inboundEvent pairs a decoded client event with the connection that
// emitted it.
type inboundEvent struct {
	types.ClientEvent
	client *Client
}

func newUserJoinedEvent(c *Client) *types.ServerEvent {
	return &types.ServerEvent{
		Timestamp: Now(),
		UserJoined: &types.UserJoined{
			UserId:       c.user.Id,
			Username:     c.user.Username,
			ConnectionId: c.id,
		},
	}
}

func newUserLeftEvent(c *Client) *types.ServerEvent {
	return &types.ServerEvent{
		Timestamp: Now(),
		UserLeft: &types.UserLeft{
			UserId:   c.user.Id,
			Username: c.user.Username,
		},
	}
}

func newOnlineUsersEvent(projectId string, users []types.PresenceEntry) *types.ServerEvent {
	return &types.ServerEvent{
		Timestamp: Now(),
		OnlineUsers: &types.OnlineUsers{
			ProjectId: projectId,
			Users:     users,
		},
	}
}

func newCodeUpdateEvent(change *types.CodeChange) *types.ServerEvent {
	return &types.ServerEvent{
		Timestamp: Now(),
		CodeUpdate: &types.CodeUpdate{
			Content:        change.Content,
			CursorPosition: change.CursorPosition,
			UserId:         change.UserId,
			Username:       change.Username,
		},
	}
}

func newCursorPositionEvent(update *types.CursorUpdate) *types.ServerEvent {
	return &types.ServerEvent{
		Timestamp: Now(),
		CursorPosition: &types.CursorPosition{
			Position: update.Position,
			UserId:   update.UserId,
			Username: update.Username,
		},
	}
}

func newTypingEvent(indicator *types.TypingIndicator) *types.ServerEvent {
	return &types.ServerEvent{
		Timestamp: Now(),
		Typing: &types.TypingIndicator{
			ProjectId: indicator.ProjectId,
			IsTyping:  indicator.IsTyping,
			UserId:    indicator.UserId,
			Username:  indicator.Username,
		},
	}
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
