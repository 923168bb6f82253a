package types

import "time"

// Position locates a cursor in a document. Exactly one of the three
// forms is usually present: a character offset, a line/ch pair, or
// precomputed pixel coordinates relative to the editing surface.
// Absent fields are nil.
type Position struct {
	Offset *int     `json:"offset,omitempty"`
	Line   *int     `json:"line,omitempty"`
	Ch     *int     `json:"ch,omitempty"`
	Top    *float64 `json:"top,omitempty"`
	Left   *float64 `json:"left,omitempty"`
}

// ClientEvent is the client-to-server envelope. Exactly one of the
// pointer fields is set per message.
type ClientEvent struct {
	Join         *JoinProject     `json:"join_project,omitempty"`
	Leave        *LeaveProject    `json:"leave_project,omitempty"`
	CodeChange   *CodeChange      `json:"code_change,omitempty"`
	CursorUpdate *CursorUpdate    `json:"cursor_update,omitempty"`
	Typing       *TypingIndicator `json:"typing_indicator,omitempty"`
}

type JoinProject struct {
	ProjectId string `json:"project_id"`
}

type LeaveProject struct {
	ProjectId string `json:"project_id"`
}

// CodeChange always carries the entire document, never a fragment.
// The protocol is full-state replacement.
type CodeChange struct {
	ProjectId      string    `json:"project_id"`
	Content        string    `json:"content"`
	CursorPosition *Position `json:"cursor_position,omitempty"`
	UserId         int       `json:"user_id"`
	Username       string    `json:"username"`
}

type CursorUpdate struct {
	ProjectId string   `json:"project_id"`
	Position  Position `json:"position"`
	UserId    int      `json:"user_id"`
	Username  string   `json:"username"`
}

type TypingIndicator struct {
	ProjectId string `json:"project_id"`
	IsTyping  bool   `json:"is_typing"`
	UserId    int    `json:"user_id"`
	Username  string `json:"username"`
}

// ServerEvent is the server-to-client envelope. Timestamp is stamped
// at the fan-out point with the server's wall clock.
type ServerEvent struct {
	Timestamp      time.Time        `json:"timestamp"`
	CodeUpdate     *CodeUpdate      `json:"code_update,omitempty"`
	CursorPosition *CursorPosition  `json:"cursor_position,omitempty"`
	Typing         *TypingIndicator `json:"typing_indicator,omitempty"`
	OnlineUsers    *OnlineUsers     `json:"online_users,omitempty"`
	UserJoined     *UserJoined      `json:"user_joined,omitempty"`
	UserLeft       *UserLeft        `json:"user_left,omitempty"`
}

type CodeUpdate struct {
	Content        string    `json:"content"`
	CursorPosition *Position `json:"cursor_position,omitempty"`
	UserId         int       `json:"user_id"`
	Username       string    `json:"username"`
}

type CursorPosition struct {
	Position Position `json:"position"`
	UserId   int      `json:"user_id"`
	Username string   `json:"username"`
}

type OnlineUsers struct {
	ProjectId string          `json:"project_id"`
	Users     []PresenceEntry `json:"users"`
}

type UserJoined struct {
	UserId       int    `json:"user_id"`
	Username     string `json:"username"`
	ConnectionId string `json:"connection_id,omitempty"`
}

type UserLeft struct {
	UserId   int    `json:"user_id"`
	Username string `json:"username"`
}
