package collab

import (
	"sort"
	"sync"

	"github.com/cpayne/go-codecollab/internal/types"
)

// cursorPalette is the fixed set of collaborator cursor colors. Colors
// are assigned by stable per-user hashing so a user keeps the same
// color everywhere.
var cursorPalette = []string{
	"#FF5733", "#33FF57", "#3357FF", "#F033FF", "#FF33A8",
	"#33FFF6", "#F6FF33", "#FF9833", "#9833FF", "#33FFD4",
}

func ColorFor(userId int) string {
	if userId < 0 {
		userId = -userId
	}
	return cursorPalette[userId%len(cursorPalette)]
}

// CollaboratorCursor is the ephemeral render state for one remote
// user's cursor. It is rebuilt per connection lifetime and never
// persisted.
type CollaboratorCursor struct {
	UserId   int
	Username string
	Position types.Position
	Color    string
}

// Roster tracks the ephemeral per-room UI state derived from presence
// and cursor events: who is online, who is typing, and where remote
// cursors sit. Events from the roster's own user are ignored. The
// online list is seeded once from the join snapshot and maintained by
// applying joined/left deltas.
type Roster struct {
	selfId int

	mu      sync.Mutex
	online  map[int]string
	typing  map[int]string
	cursors map[int]*CollaboratorCursor
}

func NewRoster(selfUserId int) *Roster {
	return &Roster{
		selfId:  selfUserId,
		online:  make(map[int]string),
		typing:  make(map[int]string),
		cursors: make(map[int]*CollaboratorCursor),
	}
}

// ApplySnapshot replaces the online list with the server's one-time
// join snapshot.
func (r *Roster) ApplySnapshot(users []types.PresenceEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.online = make(map[int]string, len(users))
	for _, u := range users {
		if u.UserId == r.selfId {
			continue
		}
		r.online[u.UserId] = u.Username
	}
}

func (r *Roster) ApplyJoined(ev *types.UserJoined) {
	if ev.UserId == r.selfId {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.online[ev.UserId] = ev.Username
}

func (r *Roster) ApplyLeft(ev *types.UserLeft) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.online, ev.UserId)
	delete(r.typing, ev.UserId)
	delete(r.cursors, ev.UserId)
}

func (r *Roster) UpdateCursor(ev *types.CursorPosition) {
	if ev.UserId == r.selfId {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cursor, ok := r.cursors[ev.UserId]
	if !ok {
		cursor = &CollaboratorCursor{
			UserId:   ev.UserId,
			Username: ev.Username,
			Color:    ColorFor(ev.UserId),
		}
		r.cursors[ev.UserId] = cursor
	}
	cursor.Position = ev.Position
}

func (r *Roster) SetTyping(ev *types.TypingIndicator) {
	if ev.UserId == r.selfId {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if ev.IsTyping {
		r.typing[ev.UserId] = ev.Username
	} else {
		delete(r.typing, ev.UserId)
	}
}

// Online returns the current presence list, ordered by user id for
// stable rendering.
func (r *Roster) Online() []types.PresenceEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]types.PresenceEntry, 0, len(r.online))
	for id, username := range r.online {
		entries = append(entries, types.PresenceEntry{UserId: id, Username: username})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].UserId < entries[j].UserId })

	return entries
}

// Cursors returns the remote cursors to render, ordered by user id.
func (r *Roster) Cursors() []CollaboratorCursor {
	r.mu.Lock()
	defer r.mu.Unlock()

	cursors := make([]CollaboratorCursor, 0, len(r.cursors))
	for _, c := range r.cursors {
		cursors = append(cursors, *c)
	}
	sort.Slice(cursors, func(i, j int) bool { return cursors[i].UserId < cursors[j].UserId })

	return cursors
}

// TypingUsers returns the names of users currently typing, ordered by
// user id.
func (r *Roster) TypingUsers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]int, 0, len(r.typing))
	for id := range r.typing {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = r.typing[id]
	}

	return names
}
