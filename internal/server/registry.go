package server

import (
	"github.com/cpayne/go-codecollab/internal/types"
)

// roomRegistry maps project ids to the live set of connections joined
// to them. Rooms are implicit: created on first join, gone when the
// last member leaves. The registry is owned by the CollabServer run
// loop and must only be touched from there, which is what makes the
// join/leave/enumerate operations atomic relative to each other.
type roomRegistry struct {
	rooms    map[string]map[*Client]struct{}
	memberOf map[*Client]map[string]struct{}
}

func newRoomRegistry() *roomRegistry {
	return &roomRegistry{
		rooms:    make(map[string]map[*Client]struct{}),
		memberOf: make(map[*Client]map[string]struct{}),
	}
}

// join adds the connection to the named room. It reports whether the
// connection was newly added; joining twice has no additional effect.
func (r *roomRegistry) join(projectId string, c *Client) bool {
	members, ok := r.rooms[projectId]
	if !ok {
		members = make(map[*Client]struct{})
		r.rooms[projectId] = members
	}

	if _, ok := members[c]; ok {
		return false
	}
	members[c] = struct{}{}

	if r.memberOf[c] == nil {
		r.memberOf[c] = make(map[string]struct{})
	}
	r.memberOf[c][projectId] = struct{}{}

	return true
}

// leave removes the connection from the named room, dropping the room
// entirely once empty. Leaving a room the connection is not in is a
// no-op.
func (r *roomRegistry) leave(projectId string, c *Client) bool {
	members, ok := r.rooms[projectId]
	if !ok {
		return false
	}

	if _, ok := members[c]; !ok {
		return false
	}

	delete(members, c)
	if len(members) == 0 {
		delete(r.rooms, projectId)
	}

	if joined, ok := r.memberOf[c]; ok {
		delete(joined, projectId)
		if len(joined) == 0 {
			delete(r.memberOf, c)
		}
	}

	return true
}

// members returns the live connection set of a room. The returned map
// is the registry's own; callers must not retain it across events.
func (r *roomRegistry) members(projectId string) map[*Client]struct{} {
	return r.rooms[projectId]
}

// presence derives the online-user list for a room, excluding every
// connection belonging to the requester's user.
func (r *roomRegistry) presence(projectId string, requester *Client) []types.PresenceEntry {
	entries := []types.PresenceEntry{}
	seen := make(map[int]struct{})

	for member := range r.rooms[projectId] {
		if requester != nil && member.user.Id == requester.user.Id {
			continue
		}
		if _, ok := seen[member.user.Id]; ok {
			continue
		}
		seen[member.user.Id] = struct{}{}

		entries = append(entries, types.PresenceEntry{
			UserId:   member.user.Id,
			Username: member.user.Username,
		})
	}

	return entries
}

// roomsOf returns the ids of every room the connection is currently
// in, used for the disconnect fan-out.
func (r *roomRegistry) roomsOf(c *Client) []string {
	joined := make([]string, 0, len(r.memberOf[c]))
	for projectId := range r.memberOf[c] {
		joined = append(joined, projectId)
	}
	return joined
}

func (r *roomRegistry) roomCount() int {
	return len(r.rooms)
}
