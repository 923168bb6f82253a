package server

import (
	"context"
	"log"
	"sync"

	"github.com/cpayne/go-codecollab/internal/stats"
	"github.com/cpayne/go-codecollab/internal/types"
)

// CollabServer owns the room registry and routes realtime events
// between connections. All state is mutated from the single Run loop,
// so joins, leaves and broadcasts never observe partial membership.
type CollabServer struct {
	log            *log.Logger
	stats          stats.StatsProvider
	registry       *roomRegistry
	clients        map[*Client]struct{}
	clientsLock    sync.Mutex
	RegisterChan   chan *Client
	deRegisterChan chan *Client
	eventChan      chan *inboundEvent
	stop           chan struct{}
	done           chan struct{}
}

func NewCollabServer(logger *log.Logger, su stats.StatsProvider) (*CollabServer, error) {
	su.RegisterMetric(stats.ActiveConnections)
	su.RegisterMetric(stats.ActiveRooms)
	su.RegisterMetric(stats.EventsRouted)
	su.RegisterMetric(stats.EventsDropped)

	return &CollabServer{
		log:            logger,
		stats:          su,
		registry:       newRoomRegistry(),
		clients:        make(map[*Client]struct{}),
		RegisterChan:   make(chan *Client),
		deRegisterChan: make(chan *Client),
		eventChan:      make(chan *inboundEvent, 256),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}, nil
}

func (cs *CollabServer) Run() {
	for {
		select {
		case client := <-cs.RegisterChan:
			cs.log.Printf("adding connection %q from %q", client.id, client.user.Username)
			cs.addClient(client)
			cs.stats.Incr(stats.ActiveConnections)
		case client := <-cs.deRegisterChan:
			cs.log.Printf("removing connection %q from %q", client.id, client.user.Username)
			cs.handleDisconnect(client)
		case ev := <-cs.eventChan:
			cs.dispatch(ev)
		case <-cs.stop:
			cs.log.Println("stopping event loop")
			close(cs.done)
			return
		}
	}
}

func (cs *CollabServer) dispatch(ev *inboundEvent) {
	// Room operations require an identity on the connection. A
	// connection that never authenticated stays open, but everything
	// it emits is dropped here without a response.
	if !ev.client.authenticated() {
		cs.log.Printf("dropping event from unauthenticated connection %q", ev.client.id)
		cs.stats.Incr(stats.EventsDropped)
		return
	}

	switch {
	case ev.Join != nil:
		cs.handleJoin(ev.Join.ProjectId, ev.client)
	case ev.Leave != nil:
		cs.handleLeave(ev.Leave.ProjectId, ev.client)
	case ev.CodeChange != nil:
		cs.routeEvent(ev.CodeChange.ProjectId, newCodeUpdateEvent(ev.CodeChange), ev.client)
	case ev.CursorUpdate != nil:
		cs.routeEvent(ev.CursorUpdate.ProjectId, newCursorPositionEvent(ev.CursorUpdate), ev.client)
	case ev.Typing != nil:
		cs.routeEvent(ev.Typing.ProjectId, newTypingEvent(ev.Typing), ev.client)
	default:
		cs.log.Printf("dropping empty event from connection %q", ev.client.id)
		cs.stats.Incr(stats.EventsDropped)
	}
}

func (cs *CollabServer) handleJoin(projectId string, c *Client) {
	if projectId == "" {
		cs.log.Printf("dropping join with no project id from %q", c.user.Username)
		cs.stats.Incr(stats.EventsDropped)
		return
	}

	before := cs.registry.roomCount()
	if !cs.registry.join(projectId, c) {
		// Already a member; joining twice has no additional effect.
		return
	}
	if cs.registry.roomCount() > before {
		cs.stats.Incr(stats.ActiveRooms)
	}

	cs.log.Printf("user %q (%s) joined project %q", c.user.Username, c.id, projectId)

	// Notify the rest of the room, never the joiner itself.
	cs.broadcast(projectId, newUserJoinedEvent(c), c)

	// Seed the joiner with a one-time presence snapshot; from here on
	// it maintains the list by applying joined/left deltas.
	c.queueEvent(newOnlineUsersEvent(projectId, cs.registry.presence(projectId, c)))
}

func (cs *CollabServer) handleLeave(projectId string, c *Client) {
	if projectId == "" {
		cs.stats.Incr(stats.EventsDropped)
		return
	}

	before := cs.registry.roomCount()
	if !cs.registry.leave(projectId, c) {
		return
	}
	if cs.registry.roomCount() < before {
		cs.stats.Decr(stats.ActiveRooms)
	}

	cs.log.Printf("user %q left project %q", c.user.Username, projectId)
	cs.broadcast(projectId, newUserLeftEvent(c), c)
}

// handleDisconnect treats a dropped connection as an implicit leave of
// every room it was in.
func (cs *CollabServer) handleDisconnect(c *Client) {
	for _, projectId := range cs.registry.roomsOf(c) {
		cs.handleLeave(projectId, c)
	}

	if cs.removeClient(c) {
		cs.stats.Decr(stats.ActiveConnections)
	}
}

func (cs *CollabServer) addClient(c *Client) {
	cs.clientsLock.Lock()
	defer cs.clientsLock.Unlock()
	cs.clients[c] = struct{}{}
}

func (cs *CollabServer) removeClient(c *Client) bool {
	cs.clientsLock.Lock()
	defer cs.clientsLock.Unlock()

	if _, ok := cs.clients[c]; !ok {
		return false
	}
	delete(cs.clients, c)
	return true
}

// routeEvent fans the event out to every other member of the room.
// The sender's claimed project id is trusted as-is: membership and
// authorization are only enforced at the HTTP layer when the project
// was loaded, not re-checked per realtime event.
func (cs *CollabServer) routeEvent(projectId string, ev *types.ServerEvent, sender *Client) {
	if projectId == "" {
		cs.log.Printf("dropping event with no project id from %q", sender.user.Username)
		cs.stats.Incr(stats.EventsDropped)
		return
	}

	cs.broadcast(projectId, ev, sender)
	cs.stats.Incr(stats.EventsRouted)
}

// broadcast queues the event on every member of the room except skip.
func (cs *CollabServer) broadcast(projectId string, ev *types.ServerEvent, skip *Client) {
	for member := range cs.registry.members(projectId) {
		if member == skip {
			continue
		}

		member.queueEvent(ev)
	}
}

func (cs *CollabServer) Shutdown(ctx context.Context) error {
	cs.log.Println("received shutdown signal")
	cs.clientsLock.Lock()
	for c := range cs.clients {
		c.stopClient()
	}
	cs.clientsLock.Unlock()

	close(cs.stop)

	select {
	case <-cs.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
