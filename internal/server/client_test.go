package server

import (
	"testing"

	"github.com/cpayne/go-codecollab/internal/stats"
	"github.com/cpayne/go-codecollab/internal/testutil"
	"github.com/cpayne/go-codecollab/internal/types"
	"github.com/stretchr/testify/assert"
)

func Test_queueEvent(t *testing.T) {
	t.Run("successful queue", func(t *testing.T) {
		c := &Client{
			send: make(chan *types.ServerEvent, 1),
			log:  testutil.TestLogger(t),
		}

		res := c.queueEvent(&types.ServerEvent{})
		assert.True(t, res, "expected queueEvent to return true when channel is not full")

		select {
		case ev := <-c.send:
			assert.NotNil(t, ev, "expected an event to be queued")
		default:
			t.Error("expected an event to be queued, but none was")
		}
	})
	t.Run("channel full", func(t *testing.T) {
		c := &Client{
			send: make(chan *types.ServerEvent, 1),
			log:  testutil.TestLogger(t),
		}

		c.send <- &types.ServerEvent{} // Pre-fill the send channel to simulate a full channel
		res := c.queueEvent(&types.ServerEvent{})
		assert.False(t, res, "expected queueEvent to return false when channel is full")
	})
}

func Test_forward(t *testing.T) {
	t.Run("forwards to the server event channel", func(t *testing.T) {
		cs := newTestCollabServer(t, &stats.MockStatsUpdater{})
		c := newTestClient(t, cs, "c1", 1, "alice")

		c.forward(&inboundEvent{
			ClientEvent: types.ClientEvent{Join: &types.JoinProject{ProjectId: "p1"}},
			client:      c,
		})

		select {
		case ev := <-cs.eventChan:
			assert.NotNil(t, ev.Join, "expected join event on the server channel")
			assert.Equal(t, "p1", ev.Join.ProjectId)
			assert.Equal(t, c, ev.client, "expected event to carry its client")
		default:
			t.Error("expected event on the server channel, but found none")
		}
	})

	t.Run("drops when the channel is full", func(t *testing.T) {
		cs := newTestCollabServer(t, &stats.MockStatsUpdater{})
		cs.eventChan = make(chan *inboundEvent, 1)
		cs.eventChan <- &inboundEvent{}

		c := newTestClient(t, cs, "c1", 1, "alice")
		c.forward(&inboundEvent{client: c})

		assert.Len(t, cs.eventChan, 1, "expected the event to be dropped, not queued")
	})
}

func Test_stopClient(t *testing.T) {
	c := &Client{
		stop: make(chan struct{}),
	}

	c.stopClient()

	select {
	case <-c.stop:
		// Channel is closed as expected
	default:
		t.Error("expected stop channel to be closed")
	}

	// A second stop must not panic.
	c.stopClient()
}

func Test_authenticated(t *testing.T) {
	c := &Client{user: types.User{Id: 1, Username: "alice"}}
	assert.True(t, c.authenticated())

	anon := &Client{}
	assert.False(t, anon.authenticated(), "expected zero-value identity to be unauthenticated")
}
