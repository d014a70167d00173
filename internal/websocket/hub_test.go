package websocket

import (
	"context"
	"testing"
	"time"

	"ai-fitness-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubRegisterUnregister(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(logger.NewNopLogger())
	go hub.Run(ctx)

	a := &Client{Hub: hub, ID: "a", Send: make(chan []byte, 1)}
	b := &Client{Hub: hub, ID: "b", Send: make(chan []byte, 1)}
	require.True(t, hub.Register(a))
	require.True(t, hub.Register(b))
	require.Eventually(t, func() bool { return hub.Count() == 2 }, time.Second, 5*time.Millisecond)

	hub.Unregister(a)
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 5*time.Millisecond)

	_, open := <-a.Send
	assert.False(t, open, "send channel is closed on unregister")

	// A stale client with a reused id must not evict the live one.
	hub.Unregister(&Client{Hub: hub, ID: "b", Send: make(chan []byte)})
	require.True(t, hub.Register(&Client{Hub: hub, ID: "c", Send: make(chan []byte)}))
	require.Eventually(t, func() bool { return hub.Count() == 2 }, time.Second, 5*time.Millisecond)
}

func TestClientReplyDropsWhenFull(t *testing.T) {
	hub := NewHub(logger.NewNopLogger())
	c := &Client{Hub: hub, ID: "a", Send: make(chan []byte, 1)}

	c.Reply(map[string]string{"event": "first"})
	c.Reply(map[string]string{"event": "second"})

	require.Len(t, c.Send, 1)
	assert.JSONEq(t, `{"event":"first"}`, string(<-c.Send))
}

func TestHubStoppedDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(logger.NewNopLogger())
	go hub.Run(ctx)
	cancel()
	<-hub.done

	finished := make(chan bool)
	go func() {
		c := &Client{Hub: hub, ID: "late", Send: make(chan []byte, 1)}
		hub.Unregister(c)
		finished <- hub.Register(c)
	}()

	select {
	case registered := <-finished:
		assert.False(t, registered)
	case <-time.After(time.Second):
		t.Fatal("register/unregister blocked on a stopped hub")
	}
}
