package websocket

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/service-desk-insights/internal/core/domain"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func newTestClient(hub *Hub, operatorID uuid.UUID) *Client {
	return NewClient(hub, nil, operatorID, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func receive(t *testing.T, client *Client) domain.Event {
	t.Helper()
	select {
	case event := <-client.send:
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return domain.Event{}
	}
}

func TestHub_BroadcastReachesAllClients(t *testing.T) {
	hub := startHub(t)
	operator := uuid.New()

	first := newTestClient(hub, operator)
	second := newTestClient(hub, operator)
	other := newTestClient(hub, uuid.New())
	require.True(t, hub.Register(first))
	require.True(t, hub.Register(second))
	require.True(t, hub.Register(other))

	require.Eventually(t, func() bool { return hub.GetClientCount() == 3 }, time.Second, 10*time.Millisecond)

	event := domain.Event{ID: "e-1", Type: domain.EventAnomaliesDetected}
	require.NoError(t, hub.Broadcast(event))

	for _, client := range []*Client{first, second, other} {
		assert.Equal(t, event, receive(t, client))
	}
}

func TestHub_Unregister(t *testing.T) {
	hub := startHub(t)
	client := newTestClient(hub, uuid.New())
	require.True(t, hub.Register(client))
	hub.Unregister(client)

	require.Eventually(t, func() bool { return hub.GetClientCount() == 0 }, time.Second, 10*time.Millisecond)

	_, open := <-client.send
	assert.False(t, open)
}

func TestHub_SlowClientIsDropped(t *testing.T) {
	hub := startHub(t)
	slow := newTestClient(hub, uuid.New())
	require.True(t, hub.Register(slow))

	for i := 0; i < sendBufferSize+1; i++ {
		require.NoError(t, hub.Broadcast(domain.Event{Type: domain.EventBaselineTrained}))
	}

	require.Eventually(t, func() bool { return hub.GetClientCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHub_StopClosesClients(t *testing.T) {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	client := newTestClient(hub, uuid.New())
	require.True(t, hub.Register(client))
	cancel()
	<-done

	assert.Equal(t, 0, hub.GetClientCount())
	_, open := <-client.send
	assert.False(t, open)
}

func TestHub_RegisterAfterStop(t *testing.T) {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	hub.Run(ctx)

	client := newTestClient(hub, uuid.New())
	assert.False(t, hub.Register(client))
	assert.False(t, client.enqueue(domain.Event{Type: domain.EventPong}))

	// Unregister must not block on a stopped hub.
	hub.Unregister(client)
}

func TestHub_DeliverSkipsClosedClient(t *testing.T) {
	hub := startHub(t)
	client := newTestClient(hub, uuid.New())
	require.True(t, hub.Register(client))

	client.closeSend()
	client.closeSend()
	require.NoError(t, hub.Broadcast(domain.Event{Type: domain.EventBaselineTrained}))

	require.Eventually(t, func() bool { return hub.GetClientCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestClient_PingGetsPong(t *testing.T) {
	client := newTestClient(nil, uuid.New())

	client.handleIncomingMessage([]byte(`{"type":"PING"}`))
	client.handleIncomingMessage([]byte(`not json`))
	client.handleIncomingMessage([]byte(`{"type":"SUBSCRIBE"}`))

	assert.Equal(t, domain.EventPong, receive(t, client).Type)
	assert.Empty(t, client.send)
}
