package websocket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/lorrc/service-desk-insights/internal/core/domain"
	"github.com/lorrc/service-desk-insights/internal/core/ports"
	"github.com/lorrc/service-desk-insights/internal/infrastructure/logging"
	"github.com/lorrc/service-desk-insights/internal/infrastructure/metrics"
)

const eventQueueSize = 256

// Hub is the live dashboard feed. It fans engine events out to every
// connected client; an operator may hold several connections.
type Hub struct {
	mu        sync.RWMutex
	operators map[uuid.UUID]map[*Client]struct{}

	events     chan domain.Event
	register   chan *Client
	unregister chan *Client
	stopped    chan struct{}

	logger *slog.Logger
}

var _ ports.EventBroadcaster = (*Hub)(nil)

// NewHub creates a dashboard feed. Nothing is delivered until Run starts.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		operators:  make(map[uuid.UUID]map[*Client]struct{}),
		events:     make(chan domain.Event, eventQueueSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stopped:    make(chan struct{}),
		logger:     logging.Component(logger, "websocket_hub"),
	}
}

// Broadcast queues an event for every connected client. It never blocks;
// a full queue drops the event.
func (h *Hub) Broadcast(event domain.Event) error {
	select {
	case h.events <- event:
	default:
		metrics.DashboardEventsDroppedTotal.WithLabelValues("queue_full").Inc()
		h.logger.Warn("event queue full, dropping event",
			"event_type", event.Type,
			"event_id", event.ID,
		)
	}
	return nil
}

// Register adds a client to the feed. It reports false once the hub has
// stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.stopped:
		client.closeSend()
		return false
	}
}

// Unregister removes a client from the feed and closes its send queue.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.stopped:
	}
}

// Run delivers events until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)

	for {
		select {
		case <-ctx.Done():
			h.disconnectAll()
			return
		case client := <-h.register:
			h.add(client)
		case client := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(client)
			h.mu.Unlock()
		case event := <-h.events:
			h.deliver(event)
		}
	}
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.operators[client.operatorID]
	if !ok {
		conns = make(map[*Client]struct{})
		h.operators[client.operatorID] = conns
	}
	conns[client] = struct{}{}
	metrics.DashboardClients.Inc()

	h.logger.Info("dashboard client connected",
		"operator_id", client.operatorID,
		"operator_connections", len(conns),
	)
}

// removeLocked is idempotent. h.mu must be held.
func (h *Hub) removeLocked(client *Client) {
	conns := h.operators[client.operatorID]
	if _, ok := conns[client]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.operators, client.operatorID)
		}
		metrics.DashboardClients.Dec()
		h.logger.Info("dashboard client disconnected", "operator_id", client.operatorID)
	}
	client.closeSend()
}

func (h *Hub) disconnectAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, conns := range h.operators {
		for client := range conns {
			h.removeLocked(client)
		}
	}
	h.logger.Info("dashboard feed stopped")
}

// deliver hands the event to every client. Clients whose queue is full are
// dropped on the spot; routing them through h.unregister from the Run
// goroutine would deadlock.
func (h *Hub) deliver(event domain.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for _, conns := range h.operators {
		for client := range conns {
			if client.enqueue(event) {
				delivered++
				continue
			}
			metrics.DashboardEventsDroppedTotal.WithLabelValues("slow_client").Inc()
			h.logger.Warn("client send queue full, disconnecting",
				"operator_id", client.operatorID,
				"event_type", event.Type,
			)
			h.removeLocked(client)
		}
	}

	h.logger.Debug("event delivered", "event_type", event.Type, "clients", delivered)
}

// GetClientCount returns the total number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, conns := range h.operators {
		count += len(conns)
	}
	return count
}
