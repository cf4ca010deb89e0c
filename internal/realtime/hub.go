// Package realtime implements the live coordination channel: a websocket hub
// where clients subscribe to wards, receive coarse "ward changed"
// invalidation signals, and exchange ephemeral hover locks ("ghost locks")
// signalling which bed another operator is focused on.
//
// Hover locks are advisory UI hints only. They live in process memory,
// scoped to active connections, and are cleared automatically on disconnect.
// They are never consulted by the allocation engine's mutual exclusion.
package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event is a notification fanned out to subscribed clients.
type Event struct {
	Type      string    `json:"type"`
	WardID    string    `json:"wardId"`
	BedID     string    `json:"bedId,omitempty"`
	ClientID  string    `json:"clientId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	EventWardChanged = "ward-changed"
	EventBedLocked   = "bed-locked"
	EventBedUnlocked = "bed-unlocked"
)

// ClientMessage is an inbound message from a websocket client.
type ClientMessage struct {
	Action string `json:"action"` // subscribe | unsubscribe | hover | unhover
	WardID string `json:"wardId"`
	BedID  string `json:"bedId,omitempty"`
}

type bedRef struct {
	wardID string
	bedID  string
}

// Client is one websocket connection.
type Client struct {
	ID   string
	Send chan []byte

	wards  map[string]struct{} // subscribed ward topics
	hovers map[bedRef]struct{} // hover locks currently held
}

// Hub tracks clients, their ward subscriptions, and their hover locks. All
// operations are thread-safe via sync.RWMutex; sends to clients are
// non-blocking so a slow consumer never stalls the hub.
type Hub struct {
	log *zap.Logger

	mu      sync.RWMutex
	byWard  map[string]map[*Client]struct{}
	clients map[*Client]struct{}

	sendBuffer  int
	onConnected func(delta int) // metrics hook, may be nil
}

func NewHub(sendBuffer int, log *zap.Logger) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	return &Hub{
		log:        log,
		byWard:     make(map[string]map[*Client]struct{}),
		clients:    make(map[*Client]struct{}),
		sendBuffer: sendBuffer,
	}
}

// SetConnectedHook registers a callback invoked with +1/-1 as clients come
// and go. Must be set before the hub serves connections.
func (h *Hub) SetConnectedHook(fn func(delta int)) {
	h.onConnected = fn
}

// NewClient allocates a client ready for Register.
func (h *Hub) NewClient() *Client {
	return &Client{
		ID:     uuid.New().String(),
		Send:   make(chan []byte, h.sendBuffer),
		wards:  make(map[string]struct{}),
		hovers: make(map[bedRef]struct{}),
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	if h.onConnected != nil {
		h.onConnected(1)
	}
}

// Unregister removes the client, releases every hover lock it still holds
// (broadcasting bed-unlocked to the affected wards), and closes its Send
// channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}

	released := make([]bedRef, 0, len(client.hovers))
	for ref := range client.hovers {
		released = append(released, ref)
	}
	client.hovers = make(map[bedRef]struct{})

	for wardID := range client.wards {
		h.dropFromWard(wardID, client)
	}
	delete(h.clients, client)
	close(client.Send)
	h.mu.Unlock()

	for _, ref := range released {
		h.broadcast(ref.wardID, client, Event{
			Type:      EventBedUnlocked,
			WardID:    ref.wardID,
			BedID:     ref.bedID,
			Timestamp: time.Now(),
		})
	}

	if h.onConnected != nil {
		h.onConnected(-1)
	}
}

// ProcessMessage dispatches one inbound client message.
func (h *Hub) ProcessMessage(client *Client, msg ClientMessage) {
	if msg.WardID == "" {
		return
	}

	switch msg.Action {
	case "subscribe":
		h.subscribe(client, msg.WardID)
	case "unsubscribe":
		h.unsubscribe(client, msg.WardID)
	case "hover":
		if msg.BedID == "" {
			return
		}
		h.hover(client, msg.WardID, msg.BedID)
	case "unhover":
		if msg.BedID == "" {
			return
		}
		h.unhover(client, msg.WardID, msg.BedID)
	}
}

func (h *Hub) subscribe(client *Client, wardID string) {
	h.mu.Lock()
	if h.byWard[wardID] == nil {
		h.byWard[wardID] = make(map[*Client]struct{})
	}
	h.byWard[wardID][client] = struct{}{}
	client.wards[wardID] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unsubscribe(client *Client, wardID string) {
	h.mu.Lock()
	h.dropFromWard(wardID, client)
	delete(client.wards, wardID)
	h.mu.Unlock()
}

// hover records the ghost lock and tells every *other* subscriber of the
// ward that this bed is being focused.
func (h *Hub) hover(client *Client, wardID, bedID string) {
	h.mu.Lock()
	client.hovers[bedRef{wardID: wardID, bedID: bedID}] = struct{}{}
	h.mu.Unlock()

	h.broadcast(wardID, client, Event{
		Type:      EventBedLocked,
		WardID:    wardID,
		BedID:     bedID,
		ClientID:  client.ID,
		Timestamp: time.Now(),
	})
}

func (h *Hub) unhover(client *Client, wardID, bedID string) {
	h.mu.Lock()
	delete(client.hovers, bedRef{wardID: wardID, bedID: bedID})
	h.mu.Unlock()

	h.broadcast(wardID, client, Event{
		Type:      EventBedUnlocked,
		WardID:    wardID,
		BedID:     bedID,
		Timestamp: time.Now(),
	})
}

// NotifyWardChanged implements service.Notifier: a durable change committed
// for this ward; all its subscribers should re-fetch authoritative state.
func (h *Hub) NotifyWardChanged(wardID uuid.UUID) {
	h.broadcast(wardID.String(), nil, Event{
		Type:      EventWardChanged,
		WardID:    wardID.String(),
		Timestamp: time.Now(),
	})
}

// broadcast fans an event out to subscribers of the ward, skipping the
// sender. Full client buffers are skipped, never waited on.
func (h *Hub) broadcast(wardID string, except *Client, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("failed to marshal realtime event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	subscribers, ok := h.byWard[wardID]
	if !ok {
		return
	}

	for client := range subscribers {
		if client == except {
			continue
		}
		select {
		case client.Send <- data:
		default:
			// Client buffer full; skip to avoid blocking.
		}
	}
}

// dropFromWard must be called with h.mu held.
func (h *Hub) dropFromWard(wardID string, client *Client) {
	if subscribers, ok := h.byWard[wardID]; ok {
		delete(subscribers, client)
		if len(subscribers) == 0 {
			delete(h.byWard, wardID)
		}
	}
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// WardSubscriberCount returns how many clients are subscribed to a ward.
func (h *Hub) WardSubscriberCount(wardID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byWard[wardID])
}
