// Package realtime pushes advisory events (the next invoice code) to
// connected tills.
package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// EventNextInvoice is the event name the till listens for.
const EventNextInvoice = "actualizarCodigoFactura"

const subscriberBuffer = 8

// Event is one message on the stream. Payload is already JSON.
type Event struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
}

type nextInvoicePayload struct {
	NewInvoiceCode string `json:"new_invoice_code"`
}

// NextInvoiceEvent builds the hint sent after every committed sale.
func NextInvoiceEvent(code string) Event {
	payload, _ := json.Marshal(nextInvoicePayload{NewInvoiceCode: code})
	return Event{Name: EventNextInvoice, Payload: payload}
}

// Hub fans events out to in-process subscribers. A subscriber whose buffer
// is full misses the event; Publish never blocks.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]chan Event
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]chan Event)}
}

// Subscribe registers a listener. Call Unsubscribe with the returned id
// when done; that closes the channel.
func (h *Hub) Subscribe() (string, <-chan Event) {
	id := uuid.NewString()
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	h.subs[id] = ch
	h.mu.Unlock()
	return id, ch
}

func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

// Publish delivers ev to every subscriber with room and returns how many got it.
func (h *Hub) Publish(ev Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, ch := range h.subs {
		select {
		case ch <- ev:
			delivered++
		default:
		}
	}
	return delivered
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// NotifyNextInvoice lets the hub serve as the sale recorder's notifier.
func (h *Hub) NotifyNextInvoice(_ context.Context, code string) error {
	h.Publish(NextInvoiceEvent(code))
	return nil
}
