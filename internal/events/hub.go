package events

import "sync"

// Hub fans events out to SSE subscribers. A subscriber with a topic only
// receives events published under that topic; one without gets everything.
type Hub struct {
	mu      sync.Mutex
	clients map[chan string]string
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan string]string)}
}

func (h *Hub) Subscribe(topic string) chan string {
	ch := make(chan string, 16)
	h.mu.Lock()
	h.clients[ch] = topic
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan string) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
	close(ch)
}

func (h *Hub) Publish(topic, evt string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch, want := range h.clients {
		if want != "" && want != topic {
			continue
		}
		select {
		case ch <- evt:
		default:
			// drop if slow
		}
	}
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
