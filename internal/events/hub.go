package events

import (
	"sync"
	"time"
)

const DefaultSubscriberBuffer = 16

// OrderPlacedItem is one confirmed line of a placed order.
type OrderPlacedItem struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Subtotal    string `json:"subtotal"`
}

// OrderPlaced carries everything the notification dispatcher needs, so
// consumers never reach back into the database.
type OrderPlaced struct {
	OrderID         string            `json:"order_id"`
	CustomerID      string            `json:"customer_id"`
	CustomerPhone   string            `json:"customer_phone"`
	CustomerAddress string            `json:"customer_address"`
	TotalAmount     string            `json:"total_amount"`
	PlacedAt        time.Time         `json:"placed_at"`
	Items           []OrderPlacedItem `json:"items"`
}

// Hub fans out order events to subscribers. Publish never blocks: a
// subscriber that cannot keep up loses events rather than stalling the
// order path.
type Hub struct {
	mu               sync.RWMutex
	subs             map[uint64]chan OrderPlaced
	nextID           uint64
	subscriberBuffer int
}

type Subscription struct {
	hub  *Hub
	id   uint64
	ch   chan OrderPlaced
	once sync.Once
}

func NewHub() *Hub {
	return &Hub{
		subs:             make(map[uint64]chan OrderPlaced),
		subscriberBuffer: DefaultSubscriberBuffer,
	}
}

func (h *Hub) Publish(event OrderPlaced) {
	if h == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

func (h *Hub) Subscribe() *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	ch := make(chan OrderPlaced, h.subscriberBuffer)
	h.subs[h.nextID] = ch

	return &Subscription{hub: h, id: h.nextID, ch: ch}
}

func (s *Subscription) C() <-chan OrderPlaced {
	return s.ch
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s.id)
		s.hub.mu.Unlock()
		close(s.ch)
	})
}
