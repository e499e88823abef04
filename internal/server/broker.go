package server

import (
	"encoding/json"
	"sync"

	"github.com/yuya1213/dental-clinic-app/internal/submission"
)

// SessionEvent is the payload published to a flow's subscribers.
type SessionEvent struct {
	Type    string              `json:"type"`
	Session submission.Snapshot `json:"session"`
}

// Broker is an in-process pub/sub for session events, keyed by flow ID.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded events for the given flow.
func (b *Broker) Subscribe(flowID string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[flowID] == nil {
		b.subs[flowID] = make(map[chan []byte]struct{})
	}
	b.subs[flowID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(flowID string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[flowID], ch)
	if len(b.subs[flowID]) == 0 {
		delete(b.subs, flowID)
	}
	b.mu.Unlock()
}

func (b *Broker) Publish(flowID string, event SessionEvent) {
	data, _ := json.Marshal(event)
	b.mu.RLock()
	for ch := range b.subs[flowID] {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}
