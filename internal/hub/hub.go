package hub

import (
	"context"
	"log/slog"
	"sync"

	"github.com/atikulmunna/logsift/internal/model"
	"github.com/atikulmunna/logsift/internal/pipeline"
)

const subscriberBuffer = 1024

// Hub receives raw lines, scores them, and broadcasts Scored values to all subscribers.
type Hub struct {
	scorer      *pipeline.Scorer
	input       <-chan model.RawLine
	log         *slog.Logger
	mu          sync.RWMutex
	subscribers []chan model.Scored
	dropped     int64
	failed      int64
}

// New creates a Hub that reads from the input channel and scores with s.
func New(input <-chan model.RawLine, s *pipeline.Scorer, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		scorer: s,
		input:  input,
		log:    logger,
	}
}

// Subscribe returns a buffered channel that will receive scored lines.
// Multiple consumers can subscribe; each gets a copy of every value.
func (h *Hub) Subscribe() <-chan model.Scored {
	ch := make(chan model.Scored, subscriberBuffer)
	h.mu.Lock()
	h.subscribers = append(h.subscribers, ch)
	h.mu.Unlock()
	return ch
}

// Dropped returns the total number of values dropped due to slow consumers.
func (h *Hub) Dropped() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}

// Failed returns the number of lines the scorer rejected.
func (h *Hub) Failed() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.failed
}

// Start begins reading from the input channel, scoring, and broadcasting.
// Blocks until the context is cancelled or the input channel is closed.
func (h *Hub) Start(ctx context.Context) {
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-h.input:
			if !ok {
				return
			}
			s, err := h.scorer.Score(ctx, raw)
			if err != nil {
				h.mu.Lock()
				h.failed++
				h.mu.Unlock()
				h.log.Warn("scoring failed", "source", raw.Source, "error", err)
				continue
			}
			h.broadcast(s)
		}
	}
}

// broadcast sends a value to all subscribers.
// If a subscriber's channel is full, the value is dropped for that subscriber.
func (h *Hub) broadcast(s model.Scored) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subscribers {
		select {
		case ch <- s:
		default:
			h.dropped++
			h.log.Debug("dropped value for slow consumer", "total_dropped", h.dropped)
		}
	}
}

// closeAll closes all subscriber channels.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subscribers {
		close(ch)
	}
	h.subscribers = nil
}

// Unsubscribe removes and closes a channel returned by Subscribe.
func (h *Hub) Unsubscribe(sub <-chan model.Scored) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, ch := range h.subscribers {
		if ch == sub {
			close(ch)
			h.subscribers = append(h.subscribers[:i], h.subscribers[i+1:]...)
			return
		}
	}
}
