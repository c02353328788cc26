package memory

import (
	"context"
	"sync"
)

// ConversationStore maps a history id to its ordered messages.
// Implementations must tolerate concurrent calls for distinct ids.
type ConversationStore interface {
	// Get returns a copy of the history for id. ok is false when id has never been stored.
	Get(ctx context.Context, id string) (msgs []Message, ok bool, err error)
	// Put replaces the history for id.
	Put(ctx context.Context, id string, msgs []Message) error
}

// InMemoryStore is a process-local ConversationStore.
type InMemoryStore struct {
	mu        sync.RWMutex
	histories map[string][]Message
}

// NewInMemoryStore returns an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{histories: make(map[string][]Message)}
}

// Get returns a copy so callers never alias stored slices.
func (s *InMemoryStore) Get(ctx context.Context, id string) ([]Message, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs, ok := s.histories[id]
	if !ok {
		return nil, false, nil
	}
	return clone(msgs), true, nil
}

// Put stores a copy of msgs under id.
func (s *InMemoryStore) Put(ctx context.Context, id string, msgs []Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.histories[id] = clone(msgs)
	return nil
}

// IDs returns the ids currently held, in no particular order.
func (s *InMemoryStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.histories))
	for id := range s.histories {
		ids = append(ids, id)
	}
	return ids
}

func clone(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
