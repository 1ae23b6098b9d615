package feather

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/goliatone/go-errors"
)

// stateRecordID is the key of the one local application state record.
const stateRecordID = "current"

// StateStore is the durable key-value record holding the current
// {credential, session, user} triple. The store offers no transactions;
// writes are full record replacements and the state engine serializes them.
type StateStore interface {
	// FetchCurrentState returns the current record, or nil when no record
	// has been written yet.
	FetchCurrentState(ctx context.Context) (*State, error)
	// UpdateCurrentState replaces the current record with state.
	UpdateCurrentState(ctx context.Context, state *State) error
}

// MemoryStateStore is an in-process StateStore. It is the default for clients
// that do not need state to survive a restart, and the store tests run on.
type MemoryStateStore struct {
	mu   sync.Mutex
	data []byte
}

var _ StateStore = (*MemoryStateStore)(nil)

// NewMemoryStateStore returns an empty in-memory store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{}
}

// FetchCurrentState implements StateStore.
func (s *MemoryStateStore) FetchCurrentState(_ context.Context) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil, nil
	}
	return decodeState(s.data)
}

// UpdateCurrentState implements StateStore.
func (s *MemoryStateStore) UpdateCurrentState(_ context.Context, state *State) error {
	data, err := encodeState(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}

// encodeState serializes a state record. All store implementations share the
// same JSON encoding so a client can switch stores without migration.
func encodeState(state *State) ([]byte, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to encode local state")
	}
	return data, nil
}

func decodeState(data []byte) (*State, error) {
	state := &State{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to decode local state")
	}
	return state, nil
}
