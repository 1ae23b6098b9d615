package feather

import (
	"sync"

	"github.com/google/uuid"
)

// StateObserver is invoked with the current user after every observable state
// transition. A nil user means signed out.
type StateObserver func(user *User)

// observerRegistry keys observers by a generated handle so unsubscription is
// O(1) and safe to call more than once.
type observerRegistry struct {
	mu        sync.Mutex
	observers map[uuid.UUID]StateObserver
}

func newObserverRegistry() *observerRegistry {
	return &observerRegistry{
		observers: make(map[uuid.UUID]StateObserver),
	}
}

func (r *observerRegistry) add(observer StateObserver) uuid.UUID {
	id := uuid.New()
	r.mu.Lock()
	r.observers[id] = observer
	r.mu.Unlock()
	return id
}

// remove deletes the observer for id. Removing an already-removed observer is
// a no-op.
func (r *observerRegistry) remove(id uuid.UUID) {
	r.mu.Lock()
	delete(r.observers, id)
	r.mu.Unlock()
}

// notify invokes every registered observer with user. Callbacks run outside
// the registry lock, so an observer may subscribe or unsubscribe reentrantly.
func (r *observerRegistry) notify(user *User) {
	r.mu.Lock()
	snapshot := make([]StateObserver, 0, len(r.observers))
	for _, observer := range r.observers {
		snapshot = append(snapshot, observer)
	}
	r.mu.Unlock()

	for _, observer := range snapshot {
		observer(user)
	}
}

func (r *observerRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.observers)
}
