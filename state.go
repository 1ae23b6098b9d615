package feather

import (
	"context"
	"sync"
	"time"
)

// StateEngine is the single authority over the local application state. All
// flows route their reads and writes through it: it applies the results of
// remote operations to the state store, notifies observers, and keeps the
// proactive refresh timer armed. Nothing else writes the store.
type StateEngine struct {
	store     StateStore
	users     Users
	observers *observerRegistry
	refresh   *refreshTimer
	logger    Logger
	now       func() time.Time

	// mu serializes every read-modify-write against the store. The store has
	// no transactions, so a write must always be a full replacement derived
	// from a fresh read inside the same critical section; otherwise a slow
	// flow could clobber a faster flow's newer result with stale data.
	mu sync.Mutex
}

// EngineOption customizes a StateEngine.
type EngineOption func(*StateEngine)

// WithEngineLogger injects the engine's logger.
func WithEngineLogger(logger Logger) EngineOption {
	return func(e *StateEngine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithEngineClock injects a custom clock (useful for tests).
func WithEngineClock(clock func() time.Time) EngineOption {
	return func(e *StateEngine) {
		if clock != nil {
			e.now = clock
		}
	}
}

// NewStateEngine returns an engine over the given store. The users resource
// is what the engine refreshes and revokes token bundles through.
func NewStateEngine(store StateStore, users Users, opts ...EngineOption) *StateEngine {
	engine := &StateEngine{
		store:     store,
		users:     users,
		observers: newObserverRegistry(),
		refresh:   newRefreshTimer(),
		logger:    defLogger{},
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(engine)
		}
	}
	return engine
}

// CurrentState returns the committed state record, initializing an empty one
// on the first read of a fresh client.
func (e *StateEngine) CurrentState(ctx context.Context) (*State, error) {
	state, err := e.store.FetchCurrentState(ctx)
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = &State{}
		if err := e.commit(ctx, func(s *State) {}); err != nil {
			return nil, err
		}
	}
	return state, nil
}

// CurrentCredential returns the pending credential, or nil. Credentials do
// not self-refresh, so this is a plain read.
func (e *StateEngine) CurrentCredential(ctx context.Context) (*Credential, error) {
	state, err := e.CurrentState(ctx)
	if err != nil {
		return nil, err
	}
	return state.Credential, nil
}

// CurrentUser returns the current user, or nil when signed out. When the
// stored user's ID token is absent, unreadable, or within the refresh window
// of expiry, the engine transparently refreshes the token bundle first and
// returns the refreshed user.
func (e *StateEngine) CurrentUser(ctx context.Context) (*User, error) {
	state, err := e.CurrentState(ctx)
	if err != nil {
		return nil, err
	}
	user := state.User
	if user == nil {
		return nil, nil
	}
	if !e.needsRefresh(user) {
		return user, nil
	}
	return e.refreshCurrentUser(ctx)
}

// SetCurrentUser persists user as the current user, notifies observers with
// the committed state, and re-arms the proactive refresh timer. Setting nil
// cancels any pending refresh.
func (e *StateEngine) SetCurrentUser(ctx context.Context, user *User) error {
	if err := e.commit(ctx, func(s *State) { s.User = user }); err != nil {
		return err
	}
	e.NotifyObservers(ctx)
	e.scheduleRefresh(user)
	return nil
}

// SetCurrentCredential persists credential as the pending credential.
// Credential state is not part of the observable surface, so no observers
// fire and the refresh timer is untouched.
func (e *StateEngine) SetCurrentCredential(ctx context.Context, credential *Credential) error {
	return e.commit(ctx, func(s *State) { s.Credential = credential })
}

// NotifyObservers invokes every registered observer with the current user.
// The state is re-fetched so observers always see committed state, never a
// stale closure value.
func (e *StateEngine) NotifyObservers(ctx context.Context) {
	state, err := e.store.FetchCurrentState(ctx)
	if err != nil {
		e.logger.Error("notify observers: failed to fetch current state: %v", err)
		return
	}
	var user *User
	if state != nil {
		user = state.User
	}
	e.observers.notify(user)
}

// Subscribe registers an observer and immediately invokes it once with the
// state current at subscription time, so subscribers need no separate initial
// fetch. If that fetch fails the replay is skipped and the failure logged;
// later notifications still reach the observer. The returned function removes
// the observer; calling it twice is a no-op.
func (e *StateEngine) Subscribe(ctx context.Context, observer StateObserver) func() {
	id := e.observers.add(observer)
	state, err := e.store.FetchCurrentState(ctx)
	if err != nil {
		e.logger.Error("subscribe: failed to fetch current state: %v", err)
	} else {
		var user *User
		if state != nil {
			user = state.User
		}
		observer(user)
	}
	return func() {
		e.observers.remove(id)
	}
}

// clearCurrentSession drops the session and user in one write, leaving any
// pending credential intact. Observers fire with a nil user and the refresh
// timer is cancelled.
func (e *StateEngine) clearCurrentSession(ctx context.Context) error {
	if err := e.commit(ctx, func(s *State) {
		s.Session = nil
		s.User = nil
	}); err != nil {
		return err
	}
	e.NotifyObservers(ctx)
	e.scheduleRefresh(nil)
	return nil
}

// Close cancels the pending refresh timer, if any.
func (e *StateEngine) Close() {
	e.refresh.cancel()
}

// commit applies mutate to a state read inside the same critical section and
// writes the full triple back. This is the only code path that writes the
// store.
func (e *StateEngine) commit(ctx context.Context, mutate func(*State)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	state, err := e.store.FetchCurrentState(ctx)
	if err != nil {
		return err
	}
	if state == nil {
		state = &State{}
	}
	mutate(state)
	return e.store.UpdateCurrentState(ctx, state)
}

// replaceState commits a whole new triple at once. Flows that finish a
// sign-in or link confirmation use it to swap session, user and credential in
// one write.
func (e *StateEngine) replaceState(ctx context.Context, credential *Credential, session *Session, user *User) error {
	if err := e.commit(ctx, func(s *State) {
		s.Credential = credential
		s.Session = session
		s.User = user
	}); err != nil {
		return err
	}
	e.NotifyObservers(ctx)
	e.scheduleRefresh(user)
	return nil
}

// needsRefresh reports whether the user's ID token is missing, unreadable, or
// inside the refresh window.
func (e *StateEngine) needsRefresh(user *User) bool {
	token := user.idToken()
	if token == "" {
		return true
	}
	exp, err := idTokenExpiry(token)
	if err != nil || exp.IsZero() {
		return true
	}
	return !e.now().Add(refreshWindow).Before(exp)
}

// refreshCurrentUser exchanges the current refresh token for a new bundle and
// commits the refreshed user. A rejected refresh token is not an error here:
// it means this client is no longer authenticated, so the engine clears the
// user and reports signed-out.
func (e *StateEngine) refreshCurrentUser(ctx context.Context) (*User, error) {
	state, err := e.CurrentState(ctx)
	if err != nil {
		return nil, err
	}
	user := state.User
	if user == nil {
		return nil, nil
	}

	refreshed, err := e.users.RefreshTokens(ctx, user.ID, user.refreshToken())
	if err != nil {
		if IsTokenInvalidError(err) || IsTokenExpiredError(err) {
			e.logger.Info("refresh token rejected, signing out user %s", user.ID)
			if setErr := e.SetCurrentUser(ctx, nil); setErr != nil {
				return nil, setErr
			}
			return nil, nil
		}
		return nil, err
	}

	if err := e.SetCurrentUser(ctx, refreshed); err != nil {
		return nil, err
	}
	return refreshed, nil
}

// scheduleRefresh arms the one-shot proactive refresh for user's ID token,
// replacing any previously armed timer. A nil user or a user without an ID
// token cancels the pending refresh instead.
func (e *StateEngine) scheduleRefresh(user *User) {
	token := user.idToken()
	if token == "" {
		e.refresh.cancel()
		return
	}
	exp, err := idTokenExpiry(token)
	if err != nil || exp.IsZero() {
		e.logger.Error("cannot schedule refresh: ID token expiry is unreadable")
		e.refresh.cancel()
		return
	}
	delay := refreshDelay(exp, e.now())
	e.refresh.arm(delay, func() {
		if _, err := e.refreshCurrentUser(context.Background()); err != nil {
			e.logger.Error("proactive token refresh failed: %v", err)
		}
	})
}
