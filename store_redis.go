package feather

import (
	"context"
	stderrors "errors"

	"github.com/goliatone/go-errors"
	"github.com/redis/go-redis/v9"
)

// defaultRedisStateKey namespaces the state record so a shared redis instance
// can hold state for multiple clients.
const defaultRedisStateKey = "feather:state:" + stateRecordID

// RedisStateStore is a StateStore on redis, for server-side processes that
// share one client state across replicas. Last write wins, same as every
// other store; the state engine's freshness rule is what keeps writes sane.
type RedisStateStore struct {
	client *redis.Client
	key    string
}

var _ StateStore = (*RedisStateStore)(nil)

// RedisStateStoreOption customizes a RedisStateStore.
type RedisStateStoreOption func(*RedisStateStore)

// WithRedisStateKey overrides the redis key the record is stored under.
func WithRedisStateKey(key string) RedisStateStoreOption {
	return func(s *RedisStateStore) {
		if key != "" {
			s.key = key
		}
	}
}

// NewRedisStateStore wraps an existing redis client.
func NewRedisStateStore(client *redis.Client, opts ...RedisStateStoreOption) *RedisStateStore {
	store := &RedisStateStore{client: client, key: defaultRedisStateKey}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store
}

// FetchCurrentState implements StateStore.
func (s *RedisStateStore) FetchCurrentState(ctx context.Context) (*State, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to read local state")
	}
	return decodeState(data)
}

// UpdateCurrentState implements StateStore.
func (s *RedisStateStore) UpdateCurrentState(ctx context.Context, state *State) error {
	data, err := encodeState(state)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to write local state")
	}
	return nil
}
