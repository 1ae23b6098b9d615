package feather

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// stateRecord is the single-row bun model backing BunStateStore. The state
// triple is stored as one JSON blob: the record is always replaced whole, so
// there is nothing to gain from column-per-field.
type stateRecord struct {
	bun.BaseModel `bun:"table:feather_state,alias:fst"`
	ID            string     `bun:"id,pk"`
	Data          []byte     `bun:"data,notnull"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp"`
}

// BunStateStore is a durable StateStore on a bun database. With the sqlite
// driver it gives the SDK the same survive-a-restart behavior the browser
// client gets from IndexedDB.
type BunStateStore struct {
	db *bun.DB
}

var _ StateStore = (*BunStateStore)(nil)

// NewBunStateStore wraps an existing bun database. Call Init once before use
// to create the backing table.
func NewBunStateStore(db *bun.DB) *BunStateStore {
	return &BunStateStore{db: db}
}

// NewSQLiteStateStore opens (or creates) a sqlite-backed store at dsn and
// initializes its schema. Use "file:feather.db" for a durable store or
// "file::memory:?cache=shared" for an ephemeral one.
func NewSQLiteStateStore(ctx context.Context, dsn string) (*BunStateStore, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to open sqlite state store")
	}
	store := NewBunStateStore(bun.NewDB(sqldb, sqlitedialect.New()))
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// Init creates the feather_state table when it does not exist yet.
func (s *BunStateStore) Init(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().
		Model((*stateRecord)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to initialize state store schema")
	}
	return nil
}

// FetchCurrentState implements StateStore.
func (s *BunStateStore) FetchCurrentState(ctx context.Context) (*State, error) {
	record := &stateRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("id = ?", stateRecordID).
		Scan(ctx)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to read local state")
	}
	return decodeState(record.Data)
}

// UpdateCurrentState implements StateStore.
func (s *BunStateStore) UpdateCurrentState(ctx context.Context, state *State) error {
	data, err := encodeState(state)
	if err != nil {
		return err
	}
	now := time.Now()
	record := &stateRecord{ID: stateRecordID, Data: data, UpdatedAt: &now}
	if _, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (id) DO UPDATE").
		Set("data = EXCLUDED.data").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to write local state")
	}
	return nil
}

// Close closes the underlying database handle.
func (s *BunStateStore) Close() error {
	return s.db.Close()
}
