package fakedb

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
)

// Cloner is implemented by record types that need a deep copy.
// Values that do not implement it are copied by assignment.
type Cloner[V any] interface {
	Clone() V
}

// FakeDB is a concurrency-safe in-memory store keyed by an Identifier.
//
// Thread-safety: every method holds db.mu for its full duration.
type FakeDB[K comparable, V any] struct {
	mu         sync.Mutex
	storage    map[K]V
	identifier Identifier[V, K]
	logger     *slog.Logger

	// poisoned is set when caller-supplied code panicked under mu.
	poisoned bool
	poison   string
}

// Option configures a FakeDB.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for rejected writes and poisoning.
// Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New creates an empty store keyed by identifier.
func New[K comparable, V any](identifier Identifier[V, K], opts ...Option) *FakeDB[K, V] {
	return NewSeeded(identifier, nil, opts...)
}

// NewSeeded creates a store pre-populated with records.
//
// Records are stored under the given keys as-is; the identifier is not
// consulted. This mirrors loading fixtures straight into a table.
func NewSeeded[K comparable, V any](identifier Identifier[V, K], records map[K]V, opts ...Option) *FakeDB[K, V] {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	storage := make(map[K]V, len(records))
	for k, v := range records {
		storage[k] = clone(v)
	}

	return &FakeDB[K, V]{
		storage:    storage,
		identifier: identifier,
		logger:     o.logger,
	}
}

// NewDefault creates an empty store keyed by an integer Sequence.
func NewDefault[V any](opts ...Option) *FakeDB[uint64, V] {
	return New[uint64, V](NewSequence[V](), opts...)
}

// Identifier returns the strategy this store keys records with.
func (db *FakeDB[K, V]) Identifier() Identifier[V, K] {
	return db.identifier
}

// FindByID returns the record stored under id.
//
// Only fails with a LOCKING error.
func (db *FakeDB[K, V]) FindByID(id K) (V, bool, error) {
	var (
		value V
		found bool
	)
	err := db.locked(func() error {
		var stored V
		stored, found = db.storage[id]
		if found {
			value = clone(stored)
		}
		return nil
	})
	return value, found, err
}

// FindOne returns the first record FindMany would return.
func (db *FakeDB[K, V]) FindOne(args FindArgs[V]) (V, bool, error) {
	var zero V
	matches, err := db.FindMany(args)
	if err != nil {
		return zero, false, err
	}
	if len(matches) == 0 {
		return zero, false, nil
	}
	return matches[0], true, nil
}

// FindMany returns copies of every record accepted by args.Matcher,
// stable-sorted by args.Order when set.
//
// Only fails with a LOCKING error.
func (db *FakeDB[K, V]) FindMany(args FindArgs[V]) ([]V, error) {
	var matches []V
	err := db.locked(func() error {
		matches = make([]V, 0)
		for _, v := range db.storage {
			if args.Matcher.Match(v) {
				matches = append(matches, clone(v))
			}
		}
		if args.Order != nil {
			slices.SortStableFunc(matches, args.Order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// Insert stores value under its derived key.
//
// Errors:
//   - CONFLICT if a record with the same key exists (nothing is written)
//   - LOCKING if the store is poisoned
func (db *FakeDB[K, V]) Insert(value V) error {
	id := db.identifier.NewID(value)
	return db.locked(func() error {
		if _, exists := db.storage[id]; exists {
			db.logger.Debug("insert rejected", "code", ErrCodeConflict, "key", id)
			return NewConflictError(id)
		}
		db.storage[id] = clone(value)
		return nil
	})
}

// InsertMany stores every value or none of them.
//
// Keys are derived once, before the guard is taken. A batch that repeats a
// key fails with CARDINALITY regardless of store contents. A batch that
// collides with an existing record fails with CONFLICT and writes nothing.
func (db *FakeDB[K, V]) InsertMany(values []V) error {
	ids, err := CheckCardinality(db.identifier, values)
	if err != nil {
		db.logger.Debug("insert_many rejected", "code", ErrCodeCardinality, "batch", len(values))
		return err
	}

	return db.locked(func() error {
		for _, id := range ids {
			if _, exists := db.storage[id]; exists {
				db.logger.Debug("insert_many rejected", "code", ErrCodeConflict, "key", id)
				return NewConflictError(id)
			}
		}
		for i, id := range ids {
			db.storage[id] = clone(values[i])
		}
		return nil
	})
}

// Update replaces the record stored under value's key.
//
// Errors:
//   - KEY_NOT_FOUND if no record has that key (nothing is written)
//   - LOCKING if the store is poisoned
func (db *FakeDB[K, V]) Update(value V) error {
	id := db.identifier.NewID(value)
	return db.locked(func() error {
		if _, exists := db.storage[id]; !exists {
			db.logger.Debug("update rejected", "code", ErrCodeKeyNotFound, "key", id)
			return NewKeyNotFoundError(id)
		}
		db.storage[id] = clone(value)
		return nil
	})
}

// UpdateMany mutates every record accepted by args.Matcher.
//
// Matched records are pulled out of the store, mutated on copies and
// re-keyed: when the identifier is autogenerated the key is recomputed from
// the mutated value, otherwise the original key is kept. If any new key
// collides with a remaining record or another mutated record, the matched
// originals are put back and CONFLICT is returned; the store is exactly as
// it was before the call.
func (db *FakeDB[K, V]) UpdateMany(args UpdateArgs[V]) error {
	return db.locked(func() error {
		return db.updateMany(args)
	})
}

func (db *FakeDB[K, V]) updateMany(args UpdateArgs[V]) error {
	matched := make(map[K]V)
	for id, v := range db.storage {
		if args.Matcher.Match(v) {
			matched[id] = v
		}
	}
	for id := range matched {
		delete(db.storage, id)
	}

	// Put the originals back if the updater or identifier panics.
	defer func() {
		if r := recover(); r != nil {
			maps.Copy(db.storage, matched)
			panic(r)
		}
	}()

	rekey := db.identifier.IsAutogenerated()
	staged := make(map[K]V, len(matched))
	for id, original := range matched {
		value := clone(original)
		args.Updater.Apply(&value)
		if rekey {
			id = db.identifier.NewID(value)
		}

		_, inStore := db.storage[id]
		_, inBatch := staged[id]
		if inStore || inBatch {
			maps.Copy(db.storage, matched)
			db.logger.Debug("update_many rolled back", "code", ErrCodeConflict, "key", id, "matched", len(matched))
			return NewConflictError(id)
		}
		staged[id] = value
	}

	maps.Copy(db.storage, staged)
	return nil
}

// DeleteByID removes and returns the record stored under id.
// A missing key is not an error.
func (db *FakeDB[K, V]) DeleteByID(id K) (V, bool, error) {
	var (
		value V
		found bool
	)
	err := db.locked(func() error {
		value, found = db.storage[id]
		if found {
			delete(db.storage, id)
		}
		return nil
	})
	return value, found, err
}

// DeleteMany removes every record accepted by matcher and returns them.
// Order of the returned records is unspecified.
func (db *FakeDB[K, V]) DeleteMany(matcher Matcher[V]) ([]V, error) {
	var removed []V
	err := db.locked(func() error {
		ids := make([]K, 0)
		for id, v := range db.storage {
			if matcher.Match(v) {
				ids = append(ids, id)
			}
		}
		removed = make([]V, 0, len(ids))
		for _, id := range ids {
			removed = append(removed, db.storage[id])
			delete(db.storage, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// Len returns the number of stored records.
func (db *FakeDB[K, V]) Len() (int, error) {
	var n int
	err := db.locked(func() error {
		n = len(db.storage)
		return nil
	})
	return n, err
}

// Snapshot returns a copy of every stored record by key.
func (db *FakeDB[K, V]) Snapshot() (map[K]V, error) {
	var snapshot map[K]V
	err := db.locked(func() error {
		snapshot = make(map[K]V, len(db.storage))
		for k, v := range db.storage {
			snapshot[k] = clone(v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// CheckCardinality derives a key for every value and fails with CARDINALITY
// on the first key that repeats within values. Store contents are not
// consulted. Returns the keys in input order.
func CheckCardinality[V any, K comparable](identifier Identifier[V, K], values []V) ([]K, error) {
	ids := make([]K, len(values))
	seen := make(map[K]struct{}, len(values))
	for i, v := range values {
		id := identifier.NewID(v)
		if _, dup := seen[id]; dup {
			return nil, NewCardinalityError(id)
		}
		seen[id] = struct{}{}
		ids[i] = id
	}
	return ids, nil
}

// locked runs fn holding the guard.
//
// A panic escaping fn poisons the store: the panic continues to propagate
// and every later call fails with LOCKING.
func (db *FakeDB[K, V]) locked(fn func() error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.poisoned {
		return NewLockingError(db.poison)
	}

	defer func() {
		if r := recover(); r != nil {
			db.poisoned = true
			db.poison = fmt.Sprintf("store poisoned by panic: %v", r)
			db.logger.Warn("store poisoned", "panic", r)
			panic(r)
		}
	}()

	return fn()
}

func clone[V any](v V) V {
	if c, ok := any(v).(Cloner[V]); ok {
		return c.Clone()
	}
	return v
}
