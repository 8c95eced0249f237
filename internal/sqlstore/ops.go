package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/fakedb/internal/fakedb"
	"github.com/roach88/fakedb/internal/value"
)

type record struct {
	key string
	doc value.Object
}

// FindByID returns the document stored under id.
func (s *Store) FindByID(ctx context.Context, id string) (value.Object, bool, error) {
	var encoded string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM records WHERE key = ?`, id).Scan(&encoded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, classify(fmt.Errorf("find by id: %w", err))
	}
	doc, err := value.ParseObject([]byte(encoded))
	if err != nil {
		return nil, false, fmt.Errorf("find by id %s: %w", id, err)
	}
	return doc, true, nil
}

// FindMany returns every document accepted by args.Matcher, stable-sorted
// by args.Order when set. Without an order, documents come back in key order.
func (s *Store) FindMany(ctx context.Context, args fakedb.FindArgs[value.Object]) ([]value.Object, error) {
	records, err := loadAll(ctx, s.db)
	if err != nil {
		return nil, classify(fmt.Errorf("find many: %w", err))
	}

	matches := make([]value.Object, 0)
	for _, r := range records {
		if args.Matcher.Match(r.doc) {
			matches = append(matches, r.doc)
		}
	}
	if args.Order != nil {
		slices.SortStableFunc(matches, args.Order)
	}
	return matches, nil
}

// FindOne returns the first document FindMany would return.
func (s *Store) FindOne(ctx context.Context, args fakedb.FindArgs[value.Object]) (value.Object, bool, error) {
	matches, err := s.FindMany(ctx, args)
	if err != nil || len(matches) == 0 {
		return nil, false, err
	}
	return matches[0], true, nil
}

// Insert stores doc under its derived key. Fails with CONFLICT if the key
// is taken.
func (s *Store) Insert(ctx context.Context, doc value.Object) error {
	return s.InsertMany(ctx, []value.Object{doc})
}

// InsertMany stores every document or none. A batch repeating a key fails
// with CARDINALITY before touching the database.
func (s *Store) InsertMany(ctx context.Context, docs []value.Object) error {
	ids, err := fakedb.CheckCardinality(s.identifier, docs)
	if err != nil {
		s.logger.Debug("insert_many rejected", "code", fakedb.ErrCodeCardinality, "batch", len(docs))
		return err
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		for i, id := range ids {
			if err := s.insertRow(ctx, tx, id, docs[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// Update replaces the document stored under doc's key. Fails with
// KEY_NOT_FOUND if there is none.
func (s *Store) Update(ctx context.Context, doc value.Object) error {
	id := s.identifier.NewID(doc)
	encoded, err := value.MarshalCanonical(doc)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `UPDATE records SET doc = ? WHERE key = ?`, string(encoded), id)
	if err != nil {
		return classify(fmt.Errorf("update: %w", err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	if n == 0 {
		s.logger.Debug("update rejected", "code", fakedb.ErrCodeKeyNotFound, "key", id)
		return fakedb.NewKeyNotFoundError(id)
	}
	return nil
}

// UpdateMany mutates every matched document in one transaction. Matched rows
// are deleted and the mutated documents re-inserted, re-keyed when the
// identifier is autogenerated. Any key collision rolls the transaction back
// and returns CONFLICT.
func (s *Store) UpdateMany(ctx context.Context, args fakedb.UpdateArgs[value.Object]) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		records, err := loadAll(ctx, tx)
		if err != nil {
			return fmt.Errorf("update many: %w", err)
		}

		var matched []record
		for _, r := range records {
			if args.Matcher.Match(r.doc) {
				matched = append(matched, r)
			}
		}
		for _, r := range matched {
			if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE key = ?`, r.key); err != nil {
				return fmt.Errorf("update many: %w", err)
			}
		}

		rekey := s.identifier.IsAutogenerated()
		for _, r := range matched {
			doc := r.doc
			args.Updater.Apply(&doc)
			id := r.key
			if rekey {
				id = s.identifier.NewID(doc)
			}
			if err := s.insertRow(ctx, tx, id, doc); err != nil {
				if fakedb.IsConflict(err) {
					s.logger.Debug("update_many rolled back", "code", fakedb.ErrCodeConflict, "key", id, "matched", len(matched))
				}
				return err
			}
		}
		return nil
	})
}

// DeleteByID removes and returns the document stored under id.
func (s *Store) DeleteByID(ctx context.Context, id string) (value.Object, bool, error) {
	var encoded string
	err := s.db.QueryRowContext(ctx, `DELETE FROM records WHERE key = ? RETURNING doc`, id).Scan(&encoded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, classify(fmt.Errorf("delete by id: %w", err))
	}
	doc, err := value.ParseObject([]byte(encoded))
	if err != nil {
		return nil, false, fmt.Errorf("delete by id %s: %w", id, err)
	}
	return doc, true, nil
}

// DeleteMany removes every matched document and returns them in key order.
func (s *Store) DeleteMany(ctx context.Context, matcher fakedb.Matcher[value.Object]) ([]value.Object, error) {
	removed := make([]value.Object, 0)
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		records, err := loadAll(ctx, tx)
		if err != nil {
			return fmt.Errorf("delete many: %w", err)
		}
		for _, r := range records {
			if !matcher.Match(r.doc) {
				continue
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE key = ?`, r.key); err != nil {
				return fmt.Errorf("delete many: %w", err)
			}
			removed = append(removed, r.doc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// Len returns the number of stored documents.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, classify(fmt.Errorf("count: %w", err))
	}
	return n, nil
}

// Snapshot returns every stored document by key.
func (s *Store) Snapshot(ctx context.Context) (map[string]value.Object, error) {
	records, err := loadAll(ctx, s.db)
	if err != nil {
		return nil, classify(fmt.Errorf("snapshot: %w", err))
	}
	out := make(map[string]value.Object, len(records))
	for _, r := range records {
		out[r.key] = r.doc
	}
	return out, nil
}

func (s *Store) insertRow(ctx context.Context, tx *sql.Tx, id string, doc value.Object) error {
	encoded, err := value.MarshalCanonical(doc)
	if err != nil {
		return fmt.Errorf("insert %s: %w", id, err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO records (key, doc) VALUES (?, ?)`, id, string(encoded))
	if isPrimaryKeyViolation(err) {
		s.logger.Debug("insert rejected", "code", fakedb.ErrCodeConflict, "key", id)
		return fakedb.NewConflictError(id)
	}
	if err != nil {
		return fmt.Errorf("insert %s: %w", id, err)
	}
	return nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func loadAll(ctx context.Context, q querier) ([]record, error) {
	rows, err := q.QueryContext(ctx, `SELECT key, doc FROM records ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []record
	for rows.Next() {
		var key, encoded string
		if err := rows.Scan(&key, &encoded); err != nil {
			return nil, err
		}
		doc, err := value.ParseObject([]byte(encoded))
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", key, err)
		}
		records = append(records, record{key: key, doc: doc})
	}
	return records, rows.Err()
}
