package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/dupe/internal/codec"
	"github.com/roach88/dupe/internal/snapshot"
)

// ErrNotFound is returned when no stored snapshot has the requested id.
var ErrNotFound = errors.New("snapshot not found")

// Entry describes one stored snapshot without its payload.
type Entry struct {
	Seq         int64  `json:"seq"`
	ID          string `json:"id"`
	Owner       string `json:"owner"`
	Fingerprint string `json:"fingerprint"`
	Name        string `json:"name"`
	Author      string `json:"author"`
	Date        string `json:"date"`
	Objects     int    `json:"objects"`
	Constraints int    `json:"constraints"`
	Size        int    `json:"size"`
}

const entryColumns = `seq, id, owner, fingerprint, name, author, date,
	object_count, constraint_count, length(data)`

// Save encodes snap and stores it under owner.
//
// Saving is idempotent per owner: when the same encoded bytes were already
// saved, the existing entry is returned and no row is written. The boolean
// reports whether a new row was created.
func (s *Store) Save(ctx context.Context, owner string, snap *snapshot.Snapshot) (Entry, bool, error) {
	if snap == nil {
		return Entry{}, false, errors.New("save: nil snapshot")
	}
	data, err := codec.Encode(snap)
	if err != nil {
		return Entry{}, false, fmt.Errorf("save: %w", err)
	}
	fp := codec.Fingerprint(data)

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, owner, fingerprint, name, author, date,
			object_count, constraint_count, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner, fingerprint) DO NOTHING
	`, s.ids.Generate(), owner, fp, snap.Name, snap.Author, snap.Date,
		len(snap.Objects), len(snap.Constraints), data)
	if err != nil {
		return Entry{}, false, fmt.Errorf("save: insert: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Entry{}, false, fmt.Errorf("save: rows affected: %w", err)
	}

	e, err := scanEntry(s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM snapshots WHERE owner = ? AND fingerprint = ?`,
		owner, fp))
	if err != nil {
		return Entry{}, false, fmt.Errorf("save: read back: %w", err)
	}

	if n == 0 {
		s.log.Debug("snapshot already stored", "id", e.ID, "owner", owner, "fingerprint", fp)
	} else {
		s.log.Info("snapshot stored", "id", e.ID, "owner", owner, "objects", e.Objects, "constraints", e.Constraints)
	}
	return e, n > 0, nil
}

// Get returns the entry for id.
func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM snapshots WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get %s: %w", id, err)
	}
	return e, nil
}

// Load decodes the snapshot stored under id. Decode failures surface as
// *codec.FormatError.
func (s *Store) Load(ctx context.Context, id string, opts ...codec.Option) (*snapshot.Snapshot, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM snapshots WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	snap, err := codec.Decode(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	return snap, nil
}

// List returns stored entries in save order. An empty owner lists every
// owner's entries.
func (s *Store) List(ctx context.Context, owner string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM snapshots
		WHERE ? = '' OR owner = ?
		ORDER BY seq ASC, id ASC COLLATE BINARY
	`, owner, owner)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("list: scan: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return out, nil
}

// Delete removes the snapshot stored under id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	s.log.Info("snapshot deleted", "id", id)
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var e Entry
	err := row.Scan(&e.Seq, &e.ID, &e.Owner, &e.Fingerprint, &e.Name, &e.Author,
		&e.Date, &e.Objects, &e.Constraints, &e.Size)
	return e, err
}
