package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"jobsearch-engine/internal/domain"
)

// ErrNoSnapshot is returned when nothing was ever saved.
var ErrNoSnapshot = errors.New("no snapshot stored")

type SnapshotMeta struct {
	Source   string    `json:"source"`
	Count    int       `json:"count"`
	LoadedAt time.Time `json:"loadedAt"`
}

func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}

	if v < 1 {
		if err := migrateV1(tx); err != nil {
			return err
		}
	}
	if v < 2 {
		if err := migrateV2(tx); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func migrateV1(tx *sql.Tx) error {
	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS records (
  id TEXT PRIMARY KEY,
  position INTEGER NOT NULL,
  prefecture TEXT NOT NULL DEFAULT '',
  city TEXT NOT NULL DEFAULT '',
  data TEXT NOT NULL
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS snapshot (
  singleton INTEGER PRIMARY KEY CHECK (singleton = 1),
  source TEXT NOT NULL,
  count INTEGER NOT NULL,
  loaded_at TEXT NOT NULL
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_records_position
ON records(position);
`); err != nil {
		return err
	}

	_, err := tx.Exec(`PRAGMA user_version = 1;`)
	return err
}

// migrateV2 keys records on their position; sheets may repeat an id.
func migrateV2(tx *sql.Tx) error {
	if _, err := tx.Exec(`
CREATE TABLE records_v2 (
  position INTEGER PRIMARY KEY,
  id TEXT NOT NULL,
  prefecture TEXT NOT NULL DEFAULT '',
  city TEXT NOT NULL DEFAULT '',
  data TEXT NOT NULL
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
INSERT INTO records_v2 (position, id, prefecture, city, data)
SELECT position, id, prefecture, city, data FROM records;
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`DROP TABLE records;`); err != nil {
		return err
	}
	if _, err := tx.Exec(`ALTER TABLE records_v2 RENAME TO records;`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_records_id
ON records(id);
`); err != nil {
		return err
	}

	_, err := tx.Exec(`PRAGMA user_version = 2;`)
	return err
}

// SaveSnapshot replaces the stored snapshot with recs in one transaction.
func SaveSnapshot(ctx context.Context, db *sql.DB, source string, recs []domain.JobRecord, at time.Time) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records;`); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO records (id, position, prefecture, city, data)
VALUES (?, ?, ?, ?, ?);`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range recs {
		b, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode record %s: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, r.ID, i, r.Prefecture, r.City, string(b)); err != nil {
			return fmt.Errorf("insert record %s: %w", r.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO snapshot (singleton, source, count, loaded_at) VALUES (1, ?, ?, ?)
ON CONFLICT(singleton) DO UPDATE SET source = excluded.source, count = excluded.count, loaded_at = excluded.loaded_at;`,
		source, len(recs), at.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("write snapshot meta: %w", err)
	}

	return tx.Commit()
}

// LoadSnapshot returns the stored records in their original order.
func LoadSnapshot(ctx context.Context, db *sql.DB) ([]domain.JobRecord, SnapshotMeta, error) {
	meta, err := Meta(ctx, db)
	if err != nil {
		return nil, SnapshotMeta{}, err
	}

	rows, err := db.QueryContext(ctx, `SELECT data FROM records ORDER BY position;`)
	if err != nil {
		return nil, SnapshotMeta{}, err
	}
	defer rows.Close()

	out := make([]domain.JobRecord, 0, meta.Count)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, SnapshotMeta{}, err
		}
		var r domain.JobRecord
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, SnapshotMeta{}, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, SnapshotMeta{}, err
	}
	return out, meta, nil
}

func Meta(ctx context.Context, db *sql.DB) (SnapshotMeta, error) {
	var m SnapshotMeta
	var at string
	err := db.QueryRowContext(ctx, `SELECT source, count, loaded_at FROM snapshot WHERE singleton = 1;`).
		Scan(&m.Source, &m.Count, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return SnapshotMeta{}, ErrNoSnapshot
	}
	if err != nil {
		return SnapshotMeta{}, err
	}
	m.LoadedAt, _ = time.Parse(time.RFC3339, at)
	return m, nil
}

// GetRecord looks a single record up by id. With repeated ids the first in
// sheet order wins.
func GetRecord(ctx context.Context, db *sql.DB, id string) (domain.JobRecord, bool, error) {
	var data string
	err := db.QueryRowContext(ctx, `SELECT data FROM records WHERE id = ? ORDER BY position LIMIT 1;`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.JobRecord{}, false, nil
	}
	if err != nil {
		return domain.JobRecord{}, false, err
	}
	var r domain.JobRecord
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return domain.JobRecord{}, false, fmt.Errorf("decode record: %w", err)
	}
	return r, true, nil
}

// CountByPrefecture is the stored record count per prefecture.
func CountByPrefecture(ctx context.Context, db *sql.DB) (map[string]int, error) {
	rows, err := db.QueryContext(ctx, `
SELECT prefecture, COUNT(*) FROM records
WHERE prefecture != ''
GROUP BY prefecture;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var p string
		var n int
		if err := rows.Scan(&p, &n); err != nil {
			return nil, err
		}
		out[p] = n
	}
	return out, rows.Err()
}
