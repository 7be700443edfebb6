package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/db"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/db/util"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value BLOB NOT NULL,
	idx   INTEGER NOT NULL
) WITHOUT ROWID;
CREATE TABLE IF NOT EXISTS meta (
	name  TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);
INSERT OR IGNORE INTO meta (name, value) VALUES ('write_index', 0);
`

const (
	// stale writes (lower index) leave the row untouched
	upsertSQL = `INSERT INTO kv (key, value, idx) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, idx = excluded.idx
		WHERE excluded.idx >= kv.idx`
	deleteSQL      = `DELETE FROM kv WHERE key = ? AND idx <= ?`
	advanceIdxSQL  = `UPDATE meta SET value = max(value, ?) WHERE name = 'write_index'`
	replaceIdxSQL  = `UPDATE meta SET value = ? WHERE name = 'write_index'`
	selectIdxSQL   = `SELECT value FROM meta WHERE name = 'write_index'`
	selectValueSQL = `SELECT value FROM kv WHERE key = ?`
	scanSQL        = `SELECT key, value FROM kv WHERE key > ? AND substr(CAST(key AS BLOB), 1, ?) = CAST(? AS BLOB) ORDER BY key LIMIT ?`
)

// sqliteImpl implements db.KVDB on top of database/sql
type sqliteImpl struct {
	sqlDB     *sql.DB
	path      string
	currIndex atomic.Uint64
}

// Open opens (or creates) the database file at path and applies the schema.
// An empty path opens a private in-memory database.
func Open(path string) (db.KVDB, error) {
	dsn := ":memory:"
	if strings.TrimSpace(path) != "" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	}

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// SQLite has a single writer, and an in-memory database only exists per connection
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	impl := &sqliteImpl{sqlDB: sqlDB, path: path}

	var idx uint64
	if err := sqlDB.QueryRow(selectIdxSQL).Scan(&idx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("read write index: %w", err)
	}
	impl.currIndex.Store(idx)

	return impl, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see db.KVDB)
// --------------------------------------------------------------------------

func (s *sqliteImpl) Set(key string, value []byte, writeIndex uint64) error {
	if value == nil {
		value = []byte{}
	}
	return s.writeTx(writeIndex, func(tx *sql.Tx) error {
		_, err := tx.Exec(upsertSQL, key, value, writeIndex)
		return err
	})
}

func (s *sqliteImpl) Delete(key string, writeIndex uint64) error {
	return s.writeTx(writeIndex, func(tx *sql.Tx) error {
		_, err := tx.Exec(deleteSQL, key, writeIndex)
		return err
	})
}

// writeTx runs fn and advances the persisted write index in one transaction
func (s *sqliteImpl) writeTx(writeIndex uint64, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.sqlDB.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if _, err = tx.Exec(advanceIdxSQL, writeIndex); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}

	s.advance(writeIndex)
	return nil
}

func (s *sqliteImpl) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := s.sqlDB.QueryRow(selectValueSQL, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *sqliteImpl) Has(key string) (bool, error) {
	var one int
	err := s.sqlDB.QueryRow(`SELECT 1 FROM kv WHERE key = ?`, key).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (s *sqliteImpl) Scan(prefix, after string, limit int) ([]db.KeyValue, error) {
	if limit <= 0 {
		limit = -1 // no limit in SQLite
	}

	rows, err := s.sqlDB.Query(scanSQL, after, len(prefix), prefix, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []db.KeyValue
	for rows.Next() {
		var kv db.KeyValue
		if err := rows.Scan(&kv.Key, &kv.Value); err != nil {
			return nil, err
		}
		entries = append(entries, kv)
	}
	return entries, rows.Err()
}

// --------------------------------------------------------------------------
// Persistence Operations
// --------------------------------------------------------------------------

// Save streams a consistent snapshot from a read transaction
func (s *sqliteImpl) Save(w io.Writer) error {
	tx, err := s.sqlDB.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var header util.SnapshotHeader
	if err := tx.QueryRow(selectIdxSQL).Scan(&header.WriteIndex); err != nil {
		return err
	}
	if err := tx.QueryRow(`SELECT COUNT(*) FROM kv`).Scan(&header.Count); err != nil {
		return err
	}

	rows, err := tx.Query(`SELECT key, value, idx FROM kv ORDER BY key`)
	if err != nil {
		return err
	}
	defer rows.Close()

	var scanErr error
	err = util.WriteSnapshot(w, header, func() (util.SnapshotEntry, bool) {
		if !rows.Next() {
			return util.SnapshotEntry{}, false
		}
		var e util.SnapshotEntry
		if scanErr = rows.Scan(&e.Key, &e.Value, &e.Index); scanErr != nil {
			return util.SnapshotEntry{}, false
		}
		return e, true
	})
	if scanErr != nil {
		return scanErr
	}
	if err != nil {
		return err
	}
	return rows.Err()
}

// Load replaces all entries in a single transaction
func (s *sqliteImpl) Load(r io.Reader) (err error) {
	tx, err := s.sqlDB.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.Exec(`DELETE FROM kv`); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO kv (key, value, idx) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	header, err := util.ReadSnapshot(r, func(e util.SnapshotEntry) error {
		_, err := stmt.Exec(e.Key, e.Value, e.Index)
		return err
	})
	if err != nil {
		return err
	}

	if _, err = tx.Exec(replaceIdxSQL, header.WriteIndex); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}

	s.currIndex.Store(header.WriteIndex)
	return nil
}

// --------------------------------------------------------------------------
// Features and Metadata
// --------------------------------------------------------------------------

const supportedFeatures = db.FeatureSet |
	db.FeatureGet |
	db.FeatureDelete |
	db.FeatureHas |
	db.FeatureScan |
	db.FeatureSave |
	db.FeatureLoad |
	db.FeatureDurable

func (s *sqliteImpl) SupportsFeature(feature db.Feature) bool {
	return supportedFeatures&feature == feature
}

func (s *sqliteImpl) GetInfo() db.DatabaseInfo {
	var (
		entries int
		size    int
	)
	_ = s.sqlDB.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(length(CAST(key AS BLOB)) + length(value)), 0) FROM kv`,
	).Scan(&entries, &size)

	meta := &struct {
		Path              string `json:"path"`
		CurrentWriteIndex uint64 `json:"current_write_index"`
	}{
		Path:              s.path,
		CurrentWriteIndex: s.currIndex.Load(),
	}

	return db.DatabaseInfo{
		SizeBytes: size,
		Entries:   entries,
		DbType:    db.ImplSQLite,
		SupportedFeatures: []db.Feature{
			db.FeatureSet, db.FeatureGet, db.FeatureDelete, db.FeatureHas,
			db.FeatureScan, db.FeatureSave, db.FeatureLoad, db.FeatureDurable,
		},
		Metadata: meta,
	}
}

func (s *sqliteImpl) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// --------------------------------------------------------------------------
// Index Management
// --------------------------------------------------------------------------

// SetWriteIdx advances the in-memory index and persists it on a best-effort basis.
// Writes persist their index transactionally, so a lost update here is repaired
// by the next write.
func (s *sqliteImpl) SetWriteIdx(index uint64) {
	if s.advance(index) {
		_, _ = s.sqlDB.Exec(advanceIdxSQL, index)
	}
}

func (s *sqliteImpl) WriteIdx() uint64 {
	return s.currIndex.Load()
}

// advance raises the in-memory index and reports whether it changed
func (s *sqliteImpl) advance(newIdx uint64) bool {
	for {
		curr := s.currIndex.Load()
		if newIdx <= curr {
			return false
		}
		if s.currIndex.CompareAndSwap(curr, newIdx) {
			return true
		}
	}
}
