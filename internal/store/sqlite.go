package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/fieldops/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS records (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	name       TEXT NOT NULL DEFAULT '',
	first_name TEXT NOT NULL DEFAULT '',
	last_name  TEXT NOT NULL DEFAULT '',
	email      TEXT NOT NULL DEFAULT '',
	phone      TEXT NOT NULL DEFAULT '',
	place_id   TEXT NOT NULL DEFAULT '',
	address    TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_kind ON records(kind);
CREATE INDEX IF NOT EXISTS idx_records_kind_email ON records(kind, email);
CREATE INDEX IF NOT EXISTS idx_records_kind_phone ON records(kind, phone);
CREATE INDEX IF NOT EXISTS idx_records_kind_place ON records(kind, place_id);

CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	number     TEXT NOT NULL UNIQUE,
	account_id TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'draft',
	line_items TEXT NOT NULL DEFAULT '[]',
	total      REAL NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_kind_created ON documents(kind, created_at DESC);

CREATE TABLE IF NOT EXISTS document_counters (
	kind    TEXT NOT NULL,
	day     TEXT NOT NULL,
	counter INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (kind, day)
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRecord(ctx context.Context, r model.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO records (id, kind, name, first_name, last_name, email, phone, place_id, address, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, string(r.Kind), r.Name, r.FirstName, r.LastName, r.Email, r.Phone, r.PlaceID, r.Address, r.CreatedAt, r.UpdatedAt,
	)
	return eris.Wrap(err, "sqlite: insert record")
}

func (s *SQLiteStore) GetRecord(ctx context.Context, id string) (*model.Record, error) {
	var r model.Record
	err := s.db.QueryRowContext(ctx,
		`SELECT id, kind, name, first_name, last_name, email, phone, place_id, address, created_at, updated_at FROM records WHERE id = ?`,
		id,
	).Scan(&r.ID, &r.Kind, &r.Name, &r.FirstName, &r.LastName, &r.Email, &r.Phone, &r.PlaceID, &r.Address, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get record %s", id)
	}
	return &r, nil
}

func (s *SQLiteStore) UpdateRecord(ctx context.Context, r model.Record) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE records SET name = ?, first_name = ?, last_name = ?, email = ?, phone = ?, place_id = ?, address = ?, updated_at = ?
		 WHERE id = ?`,
		r.Name, r.FirstName, r.LastName, r.Email, r.Phone, r.PlaceID, r.Address, time.Now().UTC(), r.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update record %s", r.ID)
	}
	return checkRowsAffected(res, "record", r.ID)
}

func (s *SQLiteStore) DeleteRecord(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	return eris.Wrapf(err, "sqlite: delete record %s", id)
}

func (s *SQLiteStore) ListRecords(ctx context.Context, kind model.RecordKind) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, name, first_name, last_name, email, phone, place_id, address, created_at, updated_at FROM records
		 WHERE kind = ? ORDER BY created_at DESC`,
		string(kind),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list records")
	}
	defer rows.Close()
	return scanSQLiteRecords(rows)
}

func (s *SQLiteStore) FindRecordsByField(ctx context.Context, kind model.RecordKind, field RecordField, value string) ([]model.Record, error) {
	col, ok := field.column()
	if !ok {
		return nil, eris.Errorf("sqlite: unsupported lookup field %q", field)
	}
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, kind, name, first_name, last_name, email, phone, place_id, address, created_at, updated_at FROM records
		 WHERE kind = ? AND %s = ? ORDER BY created_at DESC`, col),
		string(kind), value,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: find records by %s", col)
	}
	defer rows.Close()
	return scanSQLiteRecords(rows)
}

func scanSQLiteRecords(rows *sql.Rows) ([]model.Record, error) {
	var records []model.Record
	for rows.Next() {
		var r model.Record
		if err := rows.Scan(&r.ID, &r.Kind, &r.Name, &r.FirstName, &r.LastName, &r.Email, &r.Phone, &r.PlaceID, &r.Address, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: iterate records")
}

func (s *SQLiteStore) BulkImportRecords(ctx context.Context, records []model.Record) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: bulk import begin tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (id, kind, name, first_name, last_name, email, phone, place_id, address, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name, first_name = excluded.first_name, last_name = excluded.last_name,
		   email = excluded.email, phone = excluded.phone, place_id = excluded.place_id,
		   address = excluded.address, updated_at = excluded.updated_at`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: bulk import prepare")
	}
	defer stmt.Close()

	var n int64
	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			r.ID, string(r.Kind), r.Name, r.FirstName, r.LastName,
			r.Email, r.Phone, r.PlaceID, r.Address, r.CreatedAt, r.UpdatedAt,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: bulk import record %s", r.ID)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: bulk import commit")
	}
	return n, nil
}

func (s *SQLiteStore) CreateDocument(ctx context.Context, d model.Document) error {
	itemsJSON, err := json.Marshal(d.LineItems)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal line items")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (id, kind, number, account_id, status, line_items, total, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, string(d.Kind), d.Number, d.AccountID, string(d.Status), string(itemsJSON), d.Total, d.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert document %s", d.Number)
}

func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	var d model.Document
	var itemsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, kind, number, account_id, status, line_items, total, created_at FROM documents WHERE id = ?`,
		id,
	).Scan(&d.ID, &d.Kind, &d.Number, &d.AccountID, &d.Status, &itemsJSON, &d.Total, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get document %s", id)
	}
	if err := json.Unmarshal([]byte(itemsJSON), &d.LineItems); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal line items")
	}
	return &d, nil
}

func (s *SQLiteStore) ListDocuments(ctx context.Context, kind model.DocumentKind) ([]model.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, number, account_id, status, line_items, total, created_at FROM documents
		 WHERE kind = ? ORDER BY created_at DESC`,
		string(kind),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list documents")
	}
	defer rows.Close()
	return scanSQLiteDocuments(rows)
}

func (s *SQLiteStore) ListRecentDocuments(ctx context.Context, kind model.DocumentKind, limit int) ([]model.Document, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, number, account_id, status, line_items, total, created_at FROM documents
		 WHERE kind = ? ORDER BY created_at DESC, number DESC LIMIT ?`,
		string(kind), limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list recent documents")
	}
	defer rows.Close()
	return scanSQLiteDocuments(rows)
}

func scanSQLiteDocuments(rows *sql.Rows) ([]model.Document, error) {
	var docs []model.Document
	for rows.Next() {
		var d model.Document
		var itemsJSON string
		if err := rows.Scan(&d.ID, &d.Kind, &d.Number, &d.AccountID, &d.Status, &itemsJSON, &d.Total, &d.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan document")
		}
		if err := json.Unmarshal([]byte(itemsJSON), &d.LineItems); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal line items")
		}
		docs = append(docs, d)
	}
	return docs, eris.Wrap(rows.Err(), "sqlite: iterate documents")
}

// checkRowsAffected converts a zero-row update into a not-found error.
func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "sqlite: rows affected for %s %s", entity, id)
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
