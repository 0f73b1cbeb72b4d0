package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/fieldops/internal/db"
	"github.com/sells-group/fieldops/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot write-path operations.
var preparedStatements = map[string]string{
	"insert_record": `INSERT INTO records (id, kind, name, first_name, last_name, email, phone, place_id, address, created_at, updated_at)
	                  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
	"get_record":       `SELECT id, kind, name, first_name, last_name, email, phone, place_id, address, created_at, updated_at FROM records WHERE id = $1`,
	"list_records":     `SELECT id, kind, name, first_name, last_name, email, phone, place_id, address, created_at, updated_at FROM records WHERE kind = $1 ORDER BY created_at DESC`,
	"insert_document":  `INSERT INTO documents (id, kind, number, account_id, status, line_items, total, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
	"recent_documents": `SELECT id, kind, number, account_id, status, line_items, total, created_at FROM documents WHERE kind = $1 ORDER BY created_at DESC, number DESC LIMIT $2`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for subsystems that need direct
// query access (e.g., the sequence counter allocator).
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
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
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
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
	line_items JSONB NOT NULL DEFAULT '[]',
	total      DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_documents_kind_created ON documents(kind, created_at DESC);

CREATE TABLE IF NOT EXISTS document_counters (
	kind    TEXT NOT NULL,
	day     TEXT NOT NULL,
	counter INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (kind, day)
);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRecord(ctx context.Context, r model.Record) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO records (id, kind, name, first_name, last_name, email, phone, place_id, address, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		r.ID, string(r.Kind), r.Name, r.FirstName, r.LastName, r.Email, r.Phone, r.PlaceID, r.Address, r.CreatedAt, r.UpdatedAt,
	)
	return eris.Wrap(err, "postgres: insert record")
}

func (s *PostgresStore) GetRecord(ctx context.Context, id string) (*model.Record, error) {
	var r model.Record
	err := s.pool.QueryRow(ctx,
		`SELECT id, kind, name, first_name, last_name, email, phone, place_id, address, created_at, updated_at FROM records WHERE id = $1`,
		id,
	).Scan(&r.ID, &r.Kind, &r.Name, &r.FirstName, &r.LastName, &r.Email, &r.Phone, &r.PlaceID, &r.Address, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get record %s", id)
	}
	return &r, nil
}

func (s *PostgresStore) UpdateRecord(ctx context.Context, r model.Record) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE records SET name = $1, first_name = $2, last_name = $3, email = $4, phone = $5, place_id = $6, address = $7, updated_at = $8
		 WHERE id = $9`,
		r.Name, r.FirstName, r.LastName, r.Email, r.Phone, r.PlaceID, r.Address, time.Now().UTC(), r.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update record %s", r.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("record not found: %s", r.ID)
	}
	return nil
}

func (s *PostgresStore) DeleteRecord(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM records WHERE id = $1`, id)
	return eris.Wrapf(err, "postgres: delete record %s", id)
}

func (s *PostgresStore) ListRecords(ctx context.Context, kind model.RecordKind) ([]model.Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, kind, name, first_name, last_name, email, phone, place_id, address, created_at, updated_at FROM records
		 WHERE kind = $1 ORDER BY created_at DESC`,
		string(kind),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list records")
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *PostgresStore) FindRecordsByField(ctx context.Context, kind model.RecordKind, field RecordField, value string) ([]model.Record, error) {
	col, ok := field.column()
	if !ok {
		return nil, eris.Errorf("postgres: unsupported lookup field %q", field)
	}
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT id, kind, name, first_name, last_name, email, phone, place_id, address, created_at, updated_at FROM records
		 WHERE kind = $1 AND %s = $2 ORDER BY created_at DESC`, col),
		string(kind), value,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: find records by %s", col)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows pgx.Rows) ([]model.Record, error) {
	var records []model.Record
	for rows.Next() {
		var r model.Record
		if err := rows.Scan(&r.ID, &r.Kind, &r.Name, &r.FirstName, &r.LastName, &r.Email, &r.Phone, &r.PlaceID, &r.Address, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "postgres: iterate records")
}

func (s *PostgresStore) BulkImportRecords(ctx context.Context, records []model.Record) (int64, error) {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, []any{
			r.ID, string(r.Kind), r.Name, r.FirstName, r.LastName,
			r.Email, r.Phone, r.PlaceID, r.Address, r.CreatedAt, r.UpdatedAt,
		})
	}
	n, err := db.BulkUpsert(ctx, s.pool, "records",
		[]string{"id", "kind", "name", "first_name", "last_name", "email", "phone", "place_id", "address", "created_at", "updated_at"},
		[]string{"id"}, rows)
	return n, eris.Wrap(err, "postgres: bulk import records")
}

func (s *PostgresStore) CreateDocument(ctx context.Context, d model.Document) error {
	itemsJSON, err := json.Marshal(d.LineItems)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal line items")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO documents (id, kind, number, account_id, status, line_items, total, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		d.ID, string(d.Kind), d.Number, d.AccountID, string(d.Status), itemsJSON, d.Total, d.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert document %s", d.Number)
}

func (s *PostgresStore) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	var d model.Document
	var itemsJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, kind, number, account_id, status, line_items, total, created_at FROM documents WHERE id = $1`,
		id,
	).Scan(&d.ID, &d.Kind, &d.Number, &d.AccountID, &d.Status, &itemsJSON, &d.Total, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get document %s", id)
	}
	if err := json.Unmarshal(itemsJSON, &d.LineItems); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal line items")
	}
	return &d, nil
}

func (s *PostgresStore) ListDocuments(ctx context.Context, kind model.DocumentKind) ([]model.Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, kind, number, account_id, status, line_items, total, created_at FROM documents
		 WHERE kind = $1 ORDER BY created_at DESC`,
		string(kind),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list documents")
	}
	defer rows.Close()
	return scanDocuments(rows)
}

func (s *PostgresStore) ListRecentDocuments(ctx context.Context, kind model.DocumentKind, limit int) ([]model.Document, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, kind, number, account_id, status, line_items, total, created_at FROM documents
		 WHERE kind = $1 ORDER BY created_at DESC, number DESC LIMIT $2`,
		string(kind), limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list recent documents")
	}
	defer rows.Close()
	return scanDocuments(rows)
}

func scanDocuments(rows pgx.Rows) ([]model.Document, error) {
	var docs []model.Document
	for rows.Next() {
		var d model.Document
		var itemsJSON []byte
		if err := rows.Scan(&d.ID, &d.Kind, &d.Number, &d.AccountID, &d.Status, &itemsJSON, &d.Total, &d.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan document")
		}
		if err := json.Unmarshal(itemsJSON, &d.LineItems); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal line items")
		}
		docs = append(docs, d)
	}
	return docs, eris.Wrap(rows.Err(), "postgres: iterate documents")
}
