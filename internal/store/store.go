package store

import (
	"context"

	"github.com/sells-group/fieldops/internal/model"
)

// RecordField names an indexed record column usable for exact-value lookup.
type RecordField string

const (
	FieldEmail   RecordField = "email"
	FieldPhone   RecordField = "phone"
	FieldPlaceID RecordField = "place_id"
)

// column maps a RecordField to its column name, guarding against arbitrary
// strings reaching SQL.
func (f RecordField) column() (string, bool) {
	switch f {
	case FieldEmail, FieldPhone, FieldPlaceID:
		return string(f), true
	}
	return "", false
}

// Store defines persistence for customer records and numbered documents.
type Store interface {
	// Records
	CreateRecord(ctx context.Context, r model.Record) error
	GetRecord(ctx context.Context, id string) (*model.Record, error)
	UpdateRecord(ctx context.Context, r model.Record) error
	DeleteRecord(ctx context.Context, id string) error
	ListRecords(ctx context.Context, kind model.RecordKind) ([]model.Record, error)
	// FindRecordsByField is an index-backed exact lookup on email, phone,
	// or place_id.
	FindRecordsByField(ctx context.Context, kind model.RecordKind, field RecordField, value string) ([]model.Record, error)
	// BulkImportRecords upserts many records at once (conflict on id).
	BulkImportRecords(ctx context.Context, records []model.Record) (int64, error)

	// Documents
	CreateDocument(ctx context.Context, d model.Document) error
	GetDocument(ctx context.Context, id string) (*model.Document, error)
	ListDocuments(ctx context.Context, kind model.DocumentKind) ([]model.Document, error)
	// ListRecentDocuments returns the newest documents of a kind,
	// most-recently-created first.
	ListRecentDocuments(ctx context.Context, kind model.DocumentKind, limit int) ([]model.Document, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
