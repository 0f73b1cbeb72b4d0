package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fieldops/internal/model"
	"github.com/sells-group/fieldops/internal/sequence"
	"github.com/sells-group/fieldops/internal/store"
)

// numberAttempts bounds retries when a windowed number collides with a
// concurrent insert.
const numberAttempts = 3

// NumberAllocator mints the next document number atomically. The Postgres
// backend provides sequence.CounterAllocator; when nil, DocumentService falls
// back to the recent-window generator plus retry on number collision.
type NumberAllocator interface {
	Next(ctx context.Context, kind model.DocumentKind, today time.Time) (string, error)
}

// DocumentInput carries the caller-supplied fields for a new document.
type DocumentInput struct {
	AccountID string           `json:"account_id"`
	LineItems []model.LineItem `json:"line_items,omitempty"`
}

// DocumentService creates quotes, work orders, and invoices with sequential
// display numbers.
type DocumentService struct {
	store     store.Store
	allocator NumberAllocator
	window    int
	now       func() time.Time
}

// NewDocumentService builds a DocumentService. allocator may be nil. window
// is how many recent documents the number generator inspects; zero or
// negative falls back to sequence.RecentWindow.
func NewDocumentService(st store.Store, allocator NumberAllocator, window int) *DocumentService {
	if window <= 0 {
		window = sequence.RecentWindow
	}
	return &DocumentService{store: st, allocator: allocator, window: window, now: time.Now}
}

// Create mints the next number for kind and inserts the document.
//
// With an allocator, numbering is atomic and a collision is impossible. On
// the windowed path, a duplicate number raised by the store's uniqueness
// constraint triggers a re-read of the window and another attempt.
func (s *DocumentService) Create(ctx context.Context, kind model.DocumentKind, in DocumentInput) (*model.Document, error) {
	if !kind.Valid() {
		return nil, eris.Errorf("documents: unknown kind %q", kind)
	}

	var lastErr error
	for attempt := 0; attempt < numberAttempts; attempt++ {
		number, err := s.nextNumber(ctx, kind)
		if err != nil {
			return nil, err
		}

		doc := model.Document{
			ID:        uuid.New().String(),
			Kind:      kind,
			Number:    number,
			AccountID: in.AccountID,
			Status:    model.DocumentStatusDraft,
			LineItems: in.LineItems,
			CreatedAt: s.now().UTC(),
		}
		doc.Total = doc.SumLineItems()

		err = s.store.CreateDocument(ctx, doc)
		if err == nil {
			zap.L().Info("document created",
				zap.String("kind", string(kind)),
				zap.String("number", doc.Number),
			)
			return &doc, nil
		}
		if !store.IsUniqueViolation(err) {
			return nil, err
		}
		lastErr = err
		zap.L().Warn("document number collision, retrying",
			zap.String("kind", string(kind)),
			zap.String("number", number),
			zap.Int("attempt", attempt+1),
		)
	}
	return nil, eris.Wrapf(lastErr, "documents: gave up after %d number collisions", numberAttempts)
}

func (s *DocumentService) nextNumber(ctx context.Context, kind model.DocumentKind) (string, error) {
	today := s.now().UTC()
	if s.allocator != nil {
		return s.allocator.Next(ctx, kind, today)
	}
	recent, err := s.store.ListRecentDocuments(ctx, kind, s.window)
	if err != nil {
		return "", eris.Wrap(err, "documents: read recent window")
	}
	return sequence.Next(kind, today, recent), nil
}
