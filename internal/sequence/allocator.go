package sequence

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/fieldops/internal/db"
	"github.com/sells-group/fieldops/internal/model"
)

// CounterAllocator mints document numbers from a single-row-per-(kind, day)
// counter table, updated atomically. Unlike Next, two concurrent allocations
// can never produce the same number.
type CounterAllocator struct {
	pool db.Pool
}

// NewCounterAllocator creates an allocator over the given pool. The
// document_counters table is created by the store migration.
func NewCounterAllocator(pool db.Pool) *CounterAllocator {
	return &CounterAllocator{pool: pool}
}

// Next atomically increments and returns the next number for kind on the
// given date.
func (a *CounterAllocator) Next(ctx context.Context, kind model.DocumentKind, today time.Time) (string, error) {
	dateStr := today.UTC().Format(dateLayout)

	var counter int
	err := a.pool.QueryRow(ctx,
		`INSERT INTO document_counters (kind, day, counter) VALUES ($1, $2, 1)
		 ON CONFLICT (kind, day) DO UPDATE SET counter = document_counters.counter + 1
		 RETURNING counter`,
		string(kind), dateStr,
	).Scan(&counter)
	if err != nil {
		return "", eris.Wrapf(err, "sequence: allocate %s counter", kind)
	}

	return fmt.Sprintf("%s-%s-%04d", Prefix(kind), dateStr, counter), nil
}
