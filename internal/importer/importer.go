// Package importer bulk-imports records from XLSX spreadsheets with
// duplicate detection.
package importer

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/fieldops/internal/model"
	"github.com/sells-group/fieldops/internal/service"
	"github.com/sells-group/fieldops/internal/store"
)

// DefaultConcurrency bounds how many rows are checked for duplicates at once.
const DefaultConcurrency = 4

// recognized header names, lowercased
var columnAliases = map[string]string{
	"name":           "name",
	"company":        "name",
	"company name":   "name",
	"first name":     "first_name",
	"first_name":     "first_name",
	"last name":      "last_name",
	"last_name":      "last_name",
	"email":          "email",
	"email address":  "email",
	"phone":          "phone",
	"phone number":   "phone",
	"place id":       "place_id",
	"place_id":       "place_id",
	"address":        "address",
	"street address": "address",
}

// ParseRows converts a header row plus data rows into import candidates of
// the given kind. Unrecognized columns are ignored; rows with no usable
// values are dropped.
func ParseRows(kind model.RecordKind, rows [][]string) ([]model.Candidate, error) {
	if len(rows) == 0 {
		return nil, eris.New("importer: no rows")
	}

	fields := make(map[int]string)
	for i, h := range rows[0] {
		if field, ok := columnAliases[strings.ToLower(strings.TrimSpace(h))]; ok {
			fields[i] = field
		}
	}
	if len(fields) == 0 {
		return nil, eris.New("importer: no recognized columns in header row")
	}

	var candidates []model.Candidate
	for _, row := range rows[1:] {
		c := model.Candidate{Kind: kind}
		empty := true
		for i, field := range fields {
			if i >= len(row) {
				continue
			}
			val := strings.TrimSpace(row[i])
			if val == "" {
				continue
			}
			empty = false
			switch field {
			case "name":
				c.Name = val
			case "first_name":
				c.FirstName = val
			case "last_name":
				c.LastName = val
			case "email":
				c.Email = val
			case "phone":
				c.Phone = val
			case "place_id":
				c.PlaceID = val
			case "address":
				c.Address = val
			}
		}
		if empty {
			continue
		}
		candidates = append(candidates, c)
	}

	return candidates, nil
}

// Result summarizes an import run.
type Result struct {
	Created int64
	Skipped int64
	Failed  int64
}

// Import creates the candidates through the record service, skipping rows
// that match existing records.
func Import(ctx context.Context, svc *service.RecordService, candidates []model.Candidate, concurrency int) (*Result, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var created, skipped, failed atomic.Int64

	for _, c := range candidates {
		c := c
		g.Go(func() error {
			rec, err := svc.Create(gctx, c)
			if err != nil {
				if _, ok := service.AsDuplicateError(err); ok {
					skipped.Add(1)
					zap.L().Debug("skipping duplicate row",
						zap.String("name", c.Name),
						zap.String("email", c.Email),
					)
					return nil
				}
				failed.Add(1)
				zap.L().Error("row import failed",
					zap.String("name", c.Name),
					zap.Error(err),
				)
				return nil // don't abort the batch on individual failure
			}

			created.Add(1)
			zap.L().Debug("row imported", zap.String("id", rec.ID))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "importer: run batch")
	}

	return &Result{
		Created: created.Load(),
		Skipped: skipped.Load(),
		Failed:  failed.Load(),
	}, nil
}

// BulkImport writes candidates to the store in a single batch upsert,
// bypassing duplicate detection. Meant for trusted exports that were already
// deduplicated upstream.
func BulkImport(ctx context.Context, st store.Store, candidates []model.Candidate) (int64, error) {
	now := time.Now().UTC()
	records := make([]model.Record, 0, len(candidates))
	for _, c := range candidates {
		if !c.Kind.Valid() {
			return 0, eris.Errorf("importer: unknown kind %q", c.Kind)
		}
		records = append(records, model.Record{
			ID:        uuid.New().String(),
			Kind:      c.Kind,
			Name:      c.Name,
			FirstName: c.FirstName,
			LastName:  c.LastName,
			Email:     c.Email,
			Phone:     c.Phone,
			PlaceID:   c.PlaceID,
			Address:   c.Address,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	n, err := st.BulkImportRecords(ctx, records)
	if err != nil {
		return 0, eris.Wrap(err, "importer: bulk write")
	}
	zap.L().Info("bulk import complete", zap.Int64("written", n))
	return n, nil
}
