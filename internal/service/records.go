// Package service implements the write-paths for customer records and
// numbered documents: duplicate detection before inserts, and sequence
// number minting for document creation.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fieldops/internal/match"
	"github.com/sells-group/fieldops/internal/model"
	"github.com/sells-group/fieldops/internal/store"
)

// DuplicateError reports that a candidate looks like one or more existing
// records. It is advisory: the operator can retry with IgnoreDuplicates set.
type DuplicateError struct {
	Matches []model.Record
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("found %d likely duplicate record(s)", len(e.Matches))
}

// ErrRecordNotFound is returned when an update targets a missing record.
var ErrRecordNotFound = eris.New("records: not found")

// AsDuplicateError unwraps err to a *DuplicateError if there is one.
func AsDuplicateError(err error) (*DuplicateError, bool) {
	var dup *DuplicateError
	if errors.As(err, &dup) {
		return dup, true
	}
	return nil, false
}

// RecordService creates and updates leads, contacts, and accounts, running
// duplicate detection before every write.
type RecordService struct {
	store      store.Store
	thresholds match.Thresholds
}

// NewRecordService builds a RecordService. Zero thresholds fall back to
// match.DefaultThresholds.
func NewRecordService(st store.Store, th match.Thresholds) *RecordService {
	return &RecordService{store: st, thresholds: th}
}

// Create inserts a new record unless duplicate detection flags existing
// matches. A non-nil *DuplicateError carries the matches for the operator to
// review; setting c.IgnoreDuplicates overrides the check.
func (s *RecordService) Create(ctx context.Context, c model.Candidate) (*model.Record, error) {
	if !c.Kind.Valid() {
		return nil, eris.Errorf("records: unknown kind %q", c.Kind)
	}

	if err := s.checkDuplicates(ctx, c); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	r := model.Record{
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
	}
	if err := s.store.CreateRecord(ctx, r); err != nil {
		return nil, eris.Wrapf(err, "records: create %s", c.Kind)
	}

	zap.L().Info("record created",
		zap.String("kind", string(r.Kind)),
		zap.String("id", r.ID),
	)
	return &r, nil
}

// Update edits an existing record. The record's own ID is excluded from
// duplicate detection so an unchanged edit never flags itself.
func (s *RecordService) Update(ctx context.Context, id string, c model.Candidate) (*model.Record, error) {
	existing, err := s.store.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, eris.Wrap(ErrRecordNotFound, id)
	}

	c.Kind = existing.Kind
	c.ExcludeID = id
	if err := s.checkDuplicates(ctx, c); err != nil {
		return nil, err
	}

	r := *existing
	r.Name = c.Name
	r.FirstName = c.FirstName
	r.LastName = c.LastName
	r.Email = c.Email
	r.Phone = c.Phone
	r.PlaceID = c.PlaceID
	r.Address = c.Address
	if err := s.store.UpdateRecord(ctx, r); err != nil {
		return nil, eris.Wrapf(err, "records: update %s", id)
	}

	zap.L().Info("record updated",
		zap.String("kind", string(r.Kind)),
		zap.String("id", r.ID),
	)
	return &r, nil
}

// FindDuplicates runs detection for a candidate without writing anything.
func (s *RecordService) FindDuplicates(ctx context.Context, c model.Candidate) ([]model.Record, error) {
	existing, err := s.store.ListRecords(ctx, c.Kind)
	if err != nil {
		return nil, eris.Wrap(err, "records: list for duplicate check")
	}
	det := match.NewDetector(c.Kind, s.thresholds)
	return det.FindDuplicates(c, existing), nil
}

func (s *RecordService) checkDuplicates(ctx context.Context, c model.Candidate) error {
	if c.IgnoreDuplicates {
		return nil
	}
	matches, err := s.FindDuplicates(ctx, c)
	if err != nil {
		return err
	}
	if len(matches) > 0 {
		zap.L().Info("duplicate candidates found",
			zap.String("kind", string(c.Kind)),
			zap.Int("matches", len(matches)),
		)
		return &DuplicateError{Matches: matches}
	}
	return nil
}
