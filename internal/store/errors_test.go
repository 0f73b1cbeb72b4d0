package store

import (
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "documents_number_key"}

	assert.True(t, IsUniqueViolation(pgErr))
	assert.True(t, IsUniqueViolation(eris.Wrap(pgErr, "postgres: insert document")))
	assert.True(t, IsUniqueViolation(eris.New("constraint failed: UNIQUE constraint failed: documents.number")))

	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(eris.New("postgres: connection refused")))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
}
