package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// BulkUpsert loads rows into table in one round trip: COPY into a temp
// staging table, then INSERT ... ON CONFLICT (keys) DO UPDATE into the
// target. Every column not in keys is overwritten from the incoming row on
// conflict. Returns the number of rows written.
func BulkUpsert(ctx context.Context, pool Pool, table string, columns, keys []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(columns) == 0 {
		return 0, eris.Errorf("db: upsert %s: no columns specified", table)
	}
	if len(keys) == 0 {
		return 0, eris.Errorf("db: upsert %s: no conflict keys specified", table)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrapf(err, "db: upsert %s: begin tx", table)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	staging := "_staging_" + table
	if _, err := tx.Exec(ctx, fmt.Sprintf(
		"CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP",
		pgx.Identifier{staging}.Sanitize(),
		pgx.Identifier{table}.Sanitize(),
	)); err != nil {
		return 0, eris.Wrapf(err, "db: upsert %s: create staging table", table)
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{staging}, columns, pgx.CopyFromRows(rows)); err != nil {
		return 0, eris.Wrapf(err, "db: upsert %s: copy into staging table", table)
	}

	tag, err := tx.Exec(ctx, upsertSQL(table, staging, columns, keys))
	if err != nil {
		return 0, eris.Wrapf(err, "db: upsert %s: merge from staging table", table)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrapf(err, "db: upsert %s: commit tx", table)
	}
	return tag.RowsAffected(), nil
}

// upsertSQL builds the INSERT ... ON CONFLICT DO UPDATE statement merging the
// staging table into the target.
func upsertSQL(table, staging string, columns, keys []string) string {
	keySet := make(map[string]bool, len(keys))
	for _, k := range keys {
		keySet[k] = true
	}
	var sets []string
	for _, c := range columns {
		if !keySet[c] {
			q := pgx.Identifier{c}.Sanitize()
			sets = append(sets, q+" = EXCLUDED."+q)
		}
	}

	colList := quoteAndJoin(columns)
	return fmt.Sprintf(
		"INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT (%s) DO UPDATE SET %s",
		pgx.Identifier{table}.Sanitize(),
		colList,
		colList,
		pgx.Identifier{staging}.Sanitize(),
		quoteAndJoin(keys),
		strings.Join(sets, ", "),
	)
}

func quoteAndJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
