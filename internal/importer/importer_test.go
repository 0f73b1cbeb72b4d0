package importer

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/fieldops/internal/match"
	"github.com/sells-group/fieldops/internal/model"
	"github.com/sells-group/fieldops/internal/service"
	"github.com/sells-group/fieldops/internal/store"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "test.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadXLSX(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Leads": {
			{"Name", "Email", "Phone"},
			{"Acme Plumbing", "info@acme.example", "555-0134"},
		},
	})

	rows, err := ReadXLSX(path, XLSXOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Name", "Email", "Phone"}, rows[0])
	assert.Equal(t, []string{"Acme Plumbing", "info@acme.example", "555-0134"}, rows[1])
}

func TestReadXLSX_SheetNotFound(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Leads": {{"Name"}},
	})

	_, err := ReadXLSX(path, XLSXOptions{SheetName: "Missing"})
	assert.ErrorContains(t, err, `sheet "Missing" not found`)
}

func TestParseRows(t *testing.T) {
	rows := [][]string{
		{"Company Name", "Email Address", "Phone", "Street Address", "Notes"},
		{"Acme Plumbing", "info@acme.example", "555-0134", "123 Main St", "vip"},
		{" Shelby HVAC ", "", "555-0177", "", "cold"},
		{"", "", "", "", ""},
	}

	candidates, err := ParseRows(model.KindLead, rows)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	assert.Equal(t, model.KindLead, candidates[0].Kind)
	assert.Equal(t, "Acme Plumbing", candidates[0].Name)
	assert.Equal(t, "info@acme.example", candidates[0].Email)
	assert.Equal(t, "555-0134", candidates[0].Phone)
	assert.Equal(t, "123 Main St", candidates[0].Address)

	// whitespace trimmed, blank cells left unset
	assert.Equal(t, "Shelby HVAC", candidates[1].Name)
	assert.Empty(t, candidates[1].Email)
}

func TestParseRows_ContactColumns(t *testing.T) {
	rows := [][]string{
		{"First Name", "Last Name", "Email"},
		{"Jane", "Doe", "jane@example.com"},
	}

	candidates, err := ParseRows(model.KindContact, rows)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Jane", candidates[0].FirstName)
	assert.Equal(t, "Doe", candidates[0].LastName)
}

func TestParseRows_NoRecognizedColumns(t *testing.T) {
	rows := [][]string{
		{"Foo", "Bar"},
		{"a", "b"},
	}

	_, err := ParseRows(model.KindLead, rows)
	assert.ErrorContains(t, err, "no recognized columns")
}

func TestParseRows_Empty(t *testing.T) {
	_, err := ParseRows(model.KindLead, nil)
	assert.Error(t, err)
}

func newTestService(t *testing.T) *service.RecordService {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "importer_test.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })
	return service.NewRecordService(st, match.DefaultThresholds)
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	// Seed an existing lead that one of the rows duplicates.
	_, err := svc.Create(ctx, model.Candidate{
		Kind:  model.KindLead,
		Name:  "Acme Plumbing",
		Email: "info@acme.example",
	})
	require.NoError(t, err)

	candidates := []model.Candidate{
		{Kind: model.KindLead, Name: "Acme Plumbing Co", Email: "info@acme.example"},
		{Kind: model.KindLead, Name: "Shelby HVAC", Email: "office@shelbyhvac.example"},
		{Kind: model.KindLead, Name: "Riverside Electric", Phone: "555-0199"},
	}

	result, err := Import(ctx, svc, candidates, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Created)
	assert.Equal(t, int64(1), result.Skipped)
	assert.Equal(t, int64(0), result.Failed)
}

func TestBulkImport(t *testing.T) {
	ctx := context.Background()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "bulk_test.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(ctx))
	t.Cleanup(func() { _ = st.Close() })

	// Seed a record that duplicates one of the rows; the bulk path must not
	// skip it.
	svc := service.NewRecordService(st, match.DefaultThresholds)
	_, err = svc.Create(ctx, model.Candidate{
		Kind:  model.KindLead,
		Name:  "Acme Plumbing",
		Email: "info@acme.example",
	})
	require.NoError(t, err)

	written, err := BulkImport(ctx, st, []model.Candidate{
		{Kind: model.KindLead, Name: "Acme Plumbing Co", Email: "info@acme.example"},
		{Kind: model.KindLead, Name: "Shelby HVAC", Phone: "555-0177"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), written)

	leads, err := st.ListRecords(ctx, model.KindLead)
	require.NoError(t, err)
	assert.Len(t, leads, 3)
}

func TestBulkImport_InvalidKind(t *testing.T) {
	ctx := context.Background()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "bulk_kind_test.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(ctx))
	t.Cleanup(func() { _ = st.Close() })

	_, err = BulkImport(ctx, st, []model.Candidate{{Kind: "widget", Name: "x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown kind")
}

func TestImport_InvalidKindCountsAsFailed(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	result, err := Import(ctx, svc, []model.Candidate{
		{Kind: "widget", Name: "Broken Row"},
	}, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Failed)
	assert.Equal(t, int64(0), result.Created)
}
