package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/fieldops/internal/importer"
	"github.com/sells-group/fieldops/internal/model"
)

var importFlags struct {
	kind        string
	sheet       string
	concurrency int
	noDedupe    bool
}

var importCmd = &cobra.Command{
	Use:   "import <file.xlsx>",
	Short: "Import records from an XLSX spreadsheet, skipping duplicates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		kind := model.RecordKind(importFlags.kind)
		if !kind.Valid() {
			return eris.Errorf("invalid kind %q", importFlags.kind)
		}

		rows, err := importer.ReadXLSX(args[0], importer.XLSXOptions{SheetName: importFlags.sheet})
		if err != nil {
			return err
		}

		candidates, err := importer.ParseRows(kind, rows)
		if err != nil {
			return err
		}

		e, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer e.Close()

		if importFlags.noDedupe {
			written, err := importer.BulkImport(ctx, e.store, candidates)
			if err != nil {
				return err
			}
			zap.L().Info("import complete",
				zap.String("file", args[0]),
				zap.Int64("written", written),
			)
			return nil
		}

		result, err := importer.Import(ctx, e.records, candidates, importFlags.concurrency)
		if err != nil {
			return err
		}

		zap.L().Info("import complete",
			zap.String("file", args[0]),
			zap.Int64("created", result.Created),
			zap.Int64("skipped", result.Skipped),
			zap.Int64("failed", result.Failed),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFlags.kind, "kind", "lead", "record kind to import")
	importCmd.Flags().StringVar(&importFlags.sheet, "sheet", "", "sheet name (default first sheet)")
	importCmd.Flags().IntVar(&importFlags.concurrency, "concurrency", importer.DefaultConcurrency, "concurrent duplicate checks")
	importCmd.Flags().BoolVar(&importFlags.noDedupe, "no-dedupe", false, "skip duplicate detection and batch-write all rows")
	rootCmd.AddCommand(importCmd)
}
