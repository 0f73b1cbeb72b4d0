package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/fieldops/internal/model"
	"github.com/sells-group/fieldops/internal/service"
	"github.com/sells-group/fieldops/pkg/pdfgen"
)

var documentFlags struct {
	kind      string
	accountID string
	items     []string
	out       string
}

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Manage quotes, work orders and invoices",
}

var documentsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a document with the next sequence number",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		kind := model.DocumentKind(documentFlags.kind)
		lineItems, err := parseLineItems(documentFlags.items)
		if err != nil {
			return err
		}

		e, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer e.Close()

		doc, err := e.documents.Create(ctx, kind, service.DocumentInput{
			AccountID: documentFlags.accountID,
			LineItems: lineItems,
		})
		if err != nil {
			return err
		}

		zap.L().Info("document created",
			zap.String("id", doc.ID),
			zap.String("number", doc.Number),
			zap.Float64("total", doc.Total),
		)
		fmt.Println(doc.Number)
		return nil
	},
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents of a kind, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		kind := model.DocumentKind(documentFlags.kind)
		if !kind.Valid() {
			return eris.Errorf("invalid kind %q", documentFlags.kind)
		}

		e, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer e.Close()

		docs, err := e.store.ListDocuments(ctx, kind)
		if err != nil {
			return err
		}
		for _, d := range docs {
			fmt.Printf("%s\t%s\t%s\t%.2f\n", d.Number, d.Status, d.CreatedAt.Format("2006-01-02"), d.Total)
		}
		return nil
	},
}

var documentsPDFCmd = &cobra.Command{
	Use:   "pdf <id>",
	Short: "Render a document to PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer e.Close()

		doc, err := e.store.GetDocument(ctx, args[0])
		if err != nil {
			return err
		}
		if doc == nil {
			return eris.Errorf("document %s not found", args[0])
		}

		renderer := pdfgen.NewClient(cfg.PDF.BaseURL)
		pdf, err := renderer.Render(ctx, doc)
		if err != nil {
			return err
		}

		out := documentFlags.out
		if out == "" {
			out = doc.Number + ".pdf"
		}
		if err := os.WriteFile(out, pdf, 0o644); err != nil {
			return eris.Wrap(err, "write pdf")
		}

		zap.L().Info("pdf written", zap.String("path", out), zap.Int("bytes", len(pdf)))
		return nil
	},
}

// parseLineItems parses repeated --item flags of the form
// "description|quantity|unit_price".
func parseLineItems(items []string) ([]model.LineItem, error) {
	lineItems := make([]model.LineItem, 0, len(items))
	for _, item := range items {
		parts := strings.Split(item, "|")
		if len(parts) != 3 {
			return nil, eris.Errorf("invalid line item %q (want description|quantity|unit_price)", item)
		}
		qty, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, eris.Errorf("invalid quantity in line item %q", item)
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil {
			return nil, eris.Errorf("invalid unit price in line item %q", item)
		}
		lineItems = append(lineItems, model.LineItem{
			Description: strings.TrimSpace(parts[0]),
			Quantity:    qty,
			UnitPrice:   price,
		})
	}
	return lineItems, nil
}

func init() {
	for _, c := range []*cobra.Command{documentsCreateCmd, documentsListCmd} {
		c.Flags().StringVar(&documentFlags.kind, "kind", "quote", "document kind: quote, work_order or invoice")
	}
	documentsCreateCmd.Flags().StringVar(&documentFlags.accountID, "account", "", "account record ID (required)")
	documentsCreateCmd.Flags().StringArrayVar(&documentFlags.items, "item", nil, `line item as "description|quantity|unit_price" (repeatable)`)
	_ = documentsCreateCmd.MarkFlagRequired("account")
	documentsPDFCmd.Flags().StringVar(&documentFlags.out, "out", "", "output path (default <number>.pdf)")

	documentsCmd.AddCommand(documentsCreateCmd, documentsListCmd, documentsPDFCmd)
	rootCmd.AddCommand(documentsCmd)
}
