package model

import "time"

// DocumentKind identifies a numbered business document.
type DocumentKind string

const (
	KindQuote     DocumentKind = "quote"
	KindWorkOrder DocumentKind = "work_order"
	KindInvoice   DocumentKind = "invoice"
)

// DocumentKinds lists all document kinds in a stable order.
var DocumentKinds = []DocumentKind{KindQuote, KindWorkOrder, KindInvoice}

// Valid reports whether k is a known document kind.
func (k DocumentKind) Valid() bool {
	switch k {
	case KindQuote, KindWorkOrder, KindInvoice:
		return true
	}
	return false
}

// DocumentStatus represents the current state of a document.
type DocumentStatus string

const (
	DocumentStatusDraft    DocumentStatus = "draft"
	DocumentStatusSent     DocumentStatus = "sent"
	DocumentStatusApproved DocumentStatus = "approved"
	DocumentStatusPaid     DocumentStatus = "paid"
	DocumentStatusVoid     DocumentStatus = "void"
)

// LineItem is one charged line on a quote, work order, or invoice.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// Total returns the extended price of the line.
func (li LineItem) Total() float64 {
	return li.Quantity * li.UnitPrice
}

// Document is a quote, work order, or invoice.
//
// Number is the human-facing sequence number (e.g. "INV-20240315-0002"),
// distinct from the internal ID. It is unique per kind per day.
type Document struct {
	ID        string         `json:"id"`
	Kind      DocumentKind   `json:"kind"`
	Number    string         `json:"number"`
	AccountID string         `json:"account_id"`
	Status    DocumentStatus `json:"status"`
	LineItems []LineItem     `json:"line_items,omitempty"`
	Total     float64        `json:"total"`
	CreatedAt time.Time      `json:"created_at"`
}

// SumLineItems recomputes Total from LineItems.
func (d *Document) SumLineItems() float64 {
	var total float64
	for _, li := range d.LineItems {
		total += li.Total()
	}
	return total
}
