// Package gateway defines the invoice backend abstraction shared by the
// in-memory demo catalog and the GİB SOAP client, plus the input
// validation and search filtering both backends apply identically.
package gateway

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/reyhansunduk/efatura-mcp-server/internal/model"
)

// Gateway is the single entry point for invoice operations.
// Implementations must be safe for concurrent use.
type Gateway interface {
	List(ctx context.Context, q ListQuery) ([]model.InvoiceSummary, error)
	GetDetail(ctx context.Context, invoiceID string) (*model.Invoice, error)
	GetRawContent(ctx context.Context, invoiceID string) (*model.Document, error)
	Create(ctx context.Context, draft model.InvoiceDraft) (*model.Invoice, error)
	Cancel(ctx context.Context, invoiceID, reason string) (*model.Invoice, error)
	Search(ctx context.Context, f SearchFilters) ([]model.InvoiceSummary, error)
}

// Mode is the backend bound at startup
type Mode string

const (
	ModeDemo       Mode = "demo"
	ModeTest       Mode = "test"
	ModeProduction Mode = "production"
)

// IsReal reports whether the mode talks to the GİB service
func (m Mode) IsReal() bool {
	return m == ModeTest || m == ModeProduction
}

// ListQuery filters list_invoices. Dates are YYYY-MM-DD, both inclusive.
type ListQuery struct {
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// SearchFilters are ANDed together. Zero-valued fields do not filter.
type SearchFilters struct {
	CustomerName string           `json:"customer_name,omitempty"`
	SupplierName string           `json:"supplier_name,omitempty"`
	MinAmount    *decimal.Decimal `json:"min_amount,omitempty"`
	MaxAmount    *decimal.Decimal `json:"max_amount,omitempty"`
	Status       string           `json:"status,omitempty"`
}

// Operation names used in logs and metrics
const (
	OpList          = "list"
	OpGetDetail     = "get_detail"
	OpGetRawContent = "get_raw_content"
	OpCreate        = "create"
	OpCancel        = "cancel"
	OpSearch        = "search"
)
