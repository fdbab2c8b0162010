package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	money "github.com/reyhansunduk/efatura-mcp-server/internal/decimal"
)

// DefaultCurrency is used when a draft does not declare one
const DefaultCurrency = "TRY"

// DateLayout is the date format accepted from and returned to callers
const DateLayout = "2006-01-02"

// Status is the lifecycle state of an invoice
type Status int

const (
	StatusPending Status = iota
	StatusApproved
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusApproved:
		return "approved"
	case StatusCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// IsActive reports whether the invoice can still be cancelled
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusApproved
}

// CanTransitionTo enforces the status machine:
// Pending -> Approved, Pending|Approved -> Cancelled. Cancelled is terminal.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusApproved || next == StatusCancelled
	case StatusApproved:
		return next == StatusCancelled
	default:
		return false
	}
}

// MarshalText renders the status as its lowercase name
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a status name
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStatus accepts the tool-facing names (approved, pending, cancelled)
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return StatusPending, nil
	case "approved":
		return StatusApproved, nil
	case "cancelled", "canceled":
		return StatusCancelled, nil
	default:
		return StatusPending, NewValidationError("status", s, "enum", "must be one of approved, pending, cancelled")
	}
}

// Party is a supplier or customer embedded in an invoice
type Party struct {
	TaxID string `json:"tax_id"`
	Name  string `json:"name"`
}

// InvoiceLine is a single invoice item
type InvoiceLine struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}

// Calculate derives Amount = Quantity * UnitPrice
func (l *InvoiceLine) Calculate() {
	l.Amount = money.Mul(l.Quantity, l.UnitPrice)
}

// ContentRef is an opaque handle to the canonical XML/HTML representation
type ContentRef string

// Invoice is the authoritative e-Fatura record
type Invoice struct {
	ID          string          `json:"invoice_id"`
	Number      string          `json:"invoice_number"`
	IssueDate   time.Time       `json:"issue_date"`
	Supplier    Party           `json:"supplier"`
	Customer    Party           `json:"customer"`
	Lines       []InvoiceLine   `json:"lines"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Currency    string          `json:"currency"`
	Status      Status          `json:"status"`
	Content     ContentRef      `json:"content_ref,omitempty"`
}

// LinesTotal sums the line amounts
func (inv *Invoice) LinesTotal() decimal.Decimal {
	amounts := make([]decimal.Decimal, 0, len(inv.Lines))
	for _, l := range inv.Lines {
		amounts = append(amounts, l.Amount)
	}
	return money.Sum(amounts)
}

// Reconciles reports whether the declared total matches the line sum within tolerance
func (inv *Invoice) Reconciles() bool {
	return money.WithinTolerance(inv.LinesTotal(), inv.TotalAmount)
}

// Clone returns a deep copy safe to hand to callers
func (inv *Invoice) Clone() *Invoice {
	if inv == nil {
		return nil
	}
	out := *inv
	if inv.Lines != nil {
		out.Lines = make([]InvoiceLine, len(inv.Lines))
		copy(out.Lines, inv.Lines)
	}
	return &out
}

// Summary projects the invoice onto its list/search representation
func (inv *Invoice) Summary() InvoiceSummary {
	return InvoiceSummary{
		ID:           inv.ID,
		Number:       inv.Number,
		IssueDate:    inv.IssueDate,
		SupplierName: inv.Supplier.Name,
		CustomerName: inv.Customer.Name,
		TotalAmount:  inv.TotalAmount,
		Currency:     inv.Currency,
		Status:       inv.Status,
	}
}

// InvoiceSummary is returned by list and search operations
type InvoiceSummary struct {
	ID           string          `json:"invoice_id"`
	Number       string          `json:"invoice_number"`
	IssueDate    time.Time       `json:"issue_date"`
	SupplierName string          `json:"supplier_name"`
	CustomerName string          `json:"customer_name"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Currency     string          `json:"currency"`
	Status       Status          `json:"status"`
}

// LineDraft is one requested line of a new invoice.
// Total is optional; when set it must match Quantity * UnitPrice.
type LineDraft struct {
	Description string           `json:"description"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	Total       *decimal.Decimal `json:"total,omitempty"`
}

// InvoiceDraft is the create_invoice input
type InvoiceDraft struct {
	InvoiceNumber string          `json:"invoice_number"`
	IssueDate     string          `json:"issue_date"`
	Supplier      Party           `json:"supplier"`
	Customer      Party           `json:"customer"`
	Items         []LineDraft     `json:"items"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Currency      string          `json:"currency,omitempty"`
}

// DocumentFormat identifies the representation returned by GetRawContent
type DocumentFormat string

const (
	FormatXML  DocumentFormat = "xml"
	FormatHTML DocumentFormat = "html"
)

// Document is the opaque raw content of an invoice (UBL-TR XML or HTML view)
type Document struct {
	InvoiceID string         `json:"invoice_id"`
	Format    DocumentFormat `json:"format"`
	Content   []byte         `json:"content"`
}
