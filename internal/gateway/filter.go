package gateway

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	money "github.com/reyhansunduk/efatura-mcp-server/internal/decimal"
	"github.com/reyhansunduk/efatura-mcp-server/internal/model"
)

// Matcher is a compiled SearchFilters. It is not safe for concurrent use.
type Matcher struct {
	customer string
	supplier string
	min      *decimal.Decimal
	max      *decimal.Decimal
	status   *model.Status
	fold     cases.Caser
}

// Compile validates the filters
func (f SearchFilters) Compile() (*Matcher, error) {
	m := &Matcher{fold: cases.Lower(language.Turkish)}

	m.customer = m.fold.String(strings.TrimSpace(f.CustomerName))
	m.supplier = m.fold.String(strings.TrimSpace(f.SupplierName))

	if f.MinAmount != nil {
		if !money.IsNonNegative(*f.MinAmount) {
			return nil, model.NewValidationError("min_amount", f.MinAmount.String(), "min", "must not be negative")
		}
		m.min = f.MinAmount
	}
	if f.MaxAmount != nil {
		if !money.IsNonNegative(*f.MaxAmount) {
			return nil, model.NewValidationError("max_amount", f.MaxAmount.String(), "min", "must not be negative")
		}
		m.max = f.MaxAmount
	}
	if m.min != nil && m.max != nil && m.min.GreaterThan(*m.max) {
		return nil, model.NewValidationError("min_amount", m.min.String(), "range", "must not exceed max_amount")
	}

	if s := strings.TrimSpace(f.Status); s != "" {
		status, err := model.ParseStatus(s)
		if err != nil {
			return nil, err
		}
		m.status = &status
	}

	return m, nil
}

// IsEmpty reports whether no filter is set
func (m *Matcher) IsEmpty() bool {
	return m.customer == "" && m.supplier == "" && m.min == nil && m.max == nil && m.status == nil
}

// Match reports whether a summary satisfies every filter
func (m *Matcher) Match(s model.InvoiceSummary) bool {
	if m.customer != "" && !strings.Contains(m.fold.String(s.CustomerName), m.customer) {
		return false
	}
	if m.supplier != "" && !strings.Contains(m.fold.String(s.SupplierName), m.supplier) {
		return false
	}
	if m.min != nil && s.TotalAmount.LessThan(*m.min) {
		return false
	}
	if m.max != nil && s.TotalAmount.GreaterThan(*m.max) {
		return false
	}
	if m.status != nil && s.Status != *m.status {
		return false
	}
	return true
}

// Filter returns the summaries that match, preserving order
func (m *Matcher) Filter(items []model.InvoiceSummary) []model.InvoiceSummary {
	out := make([]model.InvoiceSummary, 0, len(items))
	for _, s := range items {
		if m.Match(s) {
			out = append(out, s)
		}
	}
	return out
}
