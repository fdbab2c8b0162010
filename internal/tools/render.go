package tools

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	money "github.com/reyhansunduk/efatura-mcp-server/internal/decimal"
	"github.com/reyhansunduk/efatura-mcp-server/internal/gateway"
	"github.com/reyhansunduk/efatura-mcp-server/internal/model"
	"github.com/reyhansunduk/efatura-mcp-server/internal/taxid"
)

func amount(d decimal.Decimal, currency string) string {
	return money.FormatTRY(d) + " " + currency
}

func date(t time.Time) string {
	return t.Format(model.DateLayout)
}

func writeSummaries(b *strings.Builder, items []model.InvoiceSummary) {
	for _, s := range items {
		fmt.Fprintf(b, "• %s - %s\n", s.Number, date(s.IssueDate))
		fmt.Fprintf(b, "  %s → %s\n", s.SupplierName, s.CustomerName)
		fmt.Fprintf(b, "  Amount: %s | Status: %s\n", amount(s.TotalAmount, s.Currency), s.Status)
		fmt.Fprintf(b, "  ID: %s\n", s.ID)
	}
}

func renderList(items []model.InvoiceSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d invoices:\n\n", len(items))
	writeSummaries(&b, items)
	return b.String()
}

func renderSearch(f gateway.SearchFilters, items []model.InvoiceSummary) string {
	var filters []string
	if v := strings.TrimSpace(f.CustomerName); v != "" {
		filters = append(filters, "Customer: "+v)
	}
	if v := strings.TrimSpace(f.SupplierName); v != "" {
		filters = append(filters, "Supplier: "+v)
	}
	if f.MinAmount != nil {
		filters = append(filters, "Min Amount: "+f.MinAmount.String())
	}
	if f.MaxAmount != nil {
		filters = append(filters, "Max Amount: "+f.MaxAmount.String())
	}
	if v := strings.TrimSpace(f.Status); v != "" {
		filters = append(filters, "Status: "+strings.ToLower(v))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Search Results (%d found)\n", len(items))
	if len(filters) > 0 {
		fmt.Fprintf(&b, "Filters: %s\n", strings.Join(filters, ", "))
	}
	b.WriteString("\n")
	writeSummaries(&b, items)
	return b.String()
}

func party(p model.Party) string {
	if p.TaxID == "" {
		return p.Name
	}
	kind := taxid.Validate(p.TaxID).Kind
	if kind == taxid.KindInvalid {
		return fmt.Sprintf("%s (%s)", p.Name, p.TaxID)
	}
	return fmt.Sprintf("%s (%s: %s)", p.Name, kind, p.TaxID)
}

func renderDetail(inv *model.Invoice) string {
	var b strings.Builder
	b.WriteString("Invoice Details:\n\n")
	fmt.Fprintf(&b, "Invoice Number: %s\n", inv.Number)
	fmt.Fprintf(&b, "Invoice ID: %s\n", inv.ID)
	fmt.Fprintf(&b, "Issue Date: %s\n", date(inv.IssueDate))
	fmt.Fprintf(&b, "Status: %s\n\n", inv.Status)
	fmt.Fprintf(&b, "Supplier: %s\n", party(inv.Supplier))
	fmt.Fprintf(&b, "Customer: %s\n\n", party(inv.Customer))

	if len(inv.Lines) > 0 {
		b.WriteString("Items:\n")
		for i, l := range inv.Lines {
			fmt.Fprintf(&b, "  %d. %s: %s × %s = %s\n", i+1, l.Description,
				l.Quantity.String(), money.FormatTRY(l.UnitPrice), amount(l.Amount, inv.Currency))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Total Amount: %s\n", amount(inv.TotalAmount, inv.Currency))
	return b.String()
}

func renderDocument(doc *model.Document) string {
	return fmt.Sprintf("Invoice %s for %s:\n\n```%s\n%s\n```",
		strings.ToUpper(string(doc.Format)), doc.InvoiceID, doc.Format, strings.TrimRight(string(doc.Content), "\n"))
}

func renderCreated(inv *model.Invoice) string {
	var b strings.Builder
	b.WriteString("✓ Invoice Created Successfully\n\n")
	fmt.Fprintf(&b, "Invoice ID: %s\n", inv.ID)
	fmt.Fprintf(&b, "Invoice Number: %s\n", inv.Number)
	fmt.Fprintf(&b, "Issue Date: %s\n", date(inv.IssueDate))
	fmt.Fprintf(&b, "Supplier: %s\n", inv.Supplier.Name)
	fmt.Fprintf(&b, "Customer: %s\n", inv.Customer.Name)
	fmt.Fprintf(&b, "Total Amount: %s\n", amount(inv.TotalAmount, inv.Currency))
	fmt.Fprintf(&b, "Status: %s\n", inv.Status)
	return b.String()
}

func renderCancelled(inv *model.Invoice, reason string) string {
	var b strings.Builder
	b.WriteString("✓ Invoice Cancelled Successfully\n\n")
	fmt.Fprintf(&b, "Invoice ID: %s\n", inv.ID)
	fmt.Fprintf(&b, "Invoice Number: %s\n", inv.Number)
	fmt.Fprintf(&b, "Reason: %s\n", reason)
	fmt.Fprintf(&b, "Status: %s\n", inv.Status)
	return b.String()
}

func renderTaxNumber(number string, r taxid.Result) string {
	var b strings.Builder
	if r.Valid {
		b.WriteString("✓ Valid Tax Number\n\n")
		fmt.Fprintf(&b, "Tax Number: %s\n", number)
		fmt.Fprintf(&b, "Type: %s\n", r.Kind)
		return b.String()
	}
	b.WriteString("✗ Invalid Tax Number\n\n")
	fmt.Fprintf(&b, "Tax Number: %s\n", number)
	fmt.Fprintf(&b, "Reason: %s\n", r.Reason)
	return b.String()
}

// renderError turns a gateway failure into a caller-actionable message
func renderError(tool string, err error) string {
	var ud *model.UnsignedDraftError
	if errors.As(err, &ud) {
		cause := strings.TrimPrefix(renderError(tool, ud.Cause), "Error: ")
		return fmt.Sprintf("Error: invoice %s was created as a draft but not signed: %s. "+
			"Sign or cancel the draft before creating it again.", ud.InvoiceID, cause)
	}

	var (
		ve *model.ValidationError
		nf *model.NotFoundError
		se *model.StateError
		ce *model.CredentialError
		ne *model.NetworkError
	)
	switch {
	case errors.As(err, &ve):
		return fmt.Sprintf("Error: %s %s", ve.Field, ve.Message)
	case errors.As(err, &nf):
		if tool == GetInvoiceXML {
			return "Invoice XML not found: " + nf.InvoiceID
		}
		return "Invoice not found: " + nf.InvoiceID
	case errors.As(err, &se):
		if se.From == model.StatusCancelled {
			return fmt.Sprintf("Error: invoice %s is already cancelled", se.InvoiceID)
		}
		return fmt.Sprintf("Error: invoice %s cannot change from %s to %s", se.InvoiceID, se.From, se.To)
	case errors.As(err, &ce):
		return "Error: GİB credentials rejected: " + ce.Message
	case errors.As(err, &ne):
		return fmt.Sprintf("Error: GİB service unavailable during %s: %s. Try again later.", ne.Operation, ne.Message)
	default:
		return "Error: " + err.Error()
	}
}
