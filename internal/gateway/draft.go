package gateway

import (
	"fmt"
	"regexp"
	"strings"

	money "github.com/reyhansunduk/efatura-mcp-server/internal/decimal"
	"github.com/reyhansunduk/efatura-mcp-server/internal/model"
	"github.com/reyhansunduk/efatura-mcp-server/internal/taxid"
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// ValidateDraft checks a create_invoice request and returns the invoice it
// describes, with line amounts computed. ID and Status are left for the
// backend to assign.
func ValidateDraft(d model.InvoiceDraft) (*model.Invoice, error) {
	number := strings.TrimSpace(d.InvoiceNumber)
	if number == "" {
		return nil, model.NewValidationError("invoice_number", nil, "required", "is required")
	}

	issueDate, err := ParseDate("issue_date", d.IssueDate)
	if err != nil {
		return nil, err
	}

	supplier, err := validateParty("supplier", d.Supplier)
	if err != nil {
		return nil, err
	}
	customer, err := validateParty("customer", d.Customer)
	if err != nil {
		return nil, err
	}

	currency := strings.ToUpper(strings.TrimSpace(d.Currency))
	if currency == "" {
		currency = model.DefaultCurrency
	}
	if !currencyPattern.MatchString(currency) {
		return nil, model.NewValidationError("currency", d.Currency, "iso4217", "must be a three-letter currency code")
	}

	if len(d.Items) == 0 {
		return nil, model.NewValidationError("items", nil, "required", "at least one line item is required")
	}

	lines := make([]model.InvoiceLine, 0, len(d.Items))
	for i, item := range d.Items {
		line, err := validateLine(i, item)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	if !money.IsNonNegative(d.TotalAmount) {
		return nil, model.NewValidationError("total_amount", d.TotalAmount.String(), "min", "must not be negative")
	}

	inv := &model.Invoice{
		Number:      number,
		IssueDate:   issueDate,
		Supplier:    supplier,
		Customer:    customer,
		Lines:       lines,
		TotalAmount: money.RoundTRY(d.TotalAmount),
		Currency:    currency,
		Status:      model.StatusPending,
	}

	if !inv.Reconciles() {
		return nil, model.NewValidationError("total_amount", d.TotalAmount.String(), "reconcile",
			fmt.Sprintf("does not match the sum of line amounts (%s)", money.FormatTRY(inv.LinesTotal())))
	}

	return inv, nil
}

func validateParty(role string, p model.Party) (model.Party, error) {
	name := strings.TrimSpace(p.Name)
	id := strings.TrimSpace(p.TaxID)

	if r := taxid.Validate(id); !r.Valid {
		return model.Party{}, model.NewValidationError(role+"_vkn", id, "taxid", "is not a valid VKN or TCKN: "+r.Reason)
	}
	if name == "" {
		return model.Party{}, model.NewValidationError(role+"_name", nil, "required", "is required")
	}
	return model.Party{TaxID: id, Name: name}, nil
}

func validateLine(i int, item model.LineDraft) (model.InvoiceLine, error) {
	field := func(name string) string {
		return fmt.Sprintf("items[%d].%s", i, name)
	}

	desc := strings.TrimSpace(item.Description)
	if desc == "" {
		return model.InvoiceLine{}, model.NewValidationError(field("description"), nil, "required", "is required")
	}
	if !money.IsPositive(item.Quantity) {
		return model.InvoiceLine{}, model.NewValidationError(field("quantity"), item.Quantity.String(), "min", "must be greater than zero")
	}
	if !money.IsNonNegative(item.UnitPrice) {
		return model.InvoiceLine{}, model.NewValidationError(field("unit_price"), item.UnitPrice.String(), "min", "must not be negative")
	}

	line := model.InvoiceLine{
		Description: desc,
		Quantity:    item.Quantity,
		UnitPrice:   item.UnitPrice,
	}
	line.Calculate()

	if item.Total != nil && !money.WithinTolerance(*item.Total, line.Amount) {
		return model.InvoiceLine{}, model.NewValidationError(field("total"), item.Total.String(), "consistency",
			fmt.Sprintf("must equal quantity x unit_price (%s)", money.FormatTRY(line.Amount)))
	}

	return line, nil
}
