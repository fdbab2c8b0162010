package gib

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	money "github.com/reyhansunduk/efatura-mcp-server/internal/decimal"
	"github.com/reyhansunduk/efatura-mcp-server/internal/model"
)

// Namespace is the body namespace of every e-Arşiv service operation
const Namespace = "http://earsivportal.efatura.gov.tr/earsiv-services"

// Operation names, also sent as SOAPAction
const (
	OpLogin              = "Login"
	OpGetInvoiceList     = "GetInvoiceList"
	OpGetInvoice         = "GetInvoice"
	OpGetInvoiceDocument = "GetInvoiceDocument"
	OpCreateDraftInvoice = "CreateDraftInvoice"
	OpSignDraftInvoice   = "SignDraftInvoice"
	OpCancelInvoice      = "CancelInvoice"
)

// portalDateLayout is the DD/MM/YYYY format the portal uses
const portalDateLayout = "02/01/2006"

// invoiceTypeFilter selects e-Arşiv invoices in list queries
const invoiceTypeFilter = "5000/30000"

func operation(name string) xml.Name {
	return xml.Name{Space: Namespace, Local: name}
}

type loginRequest struct {
	XMLName  xml.Name
	UserID   string `xml:"userid"`
	Password string `xml:"sifre"`
}

type loginResponse struct {
	Token string `xml:"token"`
}

type listRequest struct {
	XMLName xml.Name
	CallID  string `xml:"callid"`
	Start   string `xml:"baslangic"`
	End     string `xml:"bitis"`
	Type    string `xml:"hangiTip"`
}

type listResponse struct {
	Invoices []invoiceRecord `xml:"invoice"`
}

type detailRequest struct {
	XMLName xml.Name
	CallID  string `xml:"callid"`
	ETTN    string `xml:"ettn"`
}

type detailResponse struct {
	Invoice *invoiceRecord `xml:"invoice"`
}

type documentRequest struct {
	XMLName  xml.Name
	CallID   string `xml:"callid"`
	ETTN     string `xml:"ettn"`
	Document string `xml:"belgeTip"`
}

type documentResponse struct {
	Format  string `xml:"format"`
	Content string `xml:"content"`
}

type createRequest struct {
	XMLName xml.Name
	CallID  string        `xml:"callid"`
	Invoice invoiceRecord `xml:"fatura"`
}

type createResponse struct {
	ETTN   string `xml:"ettn"`
	Status string `xml:"onayDurumu"`
}

type signRequest struct {
	XMLName xml.Name
	CallID  string   `xml:"callid"`
	ETTNs   []string `xml:"imzalanacaklar>ettn"`
}

type signResponse struct {
	Status string `xml:"onayDurumu"`
}

type cancelRequest struct {
	XMLName xml.Name
	CallID  string `xml:"callid"`
	ETTN    string `xml:"ettn"`
	Reason  string `xml:"aciklama"`
}

type cancelResponse struct {
	Status string `xml:"onayDurumu"`
}

// invoiceRecord is an invoice as the portal names its fields
type invoiceRecord struct {
	ETTN          string       `xml:"ettn,omitempty"`
	Number        string       `xml:"belgeNumarasi,omitempty"`
	Date          string       `xml:"belgeTarihi,omitempty"`
	SupplierTaxID string       `xml:"gonderenVkn,omitempty"`
	SupplierName  string       `xml:"gonderenUnvan,omitempty"`
	CustomerTaxID string       `xml:"aliciVknTckn,omitempty"`
	CustomerName  string       `xml:"aliciUnvan,omitempty"`
	Total         string       `xml:"toplamTutar,omitempty"`
	Currency      string       `xml:"paraBirimi,omitempty"`
	Status        string       `xml:"onayDurumu,omitempty"`
	Lines         []lineRecord `xml:"malHizmetTable>satir"`
}

type lineRecord struct {
	Name      string `xml:"malHizmet"`
	Quantity  string `xml:"miktar"`
	UnitPrice string `xml:"birimFiyat"`
	Amount    string `xml:"malHizmetTutari"`
}

// ParseStatus maps a portal onayDurumu value. Unknown values report ok=false.
func ParseStatus(s string) (model.Status, bool) {
	switch cases.Lower(language.Turkish).String(strings.TrimSpace(s)) {
	case "onaylandı":
		return model.StatusApproved, true
	case "beklemede", "onaylanmadı", "taslak":
		return model.StatusPending, true
	case "iptal edildi", "silinmiş", "silinmis":
		return model.StatusCancelled, true
	default:
		return model.StatusPending, false
	}
}

// parseAmount accepts "15000.00" and the Turkish "15.000,00"
func parseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return money.Zero, nil
	}
	if strings.Contains(raw, ",") {
		raw = strings.ReplaceAll(raw, ".", "")
		raw = strings.ReplaceAll(raw, ",", ".")
	}
	return decimal.NewFromString(raw)
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(portalDateLayout, raw); err == nil {
		return t, nil
	}
	return time.Parse(model.DateLayout, raw)
}

func formatDate(t time.Time) string {
	return t.Format(portalDateLayout)
}

func (r invoiceRecord) summary() (model.InvoiceSummary, error) {
	inv, err := r.invoice()
	if err != nil {
		return model.InvoiceSummary{}, err
	}
	return inv.Summary(), nil
}

func (r invoiceRecord) invoice() (*model.Invoice, error) {
	if strings.TrimSpace(r.ETTN) == "" {
		return nil, fmt.Errorf("record without ettn")
	}
	date, err := parseDate(r.Date)
	if err != nil {
		return nil, fmt.Errorf("invoice %s: invalid belgeTarihi %q", r.ETTN, r.Date)
	}
	total, err := parseAmount(r.Total)
	if err != nil {
		return nil, fmt.Errorf("invoice %s: invalid toplamTutar %q", r.ETTN, r.Total)
	}
	status, _ := ParseStatus(r.Status)

	currency := strings.ToUpper(strings.TrimSpace(r.Currency))
	if currency == "" {
		currency = model.DefaultCurrency
	}

	inv := &model.Invoice{
		ID:          strings.TrimSpace(r.ETTN),
		Number:      strings.TrimSpace(r.Number),
		IssueDate:   date,
		Supplier:    model.Party{TaxID: strings.TrimSpace(r.SupplierTaxID), Name: strings.TrimSpace(r.SupplierName)},
		Customer:    model.Party{TaxID: strings.TrimSpace(r.CustomerTaxID), Name: strings.TrimSpace(r.CustomerName)},
		TotalAmount: total,
		Currency:    currency,
		Status:      status,
		Content:     model.ContentRef("gib://" + strings.TrimSpace(r.ETTN)),
	}

	for i, l := range r.Lines {
		line, err := l.line()
		if err != nil {
			return nil, fmt.Errorf("invoice %s line %d: %w", r.ETTN, i+1, err)
		}
		inv.Lines = append(inv.Lines, line)
	}
	return inv, nil
}

func (l lineRecord) line() (model.InvoiceLine, error) {
	qty, err := parseAmount(l.Quantity)
	if err != nil {
		return model.InvoiceLine{}, fmt.Errorf("invalid miktar %q", l.Quantity)
	}
	price, err := parseAmount(l.UnitPrice)
	if err != nil {
		return model.InvoiceLine{}, fmt.Errorf("invalid birimFiyat %q", l.UnitPrice)
	}
	line := model.InvoiceLine{
		Description: strings.TrimSpace(l.Name),
		Quantity:    qty,
		UnitPrice:   price,
	}
	if amount, err := parseAmount(l.Amount); err == nil && strings.TrimSpace(l.Amount) != "" {
		line.Amount = amount
	} else {
		line.Calculate()
	}
	return line, nil
}

func recordFromInvoice(inv *model.Invoice) invoiceRecord {
	r := invoiceRecord{
		Number:        inv.Number,
		Date:          formatDate(inv.IssueDate),
		SupplierTaxID: inv.Supplier.TaxID,
		SupplierName:  inv.Supplier.Name,
		CustomerTaxID: inv.Customer.TaxID,
		CustomerName:  inv.Customer.Name,
		Total:         money.FormatTRY(inv.TotalAmount),
		Currency:      inv.Currency,
	}
	for _, l := range inv.Lines {
		r.Lines = append(r.Lines, lineRecord{
			Name:      l.Description,
			Quantity:  l.Quantity.String(),
			UnitPrice: money.FormatTRY(l.UnitPrice),
			Amount:    money.FormatTRY(l.Amount),
		})
	}
	return r
}
