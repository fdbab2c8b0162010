// Package ubl renders and parses the subset of UBL-TR 1.2 invoice documents
// the gateway deals with: header, parties, lines and monetary total.
package ubl

import (
	"bytes"
	"fmt"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	money "github.com/reyhansunduk/efatura-mcp-server/internal/decimal"
	"github.com/reyhansunduk/efatura-mcp-server/internal/model"
	"github.com/reyhansunduk/efatura-mcp-server/internal/taxid"
)

// UBL namespaces
const (
	InvoiceNamespace = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	CACNamespace     = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	CBCNamespace     = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
)

const (
	ublVersion      = "2.1"
	customizationID = "TR1.2"
	profileID       = "EARSIVFATURA"
	invoiceTypeCode = "SATIS"
	unitCodePiece   = "C62"
)

// Render builds a UBL-TR XML document for an invoice
func Render(inv *model.Invoice) ([]byte, error) {
	if inv == nil {
		return nil, fmt.Errorf("nil invoice")
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("Invoice")
	root.CreateAttr("xmlns", InvoiceNamespace)
	root.CreateAttr("xmlns:cac", CACNamespace)
	root.CreateAttr("xmlns:cbc", CBCNamespace)

	cbc(root, "UBLVersionID", ublVersion)
	cbc(root, "CustomizationID", customizationID)
	cbc(root, "ProfileID", profileID)
	cbc(root, "ID", inv.Number)
	cbc(root, "UUID", inv.ID)
	cbc(root, "IssueDate", inv.IssueDate.Format(model.DateLayout))
	cbc(root, "InvoiceTypeCode", invoiceTypeCode)
	cbc(root, "DocumentCurrencyCode", inv.Currency)
	cbc(root, "LineCountNumeric", fmt.Sprintf("%d", len(inv.Lines)))

	renderParty(root.CreateElement("cac:AccountingSupplierParty"), inv.Supplier)
	renderParty(root.CreateElement("cac:AccountingCustomerParty"), inv.Customer)

	total := root.CreateElement("cac:LegalMonetaryTotal")
	amount(total, "LineExtensionAmount", inv.LinesTotal(), inv.Currency)
	amount(total, "PayableAmount", inv.TotalAmount, inv.Currency)

	for i, line := range inv.Lines {
		el := root.CreateElement("cac:InvoiceLine")
		cbc(el, "ID", fmt.Sprintf("%d", i+1))
		qty := cbc(el, "InvoicedQuantity", line.Quantity.String())
		qty.CreateAttr("unitCode", unitCodePiece)
		amount(el, "LineExtensionAmount", line.Amount, inv.Currency)
		item := el.CreateElement("cac:Item")
		cbc(item, "Name", line.Description)
		price := el.CreateElement("cac:Price")
		amount(price, "PriceAmount", line.UnitPrice, inv.Currency)
	}

	doc.Indent(2)
	return doc.WriteToBytes()
}

func renderParty(parent *etree.Element, p model.Party) {
	party := parent.CreateElement("cac:Party")
	id := cbc(party.CreateElement("cac:PartyIdentification"), "ID", p.TaxID)
	id.CreateAttr("schemeID", schemeFor(p.TaxID))
	cbc(party.CreateElement("cac:PartyName"), "Name", p.Name)
}

func schemeFor(taxID string) string {
	if taxid.IsTCKN(taxID) {
		return "TCKN"
	}
	return "VKN"
}

func cbc(parent *etree.Element, tag, text string) *etree.Element {
	el := parent.CreateElement("cbc:" + tag)
	el.SetText(text)
	return el
}

func amount(parent *etree.Element, tag string, v decimal.Decimal, currency string) {
	el := cbc(parent, tag, money.FormatTRY(v))
	el.CreateAttr("currencyID", currency)
}

// Parse reads a UBL-TR invoice document. Status is not part of UBL and is
// left at its zero value.
func Parse(data []byte) (*model.Invoice, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("empty XML document")
	}
	if root.Tag != "Invoice" {
		return nil, fmt.Errorf("unexpected root element %q", root.Tag)
	}

	inv := &model.Invoice{
		Number:   text(root, "ID"),
		ID:       text(root, "UUID"),
		Currency: text(root, "DocumentCurrencyCode"),
	}
	if inv.Currency == "" {
		inv.Currency = model.DefaultCurrency
	}

	if raw := text(root, "IssueDate"); raw != "" {
		date, err := time.Parse(model.DateLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("invalid IssueDate %q: %w", raw, err)
		}
		inv.IssueDate = date
	}

	inv.Supplier = parseParty(child(root, "AccountingSupplierParty"))
	inv.Customer = parseParty(child(root, "AccountingCustomerParty"))

	for _, el := range children(root, "InvoiceLine") {
		line, err := parseLine(el)
		if err != nil {
			return nil, err
		}
		inv.Lines = append(inv.Lines, line)
	}

	if total := child(root, "LegalMonetaryTotal"); total != nil {
		if v, err := decimal.NewFromString(text(total, "PayableAmount")); err == nil {
			inv.TotalAmount = v
		}
	}

	return inv, nil
}

func parseParty(el *etree.Element) model.Party {
	party := child(el, "Party")
	if party == nil {
		return model.Party{}
	}
	return model.Party{
		TaxID: text(child(party, "PartyIdentification"), "ID"),
		Name:  text(child(party, "PartyName"), "Name"),
	}
}

func parseLine(el *etree.Element) (model.InvoiceLine, error) {
	line := model.InvoiceLine{
		Description: text(child(el, "Item"), "Name"),
	}

	var err error
	if line.Quantity, err = decimal.NewFromString(text(el, "InvoicedQuantity")); err != nil {
		return line, fmt.Errorf("line %s: invalid InvoicedQuantity: %w", text(el, "ID"), err)
	}
	if line.UnitPrice, err = decimal.NewFromString(text(child(el, "Price"), "PriceAmount")); err != nil {
		return line, fmt.Errorf("line %s: invalid PriceAmount: %w", text(el, "ID"), err)
	}
	if line.Amount, err = decimal.NewFromString(text(el, "LineExtensionAmount")); err != nil {
		line.Calculate()
	}
	return line, nil
}

// Helper functions. Matching is on local names so documents using other
// namespace prefixes still parse.

func child(el *etree.Element, local string) *etree.Element {
	if el == nil {
		return nil
	}
	for _, c := range el.ChildElements() {
		if c.Tag == local {
			return c
		}
	}
	return nil
}

func children(el *etree.Element, local string) []*etree.Element {
	var out []*etree.Element
	for _, c := range el.ChildElements() {
		if c.Tag == local {
			out = append(out, c)
		}
	}
	return out
}

func text(el *etree.Element, local string) string {
	c := child(el, local)
	if c == nil {
		return ""
	}
	return c.Text()
}
