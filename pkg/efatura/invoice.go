// Package efatura provides a public API for the Turkish e-Fatura gateway.
//
// It exposes the invoice types, the Gateway interface with its demo and GİB
// implementations, and the offline tax number validator.
//
// Example usage:
//
//	gw := efatura.NewDemoGateway()
//	invoices, err := gw.List(ctx, efatura.ListQuery{Limit: 5})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(invoices[0].Number)
package efatura

import (
	"github.com/reyhansunduk/efatura-mcp-server/internal/gateway"
	"github.com/reyhansunduk/efatura-mcp-server/internal/model"
	"github.com/reyhansunduk/efatura-mcp-server/internal/taxid"
)

// Re-export core types for public API
type (
	Invoice        = model.Invoice
	InvoiceSummary = model.InvoiceSummary
	InvoiceLine    = model.InvoiceLine
	InvoiceDraft   = model.InvoiceDraft
	LineDraft      = model.LineDraft
	Party          = model.Party
	Status         = model.Status
	Document       = model.Document
	DocumentFormat = model.DocumentFormat
	Gateway        = gateway.Gateway
	Mode           = gateway.Mode
	ListQuery      = gateway.ListQuery
	SearchFilters  = gateway.SearchFilters
	TaxNumberKind  = taxid.Kind
	TaxNumberCheck = taxid.Result
)

// Re-export status constants
const (
	StatusPending   = model.StatusPending
	StatusApproved  = model.StatusApproved
	StatusCancelled = model.StatusCancelled
)

// Re-export modes
const (
	ModeDemo       = gateway.ModeDemo
	ModeTest       = gateway.ModeTest
	ModeProduction = gateway.ModeProduction
)

// Re-export tax number kinds
const (
	VKN  = taxid.KindVKN
	TCKN = taxid.KindTCKN
)

// Re-export error types
type (
	ErrorKind       = model.ErrorKind
	ValidationError = model.ValidationError
	NotFoundError   = model.NotFoundError
	StateError      = model.StateError
	CredentialError = model.CredentialError
	NetworkError    = model.NetworkError
)

// Re-export error kinds
const (
	KindValidation = model.KindValidation
	KindNotFound   = model.KindNotFound
	KindState      = model.KindState
	KindCredential = model.KindCredential
	KindNetwork    = model.KindNetwork
)

// KindOf returns the error kind of err
func KindOf(err error) ErrorKind {
	return model.KindOf(err)
}

// ValidateTaxNumber checks a VKN or TCKN without contacting GİB
func ValidateTaxNumber(s string) TaxNumberCheck {
	return taxid.Validate(s)
}
