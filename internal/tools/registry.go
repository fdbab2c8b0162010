// Package tools maps the assistant-facing tool surface onto Gateway operations.
//
// Each tool decodes its JSON arguments, runs exactly one Gateway operation
// (validate_tax_number runs none) and renders a text block plus structured
// data. Gateway failures become error results carrying the error kind.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/reyhansunduk/efatura-mcp-server/internal/gateway"
	"github.com/reyhansunduk/efatura-mcp-server/internal/logger"
	"github.com/reyhansunduk/efatura-mcp-server/internal/metrics"
	"github.com/reyhansunduk/efatura-mcp-server/internal/model"
	"github.com/reyhansunduk/efatura-mcp-server/internal/taxid"
)

// ErrUnknownTool is returned by Call for a name that is not registered
var ErrUnknownTool = errors.New("unknown tool")

// Result is the outcome of one tool call
type Result struct {
	Tool      string          `json:"tool"`
	Text      string          `json:"text"`
	Data      interface{}     `json:"data,omitempty"`
	ErrorKind model.ErrorKind `json:"error_kind,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// IsError reports whether the call failed
func (r *Result) IsError() bool {
	return r.ErrorKind != ""
}

type handler func(ctx context.Context, args json.RawMessage) (*Result, error)

// Registry holds the tool definitions bound to one Gateway
type Registry struct {
	gw       gateway.Gateway
	mode     gateway.Mode
	metrics  *metrics.Metrics
	log      *zap.Logger
	tools    []Tool
	handlers map[string]handler
}

// Option configures the registry
type Option func(*Registry)

// WithMode records the backend mode reported alongside results
func WithMode(mode gateway.Mode) Option {
	return func(r *Registry) {
		r.mode = mode
	}
}

// WithMetrics counts tool calls by error kind
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithLogger sets the logger
func WithLogger(log *zap.Logger) Option {
	return func(r *Registry) {
		r.log = log
	}
}

// NewRegistry registers every tool against gw
func NewRegistry(gw gateway.Gateway, opts ...Option) *Registry {
	r := &Registry{
		gw:   gw,
		mode: gateway.ModeDemo,
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.tools = definitions()
	r.handlers = map[string]handler{
		ListInvoices:      r.listInvoices,
		GetInvoiceDetail:  r.getInvoiceDetail,
		GetInvoiceXML:     r.getInvoiceXML,
		CreateInvoice:     r.createInvoice,
		CancelInvoice:     r.cancelInvoice,
		SearchInvoices:    r.searchInvoices,
		ValidateTaxNumber: r.validateTaxNumber,
	}
	return r
}

// Tools returns the advertised tool list
func (r *Registry) Tools() []Tool {
	out := make([]Tool, len(r.tools))
	copy(out, r.tools)
	return out
}

// Lookup returns a tool definition by name
func (r *Registry) Lookup(name string) (Tool, bool) {
	for _, t := range r.tools {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

// Mode returns the backend mode the registry serves
func (r *Registry) Mode() gateway.Mode {
	return r.mode
}

// Call runs a tool. The error is non-nil only for ErrUnknownTool; every
// other failure is reported inside the Result.
func (r *Registry) Call(ctx context.Context, name string, args json.RawMessage) (*Result, error) {
	h, ok := r.handlers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	start := time.Now()
	res, err := h(ctx, args)
	if err != nil {
		res = failure(name, err)
	}
	res.Tool = name

	r.metrics.IncrementToolCall(name, string(res.ErrorKind))

	log := logger.WithContext(ctx, r.log).With(
		zap.String("tool", name),
		zap.String("mode", string(r.mode)),
		zap.Duration("duration", time.Since(start)),
	)
	if res.IsError() {
		log.Info("tool call failed", zap.String("error_kind", string(res.ErrorKind)), zap.String("error", res.Error))
	} else {
		log.Debug("tool call")
	}
	return res, nil
}

// decode unmarshals tool arguments. Empty and null arguments leave v untouched.
func decode(args json.RawMessage, v interface{}) error {
	trimmed := bytes.TrimSpace(args)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return model.NewValidationError("arguments", nil, "json", "must be a JSON object matching the tool schema: "+err.Error())
	}
	return nil
}

type listArgs struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Limit     *int   `json:"limit"`
}

func (r *Registry) listInvoices(ctx context.Context, raw json.RawMessage) (*Result, error) {
	var args listArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}
	q := gateway.ListQuery{StartDate: args.StartDate, EndDate: args.EndDate}
	if args.Limit != nil {
		q.Limit = *args.Limit
	}

	items, err := r.gw.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return &Result{
		Text: renderList(items),
		Data: summaryPayload{Count: len(items), Invoices: items},
	}, nil
}

type invoiceIDArgs struct {
	InvoiceID string `json:"invoice_id"`
}

func (r *Registry) getInvoiceDetail(ctx context.Context, raw json.RawMessage) (*Result, error) {
	var args invoiceIDArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}
	inv, err := r.gw.GetDetail(ctx, args.InvoiceID)
	if err != nil {
		return nil, err
	}
	return &Result{Text: renderDetail(inv), Data: inv}, nil
}

func (r *Registry) getInvoiceXML(ctx context.Context, raw json.RawMessage) (*Result, error) {
	var args invoiceIDArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}
	doc, err := r.gw.GetRawContent(ctx, args.InvoiceID)
	if err != nil {
		return nil, err
	}
	return &Result{
		Text: renderDocument(doc),
		Data: documentPayload{InvoiceID: doc.InvoiceID, Format: doc.Format, Content: string(doc.Content)},
	}, nil
}

type itemArgs struct {
	Description string           `json:"description"`
	Quantity    *decimal.Decimal `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	Total       *decimal.Decimal `json:"total"`
}

type createArgs struct {
	InvoiceNumber string           `json:"invoice_number"`
	IssueDate     string           `json:"issue_date"`
	SupplierVKN   string           `json:"supplier_vkn"`
	SupplierName  string           `json:"supplier_name"`
	CustomerVKN   string           `json:"customer_vkn"`
	CustomerName  string           `json:"customer_name"`
	Items         []itemArgs       `json:"items"`
	TotalAmount   *decimal.Decimal `json:"total_amount"`
	Currency      string           `json:"currency"`
}

func (a createArgs) draft() (model.InvoiceDraft, error) {
	if a.TotalAmount == nil {
		return model.InvoiceDraft{}, model.NewValidationError("total_amount", nil, "required", "is required")
	}
	d := model.InvoiceDraft{
		InvoiceNumber: a.InvoiceNumber,
		IssueDate:     a.IssueDate,
		Supplier:      model.Party{TaxID: a.SupplierVKN, Name: a.SupplierName},
		Customer:      model.Party{TaxID: a.CustomerVKN, Name: a.CustomerName},
		TotalAmount:   *a.TotalAmount,
		Currency:      a.Currency,
	}
	for i, item := range a.Items {
		if item.Quantity == nil {
			return model.InvoiceDraft{}, model.NewValidationError(fmt.Sprintf("items[%d].quantity", i), nil, "required", "is required")
		}
		if item.UnitPrice == nil {
			return model.InvoiceDraft{}, model.NewValidationError(fmt.Sprintf("items[%d].unit_price", i), nil, "required", "is required")
		}
		d.Items = append(d.Items, model.LineDraft{
			Description: item.Description,
			Quantity:    *item.Quantity,
			UnitPrice:   *item.UnitPrice,
			Total:       item.Total,
		})
	}
	return d, nil
}

func (r *Registry) createInvoice(ctx context.Context, raw json.RawMessage) (*Result, error) {
	var args createArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}
	draft, err := args.draft()
	if err != nil {
		return nil, err
	}
	inv, err := r.gw.Create(ctx, draft)
	if err != nil {
		return nil, err
	}
	return &Result{Text: renderCreated(inv), Data: inv}, nil
}

type cancelArgs struct {
	InvoiceID string `json:"invoice_id"`
	Reason    string `json:"reason"`
}

func (r *Registry) cancelInvoice(ctx context.Context, raw json.RawMessage) (*Result, error) {
	var args cancelArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}
	inv, err := r.gw.Cancel(ctx, args.InvoiceID, args.Reason)
	if err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(args.Reason)
	return &Result{
		Text: renderCancelled(inv, reason),
		Data: cancelPayload{InvoiceID: inv.ID, Number: inv.Number, Status: inv.Status, Reason: reason},
	}, nil
}

func (r *Registry) searchInvoices(ctx context.Context, raw json.RawMessage) (*Result, error) {
	var f gateway.SearchFilters
	if err := decode(raw, &f); err != nil {
		return nil, err
	}
	items, err := r.gw.Search(ctx, f)
	if err != nil {
		return nil, err
	}
	return &Result{
		Text: renderSearch(f, items),
		Data: summaryPayload{Count: len(items), Invoices: items},
	}, nil
}

type taxNumberArgs struct {
	TaxNumber string `json:"tax_number"`
}

func (r *Registry) validateTaxNumber(_ context.Context, raw json.RawMessage) (*Result, error) {
	var args taxNumberArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}
	number := strings.TrimSpace(args.TaxNumber)
	if number == "" {
		return nil, model.NewValidationError("tax_number", nil, "required", "is required")
	}

	verdict := taxid.Validate(number)
	return &Result{
		Text: renderTaxNumber(number, verdict),
		Data: taxNumberPayload{TaxNumber: number, Valid: verdict.Valid, Kind: verdict.Kind, Reason: verdict.Reason},
	}, nil
}

type summaryPayload struct {
	Count    int                    `json:"count"`
	Invoices []model.InvoiceSummary `json:"invoices"`
}

type documentPayload struct {
	InvoiceID string               `json:"invoice_id"`
	Format    model.DocumentFormat `json:"format"`
	Content   string               `json:"content"`
}

type cancelPayload struct {
	InvoiceID string       `json:"invoice_id"`
	Number    string       `json:"invoice_number"`
	Status    model.Status `json:"status"`
	Reason    string       `json:"reason"`
}

type taxNumberPayload struct {
	TaxNumber string     `json:"tax_number"`
	Valid     bool       `json:"valid"`
	Kind      taxid.Kind `json:"kind"`
	Reason    string     `json:"reason,omitempty"`
}

type errorPayload struct {
	Kind    model.ErrorKind `json:"kind"`
	Message string          `json:"message"`
	Field   string          `json:"field,omitempty"`

	// InvoiceID names a draft left behind by a failed create.
	InvoiceID string `json:"invoice_id,omitempty"`
}

func failure(tool string, err error) *Result {
	kind := model.KindOf(err)
	data := errorPayload{Kind: kind, Message: err.Error()}
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		data.Field = ve.Field
	}
	var ud *model.UnsignedDraftError
	if errors.As(err, &ud) {
		data.InvoiceID = ud.InvoiceID
	}
	return &Result{
		Text:      renderError(tool, err),
		Data:      data,
		ErrorKind: kind,
		Error:     err.Error(),
	}
}
