// Package gib implements the Gateway against the GİB e-Arşiv SOAP service.
//
// The client owns one session token. Every operation reuses it; a
// session-expiry fault triggers a single refresh and one retry.
package gib

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reyhansunduk/efatura-mcp-server/internal/credentials"
	"github.com/reyhansunduk/efatura-mcp-server/internal/gateway"
	"github.com/reyhansunduk/efatura-mcp-server/internal/metrics"
	"github.com/reyhansunduk/efatura-mcp-server/internal/model"
	"github.com/reyhansunduk/efatura-mcp-server/internal/ubl"
)

const (
	DefaultTestEndpoint       = "https://earsivportaltest.efatura.gov.tr/earsiv-services/ws"
	DefaultProductionEndpoint = "https://earsivportal.efatura.gov.tr/earsiv-services/ws"
	DefaultTimeout            = 30 * time.Second
)

// lookbackYears sets the list window start when only an end (or nothing) is given
const lookbackYears = 1

// DefaultSearchYears is how far back Search walks the catalog. It matches
// the statutory retention period for e-Arşiv invoices.
const DefaultSearchYears = 10

// Client is the real-backend Gateway. Safe for concurrent use.
type Client struct {
	creds       credentials.Credentials
	endpoint    string
	httpClient  *http.Client
	autoSign    bool
	searchYears int
	now         func() time.Time
	newCallID   func() string
	log         *zap.Logger
	metrics     *metrics.Metrics

	tokenMu sync.Mutex
	token   string
}

// ClientOption configures the client
type ClientOption func(*clientConfig)

type clientConfig struct {
	endpoint    string
	timeout     time.Duration
	httpClient  *http.Client
	autoSign    bool
	searchYears int
	now         func() time.Time
	log         *zap.Logger
	metrics     *metrics.Metrics
}

// WithEndpoint overrides the environment's default service URL
func WithEndpoint(url string) ClientOption {
	return func(cfg *clientConfig) {
		cfg.endpoint = url
	}
}

// WithTimeout sets the per-call HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(cfg *clientConfig) {
		cfg.timeout = timeout
	}
}

// WithHTTPClient replaces the HTTP client. Its Timeout is left untouched.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cfg *clientConfig) {
		cfg.httpClient = c
	}
}

// WithAutoSign signs drafts right after creation
func WithAutoSign(enabled bool) ClientOption {
	return func(cfg *clientConfig) {
		cfg.autoSign = enabled
	}
}

// WithSearchYears sets how many years back Search walks
func WithSearchYears(years int) ClientOption {
	return func(cfg *clientConfig) {
		cfg.searchYears = years
	}
}

// WithClock sets the time source for default list windows
func WithClock(now func() time.Time) ClientOption {
	return func(cfg *clientConfig) {
		cfg.now = now
	}
}

// WithLogger sets the logger
func WithLogger(log *zap.Logger) ClientOption {
	return func(cfg *clientConfig) {
		cfg.log = log
	}
}

// WithMetrics records session refreshes
func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(cfg *clientConfig) {
		cfg.metrics = m
	}
}

// EndpointFor returns the default service URL of an environment
func EndpointFor(env credentials.Environment) string {
	if env == credentials.EnvProduction {
		return DefaultProductionEndpoint
	}
	return DefaultTestEndpoint
}

// NewClient creates a client. No network call happens until the first
// operation, and none at all while the credentials fail credentials.Check.
func NewClient(creds credentials.Credentials, opts ...ClientOption) *Client {
	cfg := &clientConfig{
		endpoint:    EndpointFor(creds.Environment),
		timeout:     DefaultTimeout,
		searchYears: DefaultSearchYears,
		now:         time.Now,
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.endpoint == "" {
		cfg.endpoint = EndpointFor(creds.Environment)
	}
	if cfg.searchYears <= 0 {
		cfg.searchYears = DefaultSearchYears
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.timeout}
	}

	return &Client{
		creds:       creds,
		endpoint:    cfg.endpoint,
		httpClient:  httpClient,
		autoSign:    cfg.autoSign,
		searchYears: cfg.searchYears,
		now:         cfg.now,
		newCallID:   uuid.NewString,
		log:         cfg.log.With(zap.String("endpoint", cfg.endpoint)),
		metrics:     cfg.metrics,
	}
}

// Endpoint returns the service URL in use
func (c *Client) Endpoint() string {
	return c.endpoint
}

func (c *Client) List(ctx context.Context, q gateway.ListQuery) ([]model.InvoiceSummary, error) {
	w, err := q.Normalize()
	if err != nil {
		return nil, err
	}
	start, end := c.window(w)

	items, err := c.listRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	// Only bounds the caller gave are enforced; the implicit window just
	// scopes the request.
	out := make([]model.InvoiceSummary, 0, min(len(items), w.Limit))
	for _, s := range items {
		if len(out) == w.Limit {
			break
		}
		if w.Contains(s.IssueDate) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (c *Client) listRange(ctx context.Context, start, end time.Time) ([]model.InvoiceSummary, error) {
	req := listRequest{
		XMLName: operation(OpGetInvoiceList),
		CallID:  c.newCallID(),
		Start:   formatDate(start),
		End:     formatDate(end),
		Type:    invoiceTypeFilter,
	}
	var resp listResponse
	if err := c.invoke(ctx, OpGetInvoiceList, req, &resp); err != nil {
		return nil, translate(err, "")
	}
	return c.summaries(resp.Invoices), nil
}

// window fills open bounds: the end defaults to today, the start to one
// year before the end.
func (c *Client) window(w gateway.Window) (time.Time, time.Time) {
	end := gateway.DateOnly(c.now())
	if w.End != nil {
		end = *w.End
	}
	if w.Start != nil && w.Start.After(end) {
		end = *w.Start
	}
	start := end.AddDate(-lookbackYears, 0, 0)
	if w.Start != nil {
		start = *w.Start
	}
	return start, end
}

// summaries converts list records newest first. Ties keep the later record
// of the response ahead. Unreadable records are skipped.
func (c *Client) summaries(records []invoiceRecord) []model.InvoiceSummary {
	out := make([]model.InvoiceSummary, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		s, err := records[i].summary()
		if err != nil {
			c.log.Warn("skipping unreadable invoice record", zap.Error(err))
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].IssueDate.After(out[j].IssueDate)
	})
	return out
}

func (c *Client) GetDetail(ctx context.Context, invoiceID string) (*model.Invoice, error) {
	id, err := gateway.ValidateInvoiceID(invoiceID)
	if err != nil {
		return nil, err
	}

	inv, err := c.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	if len(inv.Lines) == 0 || inv.Supplier.TaxID == "" || inv.Customer.TaxID == "" {
		c.fillFromDocument(ctx, inv)
	}
	return inv, nil
}

func (c *Client) fetch(ctx context.Context, id string) (*model.Invoice, error) {
	req := detailRequest{
		XMLName: operation(OpGetInvoice),
		CallID:  c.newCallID(),
		ETTN:    id,
	}
	var resp detailResponse
	if err := c.invoke(ctx, OpGetInvoice, req, &resp); err != nil {
		return nil, translate(err, id)
	}
	if resp.Invoice == nil || strings.TrimSpace(resp.Invoice.ETTN) == "" {
		return nil, model.NewNotFoundError(id)
	}

	inv, err := resp.Invoice.invoice()
	if err != nil {
		return nil, model.NewNetworkError(OpGetInvoice, "unreadable invoice record", err)
	}
	return inv, nil
}

// fillFromDocument completes parties and lines from the UBL document.
// Failures leave the invoice as the detail response described it.
func (c *Client) fillFromDocument(ctx context.Context, inv *model.Invoice) {
	doc, err := c.GetRawContent(ctx, inv.ID)
	if err != nil || doc.Format != model.FormatXML {
		c.log.Debug("no UBL document for detail fill", zap.String("invoice_id", inv.ID), zap.Error(err))
		return
	}
	parsed, err := ubl.Parse(doc.Content)
	if err != nil {
		c.log.Debug("UBL document unreadable", zap.String("invoice_id", inv.ID), zap.Error(err))
		return
	}

	if len(inv.Lines) == 0 {
		inv.Lines = parsed.Lines
	}
	if inv.Supplier.TaxID == "" {
		inv.Supplier.TaxID = parsed.Supplier.TaxID
	}
	if inv.Supplier.Name == "" {
		inv.Supplier.Name = parsed.Supplier.Name
	}
	if inv.Customer.TaxID == "" {
		inv.Customer.TaxID = parsed.Customer.TaxID
	}
	if inv.Customer.Name == "" {
		inv.Customer.Name = parsed.Customer.Name
	}
}

func (c *Client) GetRawContent(ctx context.Context, invoiceID string) (*model.Document, error) {
	id, err := gateway.ValidateInvoiceID(invoiceID)
	if err != nil {
		return nil, err
	}

	req := documentRequest{
		XMLName:  operation(OpGetInvoiceDocument),
		CallID:   c.newCallID(),
		ETTN:     id,
		Document: "FATURA",
	}
	var resp documentResponse
	if err := c.invoke(ctx, OpGetInvoiceDocument, req, &resp); err != nil {
		return nil, translate(err, id)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return nil, model.NewNotFoundError(id)
	}

	doc, err := decodeDocument(id, resp.Format, resp.Content)
	if err != nil {
		return nil, model.NewNetworkError(OpGetInvoiceDocument, "undecodable document", err)
	}
	return doc, nil
}

func (c *Client) Create(ctx context.Context, draft model.InvoiceDraft) (*model.Invoice, error) {
	inv, err := gateway.ValidateDraft(draft)
	if err != nil {
		return nil, err
	}

	req := createRequest{
		XMLName: operation(OpCreateDraftInvoice),
		CallID:  c.newCallID(),
		Invoice: recordFromInvoice(inv),
	}
	var resp createResponse
	if err := c.invoke(ctx, OpCreateDraftInvoice, req, &resp); err != nil {
		return nil, translate(err, "")
	}

	inv.ID = strings.TrimSpace(resp.ETTN)
	if inv.ID == "" {
		return nil, model.NewNetworkError(OpCreateDraftInvoice, "response carried no ettn", nil)
	}
	inv.Content = model.ContentRef("gib://" + inv.ID)
	inv.Status = c.reportedStatus(resp.Status)

	if c.autoSign {
		status, err := c.sign(ctx, inv.ID, inv.Status)
		if err != nil {
			c.log.Warn("GİB draft left unsigned", zap.String("invoice_id", inv.ID), zap.Error(err))
			return nil, model.NewUnsignedDraftError(inv.ID, err)
		}
		inv.Status = status
	}

	c.log.Info("GİB invoice created",
		zap.String("invoice_id", inv.ID),
		zap.String("invoice_number", inv.Number),
		zap.Stringer("status", inv.Status),
	)
	return inv, nil
}

// sign approves a draft. A response without onayDurumu keeps current.
func (c *Client) sign(ctx context.Context, id string, current model.Status) (model.Status, error) {
	req := signRequest{
		XMLName: operation(OpSignDraftInvoice),
		CallID:  c.newCallID(),
		ETTNs:   []string{id},
	}
	var resp signResponse
	if err := c.invoke(ctx, OpSignDraftInvoice, req, &resp); err != nil {
		return current, translate(err, id)
	}
	if strings.TrimSpace(resp.Status) == "" {
		return current, nil
	}
	return c.reportedStatus(resp.Status), nil
}

// reportedStatus maps a backend status, Pending when absent or unknown
func (c *Client) reportedStatus(raw string) model.Status {
	status, ok := ParseStatus(raw)
	if !ok && strings.TrimSpace(raw) != "" {
		c.log.Warn("unknown onayDurumu, assuming pending", zap.String("onay_durumu", raw))
	}
	return status
}

func (c *Client) Cancel(ctx context.Context, invoiceID, reason string) (*model.Invoice, error) {
	id, reason, err := gateway.ValidateCancel(invoiceID, reason)
	if err != nil {
		return nil, err
	}

	inv, err := c.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if !inv.Status.CanTransitionTo(model.StatusCancelled) {
		return nil, model.NewStateError(inv.ID, inv.Status, model.StatusCancelled)
	}

	req := cancelRequest{
		XMLName: operation(OpCancelInvoice),
		CallID:  c.newCallID(),
		ETTN:    inv.ID,
		Reason:  reason,
	}
	var resp cancelResponse
	if err := c.invoke(ctx, OpCancelInvoice, req, &resp); err != nil {
		return nil, translate(err, inv.ID)
	}

	inv.Status = model.StatusCancelled
	if status, ok := ParseStatus(resp.Status); ok && status != model.StatusCancelled {
		c.log.Warn("cancel acknowledged with unexpected status",
			zap.String("invoice_id", inv.ID), zap.String("onay_durumu", resp.Status))
	}

	c.log.Info("GİB invoice cancelled", zap.String("invoice_id", inv.ID))
	return inv, nil
}

// Search walks the catalog one year at a time, newest first, back to the
// search horizon and filters locally. Nothing is capped: every record the
// service returns is a candidate, whatever its date.
func (c *Client) Search(ctx context.Context, f gateway.SearchFilters) ([]model.InvoiceSummary, error) {
	m, err := f.Compile()
	if err != nil {
		return nil, err
	}

	end := gateway.DateOnly(c.now())
	floor := end.AddDate(-c.searchYears, 0, 0)

	seen := make(map[string]struct{})
	var all []model.InvoiceSummary
	for end.After(floor) {
		start := end.AddDate(-1, 0, 1)
		if start.Before(floor) {
			start = floor
		}

		items, err := c.listRange(ctx, start, end)
		if err != nil {
			return nil, err
		}
		for _, s := range items {
			if _, dup := seen[s.ID]; dup {
				continue
			}
			seen[s.ID] = struct{}{}
			all = append(all, s)
		}
		end = start.AddDate(0, 0, -1)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].IssueDate.After(all[j].IssueDate)
	})
	return m.Filter(all), nil
}

var _ gateway.Gateway = (*Client)(nil)
