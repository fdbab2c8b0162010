// Package demo implements the Gateway over a session-scoped in-memory
// catalog seeded with five fixed invoices. Nothing is persisted.
package demo

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reyhansunduk/efatura-mcp-server/internal/gateway"
	"github.com/reyhansunduk/efatura-mcp-server/internal/model"
	"github.com/reyhansunduk/efatura-mcp-server/internal/ubl"
)

// Store is the demo catalog. Reads share the lock; create and cancel are exclusive.
type Store struct {
	mu       sync.RWMutex
	invoices []*model.Invoice
	byID     map[string]*model.Invoice

	newID func() string
	log   *zap.Logger
}

// Option configures a Store
type Option func(*Store)

// WithIDGenerator overrides the ETTN generator used by Create
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		s.newID = fn
	}
}

// WithLogger sets the logger
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

// New creates a Store holding the seed catalog
func New(opts ...Option) *Store {
	s := &Store{
		byID:  make(map[string]*model.Invoice),
		newID: uuid.NewString,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, inv := range seedInvoices() {
		s.insertLocked(inv)
	}
	return s
}

func (s *Store) insertLocked(inv *model.Invoice) {
	s.invoices = append(s.invoices, inv)
	s.byID[inv.ID] = inv
}

// lookupLocked resolves an ETTN, falling back to the invoice number
func (s *Store) lookupLocked(id string) (*model.Invoice, bool) {
	if inv, ok := s.byID[id]; ok {
		return inv, true
	}
	for _, inv := range s.invoices {
		if inv.Number == id {
			return inv, true
		}
	}
	return nil, false
}

// orderedLocked returns the catalog newest first. Ties keep later
// insertions ahead of earlier ones.
func (s *Store) orderedLocked() []*model.Invoice {
	out := make([]*model.Invoice, 0, len(s.invoices))
	for i := len(s.invoices) - 1; i >= 0; i-- {
		out = append(out, s.invoices[i])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].IssueDate.After(out[j].IssueDate)
	})
	return out
}

// Len returns the number of invoices in the catalog
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.invoices)
}

func (s *Store) List(ctx context.Context, q gateway.ListQuery) ([]model.InvoiceSummary, error) {
	w, err := q.Normalize()
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.InvoiceSummary, 0, w.Limit)
	for _, inv := range s.orderedLocked() {
		if len(out) == w.Limit {
			break
		}
		if w.Contains(inv.IssueDate) {
			out = append(out, inv.Summary())
		}
	}
	return out, nil
}

func (s *Store) GetDetail(ctx context.Context, invoiceID string) (*model.Invoice, error) {
	id, err := gateway.ValidateInvoiceID(invoiceID)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.lookupLocked(id)
	if !ok {
		return nil, model.NewNotFoundError(id)
	}
	return inv.Clone(), nil
}

func (s *Store) GetRawContent(ctx context.Context, invoiceID string) (*model.Document, error) {
	inv, err := s.GetDetail(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	content, err := ubl.Render(inv)
	if err != nil {
		return nil, fmt.Errorf("failed to render invoice %s: %w", inv.ID, err)
	}
	return &model.Document{
		InvoiceID: inv.ID,
		Format:    model.FormatXML,
		Content:   content,
	}, nil
}

func (s *Store) Create(ctx context.Context, draft model.InvoiceDraft) (*model.Invoice, error) {
	inv, err := gateway.ValidateDraft(draft)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.invoices {
		if existing.Supplier.TaxID == inv.Supplier.TaxID && strings.EqualFold(existing.Number, inv.Number) {
			return nil, model.NewValidationError("invoice_number", inv.Number, "unique",
				"an invoice with this number already exists for the supplier")
		}
	}

	inv.ID = s.newID()
	inv.Status = model.StatusPending
	inv.Content = contentRef(inv.ID)
	s.insertLocked(inv)

	s.log.Info("demo invoice created",
		zap.String("invoice_id", inv.ID),
		zap.String("invoice_number", inv.Number),
		zap.Int("catalog_size", len(s.invoices)),
	)

	return inv.Clone(), nil
}

func (s *Store) Cancel(ctx context.Context, invoiceID, reason string) (*model.Invoice, error) {
	id, reason, err := gateway.ValidateCancel(invoiceID, reason)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.lookupLocked(id)
	if !ok {
		return nil, model.NewNotFoundError(id)
	}
	if !inv.Status.CanTransitionTo(model.StatusCancelled) {
		return nil, model.NewStateError(inv.ID, inv.Status, model.StatusCancelled)
	}

	inv.Status = model.StatusCancelled

	s.log.Info("demo invoice cancelled",
		zap.String("invoice_id", inv.ID),
		zap.String("reason", reason),
	)

	return inv.Clone(), nil
}

func (s *Store) Search(ctx context.Context, f gateway.SearchFilters) ([]model.InvoiceSummary, error) {
	m, err := f.Compile()
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.InvoiceSummary, 0, len(s.invoices))
	for _, inv := range s.orderedLocked() {
		if summary := inv.Summary(); m.Match(summary) {
			out = append(out, summary)
		}
	}
	return out, nil
}

var _ gateway.Gateway = (*Store)(nil)
