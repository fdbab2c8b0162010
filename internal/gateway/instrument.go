package gateway

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/reyhansunduk/efatura-mcp-server/internal/logger"
	"github.com/reyhansunduk/efatura-mcp-server/internal/metrics"
	"github.com/reyhansunduk/efatura-mcp-server/internal/model"
)

// Instrumented decorates a Gateway with metrics and structured logs.
type Instrumented struct {
	next    Gateway
	mode    Mode
	metrics *metrics.Metrics
	log     *zap.Logger
}

// Instrument wraps next. Nil metrics or logger disable that concern.
func Instrument(next Gateway, mode Mode, m *metrics.Metrics, log *zap.Logger) *Instrumented {
	if log == nil {
		log = zap.NewNop()
	}
	return &Instrumented{
		next:    next,
		mode:    mode,
		metrics: m,
		log:     log.With(zap.String("mode", string(mode))),
	}
}

// Unwrap returns the decorated gateway
func (g *Instrumented) Unwrap() Gateway {
	return g.next
}

func (g *Instrumented) observe(ctx context.Context, op string, start time.Time, err error, fields ...zap.Field) {
	g.metrics.ObserveCall(op, string(g.mode), start, err)

	log := logger.WithContext(ctx, g.log)
	fields = append(fields,
		zap.String("operation", op),
		zap.Duration("duration", time.Since(start)),
	)
	if err == nil {
		log.Debug("gateway call", fields...)
		return
	}

	fields = append(fields, zap.String("error_kind", string(model.KindOf(err))), zap.Error(err))
	switch model.KindOf(err) {
	case model.KindNetwork, model.KindInternal:
		log.Error("gateway call failed", fields...)
	default:
		log.Info("gateway call rejected", fields...)
	}
}

func (g *Instrumented) List(ctx context.Context, q ListQuery) (out []model.InvoiceSummary, err error) {
	defer func(start time.Time) {
		g.observe(ctx, OpList, start, err, zap.Int("limit", q.Limit), zap.Int("results", len(out)))
	}(time.Now())
	return g.next.List(ctx, q)
}

func (g *Instrumented) GetDetail(ctx context.Context, invoiceID string) (inv *model.Invoice, err error) {
	defer func(start time.Time) {
		g.observe(ctx, OpGetDetail, start, err, zap.String("invoice_id", invoiceID))
	}(time.Now())
	return g.next.GetDetail(ctx, invoiceID)
}

func (g *Instrumented) GetRawContent(ctx context.Context, invoiceID string) (doc *model.Document, err error) {
	defer func(start time.Time) {
		g.observe(ctx, OpGetRawContent, start, err, zap.String("invoice_id", invoiceID))
	}(time.Now())
	return g.next.GetRawContent(ctx, invoiceID)
}

func (g *Instrumented) Create(ctx context.Context, draft model.InvoiceDraft) (inv *model.Invoice, err error) {
	defer func(start time.Time) {
		fields := []zap.Field{zap.String("invoice_number", draft.InvoiceNumber)}
		if inv != nil {
			fields = append(fields, zap.String("invoice_id", inv.ID), zap.Stringer("status", inv.Status))
		}
		g.observe(ctx, OpCreate, start, err, fields...)
	}(time.Now())
	return g.next.Create(ctx, draft)
}

func (g *Instrumented) Cancel(ctx context.Context, invoiceID, reason string) (inv *model.Invoice, err error) {
	defer func(start time.Time) {
		g.observe(ctx, OpCancel, start, err, zap.String("invoice_id", invoiceID))
	}(time.Now())
	return g.next.Cancel(ctx, invoiceID, reason)
}

func (g *Instrumented) Search(ctx context.Context, f SearchFilters) (out []model.InvoiceSummary, err error) {
	defer func(start time.Time) {
		g.observe(ctx, OpSearch, start, err, zap.Int("results", len(out)))
	}(time.Now())
	return g.next.Search(ctx, f)
}

var _ Gateway = (*Instrumented)(nil)
