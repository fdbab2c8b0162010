package gateway_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/reyhansunduk/efatura-mcp-server/internal/gateway"
	"github.com/reyhansunduk/efatura-mcp-server/internal/metrics"
	"github.com/reyhansunduk/efatura-mcp-server/internal/model"
)

type stubGateway struct {
	err error
}

func (s *stubGateway) List(ctx context.Context, q gateway.ListQuery) ([]model.InvoiceSummary, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []model.InvoiceSummary{{ID: "a"}, {ID: "b"}}, nil
}

func (s *stubGateway) GetDetail(ctx context.Context, id string) (*model.Invoice, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.Invoice{ID: id}, nil
}

func (s *stubGateway) GetRawContent(ctx context.Context, id string) (*model.Document, error) {
	return &model.Document{InvoiceID: id, Format: model.FormatXML}, s.err
}

func (s *stubGateway) Create(ctx context.Context, d model.InvoiceDraft) (*model.Invoice, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.Invoice{ID: "new", Number: d.InvoiceNumber}, nil
}

func (s *stubGateway) Cancel(ctx context.Context, id, reason string) (*model.Invoice, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.Invoice{ID: id, Status: model.StatusCancelled}, nil
}

func (s *stubGateway) Search(ctx context.Context, f gateway.SearchFilters) ([]model.InvoiceSummary, error) {
	return nil, s.err
}

func TestInstrument_Success(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	core, logs := observer.New(zap.DebugLevel)
	g := gateway.Instrument(&stubGateway{}, gateway.ModeDemo, m, zap.New(core))

	out, err := g.List(context.Background(), gateway.ListQuery{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, out, 2)

	_, err = g.GetDetail(context.Background(), "a")
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.GatewayCalls.WithLabelValues(gateway.OpList, "demo", metrics.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GatewayCalls.WithLabelValues(gateway.OpGetDetail, "demo", metrics.OutcomeOK)))

	entries := logs.FilterMessage("gateway call").All()
	require.Len(t, entries, 2)
	fields := entries[0].ContextMap()
	assert.Equal(t, gateway.OpList, fields["operation"])
	assert.Equal(t, "demo", fields["mode"])
	assert.EqualValues(t, 2, fields["results"])
}

func TestInstrument_Errors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
		level   zap.AtomicLevel
	}{
		{"validation is info", model.NewValidationError("limit", -1, "min", "must not be negative"), "gateway call rejected", zap.NewAtomicLevelAt(zap.InfoLevel)},
		{"not found is info", model.NewNotFoundError("x"), "gateway call rejected", zap.NewAtomicLevelAt(zap.InfoLevel)},
		{"network is error", model.NewNetworkError("GetInvoice", "timeout", nil), "gateway call failed", zap.NewAtomicLevelAt(zap.ErrorLevel)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.New(prometheus.NewRegistry())
			core, logs := observer.New(zap.DebugLevel)
			g := gateway.Instrument(&stubGateway{err: tt.err}, gateway.ModeTest, m, zap.New(core))

			_, err := g.Cancel(context.Background(), "x", "reason")
			assert.Equal(t, tt.err, err, "errors pass through unchanged")

			entries := logs.FilterMessage(tt.message).All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.level.Level(), entries[0].Level)
			assert.Equal(t, string(model.KindOf(tt.err)), entries[0].ContextMap()["error_kind"])
			assert.Equal(t, 1.0, testutil.ToFloat64(m.GatewayCalls.WithLabelValues(gateway.OpCancel, "test", metrics.OutcomeError)))
		})
	}
}

func TestInstrument_NilDependencies(t *testing.T) {
	g := gateway.Instrument(&stubGateway{}, gateway.ModeDemo, nil, nil)
	inv, err := g.Create(context.Background(), model.InvoiceDraft{InvoiceNumber: "N1"})
	require.NoError(t, err)
	assert.Equal(t, "N1", inv.Number)

	_, ok := g.Unwrap().(*stubGateway)
	assert.True(t, ok)
}
