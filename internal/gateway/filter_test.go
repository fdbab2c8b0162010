package gateway_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reyhansunduk/efatura-mcp-server/internal/gateway"
	"github.com/reyhansunduk/efatura-mcp-server/internal/model"
)

var summaries = []model.InvoiceSummary{
	{ID: "1", SupplierName: "Demo Teknoloji A.Ş.", CustomerName: "Örnek Müşteri Ltd. Şti.", TotalAmount: dec("15000.00"), Status: model.StatusApproved},
	{ID: "2", SupplierName: "Demo Teknoloji A.Ş.", CustomerName: "IŞIK YAPI A.Ş.", TotalAmount: dec("8500.50"), Status: model.StatusApproved},
	{ID: "3", SupplierName: "İSTANBUL YAZILIM", CustomerName: "Proje Danışmanlık Ltd.", TotalAmount: dec("22000.00"), Status: model.StatusPending},
	{ID: "4", SupplierName: "Demo Teknoloji A.Ş.", CustomerName: "Test Şirketi A.Ş.", TotalAmount: dec("45000.00"), Status: model.StatusCancelled},
}

func ids(items []model.InvoiceSummary) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		out = append(out, s.ID)
	}
	return out
}

func TestSearchFilters_Match(t *testing.T) {
	tests := []struct {
		name    string
		filters gateway.SearchFilters
		want    []string
	}{
		{"empty matches all", gateway.SearchFilters{}, []string{"1", "2", "3", "4"}},
		{"customer substring", gateway.SearchFilters{CustomerName: "ltd"}, []string{"1", "3"}},
		{"customer upper turkish", gateway.SearchFilters{CustomerName: "ÖRNEK MÜŞTERİ"}, []string{"1"}},
		{"dotless i", gateway.SearchFilters{CustomerName: "ışık"}, []string{"2"}},
		{"dotted capital I", gateway.SearchFilters{SupplierName: "istanbul"}, []string{"3"}},
		{"supplier", gateway.SearchFilters{SupplierName: "demo"}, []string{"1", "2", "4"}},
		{"min inclusive", gateway.SearchFilters{MinAmount: decPtr("22000")}, []string{"3", "4"}},
		{"max inclusive", gateway.SearchFilters{MaxAmount: decPtr("8500.50")}, []string{"2"}},
		{"range", gateway.SearchFilters{MinAmount: decPtr("10000"), MaxAmount: decPtr("30000")}, []string{"1", "3"}},
		{"status", gateway.SearchFilters{Status: "approved"}, []string{"1", "2"}},
		{"status cancelled alias", gateway.SearchFilters{Status: "Canceled"}, []string{"4"}},
		{"and of filters", gateway.SearchFilters{SupplierName: "demo", Status: "approved", MinAmount: decPtr("10000")}, []string{"1"}},
		{"no match", gateway.SearchFilters{CustomerName: "yok böyle bir firma"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := tt.filters.Compile()
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(m.Filter(summaries)))
		})
	}
}

func TestSearchFilters_Errors(t *testing.T) {
	tests := []struct {
		name    string
		filters gateway.SearchFilters
	}{
		{"min above max", gateway.SearchFilters{MinAmount: decPtr("500"), MaxAmount: decPtr("100")}},
		{"negative min", gateway.SearchFilters{MinAmount: decPtr("-1")}},
		{"negative max", gateway.SearchFilters{MaxAmount: decPtr("-1")}},
		{"unknown status", gateway.SearchFilters{Status: "paid"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.filters.Compile()
			require.Error(t, err)
			assert.Equal(t, model.KindValidation, model.KindOf(err))
		})
	}
}

func TestMatcher_IsEmpty(t *testing.T) {
	m, err := gateway.SearchFilters{CustomerName: "  "}.Compile()
	require.NoError(t, err)
	assert.True(t, m.IsEmpty())

	m, err = gateway.SearchFilters{Status: "pending"}.Compile()
	require.NoError(t, err)
	assert.False(t, m.IsEmpty())
}
