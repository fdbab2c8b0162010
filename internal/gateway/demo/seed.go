package demo

import (
	"fmt"
	"time"

	money "github.com/reyhansunduk/efatura-mcp-server/internal/decimal"
	"github.com/reyhansunduk/efatura-mcp-server/internal/model"
)

// SupplierName and SupplierTaxID identify the seeded issuer
const (
	SupplierName  = "Demo Teknoloji A.Ş."
	SupplierTaxID = "4750128368"
)

// SeedCount is the number of invoices every new Store starts with
const SeedCount = 5

type seedLine struct {
	description string
	quantity    string
	unitPrice   string
}

type seedInvoice struct {
	customer    string
	customerVKN string
	total       string
	status      model.Status
	lines       []seedLine
}

var seeds = []seedInvoice{
	{
		customer: "Örnek Müşteri Ltd. Şti.", customerVKN: "6200983415", total: "15000.00", status: model.StatusApproved,
		lines: []seedLine{
			{"Yazılım Lisansı", "1", "10000.00"},
			{"Kurulum Hizmeti", "2", "2500.00"},
		},
	},
	{
		customer: "Test Şirketi A.Ş.", customerVKN: "3830158620", total: "8500.50", status: model.StatusApproved,
		lines: []seedLine{
			{"Teknik Destek (saat)", "10", "750.05"},
			{"Eğitim", "1", "1000.00"},
		},
	},
	{
		customer: "Proje Danışmanlık Ltd.", customerVKN: "7310442192", total: "22000.00", status: model.StatusPending,
		lines: []seedLine{
			{"Danışmanlık Hizmeti", "8", "2750.00"},
		},
	},
	{
		customer: "Yazılım Geliştirme A.Ş.", customerVKN: "2900551473", total: "45000.00", status: model.StatusApproved,
		lines: []seedLine{
			{"Özel Yazılım Geliştirme", "1", "40000.00"},
			{"Proje Yönetimi", "4", "1250.00"},
		},
	},
	{
		customer: "E-Ticaret Platformu Ltd.", customerVKN: "8450335068", total: "12500.75", status: model.StatusApproved,
		lines: []seedLine{
			{"E-Ticaret Entegrasyonu", "1", "9800.75"},
			{"Bakım Paketi (aylık)", "3", "900.00"},
		},
	},
}

// seedInvoices builds the fixed catalog. Every call returns fresh values.
func seedInvoices() []*model.Invoice {
	out := make([]*model.Invoice, 0, len(seeds))
	for i, s := range seeds {
		n := i + 1
		inv := &model.Invoice{
			ID:          fmt.Sprintf("550e8400-e29b-41d4-a716-44665544000%d", n),
			Number:      fmt.Sprintf("ABC2024%06d", n),
			IssueDate:   time.Date(2024, time.December, n, 0, 0, 0, 0, time.UTC),
			Supplier:    model.Party{TaxID: SupplierTaxID, Name: SupplierName},
			Customer:    model.Party{TaxID: s.customerVKN, Name: s.customer},
			TotalAmount: money.MustFromString(s.total),
			Currency:    model.DefaultCurrency,
			Status:      s.status,
		}
		for _, l := range s.lines {
			line := model.InvoiceLine{
				Description: l.description,
				Quantity:    money.MustFromString(l.quantity),
				UnitPrice:   money.MustFromString(l.unitPrice),
			}
			line.Calculate()
			inv.Lines = append(inv.Lines, line)
		}
		inv.Content = contentRef(inv.ID)
		out = append(out, inv)
	}
	return out
}

func contentRef(id string) model.ContentRef {
	return model.ContentRef("demo://" + id)
}
