package invoice

import (
	"strings"
	"testing"

	"smartcheckout/models"
)

func TestTotal(t *testing.T) {
	testCases := []struct {
		name     string
		products []models.DetectedProduct
		total    string
	}{
		{
			name: "Example scenario",
			products: []models.DetectedProduct{
				{Name: "Soda", Quantity: 3, Price: 1.25},
				{Name: "Chips", Quantity: 2, Price: 2.00},
			},
			total: "$7.75",
		},
		{
			name:     "Empty snapshot",
			products: nil,
			total:    "$0.00",
		},
		{
			name: "Zero quantity contributes nothing",
			products: []models.DetectedProduct{
				{Name: "Soda", Quantity: 0, Price: 1.25},
			},
			total: "$0.00",
		},
		{
			name: "Zero price contributes nothing",
			products: []models.DetectedProduct{
				{Name: "Mystery", Quantity: 4, Price: 0},
			},
			total: "$0.00",
		},
		{
			name: "Repeated names are separate line items",
			products: []models.DetectedProduct{
				{Name: "Soda", Quantity: 1, Price: 1.25},
				{Name: "Soda", Quantity: 2, Price: 1.25},
			},
			total: "$3.75",
		},
		{
			name: "Cent amounts stay exact",
			products: []models.DetectedProduct{
				{Name: "Gum", Quantity: 3, Price: 0.10},
			},
			total: "$0.30",
		},
	}

	for _, testCase := range testCases {
		got := FormatAmount(Total(testCase.products))
		if got != testCase.total {
			t.Errorf("%s: total = %s, want %s", testCase.name, got, testCase.total)
		}
	}
}

func TestBillDerivation(t *testing.T) {
	inv := New()

	products := []models.DetectedProduct{
		{Name: "Soda", Quantity: 3, Price: 1.25},
		{Name: "Chips", Quantity: 2, Price: 2.00},
	}

	bill := inv.Bill(products)

	if bill.Total != "$7.75" {
		t.Errorf("Total = %s, want $7.75", bill.Total)
	}
	if len(bill.Lines) != 2 {
		t.Fatalf("Line count = %d, want 2", len(bill.Lines))
	}
	// Snapshot order must be preserved
	if bill.Lines[0].Name != "Soda" || bill.Lines[1].Name != "Chips" {
		t.Errorf("Line order = %s, %s; want Soda, Chips", bill.Lines[0].Name, bill.Lines[1].Name)
	}
	if bill.Lines[0].Amount != "$3.75" {
		t.Errorf("First line amount = %s, want $3.75", bill.Lines[0].Amount)
	}
	if bill.Lines[1].Amount != "$4.00" {
		t.Errorf("Second line amount = %s, want $4.00", bill.Lines[1].Amount)
	}
}

func TestBillSupersedesPriorSnapshot(t *testing.T) {
	inv := New()

	first := []models.DetectedProduct{{Name: "A", Quantity: 2, Price: 1.50}}
	second := []models.DetectedProduct{{Name: "B", Quantity: 1, Price: 3.00}}

	inv.Bill(first)
	bill := inv.Bill(second)

	// No accumulation across snapshots: 3.00, not 6.00
	if bill.Total != "$3.00" {
		t.Errorf("Total = %s, want $3.00", bill.Total)
	}
	if len(bill.Lines) != 1 || bill.Lines[0].Name != "B" {
		t.Errorf("Lines = %v, want a single line for B", bill.Lines)
	}
}

func TestInvoiceIdentityFixed(t *testing.T) {
	inv := New()

	if !strings.HasPrefix(inv.Number, "INV-") || len(inv.Number) != len("INV-")+8 {
		t.Errorf("Number = %q, want INV- prefix with 8 characters", inv.Number)
	}

	empty := inv.Bill(nil)
	full := inv.Bill([]models.DetectedProduct{{Name: "Soda", Quantity: 1, Price: 1.25}})

	if empty.Number != full.Number {
		t.Errorf("Invoice number changed between bills: %s vs %s", empty.Number, full.Number)
	}
	if empty.Date != full.Date {
		t.Errorf("Invoice date changed between bills: %s vs %s", empty.Date, full.Date)
	}

	other := New()
	if other.Number == inv.Number {
		t.Errorf("Two invoices generated the same number %s", inv.Number)
	}
}

func TestBillEmptySnapshot(t *testing.T) {
	bill := New().Bill(nil)

	if bill.Total != "$0.00" {
		t.Errorf("Total = %s, want $0.00", bill.Total)
	}
	if len(bill.Lines) != 0 {
		t.Errorf("Line count = %d, want 0", len(bill.Lines))
	}
}
