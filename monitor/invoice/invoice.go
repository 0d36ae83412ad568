package invoice

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"smartcheckout/models"
)

// Invoice identity is fixed when the monitor starts. Line items and the
// total are always derived from the latest detection snapshot, never
// accumulated: a new snapshot fully supersedes the previous bill.
type Invoice struct {
	Number string
	Date   time.Time
}

// New creates an invoice with a random number and the current date.
func New() Invoice {
	id := strings.ToUpper(uuid.New().String()[:8])
	return Invoice{
		Number: "INV-" + id,
		Date:   time.Now(),
	}
}

// Line is one billed row.
type Line struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Amount   string  `json:"amount"`
}

// Bill is the rendered invoice for one snapshot.
type Bill struct {
	Number string `json:"number"`
	Date   string `json:"date"`
	Lines  []Line `json:"lines"`
	Total  string `json:"total"`
}

// Total sums price × quantity over the snapshot. Repeated product names
// stay separate line items and contribute independently.
func Total(products []models.DetectedProduct) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range products {
		sum = sum.Add(lineAmount(p))
	}
	return sum
}

func lineAmount(p models.DetectedProduct) decimal.Decimal {
	return decimal.NewFromFloat(p.Price).Mul(decimal.NewFromInt(int64(p.Quantity)))
}

// FormatAmount renders a decimal amount as a dollar string with two
// decimal places.
func FormatAmount(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// Bill derives the invoice for the given snapshot, preserving snapshot
// order.
func (inv Invoice) Bill(products []models.DetectedProduct) Bill {
	lines := make([]Line, 0, len(products))
	for _, p := range products {
		lines = append(lines, Line{
			Name:     p.Name,
			Quantity: p.Quantity,
			Price:    p.Price,
			Amount:   FormatAmount(lineAmount(p)),
		})
	}

	return Bill{
		Number: inv.Number,
		Date:   inv.Date.Format("2006-01-02"),
		Lines:  lines,
		Total:  FormatAmount(Total(products)),
	}
}
