// Package report renders estimates, job cards and inventory as PDF and XLSX
// documents and saves them under the configured output directory.
package report

import (
	"strings"
	"time"

	"github.com/diewo77/go-garage/internal/config"
	"github.com/shopspring/decimal"
)

// Renderer holds the presentation settings shared by every document.
type Renderer struct {
	ShopName string
	Currency string
	Now      func() time.Time
}

// NewRenderer builds a renderer from the reports settings, stamping documents with time.Now.
func NewRenderer(cfg config.ReportsConfig) *Renderer {
	r := &Renderer{ShopName: cfg.ShopName, Currency: cfg.Currency, Now: time.Now}
	if r.ShopName == "" {
		r.ShopName = "Car Management System"
	}
	return r
}

// Round2 rounds half away from zero to two places. Stored amounts keep full
// precision; rounding happens here only.
func Round2(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// Amount formats v with two decimals and thousands separators, without currency.
func Amount(v float64) string {
	s := Round2(v).StringFixed(2)
	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")
	out := groupThousands(intPart) + "." + frac
	if negative && out != "0.00" {
		out = "-" + out
	}
	return out
}

// Money prefixes Amount with the configured currency code.
func (r *Renderer) Money(v float64) string {
	if r.Currency == "" {
		return Amount(v)
	}
	return r.Currency + " " + Amount(v)
}

// Sum adds stored amounts exactly before they are rounded for display.
func Sum(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	f, _ := total.Float64()
	return f
}

func groupThousands(s string) string {
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func dateOrDash(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
