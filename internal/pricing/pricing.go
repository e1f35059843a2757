// Package pricing holds the levy schedule and checks stored estimates against it.
package pricing

import (
	"errors"
	"fmt"
	"math"

	"github.com/diewo77/go-garage/internal/models"
	"github.com/diewo77/go-garage/internal/validation"
)

// Levy rates of the local tax schedule. VAT applies to the levied amount.
const (
	NHILRate      = 0.025
	GETFundRate   = 0.025
	COVIDLevyRate = 0.01
	VATRate       = 0.15

	// Tolerance is the accepted drift between a stored and a recomputed total.
	Tolerance = 1e-6
)

// ErrCorruptEstimate marks a stored estimate whose amounts disagree with the levy schedule.
var ErrCorruptEstimate = errors.New("estimate amounts do not match the levy schedule")

// LevyBreakdown carries every derived amount for one subtotal, at full precision.
type LevyBreakdown struct {
	Subtotal  float64
	NHIL      float64
	GETFund   float64
	COVIDLevy float64
	Levied    float64
	VAT       float64
	Total     float64
}

// ComputeLevies prices a subtotal. Non-positive or non-finite subtotals are rejected.
func ComputeLevies(subtotal float64) (LevyBreakdown, error) {
	if math.IsNaN(subtotal) || subtotal <= 0 {
		return LevyBreakdown{}, validation.New("subtotal", "subtotal must be greater than zero")
	}
	if math.IsInf(subtotal, 0) {
		return LevyBreakdown{}, validation.New("subtotal", "subtotal must be a finite amount")
	}
	b := LevyBreakdown{
		Subtotal:  subtotal,
		NHIL:      subtotal * NHILRate,
		GETFund:   subtotal * GETFundRate,
		COVIDLevy: subtotal * COVIDLevyRate,
	}
	b.Levied = subtotal + b.NHIL + b.GETFund + b.COVIDLevy
	b.VAT = b.Levied * VATRate
	b.Total = b.Levied + b.VAT
	return b, nil
}

// Apply copies the derived amounts onto e. All five are always written together.
func (b LevyBreakdown) Apply(e *models.Estimate) {
	e.Subtotal = b.Subtotal
	e.NHIL = b.NHIL
	e.GETFund = b.GETFund
	e.COVIDLevy = b.COVIDLevy
	e.VAT = b.VAT
	e.TotalAmount = b.Total
}

// SubtotalFromServices sums parts and labor over the given lines.
func SubtotalFromServices(lines []models.Service) float64 {
	var sum float64
	for _, l := range lines {
		sum += l.PartsCost + l.LaborCost
	}
	return sum
}

// VerifyEstimate recomputes the schedule from the stored subtotal and
// compares every stored amount against it.
func VerifyEstimate(e *models.Estimate) error {
	want, err := ComputeLevies(e.Subtotal)
	if err != nil {
		return fmt.Errorf("%w: estimate %d: %v", ErrCorruptEstimate, e.ID, err)
	}
	checks := []struct {
		name      string
		got, want float64
	}{
		{"nhil", e.NHIL, want.NHIL},
		{"getfund", e.GETFund, want.GETFund},
		{"covid_levy", e.COVIDLevy, want.COVIDLevy},
		{"vat", e.VAT, want.VAT},
		{"total_amount", e.TotalAmount, want.Total},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > Tolerance {
			return fmt.Errorf("%w: estimate %d: %s is %.6f, expected %.6f", ErrCorruptEstimate, e.ID, c.name, c.got, c.want)
		}
	}
	return nil
}
