// Package consistency compares the documents of one claim for contradicting dates and amounts.
package consistency

import (
	"math"
	"time"

	"github.com/ppiankov/claimrisk/internal/model"
)

// Checker derives a ConsistencyReport from a claim's full feature set.
// It holds no state between calls.
type Checker struct {
	toleranceDays int
	threshold     float64
}

// NewChecker creates a checker from config
func NewChecker(cfg model.ConsistencyConfig) *Checker {
	return &Checker{
		toleranceDays: cfg.DateToleranceDays,
		threshold:     cfg.AmountDeviationThreshold,
	}
}

// Check compares dates across all documents and amounts across invoice documents.
// Values exactly at a tolerance boundary count as consistent.
func (c *Checker) Check(features []model.DocumentFeatures) model.ConsistencyReport {
	report := model.ConsistencyReport{
		DatesConsistent:   true,
		AmountsConsistent: true,
	}

	c.checkDates(features, &report)
	c.checkAmounts(features, &report)

	return report
}

func (c *Checker) checkDates(features []model.DocumentFeatures, report *model.ConsistencyReport) {
	var earliest, latest time.Time
	for _, f := range features {
		if !f.HasDates() {
			continue
		}
		report.DocumentsWithDates++
		for _, d := range f.ExtractedDates {
			if earliest.IsZero() || d.Before(earliest) {
				earliest = d
			}
			if latest.IsZero() || d.After(latest) {
				latest = d
			}
		}
	}

	if report.DocumentsWithDates < 2 {
		return
	}

	report.DateSpanDays = daysBetween(earliest, latest)
	report.DatesConsistent = report.DateSpanDays <= c.toleranceDays
}

// checkAmounts compares one representative amount per invoice: its largest value,
// which is the bill total when line items are listed too.
func (c *Checker) checkAmounts(features []model.DocumentFeatures, report *model.ConsistencyReport) {
	var totals []float64
	for _, f := range features {
		if !f.IsInvoice() || !f.HasAmounts() {
			continue
		}
		totals = append(totals, largest(f.ExtractedAmts))
	}
	report.InvoicesWithAmounts = len(totals)

	if len(totals) < 2 {
		return
	}

	report.MaxAmountDeviation = relativeDeviation(totals)
	report.AmountsConsistent = report.MaxAmountDeviation <= c.threshold
}

// relativeDeviation is the largest pairwise |a-b|/min(a,b), i.e. (max-min)/min.
// A zero amount next to a non-zero one gets the largest finite deviation.
func relativeDeviation(values []float64) float64 {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		return 0
	}
	if lo <= 0 {
		return math.MaxFloat64
	}
	return (hi - lo) / lo
}

func largest(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func daysBetween(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(math.Round(b.Sub(a).Hours() / 24))
}
