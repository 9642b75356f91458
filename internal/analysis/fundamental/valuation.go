// Package fundamental implements the valuation engine: a two-stage
// discounted cash flow model and the Gordon dividend discount model.
package fundamental

import (
	"fmt"
	"math"

	"github.com/seenimoa/equitylens/pkg/models"
)

// Valuation verdicts relative to the market price.
const (
	Undervalued  = "Undervalued"
	Overvalued   = "Overvalued"
	FairlyValued = "Fairly Valued"
)

// DCFAssumptions are the user-tunable parameters of the DCF model.
type DCFAssumptions struct {
	Years           int     `json:"years" mapstructure:"years" yaml:"years"`
	ShortTermGrowth float64 `json:"short_term_growth" mapstructure:"short_term_growth" yaml:"short_term_growth"` // decimal, e.g. 0.12
	DiscountRate    float64 `json:"discount_rate" mapstructure:"discount_rate" yaml:"discount_rate"`             // WACC
	TerminalGrowth  float64 `json:"terminal_growth" mapstructure:"terminal_growth" yaml:"terminal_growth"`
}

// MaxYears bounds the explicit projection horizon.
const MaxYears = 100

// Validate checks the DCF preconditions: a horizon of 1 to MaxYears years,
// finite rates, and a discount rate above terminal growth.
func (a DCFAssumptions) Validate() error {
	if a.Years < 1 || a.Years > MaxYears {
		return fmt.Errorf("%w: projection horizon must be 1 to %d years, got %d", ErrInvalidAssumption, MaxYears, a.Years)
	}
	if err := finite("short-term growth", a.ShortTermGrowth); err != nil {
		return err
	}
	if err := finite("discount rate", a.DiscountRate); err != nil {
		return err
	}
	if err := finite("terminal growth", a.TerminalGrowth); err != nil {
		return err
	}
	if a.DiscountRate <= a.TerminalGrowth {
		return fmt.Errorf("%w: discount rate %.4f must exceed terminal growth %.4f",
			ErrInvalidAssumption, a.DiscountRate, a.TerminalGrowth)
	}
	return nil
}

func finite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be a finite number, got %v", ErrInvalidAssumption, name, v)
	}
	return nil
}

// DCFInputs is everything ProjectDCF needs. Monetary values are in the
// reporting currency.
type DCFInputs struct {
	CurrentFCF float64
	DCFAssumptions
	TotalDebt         float64
	TotalCash         float64
	SharesOutstanding float64
}

// DCFResult holds every intermediate of a DCF run so callers can print the
// full derivation.
type DCFResult struct {
	ProjectedFCF    []float64 `json:"projected_fcf"`
	DiscountedFCF   []float64 `json:"discounted_fcf"`
	PVExplicit      float64   `json:"pv_explicit"`
	TerminalValue   float64   `json:"terminal_value"`
	PVTerminal      float64   `json:"pv_terminal"`
	EnterpriseValue float64   `json:"enterprise_value"`
	EquityValue     float64   `json:"equity_value"`
	IntrinsicValue  float64   `json:"intrinsic_value"` // per share
}

// ProjectDCF runs a two-stage DCF: FCF grows at ShortTermGrowth for Years,
// then a Gordon terminal value at TerminalGrowth is discounted back from the
// last explicit year. Equity value is enterprise value less debt plus cash.
func ProjectDCF(in DCFInputs) (*DCFResult, error) {
	if err := in.DCFAssumptions.Validate(); err != nil {
		return nil, err
	}
	if in.SharesOutstanding <= 0 {
		return nil, ErrMissingShareCount
	}

	r := in.DiscountRate
	res := &DCFResult{
		ProjectedFCF:  make([]float64, in.Years),
		DiscountedFCF: make([]float64, in.Years),
	}

	fcf := in.CurrentFCF
	for i := 0; i < in.Years; i++ {
		fcf *= 1 + in.ShortTermGrowth
		res.ProjectedFCF[i] = fcf
		res.DiscountedFCF[i] = fcf / math.Pow(1+r, float64(i+1))
		res.PVExplicit += res.DiscountedFCF[i]
	}

	res.TerminalValue = fcf * (1 + in.TerminalGrowth) / (r - in.TerminalGrowth)
	res.PVTerminal = res.TerminalValue / math.Pow(1+r, float64(in.Years))
	res.EnterpriseValue = res.PVExplicit + res.PVTerminal
	res.EquityValue = res.EnterpriseValue - in.TotalDebt + in.TotalCash
	res.IntrinsicValue = res.EquityValue / in.SharesOutstanding

	return res, nil
}

// BalanceDefaults records which balance-sheet items were unknown and
// substituted with zero.
type BalanceDefaults struct {
	DebtAssumed bool `json:"debt_assumed"`
	CashAssumed bool `json:"cash_assumed"`
}

// InputsFromFacts assembles DCF inputs from company facts. Unknown debt or
// cash is taken as zero and flagged; an unknown share count is left at zero
// so ProjectDCF reports ErrMissingShareCount.
func InputsFromFacts(fcf float64, facts models.CompanyFacts, a DCFAssumptions) (DCFInputs, BalanceDefaults) {
	in := DCFInputs{CurrentFCF: fcf, DCFAssumptions: a}
	var d BalanceDefaults

	if v, ok := models.Deref(facts.TotalDebt); ok {
		in.TotalDebt = v
	} else {
		d.DebtAssumed = true
	}
	if v, ok := models.Deref(facts.TotalCash); ok {
		in.TotalCash = v
	} else {
		d.CashAssumed = true
	}
	if v, ok := models.Deref(facts.SharesOutstanding); ok {
		in.SharesOutstanding = v
	}
	return in, d
}

// Verdict compares an intrinsic value with the market price.
func Verdict(intrinsic, price float64) string {
	switch {
	case intrinsic > price:
		return Undervalued
	case intrinsic < price:
		return Overvalued
	default:
		return FairlyValued
	}
}

// MarginOfSafety is the discount of price to intrinsic value as a share of
// intrinsic value, in percent: (intrinsic - price) / intrinsic * 100. Zero
// when intrinsic value is not positive.
func MarginOfSafety(intrinsic, price float64) float64 {
	if intrinsic <= 0 {
		return 0
	}
	return (intrinsic - price) / intrinsic * 100
}
