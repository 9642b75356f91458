package fundamental

import (
	"fmt"

	"github.com/seenimoa/equitylens/pkg/models"
)

// DDMAssumptions are the user-tunable parameters of the Gordon model.
type DDMAssumptions struct {
	Growth         float64 `json:"growth" mapstructure:"growth" yaml:"growth"`
	RequiredReturn float64 `json:"required_return" mapstructure:"required_return" yaml:"required_return"`
}

// Validate checks that both rates are finite and the required return
// exceeds growth.
func (a DDMAssumptions) Validate() error {
	if err := finite("growth", a.Growth); err != nil {
		return err
	}
	if err := finite("required return", a.RequiredReturn); err != nil {
		return err
	}
	if a.RequiredReturn <= a.Growth {
		return fmt.Errorf("%w: required return %.4f must exceed growth %.4f",
			ErrInvalidAssumption, a.RequiredReturn, a.Growth)
	}
	return nil
}

// DDM values a share with the Gordon growth model:
// D * (1 + g) / (r - g).
func DDM(latestDividend, growth, requiredReturn float64) (float64, error) {
	if err := (DDMAssumptions{Growth: growth, RequiredReturn: requiredReturn}).Validate(); err != nil {
		return 0, err
	}
	if err := finite("dividend", latestDividend); err != nil {
		return 0, err
	}
	return latestDividend * (1 + growth) / (requiredReturn - growth), nil
}

// LatestDividend returns the most recent payment of an ex-date ascending
// series.
func LatestDividend(divs []models.Dividend) (models.Dividend, error) {
	if len(divs) == 0 {
		return models.Dividend{}, ErrNoDividendData
	}
	return divs[len(divs)-1], nil
}

// DDMFromHistory combines LatestDividend and DDM.
func DDMFromHistory(divs []models.Dividend, a DDMAssumptions) (float64, models.Dividend, error) {
	latest, err := LatestDividend(divs)
	if err != nil {
		return 0, latest, err
	}
	v, err := DDM(latest.Amount, a.Growth, a.RequiredReturn)
	return v, latest, err
}
