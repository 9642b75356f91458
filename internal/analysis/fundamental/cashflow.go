package fundamental

import (
	"fmt"

	"github.com/seenimoa/equitylens/pkg/models"
)

// ResolveFreeCashFlow picks the free cash flow of the most recent statement
// (statements are most-recent-first). When the provider did not report FCF
// directly it is approximated as operating cash flow plus capital
// expenditure (capex is reported negative), and approximated is true.
func ResolveFreeCashFlow(cfs []models.CashFlow) (fcf float64, approximated bool, err error) {
	if len(cfs) == 0 {
		return 0, false, fmt.Errorf("%w: no cash flow statements", ErrMissingFinancialData)
	}
	latest := cfs[0]
	if v, ok := models.Deref(latest.FreeCashFlow); ok {
		return v, false, nil
	}
	ocf, okOCF := models.Deref(latest.OperatingCashFlow)
	capex, okCapex := models.Deref(latest.CapitalExpenditure)
	if okOCF && okCapex {
		return ocf + capex, true, nil
	}
	return 0, false, fmt.Errorf("%w: free cash flow for %s", ErrMissingFinancialData, latest.Period)
}
