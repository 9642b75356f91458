package models

// CashFlow represents a single period cash flow statement. Line items the
// provider did not report are nil.
type CashFlow struct {
	Period             string   `json:"period"` // e.g. "2024-09-28"
	FreeCashFlow       *float64 `json:"free_cash_flow,omitempty"`
	OperatingCashFlow  *float64 `json:"operating_cash_flow,omitempty"`
	CapitalExpenditure *float64 `json:"capital_expenditure,omitempty"` // usually negative
}
