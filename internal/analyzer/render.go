package analyzer

import (
	"fmt"
	"io"
	"strings"

	"github.com/seenimoa/equitylens/pkg/models"
	"github.com/seenimoa/equitylens/pkg/utils"
)

const rule = "--------------------------------------------------"

// textWriter remembers the first write error so renderers can stay linear.
type textWriter struct {
	w   io.Writer
	err error
}

func (t *textWriter) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

func (t *textWriter) header(title string) {
	t.printf("\n%s\n%s\n%s\n", rule, title, rule)
}

func dollars(v float64) string { return "$" + utils.FormatLargeNumber(v) }

// RenderDCF prints every step of the DCF the way an analyst would lay it
// out on paper.
func RenderDCF(w io.Writer, r *DCFReport) error {
	t := &textWriter{w: w}
	t.header(fmt.Sprintf("Discounted Cash Flow: %s (%s)", r.Ticker, r.Name))
	a := r.Assumptions
	t.printf("Assumptions: %d years, growth %.2f%%, discount %.2f%%, terminal growth %.2f%%\n",
		a.Years, a.ShortTermGrowth*100, a.DiscountRate*100, a.TerminalGrowth*100)

	if r.Unavailable != "" {
		t.printf("DCF not available: %s\n", r.Unavailable)
		return t.err
	}

	label := "Current Free Cash Flow"
	if r.FCFApproximated {
		label += " (operating cash flow + capex)"
	}
	t.printf("%s: %s\n", label, dollars(r.CurrentFCF))

	res := r.Result
	t.printf("\nProjected Free Cash Flows:\n")
	for i, v := range res.ProjectedFCF {
		t.printf("  Year %d: %s\n", i+1, dollars(v))
	}
	t.printf("\nPresent Value of Explicit FCFs:  %s\n", dollars(res.PVExplicit))
	t.printf("Terminal Value (Year %d):        %s\n", len(res.ProjectedFCF), dollars(res.TerminalValue))
	t.printf("Present Value of Terminal Value: %s\n", dollars(res.PVTerminal))
	t.printf("Total Enterprise Value:          %s\n", dollars(res.EnterpriseValue))

	cash, debt := dollars(r.TotalCash), dollars(r.TotalDebt)
	if r.Defaults.CashAssumed {
		cash += " (not reported, assumed 0)"
	}
	if r.Defaults.DebtAssumed {
		debt += " (not reported, assumed 0)"
	}
	t.printf("Cash & Equivalents:              %s\n", cash)
	t.printf("Total Debt:                      %s\n", debt)
	t.printf("Shares Outstanding:              %s\n", utils.FormatLargeNumber(r.Shares))
	t.printf("Total Equity Value:              %s\n", dollars(res.EquityValue))
	t.printf("\nIntrinsic Value Per Share:       %s\n", utils.FormatMoney(res.IntrinsicValue))

	price, ok := models.Deref(r.Price)
	if !ok {
		t.printf("Current Market Price:            N/A\n")
		return t.err
	}
	t.printf("Current Market Price:            %s\n", utils.FormatMoney(price))
	if r.MarginOfSafety != nil {
		t.printf("Margin of Safety:                %.2f%%\n", *r.MarginOfSafety)
	}
	t.printf("\n%s appears to be %s.\n", r.Ticker, r.Verdict)
	return t.err
}

// RenderDDM prints the Gordon growth valuation.
func RenderDDM(w io.Writer, r *DDMReport) error {
	t := &textWriter{w: w}
	t.header(fmt.Sprintf("Dividend Discount Model: %s (%s)", r.Ticker, r.Name))
	t.printf("Assumptions: growth %.2f%%, required return %.2f%%\n",
		r.Assumptions.Growth*100, r.Assumptions.RequiredReturn*100)
	if r.LatestDividend != nil {
		t.printf("Latest Dividend: %s (ex-date %s)\n",
			utils.FormatMoney(r.LatestDividend.Amount), r.LatestDividend.ExDate.Format("2006-01-02"))
	}
	if r.Unavailable != "" {
		t.printf("DDM not available: %s\n", r.Unavailable)
		return t.err
	}
	t.printf("Intrinsic Value Per Share: %s\n", utils.FormatMoney(*r.IntrinsicValue))
	t.printf("Current Market Price:      %s\n", priceText(r.Price))
	if r.Price != nil {
		t.printf("\n%s appears to be %s.\n", r.Ticker, r.Verdict)
	}
	return t.err
}

// RenderTechnical prints the moving-average, RSI and Fibonacci readings.
func RenderTechnical(w io.Writer, r *TechnicalReport) error {
	t := &textWriter{w: w}
	t.header("Technical Analysis: " + r.Ticker)
	if r.Unavailable != "" {
		t.printf("Technicals not available: %s\n", r.Unavailable)
		return t.err
	}
	a := r.Assessment
	t.printf("Price:        %s\n", utils.FormatMoney(a.Price))
	t.printf("SMA(%d):      %s\n", r.Params.ShortWindow, utils.FormatMoney(a.SMAShort))
	t.printf("SMA(%d):     %s\n", r.Params.LongWindow, utils.FormatMoney(a.SMALong))
	t.printf("Trend:        %s\n", a.MASignal)
	if a.Cross.HasCross {
		t.printf("Last Golden Cross: %s\n", a.Cross.CrossDate.Format("2006-01-02"))
	}
	t.printf("RSI(%d):      %.2f (%s)\n", r.Params.RSIPeriod, a.RSI, a.RSIZone)

	t.printf("\nFibonacci Retracement:\n")
	for _, l := range a.FibLevels {
		marker := ""
		if l == a.NearestFib {
			marker = "  <- nearest"
		}
		t.printf("  %-6s %s%s\n", l.Label, utils.FormatMoney(l.Price), marker)
	}
	t.printf("Price is %s the %s level.\n", a.FibPosition, a.NearestFib.Label)
	return t.err
}

// RenderNews prints sentiment and the top headlines.
func RenderNews(w io.Writer, r *NewsReport) error {
	t := &textWriter{w: w}
	t.header("News Sentiment: " + r.Ticker)
	if r.Unavailable != "" {
		t.printf("%s\n", r.Unavailable)
		return t.err
	}
	t.printf("Sentiment: %s (polarity %.3f over %d headlines)\n",
		r.Sentiment.Label, r.Sentiment.Polarity, r.Sentiment.Scored)
	for i, n := range r.Headlines {
		line := n.Title
		if n.Publisher != "" {
			line += " [" + n.Publisher + "]"
		}
		t.printf("  %d. %s\n", i+1, line)
		if n.Link != "" {
			t.printf("     %s\n", n.Link)
		}
	}
	return t.err
}

// RenderOverview prints the company header and analyst consensus.
func RenderOverview(w io.Writer, o *Overview) error {
	t := &textWriter{w: w}
	f := o.Facts
	t.header(fmt.Sprintf("%s (%s)", f.Name, f.Ticker))
	if f.Sector != "" {
		t.printf("Sector:      %s / %s\n", f.Sector, f.Industry)
	}
	t.printf("Market:      %s\n", o.MarketStatus)
	t.printf("Price:       %s\n", priceText(f.Price))
	t.printf("Market Cap:  %s\n", utils.FormatOptional(f.MarketCap))
	t.printf("P/E (TTM):   %s\n", utils.FormatOptional(f.TrailingPE))
	t.printf("Beta:        %s\n", utils.FormatOptional(f.Beta))

	c := o.Consensus
	t.printf("\nAnalyst Consensus: %s\n", strings.ToUpper(c.Recommendation))
	t.printf("Target (low / mean / high): %s / %s / %s\n",
		priceText(c.TargetLow), priceText(c.TargetMean), priceText(c.TargetHigh))
	if c.Upside != nil {
		t.printf("Upside to mean target: %s\n", utils.FormatPct(*c.Upside))
	}
	return t.err
}

// RenderDashboard prints every section in dashboard order.
func RenderDashboard(w io.Writer, d *Dashboard) error {
	steps := []func() error{
		func() error { return RenderOverview(w, d.Overview) },
		func() error { return RenderTechnical(w, d.Technicals) },
		func() error { return RenderDCF(w, d.DCF) },
		func() error { return RenderDDM(w, d.DDM) },
		func() error { return RenderNews(w, d.News) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func priceText(p *float64) string {
	if v, ok := models.Deref(p); ok {
		return utils.FormatMoney(v)
	}
	return models.NotAvailable
}
