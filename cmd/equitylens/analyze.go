package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seenimoa/equitylens/internal/analysis/fundamental"
	"github.com/seenimoa/equitylens/internal/analyzer"
	"github.com/seenimoa/equitylens/internal/datasource"
	"github.com/seenimoa/equitylens/internal/llm"
	"github.com/seenimoa/equitylens/pkg/utils"
)

// --- DCF Command ---

var dcfCmd = &cobra.Command{
	Use:   "dcf [ticker]",
	Short: "Value a stock with a two-stage discounted cash flow model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ticker := utils.NormalizeTicker(args[0])
		a := cfg.Valuation.DCF
		f := cmd.Flags()
		if f.Changed("years") {
			a.Years, _ = f.GetInt("years")
		}
		if f.Changed("growth") {
			a.ShortTermGrowth, _ = f.GetFloat64("growth")
		}
		if f.Changed("discount") {
			a.DiscountRate, _ = f.GetFloat64("discount")
		}
		if f.Changed("terminal") {
			a.TerminalGrowth, _ = f.GetFloat64("terminal")
		}
		if err := a.Validate(); err != nil {
			return err
		}

		r, err := newAnalyzer(newYahoo()).DCF(cmd.Context(), ticker, &a)
		if err != nil {
			return reportLookupError(ticker, err)
		}
		return analyzer.RenderDCF(os.Stdout, r)
	},
}

func init() {
	dcfCmd.Flags().Int("years", 0, fmt.Sprintf("explicit projection years, 1 to %d (default from config)", fundamental.MaxYears))
	dcfCmd.Flags().Float64("growth", 0, "short-term FCF growth rate, decimal")
	dcfCmd.Flags().Float64("discount", 0, "discount rate (WACC), decimal")
	dcfCmd.Flags().Float64("terminal", 0, "terminal growth rate, decimal")
}

// --- DDM Command ---

var ddmCmd = &cobra.Command{
	Use:   "ddm [ticker]",
	Short: "Value a stock with the Gordon growth dividend discount model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ticker := utils.NormalizeTicker(args[0])
		a := cfg.Valuation.DDM
		f := cmd.Flags()
		if f.Changed("growth") {
			a.Growth, _ = f.GetFloat64("growth")
		}
		if f.Changed("required-return") {
			a.RequiredReturn, _ = f.GetFloat64("required-return")
		}
		if err := a.Validate(); err != nil {
			return err
		}

		r, err := newAnalyzer(newYahoo()).DDM(cmd.Context(), ticker, &a)
		if err != nil {
			return reportLookupError(ticker, err)
		}
		return analyzer.RenderDDM(os.Stdout, r)
	},
}

func init() {
	ddmCmd.Flags().Float64("growth", 0, "dividend growth rate, decimal")
	ddmCmd.Flags().Float64("required-return", 0, "required rate of return, decimal")
}

// --- Technical Command ---

var technicalCmd = &cobra.Command{
	Use:   "technical [ticker]",
	Short: "Show moving-average, RSI and Fibonacci signals",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ticker := utils.NormalizeTicker(args[0])
		p := cfg.Technical
		f := cmd.Flags()
		if f.Changed("short") {
			p.ShortWindow, _ = f.GetInt("short")
		}
		if f.Changed("long") {
			p.LongWindow, _ = f.GetInt("long")
		}
		if f.Changed("rsi") {
			p.RSIPeriod, _ = f.GetInt("rsi")
		}

		r, err := newAnalyzer(newYahoo()).Technicals(cmd.Context(), ticker, &p)
		if err != nil {
			return reportLookupError(ticker, err)
		}
		return analyzer.RenderTechnical(os.Stdout, r)
	},
}

func init() {
	technicalCmd.Flags().Int("short", 0, "short SMA window")
	technicalCmd.Flags().Int("long", 0, "long SMA window")
	technicalCmd.Flags().Int("rsi", 0, "RSI period")
}

// --- News Command ---

var newsCmd = &cobra.Command{
	Use:   "news [ticker]",
	Short: "Score headline sentiment and optionally ask Gemini for an outlook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ticker := utils.NormalizeTicker(args[0])
		symbol := utils.ToYahooTicker(ticker)

		items, err := newYahoo().News(cmd.Context(), symbol)
		if err != nil && !datasource.IsNotFound(err) {
			return err
		}
		if err := analyzer.RenderNews(os.Stdout, analyzer.BuildNews(symbol, items, analyzer.DefaultHeadlines)); err != nil {
			return err
		}

		if ai, _ := cmd.Flags().GetBool("ai"); !ai {
			return nil
		}
		newsAnalyst, err := newNewsAnalyst(cmd.Context())
		if err != nil {
			fmt.Printf("\nGemini analysis skipped: %v\n", err)
			return nil
		}
		fmt.Printf("\nGemini Outlook\n%s\n", newsAnalyst.Analyze(cmd.Context(), symbol, items))
		return nil
	},
}

func init() {
	newsCmd.Flags().Bool("ai", false, "summarize the headlines with Gemini")
}

// newNewsAnalyst builds the Gemini-backed analyst, or llm.ErrNoAPIKey.
func newNewsAnalyst(ctx context.Context) (*llm.NewsAnalyst, error) {
	gen, err := llm.NewGeminiProvider(ctx, cfg.LLM.GeminiKey, llm.WithGeminiModel(cfg.LLM.Model))
	if err != nil {
		return nil, err
	}
	opts := &llm.Options{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	}
	return llm.NewNewsAnalyst(gen, opts, cfg.LLM.NewsLimit, logger), nil
}

// --- Dashboard Command ---

var dashboardCmd = &cobra.Command{
	Use:   "dashboard [ticker]",
	Short: "Print every analysis section for one stock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ticker := utils.NormalizeTicker(args[0])
		d, err := newAnalyzer(newYahoo()).Dashboard(cmd.Context(), ticker)
		if err != nil {
			return reportLookupError(ticker, err)
		}
		return analyzer.RenderDashboard(os.Stdout, d)
	},
}
