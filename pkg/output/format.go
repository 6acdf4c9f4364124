// Package output provides utilities for formatting and displaying simulation results.
package output

import (
	"fmt"
	"strings"

	"github.com/iwvelando/newsvendor/internal/simulation"
	"github.com/iwvelando/newsvendor/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrettyFormat outputs a human-readable rather than machine-readable report.
// The demand distribution table is only printed when showDistribution is set.
func PrettyFormat(report *simulation.Report, showDistribution bool) {
	fmt.Print(PrettyString(report, showDistribution))
}

// PrettyString renders the report exactly as PrettyFormat prints it.
func PrettyString(report *simulation.Report, showDistribution bool) string {
	p := message.NewPrinter(language.English)
	var b strings.Builder

	_, _ = p.Fprintf(&b, "--- Results for %d simulated days (seed %d) ---\n", report.Simulations, report.Seed)
	b.WriteString("Quantity | Total Revenue | Total Cost | Stockout Cost | Excess Cost | Total Profit | Expected Profit | Stockout Rate\n")
	b.WriteString("________ | _____________ | __________ | _____________ | ___________ | ____________ | _______________ | _____________\n")
	for i, r := range report.Results {
		marker := ""
		if i == report.Optimum.Index {
			marker = " *"
		}
		_, _ = p.Fprintf(&b, "%d | %s | %s | %s | %s | %s | %s | %s%s\n",
			r.Quantity,
			format.Currency(r.TotalRevenue),
			format.Currency(r.TotalCost),
			format.Currency(r.TotalStockoutCost),
			format.Currency(r.TotalExcessCost),
			format.Currency(r.TotalProfit),
			format.Currency(r.ExpectedProfit()),
			format.Percent(r.StockoutProbability()),
			marker,
		)
	}

	_, _ = p.Fprintf(&b, "\nOptimal order quantity: %d (total profit %s, expected %s per day)\n",
		report.Optimum.OptimalQuantity,
		format.Currency(report.Optimum.OptimalProfit),
		format.Currency(report.Optimum.ExpectedProfit),
	)

	if showDistribution {
		b.WriteString("\n--- Simulated demand distribution ---\n")
		b.WriteString("Demand | Count | Probability | Cumulative\n")
		b.WriteString("______ | _____ | ___________ | __________\n")
		for _, point := range report.Distribution.Points {
			_, _ = p.Fprintf(&b, "%s | %d | %.1f%% | %s\n",
				format.Quantity(point.Value),
				point.Count,
				point.Percentage(),
				format.Percent(point.Cumulative),
			)
		}
	}

	diag := report.Diagnostic
	b.WriteString("\n--- Diagnostics ---\n")
	_, _ = p.Fprintf(&b, "Probability demand does not exceed %d: %s\n", diag.OptimalQuantity, format.Percent(diag.CDFAtOptimal))
	_, _ = p.Fprintf(&b, "Demand mean %.2f, standard deviation %.2f, range %s to %s\n",
		diag.MeanDemand, diag.StdDevDemand, format.Quantity(diag.MinDemand), format.Quantity(diag.MaxDemand))

	check := report.CrossCheck
	if check.Defined {
		_, _ = p.Fprintf(&b, "Critical ratio %s (underage %s, overage %s) points to demand quantile %s\n",
			format.Percent(check.CriticalRatio),
			format.Currency(check.UnderageCost),
			format.Currency(check.OverageCost),
			format.Quantity(check.CriticalQuantile),
		)
	} else {
		b.WriteString("Critical ratio undefined: underage plus overage cost is not positive\n")
	}

	if s := report.Refinement; s != nil {
		b.WriteString("\n--- Refinement ---\n")
		status := "converged"
		if !s.Converged {
			status = "not converged"
		}
		_, _ = p.Fprintf(&b, "Refined order quantity: %s (total profit %s, %s versus %s) after %d iterations and %d evaluations, %s\n",
			s.ValueDisplay,
			format.Currency(s.Profit),
			signedCurrency(s.ImprovementTotal),
			s.OriginalDisplay,
			s.Iterations,
			s.Evaluations,
			status,
		)
		if !s.Improved() {
			b.WriteString("Refinement kept the grid optimum\n")
		}
		for _, note := range s.Notes {
			_, _ = p.Fprintf(&b, "Note: %s\n", note)
		}
	}

	return b.String()
}

// CsvFormat outputs the results table in comma-separated value format.
func CsvFormat(report *simulation.Report) {
	fmt.Print(CsvString(report))
}

// CsvString renders the results table as CSV, one row per candidate in
// evaluation order.
func CsvString(report *simulation.Report) string {
	var b strings.Builder
	b.WriteString(`"quantity","total_revenue","total_cost","total_stockout_cost","total_excess_cost","total_profit","expected_profit","stockout_probability","optimal"`)
	b.WriteString("\n")
	for i, r := range report.Results {
		fmt.Fprintf(&b, `"%d","%.2f","%.2f","%.2f","%.2f","%.2f","%.4f","%.4f","%t"`,
			r.Quantity,
			r.TotalRevenue,
			r.TotalCost,
			r.TotalStockoutCost,
			r.TotalExcessCost,
			r.TotalProfit,
			r.ExpectedProfit(),
			r.StockoutProbability(),
			i == report.Optimum.Index,
		)
		b.WriteString("\n")
	}
	return b.String()
}

func signedCurrency(amount float64) string {
	if amount >= 0 {
		return "+" + format.Currency(amount)
	}
	return format.Currency(amount)
}
