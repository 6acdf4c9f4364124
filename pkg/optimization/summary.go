// Package optimization selects the most profitable order quantity and holds
// the shared data structures for optimization results.
package optimization

// Summary captures the outcome of a grid refinement around the optimum.
type Summary struct {
	Scope            string   `json:"scope"`
	Original         int      `json:"original"`
	OriginalProfit   float64  `json:"originalProfit"`
	Value            int      `json:"value"`
	Profit           float64  `json:"profit"`
	ExpectedProfit   float64  `json:"expectedProfit"`
	Lower            int      `json:"lower"`
	Upper            int      `json:"upper"`
	Evaluations      int      `json:"evaluations"`
	Iterations       int      `json:"iterations"`
	Converged        bool     `json:"converged"`
	Notes            []string `json:"notes,omitempty"`
	OriginalDisplay  string   `json:"originalDisplay,omitempty"`
	ValueDisplay     string   `json:"valueDisplay,omitempty"`
	ImprovementTotal float64  `json:"improvementTotal"`
}

// Improved reports whether refinement found a more profitable quantity than
// the grid optimum.
func (s Summary) Improved() bool {
	return s.Value != s.Original && s.Profit > s.OriginalProfit
}
