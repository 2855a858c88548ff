package core

type (
	// DashboardStats is the merged snapshot of the three summary
	// slices. Each slice is fetched independently; merging one never
	// touches the others.
	DashboardStats struct {
		Cards      Cards                      `json:"cards"`
		Trends     map[Timeframe][]TrendPoint `json:"trends"`
		Categories CategoryBreakdown          `json:"categories"`
	}

	Cards struct {
		Balance      Money `json:"balance"`
		TotalIncome  Money `json:"totalIncome"`
		TotalExpense Money `json:"totalExpense"`
	}

	TrendPoint struct {
		Date    Date  `json:"date"`
		Income  Money `json:"income"`
		Expense Money `json:"expense"`
	}

	// CategoryShare is a server-computed percentage; the client never
	// recomputes it from the local collection.
	CategoryShare struct {
		Category   string `json:"category"`
		Percentage string `json:"percentage"`
	}

	CategoryBreakdown struct {
		Income  []CategoryShare `json:"income"`
		Expense []CategoryShare `json:"expense"`
	}
)

// Clone returns a deep copy so callers can hold a snapshot while the
// store keeps merging slices.
func (s DashboardStats) Clone() DashboardStats {
	out := s
	if s.Trends != nil {
		out.Trends = make(map[Timeframe][]TrendPoint, len(s.Trends))
		for tf, points := range s.Trends {
			out.Trends[tf] = append([]TrendPoint(nil), points...)
		}
	}
	out.Categories.Income = append([]CategoryShare(nil), s.Categories.Income...)
	out.Categories.Expense = append([]CategoryShare(nil), s.Categories.Expense...)
	return out
}
