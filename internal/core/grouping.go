package core

import "sort"

// MonthGroup is one month-year bucket of the per-type transaction view.
type MonthGroup struct {
	Label        string
	Transactions []Transaction
}

// GroupByMonth partitions transactions of the given type into month-year
// buckets ordered most-recent-first. Ordering compares the date of each
// group's first element, matching the list screens. The input slice is
// never mutated; returned groups hold copies.
func GroupByMonth(list []Transaction, typ TransactionType) []MonthGroup {
	buckets := make(map[string][]Transaction)
	var order []string
	for _, tx := range list {
		if tx.Type != typ {
			continue
		}
		label := tx.Date.MonthLabel()
		if _, seen := buckets[label]; !seen {
			order = append(order, label)
		}
		buckets[label] = append(buckets[label], tx)
	}

	groups := make([]MonthGroup, 0, len(order))
	for _, label := range order {
		groups = append(groups, MonthGroup{
			Label:        label,
			Transactions: append([]Transaction(nil), buckets[label]...),
		})
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Transactions[0].Date.After(groups[j].Transactions[0].Date.Time)
	})
	return groups
}
