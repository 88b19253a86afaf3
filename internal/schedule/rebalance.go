package schedule

import "time"

// RebalancePolicy decides whether a calendar date is a rebalance day.
//
// The policy fires only when the day-of-month equals Day. Months that
// lack the configured day (e.g. day 30 in February) skip the cycle
// entirely rather than shifting to the last valid day; that skip is the
// strategy's documented behavior and is pinned by tests. Configuration
// restricts Day to 1-28 so the case cannot arise in practice, but the
// comparison handles any day safely.
type RebalancePolicy struct {
	Day int
}

// NewRebalancePolicy creates a policy firing on the given day-of-month.
func NewRebalancePolicy(day int) RebalancePolicy {
	return RebalancePolicy{Day: day}
}

// ShouldRebalance reports whether a cycle evaluated on date may trade.
func (p RebalancePolicy) ShouldRebalance(date time.Time) bool {
	return date.Day() == p.Day
}

// NextRebalance returns the next date on or after from whose
// day-of-month matches the policy, skipping months that lack the day.
// Used for operator-facing status output only; the engine itself is
// driven by the supplied evaluation date.
func (p RebalancePolicy) NextRebalance(from time.Time) time.Time {
	year, month, _ := from.Date()
	for i := 0; i < 12; i++ {
		candidate := time.Date(year, month, p.Day, 0, 0, 0, 0, from.Location())
		// time.Date normalizes overflow (Feb 30 -> Mar 2); a
		// normalized date means the month lacks the day.
		if candidate.Day() == p.Day && !candidate.Before(from.Truncate(24*time.Hour)) {
			return candidate
		}
		month++
		if month > time.December {
			month = time.January
			year++
		}
	}
	// Unreachable for Day in [1,28]
	return time.Time{}
}
