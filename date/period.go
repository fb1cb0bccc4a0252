package date

import (
	"fmt"
	"strings"
)

// Period is a standard reporting period.
type Period int

const (
	Daily Period = iota
	Weekly
	Monthly
	Quarterly
	Yearly
)

func (p Period) String() string {
	switch p {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	case Quarterly:
		return "quarterly"
	case Yearly:
		return "yearly"
	default:
		panic(fmt.Sprintf("unknown period %d", p))
	}
}

// ParsePeriod parses a period name. Both adjectives ("weekly") and nouns
// ("week") are accepted, as well as the short codes used by the dashboard
// ("1D", "1W", "1M", "1Q", "1Y").
func ParsePeriod(p string) (Period, error) {
	switch strings.ToLower(p) {
	case "daily", "day", "1d":
		return Daily, nil
	case "weekly", "week", "1w":
		return Weekly, nil
	case "monthly", "month", "1m":
		return Monthly, nil
	case "quarterly", "quarter", "1q":
		return Quarterly, nil
	case "yearly", "year", "1y":
		return Yearly, nil
	default:
		return Daily, fmt.Errorf("unknown period %q", p)
	}
}
