package marketdata

import (
	"strings"
	"time"
)

// Expiry is one upcoming weekly expiry date in the formats the dashboard
// and the broker each want.
type Expiry struct {
	Date      string `json:"date"`  // broker order format, e.g. 26-Aug-2025
	Label     string `json:"label"` // display format, e.g. 26 Aug 25
	DaysAway  int    `json:"days_away"`
	Weekday   string `json:"weekday"`
	Timestamp string `json:"timestamp"`
}

// WeeklyExpiries computes the next count weekly option expiries for the
// instrument as of now. SENSEX contracts expire on Thursday, NIFTY-family
// contracts on Tuesday. Today's expiry is skipped once the session is
// effectively over (10:00 UTC, after the Indian market close).
func WeeklyExpiries(stockCode string, count int, now time.Time) []Expiry {
	upper := strings.ToUpper(stockCode)
	target := time.Tuesday
	if strings.Contains(upper, "SENSEX") || strings.Contains(upper, "BSESEN") {
		target = time.Thursday
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	out := make([]Expiry, 0, count)
	for i := 0; i < 60 && len(out) < count; i++ {
		d := today.AddDate(0, 0, i)
		if d.Weekday() != target {
			continue
		}
		if i == 0 && now.UTC().Hour() >= 10 {
			continue
		}
		out = append(out, Expiry{
			Date:      d.Format("02-Jan-2006"),
			Label:     d.Format("02 Jan 06"),
			DaysAway:  i,
			Weekday:   d.Weekday().String(),
			Timestamp: d.Format("2006-01-02"),
		})
	}
	return out
}
