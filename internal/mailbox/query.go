package mailbox

import (
	"strings"
	"time"
)

// Gmail's search language has no sub-day "after:" precision and no real
// calendar-month arithmetic, so a month is approximated as 30 days.
var unitDurations = map[string]time.Duration{
	"hours":  time.Hour,
	"days":   24 * time.Hour,
	"weeks":  7 * 24 * time.Hour,
	"months": 30 * 24 * time.Hour,
}

// BuildQuery renders a Filter as a Gmail search query string. The result may
// be empty. All tokens are synthesizer-controlled so no escaping is needed.
// Deterministic given (f, now).
func BuildQuery(f *Filter, now time.Time) string {
	var clauses []string

	if f.IsRead != nil {
		if *f.IsRead {
			clauses = append(clauses, "is:read")
		} else {
			clauses = append(clauses, "is:unread")
		}
	}

	if f.HasTimeWindow() {
		cutoff := now.Add(-time.Duration(f.TimeValue) * unitDurations[f.TimeRange])
		clauses = append(clauses, "after:"+cutoff.Format("2006/01/02"))
	}

	return strings.Join(clauses, " ")
}
