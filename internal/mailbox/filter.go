package mailbox

import "strconv"

const (
	defaultMaxResults = 50
	maxMaxResults     = 500
)

// Filter is a validated, immutable set of list parameters.
type Filter struct {
	IsRead     *bool  `json:"isRead,omitempty"`
	TimeRange  string `json:"timeRange,omitempty"`
	TimeValue  int    `json:"timeValue,omitempty"`
	MaxResults int64  `json:"maxResults"`
}

// RawFilter holds the query parameters as received, empty string meaning
// absent. Parsing is kept out of the handler so it stays a pure function.
type RawFilter struct {
	IsRead     string
	TimeRange  string
	TimeValue  string
	MaxResults string
}

var timeRangeUnits = map[string]bool{
	"hours":  true,
	"days":   true,
	"weeks":  true,
	"months": true,
}

// ParseFilter validates raw parameters into a Filter. An isRead value other
// than exactly "true" or "false" is rejected rather than coerced. timeRange
// and timeValue must be given together or not at all.
func ParseFilter(raw RawFilter) (*Filter, error) {
	f := &Filter{MaxResults: defaultMaxResults}

	if raw.IsRead != "" {
		switch raw.IsRead {
		case "true":
			v := true
			f.IsRead = &v
		case "false":
			v := false
			f.IsRead = &v
		default:
			return nil, invalidFilterf("isRead must be \"true\" or \"false\", got %q", raw.IsRead)
		}
	}

	if raw.TimeRange != "" {
		if !timeRangeUnits[raw.TimeRange] {
			return nil, invalidFilterf("timeRange must be one of hours, days, weeks, months")
		}
		f.TimeRange = raw.TimeRange
	}

	if raw.TimeValue != "" {
		n, err := strconv.Atoi(raw.TimeValue)
		if err != nil || n <= 0 {
			return nil, invalidFilterf("timeValue must be a positive integer")
		}
		f.TimeValue = n
	}

	// A half-specified time window is a caller mistake, not something to
	// silently default.
	if f.TimeRange != "" && f.TimeValue == 0 {
		return nil, invalidFilterf("timeValue is required when timeRange is set")
	}
	if f.TimeValue != 0 && f.TimeRange == "" {
		return nil, invalidFilterf("timeRange is required when timeValue is set")
	}

	if raw.MaxResults != "" {
		n, err := strconv.Atoi(raw.MaxResults)
		if err != nil || n < 1 || n > maxMaxResults {
			return nil, invalidFilterf("maxResults must be an integer between 1 and %d", maxMaxResults)
		}
		f.MaxResults = int64(n)
	}

	return f, nil
}

// HasTimeWindow reports whether a time window filter is set.
func (f *Filter) HasTimeWindow() bool {
	return f.TimeRange != "" && f.TimeValue > 0
}
