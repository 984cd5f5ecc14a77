package billing

import (
	"fmt"
	"time"

	"github.com/tradelane/backend/internal/domain/shared"
)

// QuarterKey identifies one fixed calendar quarter, e.g. "2024-Q2".
// Billing always runs on calendar quarters in the org's timezone, never on
// rolling 90-day windows; the distinction matters for billing disputes.
type QuarterKey struct {
	Year    int
	Quarter int // 1..4
}

// String returns the canonical "YYYY-Qn" form
func (k QuarterKey) String() string {
	return fmt.Sprintf("%04d-Q%d", k.Year, k.Quarter)
}

// ParseQuarterKey parses the canonical "YYYY-Qn" form
func ParseQuarterKey(s string) (QuarterKey, error) {
	var k QuarterKey
	if _, err := fmt.Sscanf(s, "%04d-Q%d", &k.Year, &k.Quarter); err != nil {
		return QuarterKey{}, shared.NewDomainError("INVALID_QUARTER_KEY", "Quarter key must look like 2024-Q2")
	}
	if k.Quarter < 1 || k.Quarter > 4 {
		return QuarterKey{}, shared.NewDomainError("INVALID_QUARTER_KEY", "Quarter must be between 1 and 4")
	}
	return k, nil
}

// QuarterOf classifies a timestamp into its calendar quarter in the given
// location
func QuarterOf(t time.Time, loc *time.Location) QuarterKey {
	local := t.In(loc)
	return QuarterKey{
		Year:    local.Year(),
		Quarter: (int(local.Month())-1)/3 + 1,
	}
}

// Start returns the first instant of the quarter in the given location
func (k QuarterKey) Start(loc *time.Location) time.Time {
	return time.Date(k.Year, time.Month((k.Quarter-1)*3+1), 1, 0, 0, 0, 0, loc)
}

// NextStart returns the first instant of the following quarter
func (k QuarterKey) NextStart(loc *time.Location) time.Time {
	return k.Start(loc).AddDate(0, 3, 0)
}

// End returns the last stored instant of the quarter (inclusive end, for
// persistence and display)
func (k QuarterKey) End(loc *time.Location) time.Time {
	return k.NextStart(loc).Add(-time.Nanosecond)
}

// Next returns the following quarter key
func (k QuarterKey) Next() QuarterKey {
	if k.Quarter == 4 {
		return QuarterKey{Year: k.Year + 1, Quarter: 1}
	}
	return QuarterKey{Year: k.Year, Quarter: k.Quarter + 1}
}

// Before reports whether k is chronologically before other
func (k QuarterKey) Before(other QuarterKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Quarter < other.Quarter
}
