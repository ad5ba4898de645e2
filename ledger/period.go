/*
period.go - Date ranges for listing and reporting

PURPOSE:
  Every report and listing operates over an inclusive [Start, End] date
  range for one owner. When the caller omits the range, the previous
  calendar month applies - first day through last day, not a rolling
  30-day window. The default is always passed explicitly as a value;
  there is no process-wide implicit range.
*/
package ledger

import "time"

// DateFormat is the wire and storage format for ledger dates.
const DateFormat = "2006-01-02"

// DateRange is an inclusive [Start, End] span of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange validates and builds a range.
func NewDateRange(start, end time.Time) (DateRange, error) {
	if end.Before(start) {
		return DateRange{}, Invalid("endDate", "end date before start date")
	}
	return DateRange{Start: truncate(start), End: truncate(end)}, nil
}

// PreviousMonth returns the full calendar month before now.
// For now = 2025-03-17 the range is [2025-02-01, 2025-02-28].
func PreviousMonth(now time.Time) DateRange {
	start := time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(now.Year(), now.Month(), 0, 0, 0, 0, 0, time.UTC)
	return DateRange{Start: start, End: end}
}

// Contains reports whether t falls within the range, inclusive on both ends.
func (r DateRange) Contains(t time.Time) bool {
	d := truncate(t)
	return !d.Before(r.Start) && !d.After(r.End)
}

func (r DateRange) String() string {
	return r.Start.Format(DateFormat) + ".." + r.End.Format(DateFormat)
}

func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
