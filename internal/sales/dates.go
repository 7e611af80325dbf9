package sales

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dayLayout = "2006-01-02"

// DayKey is the calendar day a sale belongs to, in the clock's own zone
// (the server's local time in production).
func DayKey(t time.Time) string {
	return t.Format(dayLayout)
}

// DayFilter selects a single calendar day.
type DayFilter struct {
	Year  int
	Month int
	Day   int
}

func (f DayFilter) Key() string {
	return fmt.Sprintf("%04d-%02d-%02d", f.Year, f.Month, f.Day)
}

// FilterFor returns the filter for t's calendar day.
func FilterFor(t time.Time) DayFilter {
	return DayFilter{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

// ParseDayFilter builds a filter from query values. Unless all three parts
// are given there is no filter (nil, nil).
func ParseDayFilter(day, month, year string) (*DayFilter, error) {
	day, month, year = strings.TrimSpace(day), strings.TrimSpace(month), strings.TrimSpace(year)
	if day == "" || month == "" || year == "" {
		return nil, nil
	}

	d, errD := strconv.Atoi(day)
	m, errM := strconv.Atoi(month)
	y, errY := strconv.Atoi(year)
	if errD != nil || errM != nil || errY != nil {
		return nil, fmt.Errorf("%w: day, month and year must be numbers", ErrInvalidDate)
	}
	if err := validateDate(y, m, d); err != nil {
		return nil, err
	}
	return &DayFilter{Year: y, Month: m, Day: d}, nil
}

// ParseMonth validates a year/month pair; empty values fall back to now.
func ParseMonth(month, year string, now time.Time) (int, int, error) {
	y, m := now.Year(), int(now.Month())
	var err error
	if s := strings.TrimSpace(year); s != "" {
		if y, err = strconv.Atoi(s); err != nil {
			return 0, 0, fmt.Errorf("%w: year must be a number", ErrInvalidDate)
		}
	}
	if s := strings.TrimSpace(month); s != "" {
		if m, err = strconv.Atoi(s); err != nil {
			return 0, 0, fmt.Errorf("%w: month must be a number", ErrInvalidDate)
		}
	}
	if err := validateDate(y, m, 1); err != nil {
		return 0, 0, err
	}
	return y, m, nil
}

func validateDate(y, m, d int) error {
	if y < 1 || y > 9999 {
		return fmt.Errorf("%w: year %d out of range", ErrInvalidDate, y)
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return fmt.Errorf("%w: %04d-%02d-%02d does not exist", ErrInvalidDate, y, m, d)
	}
	return nil
}

func dayAfter(f DayFilter) time.Time {
	return time.Date(f.Year, time.Month(f.Month), f.Day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}

// monthBounds returns [first day of month, first day of next month) as day keys.
func monthBounds(year, month int) (string, string) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return DayKey(start), DayKey(start.AddDate(0, 1, 0))
}

func yearBounds(year int) (string, string) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return DayKey(start), DayKey(start.AddDate(1, 0, 0))
}

// dayOfKey extracts the day of month from a YYYY-MM-DD key.
func dayOfKey(key string) int {
	if len(key) < 10 {
		return 0
	}
	d, _ := strconv.Atoi(key[8:10])
	return d
}

func monthOfKey(key string) int {
	if len(key) < 7 {
		return 0
	}
	m, _ := strconv.Atoi(key[5:7])
	return m
}
