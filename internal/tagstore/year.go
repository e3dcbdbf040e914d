package tagstore

import (
	"fmt"
	"regexp"
	"strconv"
)

// YearErrorType represents the kind of problem found in a Year value.
type YearErrorType string

const (
	InvalidYearFormat YearErrorType = "INVALID_FORMAT"
	InvalidYearDate   YearErrorType = "INVALID_DATE"
)

// YearError is returned by ParseYear for values that are not a recording date.
type YearError struct {
	Type   YearErrorType
	Value  string
	Reason string
}

func (e *YearError) Error() string {
	switch e.Type {
	case InvalidYearFormat:
		return fmt.Sprintf("invalid year %q: expected YYYY, YYYY-MM or YYYY-MM-DD", e.Value)
	default:
		return fmt.Sprintf("invalid year %q: %s", e.Value, e.Reason)
	}
}

// RecordingDate is a parsed Year value. Month and Day are 0 when absent.
type RecordingDate struct {
	Year  int
	Month int
	Day   int
}

// yearPattern matches the timestamp prefixes ID3v2.4 and Vorbis comments accept.
var yearPattern = regexp.MustCompile(`^(\d{4})(?:-(\d{2})(?:-(\d{2}))?)?$`)

// ParseYear parses a Year field value, checking the month range and the
// number of days in the month (leap years included).
func ParseYear(value string) (*RecordingDate, error) {
	m := yearPattern.FindStringSubmatch(value)
	if m == nil {
		return nil, &YearError{Type: InvalidYearFormat, Value: value}
	}

	d := &RecordingDate{}
	d.Year, _ = strconv.Atoi(m[1])
	if m[2] == "" {
		return d, nil
	}

	d.Month, _ = strconv.Atoi(m[2])
	if d.Month < 1 || d.Month > 12 {
		return nil, &YearError{
			Type:   InvalidYearDate,
			Value:  value,
			Reason: fmt.Sprintf("month %02d is out of range (01-12)", d.Month),
		}
	}
	if m[3] == "" {
		return d, nil
	}

	d.Day, _ = strconv.Atoi(m[3])
	if maxDay := daysInMonth(d.Year, d.Month); d.Day < 1 || d.Day > maxDay {
		return nil, &YearError{
			Type:   InvalidYearDate,
			Value:  value,
			Reason: fmt.Sprintf("day %02d is out of range for month %02d (01-%02d)", d.Day, d.Month, maxDay),
		}
	}
	return d, nil
}

// ValidateFields checks values that have a constrained form. Blank values
// are ignored since they are never written.
func ValidateFields(fields map[Field]string) error {
	if v, ok := fields[FieldYear]; ok && v != "" {
		if _, err := ParseYear(v); err != nil {
			return err
		}
	}
	return nil
}

func daysInMonth(year, month int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	case 2:
		if isLeapYear(year) {
			return 29
		}
		return 28
	default:
		return 0
	}
}

func isLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || (year%400 == 0)
}
