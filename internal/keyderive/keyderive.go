// Package keyderive turns an origin date and clock time into the cosmic
// key a seeker must reproduce from the riddle.
//
// Each calendar component collapses to its digital root and speaks by the
// initial of its ordinal word; the clock components speak as decimal
// digits. The key is dayLetter, hourDigit, monthLetter, minuteDigit,
// yearLetter with no separators.
package keyderive

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidInput is returned when a date or time cannot be parsed into
// the numeric components the key is derived from.
var ErrInvalidInput = errors.New("keyderive: invalid input")

// signs maps a digital root 1-9 to the initial of its ordinal word. Two
// letters are used where initials collide.
var signs = [10]string{
	1: "O", 2: "T", 3: "TH", 4: "F", 5: "FI",
	6: "S", 7: "SE", 8: "E", 9: "N",
}

// Date is a calendar date.
type Date struct {
	Year  int
	Month int
	Day   int
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Validate reports whether d is a real calendar date with a positive year.
func (d Date) Validate() error {
	if d.Year < 1 || d.Month < 1 || d.Month > 12 || d.Day < 1 {
		return fmt.Errorf("%w: date %s out of range", ErrInvalidInput, d)
	}
	t := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
	if t.Day() != d.Day {
		return fmt.Errorf("%w: date %s does not exist", ErrInvalidInput, d)
	}
	return nil
}

// TimeOfDay is a 24-hour clock reading.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// String formats the time as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Validate reports whether t is within 00:00-23:59.
func (t TimeOfDay) Validate() error {
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
		return fmt.Errorf("%w: time %s out of range", ErrInvalidInput, t)
	}
	return nil
}

// ParseDate parses an ISO date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidInput, s)
	}
	nums, err := atoiAll(parts)
	if err != nil {
		return Date{}, fmt.Errorf("%w: date %q: %v", ErrInvalidInput, s, err)
	}
	d := Date{Year: nums[0], Month: nums[1], Day: nums[2]}
	if err := d.Validate(); err != nil {
		return Date{}, err
	}
	return d, nil
}

// ParseTime parses a 24-hour clock reading (HH:MM). A trailing :SS
// component, as sent by some time pickers, is accepted and ignored.
func ParseTime(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return TimeOfDay{}, fmt.Errorf("%w: time %q is not HH:MM", ErrInvalidInput, s)
	}
	nums, err := atoiAll(parts)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: time %q: %v", ErrInvalidInput, s, err)
	}
	if len(nums) == 3 && (nums[2] < 0 || nums[2] > 59) {
		return TimeOfDay{}, fmt.Errorf("%w: time %q has invalid seconds", ErrInvalidInput, s)
	}
	t := TimeOfDay{Hour: nums[0], Minute: nums[1]}
	if err := t.Validate(); err != nil {
		return TimeOfDay{}, err
	}
	return t, nil
}

func atoiAll(parts []string) ([]int, error) {
	nums := make([]int, len(parts))
	for i, p := range parts {
		if p == "" || strings.ContainsAny(p, "+- ") {
			return nil, fmt.Errorf("component %q is not a number", p)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("component %q is not a number", p)
		}
		nums[i] = n
	}
	return nums, nil
}

// DigitalRoot sums the decimal digits of n until a single digit remains.
// DigitalRoot(0) is 0. Negative values use their magnitude.
func DigitalRoot(n int) int {
	// Negate through uint so math.MinInt has a magnitude.
	u := uint(n)
	if n < 0 {
		u = -u
	}
	for u >= 10 {
		var sum uint
		for ; u > 0; u /= 10 {
			sum += u % 10
		}
		u = sum
	}
	return int(u)
}

// Derive computes the key for a date and time.
func Derive(d Date, t TimeOfDay) (string, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}
	if err := t.Validate(); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(signs[DigitalRoot(d.Day)])
	b.WriteByte(byte('0' + DigitalRoot(t.Hour)))
	b.WriteString(signs[DigitalRoot(d.Month)])
	b.WriteByte(byte('0' + DigitalRoot(t.Minute)))
	b.WriteString(signs[DigitalRoot(d.Year)])
	return b.String(), nil
}

// Generate parses dob (YYYY-MM-DD) and clock (HH:MM) and derives the key.
func Generate(dob, clock string) (string, error) {
	d, err := ParseDate(dob)
	if err != nil {
		return "", err
	}
	t, err := ParseTime(clock)
	if err != nil {
		return "", err
	}
	return Derive(d, t)
}

// Match reports whether candidate is the key, ignoring case and
// surrounding whitespace.
func Match(candidate, key string) bool {
	if key == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(candidate), key)
}
