// Package dateutil provides date-only calendar arithmetic. Every Date is
// anchored at UTC midnight so day offsets never drift across daylight-saving
// transitions.
package dateutil

import (
	"encoding/json"
	"fmt"
	"time"

	apierrors "github.com/yukikurage/workload-dashboard/internal/errors"
)

// Layout is the wire format of a Date.
const Layout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// Date is a calendar day. The zero value is invalid; use Parse, New or
// FromTime. Dates built by this package are comparable with == and usable as
// map keys because the wrapped time is always UTC midnight.
type Date struct {
	t time.Time
}

// New returns the date for the given calendar fields, normalizing overflow
// the same way time.Date does.
func New(year int, month time.Month, dayOfMonth int) Date {
	return Date{t: time.Date(year, month, dayOfMonth, 0, 0, 0, 0, time.UTC)}
}

// FromTime returns the UTC calendar day containing t.
func FromTime(t time.Time) Date {
	u := t.UTC()
	return New(u.Year(), u.Month(), u.Day())
}

// Today returns the current UTC calendar day.
func Today() Date {
	return FromTime(time.Now())
}

// Parse reads a YYYY-MM-DD string.
func Parse(s string) (Date, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", apierrors.ErrInvalidDateFormat, s)
	}
	return Date{t: t}, nil
}

// ParsePrefix reads the leading YYYY-MM-DD of a date or datetime string,
// ignoring any time-of-day that follows.
func ParsePrefix(s string) (Date, error) {
	if len(s) < len(Layout) {
		return Date{}, fmt.Errorf("%w: %q", apierrors.ErrInvalidDateFormat, s)
	}
	return Parse(s[:len(Layout)])
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) IsZero() bool {
	return d.t.IsZero()
}

func (d Date) String() string {
	return d.t.Format(Layout)
}

// Time returns UTC midnight of d.
func (d Date) Time() time.Time {
	return d.t
}

func (d Date) Weekday() time.Weekday {
	return d.t.Weekday()
}

// AddDays returns d shifted by n calendar days; n may be negative.
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// NextMonday returns the first Monday strictly after d. A Monday maps to the
// following Monday, never to itself.
func (d Date) NextMonday() Date {
	delta := (8 - int(d.t.Weekday())) % 7
	if delta == 0 {
		delta = 7
	}
	return d.AddDays(delta)
}

// ISOWeek returns the ISO 8601 week number of d.
func (d Date) ISOWeek() int {
	_, week := d.t.ISOWeek()
	return week
}

// DaysUntil returns the number of days from d to other (negative when other
// is earlier).
func (d Date) DaysUntil(other Date) int {
	return int((other.t.Unix() - d.t.Unix()) / secondsPerDay)
}

// DaysDiff returns b minus a in days.
func DaysDiff(a, b Date) int {
	return a.DaysUntil(b)
}

func (d Date) Before(other Date) bool {
	return d.t.Before(other.t)
}

func (d Date) After(other Date) bool {
	return d.t.After(other.t)
}

func (d Date) Equal(other Date) bool {
	return d.t.Equal(other.t)
}

// Compare returns -1, 0 or +1.
func (d Date) Compare(other Date) int {
	return d.t.Compare(other.t)
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "YYYY-MM-DD" and null.
func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", apierrors.ErrInvalidDateFormat, string(b))
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Ptr returns a pointer to a copy of d.
func Ptr(d Date) *Date {
	return &d
}

// Range returns n consecutive dates starting at from.
func Range(from Date, n int) []Date {
	dates := make([]Date, 0, n)
	for i := range n {
		dates = append(dates, from.AddDays(i))
	}
	return dates
}
