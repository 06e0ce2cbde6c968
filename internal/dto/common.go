package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date accepts either a calendar date ("2006-01-02") or an RFC 3339 timestamp.
// Calendar dates resolve to midnight UTC and remember that they named a whole
// day.
type Date struct {
	t        time.Time
	wholeDay bool
}

// ParseDate parses s using the accepted layouts.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Date{t: t.UTC(), wholeDay: true}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC 3339", s)
	}
	return Date{t: t.UTC()}, nil
}

// Time returns the underlying instant.
func (d Date) Time() time.Time {
	return d.t
}

// IsZero reports whether d is unset.
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// WholeDay reports whether d was given as a bare calendar date.
func (d Date) WholeDay() bool {
	return d.wholeDay
}

// MarshalJSON renders d as RFC 3339.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.t)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string")
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// UnmarshalParam lets echo bind query parameters into a Date.
func (d *Date) UnmarshalParam(param string) error {
	if param == "" {
		return nil
	}
	parsed, err := ParseDate(param)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ListQuery carries paging parameters shared by every list endpoint.
type ListQuery struct {
	Limit  int `query:"limit" validate:"gte=0"`
	Offset int `query:"offset" validate:"gte=0"`
}

// Page clamps the requested window to [1, max] with def applied when unset.
func (q ListQuery) Page(def, max int) (limit, offset int) {
	limit = q.Limit
	if limit <= 0 {
		limit = def
	}
	if max > 0 && limit > max {
		limit = max
	}
	offset = q.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// RangeQuery is an optional [from, to] date filter. A calendar-date "to"
// includes the whole day; an RFC 3339 "to" includes exactly that instant.
type RangeQuery struct {
	From *Date `query:"from"`
	To   *Date `query:"to"`
}

// Bounds returns the half-open range [from, to) described by the query,
// at the microsecond resolution the ledger stores.
func (q RangeQuery) Bounds() (from, to time.Time) {
	if q.From != nil {
		from = q.From.Time()
	}
	if q.To != nil {
		to = q.To.Time()
		if q.To.WholeDay() {
			to = to.AddDate(0, 0, 1)
		} else {
			to = to.Add(time.Microsecond)
		}
	}
	return from, to
}
