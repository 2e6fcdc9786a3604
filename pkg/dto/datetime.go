package dto

import (
	"bytes"
	"fmt"
	"time"
)

// DateTimeLayout is an ISO-8601 local date-time. Values are read and
// written as UTC.
const DateTimeLayout = "2006-01-02T15:04:05"

type DateTime struct {
	time.Time
}

func NewDateTime(t time.Time) DateTime {
	return DateTime{Time: t.UTC()}
}

func (d DateTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.UTC().Format(DateTimeLayout) + `"`), nil
}

func (d *DateTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("date-time must be a string, got %s", data)
	}
	t, err := ParseDateTime(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// ParseDateTime accepts a local date-time (fractional seconds optional) or an
// RFC 3339 timestamp.
func ParseDateTime(s string) (time.Time, error) {
	if t, err := time.Parse(DateTimeLayout, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid date-time %q, expected %s", s, DateTimeLayout)
}
