package webasyst

import (
	"bytes"
	"encoding/json"
	"time"
)

// Layouts used by the Webasyst API.
const (
	DateTimeLayout = "2006-01-02 15:04:05"
	DateLayout     = "2006-01-02"
)

// FormatDateTime formats t as "yyyy-MM-dd HH:mm:ss".
func FormatDateTime(t time.Time) string {
	return t.Format(DateTimeLayout)
}

// ParseDateTime parses "yyyy-MM-dd HH:mm:ss" in loc, UTC when loc is nil.
func ParseDateTime(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}

	return time.ParseInLocation(DateTimeLayout, value, loc)
}

// FormatDate formats t as "yyyy-MM-dd".
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses "yyyy-MM-dd" in loc, UTC when loc is nil.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}

	return time.ParseInLocation(DateLayout, value, loc)
}

// DateTime is a JSON "yyyy-MM-dd HH:mm:ss" string. Null, empty and
// unparseable values decode to the zero time.
type DateTime struct {
	time.Time
}

func (d DateTime) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}

	return json.Marshal(FormatDateTime(d.Time))
}

func (d *DateTime) UnmarshalJSON(data []byte) error {
	d.Time = decodeLenientTime(data, ParseDateTime)

	return nil
}

// Date is a JSON "yyyy-MM-dd" string with the same leniency as DateTime.
type Date struct {
	time.Time
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}

	return json.Marshal(FormatDate(d.Time))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	d.Time = decodeLenientTime(data, ParseDate)

	return nil
}

func decodeLenientTime(data []byte, parse func(string, *time.Location) (time.Time, error)) time.Time {
	if bytes.Equal(data, []byte("null")) {
		return time.Time{}
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil || raw == "" {
		return time.Time{}
	}

	parsed, err := parse(raw, nil)
	if err != nil {
		return time.Time{}
	}

	return parsed
}
