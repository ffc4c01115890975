package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

const calendarDate = "2006-01-02"

// FieldError is returned by decoders in this package when a single field is
// malformed, so handlers can name the field in the validation response.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Date accepts an RFC3339 timestamp or a plain calendar date. A calendar date
// is read as midnight UTC.
type Date struct {
	time.Time
}

// ParseDate parses the formats Date accepts.
func ParseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(calendarDate, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", raw, err)
	}
	return t, nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return &FieldError{Field: "date", Message: "must be a string"}
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return &FieldError{Field: "date", Message: "use an RFC3339 timestamp or YYYY-MM-DD"}
	}
	d.Time = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Time.Format(time.RFC3339))
}

// TimePtr unwraps an optional date.
func (d *Date) TimePtr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}
