package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/taskboard/tracker/internal/core/ports"
)

// optional is a JSON field that tells "absent" apart from "null". The JSON
// decoder calls UnmarshalJSON for a present key even when its value is null,
// and never for a missing key.
type optional[T any] struct {
	Set   bool
	Value *T
}

func (o *optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

const dateLayout = "2006-01-02"

// parseDate accepts a calendar date or a full RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t.UTC(), nil
}

func datePtr(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := parseDate(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullableDate(o optional[string]) (ports.Nullable[time.Time], error) {
	if !o.Set {
		return ports.Nullable[time.Time]{}, nil
	}
	t, err := datePtr(o.Value)
	if err != nil {
		return ports.Nullable[time.Time]{}, err
	}
	return ports.Nullable[time.Time]{Set: true, Value: t}, nil
}
