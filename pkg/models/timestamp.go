package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Timestamp is an upstream instant that remembers how it was encoded.
// n8n reports run-data times as epoch milliseconds and record times as
// RFC 3339 strings; both are re-emitted in the form they arrived in.
type Timestamp struct {
	t      time.Time
	millis bool
	text   string
}

// TimestampFromMillis builds a Timestamp that serializes as epoch milliseconds.
func TimestampFromMillis(ms int64) Timestamp {
	return Timestamp{t: time.UnixMilli(ms).UTC(), millis: true}
}

// TimestampFromTime builds a Timestamp that serializes as an RFC 3339 string.
func TimestampFromTime(t time.Time) Timestamp {
	return Timestamp{t: t, text: t.Format(time.RFC3339Nano)}
}

// Time returns the instant. It is the zero time when the upstream text could not be parsed.
func (ts Timestamp) Time() time.Time {
	return ts.t
}

// Valid reports whether the timestamp holds a parsed instant.
func (ts Timestamp) Valid() bool {
	return !ts.t.IsZero()
}

// Add returns ts shifted by ms milliseconds, keeping the encoding of ts.
func (ts Timestamp) Add(ms float64) Timestamp {
	shifted := ts.t.Add(millisDuration(ms))
	if ts.millis {
		return Timestamp{t: shifted, millis: true}
	}

	return TimestampFromTime(shifted)
}

// Before reports whether ts is strictly earlier than other.
// Timestamps without a parsed instant are never ordered.
func (ts Timestamp) Before(other Timestamp) bool {
	if !ts.Valid() || !other.Valid() {
		return false
	}

	return ts.t.Before(other.t)
}

// MarshalJSON writes epoch milliseconds as an integer unless the instant
// carries a sub-millisecond part.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.millis {
		ms := ts.t.UnixMilli()

		frac := ts.t.UnixNano() - ms*int64(time.Millisecond)
		if frac == 0 {
			return []byte(strconv.FormatInt(ms, 10)), nil
		}

		return []byte(strconv.FormatFloat(float64(ms)+float64(frac)/float64(time.Millisecond), 'f', -1, 64)), nil
	}

	return json.Marshal(ts.text)
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*ts = Timestamp{}

		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return fmt.Errorf("decode timestamp: %w", err)
		}

		*ts = parseTimestampText(text)

		return nil
	}

	var ms float64
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("timestamp must be a string or epoch milliseconds: %w", err)
	}

	*ts = Timestamp{t: time.Unix(0, 0).Add(millisDuration(ms)).UTC(), millis: true}

	return nil
}

func millisDuration(ms float64) time.Duration {
	return time.Duration(math.Round(ms * float64(time.Millisecond)))
}

func parseTimestampText(text string) Timestamp {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, text); err == nil {
			return Timestamp{t: t, text: text}
		}
	}

	return Timestamp{text: text}
}

// present mirrors the upstream falsy check: empty text and epoch zero count as unset.
func present(ts *Timestamp) *Timestamp {
	if ts == nil {
		return nil
	}

	if ts.millis && ts.t.UnixNano() == 0 {
		return nil
	}

	if !ts.millis && ts.text == "" {
		return nil
	}

	return ts
}

// isBefore compares two optional timestamps; absent values are never ordered.
func isBefore(a, b *Timestamp) bool {
	if a == nil || b == nil {
		return false
	}

	return a.Before(*b)
}
