// Package fields turns raw export text into typed call values. Every
// function here is pure.
package fields

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"call-insights-go/internal/types"
)

type ErrorKind string

const (
	BadTimestamp ErrorKind = "bad_timestamp"
	BadDuration  ErrorKind = "bad_duration"
)

type ParseError struct {
	Kind  ErrorKind
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %q: %v", e.Kind, e.Value, e.Err)
	}
	return fmt.Sprintf("%s: %q", e.Kind, e.Value)
}

func (e *ParseError) Unwrap() error { return e.Err }

// TimestampLayout is the export's "09/02/2025, 10:15 AM" shape. Single
// digit month, day and hour are accepted too.
const TimestampLayout = "1/2/2006, 3:04 PM"

// ParseTimestamp reads a wall-clock timestamp. No zone conversion is done;
// the value is stored in UTC so that arithmetic never crosses a DST edge.
func ParseTimestamp(raw string) (time.Time, error) {
	s := strings.ToUpper(strings.Trim(strings.TrimSpace(raw), `"`))
	if s == "" {
		return time.Time{}, &ParseError{Kind: BadTimestamp, Value: raw}
	}
	t, err := time.ParseInLocation(TimestampLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, &ParseError{Kind: BadTimestamp, Value: raw, Err: err}
	}
	// the layout's 12-hour field also takes 0
	if h := clockHour(s); h < 1 || h > 12 {
		return time.Time{}, &ParseError{Kind: BadTimestamp, Value: raw, Err: fmt.Errorf("hour %d out of range", h)}
	}
	return t, nil
}

// clockHour reads the hour digits of a string that already matched
// TimestampLayout.
func clockHour(s string) int {
	rest := s[strings.LastIndex(s, ",")+1:]
	hh, _, _ := strings.Cut(strings.TrimSpace(rest), ":")
	n, err := strconv.Atoi(hh)
	if err != nil {
		return -1
	}
	return n
}

// ParseDuration converts M:SS or H:MM:SS into seconds. Empty and "0" are
// zero. Minutes and seconds must be 0-59; only hours are unbounded.
func ParseDuration(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "0" {
		return 0, nil
	}
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, &ParseError{Kind: BadDuration, Value: raw}
	}
	total := 0
	for i, p := range parts {
		n, err := segment(p)
		if err != nil {
			return 0, &ParseError{Kind: BadDuration, Value: raw, Err: err}
		}
		hours := len(parts) == 3 && i == 0
		if !hours && n > 59 {
			return 0, &ParseError{Kind: BadDuration, Value: raw, Err: fmt.Errorf("segment %d out of range", n)}
		}
		total = total*60 + n
	}
	return total, nil
}

func segment(p string) (int, error) {
	if p == "" {
		return 0, fmt.Errorf("empty segment")
	}
	for _, r := range p {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-numeric segment %q", p)
		}
	}
	return strconv.Atoi(p)
}

// FormatDuration renders seconds as H:MM:SS, or M:SS under an hour.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// ParseDirection maps the Type column. Anything that is not Incoming
// counts as Outgoing; ok is false when the value was not recognised.
func ParseDirection(raw string) (types.Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "incoming", "inbound":
		return types.DirectionIncoming, true
	case "outgoing", "outbound":
		return types.DirectionOutgoing, true
	}
	return types.DirectionOutgoing, false
}

// ParseStatus canonicalises Answered and Missed; other labels pass through.
func ParseStatus(raw string) types.Status {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "answered":
		return types.StatusAnswered
	case "missed":
		return types.StatusMissed
	}
	return types.Status(s)
}

const (
	SourcePowerDialer = "PowerDialer"
	SourceManualDial  = "Manual Dial"
	SourceUnknown     = "Unknown"
	NoCampaign        = "No Campaign"
	UnknownAreaCode   = "Unknown"
	UnknownAgent      = "Unknown"
)

// ParseSource canonicalises the dialer source so spelling variants group
// together. ok is false when the value was empty.
func ParseSource(raw string) (string, bool) {
	s := strings.Join(strings.Fields(raw), " ")
	switch strings.ToLower(strings.ReplaceAll(s, " ", "")) {
	case "":
		return SourceUnknown, false
	case "powerdialer":
		return SourcePowerDialer, true
	case "manualdial":
		return SourceManualDial, true
	}
	return s, true
}
