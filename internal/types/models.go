package types

import (
	"encoding/json"
	"time"
)

type Direction string

const (
	DirectionIncoming Direction = "Incoming"
	DirectionOutgoing Direction = "Outgoing"
)

// Status is the call status as exported. Values other than the two
// constants pass through verbatim.
type Status string

const (
	StatusAnswered Status = "Answered"
	StatusMissed   Status = "Missed"
)

func (s Status) Answered() bool { return s == StatusAnswered }

type DispositionKind int

const (
	DispositionNone DispositionKind = iota
	DispositionVoicemail
	DispositionInterested
	DispositionNotInterested
	DispositionBadNumber
	DispositionNoCallOutcome
	DispositionOther
)

// Disposition keeps the literal label for display next to its kind.
type Disposition struct {
	Kind  DispositionKind
	Label string
}

func (d Disposition) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Label)
}

// Category is the semantic class layered over a disposition.
type Category string

const (
	CategoryNone      Category = "none"
	CategoryVoicemail Category = "voicemail"
	CategoryLive      Category = "live"
	CategoryConverted Category = "converted"
)

// Outcome is the per-call classification every view counts from.
type Outcome struct {
	Connected     bool
	Live          bool
	Voicemail     bool
	Interested    bool
	NotInterested bool
}

type CallRecord struct {
	Line         int         `json:"line"`
	Timestamp    time.Time   `json:"timestamp"`
	RawDate      string      `json:"raw_date"`
	Agent        string      `json:"agent"`
	Direction    Direction   `json:"direction"`
	Status       Status      `json:"status"`
	Disposition  Disposition `json:"disposition"`
	Duration     int         `json:"duration_seconds"`
	RawDuration  string      `json:"raw_duration,omitempty"`
	Source       string      `json:"source"`
	Campaign     string      `json:"campaign,omitempty"`
	CRMLink      string      `json:"crm_link,omitempty"`
	CRMContactID string      `json:"crm_contact_id,omitempty"`
	ToNumber     string      `json:"to_number,omitempty"`
	RawToNumber  string      `json:"raw_to_number,omitempty"`
	AreaCode     string      `json:"area_code,omitempty"`
}

// Date is the calendar day key of the call start.
func (r CallRecord) Date() string { return r.Timestamp.Format(DateLayout) }

// End is the call start plus its duration.
func (r CallRecord) End() time.Time {
	return r.Timestamp.Add(time.Duration(r.Duration) * time.Second)
}

const DateLayout = "2006-01-02"
