// internal/types/results.go
package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// --------------------------------------------
// Rate: a percentage that knows when its
// denominator was zero
// --------------------------------------------
type Rate struct {
	Value float64
	Valid bool
}

// Percent returns num/den*100, or an invalid Rate when den is 0.
func Percent(num, den int) Rate {
	if den <= 0 {
		return Rate{}
	}
	return Rate{Value: float64(num) / float64(den) * 100, Valid: true}
}

// Ratio returns num/den, or an invalid Rate when den is 0.
func Ratio(num, den int) Rate {
	if den <= 0 {
		return Rate{}
	}
	return Rate{Value: float64(num) / float64(den), Valid: true}
}

func (r Rate) String() string {
	if !r.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", r.Value)
}

func (r Rate) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

func (r *Rate) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Rate{}
		return nil
	}
	if err := json.Unmarshal(data, &r.Value); err != nil {
		return err
	}
	r.Valid = true
	return nil
}

// --------------------------------------------
// Top-level result handed to every presenter
// --------------------------------------------
type AnalysisResult struct {
	Summary         Summary             `json:"summary"`
	Weekly          []WeeklyRow         `json:"weekly"`
	WeeklyTotal     WeeklyRow           `json:"weekly_total"`
	Daily           []DailyRow          `json:"daily"`
	Hourly          []TimeSlotRow       `json:"hourly"`
	Weekdays        []TimeSlotRow       `json:"weekdays"`
	Dispositions    []DispositionRow    `json:"dispositions"`
	Sources         []SourceRow         `json:"sources"`
	Campaigns       []CampaignRow       `json:"campaigns"`
	AreaCodes       []AreaCodeRow       `json:"area_codes"`
	Agents          []AgentRow          `json:"agents"`
	Sessions        []AgentDaySession   `json:"sessions"`
	SessionTotals   []AgentSessionTotal `json:"session_totals"`
	Funnel          Funnel              `json:"funnel"`
	InterestedLeads []Lead              `json:"interested_leads"`
	Diagnostics     Diagnostics         `json:"diagnostics"`
}

// --------------------------------------------
// Overall summary
// --------------------------------------------
type Summary struct {
	DateRange            DateRange `json:"date_range"`
	TotalCalls           int       `json:"total_calls"`
	Answered             int       `json:"answered"`
	Missed               int       `json:"missed"`
	Incoming             int       `json:"incoming"`
	Outgoing             int       `json:"outgoing"`
	LiveConversations    int       `json:"live_conversations"`
	Voicemail            int       `json:"voicemail"`
	Interested           int       `json:"interested"`
	NotInterested        int       `json:"not_interested"`
	TotalDurationSeconds int       `json:"total_duration_seconds"`
	TalkSeconds          int       `json:"talk_seconds"`
	PhoneTimeSeconds     int       `json:"phone_time_seconds"`
	RingAllowanceSeconds int       `json:"ring_allowance_seconds"`
	DialerSessionSeconds int       `json:"dialer_session_seconds"`
	AvgAnsweredDuration  int       `json:"avg_answered_duration_seconds"`
	AnswerRate           Rate      `json:"answer_rate"`
	MissedRate           Rate      `json:"missed_rate"`
	IncomingRate         Rate      `json:"incoming_rate"`
	OutgoingRate         Rate      `json:"outgoing_rate"`
	LiveAnswerRate       Rate      `json:"live_answer_rate"`
	ConversionRate       Rate      `json:"conversion_rate"`
}

type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Days  int       `json:"days"`
}

// Empty reports whether no record carried a timestamp.
func (d DateRange) Empty() bool { return d.Start.IsZero() }

// --------------------------------------------
// Time based views
// --------------------------------------------
type WeeklyRow struct {
	WeekStart    string `json:"week_start"`
	WeekEnd      string `json:"week_end"`
	DaysWorked   int    `json:"days_worked"`
	PhoneSeconds int    `json:"phone_seconds"`
	TalkSeconds  int    `json:"talk_seconds"`
	Efficiency   Rate   `json:"efficiency"`
}

type DailyRow struct {
	Date            string  `json:"date"`
	Weekday         string  `json:"weekday"`
	Calls           int     `json:"calls"`
	Answered        int     `json:"answered"`
	Live            int     `json:"live"`
	Interested      int     `json:"interested"`
	DurationSeconds int     `json:"duration_seconds"`
	Hours           float64 `json:"hours"`
	ConversionRate  Rate    `json:"conversion_rate"`
}

// TimeSlotRow is shared by the hour-of-day and day-of-week views.
type TimeSlotRow struct {
	Label      string `json:"label"`
	Slot       int    `json:"slot"`
	Calls      int    `json:"calls"`
	Answered   int    `json:"answered"`
	Live       int    `json:"live"`
	Interested int    `json:"interested"`
	LiveRate   Rate   `json:"live_rate"`
}

// --------------------------------------------
// Grouped tables
// --------------------------------------------
type DispositionRow struct {
	Label           string   `json:"label"`
	Category        Category `json:"category"`
	Calls           int      `json:"calls"`
	Share           Rate     `json:"share"`
	DurationSeconds int      `json:"duration_seconds"`
	AvgDuration     int      `json:"avg_duration_seconds"`
}

type SourceRow struct {
	Source         string `json:"source"`
	Calls          int    `json:"calls"`
	Answered       int    `json:"answered"`
	Live           int    `json:"live"`
	Voicemail      int    `json:"voicemail"`
	Interested     int    `json:"interested"`
	ConversionRate Rate   `json:"conversion_rate"`
	VoicemailRate  Rate   `json:"voicemail_rate"`
}

type CampaignRow struct {
	Campaign        string `json:"campaign"`
	Calls           int    `json:"calls"`
	Answered        int    `json:"answered"`
	Voicemail       int    `json:"voicemail"`
	Interested      int    `json:"interested"`
	NotInterested   int    `json:"not_interested"`
	DurationSeconds int    `json:"duration_seconds"`
	AvgDuration     int    `json:"avg_duration_seconds"`
	ConversionRate  Rate   `json:"conversion_rate"`
	VoicemailRate   Rate   `json:"voicemail_rate"`
}

type AreaCodeRow struct {
	AreaCode      string `json:"area_code"`
	Calls         int    `json:"calls"`
	Live          int    `json:"live"`
	Voicemail     int    `json:"voicemail"`
	LiveRate      Rate   `json:"live_rate"`
	VoicemailRate Rate   `json:"voicemail_rate"`
}

type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type AgentRow struct {
	Agent               string       `json:"agent"`
	Calls               int          `json:"calls"`
	DurationSeconds     int          `json:"duration_seconds"`
	TalkSeconds         int          `json:"talk_seconds"`
	Answered            int          `json:"answered"`
	Missed              int          `json:"missed"`
	Incoming            int          `json:"incoming"`
	Outgoing            int          `json:"outgoing"`
	Live                int          `json:"live"`
	Voicemail           int          `json:"voicemail"`
	Interested          int          `json:"interested"`
	AvgAnsweredDuration int          `json:"avg_answered_duration_seconds"`
	LiveAnswerRate      Rate         `json:"live_answer_rate"`
	ConversionRate      Rate         `json:"conversion_rate"`
	Statuses            []LabelCount `json:"statuses"`
	TopDispositions     []LabelCount `json:"top_dispositions"`
}

// --------------------------------------------
// Agent sessions
// --------------------------------------------
type AgentDaySession struct {
	Agent          string    `json:"agent"`
	Date           string    `json:"date"`
	Calls          int       `json:"calls"`
	FirstCall      time.Time `json:"first_call"`
	LastCall       time.Time `json:"last_call"`
	LastCallEnd    time.Time `json:"last_call_end"`
	SessionSeconds int       `json:"session_seconds"`
	TalkSeconds    int       `json:"talk_seconds"`
	Efficiency     Rate      `json:"efficiency"`
}

type AgentSessionTotal struct {
	Agent          string `json:"agent"`
	Days           int    `json:"days"`
	SessionSeconds int    `json:"session_seconds"`
	TalkSeconds    int    `json:"talk_seconds"`
	Efficiency     Rate   `json:"efficiency"`
}

// --------------------------------------------
// Funnel
// --------------------------------------------
type FunnelStage struct {
	Name       string `json:"name"`
	Count      int    `json:"count"`
	PctOfDials Rate   `json:"pct_of_dials"`
}

type Funnel struct {
	Stages             []FunnelStage `json:"stages"`
	DialsPerInterested Rate          `json:"dials_per_interested"`
	LivePerInterested  Rate          `json:"live_per_interested"`
}

const (
	StageDials      = "Total Dials"
	StageConnected  = "Connected"
	StageLive       = "Live Conversations"
	StageInterested = "Interested"
)

// Stage looks a stage up by name; zero when absent.
func (f Funnel) Stage(name string) int {
	for _, s := range f.Stages {
		if s.Name == name {
			return s.Count
		}
	}
	return 0
}

// --------------------------------------------
// Interested leads
// --------------------------------------------
type Lead struct {
	Timestamp       time.Time `json:"timestamp"`
	RawDate         string    `json:"raw_date"`
	Agent           string    `json:"agent"`
	ToNumber        string    `json:"to_number"`
	DurationSeconds int       `json:"duration_seconds"`
	RawDuration     string    `json:"raw_duration"`
	CRMLink         string    `json:"crm_link"`
	CRMContactID    string    `json:"crm_contact_id"`
	Campaign        string    `json:"campaign"`
}

// --------------------------------------------
// Diagnostics: skipped rows, defaulted fields,
// invariant anomalies
// --------------------------------------------
type Diagnostics struct {
	RowsRead        int            `json:"rows_read"`
	SkippedRows     int            `json:"skipped_rows"`
	Skipped         []SkippedRow   `json:"skipped,omitempty"`
	DefaultedFields map[string]int `json:"defaulted_fields,omitempty"`
	Anomalies       []Anomaly      `json:"anomalies,omitempty"`
}

type SkippedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
	Value  string `json:"value"`
}

type AnomalyKind string

const (
	AnomalyFunnelInversion    AnomalyKind = "funnel_inversion"
	AnomalyNegativeSession    AnomalyKind = "negative_session"
	AnomalyTalkExceedsSession AnomalyKind = "talk_exceeds_session"
)

type Anomaly struct {
	Kind    AnomalyKind `json:"kind"`
	Agent   string      `json:"agent,omitempty"`
	Date    string      `json:"date,omitempty"`
	Message string      `json:"message"`
}
