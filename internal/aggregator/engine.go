// Package aggregator builds every grouped table in one pass over the
// normalized call records and projects them into report views.
package aggregator

import (
	"fmt"
	"sort"
	"time"

	"call-insights-go/internal/fields"
	"call-insights-go/internal/types"
)

type Options struct {
	// RingAllowanceSeconds is added per call to the phone-time total.
	// Zero means phone time is exactly the summed call durations.
	RingAllowanceSeconds int
}

type bucket struct {
	calls         int
	answered      int
	live          int
	voicemail     int
	interested    int
	notInterested int
	duration      int
	talk          int
}

func (b *bucket) add(rec types.CallRecord, o types.Outcome) {
	b.calls++
	b.duration += rec.Duration
	if o.Connected {
		b.answered++
		b.talk += rec.Duration
	}
	if o.Live {
		b.live++
	}
	if o.Voicemail {
		b.voicemail++
	}
	if o.Interested {
		b.interested++
	}
	if o.NotInterested {
		b.notInterested++
	}
}

type dayAcc struct {
	bucket
	weekday time.Weekday
}

type dispositionAcc struct {
	bucket
	category types.Category
}

type agentAcc struct {
	bucket
	incoming     int
	outgoing     int
	statuses     map[string]int
	dispositions map[string]int
}

type sessionKey struct {
	agent string
	date  string
}

type sessionAcc struct {
	calls     int
	first     time.Time
	lastStart time.Time
	lastEnd   time.Time
	talk      int
}

// Aggregation is the immutable product of Build. Views read from it and
// never touch the records again.
type Aggregation struct {
	opts Options

	totals   bucket
	incoming int
	outgoing int
	minTime  time.Time
	maxTime  time.Time

	byDate        map[string]*dayAcc
	byAgent       map[string]*agentAcc
	byDisposition map[string]*dispositionAcc
	bySource      map[string]*bucket
	byCampaign    map[string]*bucket
	byAreaCode    map[string]*bucket
	byHour        [24]bucket
	byWeekday     [7]bucket
	sessions      map[sessionKey]*sessionAcc

	sessionRows []types.AgentDaySession
	funnel      types.Funnel
	leads       []types.Lead
	anomalies   []types.Anomaly
}

// Build runs the aggregation pass. Input order does not affect any total.
func Build(records []types.CallRecord, opts Options) *Aggregation {
	a := &Aggregation{
		opts:          opts,
		byDate:        map[string]*dayAcc{},
		byAgent:       map[string]*agentAcc{},
		byDisposition: map[string]*dispositionAcc{},
		bySource:      map[string]*bucket{},
		byCampaign:    map[string]*bucket{},
		byAreaCode:    map[string]*bucket{},
		sessions:      map[sessionKey]*sessionAcc{},
	}
	for _, rec := range records {
		a.add(rec)
	}
	a.finishSessions()
	a.finishFunnel()
	sort.SliceStable(a.leads, func(i, j int) bool {
		return a.leads[i].Timestamp.Before(a.leads[j].Timestamp)
	})
	return a
}

func (a *Aggregation) add(rec types.CallRecord) {
	o := fields.Classify(rec.Status, rec.Disposition)
	date := rec.Date()

	a.totals.add(rec, o)
	if rec.Direction == types.DirectionIncoming {
		a.incoming++
	} else {
		a.outgoing++
	}
	if a.minTime.IsZero() || rec.Timestamp.Before(a.minTime) {
		a.minTime = rec.Timestamp
	}
	if rec.Timestamp.After(a.maxTime) {
		a.maxTime = rec.Timestamp
	}

	day, ok := a.byDate[date]
	if !ok {
		day = &dayAcc{weekday: rec.Timestamp.Weekday()}
		a.byDate[date] = day
	}
	day.add(rec, o)

	ag, ok := a.byAgent[rec.Agent]
	if !ok {
		ag = &agentAcc{statuses: map[string]int{}, dispositions: map[string]int{}}
		a.byAgent[rec.Agent] = ag
	}
	ag.add(rec, o)
	if rec.Direction == types.DirectionIncoming {
		ag.incoming++
	} else {
		ag.outgoing++
	}
	ag.statuses[statusLabel(rec.Status)]++
	ag.dispositions[rec.Disposition.Label]++

	disp, ok := a.byDisposition[rec.Disposition.Label]
	if !ok {
		disp = &dispositionAcc{category: fields.CategoryOf(rec.Disposition)}
		a.byDisposition[rec.Disposition.Label] = disp
	}
	disp.add(rec, o)

	addTo(a.bySource, rec.Source, rec, o)
	addTo(a.byCampaign, campaignKey(rec), rec, o)
	addTo(a.byAreaCode, areaCodeKey(rec), rec, o)
	a.byHour[rec.Timestamp.Hour()].add(rec, o)
	a.byWeekday[weekdayIndex(rec.Timestamp.Weekday())].add(rec, o)

	k := sessionKey{agent: rec.Agent, date: date}
	s, ok := a.sessions[k]
	if !ok {
		s = &sessionAcc{first: rec.Timestamp, lastStart: rec.Timestamp, lastEnd: rec.End()}
		a.sessions[k] = s
	}
	s.calls++
	if rec.Timestamp.Before(s.first) {
		s.first = rec.Timestamp
	}
	if rec.Timestamp.After(s.lastStart) {
		s.lastStart = rec.Timestamp
	}
	if end := rec.End(); end.After(s.lastEnd) {
		s.lastEnd = end
	}
	if o.Connected {
		s.talk += rec.Duration
	}

	if o.Interested {
		a.leads = append(a.leads, types.Lead{
			Timestamp:       rec.Timestamp,
			RawDate:         rec.RawDate,
			Agent:           rec.Agent,
			ToNumber:        leadNumber(rec),
			DurationSeconds: rec.Duration,
			RawDuration:     rec.RawDuration,
			CRMLink:         rec.CRMLink,
			CRMContactID:    rec.CRMContactID,
			Campaign:        campaignKey(rec),
		})
	}
}

func addTo(m map[string]*bucket, k string, rec types.CallRecord, o types.Outcome) {
	b, ok := m[k]
	if !ok {
		b = &bucket{}
		m[k] = b
	}
	b.add(rec, o)
}

func (a *Aggregation) finishSessions() {
	rows := make([]types.AgentDaySession, 0, len(a.sessions))
	for k, s := range a.sessions {
		secs := int(s.lastEnd.Sub(s.first) / time.Second)
		if secs < 0 {
			a.anomalies = append(a.anomalies, types.Anomaly{
				Kind:    types.AnomalyNegativeSession,
				Agent:   k.agent,
				Date:    k.date,
				Message: fmt.Sprintf("session computed as %ds, clamped to 0", secs),
			})
			secs = 0
		}
		rows = append(rows, types.AgentDaySession{
			Agent:          k.agent,
			Date:           k.date,
			Calls:          s.calls,
			FirstCall:      s.first,
			LastCall:       s.lastStart,
			LastCallEnd:    s.lastEnd,
			SessionSeconds: secs,
			TalkSeconds:    s.talk,
			Efficiency:     efficiency(s.talk, secs),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Agent != rows[j].Agent {
			return rows[i].Agent < rows[j].Agent
		}
		return rows[i].Date < rows[j].Date
	})
	for _, r := range rows {
		if r.TalkSeconds > r.SessionSeconds {
			a.anomalies = append(a.anomalies, types.Anomaly{
				Kind:    types.AnomalyTalkExceedsSession,
				Agent:   r.Agent,
				Date:    r.Date,
				Message: fmt.Sprintf("talk %ds exceeds session %ds; calls overlap", r.TalkSeconds, r.SessionSeconds),
			})
		}
	}
	a.sessionRows = rows
}

func (a *Aggregation) finishFunnel() {
	counts := []struct {
		name  string
		count int
	}{
		{types.StageDials, a.totals.calls},
		{types.StageConnected, a.totals.answered},
		{types.StageLive, a.totals.live},
		{types.StageInterested, a.totals.interested},
	}
	f := types.Funnel{
		DialsPerInterested: types.Ratio(a.totals.calls, a.totals.interested),
		LivePerInterested:  types.Ratio(a.totals.live, a.totals.interested),
	}
	for i, c := range counts {
		f.Stages = append(f.Stages, types.FunnelStage{
			Name:       c.name,
			Count:      c.count,
			PctOfDials: types.Percent(c.count, a.totals.calls),
		})
		if i > 0 && c.count > counts[i-1].count {
			a.anomalies = append(a.anomalies, types.Anomaly{
				Kind: types.AnomalyFunnelInversion,
				Message: fmt.Sprintf("%s (%d) exceeds %s (%d)",
					c.name, c.count, counts[i-1].name, counts[i-1].count),
			})
		}
	}
	a.funnel = f
}

// efficiency is talk/session as a percentage, capped at 100 when
// overlapping calls push talk past the session span.
func efficiency(talk, session int) types.Rate {
	r := types.Percent(talk, session)
	if r.Valid && r.Value > 100 {
		r.Value = 100
	}
	return r
}

func statusLabel(s types.Status) string {
	if s == "" {
		return "Unknown"
	}
	return string(s)
}

func campaignKey(rec types.CallRecord) string {
	if rec.Campaign == "" {
		return fields.NoCampaign
	}
	return rec.Campaign
}

func areaCodeKey(rec types.CallRecord) string {
	if rec.AreaCode == "" {
		return fields.UnknownAreaCode
	}
	return rec.AreaCode
}

func leadNumber(rec types.CallRecord) string {
	if rec.RawToNumber != "" {
		return rec.RawToNumber
	}
	return rec.ToNumber
}

// weekdayIndex puts Monday first.
func weekdayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}
