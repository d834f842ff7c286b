package aggregator

import (
	"fmt"
	"sort"
	"time"

	"call-insights-go/internal/types"
)

const topDispositionsPerAgent = 5

var weekdayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Analyze is Build followed by Result.
func Analyze(records []types.CallRecord, diag types.Diagnostics, opts Options) types.AnalysisResult {
	return Build(records, opts).Result(diag)
}

// Result projects the aggregation into the report views. diag carries
// the ingestion counters; anomalies found during the pass are appended.
func (a *Aggregation) Result(diag types.Diagnostics) types.AnalysisResult {
	weekly, weeklyTotal := a.weekly()
	return types.AnalysisResult{
		Summary:         a.summary(),
		Weekly:          weekly,
		WeeklyTotal:     weeklyTotal,
		Daily:           a.daily(),
		Hourly:          a.hourly(),
		Weekdays:        a.weekdays(),
		Dispositions:    a.dispositions(),
		Sources:         a.sources(),
		Campaigns:       a.campaigns(),
		AreaCodes:       a.areaCodes(),
		Agents:          a.agents(),
		Sessions:        append([]types.AgentDaySession(nil), a.sessionRows...),
		SessionTotals:   a.sessionTotals(),
		Funnel:          a.funnelView(),
		InterestedLeads: append([]types.Lead(nil), a.leads...),
		Diagnostics:     a.diagnostics(diag),
	}
}

func (a *Aggregation) summary() types.Summary {
	t := a.totals
	s := types.Summary{
		TotalCalls:           t.calls,
		Answered:             t.answered,
		Missed:               t.calls - t.answered,
		Incoming:             a.incoming,
		Outgoing:             a.outgoing,
		LiveConversations:    t.live,
		Voicemail:            t.voicemail,
		Interested:           t.interested,
		NotInterested:        t.notInterested,
		TotalDurationSeconds: t.duration,
		TalkSeconds:          t.talk,
		RingAllowanceSeconds: a.opts.RingAllowanceSeconds,
		PhoneTimeSeconds:     t.duration + a.opts.RingAllowanceSeconds*t.calls,
		AnswerRate:           types.Percent(t.answered, t.calls),
		MissedRate:           types.Percent(t.calls-t.answered, t.calls),
		IncomingRate:         types.Percent(a.incoming, t.calls),
		OutgoingRate:         types.Percent(a.outgoing, t.calls),
		LiveAnswerRate:       types.Percent(t.live, t.calls),
		ConversionRate:       types.Percent(t.interested, t.calls),
	}
	if t.answered > 0 {
		s.AvgAnsweredDuration = t.talk / t.answered
	}
	for _, r := range a.sessionRows {
		s.DialerSessionSeconds += r.SessionSeconds
	}
	if !a.minTime.IsZero() {
		start := truncateDay(a.minTime)
		end := truncateDay(a.maxTime)
		s.DateRange = types.DateRange{
			Start: a.minTime,
			End:   a.maxTime,
			Days:  int(end.Sub(start).Hours()/24) + 1,
		}
	}
	return s
}

// weekly groups Monday-Friday sessions by the Monday of their week.
func (a *Aggregation) weekly() ([]types.WeeklyRow, types.WeeklyRow) {
	type weekAcc struct {
		phone, talk int
		days        map[string]bool
	}
	weeks := map[string]*weekAcc{}
	for _, r := range a.sessionRows {
		d, err := time.Parse(types.DateLayout, r.Date)
		if err != nil {
			continue
		}
		idx := weekdayIndex(d.Weekday())
		if idx >= 5 {
			continue
		}
		start := d.AddDate(0, 0, -idx).Format(types.DateLayout)
		w, ok := weeks[start]
		if !ok {
			w = &weekAcc{days: map[string]bool{}}
			weeks[start] = w
		}
		w.phone += r.SessionSeconds
		w.talk += r.TalkSeconds
		w.days[r.Date] = true
	}

	rows := make([]types.WeeklyRow, 0, len(weeks))
	total := types.WeeklyRow{WeekStart: "TOTAL"}
	for _, start := range sortedKeys(weeks) {
		w := weeks[start]
		d, _ := time.Parse(types.DateLayout, start)
		rows = append(rows, types.WeeklyRow{
			WeekStart:    start,
			WeekEnd:      d.AddDate(0, 0, 4).Format(types.DateLayout),
			DaysWorked:   len(w.days),
			PhoneSeconds: w.phone,
			TalkSeconds:  w.talk,
			Efficiency:   efficiency(w.talk, w.phone),
		})
		total.DaysWorked += len(w.days)
		total.PhoneSeconds += w.phone
		total.TalkSeconds += w.talk
	}
	total.Efficiency = efficiency(total.TalkSeconds, total.PhoneSeconds)
	return rows, total
}

func (a *Aggregation) daily() []types.DailyRow {
	rows := make([]types.DailyRow, 0, len(a.byDate))
	for _, date := range sortedKeys(a.byDate) {
		d := a.byDate[date]
		rows = append(rows, types.DailyRow{
			Date:            date,
			Weekday:         d.weekday.String(),
			Calls:           d.calls,
			Answered:        d.answered,
			Live:            d.live,
			Interested:      d.interested,
			DurationSeconds: d.duration,
			Hours:           float64(d.duration) / 3600,
			ConversionRate:  types.Percent(d.interested, d.calls),
		})
	}
	return rows
}

func slotRow(label string, slot int, b bucket) types.TimeSlotRow {
	return types.TimeSlotRow{
		Label:      label,
		Slot:       slot,
		Calls:      b.calls,
		Answered:   b.answered,
		Live:       b.live,
		Interested: b.interested,
		LiveRate:   types.Percent(b.live, b.calls),
	}
}

func (a *Aggregation) hourly() []types.TimeSlotRow {
	var rows []types.TimeSlotRow
	for h, b := range a.byHour {
		if b.calls == 0 {
			continue
		}
		rows = append(rows, slotRow(fmt.Sprintf("%02d:00", h), h, b))
	}
	return rows
}

func (a *Aggregation) weekdays() []types.TimeSlotRow {
	var rows []types.TimeSlotRow
	for i, b := range a.byWeekday {
		if b.calls == 0 {
			continue
		}
		rows = append(rows, slotRow(weekdayNames[i], i, b))
	}
	return rows
}

func (a *Aggregation) dispositions() []types.DispositionRow {
	rows := make([]types.DispositionRow, 0, len(a.byDisposition))
	for label, d := range a.byDisposition {
		rows = append(rows, types.DispositionRow{
			Label:           label,
			Category:        d.category,
			Calls:           d.calls,
			Share:           types.Percent(d.calls, a.totals.calls),
			DurationSeconds: d.duration,
			AvgDuration:     avg(d.duration, d.calls),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		return byCallsThenName(rows[i].Calls, rows[j].Calls, rows[i].Label, rows[j].Label)
	})
	return rows
}

func (a *Aggregation) sources() []types.SourceRow {
	rows := make([]types.SourceRow, 0, len(a.bySource))
	for name, b := range a.bySource {
		rows = append(rows, types.SourceRow{
			Source:         name,
			Calls:          b.calls,
			Answered:       b.answered,
			Live:           b.live,
			Voicemail:      b.voicemail,
			Interested:     b.interested,
			ConversionRate: types.Percent(b.interested, b.calls),
			VoicemailRate:  types.Percent(b.voicemail, b.calls),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		return byCallsThenName(rows[i].Calls, rows[j].Calls, rows[i].Source, rows[j].Source)
	})
	return rows
}

func (a *Aggregation) campaigns() []types.CampaignRow {
	rows := make([]types.CampaignRow, 0, len(a.byCampaign))
	for name, b := range a.byCampaign {
		rows = append(rows, types.CampaignRow{
			Campaign:        name,
			Calls:           b.calls,
			Answered:        b.answered,
			Voicemail:       b.voicemail,
			Interested:      b.interested,
			NotInterested:   b.notInterested,
			DurationSeconds: b.duration,
			AvgDuration:     avg(b.duration, b.calls),
			ConversionRate:  types.Percent(b.interested, b.calls),
			VoicemailRate:   types.Percent(b.voicemail, b.calls),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		return byCallsThenName(rows[i].Calls, rows[j].Calls, rows[i].Campaign, rows[j].Campaign)
	})
	return rows
}

func (a *Aggregation) areaCodes() []types.AreaCodeRow {
	rows := make([]types.AreaCodeRow, 0, len(a.byAreaCode))
	for code, b := range a.byAreaCode {
		rows = append(rows, types.AreaCodeRow{
			AreaCode:      code,
			Calls:         b.calls,
			Live:          b.live,
			Voicemail:     b.voicemail,
			LiveRate:      types.Percent(b.live, b.calls),
			VoicemailRate: types.Percent(b.voicemail, b.calls),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		return byCallsThenName(rows[i].Calls, rows[j].Calls, rows[i].AreaCode, rows[j].AreaCode)
	})
	return rows
}

func (a *Aggregation) agents() []types.AgentRow {
	rows := make([]types.AgentRow, 0, len(a.byAgent))
	for name, ag := range a.byAgent {
		row := types.AgentRow{
			Agent:           name,
			Calls:           ag.calls,
			DurationSeconds: ag.duration,
			TalkSeconds:     ag.talk,
			Answered:        ag.answered,
			Missed:          ag.calls - ag.answered,
			Incoming:        ag.incoming,
			Outgoing:        ag.outgoing,
			Live:            ag.live,
			Voicemail:       ag.voicemail,
			Interested:      ag.interested,
			LiveAnswerRate:  types.Percent(ag.live, ag.calls),
			ConversionRate:  types.Percent(ag.interested, ag.calls),
			Statuses:        rankCounts(ag.statuses, 0),
			TopDispositions: rankCounts(ag.dispositions, topDispositionsPerAgent),
		}
		if ag.answered > 0 {
			row.AvgAnsweredDuration = ag.talk / ag.answered
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return byCallsThenName(rows[i].Calls, rows[j].Calls, rows[i].Agent, rows[j].Agent)
	})
	return rows
}

func (a *Aggregation) sessionTotals() []types.AgentSessionTotal {
	var out []types.AgentSessionTotal
	for _, r := range a.sessionRows {
		if n := len(out); n == 0 || out[n-1].Agent != r.Agent {
			out = append(out, types.AgentSessionTotal{Agent: r.Agent})
		}
		t := &out[len(out)-1]
		t.Days++
		t.SessionSeconds += r.SessionSeconds
		t.TalkSeconds += r.TalkSeconds
	}
	for i := range out {
		out[i].Efficiency = efficiency(out[i].TalkSeconds, out[i].SessionSeconds)
	}
	return out
}

func (a *Aggregation) funnelView() types.Funnel {
	f := a.funnel
	f.Stages = append([]types.FunnelStage(nil), a.funnel.Stages...)
	return f
}

func (a *Aggregation) diagnostics(diag types.Diagnostics) types.Diagnostics {
	out := diag
	out.Anomalies = append(append([]types.Anomaly(nil), diag.Anomalies...), a.anomalies...)
	return out
}

func rankCounts(m map[string]int, limit int) []types.LabelCount {
	out := make([]types.LabelCount, 0, len(m))
	for label, n := range m {
		out = append(out, types.LabelCount{Label: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		return byCallsThenName(out[i].Count, out[j].Count, out[i].Label, out[j].Label)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func byCallsThenName(ci, cj int, ni, nj string) bool {
	if ci != cj {
		return ci > cj
	}
	return ni < nj
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func avg(total, n int) int {
	if n == 0 {
		return 0
	}
	return total / n
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
