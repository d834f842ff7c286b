package aggregator

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"call-insights-go/internal/fields"
	"call-insights-go/internal/types"
)

type callOpt func(*types.CallRecord)

func call(agent, at string, status types.Status, disposition string, seconds int, opts ...callOpt) types.CallRecord {
	ts, err := time.ParseInLocation("2006-01-02 15:04", at, time.UTC)
	if err != nil {
		panic(err)
	}
	d, _ := fields.DefaultTaxonomy().Parse(disposition)
	src, _ := fields.ParseSource("PowerDialer")
	rec := types.CallRecord{
		Timestamp:   ts,
		Agent:       agent,
		Direction:   types.DirectionOutgoing,
		Status:      status,
		Disposition: d,
		Duration:    seconds,
		Source:      src,
	}
	for _, o := range opts {
		o(&rec)
	}
	return rec
}

func withNumber(n string) callOpt {
	return func(r *types.CallRecord) {
		r.RawToNumber = n
		r.ToNumber = fields.NormalizePhone(n)
		r.AreaCode, _ = fields.AreaCode(n)
	}
}

func withCampaign(c string) callOpt {
	return func(r *types.CallRecord) { r.Campaign = c }
}

func withSource(s string) callOpt {
	return func(r *types.CallRecord) { r.Source, _ = fields.ParseSource(s) }
}

func incoming() callOpt {
	return func(r *types.CallRecord) { r.Direction = types.DirectionIncoming }
}

func samDay() []types.CallRecord {
	return []types.CallRecord{
		call("Sam", "2025-09-02 09:00", types.StatusAnswered, "Voicemail", 120),
		call("Sam", "2025-09-02 09:10", types.StatusAnswered, "Interested", 120,
			withNumber("+1 (312) 555-0100"), withCampaign("Roofers")),
		call("Sam", "2025-09-02 09:20", types.StatusMissed, "", 0),
	}
}

func TestSamScenario(t *testing.T) {
	res := Analyze(samDay(), types.Diagnostics{}, Options{})

	s := res.Summary
	assert.Equal(t, 3, s.TotalCalls)
	assert.Equal(t, 2, s.Answered)
	assert.Equal(t, 1, s.Missed)
	assert.Equal(t, 1, s.LiveConversations)
	assert.Equal(t, 1, s.Interested)
	assert.Equal(t, 1, s.Voicemail)
	assert.Equal(t, 240, s.TalkSeconds)
	assert.Equal(t, 240, s.PhoneTimeSeconds)
	assert.Equal(t, 1200, s.DialerSessionSeconds)
	assert.Equal(t, 1, s.DateRange.Days)

	require.Len(t, res.Sessions, 1)
	sess := res.Sessions[0]
	assert.Equal(t, "Sam", sess.Agent)
	assert.Equal(t, "2025-09-02", sess.Date)
	assert.Equal(t, 3, sess.Calls)
	assert.Equal(t, 1200, sess.SessionSeconds)
	assert.Equal(t, 240, sess.TalkSeconds)
	require.True(t, sess.Efficiency.Valid)
	assert.InDelta(t, 20.0, sess.Efficiency.Value, 1e-9)

	assert.Equal(t, []int{3, 2, 1, 1}, stageCounts(res.Funnel))
	assert.Empty(t, res.Diagnostics.Anomalies)

	require.Len(t, res.InterestedLeads, 1)
	lead := res.InterestedLeads[0]
	assert.Equal(t, "+1 (312) 555-0100", lead.ToNumber)
	assert.Equal(t, 120, lead.DurationSeconds)
	assert.Equal(t, "Roofers", lead.Campaign)
}

func stageCounts(f types.Funnel) []int {
	var out []int
	for _, s := range f.Stages {
		out = append(out, s.Count)
	}
	return out
}

func mixedDataset() []types.CallRecord {
	return []types.CallRecord{
		call("Sam", "2025-09-01 08:55", types.StatusAnswered, "Not Interested", 95, withNumber("415-555-0101")),
		call("Sam", "2025-09-01 13:05", types.StatusAnswered, "Interested", 300, withNumber("415-555-0102"), withCampaign("Roofers")),
		call("Sam", "2025-09-06 10:00", types.StatusAnswered, "Voicemail", 40, withNumber("212 555 0199")),
		call("Ana", "2025-09-01 09:30", types.StatusMissed, "", 0, withSource("Manual Dial")),
		call("Ana", "2025-09-02 11:00", types.StatusAnswered, "Bad Number", 15, withNumber("5551234")),
		call("Ana", "2025-09-02 11:30", types.StatusAnswered, "Callback Later", 200, incoming(), withCampaign("Roofers")),
		call("Ana", "2025-09-09 16:45", types.StatusAnswered, "Interested", 610, withCampaign("Solar")),
		call("Lee", "2025-09-03 10:10", types.StatusAnswered, "No Call Outcome", 5),
		call("Lee", "2025-09-03 10:20", types.StatusMissed, "Voicemail", 0),
	}
}

func TestDispositionCountsSumToRecords(t *testing.T) {
	records := mixedDataset()
	res := Analyze(records, types.Diagnostics{}, Options{})

	sum := 0
	for _, d := range res.Dispositions {
		sum += d.Calls
	}
	assert.Equal(t, len(records), sum)
	assert.Equal(t, len(records), res.Summary.TotalCalls)
}

func TestFunnelAndRatesBounded(t *testing.T) {
	res := Analyze(mixedDataset(), types.Diagnostics{}, Options{})

	counts := stageCounts(res.Funnel)
	require.Len(t, counts, 4)
	for i := 1; i < len(counts); i++ {
		assert.LessOrEqual(t, counts[i], counts[i-1])
	}
	assert.Equal(t, 2, res.Funnel.Stage(types.StageInterested))

	inRange := func(r types.Rate) {
		if r.Valid {
			assert.GreaterOrEqual(t, r.Value, 0.0)
			assert.LessOrEqual(t, r.Value, 100.0)
		}
	}
	inRange(res.Summary.LiveAnswerRate)
	inRange(res.Summary.ConversionRate)
	for _, s := range res.Sessions {
		inRange(s.Efficiency)
		if s.TalkSeconds > 0 {
			assert.GreaterOrEqual(t, s.SessionSeconds, s.TalkSeconds, "%s %s", s.Agent, s.Date)
		}
	}
	for _, a := range res.AreaCodes {
		inRange(a.LiveRate)
		inRange(a.VoicemailRate)
	}
}

func TestFunnelInversionIsFlagged(t *testing.T) {
	records := []types.CallRecord{
		call("Sam", "2025-09-02 09:00", types.StatusMissed, "Interested", 0),
		call("Sam", "2025-09-02 09:05", types.StatusMissed, "Interested", 0),
	}
	res := Analyze(records, types.Diagnostics{}, Options{})

	assert.Equal(t, []int{2, 0, 0, 2}, stageCounts(res.Funnel))
	require.Len(t, res.Diagnostics.Anomalies, 1)
	assert.Equal(t, types.AnomalyFunnelInversion, res.Diagnostics.Anomalies[0].Kind)
}

func TestOverlappingCallsFlagged(t *testing.T) {
	records := []types.CallRecord{
		call("Sam", "2025-09-02 09:00", types.StatusAnswered, "Not Interested", 600),
		call("Sam", "2025-09-02 09:01", types.StatusAnswered, "Not Interested", 60),
	}
	res := Analyze(records, types.Diagnostics{}, Options{})

	require.Len(t, res.Sessions, 1)
	assert.Equal(t, 600, res.Sessions[0].SessionSeconds)
	assert.Equal(t, 660, res.Sessions[0].TalkSeconds)
	assert.Equal(t, 100.0, res.Sessions[0].Efficiency.Value)
	require.Len(t, res.Diagnostics.Anomalies, 1)
	assert.Equal(t, types.AnomalyTalkExceedsSession, res.Diagnostics.Anomalies[0].Kind)
}

func TestOrderIndependence(t *testing.T) {
	records := mixedDataset()
	want := Analyze(records, types.Diagnostics{}, Options{})

	shuffled := append([]types.CallRecord(nil), records...)
	rand.New(rand.NewSource(7)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	got := Analyze(shuffled, types.Diagnostics{}, Options{})

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("shuffled input changed the result (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, Analyze(records, types.Diagnostics{}, Options{})); diff != "" {
		t.Errorf("second run differs (-want +got):\n%s", diff)
	}
}

func TestGroupedViews(t *testing.T) {
	res := Analyze(mixedDataset(), types.Diagnostics{}, Options{RingAllowanceSeconds: 10})

	assert.Equal(t, 1265+9*10, res.Summary.PhoneTimeSeconds)
	assert.Equal(t, 1, res.Summary.Incoming)

	require.Len(t, res.Agents, 3)
	assert.Equal(t, "Ana", res.Agents[0].Agent)
	assert.Equal(t, "Sam", res.Agents[1].Agent)
	assert.Equal(t, "Lee", res.Agents[2].Agent)
	assert.Equal(t, 1, res.Agents[0].Missed)
	assert.Equal(t, 1, res.Agents[0].Incoming)

	require.NotEmpty(t, res.AreaCodes)
	assert.Equal(t, fields.UnknownAreaCode, res.AreaCodes[0].AreaCode)
	assert.Equal(t, 6, res.AreaCodes[0].Calls)

	campaigns := map[string]types.CampaignRow{}
	for _, c := range res.Campaigns {
		campaigns[c.Campaign] = c
	}
	assert.Equal(t, 2, campaigns["Roofers"].Calls)
	assert.Equal(t, 1, campaigns["Roofers"].Interested)
	assert.Equal(t, 6, campaigns[fields.NoCampaign].Calls)

	require.Len(t, res.Sources, 2)
	assert.Equal(t, fields.SourcePowerDialer, res.Sources[0].Source)

	var dates []string
	for _, d := range res.Daily {
		dates = append(dates, d.Date)
	}
	assert.Equal(t, []string{"2025-09-01", "2025-09-02", "2025-09-03", "2025-09-06", "2025-09-09"}, dates)
	assert.Equal(t, "Monday", res.Daily[0].Weekday)

	assert.Equal(t, "Monday", res.Weekdays[0].Label)
	assert.Equal(t, "Saturday", res.Weekdays[len(res.Weekdays)-1].Label)
	assert.Equal(t, "08:00", res.Hourly[0].Label)

	require.Len(t, res.InterestedLeads, 2)
	assert.True(t, res.InterestedLeads[0].Timestamp.Before(res.InterestedLeads[1].Timestamp))
}

func TestWeeklyExcludesWeekends(t *testing.T) {
	res := Analyze(mixedDataset(), types.Diagnostics{}, Options{})

	require.Len(t, res.Weekly, 2)
	assert.Equal(t, "2025-09-01", res.Weekly[0].WeekStart)
	assert.Equal(t, "2025-09-05", res.Weekly[0].WeekEnd)
	assert.Equal(t, 3, res.Weekly[0].DaysWorked, "Saturday 09-06 is not counted")
	assert.Equal(t, "2025-09-08", res.Weekly[1].WeekStart)
	assert.Equal(t, 1, res.Weekly[1].DaysWorked)
	assert.Equal(t, 4, res.WeeklyTotal.DaysWorked)
	assert.Equal(t, res.Weekly[0].PhoneSeconds+res.Weekly[1].PhoneSeconds, res.WeeklyTotal.PhoneSeconds)
}

func TestSessionTotals(t *testing.T) {
	res := Analyze(mixedDataset(), types.Diagnostics{}, Options{})

	require.Len(t, res.SessionTotals, 3)
	assert.Equal(t, "Ana", res.SessionTotals[0].Agent)
	assert.Equal(t, 3, res.SessionTotals[0].Days)

	// Sam 09-01: 08:55 -> 13:05 + 300s
	sam := res.Sessions[len(res.Sessions)-2]
	assert.Equal(t, "Sam", sam.Agent)
	assert.Equal(t, "2025-09-01", sam.Date)
	assert.Equal(t, 4*3600+10*60+300, sam.SessionSeconds)
}

func TestEmptyInput(t *testing.T) {
	res := Analyze(nil, types.Diagnostics{RowsRead: 2, SkippedRows: 2}, Options{})

	assert.True(t, res.Summary.DateRange.Empty())
	assert.False(t, res.Summary.ConversionRate.Valid)
	assert.False(t, res.Funnel.DialsPerInterested.Valid)
	assert.Empty(t, res.Sessions)
	assert.Equal(t, 2, res.Diagnostics.SkippedRows)
	assert.Empty(t, res.Diagnostics.Anomalies)
}
