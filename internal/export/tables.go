// Package export writes an AnalysisResult as flat tables: one CSV file per
// table, or one XLSX workbook with a sheet per table.
package export

import (
	"math"

	"call-insights-go/internal/fields"
	"call-insights-go/internal/types"
)

// Table is one exported view. Cells hold string, int or float64.
type Table struct {
	Name   string
	Sheet  string
	Header []string
	Rows   [][]any
}

// Tables lists the nine exported views in file order.
func Tables(res types.AnalysisResult) []Table {
	return []Table{
		summaryTable(res),
		dailyTable(res),
		dispositionTable(res),
		sourceTable(res),
		campaignTable(res),
		areaCodeTable(res),
		agentTable(res),
		leadTable(res),
		sessionTable(res),
	}
}

// pct rounds a rate to one decimal; an undefined rate exports as an empty
// cell.
func pct(r types.Rate) any {
	if !r.Valid {
		return ""
	}
	return math.Round(r.Value*10) / 10
}

func hours(seconds int) float64 {
	return math.Round(float64(seconds)/36) / 100
}

func summaryTable(res types.AnalysisResult) Table {
	s := res.Summary
	t := Table{Name: "summary", Sheet: "Summary", Header: []string{"Metric", "Value"}}
	if !s.DateRange.Empty() {
		t.Rows = append(t.Rows,
			[]any{"Date Range Start", s.DateRange.Start.Format(types.DateLayout)},
			[]any{"Date Range End", s.DateRange.End.Format(types.DateLayout)},
			[]any{"Days", s.DateRange.Days},
		)
	}
	t.Rows = append(t.Rows,
		[]any{"Total Calls", s.TotalCalls},
		[]any{"Total Duration (seconds)", s.TotalDurationSeconds},
		[]any{"Answered", s.Answered},
		[]any{"Missed", s.Missed},
		[]any{"Outgoing", s.Outgoing},
		[]any{"Incoming", s.Incoming},
		[]any{"Live Conversations", s.LiveConversations},
		[]any{"Voicemail", s.Voicemail},
		[]any{"Interested", s.Interested},
		[]any{"Not Interested", s.NotInterested},
		[]any{"Talk Time (seconds)", s.TalkSeconds},
		[]any{"Phone Time (seconds)", s.PhoneTimeSeconds},
		[]any{"Dialer Session Time (seconds)", s.DialerSessionSeconds},
		[]any{"Answer Rate %", pct(s.AnswerRate)},
		[]any{"Live Answer Rate %", pct(s.LiveAnswerRate)},
		[]any{"Conversion Rate %", pct(s.ConversionRate)},
		[]any{"Rows Skipped", res.Diagnostics.SkippedRows},
		[]any{"Anomalies", len(res.Diagnostics.Anomalies)},
	)
	return t
}

func dailyTable(res types.AnalysisResult) Table {
	t := Table{Name: "daily", Sheet: "Daily", Header: []string{
		"Date", "Day", "Calls", "Duration_Seconds", "Duration_Formatted", "Hours",
		"Answered", "Live", "Interested", "Conversion_Rate",
	}}
	for _, d := range res.Daily {
		t.Rows = append(t.Rows, []any{
			d.Date, d.Weekday, d.Calls, d.DurationSeconds, fields.FormatDuration(d.DurationSeconds),
			hours(d.DurationSeconds), d.Answered, d.Live, d.Interested, pct(d.ConversionRate),
		})
	}
	return t
}

func dispositionTable(res types.AnalysisResult) Table {
	t := Table{Name: "dispositions", Sheet: "Dispositions", Header: []string{
		"Disposition", "Category", "Count", "Percentage", "Total_Duration_Seconds", "Avg_Duration_Seconds",
	}}
	for _, d := range res.Dispositions {
		t.Rows = append(t.Rows, []any{
			d.Label, string(d.Category), d.Calls, pct(d.Share), d.DurationSeconds, d.AvgDuration,
		})
	}
	return t
}

func sourceTable(res types.AnalysisResult) Table {
	t := Table{Name: "sources", Sheet: "Sources", Header: []string{
		"Source", "Calls", "Answered", "Live", "Interested", "Conversion_Rate", "Voicemail_Rate",
	}}
	for _, s := range res.Sources {
		t.Rows = append(t.Rows, []any{
			s.Source, s.Calls, s.Answered, s.Live, s.Interested, pct(s.ConversionRate), pct(s.VoicemailRate),
		})
	}
	return t
}

func campaignTable(res types.AnalysisResult) Table {
	t := Table{Name: "campaigns", Sheet: "Campaigns", Header: []string{
		"Campaign", "Calls", "Interested", "Not_Interested", "Conversion_Rate", "Voicemail_Rate", "Avg_Duration_Seconds",
	}}
	for _, c := range res.Campaigns {
		t.Rows = append(t.Rows, []any{
			c.Campaign, c.Calls, c.Interested, c.NotInterested, pct(c.ConversionRate), pct(c.VoicemailRate), c.AvgDuration,
		})
	}
	return t
}

func areaCodeTable(res types.AnalysisResult) Table {
	t := Table{Name: "area_codes", Sheet: "Area Codes", Header: []string{
		"Area_Code", "Total_Calls", "Live_Answers", "Live_Answer_Rate", "Voicemail_Rate",
	}}
	for _, a := range res.AreaCodes {
		t.Rows = append(t.Rows, []any{a.AreaCode, a.Calls, a.Live, pct(a.LiveRate), pct(a.VoicemailRate)})
	}
	return t
}

func agentTable(res types.AnalysisResult) Table {
	t := Table{Name: "agents", Sheet: "Agents", Header: []string{
		"Agent", "Total_Calls", "Total_Duration_Seconds", "Answered", "Missed", "Incoming", "Outgoing",
		"Live", "Interested", "Conversion_Rate",
	}}
	for _, a := range res.Agents {
		t.Rows = append(t.Rows, []any{
			a.Agent, a.Calls, a.DurationSeconds, a.Answered, a.Missed, a.Incoming, a.Outgoing,
			a.Live, a.Interested, pct(a.ConversionRate),
		})
	}
	return t
}

func leadTable(res types.AnalysisResult) Table {
	t := Table{Name: "interested_leads", Sheet: "Interested Leads", Header: []string{
		"Date", "Agent", "Phone_Number", "Duration", "CRM_Contact_ID", "CRM_Link", "Campaign",
	}}
	for _, l := range res.InterestedLeads {
		raw := l.RawDuration
		if raw == "" {
			raw = fields.FormatDuration(l.DurationSeconds)
		}
		t.Rows = append(t.Rows, []any{l.RawDate, l.Agent, l.ToNumber, raw, l.CRMContactID, l.CRMLink, l.Campaign})
	}
	return t
}

func sessionTable(res types.AnalysisResult) Table {
	t := Table{Name: "agent_sessions", Sheet: "Agent Sessions", Header: []string{
		"Agent", "Date", "First_Call", "Last_Call", "Session_Seconds", "Session_Formatted",
		"Talk_Seconds", "Talk_Formatted", "Efficiency_Pct",
	}}
	for _, s := range res.Sessions {
		t.Rows = append(t.Rows, []any{
			s.Agent, s.Date, s.FirstCall.Format("03:04 PM"), s.LastCall.Format("03:04 PM"),
			s.SessionSeconds, fields.FormatDuration(s.SessionSeconds),
			s.TalkSeconds, fields.FormatDuration(s.TalkSeconds), pct(s.Efficiency),
		})
	}
	return t
}
