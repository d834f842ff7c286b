// Package report renders an AnalysisResult as the plain-text multi-section
// call report.
package report

import (
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"call-insights-go/internal/actionable"
	"call-insights-go/internal/fields"
	"call-insights-go/internal/types"
)

const (
	ruleWidth       = 80
	campaignNameMax = 35
)

type Options struct {
	AreaCodeMinCalls int
	AreaCodeTopN     int
	CampaignMinCalls int
	// Actions, when present, are printed after the funnel.
	Actions []actionable.ActionCard
}

func DefaultOptions() Options {
	return Options{AreaCodeMinCalls: 3, AreaCodeTopN: 20, CampaignMinCalls: 2}
}

// writer keeps the first write error so sections can be emitted without
// checking every line.
type writer struct {
	out io.Writer
	p   *message.Printer
	err error
}

func (w *writer) printf(format string, args ...any) {
	if w.err != nil {
		return
	}
	_, w.err = w.p.Fprintf(w.out, format, args...)
}

func (w *writer) section(title string) {
	w.printf("\n%s\n%s\n%s\n", strings.Repeat("=", ruleWidth), title, strings.Repeat("=", ruleWidth))
}

// table writes tab-separated rows aligned into columns.
func (w *writer) table(header string, rows func(t *writer)) {
	if w.err != nil {
		return
	}
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	t := &writer{out: tw, p: w.p}
	t.printf("%s\n", header)
	rows(t)
	if t.err != nil {
		w.err = t.err
		return
	}
	w.err = tw.Flush()
}

// Write renders every section of the report.
func Write(out io.Writer, res types.AnalysisResult, opts Options) error {
	w := &writer{out: out, p: message.NewPrinter(language.English)}

	header(w, res)
	summary(w, res)
	weekly(w, res)
	daily(w, res)
	conversion(w, res)
	timeOfDay(w, res)
	sources(w, res)
	areaCodes(w, res, opts)
	funnel(w, res)
	if len(opts.Actions) > 0 {
		actions(w, opts.Actions)
	}
	campaigns(w, res, opts)
	agents(w, res)
	sessions(w, res)
	dispositions(w, res)
	leads(w, res)
	diagnostics(w, res)
	return w.err
}

func dur(seconds int) string { return fields.FormatDuration(seconds) }

func header(w *writer, res types.AnalysisResult) {
	w.printf("%s\nCALL DATA ANALYSIS REPORT\n%s\n", strings.Repeat("=", ruleWidth), strings.Repeat("=", ruleWidth))
	if dr := res.Summary.DateRange; !dr.Empty() {
		w.printf("Date Range: %s - %s (%d days)\n",
			dr.Start.Format("January 02, 2006"), dr.End.Format("January 02, 2006"), dr.Days)
	}
	w.printf("Total Records: %d\n", res.Summary.TotalCalls)
}

func summary(w *writer, res types.AnalysisResult) {
	s := res.Summary
	w.section("OVERALL SUMMARY")
	w.printf("Total Calls: %d\n", s.TotalCalls)
	w.printf("Total Duration: %s\n", dur(s.TotalDurationSeconds))
	w.printf("Answered: %d (%s)\n", s.Answered, s.AnswerRate)
	w.printf("Missed: %d (%s)\n", s.Missed, s.MissedRate)
	w.printf("Outgoing: %d (%s)\n", s.Outgoing, s.OutgoingRate)
	w.printf("Incoming: %d (%s)\n", s.Incoming, s.IncomingRate)
	if s.Answered > 0 {
		w.printf("Avg Duration (answered): %s\n", dur(s.AvgAnsweredDuration))
	}
	w.printf("Total Time on Phones: %s (%.2f hours)\n", dur(s.PhoneTimeSeconds), hours(s.PhoneTimeSeconds))
	if s.RingAllowanceSeconds > 0 {
		w.printf("  includes %ds ring allowance per call\n", s.RingAllowanceSeconds)
	}
	w.printf("Dialer Session Time: %s (%.2f hours)\n", dur(s.DialerSessionSeconds), hours(s.DialerSessionSeconds))
}

func hours(seconds int) float64 { return float64(seconds) / 3600 }

func weekly(w *writer, res types.AnalysisResult) {
	w.section("WEEKLY HOURS ON PHONES (Mon-Fri)")
	w.table("Week\tDays\tPhone Time\tTalk Time\tEfficiency", func(t *writer) {
		for _, r := range res.Weekly {
			t.printf("%s-%s\t%d\t%s\t%s\t%s\n", shortDate(r.WeekStart), shortDate(r.WeekEnd),
				r.DaysWorked, dur(r.PhoneSeconds), dur(r.TalkSeconds), r.Efficiency)
		}
		tot := res.WeeklyTotal
		t.printf("%s\t%d\t%s\t%s\t%s\n", tot.WeekStart, tot.DaysWorked,
			dur(tot.PhoneSeconds), dur(tot.TalkSeconds), tot.Efficiency)
	})
}

// shortDate turns 2025-09-01 into 09/01.
func shortDate(iso string) string {
	if len(iso) != len(types.DateLayout) {
		return iso
	}
	return iso[5:7] + "/" + iso[8:10]
}

func daily(w *writer, res types.AnalysisResult) {
	w.section("DAILY CALL HOURS BREAKDOWN")
	w.table("Date\tDay\tCalls\tDuration\tHours", func(t *writer) {
		var hrs float64
		for _, d := range res.Daily {
			hrs += d.Hours
			t.printf("%s\t%s\t%d\t%s\t%.2f\n", d.Date, abbrev(d.Weekday), d.Calls, dur(d.DurationSeconds), d.Hours)
		}
		t.printf("TOTAL\t\t%d\t%s\t%.2f\n", res.Summary.TotalCalls, dur(res.Summary.TotalDurationSeconds), hrs)
	})
}

func abbrev(day string) string {
	if len(day) > 3 {
		return day[:3]
	}
	return day
}

func conversion(w *writer, res types.AnalysisResult) {
	w.section("CONVERSION RATE TRACKING")
	w.printf("Total 'Interested' Outcomes: %d\n", res.Summary.Interested)
	w.printf("Overall Conversion Rate: %s\n", res.Summary.ConversionRate)
	w.printf("\nConversion Rate by Date:\n")
	for _, d := range res.Daily {
		w.printf("  %s: %d calls, %s conversion", d.Date, d.Calls, d.ConversionRate)
		if d.Interested > 0 {
			w.printf(" -> %d interested", d.Interested)
		}
		w.printf("\n")
	}
}

func timeOfDay(w *writer, res types.AnalysisResult) {
	w.section("TIME-OF-DAY ANALYSIS")
	slots := func(title string, rows []types.TimeSlotRow) {
		w.printf("\n%s:\n", title)
		w.table("Slot\tCalls\tLive Answer\tLive %\tInterested", func(t *writer) {
			for _, r := range rows {
				t.printf("%s\t%d\t%d\t%s\t%d\n", r.Label, r.Calls, r.Live, r.LiveRate, r.Interested)
			}
		})
	}
	slots("By Hour", res.Hourly)
	slots("By Day of Week", res.Weekdays)
}

func sources(w *writer, res types.AnalysisResult) {
	w.section("SOURCE EFFECTIVENESS")
	w.table("Source\tCalls\tInterested\tConv %\tVM Rate", func(t *writer) {
		for _, s := range res.Sources {
			t.printf("%s\t%d\t%d\t%s\t%s\n", s.Source, s.Calls, s.Interested, s.ConversionRate, s.VoicemailRate)
		}
	})
}

func areaCodes(w *writer, res types.AnalysisResult, opts Options) {
	w.section("CONTACT RATE (LIVE ANSWER) BY AREA CODE")
	w.table("Area Code\tTotal\tLive Answer\tLive %\tVoicemail %", func(t *writer) {
		for i, a := range res.AreaCodes {
			if i >= opts.AreaCodeTopN {
				break
			}
			if a.Calls < opts.AreaCodeMinCalls {
				continue
			}
			t.printf("%s\t%d\t%d\t%s\t%s\n", a.AreaCode, a.Calls, a.Live, a.LiveRate, a.VoicemailRate)
		}
	})
}

func funnel(w *writer, res types.AnalysisResult) {
	f := res.Funnel
	w.section("CALLS-TO-CONVERSION FUNNEL")
	w.table("Stage\tCount\t% of Dials", func(t *writer) {
		for i, s := range f.Stages {
			indent := ""
			if i > 0 {
				indent = "  -> "
			}
			t.printf("%s%s\t%d\t%s\n", indent, s.Name, s.Count, s.PctOfDials)
		}
	})
	if !f.DialsPerInterested.Valid {
		w.printf("\nNo interested leads yet\n")
		return
	}
	w.printf("\nDials per Interested Lead: %.1f:1\n", f.DialsPerInterested.Value)
	w.printf("Live Conversations per Interested: %.1f:1\n", f.LivePerInterested.Value)
}

func actions(w *writer, cards []actionable.ActionCard) {
	w.section("RECOMMENDED ACTIONS")
	for i, c := range cards {
		w.printf("%d. %s\n   Action: %s\n   Impact: %s\n", i+1, c.Insight, c.Action, c.Impact)
	}
}

func campaigns(w *writer, res types.AnalysisResult, opts Options) {
	w.section("CAMPAIGN PERFORMANCE")
	w.table("Campaign\tCalls\tInt.\tConv%\tVM%\tAvg Dur", func(t *writer) {
		for _, c := range res.Campaigns {
			if c.Calls < opts.CampaignMinCalls {
				continue
			}
			t.printf("%s\t%d\t%d\t%s\t%s\t%s\n", truncate(c.Campaign, campaignNameMax),
				c.Calls, c.Interested, c.ConversionRate, c.VoicemailRate, dur(c.AvgDuration))
		}
	})
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-2]) + ".."
}

func agents(w *writer, res types.AnalysisResult) {
	w.section("CALL OWNERS (AGENTS)")
	for _, a := range res.Agents {
		w.printf("\n--- %s ---\n", a.Agent)
		w.printf("  Total Calls: %d\n", a.Calls)
		w.printf("  Total Duration: %s\n", dur(a.DurationSeconds))
		if a.Answered > 0 {
			w.printf("  Avg Duration (answered): %s\n", dur(a.AvgAnsweredDuration))
		}
		w.printf("  Call Types: Outgoing %d, Incoming %d\n", a.Outgoing, a.Incoming)
		w.printf("  Statuses: %s\n", joinCounts(w.p, a.Statuses))
		w.printf("  Live Answer: %s  Conversion: %s\n", a.LiveAnswerRate, a.ConversionRate)
		w.printf("  Top Dispositions:\n")
		for _, d := range a.TopDispositions {
			w.printf("    - %s: %d\n", d.Label, d.Count)
		}
	}
}

func joinCounts(p *message.Printer, counts []types.LabelCount) string {
	parts := make([]string, 0, len(counts))
	for _, c := range counts {
		parts = append(parts, p.Sprintf("%s %d", c.Label, c.Count))
	}
	return strings.Join(parts, ", ")
}

func sessions(w *writer, res types.AnalysisResult) {
	w.section("AGENT DIALER SESSION TIME")
	w.printf("Time spent on dialer = Last call time + duration - First call time\n")

	byAgent := map[string][]types.AgentDaySession{}
	for _, s := range res.Sessions {
		byAgent[s.Agent] = append(byAgent[s.Agent], s)
	}
	for _, tot := range res.SessionTotals {
		w.printf("\n--- %s ---\n", tot.Agent)
		w.table("Date\tFirst Call\tLast Call\tSession Time\tTalk Time\tEfficiency", func(t *writer) {
			for _, s := range byAgent[tot.Agent] {
				t.printf("%s\t%s\t%s\t%s\t%s\t%s\n", s.Date, s.FirstCall.Format("03:04 PM"),
					s.LastCall.Format("03:04 PM"), dur(s.SessionSeconds), dur(s.TalkSeconds), s.Efficiency)
			}
			t.printf("TOTAL\t\t\t%s\t%s\t%s\n", dur(tot.SessionSeconds), dur(tot.TalkSeconds), tot.Efficiency)
		})
		w.printf("Total Dialer Time: %s (%.2f hours)\n", dur(tot.SessionSeconds), hours(tot.SessionSeconds))
		w.printf("Total Talk Time:   %s (%.2f hours)\n", dur(tot.TalkSeconds), hours(tot.TalkSeconds))
	}
}

func dispositions(w *writer, res types.AnalysisResult) {
	w.section("CALLS BY DISPOSITION")
	for _, d := range res.Dispositions {
		w.printf("%s:\n", d.Label)
		w.printf("  Count: %d (%s)\n", d.Calls, d.Share)
		w.printf("  Total Duration: %s\n", dur(d.DurationSeconds))
		w.printf("  Avg Duration: %s\n", dur(d.AvgDuration))
	}
}

func leads(w *writer, res types.AnalysisResult) {
	w.section("INTERESTED LEADS SUMMARY")
	if len(res.InterestedLeads) == 0 {
		w.printf("No interested leads in this dataset.\n")
		return
	}
	w.printf("Total Interested Leads: %d\n\n", len(res.InterestedLeads))
	w.table("Date\tPhone Number\tDuration\tCRM Link", func(t *writer) {
		for _, l := range res.InterestedLeads {
			t.printf("%s\t%s\t%s\t%s\n", l.RawDate, orDefault(l.ToNumber, "N/A"),
				dur(l.DurationSeconds), orDefault(l.CRMLink, "No CRM Link"))
		}
	})
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func diagnostics(w *writer, res types.AnalysisResult) {
	d := res.Diagnostics
	w.section("DIAGNOSTICS")
	w.printf("Rows read: %d\n", d.RowsRead)
	w.printf("Rows skipped: %d\n", d.SkippedRows)
	for _, s := range d.Skipped {
		w.printf("  line %d: %s (%q)\n", s.Line, s.Reason, s.Value)
	}
	if len(d.DefaultedFields) > 0 {
		w.printf("Defaulted fields:\n")
		keys := make([]string, 0, len(d.DefaultedFields))
		for k := range d.DefaultedFields {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			w.printf("  %s: %d\n", k, d.DefaultedFields[k])
		}
	}
	if len(d.Anomalies) == 0 {
		w.printf("Anomalies: none\n")
		return
	}
	w.printf("Anomalies:\n")
	for _, a := range d.Anomalies {
		scope := ""
		if a.Agent != "" {
			scope = " [" + a.Agent + " " + a.Date + "]"
		}
		w.printf("  %s%s: %s\n", a.Kind, scope, a.Message)
	}
}
