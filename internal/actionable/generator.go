package actionable

import (
	"fmt"

	"call-insights-go/internal/fields"
	"call-insights-go/internal/types"
)

type ActionCard struct {
	Insight string `json:"insight"`
	Action  string `json:"action"`
	Impact  string `json:"impact"`
}

type Options struct {
	// MinCalls is the sample size a slot needs before it can drive a card.
	MinCalls int
	// LowEfficiency flags agents whose talk share of session time is below
	// this percentage.
	LowEfficiency float64
	// HighVoicemail flags datasets where voicemail exceeds this share of dials.
	HighVoicemail float64
}

func DefaultOptions() Options {
	return Options{MinCalls: 3, LowEfficiency: 25, HighVoicemail: 50}
}

// Generate derives coaching hints from a finished analysis. It always
// returns at least one card.
func Generate(res types.AnalysisResult, opts Options) []ActionCard {
	var cards []ActionCard
	for _, rule := range []func(types.AnalysisResult, Options) (ActionCard, bool){
		bestHour,
		weakestAreaCode,
		lowEfficiencyAgent,
		voicemailHeavy,
	} {
		if c, ok := rule(res, opts); ok {
			cards = append(cards, c)
		}
	}
	if len(cards) == 0 {
		cards = append(cards, ActionCard{
			Insight: "No strong calling pattern detected",
			Action:  "Monitor and collect more data",
			Impact:  "Low immediate intervention",
		})
	}
	return cards
}

func bestHour(res types.AnalysisResult, opts Options) (ActionCard, bool) {
	var best *types.TimeSlotRow
	for i := range res.Hourly {
		h := &res.Hourly[i]
		if h.Calls < opts.MinCalls || !h.LiveRate.Valid {
			continue
		}
		if best == nil || h.LiveRate.Value > best.LiveRate.Value {
			best = h
		}
	}
	overall := res.Summary.LiveAnswerRate
	if best == nil || !overall.Valid || best.LiveRate.Value <= overall.Value {
		return ActionCard{}, false
	}
	return ActionCard{
		Insight: fmt.Sprintf("Live answer rate peaks at %s (%s over %d calls vs %s overall)",
			best.Label, best.LiveRate, best.Calls, overall),
		Action: fmt.Sprintf("Schedule power dialing blocks around %s", best.Label),
		Impact: "More live conversations per dial",
	}, true
}

func weakestAreaCode(res types.AnalysisResult, opts Options) (ActionCard, bool) {
	var worst *types.AreaCodeRow
	for i := range res.AreaCodes {
		a := &res.AreaCodes[i]
		if a.AreaCode == fields.UnknownAreaCode || a.Calls < opts.MinCalls || !a.LiveRate.Valid {
			continue
		}
		if worst == nil || a.LiveRate.Value < worst.LiveRate.Value {
			worst = a
		}
	}
	overall := res.Summary.LiveAnswerRate
	if worst == nil || !overall.Valid || worst.LiveRate.Value >= overall.Value {
		return ActionCard{}, false
	}
	return ActionCard{
		Insight: fmt.Sprintf("Area code %s connects live on %s of %d calls vs %s overall",
			worst.AreaCode, worst.LiveRate, worst.Calls, overall),
		Action: fmt.Sprintf("Move %s numbers to a different time block or lower their list priority", worst.AreaCode),
		Impact: "Fewer wasted dials on a low-contact region",
	}, true
}

func lowEfficiencyAgent(res types.AnalysisResult, opts Options) (ActionCard, bool) {
	var low *types.AgentSessionTotal
	for i := range res.SessionTotals {
		s := &res.SessionTotals[i]
		if !s.Efficiency.Valid || s.Efficiency.Value >= opts.LowEfficiency {
			continue
		}
		if low == nil || s.Efficiency.Value < low.Efficiency.Value {
			low = s
		}
	}
	if low == nil {
		return ActionCard{}, false
	}
	return ActionCard{
		Insight: fmt.Sprintf("%s spends %s of dialer session time talking across %d days",
			low.Agent, low.Efficiency, low.Days),
		Action: fmt.Sprintf("Review %s's gaps between calls and list quality", low.Agent),
		Impact: "Recover idle session time",
	}, true
}

func voicemailHeavy(res types.AnalysisResult, opts Options) (ActionCard, bool) {
	s := res.Summary
	share := types.Percent(s.Voicemail, s.TotalCalls)
	if s.TotalCalls < opts.MinCalls || !share.Valid || share.Value <= opts.HighVoicemail {
		return ActionCard{}, false
	}
	return ActionCard{
		Insight: fmt.Sprintf("%s of dials end in voicemail (%d of %d)", share, s.Voicemail, s.TotalCalls),
		Action:  "Test a shorter voicemail drop and a second attempt later the same day",
		Impact:  "Convert voicemail reach into callbacks",
	}, true
}
