package fields

import (
	"fmt"
	"strings"

	"call-insights-go/internal/types"
)

// UnknownDisposition labels rows exported without a disposition.
const UnknownDisposition = "Unknown"

var knownDispositions = map[string]types.DispositionKind{
	"voicemail":       types.DispositionVoicemail,
	"interested":      types.DispositionInterested,
	"not interested":  types.DispositionNotInterested,
	"bad number":      types.DispositionBadNumber,
	"no call outcome": types.DispositionNoCallOutcome,
	"no outcome":      types.DispositionNoCallOutcome,
}

var canonicalLabels = map[types.DispositionKind]string{
	types.DispositionVoicemail:     "Voicemail",
	types.DispositionInterested:    "Interested",
	types.DispositionNotInterested: "Not Interested",
	types.DispositionBadNumber:     "Bad Number",
	types.DispositionNoCallOutcome: "No Call Outcome",
}

// Taxonomy maps disposition labels onto kinds. Aliases let an account
// teach it site-specific labels ("Left Message" -> Voicemail).
type Taxonomy struct {
	aliases map[string]types.DispositionKind
}

// DefaultTaxonomy knows only the built-in labels.
func DefaultTaxonomy() *Taxonomy {
	return &Taxonomy{aliases: map[string]types.DispositionKind{}}
}

// NewTaxonomy builds a taxonomy from label -> known label aliases.
func NewTaxonomy(aliases map[string]string) (*Taxonomy, error) {
	t := DefaultTaxonomy()
	for label, target := range aliases {
		kind, ok := knownDispositions[key(target)]
		if !ok {
			return nil, fmt.Errorf("alias %q: unknown target disposition %q", label, target)
		}
		t.aliases[key(label)] = kind
	}
	return t, nil
}

func key(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Parse classifies a raw disposition. Known labels are returned in their
// canonical spelling unless an alias overrides them; aliases and unseen
// labels keep the literal text.
// ok is false only for an empty value.
func (t *Taxonomy) Parse(raw string) (types.Disposition, bool) {
	label := strings.Join(strings.Fields(raw), " ")
	if label == "" {
		return types.Disposition{Kind: types.DispositionNone, Label: UnknownDisposition}, false
	}
	k := key(label)
	// aliases may remap a built-in label
	if t != nil {
		if kind, ok := t.aliases[k]; ok {
			return types.Disposition{Kind: kind, Label: label}, true
		}
	}
	if kind, ok := knownDispositions[k]; ok {
		return types.Disposition{Kind: kind, Label: canonicalLabels[kind]}, true
	}
	return types.Disposition{Kind: types.DispositionOther, Label: label}, true
}

// CategoryOf is the semantic category a disposition carries when the call
// was answered.
func CategoryOf(d types.Disposition) types.Category {
	switch d.Kind {
	case types.DispositionVoicemail:
		return types.CategoryVoicemail
	case types.DispositionInterested:
		return types.CategoryConverted
	case types.DispositionNotInterested, types.DispositionOther:
		return types.CategoryLive
	}
	return types.CategoryNone
}

// Classify is the single place deciding what a call counts as. Funnel,
// live-answer and conversion figures all derive from it.
func Classify(status types.Status, d types.Disposition) types.Outcome {
	cat := CategoryOf(d)
	answered := status.Answered()
	return types.Outcome{
		Connected:     answered,
		Live:          answered && (cat == types.CategoryLive || cat == types.CategoryConverted),
		Voicemail:     cat == types.CategoryVoicemail,
		Interested:    d.Kind == types.DispositionInterested,
		NotInterested: d.Kind == types.DispositionNotInterested,
	}
}
