package dataset

import (
	"errors"
	"fmt"
	"strings"

	"call-insights-go/internal/fields"
	"call-insights-go/internal/types"
)

// maxSkippedSamples bounds how many skipped rows are kept verbatim.
const maxSkippedSamples = 50

// Defaulted field names used as Diagnostics.DefaultedFields keys.
const (
	FieldAgent       = "agent"
	FieldDirection   = "direction"
	FieldStatus      = "status"
	FieldDisposition = "disposition"
	FieldDuration    = "duration"
	FieldSource      = "source"
	FieldAreaCode    = "area_code"
)

// SkipError reports a row that cannot join the aggregation.
type SkipError struct {
	Line   int
	Reason string
	Err    error
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("line %d skipped: %s: %v", e.Line, e.Reason, e.Err)
}

func (e *SkipError) Unwrap() error { return e.Err }

type Normalizer struct {
	taxonomy  *fields.Taxonomy
	defaulted map[string]int
}

func NewNormalizer(tax *fields.Taxonomy) *Normalizer {
	if tax == nil {
		tax = fields.DefaultTaxonomy()
	}
	return &Normalizer{taxonomy: tax, defaulted: map[string]int{}}
}

// Normalize maps one raw row onto a CallRecord. Only an unusable timestamp
// rejects the row; every other problem falls back to a default and is
// counted.
func (n *Normalizer) Normalize(row Row) (types.CallRecord, error) {
	rawDate := row.Get(ColDate)
	ts, err := fields.ParseTimestamp(rawDate)
	if err != nil {
		return types.CallRecord{}, &SkipError{Line: row.Line, Reason: string(fields.BadTimestamp), Err: err}
	}

	rec := types.CallRecord{
		Line:         row.Line,
		Timestamp:    ts,
		RawDate:      strings.Trim(strings.TrimSpace(rawDate), `"`),
		Agent:        strings.TrimSpace(row.Get(ColAgent)),
		Status:       fields.ParseStatus(row.Get(ColStatus)),
		RawDuration:  strings.TrimSpace(row.Get(ColDuration)),
		Campaign:     strings.TrimSpace(row.Get(ColSourceLink)),
		CRMLink:      strings.TrimSpace(row.Get(ColCRMLink)),
		CRMContactID: strings.TrimSpace(row.Get(ColCRMContactID)),
		RawToNumber:  strings.TrimSpace(row.Get(ColToNumber)),
	}

	if rec.Agent == "" {
		rec.Agent = fields.UnknownAgent
		n.defaulted[FieldAgent]++
	}
	if rec.Status == "" {
		n.defaulted[FieldStatus]++
	}

	var ok bool
	if rec.Direction, ok = fields.ParseDirection(row.Get(ColType)); !ok {
		n.defaulted[FieldDirection]++
	}
	if rec.Disposition, ok = n.taxonomy.Parse(row.Get(ColDisposition)); !ok {
		n.defaulted[FieldDisposition]++
	}
	if rec.Source, ok = fields.ParseSource(row.Get(ColSource)); !ok {
		n.defaulted[FieldSource]++
	}
	if rec.Duration, err = fields.ParseDuration(rec.RawDuration); err != nil {
		rec.Duration = 0
		n.defaulted[FieldDuration]++
	}

	rec.ToNumber = fields.NormalizePhone(rec.RawToNumber)
	if code, ok := fields.AreaCode(rec.RawToNumber); ok {
		rec.AreaCode = code
	} else {
		n.defaulted[FieldAreaCode]++
	}
	return rec, nil
}

// Defaulted returns a copy of the per-field fallback counters.
func (n *Normalizer) Defaulted() map[string]int {
	out := make(map[string]int, len(n.defaulted))
	for k, v := range n.defaulted {
		out[k] = v
	}
	return out
}

// NormalizeAll runs every row through the normalizer, preserving input
// order, and reports what was skipped or defaulted.
func (n *Normalizer) NormalizeAll(rows []Row) ([]types.CallRecord, types.Diagnostics) {
	diag := types.Diagnostics{RowsRead: len(rows)}
	records := make([]types.CallRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := n.Normalize(row)
		if err != nil {
			diag.SkippedRows++
			var se *SkipError
			if errors.As(err, &se) && len(diag.Skipped) < maxSkippedSamples {
				diag.Skipped = append(diag.Skipped, types.SkippedRow{
					Line:   se.Line,
					Reason: se.Reason,
					Value:  row.Get(ColDate),
				})
			}
			continue
		}
		records = append(records, rec)
	}
	diag.DefaultedFields = n.Defaulted()
	return records, diag
}
