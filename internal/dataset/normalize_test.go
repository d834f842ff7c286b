package dataset

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"call-insights-go/internal/fields"
	"call-insights-go/internal/types"
)

func row(line int, kv map[string]string) Row {
	base := map[string]string{
		ColDate:        "09/02/2025, 10:15 AM",
		ColAgent:       "Sam",
		ColType:        "Outgoing",
		ColStatus:      "Answered",
		ColDisposition: "Interested",
		ColDuration:    "2:05",
		ColSource:      "PowerDialer",
	}
	for k, v := range kv {
		base[k] = v
	}
	return NewRow(line, base)
}

func TestNormalizeFullRow(t *testing.T) {
	n := NewNormalizer(nil)
	rec, err := n.Normalize(row(2, map[string]string{
		ColSourceLink:   "Q3 Roofers",
		ColCRMLink:      "https://crm.example/c/1",
		ColCRMContactID: "C-1",
		ColToNumber:     "+1 (312) 555-0100",
	}))
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 9, 2, 10, 15, 0, 0, time.UTC), rec.Timestamp)
	assert.Equal(t, "Sam", rec.Agent)
	assert.Equal(t, types.DirectionOutgoing, rec.Direction)
	assert.Equal(t, types.StatusAnswered, rec.Status)
	assert.Equal(t, types.DispositionInterested, rec.Disposition.Kind)
	assert.Equal(t, 125, rec.Duration)
	assert.Equal(t, "Q3 Roofers", rec.Campaign)
	assert.Equal(t, "C-1", rec.CRMContactID)
	assert.Equal(t, "3125550100", rec.ToNumber)
	assert.Equal(t, "312", rec.AreaCode)
	assert.Equal(t, "2025-09-02", rec.Date())
	assert.Empty(t, n.Defaulted())
}

func TestNormalizeSkipsBadTimestamp(t *testing.T) {
	n := NewNormalizer(nil)
	_, err := n.Normalize(row(7, map[string]string{ColDate: "yesterday"}))
	require.Error(t, err)

	var se *SkipError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 7, se.Line)

	var pe *fields.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, fields.BadTimestamp, pe.Kind)
}

func TestNormalizeDefaultsOtherFields(t *testing.T) {
	n := NewNormalizer(nil)
	rec, err := n.Normalize(row(3, map[string]string{
		ColAgent:       "",
		ColType:        "Transfer",
		ColDisposition: "",
		ColDuration:    "ten minutes",
		ColSource:      "",
		ColToNumber:    "555-1234",
	}))
	require.NoError(t, err)

	assert.Equal(t, fields.UnknownAgent, rec.Agent)
	assert.Equal(t, types.DirectionOutgoing, rec.Direction)
	assert.Equal(t, types.DispositionNone, rec.Disposition.Kind)
	assert.Equal(t, 0, rec.Duration)
	assert.Equal(t, fields.SourceUnknown, rec.Source)
	assert.Empty(t, rec.AreaCode)

	assert.Equal(t, map[string]int{
		FieldAgent:       1,
		FieldDirection:   1,
		FieldDisposition: 1,
		FieldDuration:    1,
		FieldSource:      1,
		FieldAreaCode:    1,
	}, n.Defaulted())
}

func TestNormalizeAll(t *testing.T) {
	rows := []Row{
		row(2, nil),
		row(3, map[string]string{ColDate: ""}),
		row(4, map[string]string{ColDate: "09/03/2025, 01:00 PM"}),
	}
	records, diag := NewNormalizer(nil).NormalizeAll(rows)

	require.Len(t, records, 2)
	assert.Equal(t, 2, records[0].Line)
	assert.Equal(t, 4, records[1].Line)
	assert.Equal(t, 3, diag.RowsRead)
	assert.Equal(t, 1, diag.SkippedRows)
	require.Len(t, diag.Skipped, 1)
	assert.Equal(t, 3, diag.Skipped[0].Line)
	assert.Equal(t, string(fields.BadTimestamp), diag.Skipped[0].Reason)
}
