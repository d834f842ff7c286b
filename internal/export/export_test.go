package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"call-insights-go/internal/aggregator"
	"call-insights-go/internal/fields"
	"call-insights-go/internal/types"
)

func result() types.AnalysisResult {
	d := func(s string) types.Disposition {
		v, _ := fields.DefaultTaxonomy().Parse(s)
		return v
	}
	at := func(hh, mm int) time.Time { return time.Date(2025, 9, 2, hh, mm, 0, 0, time.UTC) }
	records := []types.CallRecord{
		{Timestamp: at(9, 0), Agent: "Sam", Status: types.StatusAnswered, Disposition: d("Voicemail"),
			Duration: 120, Source: fields.SourcePowerDialer},
		{Timestamp: at(9, 10), RawDate: "09/02/2025, 9:10 AM", Agent: "Sam", Status: types.StatusAnswered,
			Disposition: d("Interested"), Duration: 120, RawDuration: "2:00", Source: fields.SourcePowerDialer,
			RawToNumber: "312-555-0100", CRMContactID: "C-9", Campaign: "Roofers, Q3"},
		{Timestamp: at(9, 20), Agent: "Sam", Status: types.StatusMissed, Disposition: d(""),
			Source: fields.SourcePowerDialer},
	}
	return aggregator.Analyze(records, types.Diagnostics{RowsRead: 3}, aggregator.Options{})
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestBasePath(t *testing.T) {
	assert.Equal(t, "exports/calls", BasePath("exports/calls.csv"))
	assert.Equal(t, "calls", BasePath("calls"))
}

func TestWriteCSV(t *testing.T) {
	base := filepath.Join(t.TempDir(), "calls")
	paths, err := WriteCSV(base, result())
	require.NoError(t, err)

	var names []string
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	assert.Equal(t, []string{
		"calls_summary.csv", "calls_daily.csv", "calls_dispositions.csv", "calls_sources.csv",
		"calls_campaigns.csv", "calls_area_codes.csv", "calls_agents.csv",
		"calls_interested_leads.csv", "calls_agent_sessions.csv",
	}, names)

	summary := readCSV(t, paths[0])
	assert.Equal(t, []string{"Metric", "Value"}, summary[0])
	assert.Contains(t, summary, []string{"Total Calls", "3"})
	assert.Contains(t, summary, []string{"Conversion Rate %", "33.3"})

	leads := readCSV(t, paths[7])
	require.Len(t, leads, 2)
	assert.Equal(t, []string{"09/02/2025, 9:10 AM", "Sam", "312-555-0100", "2:00", "C-9", "", "Roofers, Q3"}, leads[1])

	sessions := readCSV(t, paths[8])
	require.Len(t, sessions, 2)
	assert.Equal(t, []string{"Sam", "2025-09-02", "09:00 AM", "09:20 AM", "1200", "20:00", "240", "4:00", "20"}, sessions[1])
}

func TestWriteCSVEmptyRatesAreBlank(t *testing.T) {
	base := filepath.Join(t.TempDir(), "empty")
	paths, err := WriteCSV(base, aggregator.Analyze(nil, types.Diagnostics{}, aggregator.Options{}))
	require.NoError(t, err)
	summary := readCSV(t, paths[0])
	assert.Contains(t, summary, []string{"Conversion Rate %", ""})
}

func TestWriteCSVBadDirectory(t *testing.T) {
	_, err := WriteCSV(filepath.Join(t.TempDir(), "missing", "calls"), result())
	assert.Error(t, err)
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calls.xlsx")
	require.NoError(t, WriteXLSX(path, result()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{
		"Summary", "Daily", "Dispositions", "Sources", "Campaigns",
		"Area Codes", "Agents", "Interested Leads", "Agent Sessions",
	}, f.GetSheetList())

	rows, err := f.GetRows("Agents")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Agent", rows[0][0])
	assert.Equal(t, []string{"Sam", "3"}, rows[1][:2])
}
