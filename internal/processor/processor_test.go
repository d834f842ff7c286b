package processor

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"call-insights-go/internal/config"
	"call-insights-go/internal/dataset"
	"call-insights-go/internal/logger"
	"call-insights-go/internal/types"
)

const export = `Date,Agent First Name,Type,Status,Disposition,Duration,Source,To Number
"09/02/2025, 9:00 AM",Sam,Outgoing,Answered,Voicemail,2:00,PowerDialer,312-555-0100
"09/02/2025, 9:10 AM",Sam,Outgoing,Answered,Left Message,2:00,PowerDialer,312-555-0101
"09/02/2025, 9:20 AM",Sam,Outgoing,Missed,,,PowerDialer,312-555-0102
"not a date",Sam,Outgoing,Answered,Interested,1:00,PowerDialer,312-555-0103
`

func newProcessor(t *testing.T, mutate func(*config.Config)) (*Processor, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.Taxonomy.Aliases = map[string]string{"Left Message": "Voicemail"}
	if mutate != nil {
		mutate(cfg)
	}
	var buf bytes.Buffer
	p, err := New(cfg, logger.NewWith(logger.Options{Output: &buf}))
	require.NoError(t, err)
	return p, &buf
}

func TestRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calls.csv")
	require.NoError(t, os.WriteFile(path, []byte(export), 0o644))

	p, logs := newProcessor(t, func(c *config.Config) { c.Analysis.RingAllowanceSeconds = 5 })
	res, err := p.Run(context.Background(), path)
	require.NoError(t, err)

	_, err = uuid.Parse(res.RunID)
	assert.NoError(t, err)
	assert.Equal(t, path, res.Source)

	s := res.Analysis.Summary
	assert.Equal(t, 3, s.TotalCalls)
	assert.Equal(t, 2, s.Voicemail, "alias maps Left Message onto voicemail")
	assert.Equal(t, 240+3*5, s.PhoneTimeSeconds)
	assert.Equal(t, 4, res.Analysis.Diagnostics.RowsRead)
	assert.Equal(t, 1, res.Analysis.Diagnostics.SkippedRows)
	assert.NotEmpty(t, res.Actions)
	assert.Contains(t, logs.String(), "analysis finished")
}

func TestRunReaderMissingColumns(t *testing.T) {
	p, _ := newProcessor(t, nil)
	res, err := p.RunReader(context.Background(), "upload", strings.NewReader("Date,Status\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, dataset.ErrMissingColumns))
	assert.NotEmpty(t, res.RunID)
}

func TestRunReaderCancelled(t *testing.T) {
	p, _ := newProcessor(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.RunReader(ctx, "upload", strings.NewReader(export))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunReaderLogsAnomalies(t *testing.T) {
	in := "Date,Agent First Name,Type,Status,Disposition,Duration,Source\n" +
		"\"09/02/2025, 9:00 AM\",Sam,Outgoing,Missed,Interested,,PowerDialer\n"
	p, logs := newProcessor(t, nil)
	res, err := p.RunReader(context.Background(), "upload", strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, res.Analysis.Diagnostics.Anomalies, 1)
	assert.Equal(t, types.AnomalyFunnelInversion, res.Analysis.Diagnostics.Anomalies[0].Kind)
	assert.Contains(t, logs.String(), "funnel_inversion")
}

func TestNewRejectsBadAlias(t *testing.T) {
	cfg := config.Default()
	cfg.Taxonomy.Aliases = map[string]string{"Maybe": "Perhaps"}
	_, err := New(cfg, logger.NewWith(logger.Options{Output: &bytes.Buffer{}}))
	assert.Error(t, err)
}

func TestRunReaderNonLiveOverridesBuiltin(t *testing.T) {
	in := "Date,Agent First Name,Type,Status,Disposition,Duration,Source\n" +
		"\"09/02/2025, 9:00 AM\",Sam,Outgoing,Answered,Not Interested,1:00,PowerDialer\n" +
		"\"09/02/2025, 9:05 AM\",Sam,Outgoing,Answered,Callback,1:00,PowerDialer\n"
	p, _ := newProcessor(t, func(c *config.Config) { c.Taxonomy.NonLive = []string{"Not Interested"} })
	res, err := p.RunReader(context.Background(), "upload", strings.NewReader(in))
	require.NoError(t, err)

	s := res.Analysis.Summary
	assert.Equal(t, 1, s.LiveConversations)
	assert.Equal(t, 0, s.NotInterested)
}
