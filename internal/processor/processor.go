// internal/processor/processor.go
package processor

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"call-insights-go/internal/actionable"
	"call-insights-go/internal/aggregator"
	"call-insights-go/internal/config"
	"call-insights-go/internal/dataset"
	"call-insights-go/internal/fields"
	"call-insights-go/internal/logger"
	"call-insights-go/internal/types"
)

// Result is what the CLI prints and the API returns.
type Result struct {
	RunID      string                  `json:"run_id"`
	Source     string                  `json:"source"`
	Analysis   types.AnalysisResult    `json:"analysis"`
	Actions    []actionable.ActionCard `json:"actions"`
	DurationMs int64                   `json:"duration_ms"`
}

// Processor runs load -> normalize -> aggregate -> actions. It holds no
// per-run state, so one value may serve concurrent HTTP requests.
type Processor struct {
	taxonomy *fields.Taxonomy
	opts     aggregator.Options
	actions  actionable.Options
	log      *logger.Logger
}

func New(cfg *config.Config, log *logger.Logger) (*Processor, error) {
	tax, err := fields.NewTaxonomy(cfg.DispositionAliases())
	if err != nil {
		return nil, fmt.Errorf("taxonomy: %w", err)
	}
	actions := actionable.DefaultOptions()
	actions.MinCalls = cfg.Report.AreaCodeMinCalls
	return &Processor{
		taxonomy: tax,
		opts:     aggregator.Options{RingAllowanceSeconds: cfg.Analysis.RingAllowanceSeconds},
		actions:  actions,
		log:      log,
	}, nil
}

// Run analyzes a CSV or XLSX export on disk.
func (p *Processor) Run(ctx context.Context, path string) (Result, error) {
	runID := uuid.New().String()
	log := p.log.WithFields(logrus.Fields{"run_id": runID, "source": path})
	start := time.Now()

	log.Info("loading dataset")
	table, err := dataset.Load(path)
	if err != nil {
		log.WithError(err).Error("dataset load failed")
		return Result{RunID: runID, Source: path}, err
	}
	return p.analyze(ctx, log, runID, path, table, start)
}

// RunReader analyzes a CSV stream, e.g. an uploaded request body.
func (p *Processor) RunReader(ctx context.Context, name string, r io.Reader) (Result, error) {
	runID := uuid.New().String()
	log := p.log.WithFields(logrus.Fields{"run_id": runID, "source": name})
	start := time.Now()

	table, err := dataset.ReadCSV(r)
	if err != nil {
		log.WithError(err).Warn("csv read failed")
		return Result{RunID: runID, Source: name}, err
	}
	return p.analyze(ctx, log, runID, name, table, start)
}

func (p *Processor) analyze(ctx context.Context, log *logrus.Entry, runID, source string, table *dataset.Table, start time.Time) (Result, error) {
	res := Result{RunID: runID, Source: source}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	records, diag := dataset.NewNormalizer(p.taxonomy).NormalizeAll(table.Rows)
	log.WithFields(logrus.Fields{
		"rows":      diag.RowsRead,
		"records":   len(records),
		"skipped":   diag.SkippedRows,
		"defaulted": diag.DefaultedFields,
	}).Info("rows normalized")
	if err := ctx.Err(); err != nil {
		return res, err
	}

	res.Analysis = aggregator.Analyze(records, diag, p.opts)
	for _, a := range res.Analysis.Diagnostics.Anomalies {
		log.WithFields(logrus.Fields{"kind": a.Kind, "agent": a.Agent, "date": a.Date}).Warn(a.Message)
	}
	res.Actions = actionable.Generate(res.Analysis, p.actions)

	res.DurationMs = time.Since(start).Milliseconds()
	log.WithFields(logrus.Fields{
		"total_calls": res.Analysis.Summary.TotalCalls,
		"duration_ms": res.DurationMs,
	}).Info("analysis finished")
	return res, nil
}
