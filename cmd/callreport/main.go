package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"call-insights-go/internal/config"
	"call-insights-go/internal/export"
	"call-insights-go/internal/logger"
	"call-insights-go/internal/processor"
	"call-insights-go/internal/publish"
	"call-insights-go/internal/report"
)

func main() {
	_ = godotenv.Load() // loads .env

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "callreport: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	input    string
	out      string
	csv      bool
	xlsx     string
	json     bool
	webhook  string
	ring     int
	logLevel string
}

func parseFlags(args []string, cfg *config.Config, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("callreport", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: callreport [flags] [export.csv|export.xlsx]\n\n")
		fs.PrintDefaults()
	}

	var o options
	fs.StringVar(&o.out, "o", "", "write the report to this file instead of stdout")
	fs.BoolVar(&o.csv, "csv", false, "export the nine CSV tables next to the input")
	fs.StringVar(&o.xlsx, "xlsx", "", "write every table to this XLSX workbook")
	fs.BoolVar(&o.json, "json", false, "print the result as JSON instead of the text report")
	fs.StringVar(&o.webhook, "webhook", cfg.Webhook.URL, "POST the JSON result to this URL")
	fs.IntVar(&o.ring, "ring-allowance", cfg.Analysis.RingAllowanceSeconds, "seconds added per call to phone time")
	fs.StringVar(&o.logLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() > 1 {
		return o, fmt.Errorf("expected one input file, got %d", fs.NArg())
	}

	o.input = cfg.DatasetPath
	if fs.NArg() == 1 {
		o.input = fs.Arg(0)
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	o, err := parseFlags(args, cfg, stderr)
	if err != nil {
		return err
	}
	cfg.Analysis.RingAllowanceSeconds = o.ring
	cfg.LogLevel = o.logLevel
	cfg.Webhook.URL = o.webhook
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := logger.NewWith(logger.Options{Environment: cfg.Environment, Level: cfg.LogLevel, Output: stderr})
	log.WithField("input", o.input).Debug("starting analysis")

	p, err := processor.New(cfg, log)
	if err != nil {
		return err
	}
	res, err := p.Run(ctx, o.input)
	if err != nil {
		return err
	}

	if err := writeResult(o, cfg, res, stdout); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	if o.csv {
		g.Go(func() error {
			paths, err := export.WriteCSV(export.BasePath(o.input), res.Analysis)
			for _, path := range paths {
				log.WithField("path", path).Info("created")
			}
			return err
		})
	}
	if o.xlsx != "" {
		g.Go(func() error {
			if err := export.WriteXLSX(o.xlsx, res.Analysis); err != nil {
				return err
			}
			log.WithField("path", o.xlsx).Info("created")
			return nil
		})
	}
	if cfg.Webhook.URL != "" {
		g.Go(func() error {
			return publish.New(cfg.Webhook.URL, cfg.Webhook.Timeout, cfg.Webhook.MaxElapsed, log).Send(gctx, res)
		})
	}
	return g.Wait()
}

func writeResult(o options, cfg *config.Config, res processor.Result, stdout io.Writer) (err error) {
	w := stdout
	if o.out != "" {
		f, ferr := os.Create(o.out)
		if ferr != nil {
			return fmt.Errorf("create %s: %w", o.out, ferr)
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}

	if o.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	return report.Write(w, res.Analysis, report.Options{
		AreaCodeMinCalls: cfg.Report.AreaCodeMinCalls,
		AreaCodeTopN:     cfg.Report.AreaCodeTopN,
		CampaignMinCalls: cfg.Report.CampaignMinCalls,
		Actions:          res.Actions,
	})
}
