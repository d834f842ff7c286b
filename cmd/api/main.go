package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"call-insights-go/internal/config"
	"call-insights-go/internal/dataset"
	"call-insights-go/internal/logger"
	"call-insights-go/internal/processor"
	"call-insights-go/internal/report"
)

// maxUploadBytes caps the /analyze request body.
const maxUploadBytes = 32 << 20

func main() {
	_ = godotenv.Load() // loads .env

	bootLog := logger.New()
	cfg, err := config.Load()
	if err != nil {
		bootLog.WithError(err).Fatal("failed to load config")
	}
	log := logger.NewWith(logger.Options{Environment: cfg.Environment, Level: cfg.LogLevel})
	log.WithField("service", "call-insights-go").Info("starting service")

	p, err := processor.New(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to build processor")
	}

	// analyze the configured export once; /report serves it read-only
	log.WithField("dataset_path", cfg.DatasetPath).Info("loading dataset")
	preloaded, err := p.Run(context.Background(), cfg.DatasetPath)
	if err != nil {
		log.WithError(err).Fatal("failed to analyze dataset")
	}
	log.WithField("total_calls", preloaded.Analysis.Summary.TotalCalls).Info("dataset analyzed")

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      newMux(p, preloaded, cfg, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
}

func newMux(p *processor.Processor, preloaded processor.Result, cfg *config.Config, log *logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	// health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		log.WithRequest(r).Debug("health check")
		fmt.Fprint(w, "ok")
	})

	// preloaded dataset
	mux.HandleFunc("GET /report", func(w http.ResponseWriter, r *http.Request) {
		reqLog := log.WithRequest(r).WithField("handler", "report")
		if err := respond(w, r, preloaded, cfg); err != nil {
			reqLog.WithError(err).Error("failed to write response")
			return
		}
		reqLog.Info("report served")
	})

	// ad-hoc CSV upload
	mux.HandleFunc("POST /analyze", func(w http.ResponseWriter, r *http.Request) {
		reqLog := log.WithRequest(r).WithField("handler", "analyze")
		start := time.Now()

		body := http.MaxBytesReader(w, r.Body, maxUploadBytes)
		res, err := p.RunReader(r.Context(), "upload", body)
		reqLog = reqLog.WithField("duration_ms", time.Since(start).Milliseconds())
		if err != nil {
			status := http.StatusInternalServerError
			var tooBig *http.MaxBytesError
			switch {
			case errors.Is(err, dataset.ErrMissingColumns):
				status = http.StatusUnprocessableEntity
			case errors.As(err, &tooBig):
				status = http.StatusRequestEntityTooLarge
			}
			reqLog.WithError(err).WithField("status", status).Warn("analyze failed")
			http.Error(w, err.Error(), status)
			return
		}
		if err := respond(w, r, res, cfg); err != nil {
			reqLog.WithError(err).Error("failed to write response")
			return
		}
		reqLog.WithField("total_calls", res.Analysis.Summary.TotalCalls).Info("analyze finished")
	})

	return mux
}

// respond writes JSON, or the text report when ?format=text.
func respond(w http.ResponseWriter, r *http.Request, res processor.Result, cfg *config.Config) error {
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		return report.Write(w, res.Analysis, report.Options{
			AreaCodeMinCalls: cfg.Report.AreaCodeMinCalls,
			AreaCodeTopN:     cfg.Report.AreaCodeTopN,
			CampaignMinCalls: cfg.Report.CampaignMinCalls,
			Actions:          res.Actions,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
