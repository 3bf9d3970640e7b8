package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"trolley-backend/internal/chrono"
	"trolley-backend/lib/timezone"

	"github.com/robfig/cron/v3"
)

// Catalogues roll over Wednesday morning, ALDI runs a second Special
// Buys drop on Saturday, and fresh food prices move daily. The
// schedule mirrors that cycle, in Sydney time.
var schedulerJobs = []struct {
	ID   string
	Name string
	Spec string
}{
	{"weekly_specials_scrape", "Weekly Specials Scrape", "0 5 * * 3"},
	{"weekly_catalogue_update", "Weekly Catalogue Update", "0 6 * * 3"},
	{"saturday_catalogue_update", "Saturday Catalogue Update (ALDI)", "0 6 * * 6"},
	{"daily_fresh_foods_import", "Daily Fresh Foods Import", "0 6 * * *"},
}

// RunRecord captures one scheduled or manual run for the status
// endpoint.
type RunRecord struct {
	Timestamp       string  `json:"timestamp"`
	DurationSeconds float64 `json:"duration_seconds"`
	Results         any     `json:"results"`
	ExpiredCleared  *int64  `json:"expired_cleared,omitempty"`
	Error           string  `json:"error,omitempty"`
	Manual          bool    `json:"manual,omitempty"`
}

type SchedulerJob struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Trigger string `json:"trigger"`
	NextRun string `json:"next_run,omitempty"`
}

type SchedulerStatus struct {
	Running              bool           `json:"running"`
	Jobs                 []SchedulerJob `json:"jobs"`
	LastCatalogueRun     *RunRecord     `json:"last_catalogue_run"`
	LastSpecialsScrape   *RunRecord     `json:"last_specials_scrape"`
	LastFreshFoodsImport *RunRecord     `json:"last_fresh_foods_import"`
}

// schedulerState is shared across the value-copied Service handles.
// Cron entries register once at boot and stay registered; the running
// flag decides whether a firing job does anything.
type schedulerState struct {
	mu      sync.Mutex
	running bool

	lastCatalogueRun   *RunRecord
	lastSpecialsScrape *RunRecord
	lastFreshFoods     *RunRecord
}

func (st *schedulerState) isRunning() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.running
}

func (st *schedulerState) setRunning(v bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.running = v
}

func (st *schedulerState) setCatalogueRun(r *RunRecord) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.lastCatalogueRun = r
}

func (st *schedulerState) setSpecialsScrape(r *RunRecord) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.lastSpecialsScrape = r
}

func (st *schedulerState) setFreshFoods(r *RunRecord) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.lastFreshFoods = r
}

// RegisterJobs wires the ingest jobs onto the cron. Call once at
// startup; StartScheduler and StopScheduler gate execution after
// that.
func (s Service) RegisterJobs(c chrono.CronAPI) error {
	runners := map[string]func(context.Context){
		"weekly_specials_scrape":    s.runScheduledSpecialsScrape,
		"weekly_catalogue_update":   s.runScheduledCatalogueUpdate,
		"saturday_catalogue_update": s.runScheduledCatalogueUpdate,
		"daily_fresh_foods_import":  s.runScheduledFreshFoods,
	}
	for _, job := range schedulerJobs {
		run := runners[job.ID]
		err := c.Cron(job.Spec, func() {
			if !s.sched.isRunning() {
				return
			}
			run(context.Background())
		})
		if err != nil {
			return fmt.Errorf("registering %s: %w", job.ID, err)
		}
	}
	return nil
}

// StartScheduler enables the scheduled jobs and returns the resulting
// status.
func (s Service) StartScheduler() SchedulerStatus {
	s.sched.setRunning(true)
	slog.Info("ingest scheduler started")
	return s.SchedulerStatus()
}

// StopScheduler disables the scheduled jobs. Registered cron entries
// stay in place but fire as no-ops.
func (s Service) StopScheduler() {
	s.sched.setRunning(false)
	slog.Info("ingest scheduler stopped")
}

// SchedulerStatus reports the job table and the outcome of the most
// recent runs.
func (s Service) SchedulerStatus() SchedulerStatus {
	s.sched.mu.Lock()
	status := SchedulerStatus{
		Running:              s.sched.running,
		Jobs:                 []SchedulerJob{},
		LastCatalogueRun:     s.sched.lastCatalogueRun,
		LastSpecialsScrape:   s.sched.lastSpecialsScrape,
		LastFreshFoodsImport: s.sched.lastFreshFoods,
	}
	s.sched.mu.Unlock()

	if !status.Running {
		return status
	}
	now := timezone.Now()
	for _, job := range schedulerJobs {
		entry := SchedulerJob{ID: job.ID, Name: job.Name, Trigger: job.Spec}
		if schedule, err := cron.ParseStandard(job.Spec); err == nil {
			entry.NextRun = schedule.Next(now).Format(time.RFC3339)
		}
		status.Jobs = append(status.Jobs, entry)
	}
	return status
}

func (s Service) runScheduledCatalogueUpdate(ctx context.Context) {
	slog.Info("starting scheduled catalogue update")
	start := time.Now()

	results := s.RunAllParsers(ctx)
	s.sched.setCatalogueRun(&RunRecord{
		Timestamp:       start.UTC().Format(time.RFC3339),
		DurationSeconds: time.Since(start).Seconds(),
		Results:         results,
	})
	slog.Info("catalogue update completed", "parsers", len(results))
}

func (s Service) runScheduledSpecialsScrape(ctx context.Context) {
	slog.Info("starting scheduled specials scrape")
	start := time.Now()
	record := &RunRecord{
		Timestamp: start.UTC().Format(time.RFC3339),
		Results:   map[string]ScrapeOutcome{},
	}

	expired, err := s.ClearExpiredSpecials(ctx)
	if err != nil {
		record.DurationSeconds = time.Since(start).Seconds()
		record.Error = err.Error()
		s.sched.setSpecialsScrape(record)
		slog.Error("specials scrape failed", "err", err)
		return
	}
	slog.Info("cleared expired specials", "count", expired)

	results := s.ScrapeAllStores(ctx)
	record.DurationSeconds = time.Since(start).Seconds()
	record.ExpiredCleared = &expired
	record.Results = results
	s.sched.setSpecialsScrape(record)

	for store, result := range results {
		if result.Status == "success" {
			slog.Info("specials scrape done", "store", store, "items", result.Items)
		} else {
			slog.Error("specials scrape failed", "store", store, "err", result.Error)
		}
	}
}

func (s Service) runScheduledFreshFoods(ctx context.Context) {
	slog.Info("starting scheduled fresh foods import")
	start := time.Now()

	result := s.ImportFreshFoods(ctx, 0)
	s.sched.setFreshFoods(&RunRecord{
		Timestamp:       start.UTC().Format(time.RFC3339),
		DurationSeconds: time.Since(start).Seconds(),
		Results:         result,
	})
	slog.Info("fresh foods import completed", "total", result.Total)
}

// TriggerCatalogueUpdate runs the catalogue parsers immediately. With
// a store slug it runs that store's parser alone; unknown slugs
// return ErrUnknownParser.
func (s Service) TriggerCatalogueUpdate(ctx context.Context, storeSlug string) (RunRecord, error) {
	start := time.Now()

	var results []ParserResult
	if storeSlug != "" {
		parser := s.parserFor(storeSlug)
		if parser == nil {
			return RunRecord{}, fmt.Errorf("%w: %s", ErrUnknownParser, storeSlug)
		}
		results = []ParserResult{s.RunParser(ctx, parser)}
	} else {
		results = s.RunAllParsers(ctx)
	}

	record := RunRecord{
		Timestamp:       start.UTC().Format(time.RFC3339),
		DurationSeconds: time.Since(start).Seconds(),
		Results:         results,
		Manual:          true,
	}
	s.sched.setCatalogueRun(&record)
	return record, nil
}
