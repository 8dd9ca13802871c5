/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package processor analyses uploaded reports in the background.
package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/humaidq/labwise/analyzer"
	"github.com/humaidq/labwise/cache"
	"github.com/humaidq/labwise/db"
	"github.com/humaidq/labwise/labs"
	"github.com/humaidq/labwise/logging"
	"github.com/humaidq/labwise/notify"
	"github.com/humaidq/labwise/storage"
	"github.com/humaidq/labwise/textextract"
)

var logger = logging.Logger(logging.SourceProcessor)

const (
	DefaultWorkers    = 2
	DefaultQueueSize  = 64
	DefaultJobTimeout = 5 * time.Minute

	finalizeTimeout = 10 * time.Second
)

// Config sizes the worker pool.
type Config struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
}

// TextExtractor reads the text of a stored upload.
type TextExtractor interface {
	FromFile(ctx context.Context, path, fileType string) (string, error)
}

// Deps are the collaborators of the pipeline. Cache and Notifier may be nil.
type Deps struct {
	Reports   ReportStore
	Store     storage.Store
	Extractor TextExtractor
	Analyzer  analyzer.Analyzer
	Cache     *cache.Client
	Notifier  notify.Notifier
}

// Job asks for one report to be processed.
type Job struct {
	ReportID uuid.UUID
}

// Processor is a bounded pool of workers running the report pipeline.
type Processor struct {
	cfg  Config
	deps Deps

	queue chan Job
	done  chan struct{}
	wg    sync.WaitGroup

	mu       sync.RWMutex
	started  bool
	stopping bool

	baseCtx     context.Context
	cancelDrain context.CancelFunc
}

// New creates a processor. Call Start before submitting jobs.
func New(cfg Config, deps Deps) *Processor {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}

	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}

	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = DefaultJobTimeout
	}

	if deps.Reports == nil {
		deps.Reports = DBReports{}
	}

	return &Processor{
		cfg:   cfg,
		deps:  deps,
		queue: make(chan Job, cfg.QueueSize),
		done:  make(chan struct{}),

		baseCtx: context.Background(),
	}
}

// Start launches the workers and re-queues reports left in processing by a
// previous run. ctx bounds all pipeline work.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return errAlreadyStarted
	}

	if p.stopping {
		return ErrStopped
	}

	p.started = true
	p.baseCtx = ctx

	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)

		go p.worker(i)
	}

	drainCtx, cancel := context.WithCancel(ctx)
	p.cancelDrain = cancel

	p.wg.Add(1)

	go p.requeuePending(drainCtx)

	logger.Info("Report processor started", "workers", p.cfg.Workers, "queue_size", p.cfg.QueueSize)

	return nil
}

// Submit queues a job without blocking.
func (p *Processor) Submit(job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopping {
		return ErrStopped
	}

	if !p.started {
		return errNotStarted
	}

	select {
	case p.queue <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop waits for running jobs to finish. Jobs still queued stay in
// processing and are picked up again by the next Start.
func (p *Processor) Stop() {
	p.mu.Lock()

	if p.stopping {
		p.mu.Unlock()
		return
	}

	p.stopping = true
	started := p.started

	if p.cancelDrain != nil {
		p.cancelDrain()
	}

	close(p.done)
	p.mu.Unlock()

	if !started {
		return
	}

	p.wg.Wait()
	logger.Info("Report processor stopped")
}

func (p *Processor) isStopping() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.stopping
}

func (p *Processor) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case job := <-p.queue:
			if p.isStopping() {
				return
			}

			p.run(job)
		case <-p.done:
			return
		}
	}
}

// requeuePending queues every report still marked processing, blocking
// while the queue is full.
func (p *Processor) requeuePending(ctx context.Context) {
	defer p.wg.Done()

	reports, err := p.deps.Reports.ListProcessingReports(ctx)
	if err != nil {
		logger.Error("Failed to list pending reports", "error", err)
		return
	}

	if len(reports) == 0 {
		return
	}

	logger.Info("Re-queueing pending reports", "count", len(reports))

	for _, r := range reports {
		select {
		case p.queue <- Job{ReportID: r.ID}:
		case <-ctx.Done():
			return
		}
	}
}

// run processes one job, recovering from panics so a bad report cannot take
// a worker down.
func (p *Processor) run(job Job) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Report processing panicked", "report_id", job.ReportID, "panic", r)
			p.fail(job.ReportID, nil, fmt.Errorf("panic: %v", r))
		}
	}()

	ctx, cancel := context.WithTimeout(p.baseCtx, p.cfg.JobTimeout)
	defer cancel()

	if err := p.Process(ctx, job.ReportID); err != nil {
		logger.Warn("Report processing failed", "report_id", job.ReportID, "error", err)
	}
}

// Process runs the pipeline for one report synchronously. Reports that are
// gone or no longer processing are skipped. Pipeline failures mark the
// report failed and are returned.
func (p *Processor) Process(ctx context.Context, reportID uuid.UUID) error {
	report, err := p.deps.Reports.GetReportByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, db.ErrReportNotFound) {
			logger.Debug("Skipping deleted report", "report_id", reportID)
			return nil
		}

		return fmt.Errorf("failed to load report: %w", err)
	}

	if report.Status != db.ReportProcessing {
		logger.Debug("Skipping report not in processing", "report_id", reportID, "status", report.Status)
		return nil
	}

	analysis, text, err := p.analyze(ctx, report)
	if err != nil {
		if p.interrupted(err) {
			return err
		}

		p.fail(reportID, report, err)

		return err
	}

	if labs.IsPlaceholder(report.ReportType, analysis.Readings) {
		logger.Warn("No metrics recognized, storing the default reading",
			"report_id", reportID,
			"report_type", report.ReportType,
		)
	}

	input := db.CompleteReportInput{
		ExtractedText:  text,
		Summary:        analysis.Summary,
		Explanation:    analysis.Explanation,
		HealthScore:    analysis.HealthScore,
		RiskLevel:      string(analysis.RiskLevel),
		AnalyzerEngine: analysis.Engine,
		Readings:       analysis.Readings,
	}

	if err := p.deps.Reports.CompleteReport(ctx, reportID, input); err != nil {
		if errors.Is(err, db.ErrReportNotFound) {
			logger.Info("Report deleted during processing", "report_id", reportID)
			return nil
		}

		if p.interrupted(err) {
			return err
		}

		p.fail(reportID, report, err)

		return fmt.Errorf("failed to save analysis: %w", err)
	}

	logger.Info("Report processed",
		"report_id", reportID,
		"report_type", report.ReportType,
		"metrics", len(analysis.Readings),
		"engine", analysis.Engine,
	)

	report.Status = db.ReportCompleted
	report.Metrics = analysis.Readings

	p.finalize(ctx, report, notify.Event{
		Report:   report,
		Readings: analysis.Readings,
		FollowUp: labs.FollowUp(report.ReportType, analysis.Readings),
	})

	return nil
}

// interrupted reports whether err comes from shutdown cancelling the base
// context. Such reports stay in processing for the next start.
func (p *Processor) interrupted(err error) bool {
	return errors.Is(err, context.Canceled) && p.baseCtx.Err() != nil
}

func (p *Processor) analyze(ctx context.Context, report *db.Report) (*analyzer.Analysis, string, error) {
	path, cleanup, err := p.deps.Store.LocalPath(ctx, report.FileKey)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch upload: %w", err)
	}
	defer cleanup()

	text, err := p.deps.Extractor.FromFile(ctx, path, report.FileType)
	if err != nil {
		return nil, "", fmt.Errorf("failed to extract text: %w", err)
	}

	analysis, err := p.deps.Analyzer.Analyze(ctx, text, report.ReportType)
	if err != nil {
		return nil, "", fmt.Errorf("failed to analyze report: %w", err)
	}

	return analysis, text, nil
}

// fail records the failure even when the job context is already done.
func (p *Processor) fail(reportID uuid.UUID, report *db.Report, cause error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(p.baseCtx), finalizeTimeout)
	defer cancel()

	reason := failureReason(cause)

	if err := p.deps.Reports.FailReport(ctx, reportID, reason); err != nil {
		if !errors.Is(err, db.ErrReportNotFound) {
			logger.Error("Failed to mark report failed", "report_id", reportID, "error", err)
		}

		return
	}

	if report == nil {
		return
	}

	report.Status = db.ReportFailed
	report.FailureReason = &reason

	p.finalize(ctx, report, notify.Event{Report: report, Failed: true, Reason: reason})
}

// finalize drops the owner's cached views and notifies them.
func (p *Processor) finalize(ctx context.Context, report *db.Report, event notify.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()

	userID := report.UserID.String()

	if err := p.deps.Cache.InvalidateUser(ctx, userID); err != nil {
		logger.Warn("Failed to invalidate cache", "user_id", userID, "error", err)
	}

	if p.deps.Notifier == nil {
		return
	}

	user, err := p.deps.Reports.GetUserByID(ctx, userID)
	if err != nil {
		logger.Warn("Failed to load user for notification", "user_id", userID, "error", err)
		return
	}

	event.User = user

	if err := p.deps.Notifier.ReportProcessed(ctx, event); err != nil {
		logger.Warn("Failed to notify user", "user_id", userID, "report_id", report.ID, "error", err)
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, textextract.ErrNotFound), errors.Is(err, storage.ErrObjectNotFound):
		return "uploaded file is missing"
	case errors.Is(err, textextract.ErrUnreadable):
		return "no text could be extracted from the file"
	case errors.Is(err, textextract.ErrUpstream):
		return "text recognition service unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return "processing timed out"
	default:
		return "processing failed"
	}
}
