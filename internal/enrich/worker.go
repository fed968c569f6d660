// Package enrich – Worker
//
// The worker consumes detached enrichment jobs from a buffered queue. Every
// job terminates the assessment's status machine: generation success calls
// MarkCompleted, any failure (timeout included) calls MarkError with a
// human-readable cause. An assessment left in 'processing' past the timeout
// bound is a bug, so terminal writes run on a fresh bounded context; a job
// context that already expired cannot block them.
package enrich

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/adulab/go-assessment-backend/internal/domain"
	"github.com/adulab/go-assessment-backend/internal/notify"
	"github.com/adulab/go-assessment-backend/internal/repo"
)

// enrichmentsTotal counts finished enrichment jobs by outcome
// (completed | error).
var enrichmentsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "enrichments_total",
		Help: "Total number of finished enrichment jobs by outcome.",
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(enrichmentsTotal)
}

// terminalWriteTimeout bounds the MarkCompleted/MarkError write itself.
const terminalWriteTimeout = 5 * time.Second

type job struct {
	assessmentID string
	answers      domain.Answers
}

// Worker drains the enrichment queue with a small pool of goroutines.
type Worker struct {
	db      *gorm.DB
	gen     ReportGenerator
	mailer  notify.Mailer
	timeout time.Duration
	workers int
	jobs    chan job
}

// NewWorker constructs a Worker. timeout bounds each job's generation step;
// workers and queue fall back to 4 and 64 when non-positive.
func NewWorker(db *gorm.DB, gen ReportGenerator, mailer notify.Mailer, timeout time.Duration, workers, queue int) *Worker {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if workers <= 0 {
		workers = 4
	}
	if queue <= 0 {
		queue = 64
	}
	return &Worker{
		db:      db,
		gen:     gen,
		mailer:  mailer,
		timeout: timeout,
		workers: workers,
		jobs:    make(chan job, queue),
	}
}

// Enqueue dispatches a job without blocking the caller. When the queue is
// full the job runs on its own goroutine instead of waiting; intake latency
// must never depend on enrichment backpressure.
func (w *Worker) Enqueue(assessmentID string, answers domain.Answers) {
	j := job{assessmentID: assessmentID, answers: answers}
	select {
	case w.jobs <- j:
	default:
		go w.process(context.Background(), j)
	}
}

// Run consumes jobs until ctx is canceled. It blocks; callers run it on a
// dedicated goroutine.
func (w *Worker) Run(ctx context.Context) {
	log.Info().
		Int("workers", w.workers).
		Dur("timeout", w.timeout).
		Msg("enrichment worker started")

	var wg sync.WaitGroup
	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case j := <-w.jobs:
					w.process(ctx, j)
				}
			}
		}()
	}
	wg.Wait()
	log.Info().Msg("enrichment worker stopped")
}

// process runs one job to a terminal status.
func (w *Worker) process(ctx context.Context, j job) {
	genCtx, cancel := context.WithTimeout(ctx, w.timeout)
	report, err := w.gen.Generate(genCtx, j.answers)
	cancel()

	// The generation context may already be dead (timeout/shutdown); the
	// terminal write gets its own bounded lease so the record cannot stay
	// stuck in 'processing'.
	writeCtx, cancelWrite := context.WithTimeout(context.WithoutCancel(ctx), terminalWriteTimeout)
	defer cancelWrite()

	if err != nil {
		log.Warn().Err(err).Str("assessment_id", j.assessmentID).Msg("enrichment failed")
		if merr := repo.MarkError(writeCtx, w.db, j.assessmentID, err.Error()); merr != nil {
			log.Error().Err(merr).Str("assessment_id", j.assessmentID).Msg("mark error failed")
		}
		enrichmentsTotal.WithLabelValues("error").Inc()
		return
	}

	if err := repo.MarkCompleted(writeCtx, w.db, j.assessmentID, report); err != nil {
		log.Error().Err(err).Str("assessment_id", j.assessmentID).Msg("mark completed failed")
		enrichmentsTotal.WithLabelValues("error").Inc()
		return
	}
	enrichmentsTotal.WithLabelValues("completed").Inc()
	log.Info().Str("assessment_id", j.assessmentID).Msg("assessment enriched")

	// Non-critical notification; failures are swallowed.
	if w.mailer != nil {
		if err := w.mailer.SendAssessmentReady(writeCtx, j.assessmentID); err != nil {
			log.Warn().Err(err).Str("assessment_id", j.assessmentID).Msg("assessment-ready email failed")
		}
	}
}
