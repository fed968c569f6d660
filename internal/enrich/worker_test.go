package enrich

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/adulab/go-assessment-backend/internal/domain"
	"github.com/adulab/go-assessment-backend/internal/repo"
)

func newWorkerDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("worker_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedProcessing(t *testing.T, db *gorm.DB, id string) {
	t.Helper()
	if _, err := repo.CreateAssessment(context.Background(), db, id, nil,
		domain.Answers{"lot_size": "large"}, domain.Score{Total: 83}); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

// genFunc adapts a function to ReportGenerator.
type genFunc func(ctx context.Context, answers domain.Answers) (*domain.Report, error)

func (f genFunc) Generate(ctx context.Context, answers domain.Answers) (*domain.Report, error) {
	return f(ctx, answers)
}

func waitForTerminal(t *testing.T, db *gorm.DB, id string) *domain.Assessment {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		a, err := repo.GetAssessment(context.Background(), db, id)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if a.Status.Terminal() {
			return a
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("assessment %s never reached a terminal status", id)
	return nil
}

func TestWorker_SuccessMarksCompleted(t *testing.T) {
	db := newWorkerDB(t)
	seedProcessing(t, db, "a1")

	w := NewWorker(db, StaticGenerator{}, nil, time.Second, 1, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	w.Enqueue("a1", domain.Answers{"lot_size": "large"})

	got := waitForTerminal(t, db, "a1")
	if got.Status != domain.StatusCompleted {
		t.Fatalf("status = %q, want completed", got.Status)
	}
	if got.Report == nil || len(got.Report.KeyFindings) == 0 {
		t.Fatalf("report missing: %+v", got.Report)
	}
	if got.ProcessedAt == nil {
		t.Fatalf("processed_at not set")
	}
}

func TestWorker_GeneratorFailureMarksError(t *testing.T) {
	db := newWorkerDB(t)
	seedProcessing(t, db, "a1")

	boom := genFunc(func(ctx context.Context, _ domain.Answers) (*domain.Report, error) {
		return nil, errors.New("downstream dependency unavailable")
	})
	w := NewWorker(db, boom, nil, time.Second, 1, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	w.Enqueue("a1", nil)

	got := waitForTerminal(t, db, "a1")
	if got.Status != domain.StatusError {
		t.Fatalf("status = %q, want error", got.Status)
	}
	if got.ErrorDetail == "" {
		t.Fatalf("error detail must be non-empty")
	}
	if got.Report != nil {
		t.Fatalf("report set on errored assessment")
	}
}

func TestWorker_TimeoutMarksError(t *testing.T) {
	db := newWorkerDB(t)
	seedProcessing(t, db, "a1")

	// Generator honors ctx and would otherwise take far longer than the
	// 50ms job timeout.
	slow := StaticGenerator{Delay: 10 * time.Second}
	w := NewWorker(db, slow, nil, 50*time.Millisecond, 1, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	w.Enqueue("a1", nil)

	got := waitForTerminal(t, db, "a1")
	if got.Status != domain.StatusError {
		t.Fatalf("status = %q, want error (timeout)", got.Status)
	}
	if got.ErrorDetail == "" {
		t.Fatalf("timeout must record a cause")
	}
}

func TestWorker_EnqueueNeverBlocksWhenQueueFull(t *testing.T) {
	db := newWorkerDB(t)
	for i := 0; i < 3; i++ {
		seedProcessing(t, db, fmt.Sprintf("a%d", i))
	}

	// Queue of 1 and no Run loop: overflow jobs must still complete via
	// the spawn-on-full path, and Enqueue must return immediately.
	w := NewWorker(db, StaticGenerator{}, nil, time.Second, 1, 1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 3; i++ {
			w.Enqueue(fmt.Sprintf("a%d", i), nil)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Enqueue blocked on a full queue")
	}

	// The overflowed jobs (beyond the buffered one) terminate on their own.
	waitForTerminal(t, db, "a1")
	waitForTerminal(t, db, "a2")
}

func TestWorker_RetryAfterCompletionIsHarmless(t *testing.T) {
	db := newWorkerDB(t)
	seedProcessing(t, db, "a1")

	w := NewWorker(db, StaticGenerator{}, nil, time.Second, 1, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	w.Enqueue("a1", nil)
	first := waitForTerminal(t, db, "a1")

	// A duplicate dispatch (e.g. an at-least-once queue) must not alter
	// the terminal record.
	w.Enqueue("a1", nil)
	time.Sleep(100 * time.Millisecond)

	second, err := repo.GetAssessment(context.Background(), db, "a1")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if second.Status != first.Status || !second.ProcessedAt.Equal(*first.ProcessedAt) {
		t.Fatalf("terminal record mutated by retry: %+v vs %+v", second, first)
	}
}
