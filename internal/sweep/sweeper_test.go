package sweep

import (
	"context"
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

func newSweepDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("sweep_test_%d.db", time.Now().UnixNano()))
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

func seedToken(t *testing.T, db *gorm.DB, tok string, ttl time.Duration) {
	t.Helper()
	if _, err := repo.CreateAssessment(context.Background(), db, "a-"+tok, nil,
		domain.Answers{"lot_size": "small"}, domain.Score{Total: 10}); err != nil {
		t.Fatalf("seed assessment: %v", err)
	}
	if _, err := repo.CreateToken(context.Background(), db, tok, "a-"+tok, ttl); err != nil {
		t.Fatalf("seed token: %v", err)
	}
}

func countTokens(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&domain.PublicToken{}).Count(&n).Error; err != nil {
		t.Fatalf("count tokens: %v", err)
	}
	return n
}

func TestSweeper_RunSweepsImmediatelyAndStopsOnCancel(t *testing.T) {
	db := newSweepDB(t)
	seedToken(t, db, "expiredtoken", -time.Hour)
	seedToken(t, db, "livetoken000", time.Hour)

	s := New(db, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	// The initial sweep fires before the first tick.
	deadline := time.Now().Add(2 * time.Second)
	for countTokens(t, db) != 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if n := countTokens(t, db); n != 1 {
		t.Fatalf("tokens after sweep = %d, want 1", n)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not return after cancel")
	}

	// The live token survived and still resolves.
	if _, err := repo.ResolveToken(context.Background(), db, "livetoken000", time.Now()); err != nil {
		t.Fatalf("live token lost: %v", err)
	}
}

func TestSweeper_PeriodicTicksKeepSweeping(t *testing.T) {
	db := newSweepDB(t)

	s := New(db, 20*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	// Token created after startup, already expired; a later tick removes it.
	seedToken(t, db, "latetoken000", -time.Minute)

	deadline := time.Now().Add(2 * time.Second)
	for countTokens(t, db) != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if n := countTokens(t, db); n != 0 {
		t.Fatalf("tokens after periodic sweeps = %d, want 0", n)
	}
}

func TestNew_DefaultInterval(t *testing.T) {
	s := New(nil, 0)
	if s.interval != 24*time.Hour {
		t.Fatalf("interval = %v, want 24h", s.interval)
	}
}
