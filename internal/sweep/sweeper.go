// Package sweep removes expired public tokens on a fixed interval. Expired
// tokens are already invisible to resolution; the sweeper only reclaims the
// rows.
package sweep

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/adulab/go-assessment-backend/internal/repo"
)

var tokensSweptTotal = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "public_tokens_swept_total",
	Help: "Total number of expired public tokens deleted by the sweeper.",
})

func init() {
	prometheus.MustRegister(tokensSweptTotal)
}

// Sweeper deletes expired public tokens every Interval.
type Sweeper struct {
	db       *gorm.DB
	interval time.Duration
}

// New constructs a Sweeper. interval falls back to 24h when non-positive.
func New(db *gorm.DB, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Sweeper{db: db, interval: interval}
}

// Run sweeps once immediately, then on every tick until ctx is canceled.
// It blocks; callers run it on a dedicated goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	log.Info().Dur("interval", s.interval).Msg("token sweeper started")

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("token sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := repo.SweepExpiredTokens(ctx, s.db, time.Now().UTC())
	if err != nil {
		log.Error().Err(err).Msg("token sweep failed")
		return
	}
	tokensSweptTotal.Add(float64(n))
	if n > 0 {
		log.Info().Int64("deleted", n).Msg("expired public tokens swept")
	}
}
