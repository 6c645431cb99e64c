package service

import (
	"context"
	"sync"
	"time"

	"postlens/internal/platform/logger"

	"postlens/internal/services/ingest/domain"
)

// maxBackoff caps the retry delay of a post whose analysis could not be stored
const maxBackoff = 10 * time.Minute

// Run polls for pending posts and analyzes them until ctx is done
func (s *Svc) Run(ctx context.Context) error {
	log := logger.Named("ingest-worker")
	ticker := time.NewTicker(s.cfg.Worker.Interval)
	defer ticker.Stop()

	log.Info().
		Dur("interval", s.cfg.Worker.Interval).
		Int("batch", s.cfg.Worker.Batch).
		Int("concurrency", s.cfg.Worker.Concurrency).
		Msg("analysis worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := s.RunOnce(ctx)
			if err != nil {
				log.Error().Err(err).Msg("lease pending posts failed")
				continue
			}
			if n > 0 {
				log.Debug().Int("posts", n).Msg("analysis batch done")
			}
		}
	}
}

// RunOnce leases one batch of pending posts, analyzes them concurrently and
// waits for all of them. It returns how many posts were leased
func (s *Svc) RunOnce(ctx context.Context) (int, error) {
	w := s.cfg.Worker
	leases, err := s.Repo.Bind(s.DB).LeasePending(ctx, w.Batch, w.LeaseFor)
	if err != nil {
		return 0, err
	}

	sem := make(chan struct{}, max(1, w.Concurrency))
	var wg sync.WaitGroup
	for i := range leases {
		l := leases[i]
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			s.handleLease(ctx, l)
		}()
	}
	wg.Wait()
	return len(leases), nil
}

func (s *Svc) handleLease(ctx context.Context, l domain.Lease) {
	ctx = logger.WithPost(ctx, l.PostID)
	log := logger.C(ctx)

	_, err := s.Analyze(ctx, l.PostID)
	if err == nil {
		return
	}

	attempt := l.Attempts + 1
	if attempt >= s.cfg.Worker.MaxAttempts {
		log.Error().Err(err).Int("attempts", attempt).Msg("analysis gave up")
		if ferr := s.markFailed(ctx, l.PostID, err.Error()); ferr != nil {
			log.Error().Err(ferr).Msg("mark failed")
			return
		}
		s.metrics.Analysis(string(domain.StatusFailed))
		return
	}

	back := backoff(l.Attempts, s.cfg.Worker.RetryBase)
	log.Warn().Err(err).Int("attempts", attempt).Dur("backoff", back).Msg("analysis requeued")
	if rerr := s.Repo.Bind(s.DB).Release(ctx, l.PostID, back, err.Error()); rerr != nil {
		log.Error().Err(rerr).Msg("release lease")
	}
}

// backoff is base doubled per previous attempt, capped
func backoff(attempts int, base time.Duration) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	if attempts > 16 {
		return maxBackoff
	}
	d := base << uint(attempts)
	if d <= 0 || d > maxBackoff {
		return maxBackoff
	}
	return d
}
