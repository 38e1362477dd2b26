package simulate

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/caloric/pkg/logger"
)

// RunRemote drives cfg.Sessions sessions against a running server, each with
// cfg.Steps random additions, and tallies the outcomes. Failed requests are
// counted, not returned; only an unreachable server fails the run.
func RunRemote(ctx context.Context, cfg *Config) (*RemoteReport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.Named("simulate")
	start := time.Now()

	c := newClient(cfg.BaseURL, cfg.Timeout)
	if err := c.health(ctx); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	log.Info(ctx, "starting remote simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("sessions", cfg.Sessions),
		logger.Int("steps", cfg.Steps),
		logger.Int("workers", cfg.Workers))

	var (
		mu     sync.Mutex
		report = &RemoteReport{Outcomes: map[string]int{}}
	)
	record := func(fn func(r *RemoteReport)) {
		mu.Lock()
		fn(report)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i := range cfg.Sessions {
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(cfg.Seed, uint64(i)))
			driveSession(gctx, c, cfg, rng, record)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.Duration = time.Since(start)
	log.Info(ctx, "remote simulation finished",
		logger.Int("sessions", report.Sessions),
		logger.Int("additions", report.Additions),
		logger.Int("failures", report.Failures),
		logger.String("duration", report.Duration.String()))
	return report, nil
}

func driveSession(ctx context.Context, c *client, cfg *Config, rng *rand.Rand, record func(func(*RemoteReport))) {
	log := logger.Named("simulate")

	sess, err := c.createSession(ctx, cfg.Count)
	if err != nil {
		log.Warn(ctx, "create session failed", logger.Error(err))
		record(func(r *RemoteReport) { r.Failures++ })
		return
	}
	record(func(r *RemoteReport) { r.Sessions++ })
	defer func() {
		if err := c.deleteSession(context.WithoutCancel(ctx), sess.ID); err != nil {
			log.Debug(ctx, "delete session failed", logger.String("session", sess.ID), logger.Error(err))
		}
	}()

	var lastID string
	var lastPick int
	for range cfg.Steps {
		if ctx.Err() != nil {
			return
		}
		lastID = uuid.NewString()
		lastPick = rng.IntN(sess.Count) + 1
		tr, err := c.addIngredient(ctx, sess.ID, lastPick, lastID)
		if err != nil {
			log.Warn(ctx, "add ingredient failed", logger.String("session", sess.ID), logger.Error(err))
			record(func(r *RemoteReport) { r.Failures++ })
			continue
		}
		record(func(r *RemoteReport) {
			r.Additions++
			r.Outcomes[tr.Outcome.String()]++
		})
	}

	if !cfg.Replay || lastID == "" {
		return
	}
	tr, err := c.addIngredient(ctx, sess.ID, lastPick, lastID)
	if err != nil {
		record(func(r *RemoteReport) { r.Failures++ })
		return
	}
	if tr.Replayed {
		record(func(r *RemoteReport) { r.Replayed++ })
	}
}
