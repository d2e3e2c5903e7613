// Package images interns image identities and pulls or removes them through
// the container runtime.
package images

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nyunai/nyun/lib/logger"
	nyunotel "github.com/nyunai/nyun/lib/otel"
	"github.com/nyunai/nyun/lib/runtime"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxConcurrentPulls bounds the pull worker pool.
const DefaultMaxConcurrentPulls = 4

// Config configures a Manager.
type Config struct {
	MaxConcurrentPulls int
	Auth               runtime.Auth
}

// Manager pulls and removes image batches.
type Manager interface {
	// PullAll pulls every image concurrently. A failure never cancels the
	// other pulls; the result slice has one terminal entry per distinct
	// image, in request order.
	PullAll(ctx context.Context, refs []*Ref) []PullResult
	// RemoveAll removes every image, collecting errors.
	RemoveAll(ctx context.Context, refs []*Ref) error
	// Tracker returns the tracker receiving progress of all batches.
	Tracker() *Tracker
}

type manager struct {
	runtime   runtime.Runtime
	inspector Inspector
	config    Config
	tracker   *Tracker
	metrics   *nyunotel.ImageMetrics
}

// NewManager creates a manager. inspector and metrics may be nil.
func NewManager(rt runtime.Runtime, inspector Inspector, cfg Config, metrics *nyunotel.ImageMetrics) Manager {
	if cfg.MaxConcurrentPulls < 1 {
		cfg.MaxConcurrentPulls = DefaultMaxConcurrentPulls
	}
	return &manager{
		runtime:   rt,
		inspector: inspector,
		config:    cfg,
		tracker:   NewTracker(256),
		metrics:   metrics,
	}
}

func (m *manager) Tracker() *Tracker {
	return m.tracker
}

func (m *manager) PullAll(ctx context.Context, refs []*Ref) []PullResult {
	refs = lo.Uniq(lo.Compact(refs))
	results := make([]PullResult, len(refs))

	jobs := make([]PullJob, len(refs))
	for i, ref := range refs {
		jobs[i] = PullJob{Image: ref, Ordinal: i + 1, Total: len(refs), Status: StatusPending}
		m.tracker.Update(ProgressUpdate{Image: ref, Ordinal: i + 1, Total: len(refs), Status: StatusPending})
	}

	// A plain Group: one failed pull must not cancel the others.
	var g errgroup.Group
	g.SetLimit(m.config.MaxConcurrentPulls)
	for i := range jobs {
		g.Go(func() error {
			results[i] = m.pull(ctx, jobs[i])
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (m *manager) pull(ctx context.Context, job PullJob) PullResult {
	log := logger.FromContext(ctx).With("image", job.Image.String(), "ordinal", job.Ordinal)
	start := time.Now()
	result := PullResult{Image: job.Image, Ordinal: job.Ordinal}

	finish := func(status Status, bytes int64, err error) PullResult {
		result.Status = status
		result.Bytes = bytes
		result.Duration = time.Since(start)
		update := ProgressUpdate{
			Image:   job.Image,
			Ordinal: job.Ordinal,
			Total:   job.Total,
			Status:  status,
			Current: bytes,
			Size:    bytes,
		}
		if err != nil {
			result.Err = err
			result.Failure = classifyFailure(err)
			update.Failure = result.Failure
			update.Error = err
			log.Error("image pull failed", "error", err, "failure", result.Failure)
		} else {
			log.Info("image pull finished", "status", status, "bytes", bytes, "duration", result.Duration)
		}
		m.tracker.Update(update)
		m.metrics.RecordPull(ctx, string(status), bytes, start)
		return result
	}

	exists, err := m.runtime.ImageExists(ctx, job.Image.String())
	if err != nil {
		return finish(StatusFailed, 0, fmt.Errorf("check local image: %w", err))
	}
	if exists {
		return finish(StatusSkipped, 0, nil)
	}

	if m.inspector != nil {
		digest, err := m.inspector.Inspect(ctx, job.Image)
		if err != nil {
			return finish(StatusFailed, 0, err)
		}
		log.Debug("remote manifest found", "digest", digest)
	}

	var last runtime.PullProgress
	err = m.runtime.PullImage(ctx, job.Image.String(), m.config.Auth, func(p runtime.PullProgress) {
		last = p
		m.tracker.Update(ProgressUpdate{
			Image:   job.Image,
			Ordinal: job.Ordinal,
			Total:   job.Total,
			Status:  StatusPending,
			Current: p.Current,
			Size:    p.Total,
		})
	})
	if err != nil {
		return finish(StatusFailed, last.Current, fmt.Errorf("pull %s: %w", job.Image, err))
	}
	return finish(StatusPulled, last.Total, nil)
}

func (m *manager) RemoveAll(ctx context.Context, refs []*Ref) error {
	log := logger.FromContext(ctx)

	var errs []error
	for _, ref := range lo.Uniq(lo.Compact(refs)) {
		if err := m.runtime.RemoveImage(ctx, ref.String()); err != nil {
			log.Error("failed to remove image", "image", ref.String(), "error", err)
			errs = append(errs, fmt.Errorf("remove %s: %w", ref, err))
			continue
		}
		log.Info("removed image", "image", ref.String())
		m.metrics.RecordRemove(ctx)
	}
	return errors.Join(errs...)
}
