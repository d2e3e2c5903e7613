package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ImageMetrics holds metrics for image pulls.
type ImageMetrics struct {
	PullsTotal   metric.Int64Counter
	PullDuration metric.Float64Histogram
	PulledBytes  metric.Int64Counter
	RemovedTotal metric.Int64Counter
}

// NewImageMetrics creates metrics for the image manager.
func NewImageMetrics(meter metric.Meter) (*ImageMetrics, error) {
	pullsTotal, err := meter.Int64Counter(
		"nyun_images_pulls_total",
		metric.WithDescription("Total number of image pull outcomes by status"),
	)
	if err != nil {
		return nil, err
	}

	pullDuration, err := meter.Float64Histogram(
		"nyun_images_pull_duration_seconds",
		metric.WithDescription("Time to pull an image"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	pulledBytes, err := meter.Int64Counter(
		"nyun_images_pulled_bytes_total",
		metric.WithDescription("Total bytes downloaded by image pulls"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	removedTotal, err := meter.Int64Counter(
		"nyun_images_removed_total",
		metric.WithDescription("Total number of images removed"),
	)
	if err != nil {
		return nil, err
	}

	return &ImageMetrics{
		PullsTotal:   pullsTotal,
		PullDuration: pullDuration,
		PulledBytes:  pulledBytes,
		RemovedTotal: removedTotal,
	}, nil
}

// RecordPull records the outcome of one image pull. Safe on a nil receiver.
func (m *ImageMetrics) RecordPull(ctx context.Context, status string, bytes int64, start time.Time) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.PullsTotal.Add(ctx, 1, attrs)
	m.PullDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	if bytes > 0 {
		m.PulledBytes.Add(ctx, bytes)
	}
}

// RecordRemove records one removed image. Safe on a nil receiver.
func (m *ImageMetrics) RecordRemove(ctx context.Context) {
	if m == nil {
		return
	}
	m.RemovedTotal.Add(ctx, 1)
}

// RunMetrics holds metrics for container runs.
type RunMetrics struct {
	RunsTotal      metric.Int64Counter
	LaunchDuration metric.Float64Histogram
}

// NewRunMetrics creates metrics for the instance manager.
func NewRunMetrics(meter metric.Meter) (*RunMetrics, error) {
	runsTotal, err := meter.Int64Counter(
		"nyun_runs_total",
		metric.WithDescription("Total number of container launches by extension and status"),
	)
	if err != nil {
		return nil, err
	}

	launchDuration, err := meter.Float64Histogram(
		"nyun_runs_launch_duration_seconds",
		metric.WithDescription("Time to create and start a run container"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &RunMetrics{
		RunsTotal:      runsTotal,
		LaunchDuration: launchDuration,
	}, nil
}

// RecordLaunch records one container launch. Safe on a nil receiver.
func (m *RunMetrics) RecordLaunch(ctx context.Context, kind, status string, start time.Time) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("extension", kind),
		attribute.String("status", status),
	)
	m.RunsTotal.Add(ctx, 1, attrs)
	m.LaunchDuration.Record(ctx, time.Since(start).Seconds(), attrs)
}
