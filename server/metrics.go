package main

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "tankarena/server"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Metrics holds the scheduler and session instruments. Uses the global OTel
// meter (no-op if not configured).
type Metrics struct {
	ticks    metric.Int64Counter
	failures metric.Int64Counter
	duration metric.Float64Histogram
	dropped  metric.Int64Counter
	sessions metric.Int64ObservableGauge

	activeSessions atomic.Int64
}

// NewMetrics creates the instruments
func NewMetrics() (*Metrics, error) {
	m := &Metrics{}
	mt := meter()

	var err error
	m.ticks, err = mt.Int64Counter(
		"scheduler.ticks",
		metric.WithDescription("Total scheduled job invocations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tick counter: %w", err)
	}

	m.failures, err = mt.Int64Counter(
		"scheduler.tick.failures",
		metric.WithDescription("Job invocations that returned an error and were rolled back"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failure counter: %w", err)
	}

	m.duration, err = mt.Float64Histogram(
		"scheduler.tick.duration",
		metric.WithDescription("Time spent in a job handler"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	m.dropped, err = mt.Int64Counter(
		"writer.records.dropped",
		metric.WithDescription("Records dropped because a background writer queue was full"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	m.sessions, err = mt.Int64ObservableGauge(
		"sessions.active",
		metric.WithDescription("Worlds currently hosted"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating session gauge: %w", err)
	}
	_, err = mt.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(m.sessions, m.activeSessions.Load())
			return nil
		},
		m.sessions,
	)
	if err != nil {
		return nil, fmt.Errorf("registering session callback: %w", err)
	}
	return m, nil
}

// RecordTick records one job invocation
func (m *Metrics) RecordTick(job JobKind, d time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("job", string(job)))
	ctx := context.Background()
	m.ticks.Add(ctx, 1, attrs)
	m.duration.Record(ctx, float64(d.Microseconds())/1000, attrs)
	if err != nil {
		m.failures.Add(ctx, 1, attrs)
	}
}

// RecordDropped counts records a writer had to drop
func (m *Metrics) RecordDropped(writer string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.dropped.Add(context.Background(), int64(n), metric.WithAttributes(attribute.String("writer", writer)))
}

// SessionOpened and SessionClosed feed the active sessions gauge
func (m *Metrics) SessionOpened() {
	if m != nil {
		m.activeSessions.Add(1)
	}
}

func (m *Metrics) SessionClosed() {
	if m != nil {
		m.activeSessions.Add(-1)
	}
}
