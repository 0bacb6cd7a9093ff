// SPDX-License-Identifier: EPL-2.0

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result labels.
const (
	ResultOK       = "ok"
	ResultError    = "error"
	ResultRejected = "rejected"
)

// Metrics holds the instruments of an editing session.
type Metrics struct {
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec

	// Audio state after the last commit
	AudioDuration prometheus.Gauge
	SpliceMarkers prometheus.Gauge
	LockedMarkers prometheus.Gauge
	UndoDepth     prometheus.Gauge

	StretchFrames prometheus.Histogram
	DecodeErrors  prometheus.Counter
	RateWarnings  prometheus.Counter
}

// New creates the instruments and registers them on reg. A nil reg
// creates them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "splicebox_operations_total",
			Help: "Total number of editing operations by kind and result",
		}, []string{"operation", "result"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "splicebox_operation_duration_seconds",
			Help:    "Wall time of editing operations",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		}, []string{"operation"}),

		AudioDuration: f.NewGauge(prometheus.GaugeOpts{
			Name: "splicebox_audio_duration_seconds",
			Help: "Duration of the current audio",
		}),
		SpliceMarkers: f.NewGauge(prometheus.GaugeOpts{
			Name: "splicebox_splice_markers",
			Help: "Number of splice markers on the current audio",
		}),
		LockedMarkers: f.NewGauge(prometheus.GaugeOpts{
			Name: "splicebox_locked_markers",
			Help: "Number of locked markers on the current audio",
		}),
		UndoDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "splicebox_undo_depth",
			Help: "Number of states that can be undone",
		}),

		StretchFrames: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "splicebox_stretch_output_frames",
			Help:    "Frames produced per time stretch",
			Buckets: prometheus.ExponentialBuckets(4096, 4, 10),
		}),
		DecodeErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "splicebox_decode_errors_total",
			Help: "Total number of source files that failed to decode",
		}),
		RateWarnings: f.NewCounter(prometheus.CounterOpts{
			Name: "splicebox_sample_rate_mismatches_total",
			Help: "Total number of sources joined at a foreign sample rate",
		}),
	}
}

// RecordOperation counts one operation and its wall time.
func (m *Metrics) RecordOperation(op, result string, elapsed time.Duration) {
	m.Operations.WithLabelValues(op, result).Inc()
	m.OperationDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// SetState publishes the committed audio state.
func (m *Metrics) SetState(durationSeconds float64, splice, locked, undo int) {
	m.AudioDuration.Set(durationSeconds)
	m.SpliceMarkers.Set(float64(splice))
	m.LockedMarkers.Set(float64(locked))
	m.UndoDepth.Set(float64(undo))
}

func (m *Metrics) RecordStretch(frames int) {
	m.StretchFrames.Observe(float64(frames))
}

func (m *Metrics) RecordDecodeError() {
	m.DecodeErrors.Inc()
}

func (m *Metrics) RecordRateWarnings(n int) {
	m.RateWarnings.Add(float64(n))
}
