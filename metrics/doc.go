// SPDX-License-Identifier: EPL-2.0

// Package metrics exposes Prometheus instruments for editing sessions.
//
// Instruments are registered on the registry passed to New, so several
// sessions, or tests, can each use their own:
//
//	reg := prometheus.NewRegistry()
//	m := metrics.New(reg)
//	session := editor.New(composer, pipeline, editor.WithMetrics(m))
package metrics
