// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package metrics exposes Prometheus metrics for library maintenance runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run metrics, labelled by operation (rebuild, cleanup, recover)
var (
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memorylane_runs_total",
			Help: "Total number of engine runs",
		},
		[]string{"operation", "status"},
	)

	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "memorylane_run_duration_seconds",
			Help:    "Engine run duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
		},
		[]string{"operation"},
	)

	UnitErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memorylane_unit_errors_total",
			Help: "Total number of per-file or per-folder errors",
		},
		[]string{"operation"},
	)

	RunInProgress = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "memorylane_run_in_progress",
			Help: "Whether an engine run is in progress (1 = running, 0 = idle)",
		},
		[]string{"operation"},
	)

	LastRebuildTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "memorylane_last_rebuild_timestamp",
			Help: "Unix time of the last successful rebuild",
		},
	)
)

// Index size after the last rebuild
var (
	IndexedTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "memorylane_indexed",
			Help: "Records in the index after the last rebuild",
		},
		[]string{"kind"}, // "year", "event", "item"
	)

	FilesSynthesizedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memorylane_files_synthesized_total",
			Help: "Metadata files written for media that had none",
		},
		[]string{"reason"}, // "orphan", "loose", "recovered_event", "recovered_item"
	)

	FilesRemovedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "memorylane_files_removed_total",
			Help: "Duplicate metadata files removed by cleanup",
		},
	)
)

// Recorder feeds engine events into the package metrics
type Recorder struct{}

// NewRecorder returns a Recorder writing to the default registry
func NewRecorder() *Recorder {
	return &Recorder{}
}

// RunStarted marks op as running
func (Recorder) RunStarted(op string) {
	RunInProgress.WithLabelValues(op).Set(1)
}

// RunFinished records the outcome of op
func (Recorder) RunFinished(op string, elapsed time.Duration, unitErrors int, err error) {
	RunInProgress.WithLabelValues(op).Set(0)
	RunDuration.WithLabelValues(op).Observe(elapsed.Seconds())

	status := "success"
	switch {
	case err != nil:
		status = "error"
	case unitErrors > 0:
		status = "partial"
	}
	RunsTotal.WithLabelValues(op, status).Inc()
	if unitErrors > 0 {
		UnitErrorsTotal.WithLabelValues(op).Add(float64(unitErrors))
	}
}

// Indexed records the size of a freshly built index
func (Recorder) Indexed(years, events, items int, at time.Time) {
	IndexedTotal.WithLabelValues("year").Set(float64(years))
	IndexedTotal.WithLabelValues("event").Set(float64(events))
	IndexedTotal.WithLabelValues("item").Set(float64(items))
	LastRebuildTimestamp.Set(float64(at.Unix()))
}

// Synthesized counts metadata files written for reason
func (Recorder) Synthesized(reason string, n int) {
	if n > 0 {
		FilesSynthesizedTotal.WithLabelValues(reason).Add(float64(n))
	}
}

// Removed counts deleted duplicate metadata files
func (Recorder) Removed(n int) {
	if n > 0 {
		FilesRemovedTotal.Add(float64(n))
	}
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
