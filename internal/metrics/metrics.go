// Package metrics writes the outcome of a run in the Prometheus text format
// for the node_exporter textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/snapbackup/snap-backup/internal/store/constants"
)

// Report is the outcome of one run.
type Report struct {
	VolumeGroup   string
	LogicalVolume string
	Started       time.Time
	Finished      time.Time
	Success       bool
	ArchiveBytes  int64
	Expired       int
	TeardownError bool
}

type metrics struct {
	lastRunTimestamp *prometheus.GaugeVec
	lastRunSuccess   *prometheus.GaugeVec
	lastRunDuration  *prometheus.GaugeVec
	archiveBytes     *prometheus.GaugeVec
	expiredDirs      *prometheus.GaugeVec
	teardownFailed   *prometheus.GaugeVec
}

var labels = []string{"volume_group", "logical_volume"}

func newGaugeVec(name, help string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: constants.MetricsNamespace,
		Name:      name,
		Help:      help,
	}, labels)
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		lastRunTimestamp: newGaugeVec("last_run_timestamp_seconds", "Unix time the last run finished"),
		lastRunSuccess:   newGaugeVec("last_run_success", "Last run success status (1=success, 0=failure)"),
		lastRunDuration:  newGaugeVec("last_run_duration_seconds", "Duration of the last run"),
		archiveBytes:     newGaugeVec("archive_bytes", "Size of the archive written by the last run"),
		expiredDirs:      newGaugeVec("expired_directories", "Period directories older than the retention age"),
		teardownFailed:   newGaugeVec("teardown_failed", "1 when the last run could not remove its snapshot"),
	}

	reg.MustRegister(
		m.lastRunTimestamp,
		m.lastRunSuccess,
		m.lastRunDuration,
		m.archiveBytes,
		m.expiredDirs,
		m.teardownFailed,
	)
	return m
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Write renders r into path, replacing the file atomically.
func Write(path string, r Report) error {
	reg := prometheus.NewRegistry()
	m := newMetrics(reg)

	l := prometheus.Labels{"volume_group": r.VolumeGroup, "logical_volume": r.LogicalVolume}
	m.lastRunTimestamp.With(l).Set(float64(r.Finished.Unix()))
	m.lastRunSuccess.With(l).Set(boolGauge(r.Success))
	m.lastRunDuration.With(l).Set(r.Finished.Sub(r.Started).Seconds())
	m.archiveBytes.With(l).Set(float64(r.ArchiveBytes))
	m.expiredDirs.With(l).Set(float64(r.Expired))
	m.teardownFailed.With(l).Set(boolGauge(r.TeardownError))

	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
