// Package metrics exposes prometheus counters for the ingestion
// pipeline and the poll worker.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Ingestion struct {
	rowsNormalized prometheus.Counter
	factsFlushed   prometheus.Counter
	factsDropped   prometheus.Counter
	uploadsFailed  prometheus.Counter
	pollSuccess    prometheus.Counter
	pollFailure    prometheus.Counter
}

var (
	ingestOnce sync.Once
	ingest     *Ingestion
)

// Ingest returns the process-wide ingestion metrics, registering them
// on first use.
func Ingest() *Ingestion {
	ingestOnce.Do(func() {
		ingest = &Ingestion{
			rowsNormalized: promauto.NewCounter(prometheus.CounterOpts{
				Name: "costplane_ingest_rows_normalized_total",
				Help: "Raw rows normalized onto the canonical schema.",
			}),
			factsFlushed: promauto.NewCounter(prometheus.CounterOpts{
				Name: "costplane_ingest_facts_flushed_total",
				Help: "Billing usage facts persisted by stager flushes.",
			}),
			factsDropped: promauto.NewCounter(prometheus.CounterOpts{
				Name: "costplane_ingest_facts_dropped_total",
				Help: "Buffered fact rows excluded for missing required dimension ids.",
			}),
			uploadsFailed: promauto.NewCounter(prometheus.CounterOpts{
				Name: "costplane_ingest_uploads_failed_total",
				Help: "Uploads transitioned to FAILED.",
			}),
			pollSuccess: promauto.NewCounter(prometheus.CounterOpts{
				Name: "costplane_poll_integration_success_total",
				Help: "Integration polls that completed without error.",
			}),
			pollFailure: promauto.NewCounter(prometheus.CounterOpts{
				Name: "costplane_poll_integration_failure_total",
				Help: "Integration polls that returned an error.",
			}),
		}
	})
	return ingest
}

func (m *Ingestion) AddRowsNormalized(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.rowsNormalized.Add(float64(n))
}

func (m *Ingestion) AddFactsFlushed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.factsFlushed.Add(float64(n))
}

func (m *Ingestion) AddFactsDropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.factsDropped.Add(float64(n))
}

func (m *Ingestion) IncUploadFailed() {
	if m == nil {
		return
	}
	m.uploadsFailed.Inc()
}

func (m *Ingestion) IncPollSuccess() {
	if m == nil {
		return
	}
	m.pollSuccess.Inc()
}

func (m *Ingestion) IncPollFailure() {
	if m == nil {
		return
	}
	m.pollFailure.Inc()
}
