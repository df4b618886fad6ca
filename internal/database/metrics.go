package database

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

type connectorStats struct {
	connects        atomic.Uint64
	connectFailures atomic.Uint64
	queries         [3]atomic.Uint64
	queryErrors     atomic.Uint64
}

// MetricsCollector exports a connector's counters to Prometheus. Collect
// only reads atomics, so scrapes may run on another goroutine.
type MetricsCollector struct {
	conn *Connector

	connectsDesc        *prometheus.Desc
	connectFailuresDesc *prometheus.Desc
	queriesDesc         *prometheus.Desc
	queryErrorsDesc     *prometheus.Desc
}

func NewMetricsCollector(conn *Connector) *MetricsCollector {
	return &MetricsCollector{
		conn: conn,
		connectsDesc: prometheus.NewDesc(
			"conn2db_connects_total",
			"Number of successful connection attempts",
			nil,
			nil,
		),
		connectFailuresDesc: prometheus.NewDesc(
			"conn2db_connect_failures_total",
			"Number of failed connection attempts",
			nil,
			nil,
		),
		queriesDesc: prometheus.NewDesc(
			"conn2db_queries_total",
			"Number of statements executed, by result kind",
			[]string{"kind"},
			nil,
		),
		queryErrorsDesc: prometheus.NewDesc(
			"conn2db_query_errors_total",
			"Number of statements that failed to prepare, bind or execute",
			nil,
			nil,
		),
	}
}

func (c *MetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.connectsDesc
	ch <- c.connectFailuresDesc
	ch <- c.queriesDesc
	ch <- c.queryErrorsDesc
}

func (c *MetricsCollector) Collect(ch chan<- prometheus.Metric) {
	s := &c.conn.stats

	ch <- prometheus.MustNewConstMetric(c.connectsDesc, prometheus.CounterValue, float64(s.connects.Load()))
	ch <- prometheus.MustNewConstMetric(c.connectFailuresDesc, prometheus.CounterValue, float64(s.connectFailures.Load()))
	for _, kind := range []StatementKind{KindNone, KindRows, KindAffected} {
		ch <- prometheus.MustNewConstMetric(
			c.queriesDesc,
			prometheus.CounterValue,
			float64(s.queries[kind].Load()),
			kind.String(),
		)
	}
	ch <- prometheus.MustNewConstMetric(c.queryErrorsDesc, prometheus.CounterValue, float64(s.queryErrors.Load()))
}
