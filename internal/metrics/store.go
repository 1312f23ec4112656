// Package metrics defines the Prometheus collectors exported by folio.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Page list and store metrics.
var (
	PageListDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "folio",
			Name:      "page_list_duration_seconds",
			Help:      "Duration of composed page list queries in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"status"},
	)

	PageListJoins = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "folio",
			Name:      "page_list_joins",
			Help:      "Number of property value joins per composed page list query",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64},
		},
	)

	StaleClausesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "folio",
			Name:      "stale_clauses_dropped_total",
			Help:      "Filters and sort directives skipped because their property is gone",
		},
		[]string{"clause"}, // "filter" / "sort"
	)

	ValueUpsertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "folio",
			Name:      "value_upserts_total",
			Help:      "Property value writes by value type",
		},
		[]string{"type"},
	)

	FilterConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "folio",
			Name:      "filter_conflicts_total",
			Help:      "Filter creations rejected because the property already has a filter",
		},
	)
)

// Clause labels for StaleClausesDropped.
const (
	ClauseFilter = "filter"
	ClauseSort   = "sort"
)

func init() {
	prometheus.MustRegister(PageListDuration)
	prometheus.MustRegister(PageListJoins)
	prometheus.MustRegister(StaleClausesDropped)
	prometheus.MustRegister(ValueUpsertsTotal)
	prometheus.MustRegister(FilterConflictsTotal)
}
