// Package metrics provides Prometheus metrics for CAM ingestion and pricing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion metrics
	ArchivesIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pcbquote_archives_ingested_total",
			Help: "CAM archives processed, by outcome",
		},
		[]string{"outcome"},
	)

	IngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pcbquote_ingest_duration_seconds",
			Help:    "Time taken to decode and classify one archive",
			Buckets: prometheus.DefBuckets,
		},
	)

	LayersClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pcbquote_layers_classified_total",
			Help: "Archive entries classified, by layer kind",
		},
		[]string{"kind"},
	)

	DrillHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pcbquote_drill_hits_total",
			Help: "Drill hits counted, by class",
		},
		[]string{"class"},
	)

	WatchArchives = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pcbquote_watch_archives_total",
			Help: "Archives picked up from the watch directory, by outcome",
		},
		[]string{"outcome"},
	)

	// Pricing metrics
	QuotesPriced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pcbquote_quotes_priced_total",
			Help: "Price calculations served, by payment method",
		},
		[]string{"payment_method"},
	)

	QuoteTotal = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pcbquote_quote_total",
			Help:    "Distribution of quoted totals",
			Buckets: []float64{100, 250, 500, 1000, 2500, 5000, 10000, 50000},
		},
	)

	PricingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pcbquote_pricing_duration_seconds",
			Help:    "Time taken by one price calculation",
			Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005},
		},
	)

	RuleMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pcbquote_rule_mutations_total",
			Help: "Admin edits to the pricing rule table, by operation",
		},
		[]string{"operation"},
	)
)
