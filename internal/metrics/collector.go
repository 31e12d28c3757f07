package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Tail loop metrics
	LinesRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sckillfeed_lines_read_total",
			Help: "Raw lines read from the game log",
		},
	)
	Rotations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sckillfeed_rotations_total",
			Help: "Log file rotations detected",
		},
	)
	Truncations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sckillfeed_truncations_total",
			Help: "In-place log truncations detected",
		},
	)
	ReadErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sckillfeed_read_errors_total",
			Help: "Transient read errors during polling",
		},
	)

	// Parser metrics
	EventsParsed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sckillfeed_events_parsed_total",
			Help: "Lines parsed into kill events",
		},
	)
	ParseSkips = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sckillfeed_parse_skips_total",
			Help: "Lines matching no parser rule",
		},
	)

	// Pipeline metrics
	EventsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sckillfeed_events_published_total",
			Help: "Kill events published to the feed",
		},
	)
	Duplicates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sckillfeed_duplicates_total",
			Help: "Kill events suppressed by the dedup window",
		},
	)
	CSVErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sckillfeed_csv_errors_total",
			Help: "Failed CSV history appends",
		},
	)

	// Engine state: 0 stopped, 1 starting, 2 running, 3 error
	EngineState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sckillfeed_engine_state",
			Help: "Current tail engine state",
		},
	)
)
