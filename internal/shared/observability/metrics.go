package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ngstandalone_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	PhaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ngstandalone_phase_seconds",
		Help:    "Time spent in a migration phase.",
		Buckets: prometheus.DefBuckets,
	}, []string{"phase"})

	ModulesScanned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ngstandalone_modules_scanned_total",
		Help: "Total number of module declarations found by the graph builder.",
	})

	CandidatesFound = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ngstandalone_candidates_total",
		Help: "Total number of module declarations with the eligible shape.",
	})

	ModulesConverted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ngstandalone_modules_converted_total",
		Help: "Total number of modules folded into standalone artifacts, by artifact kind.",
	}, []string{"kind"})

	ModulesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ngstandalone_modules_skipped_total",
		Help: "Total number of candidate modules left untouched, by reason.",
	}, []string{"reason"})

	FilesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ngstandalone_files_written_total",
		Help: "Total number of files flushed to storage.",
	})
)

// WriteTextfile dumps the default registry in the node-exporter textfile format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
