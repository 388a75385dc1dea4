package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rickgao/rtds-recorder/internal/writer"
)

var (
	writerInsertsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "writer", "inserts_total"),
		"Rows inserted by the writer.",
		[]string{"writer"}, nil,
	)
	writerConflictsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "writer", "conflicts_total"),
		"Duplicate rows dropped by ON CONFLICT.",
		[]string{"writer"}, nil,
	)
	writerErrorsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "writer", "errors_total"),
		"Failed batch inserts.",
		[]string{"writer"}, nil,
	)
	writerFlushesDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "writer", "flushes_total"),
		"Successful batch flushes.",
		[]string{"writer"}, nil,
	)
	writerSkippedDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "writer", "skipped_total"),
		"Messages lost because the writer lagged behind the stream.",
		[]string{"writer"}, nil,
	)
	writerInvalidDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "writer", "invalid_total"),
		"Messages dropped because their payload failed to decode.",
		[]string{"writer"}, nil,
	)
)

// WriterStats is implemented by writer.PriceWriter.
type WriterStats interface {
	Stats() writer.WriterMetrics
}

// writerCollector reads writer counters at scrape time.
type writerCollector struct {
	name string
	src  WriterStats
}

// NewWriterCollector returns a collector exporting the counters of src.
func NewWriterCollector(name string, src WriterStats) prometheus.Collector {
	return &writerCollector{name: name, src: src}
}

// RegisterWriter registers a writer collector with the default registry.
func RegisterWriter(name string, src WriterStats) error {
	return prometheus.Register(NewWriterCollector(name, src))
}

func (c *writerCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- writerInsertsDesc
	ch <- writerConflictsDesc
	ch <- writerErrorsDesc
	ch <- writerFlushesDesc
	ch <- writerSkippedDesc
	ch <- writerInvalidDesc
}

func (c *writerCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.Stats()
	ch <- prometheus.MustNewConstMetric(writerInsertsDesc, prometheus.CounterValue, float64(s.Inserts), c.name)
	ch <- prometheus.MustNewConstMetric(writerConflictsDesc, prometheus.CounterValue, float64(s.Conflicts), c.name)
	ch <- prometheus.MustNewConstMetric(writerErrorsDesc, prometheus.CounterValue, float64(s.Errors), c.name)
	ch <- prometheus.MustNewConstMetric(writerFlushesDesc, prometheus.CounterValue, float64(s.Flushes), c.name)
	ch <- prometheus.MustNewConstMetric(writerSkippedDesc, prometheus.CounterValue, float64(s.Skipped), c.name)
	ch <- prometheus.MustNewConstMetric(writerInvalidDesc, prometheus.CounterValue, float64(s.Invalid), c.name)
}
