// Package metrics собирает метрики Prometheus по экспорту, квотам и журналу действий.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Результаты экспорта для метки result.
const (
	ExportSucceeded     = "succeeded"
	ExportQuotaExceeded = "quota_exceeded"
	ExportRenderFailed  = "render_failed"
	ExportUploadFailed  = "upload_failed"
	ExportCommitFailed  = "commit_failed"
	ExportNotFound      = "not_found"
)

// Collector хранит метрики сервиса и регистрирует их в переданном реестре.
type Collector struct {
	exports          *prometheus.CounterVec
	exportDuration   prometheus.Histogram
	auditFailures    *prometheus.CounterVec
	publishFailures  prometheus.Counter
	orphanedArtifact prometheus.Counter
	quotaResets      prometheus.Counter
}

// NewCollector создаёт Collector и регистрирует метрики в reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "content_generator_exports_total",
			Help: "Export attempts by result",
		}, []string{"result"}),
		exportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "content_generator_export_duration_seconds",
			Help:    "Duration of successful exports including render and upload",
			Buckets: prometheus.DefBuckets,
		}),
		auditFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "content_generator_audit_append_failures_total",
			Help: "History entries that could not be written after the primary operation succeeded",
		}, []string{"action_type"}),
		publishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "content_generator_export_event_publish_failures_total",
			Help: "Export events that could not be published to the broker",
		}),
		orphanedArtifact: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "content_generator_orphaned_artifacts_total",
			Help: "Uploaded artifacts left in the blob store after a failed commit",
		}),
		quotaResets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "content_generator_quota_resets_total",
			Help: "Users whose monthly export counter was reset",
		}),
	}

	reg.MustRegister(
		c.exports,
		c.exportDuration,
		c.auditFailures,
		c.publishFailures,
		c.orphanedArtifact,
		c.quotaResets,
	)

	return c
}

// RecordExport учитывает попытку экспорта с результатом result.
func (c *Collector) RecordExport(result string) {
	c.exports.WithLabelValues(result).Inc()
}

// RecordExportDuration учитывает длительность успешного экспорта.
func (c *Collector) RecordExportDuration(d time.Duration) {
	c.exportDuration.Observe(d.Seconds())
}

// RecordAuditFailure учитывает несохранённую запись журнала.
func (c *Collector) RecordAuditFailure(actionType string) {
	c.auditFailures.WithLabelValues(actionType).Inc()
}

// RecordPublishFailure учитывает неотправленное событие экспорта.
func (c *Collector) RecordPublishFailure() {
	c.publishFailures.Inc()
}

// RecordOrphanedArtifact учитывает файл, который не удалось удалить после неудачной фиксации.
func (c *Collector) RecordOrphanedArtifact() {
	c.orphanedArtifact.Inc()
}

// RecordQuotaResets учитывает количество сброшенных счётчиков.
func (c *Collector) RecordQuotaResets(n int) {
	c.quotaResets.Add(float64(n))
}

// Handler возвращает HTTP-обработчик для сбора метрик из gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop — пустая реализация для тестов и бинарников без /metrics.
type Nop struct{}

func (Nop) RecordExport(string)                {}
func (Nop) RecordExportDuration(time.Duration) {}
func (Nop) RecordAuditFailure(string)          {}
func (Nop) RecordPublishFailure()              {}
func (Nop) RecordOrphanedArtifact()            {}
func (Nop) RecordQuotaResets(int)              {}
