package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds all Prometheus metric collectors for the workflow engine.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Workflow metrics.
	RelationshipsCreatedTotal prometheus.Counter
	TaskTransitionsTotal      *prometheus.CounterVec
	SubmissionsTotal          prometheus.Counter
	ReviewsTotal              *prometheus.CounterVec
	InvitationsTotal          *prometheus.CounterVec

	// Audit recorder metrics.
	AuditBufferSize   prometheus.Gauge
	AuditFlushesTotal *prometheus.CounterVec
	AuditEventsTotal  prometheus.Counter

	// Server lifecycle.
	ServerStartTime prometheus.Gauge
}

// New creates and registers all Prometheus metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coachwork_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status_code"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coachwork_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path_pattern"}),

		RelationshipsCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coachwork_relationships_created_total",
			Help: "Total number of coaching relationships created.",
		}),

		TaskTransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coachwork_task_transitions_total",
			Help: "Total number of task status transitions by target status.",
		}, []string{"to"}),

		SubmissionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coachwork_submissions_total",
			Help: "Total number of task submissions accepted.",
		}),

		ReviewsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coachwork_reviews_total",
			Help: "Total number of submission reviews by outcome.",
		}, []string{"outcome"}),

		InvitationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coachwork_invitations_total",
			Help: "Total number of invitation lifecycle actions.",
		}, []string{"action"}),

		AuditBufferSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coachwork_audit_buffer_size",
			Help: "Current number of buffered audit events.",
		}),

		AuditFlushesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coachwork_audit_flushes_total",
			Help: "Total number of audit recorder flushes.",
		}, []string{"status"}),

		AuditEventsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coachwork_audit_events_total",
			Help: "Total number of audit events recorded.",
		}),

		ServerStartTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coachwork_server_start_time_seconds",
			Help: "Unix timestamp when the server started.",
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.RelationshipsCreatedTotal,
		m.TaskTransitionsTotal,
		m.SubmissionsTotal,
		m.ReviewsTotal,
		m.InvitationsTotal,
		m.AuditBufferSize,
		m.AuditFlushesTotal,
		m.AuditEventsTotal,
		m.ServerStartTime,
	)

	m.ServerStartTime.Set(float64(time.Now().Unix()))

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

// Registry returns the private Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RegisterDBPoolCollector registers a custom DB pool stats collector.
func (m *Metrics) RegisterDBPoolCollector(statFunc DBPoolStatFunc) {
	m.registry.MustRegister(NewDBPoolCollector(statFunc))
}

// ObserveHTTPRequest records one completed HTTP request.
func (m *Metrics) ObserveHTTPRequest(method, pathPattern string, statusCode int, duration time.Duration) {
	code := fmt.Sprintf("%d", statusCode)
	m.HTTPRequestsTotal.WithLabelValues(method, pathPattern, code).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, pathPattern).Observe(duration.Seconds())
}

// IncTaskTransition increments the task transition counter for the given
// target status.
func (m *Metrics) IncTaskTransition(to string) {
	if m == nil {
		return
	}
	m.TaskTransitionsTotal.WithLabelValues(to).Inc()
}

// IncRelationshipCreated increments the relationship creation counter.
func (m *Metrics) IncRelationshipCreated() {
	if m == nil {
		return
	}
	m.RelationshipsCreatedTotal.Inc()
}

// IncSubmission increments the submissions counter.
func (m *Metrics) IncSubmission() {
	if m == nil {
		return
	}
	m.SubmissionsTotal.Inc()
}

// IncReview increments the review counter for the given outcome.
func (m *Metrics) IncReview(outcome string) {
	if m == nil {
		return
	}
	m.ReviewsTotal.WithLabelValues(outcome).Inc()
}

// IncInvitation increments the invitation counter for the given action.
func (m *Metrics) IncInvitation(action string) {
	if m == nil {
		return
	}
	m.InvitationsTotal.WithLabelValues(action).Inc()
}
