package metrics

import (
	"encoding/json"
	"net/http"
	"time"

	dto "github.com/prometheus/client_model/go"
)

// Summary is the JSON response for the metrics endpoint.
type Summary struct {
	HTTP     httpSummary     `json:"http"`
	Workflow workflowSummary `json:"workflow"`
	Audit    auditSummary    `json:"audit"`
	DB       dbInfo          `json:"db"`
	Server   serverInfo      `json:"server"`
}

type httpSummary struct {
	TotalRequests float64 `json:"totalRequests"`
	ErrorRate     float64 `json:"errorRate"`
}

type workflowSummary struct {
	RelationshipsCreated float64 `json:"relationshipsCreated"`
	TaskTransitions      float64 `json:"taskTransitions"`
	TasksCompleted       float64 `json:"tasksCompleted"`
	TasksOverdue         float64 `json:"tasksOverdue"`
	Submissions          float64 `json:"submissions"`
	Reviews              float64 `json:"reviews"`
	InvitationsSent      float64 `json:"invitationsSent"`
	InvitationsAccepted  float64 `json:"invitationsAccepted"`
}

type auditSummary struct {
	BufferSize   float64 `json:"bufferSize"`
	TotalFlushes float64 `json:"totalFlushes"`
	FlushErrors  float64 `json:"flushErrors"`
	Events       float64 `json:"events"`
}

type dbInfo struct {
	TotalConns    float64 `json:"totalConns"`
	IdleConns     float64 `json:"idleConns"`
	AcquiredConns float64 `json:"acquiredConns"`
}

type serverInfo struct {
	StartTime     float64 `json:"startTime"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
}

// Handler returns an http.HandlerFunc that serves live metrics as JSON.
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.handleLive(w)
	}
}

func (m *Metrics) handleLive(w http.ResponseWriter) {
	families, err := m.registry.Gather()
	if err != nil {
		http.Error(w, "failed to gather metrics", http.StatusInternalServerError)
		return
	}

	fam := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		fam[f.GetName()] = f
	}

	summary := Summary{
		HTTP: httpSummary{
			TotalRequests: sumCounter(fam["coachwork_http_requests_total"]),
			ErrorRate:     computeErrorRate(fam["coachwork_http_requests_total"]),
		},
		Workflow: workflowSummary{
			RelationshipsCreated: counterValue(fam["coachwork_relationships_created_total"]),
			TaskTransitions:      sumCounter(fam["coachwork_task_transitions_total"]),
			TasksCompleted:       counterWithLabel(fam["coachwork_task_transitions_total"], "to", "completed"),
			TasksOverdue:         counterWithLabel(fam["coachwork_task_transitions_total"], "to", "overdue"),
			Submissions:          counterValue(fam["coachwork_submissions_total"]),
			Reviews:              sumCounter(fam["coachwork_reviews_total"]),
			InvitationsSent:      counterWithLabel(fam["coachwork_invitations_total"], "action", "sent"),
			InvitationsAccepted:  counterWithLabel(fam["coachwork_invitations_total"], "action", "accepted"),
		},
		Audit: auditSummary{
			BufferSize:   gaugeValue(fam["coachwork_audit_buffer_size"]),
			TotalFlushes: sumCounter(fam["coachwork_audit_flushes_total"]),
			FlushErrors:  counterWithLabel(fam["coachwork_audit_flushes_total"], "status", "error"),
			Events:       counterValue(fam["coachwork_audit_events_total"]),
		},
		DB: dbInfo{
			TotalConns:    gaugeValue(fam["coachwork_db_pool_total_conns"]),
			IdleConns:     gaugeValue(fam["coachwork_db_pool_idle_conns"]),
			AcquiredConns: gaugeValue(fam["coachwork_db_pool_acquired_conns"]),
		},
		Server: serverInfo{
			StartTime:     gaugeValue(fam["coachwork_server_start_time_seconds"]),
			UptimeSeconds: float64(time.Now().Unix()) - gaugeValue(fam["coachwork_server_start_time_seconds"]),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store")
	_ = json.NewEncoder(w).Encode(summary)
}

// --- Prometheus metric helpers ---

func sumCounter(f *dto.MetricFamily) float64 {
	if f == nil {
		return 0
	}
	var total float64
	for _, m := range f.GetMetric() {
		if m.GetCounter() != nil {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func gaugeValue(f *dto.MetricFamily) float64 {
	if f == nil {
		return 0
	}
	ms := f.GetMetric()
	if len(ms) == 0 {
		return 0
	}
	if ms[0].GetGauge() != nil {
		return ms[0].GetGauge().GetValue()
	}
	return 0
}

func counterValue(f *dto.MetricFamily) float64 {
	if f == nil {
		return 0
	}
	ms := f.GetMetric()
	if len(ms) == 0 {
		return 0
	}
	if ms[0].GetCounter() != nil {
		return ms[0].GetCounter().GetValue()
	}
	return 0
}

func counterWithLabel(f *dto.MetricFamily, labelName, labelValue string) float64 {
	if f == nil {
		return 0
	}
	for _, m := range f.GetMetric() {
		for _, lp := range m.GetLabel() {
			if lp.GetName() == labelName && lp.GetValue() == labelValue {
				if m.GetCounter() != nil {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func computeErrorRate(f *dto.MetricFamily) float64 {
	if f == nil {
		return 0
	}
	var total, errors float64
	for _, m := range f.GetMetric() {
		if m.GetCounter() == nil {
			continue
		}
		v := m.GetCounter().GetValue()
		total += v
		for _, lp := range m.GetLabel() {
			if lp.GetName() == "status_code" {
				code := lp.GetValue()
				if len(code) > 0 && code[0] >= '4' {
					errors += v
				}
			}
		}
	}
	if total == 0 {
		return 0
	}
	return errors / total
}
