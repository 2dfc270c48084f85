package monitor

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	RESULT_OK       = "ok"
	RESULT_REJECTED = "rejected"
	RESULT_FAILED   = "failed"
)

type Metrics struct {
	OnlinePlayers  prometheus.Gauge
	ActiveRooms    prometheus.Gauge
	ActionsTotal   *prometheus.CounterVec
	TxnConflicts   prometheus.Counter
	AgentActions   *prometheus.CounterVec
	ActionLatency  prometheus.Histogram
	RoomsCollected prometheus.Counter
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		OnlinePlayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_players",
			Help:      "Number of open websocket connections",
		}),
		ActiveRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_rooms",
			Help:      "Number of rooms supervised by this process",
		}),
		ActionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Room actions by request type and outcome",
		}, []string{"type", "result"}),
		TxnConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "txn_conflicts_total",
			Help:      "Room transactions that exhausted their retries",
		}),
		AgentActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_actions_total",
			Help:      "Actions submitted by the liveness agent",
		}, []string{"type"}),
		ActionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "action_latency_seconds",
			Help:      "Room action processing latency",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
		}),
		RoomsCollected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rooms_collected_total",
			Help:      "Idle rooms removed by the cleanup loop",
		}),
	}
}

// Monitor 持有独立的 Registry，多个实例（例如测试中）互不冲突
type Monitor struct {
	metrics  *Metrics
	registry *prometheus.Registry
}

func NewMonitor(namespace string) *Monitor {
	m := &Monitor{
		metrics:  NewMetrics(namespace),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.metrics.OnlinePlayers,
		m.metrics.ActiveRooms,
		m.metrics.ActionsTotal,
		m.metrics.TxnConflicts,
		m.metrics.AgentActions,
		m.metrics.ActionLatency,
		m.metrics.RoomsCollected,
	)

	return m
}

func (m *Monitor) Metrics() *Metrics {
	return m.metrics
}

func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Monitor) IncOnlinePlayers() {
	m.metrics.OnlinePlayers.Inc()
}

func (m *Monitor) DecOnlinePlayers() {
	m.metrics.OnlinePlayers.Dec()
}

func (m *Monitor) SetActiveRooms(count int) {
	m.metrics.ActiveRooms.Set(float64(count))
}

func (m *Monitor) ObserveAction(reqType, result string, duration time.Duration) {
	m.metrics.ActionsTotal.WithLabelValues(reqType, result).Inc()
	m.metrics.ActionLatency.Observe(duration.Seconds())
}

func (m *Monitor) IncTxnConflicts() {
	m.metrics.TxnConflicts.Inc()
}

func (m *Monitor) IncAgentAction(reqType string) {
	m.metrics.AgentActions.WithLabelValues(reqType).Inc()
}

func (m *Monitor) AddRoomsCollected(n int) {
	m.metrics.RoomsCollected.Add(float64(n))
}
