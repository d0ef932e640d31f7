package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/langchou/parklot/internal/events"
	"github.com/langchou/parklot/internal/models"
)

// Metrics 业务指标，由事件总线驱动
type Metrics struct {
	EventsTotal    *prometheus.CounterVec
	FinesGenerated *prometheus.CounterVec
	RevenueTotal   prometheus.Counter
	OpenSessions   prometheus.Gauge
}

// NewMetrics 注册指标
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parklot",
			Name:      "events_total",
			Help:      "Domain events published, by kind.",
		}, []string{"kind"}),
		FinesGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parklot",
			Name:      "fines_generated_total",
			Help:      "Fines generated, by fine kind.",
		}, []string{"kind"}),
		RevenueTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "parklot",
			Name:      "revenue_total",
			Help:      "Total amount collected across all payments.",
		}),
		OpenSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "parklot",
			Name:      "open_sessions",
			Help:      "Vehicles currently inside the facility.",
		}),
	}
	registry.MustRegister(m.EventsTotal, m.FinesGenerated, m.RevenueTotal, m.OpenSessions)
	return m
}

// Observe 订阅事件总线，把领域事件折算成指标
func (m *Metrics) Observe(bus *events.Bus) {
	bus.Subscribe("telemetry", func(event events.Event) {
		m.EventsTotal.WithLabelValues(string(event.Kind)).Inc()
		switch event.Kind {
		case events.VehicleEntered:
			m.OpenSessions.Inc()
		case events.VehicleExited:
			m.OpenSessions.Dec()
		case events.FineGenerated:
			if fine, ok := event.Payload.(*models.Fine); ok {
				m.FinesGenerated.WithLabelValues(string(fine.Kind)).Inc()
			}
		case events.PaymentProcessed:
			if payment, ok := event.Payload.(*models.Payment); ok {
				m.RevenueTotal.Add(payment.Total)
			}
		}
	})
}
