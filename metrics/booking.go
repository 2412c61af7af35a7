package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking lifecycle.
type BookingMetrics struct {
	transitions   *prometheus.CounterVec
	rejections    *prometheus.CounterVec
	notifications *prometheus.CounterVec
	expired       prometheus.Counter
	httpLatency   *prometheus.HistogramVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "manmitra",
			Subsystem: "booking",
			Name:      "transitions_total",
			Help:      "Booking state transitions by resulting state",
		}, []string{"operation", "status"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "manmitra",
			Subsystem: "booking",
			Name:      "rejections_total",
			Help:      "Booking operations rejected by rule",
		}, []string{"operation", "code"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "manmitra",
			Subsystem: "notification",
			Name:      "emails_total",
			Help:      "Notification emails by kind and outcome",
		}, []string{"kind", "outcome"}),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "manmitra",
			Subsystem: "booking",
			Name:      "expired_holds_total",
			Help:      "Pending holds released after their expiry",
		}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "manmitra",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.transitions, m.rejections, m.notifications, m.expired, m.httpLatency)
	return m
}

func (m *BookingMetrics) ObserveTransition(operation, status string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(operation, status).Inc()
}

func (m *BookingMetrics) ObserveRejection(operation, code string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(operation, code).Inc()
}

// ObserveNotification records delivered and failed counts for one dispatch.
func (m *BookingMetrics) ObserveNotification(kind string, delivered, failed int) {
	if m == nil {
		return
	}
	if delivered > 0 {
		m.notifications.WithLabelValues(kind, "delivered").Add(float64(delivered))
	}
	if failed > 0 {
		m.notifications.WithLabelValues(kind, "failed").Add(float64(failed))
	}
}

func (m *BookingMetrics) ObserveExpired(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.expired.Add(float64(n))
}

func (m *BookingMetrics) ObserveRequest(route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpLatency.WithLabelValues(route, status).Observe(seconds)
}
