package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters for the appointment sync flows.
type BookingMetrics struct {
	bookedTotal    *prometheus.CounterVec
	cancelledTotal prometheus.Counter
	syncFailures   *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "booked_total",
			Help:      "Appointments booked, by remote sync outcome",
		}, []string{"sync_status"}),
		cancelledTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "cancelled_total",
			Help:      "Appointments cancelled",
		}),
		syncFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "directory",
			Name:      "sync_failures_total",
			Help:      "Failed directory writes, by operation",
		}, []string{"op"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookedTotal, m.cancelledTotal, m.syncFailures)
	return m
}

func (m *BookingMetrics) ObserveBooked(syncStatus string) {
	if m == nil {
		return
	}
	m.bookedTotal.WithLabelValues(syncStatus).Inc()
}

func (m *BookingMetrics) ObserveCancelled() {
	if m == nil {
		return
	}
	m.cancelledTotal.Inc()
}

func (m *BookingMetrics) ObserveSyncFailure(op string) {
	if m == nil {
		return
	}
	m.syncFailures.WithLabelValues(op).Inc()
}
