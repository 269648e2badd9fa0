package clinauth

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors the engine updates. All methods
// are nil-safe so an engine built without metrics pays nothing.
type Metrics struct {
	logins        *prometheus.CounterVec
	registrations *prometheus.CounterVec
	refreshes     *prometheus.CounterVec
	authzChecks   *prometheus.CounterVec
	sessionEvents *prometheus.CounterVec
}

// NewMetrics builds the collector set and registers it with reg. Passing a
// dedicated [prometheus.Registry] keeps tests isolated from the default
// registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clinauth_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clinauth_registrations_total",
			Help: "Registration attempts by outcome.",
		}, []string{"outcome"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clinauth_refreshes_total",
			Help: "Refresh rotations by outcome.",
		}, []string{"outcome"}),
		authzChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clinauth_authz_decisions_total",
			Help: "Authorization decisions by role and outcome.",
		}, []string{"role", "outcome"}),
		sessionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clinauth_session_events_total",
			Help: "Session lifecycle events by kind.",
		}, []string{"kind"}),
	}
	if reg != nil {
		reg.MustRegister(m.logins, m.registrations, m.refreshes, m.authzChecks, m.sessionEvents)
	}
	return m
}

func (m *Metrics) login(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) registration(outcome string) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) refresh(outcome string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) authz(role, outcome string) {
	if m == nil {
		return
	}
	m.authzChecks.WithLabelValues(role, outcome).Inc()
}

func (m *Metrics) sessionEvent(kind string) {
	if m == nil {
		return
	}
	m.sessionEvents.WithLabelValues(kind).Inc()
}
