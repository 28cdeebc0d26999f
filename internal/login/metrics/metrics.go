package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts every observable edge of the login flow.
type Metrics struct {
	LoginsTotal           prometheus.Counter
	ReplaysTotal          prometheus.Counter
	LogoutsTotal          prometheus.Counter
	PopupsOpenedTotal     prometheus.Counter
	PopupsBlockedTotal    prometheus.Counter
	PopupsAbandonedTotal  prometheus.Counter
	MessagesIgnoredTotal  prometheus.Counter
	MessagesRejectedTotal prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		LoginsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "guahh_connect_logins_total",
			Help: "Total number of handshakes accepted and persisted",
		}),
		ReplaysTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "guahh_connect_session_replays_total",
			Help: "Total number of cached sessions replayed at init",
		}),
		LogoutsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "guahh_connect_logouts_total",
			Help: "Total number of logouts",
		}),
		PopupsOpenedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "guahh_connect_popups_opened_total",
			Help: "Total number of authentication popups opened",
		}),
		PopupsBlockedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "guahh_connect_popups_blocked_total",
			Help: "Total number of popup open attempts the launcher refused",
		}),
		PopupsAbandonedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "guahh_connect_popups_abandoned_total",
			Help: "Total number of popups closed manually before a handshake",
		}),
		MessagesIgnoredTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "guahh_connect_messages_ignored_total",
			Help: "Total number of messages dropped by the type filter",
		}),
		MessagesRejectedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "guahh_connect_messages_rejected_total",
			Help: "Total number of well-typed messages failing origin or ticket checks",
		}),
	}
}

func (m *Metrics) IncrementLogins() {
	m.LoginsTotal.Inc()
}

func (m *Metrics) IncrementReplays() {
	m.ReplaysTotal.Inc()
}

func (m *Metrics) IncrementLogouts() {
	m.LogoutsTotal.Inc()
}

func (m *Metrics) IncrementPopupsOpened() {
	m.PopupsOpenedTotal.Inc()
}

func (m *Metrics) IncrementPopupsBlocked() {
	m.PopupsBlockedTotal.Inc()
}

func (m *Metrics) IncrementPopupsAbandoned() {
	m.PopupsAbandonedTotal.Inc()
}

func (m *Metrics) IncrementMessagesIgnored() {
	m.MessagesIgnoredTotal.Inc()
}

func (m *Metrics) IncrementMessagesRejected() {
	m.MessagesRejectedTotal.Inc()
}
