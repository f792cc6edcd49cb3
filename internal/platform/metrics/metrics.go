package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus counters for core domain actions.
type Metrics struct {
	IdentitiesCreated    prometheus.Counter
	CredentialsIssued    prometheus.Counter
	CredentialsRevoked   prometheus.Counter
	EventsAppended       *prometheus.CounterVec
	AttestationsIssued   prometheus.Counter
	PresentationsCreated prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		IdentitiesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agritrust_identities_created_total",
			Help: "Total number of stakeholder identities created",
		}),
		CredentialsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agritrust_credentials_issued_total",
			Help: "Total number of verifiable credentials issued",
		}),
		CredentialsRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agritrust_credentials_revoked_total",
			Help: "Total number of verifiable credentials revoked",
		}),
		EventsAppended: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "agritrust_supply_chain_events_total",
			Help: "Total number of supply chain events appended, by event type",
		}, []string{"type"}),
		AttestationsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agritrust_lab_attestations_issued_total",
			Help: "Total number of lab attestations issued",
		}),
		PresentationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agritrust_presentations_created_total",
			Help: "Total number of verifiable presentations assembled",
		}),
	}
}
