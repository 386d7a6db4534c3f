package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CredentialsIssued counts issued credentials by key type.
	CredentialsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broker_credentials_issued_total",
			Help: "Total number of credentials issued",
		},
		[]string{"key_type"},
	)

	// ReservationsCreated counts created reservations, split by root vs
	// extension.
	ReservationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broker_reservations_created_total",
			Help: "Total number of reservations created",
		},
		[]string{"kind"},
	)

	// ReservationsPurged counts expired reservations removed by the sweeper.
	ReservationsPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broker_reservations_purged_total",
			Help: "Total number of expired reservations purged",
		},
	)

	// KeygenDuration observes how long the external keygen tool takes.
	KeygenDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "broker_keygen_duration_seconds",
			Help:    "Key generation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// KeygenFailures counts failed key generation attempts.
	KeygenFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broker_keygen_failures_total",
			Help: "Total number of failed key generation attempts",
		},
	)
)

// RegisterPgxPoolMetrics exposes pgx connection pool statistics as Prometheus gauges.
func RegisterPgxPoolMetrics(pool *pgxpool.Pool) {
	prometheus.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "pgxpool_acquired_conns",
			Help: "Number of currently acquired connections in the pool",
		}, func() float64 {
			return float64(pool.Stat().AcquiredConns())
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "pgxpool_max_conns",
			Help: "Maximum number of connections in the pool",
		}, func() float64 {
			return float64(pool.Stat().MaxConns())
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "pgxpool_total_conns",
			Help: "Total number of connections in the pool",
		}, func() float64 {
			return float64(pool.Stat().TotalConns())
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "pgxpool_idle_conns",
			Help: "Number of idle connections in the pool",
		}, func() float64 {
			return float64(pool.Stat().IdleConns())
		}),
	)
}
