package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolStats is a snapshot of connection pool statistics.
type PoolStats struct {
	Acquired             int32
	Idle                 int32
	Total                int32
	Max                  int32
	EmptyAcquireCount    int64
	AcquireDurationTotal float64
}

// StatFunc returns the current statistics of a pool.
type StatFunc func() PoolStats

// PgxPoolStats reads the statistics of a pgx pool.
func PgxPoolStats(pool *pgxpool.Pool) StatFunc {
	return func() PoolStats {
		s := pool.Stat()
		return PoolStats{
			Acquired:             s.AcquiredConns(),
			Idle:                 s.IdleConns(),
			Total:                s.TotalConns(),
			Max:                  s.MaxConns(),
			EmptyAcquireCount:    s.EmptyAcquireCount(),
			AcquireDurationTotal: s.AcquireDuration().Seconds(),
		}
	}
}

// RegisterPoolMetrics exposes connection pool statistics on reg.
func RegisterPoolMetrics(reg prometheus.Registerer, stats StatFunc) error {
	collectors := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "pgxpool_acquired_conns",
			Help: "Number of currently acquired connections in the pool",
		}, func() float64 {
			return float64(stats().Acquired)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "pgxpool_max_conns",
			Help: "Maximum number of connections in the pool",
		}, func() float64 {
			return float64(stats().Max)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "pgxpool_total_conns",
			Help: "Total number of connections in the pool",
		}, func() float64 {
			return float64(stats().Total)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "pgxpool_idle_conns",
			Help: "Number of idle connections in the pool",
		}, func() float64 {
			return float64(stats().Idle)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "pgxpool_empty_acquire_total",
			Help: "Acquires that had to wait for a connection",
		}, func() float64 {
			return float64(stats().EmptyAcquireCount)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "pgxpool_acquire_duration_seconds_total",
			Help: "Total time spent acquiring connections",
		}, func() float64 {
			return stats().AcquireDurationTotal
		}),
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
