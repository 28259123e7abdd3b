package metrics

import (
	"errors"
	"time"

	"github.com/VitaminP8/forum/internal/post"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics - счетчики операций хранилища. Нулевой указатель допустим:
// все методы на nil ничего не делают.
type Metrics struct {
	ops        *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	threadSize prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forum",
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Number of post store operations by result.",
		}, []string{"op", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "forum",
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Time spent in post store operations, lock wait included.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		threadSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "forum",
			Name:      "thread_size_posts",
			Help:      "Number of replies loaded per thread tree build.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}

	reg.MustRegister(m.ops, m.duration, m.threadSize)
	return m
}

// ObserveOp учитывает операцию op, начатую в start и завершившуюся err
func (m *Metrics) ObserveOp(op string, start time.Time, err error) {
	if m == nil {
		return
	}

	m.ops.WithLabelValues(op, Result(err)).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveThreadSize(posts int) {
	if m == nil {
		return
	}

	m.threadSize.Observe(float64(posts))
}

// Result переводит ошибку в значение метки result
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, post.ErrValidation):
		return "invalid"
	case errors.Is(err, post.ErrNotFound):
		return "not_found"
	case errors.Is(err, post.ErrLockPoisoned):
		return "lock_poisoned"
	default:
		return "error"
	}
}
