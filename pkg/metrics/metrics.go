package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RegistrationRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "registration", Name: "requests_total", Help: "Registration requests by operation and outcome."},
		[]string{"operation", "outcome"},
	)
	TokenRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "registration", Name: "token_rejections_total", Help: "Identity tokens rejected by kind."},
		[]string{"kind"},
	)
	RateLimitRejected = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "http", Name: "rate_limit_rejected_total", Help: "Requests rejected by the per-client rate limiter."},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RegistrationRequests)
	reg.MustRegister(TokenRejections)
	reg.MustRegister(RateLimitRejected)
}
