// Package metrics registra los contadores prometheus del dominio.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	// TokensIssued cuenta tokens emitidos por resultado (ok|no_active_key|error).
	TokensIssued *prometheus.CounterVec

	// RotationCycles cuenta ciclos del rotator por resultado (rotated|noop|error).
	RotationCycles *prometheus.CounterVec

	// JWKSRequests cuenta requests al endpoint de descubrimiento.
	JWKSRequests prometheus.Counter

	// LoginFailures cuenta logins rechazados (una sola causa visible).
	LoginFailures prometheus.Counter
)

// Register inicializa las métricas y devuelve el handler para /metrics.
func Register(reg prometheus.Registerer) http.Handler {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	once.Do(func() {
		TokensIssued = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "keysmith_tokens_issued_total",
			Help: "Tokens emitidos por resultado",
		}, []string{"result"})

		RotationCycles = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "keysmith_rotation_cycles_total",
			Help: "Ciclos de rotación por resultado",
		}, []string{"result"})

		JWKSRequests = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "keysmith_jwks_requests_total",
			Help: "Requests al endpoint JWKS",
		})

		LoginFailures = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "keysmith_login_failures_total",
			Help: "Logins rechazados",
		})

		reg.MustRegister(TokensIssued, RotationCycles, JWKSRequests, LoginFailures)
	})
	return promhttp.Handler()
}
