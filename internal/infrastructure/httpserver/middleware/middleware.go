package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// MiddlewareCollection holds all middleware instances
type MiddlewareCollection struct {
	Identity *IdentityMiddleware
	Logging  *LoggingMiddleware
	Metrics  *MetricsMiddleware
}

// NewMiddlewareCollection creates a new collection of all middleware
func NewMiddlewareCollection(
	logger *logrus.Logger,
	jwtSecret string,
	requestsTotal *prometheus.CounterVec,
	requestDuration *prometheus.HistogramVec,
) *MiddlewareCollection {
	return &MiddlewareCollection{
		Identity: NewIdentityMiddleware(jwtSecret, logger),
		Logging:  NewLoggingMiddleware(logger),
		Metrics:  NewMetricsMiddleware(requestsTotal, requestDuration),
	}
}
