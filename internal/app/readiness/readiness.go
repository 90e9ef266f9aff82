package readiness

import (
	"context"
	"time"
)

// Health is the readiness state reported by a service
type Health string

// Health states
const (
	NotReady Health = "not_ready"
	Healthy  Health = "healthy"
	Degraded Health = "degraded"
)

// Reachable reports whether the service answered at all
func (h Health) Reachable() bool {
	return h == Healthy || h == Degraded
}

// Checker polls a service health endpoint
//
//go:generate mockgen -source=readiness.go -destination=readiness_mock.go -package=readiness
type Checker interface {
	Poll(ctx context.Context, url string, timeout, interval time.Duration) (Health, error)
}
