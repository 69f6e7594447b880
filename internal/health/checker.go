// Package health reports the liveness of the storage and messaging
// dependencies behind the /health endpoint.
package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/nats-io/nats.go"
)

// Pinger is satisfied by the Mongo client and the Redis client; both expose
// a context-aware liveness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NATSConn is satisfied by *nats.Conn.
type NATSConn interface {
	Status() nats.Status
}

// Checker aggregates the liveness of every external dependency.
type Checker struct {
	db    Pinger
	redis Pinger
	nats  NATSConn
}

// NewHealthChecker builds a Checker over the given dependencies.
func NewHealthChecker(db, redis Pinger, nc NATSConn) *Checker {
	return &Checker{db: db, redis: redis, nats: nc}
}

// Check pings every dependency and returns a status map; "status" is "ok"
// when every dependency is healthy, "degraded" otherwise.
func (c *Checker) Check(ctx context.Context) map[string]string {
	status := map[string]string{"status": "ok"}

	if err := c.db.Ping(ctx); err != nil {
		status["database"] = "unhealthy"
		status["status"] = "degraded"
	} else {
		status["database"] = "healthy"
	}

	if err := c.redis.Ping(ctx); err != nil {
		status["redis"] = "unhealthy"
		status["status"] = "degraded"
	} else {
		status["redis"] = "healthy"
	}

	if c.nats.Status() != nats.CONNECTED {
		status["nats"] = "unhealthy"
		status["status"] = "degraded"
	} else {
		status["nats"] = "healthy"
	}

	return status
}

// Handler serves the aggregated health status as JSON, writing 503 when any
// dependency is degraded so load balancers and orchestrators can act on the
// status code alone without parsing the body.
func (c *Checker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := c.Check(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if status["status"] != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(status)
	})
}
