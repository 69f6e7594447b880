// Package events publishes simulation audit events to NATS and listens for
// operator-issued cleanup commands, decoupling the orchestrator's tick
// boundary from anything that wants to observe it asynchronously.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

const (
	subjectTicked          = "universe.ticked"
	subjectAnomalyResolved = "universe.anomaly_resolved"
	subjectEnded           = "universe.ended"
	subjectCleanupCommand  = "universe.cleanup.requested"
)

// TickedEvent is published once per orchestrator Run, after persistence.
type TickedEvent struct {
	UniverseID     string  `json:"universeId"`
	TicksRun       int     `json:"ticksRun"`
	AgeGyr         float64 `json:"ageGyr"`
	StabilityIndex float64 `json:"stabilityIndex"`
	EndCondition   string  `json:"endCondition,omitempty"`
}

// AnomalyResolvedEvent is published when an operator resolves an anomaly.
type AnomalyResolvedEvent struct {
	UniverseID string  `json:"universeId"`
	AnomalyID  string  `json:"anomalyId"`
	Severity   float64 `json:"severity"`
}

// EndedEvent is published when a universe reaches a terminal end condition.
type EndedEvent struct {
	UniverseID string `json:"universeId"`
	Condition  string `json:"condition"`
	Reason     string `json:"reason"`
}

// CleanupCommand requests an anomaly sweep on a universe, issued by an
// operator tool, possibly running on another instance. The service's own
// periodic sweep runs in-process and does not publish this command.
type CleanupCommand struct {
	UniverseID        string `json:"universeId"`
	KeepRecentMinutes int    `json:"keepRecentMinutes"`
}

// Publisher emits audit events for the write side of the simulation kernel.
type Publisher struct {
	nc *nats.Conn
}

// NewPublisher builds a Publisher over an established NATS connection.
func NewPublisher(nc *nats.Conn) *Publisher {
	return &Publisher{nc: nc}
}

func (p *Publisher) publish(subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("events: marshal %s: %w", subject, err)
	}
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("events: publish %s: %w", subject, err)
	}
	return nil
}

// PublishTicked announces a completed orchestrator run.
func (p *Publisher) PublishTicked(e TickedEvent) error {
	return p.publish(subjectTicked, e)
}

// PublishAnomalyResolved announces a resolved anomaly.
func (p *Publisher) PublishAnomalyResolved(e AnomalyResolvedEvent) error {
	return p.publish(subjectAnomalyResolved, e)
}

// PublishEnded announces a universe reaching a terminal end condition.
func (p *Publisher) PublishEnded(e EndedEvent) error {
	return p.publish(subjectEnded, e)
}

// CleanupHandler processes a CleanupCommand; implemented by the orchestrating
// service layer.
type CleanupHandler func(ctx context.Context, cmd CleanupCommand) error

// Listener subscribes to inbound commands and dispatches them to a handler.
type Listener struct {
	nc      *nats.Conn
	handler CleanupHandler
}

// NewListener builds a Listener that dispatches CleanupCommand messages to
// handler.
func NewListener(nc *nats.Conn, handler CleanupHandler) *Listener {
	return &Listener{nc: nc, handler: handler}
}

// ListenForCleanupCommands subscribes to subjectCleanupCommand and invokes
// the handler for each well-formed message; malformed messages and handler
// errors are logged, never propagated, since NATS delivery is fire-and-forget.
func (l *Listener) ListenForCleanupCommands() error {
	_, err := l.nc.Subscribe(subjectCleanupCommand, func(msg *nats.Msg) {
		var cmd CleanupCommand
		if err := json.Unmarshal(msg.Data, &cmd); err != nil {
			log.Error().Err(err).Msg("events: failed to unmarshal cleanup command")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := l.handler(ctx, cmd); err != nil {
			log.Error().Err(err).Str("universeId", cmd.UniverseID).Msg("events: cleanup command failed")
			return
		}

		log.Info().Str("universeId", cmd.UniverseID).Msg("events: cleanup command processed")
	})
	if err != nil {
		return fmt.Errorf("events: subscribe to %s failed: %w", subjectCleanupCommand, err)
	}
	return nil
}
