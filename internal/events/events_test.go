package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	natstest "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"

	"cosmos-backend/internal/events"
)

func startTestServer(t *testing.T) *natsserver.Server {
	t.Helper()
	opts := natstest.DefaultTestOptions
	opts.Port = -1
	srv := natstest.RunServer(&opts)
	t.Cleanup(srv.Shutdown)
	return srv
}

func connect(t *testing.T, srv *natsserver.Server) *nats.Conn {
	t.Helper()
	nc, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)
	t.Cleanup(nc.Close)
	return nc
}

func TestPublishTickedDeliversPayload(t *testing.T) {
	srv := startTestServer(t)
	pubConn := connect(t, srv)
	subConn := connect(t, srv)

	received := make(chan events.TickedEvent, 1)
	_, err := subConn.Subscribe("universe.ticked", func(msg *nats.Msg) {
		var e events.TickedEvent
		require.NoError(t, json.Unmarshal(msg.Data, &e))
		received <- e
	})
	require.NoError(t, err)

	pub := events.NewPublisher(pubConn)
	require.NoError(t, pub.PublishTicked(events.TickedEvent{UniverseID: "u1", TicksRun: 10, AgeGyr: 0.5}))

	select {
	case e := <-received:
		require.Equal(t, "u1", e.UniverseID)
		require.Equal(t, 10, e.TicksRun)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for ticked event")
	}
}

func TestListenerDispatchesCleanupCommand(t *testing.T) {
	srv := startTestServer(t)
	pubConn := connect(t, srv)
	subConn := connect(t, srv)

	handled := make(chan events.CleanupCommand, 1)
	listener := events.NewListener(subConn, func(ctx context.Context, cmd events.CleanupCommand) error {
		handled <- cmd
		return nil
	})
	require.NoError(t, listener.ListenForCleanupCommands())

	data, err := json.Marshal(events.CleanupCommand{UniverseID: "u1", KeepRecentMinutes: 5})
	require.NoError(t, err)
	require.NoError(t, pubConn.Publish("universe.cleanup.requested", data))

	select {
	case cmd := <-handled:
		require.Equal(t, "u1", cmd.UniverseID)
		require.Equal(t, 5, cmd.KeepRecentMinutes)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for cleanup command")
	}
}
