package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testClient wires a bare client into the hub without a real connection
func testClient() *Client {
	return &Client{
		send:        make(chan []byte, 16),
		id:          "test-client",
		connectedAt: time.Now(),
	}
}

func recv(t *testing.T, c *Client) map[string]interface{} {
	t.Helper()
	select {
	case raw := <-c.send:
		var msg map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
		return nil
	}
}

func startHub(t *testing.T) (*Hub, *Client) {
	t.Helper()
	hub := NewHub(nil)
	hub.Start()
	t.Cleanup(hub.Stop)

	client := testClient()
	hub.Register(client)

	// First message is the connection handshake
	msg := recv(t, client)
	require.Equal(t, TypeConnection, msg["type"])
	return hub, client
}

func TestHubRegisterSendsConnectionMessage(t *testing.T) {
	hub, _ := startHub(t)
	assert.Equal(t, 1, hub.ClientCount())
}

func TestHubBroadcastProgress(t *testing.T) {
	hub, client := startHub(t)

	hub.BroadcastProgress("op-1", "featurize", 50, "halfway")

	msg := recv(t, client)
	assert.Equal(t, TypeProgress, msg["type"])

	data := msg["data"].(map[string]interface{})
	assert.Equal(t, "op-1", data["operation_id"])
	assert.Equal(t, "featurize", data["step"])
	assert.Equal(t, float64(50), data["progress"])
	assert.Equal(t, "halfway", data["message"])
}

func TestHubBroadcastStatus(t *testing.T) {
	hub, client := startHub(t)

	hub.BroadcastStatus("op-1", "completed")

	msg := recv(t, client)
	assert.Equal(t, TypeStatus, msg["type"])

	data := msg["data"].(map[string]interface{})
	assert.Equal(t, "completed", data["status"])
}

func TestHubBroadcastError(t *testing.T) {
	hub, client := startHub(t)

	hub.BroadcastError("op-1", "load", "no csv files")

	msg := recv(t, client)
	assert.Equal(t, TypeError, msg["type"])

	data := msg["data"].(map[string]interface{})
	assert.Equal(t, "load", data["step"])
	assert.Equal(t, "no csv files", data["message"])
}

func TestHubUnregister(t *testing.T) {
	hub, client := startHub(t)

	hub.unregister <- client

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, time.Second, 5*time.Millisecond)

	// Channel closed by the hub
	_, open := <-client.send
	assert.False(t, open)
}

func TestHubStats(t *testing.T) {
	hub, client := startHub(t)

	hub.BroadcastStatus("op-1", "running")
	msg := recv(t, client)
	require.Equal(t, TypeStatus, msg["type"])

	require.Eventually(t, func() bool {
		clients, total, sent := hub.Stats()
		return clients == 1 && total == 1 && sent >= 1
	}, time.Second, 5*time.Millisecond)
}

func TestHubBroadcastToMultipleClients(t *testing.T) {
	hub, first := startHub(t)

	second := testClient()
	hub.Register(second)
	msg := recv(t, second)
	require.Equal(t, TypeConnection, msg["type"])

	hub.BroadcastStatus("op-2", "running")

	for _, c := range []*Client{first, second} {
		msg := recv(t, c)
		assert.Equal(t, TypeStatus, msg["type"])
	}
}
