package websocket

import (
	"testing"
	"time"

	"ai-eventplanner-be/internal/constant"
	"ai-eventplanner-be/internal/dto"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

func testAlert() dto.PlanAlert {
	return dto.PlanAlert{
		SessionId:  uuid.New(),
		Status:     constant.SessionStatusCompleted,
		EventCount: 2,
		OccurredAt: time.Now(),
	}
}

func TestHubDeliversAlertToRegisteredClient(t *testing.T) {
	hub := NewHub(nil, nopLogger{})
	go hub.Run()

	userID := uuid.New()
	client := &Client{Hub: hub, UserID: userID, Send: make(chan []byte, 4)}
	hub.register <- client

	assert.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients[userID]) == 1
	}, time.Second, 5*time.Millisecond)

	hub.Send(userID, testAlert())

	select {
	case frame := <-client.Send:
		assert.Contains(t, string(frame), `"type":"plan_alert"`)
	case <-time.After(time.Second):
		t.Fatal("no frame delivered")
	}

	// Alerts for other users never reach this connection.
	hub.Send(uuid.New(), testAlert())
	select {
	case <-client.Send:
		t.Fatal("frame delivered to the wrong user")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubDropsStalledClientWithoutDoubleClose(t *testing.T) {
	hub := NewHub(nil, nopLogger{})
	go hub.Run()

	userID := uuid.New()
	// Unbuffered Send with no reader: the first alert stalls immediately.
	client := &Client{Hub: hub, UserID: userID, Send: make(chan []byte)}
	hub.register <- client

	assert.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients[userID]) == 1
	}, time.Second, 5*time.Millisecond)

	hub.Send(userID, testAlert())

	// The hub unregisters the stalled connection and closes its channel
	// exactly once, on the Run side.
	assert.Eventually(t, func() bool {
		select {
		case _, open := <-client.Send:
			return !open
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		_, found := hub.clients[userID]
		return !found
	}, time.Second, 5*time.Millisecond)

	// A later alert for the same user is a no-op, not a panic.
	hub.Send(userID, testAlert())
}
