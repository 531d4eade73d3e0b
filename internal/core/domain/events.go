package domain

// EventType defines the type of real-time event.
type EventType string

const (
	EventBaselineTrained   EventType = "BASELINE_TRAINED"
	EventAnomaliesDetected EventType = "ANOMALIES_DETECTED"
	EventPong              EventType = "PONG"
)

// Event is the payload sent over WebSocket to dashboard clients.
type Event struct {
	ID      string      `json:"id"`
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload"`
}
