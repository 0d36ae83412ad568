package models

import "time"

// DetectedProduct is one line in a detection snapshot.
type DetectedProduct struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// DetectionSnapshot is the complete current product list. Each snapshot
// fully replaces the previous one; there is no incremental merge.
type DetectionSnapshot struct {
	Products []DetectedProduct `json:"products"`
}

// BroadcastMessage wraps snapshots sent over the websocket feed.
type BroadcastMessage struct {
	Type      string            `json:"type"`
	Data      DetectionSnapshot `json:"data"`
	Timestamp time.Time         `json:"timestamp"`
}

// MessageTypeDetectionUpdate is the message type carried by every
// snapshot broadcast.
const MessageTypeDetectionUpdate = "detection_update"

// SessionEvent is published to the message broker when a detection
// session starts or stops.
type SessionEvent struct {
	Event     string            `json:"event"`
	Products  []DetectedProduct `json:"products,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// HealthResponse is the detector health payload.
type HealthResponse struct {
	Status           string `json:"status"`
	Service          string `json:"service"`
	Timestamp        string `json:"timestamp"`
	ConnectedClients int    `json:"connected_clients"`
	SessionActive    bool   `json:"session_active"`
}
