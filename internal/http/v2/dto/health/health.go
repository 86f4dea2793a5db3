// Package health contiene los DTOs de health check.
package health

import "time"

// HealthStatus es el estado de un componente.
type HealthStatus struct {
	Status string `json:"status"` // ok | error
	Error  string `json:"error,omitempty"`
}

// HealthResponse es la respuesta de GET /readyz.
type HealthResponse struct {
	Status     string                  `json:"status"` // ready | unavailable
	Version    string                  `json:"version,omitempty"`
	Components map[string]HealthStatus `json:"components"`
	Timestamp  time.Time               `json:"timestamp"`
}
