package model

import "time"

// HealthStatus represents the health check status
type HealthStatus struct {
	Status  string    `json:"status"`
	Service string    `json:"service"`
	Version string    `json:"version"`
	Time    time.Time `json:"time"`
}
