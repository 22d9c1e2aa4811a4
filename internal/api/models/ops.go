package models

import "time"

// HealthStatus is the coarse health of the service or one of its subsystems.
type HealthStatus string

const (
	HealthOK       HealthStatus = "ok"
	HealthDegraded HealthStatus = "degraded"
	HealthDown     HealthStatus = "down"
)

// Health is the liveness/readiness payload.
type Health struct {
	Status     HealthStatus      `json:"status"`
	Time       time.Time         `json:"time"`
	Version    string            `json:"version,omitempty"`
	BuildTime  string            `json:"buildTime,omitempty"`
	Subsystems []SubsystemStatus `json:"subsystems,omitempty"`
}

// SubsystemStatus reports one dependency, e.g. the database pool.
type SubsystemStatus struct {
	Name   string       `json:"name"`
	Status HealthStatus `json:"status"`
	Detail *string      `json:"detail,omitempty"`
}
