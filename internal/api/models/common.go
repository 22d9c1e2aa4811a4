// Package models provides request and response models for the loopcast API.
package models

// Point represents a geographic coordinate reported by a device.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}
