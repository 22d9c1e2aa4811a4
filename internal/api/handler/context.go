package handler

import (
	"context"

	"github.com/loopcast/loopcast/internal/api/middleware"
	"github.com/loopcast/loopcast/internal/device"
)

// GetDevice retrieves the authenticated device from the context.
// This is a convenience wrapper around middleware.GetDevice.
func GetDevice(ctx context.Context) *device.Device {
	return middleware.GetDevice(ctx)
}
