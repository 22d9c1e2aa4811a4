package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/loopcast/loopcast/internal/api/models"
	"github.com/loopcast/loopcast/internal/device"
	"github.com/loopcast/loopcast/internal/identity"
)

// operatorKey is the context key for the authenticated operator claims.
type operatorKey struct{}

// deviceKey is the context key for the authenticated device.
type deviceKey struct{}

// Device credential headers.
const (
	HeaderDeviceName   = "X-Device-Name"
	HeaderDeviceSecret = "X-Device-Secret"
)

// DeviceAuthenticator resolves device credentials to a device record.
type DeviceAuthenticator interface {
	Authenticate(ctx context.Context, name, secretHash string) (*device.Device, error)
}

// OperatorAuth validates operator bearer tokens. The 401 detail is the same
// for every failure mode so callers cannot probe which check rejected them.
func OperatorAuth(tokens *identity.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const bearerPrefix = "Bearer "

			authHeader := r.Header.Get("Authorization")
			if len(authHeader) < len(bearerPrefix) ||
				!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
				writeUnauthorized(w, r)
				return
			}

			claims, err := tokens.Validate(authHeader[len(bearerPrefix):])
			if err != nil {
				writeUnauthorized(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), operatorKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects operators without the admin role. Must run after
// OperatorAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetOperator(r.Context())
		if claims == nil || !claims.IsAdmin() {
			writeUnauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// DeviceAuth validates device credential headers and stores the device on
// the request context. Unknown names, bad secrets and deactivated devices
// all produce the same 401.
func DeviceAuth(devices DeviceAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name := r.Header.Get(HeaderDeviceName)
			secret := r.Header.Get(HeaderDeviceSecret)

			d, err := devices.Authenticate(r.Context(), name, secret)
			if err != nil {
				writeUnauthorized(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), deviceKey{}, d)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeUnauthorized writes a 401 with a deliberately generic detail. It is
// implemented here to avoid an import cycle with the response package.
func writeUnauthorized(w http.ResponseWriter, r *http.Request) {
	traceID := GetRequestID(r.Context())
	problem := models.NewUnauthorized(traceID, "not allowed")
	problem.Instance = r.URL.Path
	problem.Write(w)
}

// GetOperator retrieves the operator claims from the context, or nil.
func GetOperator(ctx context.Context) *identity.Claims {
	if claims, ok := ctx.Value(operatorKey{}).(*identity.Claims); ok {
		return claims
	}
	return nil
}

// GetDevice retrieves the authenticated device from the context, or nil.
func GetDevice(ctx context.Context) *device.Device {
	if d, ok := ctx.Value(deviceKey{}).(*device.Device); ok {
		return d
	}
	return nil
}
