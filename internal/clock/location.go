package clock

import "context"

// Fix is a GPS position supplied by the device.
type Fix struct {
	Lat float64
	Lng float64
}

// LocationProvider acquires the caller's current position. Implementations
// should honor the context deadline; the coordinator bounds acquisition with
// its configured timeout (default 10s).
type LocationProvider interface {
	Current(ctx context.Context) (Fix, error)
}
