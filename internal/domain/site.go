package domain

// DefaultGeofenceRadiusFt applies when a site has no explicit radius. An
// explicit zero also falls back here, never to a zero-size fence.
const DefaultGeofenceRadiusFt = 150.0

// Site is a physical work location. Coordinates are optional; a site without
// them cannot gate clock-ins by geofence.
type Site struct {
	Name             string
	Lat              *float64
	Lng              *float64
	GeofenceRadiusFt float64
}

// HasCoordinates reports whether the site can anchor a geofence check.
func (s Site) HasCoordinates() bool {
	return s.Lat != nil && s.Lng != nil
}

// RadiusFt returns the configured geofence radius, falling back to the
// default when unset or zero.
func (s Site) RadiusFt() float64 {
	if s.GeofenceRadiusFt <= 0 {
		return DefaultGeofenceRadiusFt
	}
	return s.GeofenceRadiusFt
}
