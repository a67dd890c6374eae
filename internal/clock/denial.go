package clock

import (
	"errors"
	"fmt"
)

// Reason enumerates the expected, recoverable ways a clock action can be
// refused. None of these is an infrastructure failure.
type Reason string

const (
	// ReasonNoEmployee indicates no employee was selected for the action.
	ReasonNoEmployee Reason = "no_employee_selected"

	// ReasonNoSite indicates no site was selected for the action.
	ReasonNoSite Reason = "no_site_selected"

	// ReasonShiftActive indicates the employee already holds an open session
	// somewhere and may not clock in again without an override.
	ReasonShiftActive Reason = "shift_already_active"

	// ReasonNotClockedInHere indicates a clock-out with no open session at
	// the named site.
	ReasonNotClockedInHere Reason = "not_clocked_in_here"

	// ReasonLocationUnavailable indicates a required GPS fix could not be
	// obtained within the timeout.
	ReasonLocationUnavailable Reason = "location_unavailable"

	// ReasonOutOfRange indicates the fix fell outside the site's geofence.
	ReasonOutOfRange Reason = "out_of_geofence_range"

	// ReasonSiteMissingCoordinates indicates geofencing is required but the
	// site has no stored coordinates to measure against.
	ReasonSiteMissingCoordinates Reason = "site_missing_coordinates"
)

// Denial is a validation outcome, not a crash. It carries enough context for
// a caller to render both a short title and a precise detail string.
type Denial struct {
	Reason     Reason
	SiteName   string
	DistanceFt float64 // measured distance, set for geofence denials
	RadiusFt   float64 // allowed radius, set for geofence denials
	Underlying error
}

func (d *Denial) Error() string {
	switch d.Reason {
	case ReasonOutOfRange:
		return fmt.Sprintf("clock action denied [%s]: %.0f ft from %q, allowed %.0f ft", d.Reason, d.DistanceFt, d.SiteName, d.RadiusFt)
	case ReasonLocationUnavailable:
		if d.Underlying != nil {
			return fmt.Sprintf("clock action denied [%s]: %v", d.Reason, d.Underlying)
		}
	}
	if d.SiteName != "" {
		return fmt.Sprintf("clock action denied [%s] at %q", d.Reason, d.SiteName)
	}
	return fmt.Sprintf("clock action denied [%s]", d.Reason)
}

func (d *Denial) Unwrap() error {
	return d.Underlying
}

// AsDenial extracts a Denial from an error chain.
func AsDenial(err error) (*Denial, bool) {
	var d *Denial
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}
