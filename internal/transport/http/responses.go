package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	"shiftledger/internal/clock"
	"shiftledger/pkg/platform/sentinel"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// denialBody is the structured 422 payload for an expected clock refusal.
// DistanceFt/RadiusFt are only populated for geofence denials.
type denialBody struct {
	Error      string  `json:"error"`
	Reason     string  `json:"reason"`
	Site       string  `json:"site,omitempty"`
	DistanceFt float64 `json:"distance_ft,omitempty"`
	RadiusFt   float64 `json:"radius_ft,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError translates domain errors into the transport vocabulary. Expected
// clock refusals map to 422 with the full denial detail; sentinels map to
// their conventional statuses; everything else is a 500 with no detail leaked.
func writeError(w http.ResponseWriter, err error) {
	if denial, ok := clock.AsDenial(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, denialBody{
			Error:      "denied",
			Reason:     string(denial.Reason),
			Site:       denial.SiteName,
			DistanceFt: denial.DistanceFt,
			RadiusFt:   denial.RadiusFt,
		})
		return
	}

	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found"})
	case errors.Is(err, sentinel.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody{Error: "conflict"})
	case errors.Is(err, sentinel.ErrInvalidState):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "invalid_state", Message: err.Error()})
	case errors.Is(err, sentinel.ErrUnavailable):
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "upstream_unavailable"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal"})
	}
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Message: message})
}
