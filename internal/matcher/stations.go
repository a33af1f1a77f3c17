package matcher

import (
	"sort"

	"sid-reconciliation-service/internal/models"
)

// stationNames maps every known station code to its display name. It is
// built once and never mutated; read it through ResolveStation.
var stationNames = map[models.StationCode]string{
	"11188001": "આબલીયારા",
	"11188002": "બાયડ",
	"11188003": "ભીલોડા",
	"11188004": "ધનસુરા",
	"11188005": "ઇસરી",
	"11188006": "માલપુર",
	"11188007": "મેધરજ",
	"11188008": "મોડાસા_રૂરલ",
	"11188009": "મોડાસા_ટાઉન",
	"11188010": "શામળાજી",
	"11188011": "સાથંબા",
	"11188012": "મહિલા_પોલીસ_સ્ટેશન",
	"11188013": "ટીંટોઇ",
	"11188014": "સાયબર ક્રાઇમ પોલીસ સ્ટેશન",
}

// Station is one entry of the station table
type Station struct {
	Code models.StationCode `json:"code"`
	Name string             `json:"name"`
}

// ResolveStation returns the display name of a station code, or an empty
// string when the code is unknown. Unknown codes are never an error.
func ResolveStation(code models.StationCode) string {
	return stationNames[code]
}

// ResolveIdentifier resolves the station of a case identifier by its prefix
func ResolveIdentifier(identifier string) (models.StationCode, string) {
	code := models.StationCodeOf(identifier)
	return code, ResolveStation(code)
}

// KnownStations lists the station table ordered by code
func KnownStations() []Station {
	stations := make([]Station, 0, len(stationNames))
	for code, name := range stationNames {
		stations = append(stations, Station{Code: code, Name: name})
	}
	sort.Slice(stations, func(i, j int) bool {
		return stations[i].Code < stations[j].Code
	})
	return stations
}
