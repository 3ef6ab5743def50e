// Package mains infers the local electrical mains frequency from the
// system timezone, seeding the hum notch filter with 50 or 60 Hz
// without asking the user.
package mains

import (
	"strings"

	tz "github.com/medama-io/go-timezone-country"
	"github.com/thlib/go-timezone-local/tzlocal"
)

const fallbackHz = 50

// Frequency returns the local mains frequency in Hz. Detection failures
// and ambiguous zones fall back to 50 Hz, the more common grid
// worldwide.
func Frequency() int {
	zone, err := tzlocal.RuntimeTZ()
	if err != nil {
		return fallbackHz
	}
	return FrequencyForTimezone(zone)
}

// Fundamental returns Frequency as a float64, the form the notch filter
// designer takes.
func Fundamental() float64 {
	return float64(Frequency())
}

// FrequencyForTimezone resolves an IANA timezone name to its grid
// frequency.
func FrequencyForTimezone(zone string) int {
	// UTC, GMT and the Etc/ zones carry no country information.
	if zone == "UTC" || zone == "GMT" || strings.HasPrefix(zone, "Etc/") {
		return fallbackHz
	}

	countries, err := tz.NewTimezoneCountryMap()
	if err != nil {
		return fallbackHz
	}
	country, err := countries.GetCountry(zone)
	if err != nil {
		return fallbackHz
	}

	// Japan runs both grids split by region; Tokyo's 50 Hz side holds
	// most of the population, so that is the guess.
	if country == "Japan" {
		return fallbackHz
	}
	if sixtyHzGrids[country] {
		return 60
	}
	return fallbackHz
}

// sixtyHzGrids is the set of countries on 60 Hz mains; everywhere else
// is treated as 50 Hz. Compiled from the Wikipedia mains electricity
// tables.
var sixtyHzGrids = map[string]bool{
	// The Americas. Most of South America is 50 Hz; Brazil is mixed
	// with 60 Hz predominant.
	"United States":       true,
	"Canada":              true,
	"Mexico":              true,
	"Belize":              true,
	"Costa Rica":          true,
	"El Salvador":         true,
	"Guatemala":           true,
	"Honduras":            true,
	"Nicaragua":           true,
	"Panama":              true,
	"Bahamas":             true,
	"Barbados":            true,
	"Cayman Islands":      true,
	"Cuba":                true,
	"Dominican Republic":  true,
	"Haiti":               true,
	"Jamaica":             true,
	"Puerto Rico":         true,
	"Trinidad and Tobago": true,
	"U.S. Virgin Islands": true,
	"Brazil":              true,
	"Colombia":            true,
	"Ecuador":             true,
	"Guyana":              true,
	"Peru":                true,
	"Suriname":            true,
	"Venezuela":           true,

	// Asia and the Pacific.
	"South Korea":      true,
	"Taiwan":           true,
	"Philippines":      true,
	"Saudi Arabia":     true,
	"Guam":             true,
	"American Samoa":   true,
	"Marshall Islands": true,
	"Micronesia":       true,
	"Palau":            true,
}
