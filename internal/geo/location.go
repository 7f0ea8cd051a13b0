package geo

import (
	"fmt"
	"math"
	"time"
)

// Source identifies where a Location came from.
type Source int

const (
	// SourceUserSelected is an explicit override picked by the user.
	SourceUserSelected Source = iota + 1
	// SourceAssetMetadata is read from the photo's catalog entry or EXIF tags.
	SourceAssetMetadata
	// SourceDeviceSensor is a live fix from the device.
	SourceDeviceSensor
)

// Priority returns the rank of the source; lower wins.
func (s Source) Priority() int {
	return int(s)
}

func (s Source) String() string {
	switch s {
	case SourceUserSelected:
		return "user_selected"
	case SourceAssetMetadata:
		return "asset_metadata"
	case SourceDeviceSensor:
		return "device_sensor"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// MarshalText encodes the source by name.
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a source name.
func (s *Source) UnmarshalText(text []byte) error {
	switch string(text) {
	case "user_selected":
		*s = SourceUserSelected
	case "asset_metadata":
		*s = SourceAssetMetadata
	case "device_sensor":
		*s = SourceDeviceSensor
	default:
		return fmt.Errorf("unknown location source %q", text)
	}
	return nil
}

// Location is a resolved position together with its provenance.
type Location struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Altitude  *float64  `json:"altitude,omitempty"`
	Accuracy  *float64  `json:"accuracy,omitempty"` // metres
	Source    Source    `json:"source"`
	Priority  int       `json:"priority"`
	Timestamp time.Time `json:"timestamp"`
}

// WithSource stamps the location with a source and the matching priority.
func (l Location) WithSource(s Source) Location {
	l.Source = s
	l.Priority = s.Priority()
	return l
}

// Validate reports whether the coordinates are on the globe.
func (l Location) Validate() error {
	if math.IsNaN(l.Latitude) || l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range", l.Latitude)
	}
	if math.IsNaN(l.Longitude) || l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range", l.Longitude)
	}
	return nil
}

// Outranks reports whether l should win over other.
func (l Location) Outranks(other Location) bool {
	return l.Priority < other.Priority
}

const earthRadiusMeters = 6371008.8

// DistanceTo returns the great-circle distance in metres.
func (l Location) DistanceTo(lat, lon float64) float64 {
	return Haversine(l.Latitude, l.Longitude, lat, lon)
}

// Haversine returns the great-circle distance between two points in metres.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(a)))
}

// Float returns a pointer to v, for the optional Location fields.
func Float(v float64) *float64 {
	return &v
}
