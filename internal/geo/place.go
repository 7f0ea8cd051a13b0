package geo

// Place is a nearby suggestion returned by place search.
type Place struct {
	Name      string  `json:"name"`
	Address   string  `json:"address,omitempty"`
	PlaceID   string  `json:"placeId"`
	Distance  float64 `json:"distance"` // metres from the resolved location
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
