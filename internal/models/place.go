package models

// Cafe mirrors the subset of a Google Places result the clients render.
type Cafe struct {
	PlaceID  string   `json:"place_id"`
	Name     string   `json:"name"`
	Vicinity string   `json:"vicinity,omitempty"`
	Address  string   `json:"formatted_address,omitempty"`
	Location GeoPoint `json:"location"`
	Rating   float64  `json:"rating,omitempty"`
	PhotoRef string   `json:"photo_reference,omitempty"`
}

type GeoPoint struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// NearbyCafes is one page of nearby-search results. NextPageToken is the
// opaque upstream token; Places takes a moment before a fresh token becomes
// valid, and callers are expected to absorb that delay (no retry here).
type NearbyCafes struct {
	Cafes         []Cafe `json:"cafes"`
	NextPageToken string `json:"next_page_token,omitempty"`
}
