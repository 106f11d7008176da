package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GeoPoint keeps coordinates as the decimal text the geocoder returned.
type GeoPoint struct {
	Latitude  string `json:"lat"`
	Longitude string `json:"lng"`
}

// RegionRecord is one restaurant item from the regional listing or detail endpoint.
// Fields missing upstream are empty strings.
type RegionRecord struct {
	Sno       string `json:"sno"`
	Name      string `json:"name"`
	Area      string `json:"area"`
	Address   string `json:"address"`
	Tel       string `json:"tel"`
	Time      string `json:"time"`
	Image     string `json:"image"`
	Seat      string `json:"seat"`
	Holiday   string `json:"holiday"`
	Park      string `json:"park"`
	Menu      string `json:"menu"`
	Food      string `json:"food"`
	StarCount string `json:"starCount,omitempty"`
	StarScore string `json:"starScore,omitempty"`
	Latitude  string `json:"latitude,omitempty"`
	Longitude string `json:"longitude,omitempty"`
}

// MenuText returns the menu with the upstream `^` separators replaced by ", ".
// The food field is used when the source has no menu column.
func (r RegionRecord) MenuText() string {
	menu := r.Menu
	if menu == "" {
		menu = r.Food
	}
	return strings.ReplaceAll(menu, "^", ", ")
}

// SourcePoint returns the coordinates published by the source itself, if any.
func (r RegionRecord) SourcePoint() *GeoPoint {
	if r.Latitude == "" || r.Longitude == "" {
		return nil
	}
	return &GeoPoint{Latitude: r.Latitude, Longitude: r.Longitude}
}

// EnrichedRecord is a region record plus the geocoded point, nil when geocoding failed.
type EnrichedRecord struct {
	RegionRecord
	Point *GeoPoint `json:"point,omitempty"`
}

// Location is the geocoded point, falling back to the source's own coordinates.
func (e EnrichedRecord) Location() *GeoPoint {
	if e.Point != nil {
		return e.Point
	}
	return e.SourcePoint()
}

// Store is the canonical, persisted restaurant, unique by Sno.
type Store struct {
	ID        uuid.UUID `json:"id"`
	Sno       string    `json:"sno"`
	Name      string    `json:"name"`
	Area      string    `json:"area"`
	Address   string    `json:"address"`
	Tel       string    `json:"tel"`
	OpenHours string    `json:"time"`
	Holiday   string    `json:"holiday"`
	Menu      string    `json:"smenu"`
	ImageURL  *string   `json:"imageUrl,omitempty"`
	Parking   *bool     `json:"parking,omitempty"`
	Seats     *int      `json:"seats,omitempty"`
	Point     *GeoPoint `json:"point,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Coordinate is a latitude or longitude as decimal text. It accepts JSON
// numbers and strings so model output in either form keeps its digits.
// Placeholder text such as "unknown" or "null" decodes as absent.
type Coordinate string

var absentCoordinates = map[string]struct{}{
	"": {}, "null": {}, "unknown": {}, "-": {}, "none": {}, "n/a": {},
}

func (c *Coordinate) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	switch {
	case raw == "null":
		*c = ""
		return nil
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if _, absent := absentCoordinates[strings.ToLower(s)]; absent {
			s = ""
		}
		*c = Coordinate(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("coordinate must be a number or string: %w", err)
		}
		*c = Coordinate(n.String())
		return nil
	}
}

// PointOf builds a GeoPoint from two coordinates, nil unless both are set.
func PointOf(lat, lng Coordinate) *GeoPoint {
	if lat == "" || lng == "" {
		return nil
	}
	return &GeoPoint{Latitude: string(lat), Longitude: string(lng)}
}
