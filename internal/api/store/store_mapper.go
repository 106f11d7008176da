package store

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/FACorreiaa/go-food-course-suggestions/internal/types"
)

var leadingDigits = regexp.MustCompile(`\d+`)

// NewStoreFromRecord builds an unsaved canonical store from an upstream record.
// point wins over the coordinates the source publishes; with neither the store
// has no point.
func NewStoreFromRecord(rec types.RegionRecord, point *types.GeoPoint, imageBaseURL string) types.Store {
	if point == nil {
		point = rec.SourcePoint()
	}
	return types.Store{
		Sno:       rec.Sno,
		Name:      rec.Name,
		Area:      rec.Area,
		Address:   rec.Address,
		Tel:       rec.Tel,
		OpenHours: rec.Time,
		Holiday:   rec.Holiday,
		Menu:      rec.MenuText(),
		ImageURL:  imageURL(rec.Image, imageBaseURL),
		Parking:   parseParking(rec.Park),
		Seats:     parseSeats(rec.Seat),
		Point:     point,
	}
}

// imageURL takes the first of the `|` separated image names.
func imageURL(raw, baseURL string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "null") {
		return nil
	}
	first := strings.TrimSpace(strings.Split(raw, "|")[0])
	if first == "" || strings.EqualFold(first, "null") {
		return nil
	}
	if strings.HasPrefix(first, "http://") || strings.HasPrefix(first, "https://") {
		return &first
	}
	u := baseURL + first
	return &u
}

func parseParking(raw string) *bool {
	var v bool
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "Y", "YES", "TRUE", "가능":
		v = true
	case "N", "NO", "FALSE", "불가":
		v = false
	default:
		return nil
	}
	return &v
}

// parseSeats reads the first number in values such as "40" or "40석".
func parseSeats(raw string) *int {
	m := leadingDigits.FindString(raw)
	if m == "" {
		return nil
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return nil
	}
	return &n
}
