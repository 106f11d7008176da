package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKind_HTTPStatus(t *testing.T) {
	tests := []struct {
		kind     ErrorKind
		status   int
		external bool
	}{
		{ErrKindUpstreamUnavailable, http.StatusServiceUnavailable, true},
		{ErrKindUpstreamAuth, http.StatusServiceUnavailable, true},
		{ErrKindAIResponseInvalid, http.StatusBadGateway, false},
		{ErrKindNotFound, http.StatusNotFound, false},
		{ErrKindConflict, http.StatusConflict, false},
		{ErrKindInvalidInput, http.StatusBadRequest, false},
		{ErrKindInternal, http.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.kind.HTTPStatus())
			assert.Equal(t, tt.external, tt.kind.IsExternal())
		})
	}
}

func TestAppError_Wrapping(t *testing.T) {
	cause := errors.New("dial tcp: i/o timeout")
	appErr := NewAppError(ErrKindUpstreamUnavailable, CodeExternalAPITimeout, "regional source timed out", cause)
	wrapped := fmt.Errorf("fetch region 01: %w", appErr)

	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "regional source timed out: dial tcp: i/o timeout", appErr.Error())

	got, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeExternalAPITimeout, got.Code)
	assert.Equal(t, ErrKindUpstreamUnavailable, KindOf(wrapped))

	assert.Equal(t, ErrKindInternal, KindOf(errors.New("untagged")))
	_, ok = AsAppError(errors.New("untagged"))
	assert.False(t, ok)
}

func TestCoordinate_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Coordinate
		wantErr bool
	}{
		{"number keeps its digits", `35.824200`, "35.824200", false},
		{"negative number", `-12.5`, "-12.5", false},
		{"string", `"127.148"`, "127.148", false},
		{"padded string", `" 127.1 "`, "127.1", false},
		{"null", `null`, "", false},
		{"unknown placeholder", `"unknown"`, "", false},
		{"null as text", `"null"`, "", false},
		{"dash placeholder", `" - "`, "", false},
		{"empty string", `""`, "", false},
		{"boolean", `true`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got struct {
				Lat Coordinate `json:"lat"`
			}
			err := json.Unmarshal([]byte(`{"lat":`+tt.in+`}`), &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Lat)
		})
	}
}

func TestEnrichedRecord_Location(t *testing.T) {
	rec := RegionRecord{Sno: "1", Latitude: "35.9", Longitude: "127.0"}

	assert.Equal(t, &GeoPoint{Latitude: "35.9", Longitude: "127.0"}, EnrichedRecord{RegionRecord: rec}.Location())

	geocoded := &GeoPoint{Latitude: "35.8", Longitude: "127.1"}
	assert.Equal(t, geocoded, EnrichedRecord{RegionRecord: rec, Point: geocoded}.Location())

	assert.Nil(t, EnrichedRecord{RegionRecord: RegionRecord{Sno: "2", Latitude: "35.9"}}.Location())
}

func TestRegionRecord_MenuText(t *testing.T) {
	assert.Equal(t, "비빔밥, 콩나물국밥", RegionRecord{Menu: "비빔밥^콩나물국밥"}.MenuText())
	assert.Equal(t, "한정식", RegionRecord{Food: "한정식"}.MenuText())
}

func TestPointOf(t *testing.T) {
	assert.Nil(t, PointOf("", "127"))
	assert.Equal(t, &GeoPoint{Latitude: "35", Longitude: "127"}, PointOf("35", "127"))
}
