package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-food-course-suggestions/app/httpclient"
	"github.com/FACorreiaa/go-food-course-suggestions/config"
	"github.com/FACorreiaa/go-food-course-suggestions/internal/types"
)

// ErrNoMatch is returned when the geocoder knows no location for an address.
var ErrNoMatch = errors.New("geocoder returned no match")

// Geocoder resolves a free-form address to a point.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*types.GeoPoint, error)
}

var _ Geocoder = (*KakaoClient)(nil)

type addressSearchResponse struct {
	Documents []struct {
		AddressName string `json:"address_name"`
		X           string `json:"x"`
		Y           string `json:"y"`
	} `json:"documents"`
}

// KakaoClient calls the Kakao local address search API.
type KakaoClient struct {
	client *resty.Client
	path   string
	cache  *cache.Cache
	logger *slog.Logger
}

// NewKakaoClient configures client for the geocoder. A zero CacheTTL disables caching.
func NewKakaoClient(client *resty.Client, cfg config.GeocoderConfig, logger *slog.Logger) *KakaoClient {
	client.SetBaseURL(cfg.BaseURL).
		SetHeader("Authorization", "KakaoAK "+cfg.APIKey).
		SetHeader("Accept", "application/json")

	var c *cache.Cache
	if cfg.CacheTTL > 0 {
		c = cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	return &KakaoClient{
		client: client,
		path:   cfg.Path,
		cache:  c,
		logger: logger.With(slog.String("component", "KakaoGeocoder")),
	}
}

func (k *KakaoClient) Geocode(ctx context.Context, address string) (*types.GeoPoint, error) {
	ctx, span := otel.Tracer("GeocodeEnricher").Start(ctx, "Geocode", trace.WithAttributes(
		attribute.String("address", address),
	))
	defer span.End()

	address = strings.TrimSpace(address)
	if k.cache != nil {
		if v, found := k.cache.Get(address); found {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return v.(*types.GeoPoint), nil
		}
	}

	start := time.Now()
	resp, err := k.client.R().
		SetContext(ctx).
		SetQueryParam("query", address).
		Get(k.path)
	if err != nil {
		code := types.CodeExternalAPI
		if httpclient.IsTimeout(err) {
			code = types.CodeExternalAPITimeout
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "geocode request failed")
		return nil, types.NewAppError(types.ErrKindUpstreamUnavailable, code, "geocoding service unavailable", err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode()))

	switch status := resp.StatusCode(); {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		err = types.NewAppError(types.ErrKindUpstreamAuth, types.CodeExternalAPIAuth,
			"geocoding service rejected the api key", fmt.Errorf("status %d", status))
	case status >= http.StatusBadRequest:
		err = types.NewAppError(types.ErrKindUpstreamUnavailable, types.CodeExternalAPI,
			"geocoding service unavailable", fmt.Errorf("status %d", status))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "geocode status")
		return nil, err
	}

	var body addressSearchResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode failed")
		return nil, types.NewAppError(types.ErrKindUpstreamUnavailable, types.CodeExternalAPI,
			"geocoding service returned an unreadable body", err)
	}
	if len(body.Documents) == 0 || body.Documents[0].X == "" || body.Documents[0].Y == "" {
		span.SetStatus(codes.Error, "no match")
		return nil, ErrNoMatch
	}

	point := &types.GeoPoint{Latitude: body.Documents[0].Y, Longitude: body.Documents[0].X}
	if k.cache != nil {
		k.cache.Set(address, point, cache.DefaultExpiration)
	}
	k.logger.DebugContext(ctx, "Geocoded address",
		slog.String("address", address),
		slog.String("lat", point.Latitude),
		slog.String("lng", point.Longitude),
		slog.Duration("took", time.Since(start)))
	span.SetStatus(codes.Ok, "")
	return point, nil
}
