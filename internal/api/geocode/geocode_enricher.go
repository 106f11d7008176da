package geocode

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/go-food-course-suggestions/app/observability/metrics"
	"github.com/FACorreiaa/go-food-course-suggestions/internal/types"
)

// Enricher geocodes region records with bounded concurrency.
type Enricher struct {
	geocoder    Geocoder
	concurrency int
	logger      *slog.Logger
}

func NewEnricher(geocoder Geocoder, concurrency int, logger *slog.Logger) *Enricher {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Enricher{
		geocoder:    geocoder,
		concurrency: concurrency,
		logger:      logger.With(slog.String("component", "GeocodeEnricher")),
	}
}

// Enrich returns one entry per record, in the same order. A record that could
// not be geocoded keeps a nil Point; Enrich itself never fails.
func (e *Enricher) Enrich(ctx context.Context, records []types.RegionRecord) []types.EnrichedRecord {
	ctx, span := otel.Tracer("GeocodeEnricher").Start(ctx, "Enrich", trace.WithAttributes(
		attribute.Int("records", len(records)),
	))
	defer span.End()

	out := make([]types.EnrichedRecord, len(records))
	failures := make([]bool, len(records))

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, rec := range records {
		out[i] = types.EnrichedRecord{RegionRecord: rec}
		g.Go(func() error {
			point, err := e.geocode(ctx, rec)
			if err != nil {
				failures[i] = true
				return nil
			}
			out[i].Point = point
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, f := range failures {
		if f {
			failed++
		}
	}
	if failed > 0 {
		metrics.Get().GeocodeFailuresTotal.Add(ctx, int64(failed))
	}
	span.SetAttributes(attribute.Int("geocode.failures", failed))
	e.logger.InfoContext(ctx, "Enriched records", slog.Int("records", len(records)), slog.Int("failures", failed))
	return out
}

func (e *Enricher) geocode(ctx context.Context, rec types.RegionRecord) (*types.GeoPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(rec.Address) == "" {
		e.logger.DebugContext(ctx, "Record has no address", slog.String("sno", rec.Sno))
		return nil, ErrNoMatch
	}
	point, err := e.geocoder.Geocode(ctx, rec.Address)
	if err != nil {
		e.logger.WarnContext(ctx, "Geocoding failed",
			slog.String("sno", rec.Sno),
			slog.String("address", rec.Address),
			slog.Any("error", err))
		return nil, err
	}
	return point, nil
}
