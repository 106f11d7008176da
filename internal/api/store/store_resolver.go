package store

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-food-course-suggestions/internal/types"
)

// Resolver finds the canonical store for a sno. Stores that were never saved
// are built from the upstream detail and returned with a nil ID; the caller
// decides when to write them.
type Resolver struct {
	repo         Repository
	details      DetailFetcher
	imageBaseURL string
	logger       *slog.Logger
}

func NewResolver(repo Repository, details DetailFetcher, imageBaseURL string, logger *slog.Logger) *Resolver {
	return &Resolver{
		repo:         repo,
		details:      details,
		imageBaseURL: imageBaseURL,
		logger:       logger.With(slog.String("component", "StoreResolver")),
	}
}

// Resolve returns the saved store for sno, or a new one built from the
// upstream detail. hint, when set, becomes the new store's point.
func (r *Resolver) Resolve(ctx context.Context, sno string, hint *types.GeoPoint) (types.Store, error) {
	ctx, span := otel.Tracer("StoreResolver").Start(ctx, "Resolve", trace.WithAttributes(
		attribute.String("sno", sno),
	))
	defer span.End()

	existing, err := r.repo.FindStoreBySno(ctx, sno)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return types.Store{}, types.NewInternalError("failed to look up store", err)
	}
	if existing != nil {
		span.SetAttributes(attribute.Bool("store.existing", true))
		return *existing, nil
	}

	rec, err := r.details.FetchDetail(ctx, sno)
	if err != nil {
		r.logger.WarnContext(ctx, "Could not resolve store from upstream detail", slog.String("sno", sno), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "detail fetch failed")
		return types.Store{}, err
	}

	span.SetAttributes(attribute.Bool("store.existing", false))
	return NewStoreFromRecord(*rec, hint, r.imageBaseURL), nil
}
