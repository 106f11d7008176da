package store

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-food-course-suggestions/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Enricher attaches geocoded points to region records.
type Enricher interface {
	Enrich(ctx context.Context, records []types.RegionRecord) []types.EnrichedRecord
}

// Service exposes stores to API clients: listings, detail and bookmarks.
type Service interface {
	ListRegionStores(ctx context.Context, region string) ([]types.Store, error)
	GetStoreDetail(ctx context.Context, sno string) (*types.Store, error)

	BookmarkStore(ctx context.Context, userID uuid.UUID, sno string) (*types.Store, error)
	RemoveBookmark(ctx context.Context, userID uuid.UUID, sno string) error
	ListBookmarks(ctx context.Context, userID uuid.UUID) ([]types.Store, error)
}

type ServiceImpl struct {
	logger       *slog.Logger
	regions      RegionFetcher
	details      DetailFetcher
	enricher     Enricher
	resolver     *Resolver
	repo         Repository
	imageBaseURL string
}

func NewServiceImpl(regions RegionFetcher, details DetailFetcher, enricher Enricher, resolver *Resolver,
	repo Repository, imageBaseURL string, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:       logger,
		regions:      regions,
		details:      details,
		enricher:     enricher,
		resolver:     resolver,
		repo:         repo,
		imageBaseURL: imageBaseURL,
	}
}

func (s *ServiceImpl) toStores(enriched []types.EnrichedRecord) []types.Store {
	stores := make([]types.Store, 0, len(enriched))
	for _, e := range enriched {
		stores = append(stores, NewStoreFromRecord(e.RegionRecord, e.Point, s.imageBaseURL))
	}
	return stores
}

func (s *ServiceImpl) ListRegionStores(ctx context.Context, region string) ([]types.Store, error) {
	ctx, span := otel.Tracer("StoreService").Start(ctx, "ListRegionStores", trace.WithAttributes(
		attribute.String("region", region),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "ListRegionStores"), slog.String("region", region))

	region = strings.TrimSpace(region)
	if region == "" {
		return nil, types.NewInvalidInputError("region is required")
	}

	records, err := s.regions.FetchRegion(ctx, region)
	if err != nil {
		l.ErrorContext(ctx, "Failed to fetch region listing", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, err
	}

	stores := s.toStores(s.enricher.Enrich(ctx, records))
	span.SetAttributes(attribute.Int("stores.count", len(stores)))
	span.SetStatus(codes.Ok, "")
	return stores, nil
}

func (s *ServiceImpl) GetStoreDetail(ctx context.Context, sno string) (*types.Store, error) {
	ctx, span := otel.Tracer("StoreService").Start(ctx, "GetStoreDetail", trace.WithAttributes(
		attribute.String("sno", sno),
	))
	defer span.End()

	rec, err := s.details.FetchDetail(ctx, sno)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to fetch store detail", slog.String("sno", sno), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "detail failed")
		return nil, err
	}

	stores := s.toStores(s.enricher.Enrich(ctx, []types.RegionRecord{*rec}))
	span.SetStatus(codes.Ok, "")
	return &stores[0], nil
}

// BookmarkStore saves the store first when this is the first time anyone references it.
func (s *ServiceImpl) BookmarkStore(ctx context.Context, userID uuid.UUID, sno string) (*types.Store, error) {
	ctx, span := otel.Tracer("StoreService").Start(ctx, "BookmarkStore", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("sno", sno),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "BookmarkStore"), slog.String("sno", sno))

	st, err := s.resolver.Resolve(ctx, sno, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolve failed")
		return nil, err
	}
	if st.ID == uuid.Nil {
		id, err := s.repo.SaveStore(ctx, st)
		if err != nil {
			l.ErrorContext(ctx, "Failed to save store", slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "save failed")
			return nil, types.NewInternalError("failed to save store", err)
		}
		st.ID = id
	}

	if err := s.repo.AddBookmark(ctx, userID, st.ID); err != nil {
		l.WarnContext(ctx, "Failed to add bookmark", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "bookmark failed")
		return nil, err
	}

	l.InfoContext(ctx, "Store bookmarked", slog.String("userID", userID.String()))
	span.SetStatus(codes.Ok, "")
	return &st, nil
}

func (s *ServiceImpl) RemoveBookmark(ctx context.Context, userID uuid.UUID, sno string) error {
	if err := s.repo.RemoveBookmark(ctx, userID, sno); err != nil {
		s.logger.ErrorContext(ctx, "failed to remove bookmark", slog.String("sno", sno), slog.Any("error", err))
		return err
	}
	return nil
}

func (s *ServiceImpl) ListBookmarks(ctx context.Context, userID uuid.UUID) ([]types.Store, error) {
	stores, err := s.repo.ListBookmarks(ctx, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list bookmarks", slog.Any("error", err))
		return nil, err
	}
	return stores, nil
}
