package store

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-food-course-suggestions/internal/api"
	"github.com/FACorreiaa/go-food-course-suggestions/internal/api/auth"
)

type HandlerImpl struct {
	storeService Service
	logger       *slog.Logger
}

func NewHandlerImpl(storeService Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		storeService: storeService,
		logger:       logger,
	}
}

// ListRegionStores returns the geocoded stores of one region.
func (h *HandlerImpl) ListRegionStores(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("StoreHandler").Start(r.Context(), "ListRegionStores", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/stores/regions/{region}"),
	))
	defer span.End()

	region := chi.URLParam(r, "region")
	l := h.logger.With(slog.String("handler", "ListRegionStores"), slog.String("region", region))
	span.SetAttributes(attribute.String("region", region))

	stores, err := h.storeService.ListRegionStores(ctx, region)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list region stores", slog.Any("error", err))
		span.RecordError(err)
		api.WriteError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, stores)
}

func (h *HandlerImpl) GetStoreDetail(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("StoreHandler").Start(r.Context(), "GetStoreDetail", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/stores/{sno}"),
	))
	defer span.End()

	sno := chi.URLParam(r, "sno")
	l := h.logger.With(slog.String("handler", "GetStoreDetail"), slog.String("sno", sno))

	st, err := h.storeService.GetStoreDetail(ctx, sno)
	if err != nil {
		l.ErrorContext(ctx, "Failed to get store detail", slog.Any("error", err))
		span.RecordError(err)
		api.WriteError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, st)
}

func (h *HandlerImpl) BookmarkStore(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("StoreHandler").Start(r.Context(), "BookmarkStore", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/stores/{sno}/bookmarks"),
	))
	defer span.End()

	sno := chi.URLParam(r, "sno")
	l := h.logger.With(slog.String("handler", "BookmarkStore"), slog.String("sno", sno))

	userID, ok := auth.OwnerFromContext(ctx)
	if !ok {
		l.ErrorContext(ctx, "User ID not found in context")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	span.SetAttributes(semconv.EnduserIDKey.String(userID.String()))

	st, err := h.storeService.BookmarkStore(ctx, userID, sno)
	if err != nil {
		l.ErrorContext(ctx, "Failed to bookmark store", slog.Any("error", err))
		span.RecordError(err)
		api.WriteError(w, r, err)
		return
	}

	l.InfoContext(ctx, "Store bookmarked")
	api.WriteJSONResponse(w, r, http.StatusCreated, st)
}

func (h *HandlerImpl) RemoveBookmark(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("StoreHandler").Start(r.Context(), "RemoveBookmark", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/stores/{sno}/bookmarks"),
	))
	defer span.End()

	sno := chi.URLParam(r, "sno")
	l := h.logger.With(slog.String("handler", "RemoveBookmark"), slog.String("sno", sno))

	userID, ok := auth.OwnerFromContext(ctx)
	if !ok {
		l.ErrorContext(ctx, "User ID not found in context")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	span.SetAttributes(semconv.EnduserIDKey.String(userID.String()))

	if err := h.storeService.RemoveBookmark(ctx, userID, sno); err != nil {
		l.ErrorContext(ctx, "Failed to remove bookmark", slog.Any("error", err))
		span.RecordError(err)
		api.WriteError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}

func (h *HandlerImpl) ListBookmarks(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("StoreHandler").Start(r.Context(), "ListBookmarks", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/stores/bookmarks"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "ListBookmarks"))

	userID, ok := auth.OwnerFromContext(ctx)
	if !ok {
		l.ErrorContext(ctx, "User ID not found in context")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	stores, err := h.storeService.ListBookmarks(ctx, userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list bookmarks", slog.Any("error", err))
		span.RecordError(err)
		api.WriteError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, stores)
}
