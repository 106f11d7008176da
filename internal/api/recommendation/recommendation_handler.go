package recommendation

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-food-course-suggestions/internal/api"
	"github.com/FACorreiaa/go-food-course-suggestions/internal/api/auth"
	"github.com/FACorreiaa/go-food-course-suggestions/internal/types"
)

type HandlerImpl struct {
	recommendationService Service
	logger                *slog.Logger
}

func NewHandlerImpl(recommendationService Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		recommendationService: recommendationService,
		logger:                logger,
	}
}

// RecommendCourse answers with a course for the posted preferences. With
// "save": true the course is stored for the caller and returned as saved.
func (h *HandlerImpl) RecommendCourse(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("RecommendationHandler").Start(r.Context(), "RecommendCourse", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/courses/recommendations"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "RecommendCourse"))

	var prefs types.CoursePreferences
	if err := api.DecodeJSONBody(w, r, &prefs); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		span.RecordError(err)
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	span.SetAttributes(
		attribute.StringSlice("regions", prefs.Regions),
		attribute.Bool("save", prefs.Save),
	)

	if !prefs.Save {
		rec, err := h.recommendationService.Recommend(ctx, prefs)
		if err != nil {
			l.ErrorContext(ctx, "Failed to recommend course", slog.Any("error", err))
			span.RecordError(err)
			api.WriteError(w, r, err)
			return
		}
		api.WriteJSONResponse(w, r, http.StatusOK, rec)
		return
	}

	ownerID, ok := auth.OwnerFromContext(ctx)
	if !ok {
		l.ErrorContext(ctx, "User ID not found in context")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	span.SetAttributes(semconv.EnduserIDKey.String(ownerID.String()))

	saved, err := h.recommendationService.RecommendAndSave(ctx, ownerID, prefs)
	if err != nil {
		l.ErrorContext(ctx, "Failed to recommend and save course", slog.Any("error", err))
		span.RecordError(err)
		api.WriteError(w, r, err)
		return
	}

	l.InfoContext(ctx, "Recommended course saved", slog.String("courseID", saved.ID.String()))
	api.WriteJSONResponse(w, r, http.StatusCreated, saved)
}
