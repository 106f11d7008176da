package course

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-food-course-suggestions/internal/api"
	"github.com/FACorreiaa/go-food-course-suggestions/internal/api/auth"
	"github.com/FACorreiaa/go-food-course-suggestions/internal/types"
)

type HandlerImpl struct {
	courseService Service
	logger        *slog.Logger
}

func NewHandlerImpl(courseService Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		courseService: courseService,
		logger:        logger,
	}
}

func (h *HandlerImpl) CreateCourse(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CourseHandler").Start(r.Context(), "CreateCourse", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/courses"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "CreateCourse"))

	ownerID, ok := auth.OwnerFromContext(ctx)
	if !ok {
		l.ErrorContext(ctx, "User ID not found in context")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	span.SetAttributes(semconv.EnduserIDKey.String(ownerID.String()))

	var req types.CreateCourseRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		span.RecordError(err)
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	created, err := h.courseService.CreateCourse(ctx, ownerID, req)
	if err != nil {
		l.ErrorContext(ctx, "Failed to create course", slog.Any("error", err))
		span.RecordError(err)
		api.WriteError(w, r, err)
		return
	}

	l.InfoContext(ctx, "Course created", slog.String("courseID", created.ID.String()))
	api.WriteJSONResponse(w, r, http.StatusCreated, created)
}

func (h *HandlerImpl) ListCourses(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CourseHandler").Start(r.Context(), "ListCourses", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/courses"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "ListCourses"))

	ownerID, ok := auth.OwnerFromContext(ctx)
	if !ok {
		l.ErrorContext(ctx, "User ID not found in context")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	courses, err := h.courseService.ListCourses(ctx, ownerID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list courses", slog.Any("error", err))
		span.RecordError(err)
		api.WriteError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, courses)
}

func (h *HandlerImpl) GetCourse(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CourseHandler").Start(r.Context(), "GetCourse", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/courses/{courseID}"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "GetCourse"))

	ownerID, courseID, ok := h.ownerAndCourse(w, r, l)
	if !ok {
		return
	}
	span.SetAttributes(attribute.String("course.id", courseID.String()))

	c, err := h.courseService.GetCourse(ctx, ownerID, courseID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to get course", slog.Any("error", err))
		span.RecordError(err)
		api.WriteError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, c)
}

func (h *HandlerImpl) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CourseHandler").Start(r.Context(), "DeleteCourse", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/courses/{courseID}"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "DeleteCourse"))

	ownerID, courseID, ok := h.ownerAndCourse(w, r, l)
	if !ok {
		return
	}
	span.SetAttributes(attribute.String("course.id", courseID.String()))

	if err := h.courseService.DeleteCourse(ctx, ownerID, courseID); err != nil {
		l.ErrorContext(ctx, "Failed to delete course", slog.Any("error", err))
		span.RecordError(err)
		api.WriteError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}

func (h *HandlerImpl) ownerAndCourse(w http.ResponseWriter, r *http.Request, l *slog.Logger) (uuid.UUID, uuid.UUID, bool) {
	ownerID, ok := auth.OwnerFromContext(r.Context())
	if !ok {
		l.ErrorContext(r.Context(), "User ID not found in context")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return uuid.Nil, uuid.Nil, false
	}
	courseIDStr := chi.URLParam(r, "courseID")
	courseID, err := uuid.Parse(courseIDStr)
	if err != nil {
		l.WarnContext(r.Context(), "Invalid course ID format", slog.String("courseID", courseIDStr), slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid course ID format")
		return uuid.Nil, uuid.Nil, false
	}
	return ownerID, courseID, true
}
