package course

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-food-course-suggestions/app/observability/metrics"
	"github.com/FACorreiaa/go-food-course-suggestions/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// StoreResolver returns the canonical store for a sno, unsaved stores having a nil ID.
type StoreResolver interface {
	Resolve(ctx context.Context, sno string, hint *types.GeoPoint) (types.Store, error)
}

type Service interface {
	CreateCourse(ctx context.Context, ownerID uuid.UUID, req types.CreateCourseRequest) (*types.Course, error)
	GetCourse(ctx context.Context, ownerID, courseID uuid.UUID) (*types.Course, error)
	ListCourses(ctx context.Context, ownerID uuid.UUID) ([]types.CourseSummary, error)
	DeleteCourse(ctx context.Context, ownerID, courseID uuid.UUID) error
}

type ServiceImpl struct {
	logger   *slog.Logger
	repo     Repository
	stores   StoreResolver
	maxStops int
}

func NewServiceImpl(repo Repository, stores StoreResolver, maxStops int, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:   logger,
		repo:     repo,
		stores:   stores,
		maxStops: maxStops,
	}
}

func (s *ServiceImpl) validate(req types.CreateCourseRequest) error {
	if strings.TrimSpace(req.CourseName) == "" {
		return types.NewInvalidInputError("courseName is required")
	}
	if len(req.Stops) == 0 {
		return types.NewInvalidInputError("a course needs at least one store")
	}
	if s.maxStops > 0 && len(req.Stops) > s.maxStops {
		return types.NewInvalidInputError(fmt.Sprintf("a course has at most %d stores", s.maxStops))
	}
	seen := make(map[string]struct{}, len(req.Stops))
	for i, stop := range req.Stops {
		sno := strings.TrimSpace(stop.Sno)
		if sno == "" {
			return types.NewInvalidInputError(fmt.Sprintf("stores[%d].sno is required", i))
		}
		if _, dup := seen[sno]; dup {
			return types.NewInvalidInputError(fmt.Sprintf("store %s appears more than once", sno))
		}
		seen[sno] = struct{}{}
		if stop.VisitOrder < 1 {
			return types.NewInvalidInputError(fmt.Sprintf("stores[%d].visitOrder must be at least 1", i))
		}
	}
	return nil
}

// CreateCourse stores req for ownerID. Every stop must resolve to a store;
// if one cannot, nothing is written.
func (s *ServiceImpl) CreateCourse(ctx context.Context, ownerID uuid.UUID, req types.CreateCourseRequest) (*types.Course, error) {
	ctx, span := otel.Tracer("CoursePersistenceService").Start(ctx, "CreateCourse", trace.WithAttributes(
		attribute.String("user.id", ownerID.String()),
		attribute.String("course.name", req.CourseName),
		attribute.Int("stops.count", len(req.Stops)),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "CreateCourse"), slog.String("ownerID", ownerID.String()))

	if err := s.validate(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid course")
		return nil, err
	}

	exists, err := s.repo.UserExists(ctx, ownerID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to check owner", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "owner check failed")
		return nil, types.NewInternalError("failed to check user", err)
	}
	if !exists {
		span.SetStatus(codes.Error, "owner not found")
		return nil, types.NewNotFoundError(types.CodeUserNotFound, "user not found")
	}

	ordered := make([]types.RecommendedStop, len(req.Stops))
	copy(ordered, req.Stops)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].VisitOrder < ordered[j].VisitOrder
	})

	newCourse := types.NewCourse{
		OwnerID:     ownerID,
		Name:        strings.TrimSpace(req.CourseName),
		Description: strings.TrimSpace(req.Description),
		Stops:       make([]types.NewCourseStop, 0, len(ordered)),
	}
	for i, stop := range ordered {
		sno := strings.TrimSpace(stop.Sno)
		st, err := s.stores.Resolve(ctx, sno, types.PointOf(stop.Latitude, stop.Longitude))
		if err != nil {
			l.WarnContext(ctx, "Store could not be resolved, course not created", slog.String("sno", sno), slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "store resolution failed")
			return nil, err
		}
		newCourse.Stops = append(newCourse.Stops, types.NewCourseStop{Store: st, VisitOrder: i + 1})
	}

	courseID, err := s.repo.CreateCourse(ctx, newCourse)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		return nil, internalUnlessTagged(err, "failed to save course")
	}

	created, err := s.repo.GetCourse(ctx, ownerID, courseID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to reload created course", slog.String("courseID", courseID.String()), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "reload failed")
		return nil, types.NewInternalError("failed to load saved course", err)
	}

	metrics.Get().CoursesCreatedTotal.Add(ctx, 1)
	l.InfoContext(ctx, "Course saved", slog.String("courseID", courseID.String()), slog.Int("stops", created.StoreCount))
	span.SetStatus(codes.Ok, "")
	return created, nil
}

func (s *ServiceImpl) GetCourse(ctx context.Context, ownerID, courseID uuid.UUID) (*types.Course, error) {
	c, err := s.repo.GetCourse(ctx, ownerID, courseID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to get course", slog.String("courseID", courseID.String()), slog.Any("error", err))
		return nil, internalUnlessTagged(err, "failed to get course")
	}
	return c, nil
}

func (s *ServiceImpl) ListCourses(ctx context.Context, ownerID uuid.UUID) ([]types.CourseSummary, error) {
	courses, err := s.repo.ListCourses(ctx, ownerID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list courses", slog.Any("error", err))
		return nil, internalUnlessTagged(err, "failed to list courses")
	}
	return courses, nil
}

func (s *ServiceImpl) DeleteCourse(ctx context.Context, ownerID, courseID uuid.UUID) error {
	if err := s.repo.DeleteCourse(ctx, ownerID, courseID); err != nil {
		s.logger.ErrorContext(ctx, "failed to delete course", slog.String("courseID", courseID.String()), slog.Any("error", err))
		return internalUnlessTagged(err, "failed to delete course")
	}
	s.logger.InfoContext(ctx, "Course deleted", slog.String("courseID", courseID.String()))
	return nil
}

func internalUnlessTagged(err error, message string) error {
	if _, ok := types.AsAppError(err); ok {
		return err
	}
	return types.NewInternalError(message, err)
}
