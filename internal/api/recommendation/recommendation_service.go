package recommendation

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-food-course-suggestions/app/observability/metrics"
	"github.com/FACorreiaa/go-food-course-suggestions/internal/api/store"
	"github.com/FACorreiaa/go-food-course-suggestions/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// AIClient completes a prompt with a single model answer.
type AIClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CourseSaver persists a course for its owner.
type CourseSaver interface {
	CreateCourse(ctx context.Context, ownerID uuid.UUID, req types.CreateCourseRequest) (*types.Course, error)
}

type Service interface {
	Recommend(ctx context.Context, prefs types.CoursePreferences) (*types.CourseRecommendation, error)
	RecommendAndSave(ctx context.Context, ownerID uuid.UUID, prefs types.CoursePreferences) (*types.Course, error)
}

type ServiceImpl struct {
	logger   *slog.Logger
	regions  store.RegionFetcher
	enricher store.Enricher
	builder  *PromptBuilder
	ai       AIClient
	parser   *ResponseParser
	courses  CourseSaver
}

func NewServiceImpl(regions store.RegionFetcher, enricher store.Enricher, builder *PromptBuilder, ai AIClient,
	parser *ResponseParser, courses CourseSaver, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:   logger,
		regions:  regions,
		enricher: enricher,
		builder:  builder,
		ai:       ai,
		parser:   parser,
		courses:  courses,
	}
}

// Recommend runs the pipeline: fetch the regions, bound and geocode the
// candidates, ask the model and validate its answer.
func (s *ServiceImpl) Recommend(ctx context.Context, prefs types.CoursePreferences) (*types.CourseRecommendation, error) {
	ctx, span := otel.Tracer("RecommendationService").Start(ctx, "Recommend", trace.WithAttributes(
		attribute.StringSlice("regions", prefs.Regions),
		attribute.StringSlice("food_styles", prefs.FoodStyles),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "Recommend"))

	start := time.Now()
	outcome := "error"
	defer func() {
		m := metrics.Get()
		attrs := metric.WithAttributes(attribute.String("outcome", outcome))
		m.RecommendationsTotal.Add(ctx, 1, attrs)
		m.RecommendationDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
	}()

	fail := func(msg string, err error) (*types.CourseRecommendation, error) {
		outcome = string(types.KindOf(err))
		l.ErrorContext(ctx, msg, slog.Any("error", err),
			slog.Bool("retryable", types.KindOf(err).IsExternal()))
		span.RecordError(err)
		span.SetStatus(codes.Error, msg)
		return nil, err
	}

	regions, err := requestedRegions(prefs)
	if err != nil {
		return fail("Invalid preferences", err)
	}

	records, err := s.regions.FetchRegions(ctx, regions)
	if err != nil {
		return fail("Failed to fetch region stores", err)
	}
	if len(records) == 0 {
		return fail("No stores for regions", types.NewNotFoundError(types.CodeNoStoresFound,
			"no stores found for the requested regions"))
	}
	records = s.builder.Bound(records)
	span.SetAttributes(attribute.Int("candidates.count", len(records)))

	candidates := s.enricher.Enrich(ctx, records)

	req, err := s.builder.Build(prefs, candidates)
	if err != nil {
		return fail("Failed to build recommendation request", err)
	}

	raw, err := s.ai.Complete(ctx, s.builder.Prompt(req))
	if err != nil {
		return fail("AI request failed", err)
	}

	course, err := s.parser.Parse(ctx, raw, req.Candidates)
	if err != nil {
		return fail("AI response rejected", err)
	}

	outcome = "ok"
	l.InfoContext(ctx, "Course recommended",
		slog.String("courseName", course.CourseName),
		slog.Int("storeCount", course.StoreCount))
	span.SetAttributes(attribute.Int("stores.count", course.StoreCount))
	span.SetStatus(codes.Ok, "")
	return course, nil
}

func (s *ServiceImpl) RecommendAndSave(ctx context.Context, ownerID uuid.UUID, prefs types.CoursePreferences) (*types.Course, error) {
	ctx, span := otel.Tracer("RecommendationService").Start(ctx, "RecommendAndSave", trace.WithAttributes(
		attribute.String("user.id", ownerID.String()),
	))
	defer span.End()

	rec, err := s.Recommend(ctx, prefs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "recommend failed")
		return nil, err
	}

	saved, err := s.courses.CreateCourse(ctx, ownerID, types.CreateCourseRequest{
		CourseName:  rec.CourseName,
		Description: rec.Description,
		StoreCount:  rec.StoreCount,
		Stops:       rec.Stops,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to save recommended course", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return saved, nil
}
