package course

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/go-food-course-suggestions/app/db"
	"github.com/FACorreiaa/go-food-course-suggestions/app/observability/metrics"
	"github.com/FACorreiaa/go-food-course-suggestions/internal/api/store"
	"github.com/FACorreiaa/go-food-course-suggestions/internal/types"
)

const pgForeignKeyViolation = "23503"

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	UserExists(ctx context.Context, userID uuid.UUID) (bool, error)

	CreateCourse(ctx context.Context, c types.NewCourse) (uuid.UUID, error)
	GetCourse(ctx context.Context, userID, courseID uuid.UUID) (*types.Course, error)
	ListCourses(ctx context.Context, userID uuid.UUID) ([]types.CourseSummary, error)
	DeleteCourse(ctx context.Context, userID, courseID uuid.UUID) error
}

type RepositoryImpl struct {
	logger *slog.Logger
	pgpool database.Pool
}

func NewRepository(pgpool database.Pool, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *RepositoryImpl) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pgpool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
	if err != nil {
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		return false, fmt.Errorf("failed to check user %s: %w", userID, err)
	}
	return exists, nil
}

// CreateCourse writes the course, any store that has no ID yet, and the stops
// in one transaction. Nothing is written when any statement fails.
func (r *RepositoryImpl) CreateCourse(ctx context.Context, c types.NewCourse) (uuid.UUID, error) {
	ctx, span := otel.Tracer("CourseRepository").Start(ctx, "CreateCourse", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("user.id", c.OwnerID.String()),
		attribute.Int("stops.count", len(c.Stops)),
	))
	defer span.End()
	l := r.logger.With(slog.String("method", "CreateCourse"))

	fail := func(msg string, err error) (uuid.UUID, error) {
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		l.ErrorContext(ctx, msg, slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, msg)
		return uuid.Nil, fmt.Errorf("%s: %w", msg, err)
	}

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return fail("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx) // Rollback if not committed

	var courseID uuid.UUID
	err = tx.QueryRow(ctx, `
        INSERT INTO courses (user_id, name, description)
        VALUES ($1, $2, $3)
        RETURNING id
    `, c.OwnerID, c.Name, c.Description).Scan(&courseID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return uuid.Nil, types.NewNotFoundError(types.CodeUserNotFound, "user not found")
		}
		return fail("failed to insert course", err)
	}

	for _, stop := range c.Stops {
		storeID := stop.Store.ID
		if storeID == uuid.Nil {
			storeID, err = store.UpsertStore(ctx, tx, stop.Store)
			if err != nil {
				return fail("failed to save course store", err)
			}
		}
		if _, err = tx.Exec(ctx, `
            INSERT INTO course_stores (course_id, store_id, visit_order)
            VALUES ($1, $2, $3)
        `, courseID, storeID, stop.VisitOrder); err != nil {
			return fail("failed to insert course stop", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fail("failed to commit course", err)
	}

	l.InfoContext(ctx, "Course created", slog.String("courseID", courseID.String()), slog.Int("stops", len(c.Stops)))
	span.SetAttributes(attribute.String("course.id", courseID.String()))
	span.SetStatus(codes.Ok, "")
	return courseID, nil
}

func (r *RepositoryImpl) GetCourse(ctx context.Context, userID, courseID uuid.UUID) (*types.Course, error) {
	ctx, span := otel.Tracer("CourseRepository").Start(ctx, "GetCourse", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("course.id", courseID.String()),
	))
	defer span.End()

	var c types.Course
	err := r.pgpool.QueryRow(ctx, `
        SELECT id, user_id, name, description, created_at
        FROM courses
        WHERE id = $1 AND user_id = $2
    `, courseID, userID).Scan(&c.ID, &c.OwnerID, &c.Name, &c.Description, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewNotFoundError(types.CodeCourseNotFound, "course not found")
		}
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("failed to get course %s: %w", courseID, err)
	}

	rows, err := r.pgpool.Query(ctx, `
        SELECT s.id, s.sno, s.name, s.area, s.address, s.menu, s.open_hours, s.tel,
               s.image_url, s.latitude, s.longitude, cs.visit_order
        FROM course_stores cs
        JOIN stores s ON s.id = cs.store_id
        WHERE cs.course_id = $1
        ORDER BY cs.visit_order
    `, courseID)
	if err != nil {
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "stops query failed")
		return nil, fmt.Errorf("failed to query course stops: %w", err)
	}
	defer rows.Close()

	c.Stops = []types.CourseStop{}
	for rows.Next() {
		var s types.CourseStop
		if err := rows.Scan(&s.StoreID, &s.Sno, &s.StoreName, &s.Area, &s.Address, &s.Menu, &s.Time, &s.Tel,
			&s.ImageURL, &s.Latitude, &s.Longitude, &s.VisitOrder); err != nil {
			return nil, fmt.Errorf("failed to scan course stop: %w", err)
		}
		c.Stops = append(c.Stops, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating course stops: %w", err)
	}
	c.StoreCount = len(c.Stops)

	span.SetStatus(codes.Ok, "")
	return &c, nil
}

func (r *RepositoryImpl) ListCourses(ctx context.Context, userID uuid.UUID) ([]types.CourseSummary, error) {
	ctx, span := otel.Tracer("CourseRepository").Start(ctx, "ListCourses", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	query := `
        SELECT c.id, c.name, c.description, c.created_at,
               COUNT(cs.id),
               COALESCE(array_agg(DISTINCT s.area) FILTER (WHERE s.area <> ''), '{}')
        FROM courses c
        LEFT JOIN course_stores cs ON cs.course_id = c.id
        LEFT JOIN stores s ON s.id = cs.store_id
        WHERE c.user_id = $1
        GROUP BY c.id
        ORDER BY c.created_at DESC
    `
	rows, err := r.pgpool.Query(ctx, query, userID)
	if err != nil {
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	courses := []types.CourseSummary{}
	for rows.Next() {
		var c types.CourseSummary
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.StoreCount, &c.Positions); err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating courses: %w", err)
	}

	span.SetAttributes(attribute.Int("results.count", len(courses)))
	return courses, nil
}

func (r *RepositoryImpl) DeleteCourse(ctx context.Context, userID, courseID uuid.UUID) error {
	ctx, span := otel.Tracer("CourseRepository").Start(ctx, "DeleteCourse", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("course.id", courseID.String()),
	))
	defer span.End()

	tag, err := r.pgpool.Exec(ctx, `DELETE FROM courses WHERE id = $1 AND user_id = $2`, courseID, userID)
	if err != nil {
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return fmt.Errorf("failed to delete course %s: %w", courseID, err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewNotFoundError(types.CodeCourseNotFound, "course not found")
	}
	return nil
}
