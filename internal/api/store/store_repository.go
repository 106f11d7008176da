package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/go-food-course-suggestions/app/db"
	"github.com/FACorreiaa/go-food-course-suggestions/app/observability/metrics"
	"github.com/FACorreiaa/go-food-course-suggestions/internal/types"
)

const pgForeignKeyViolation = "23503"

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	FindStoreBySno(ctx context.Context, sno string) (*types.Store, error)
	SaveStore(ctx context.Context, s types.Store) (uuid.UUID, error)

	// Bookmarks
	AddBookmark(ctx context.Context, userID, storeID uuid.UUID) error
	RemoveBookmark(ctx context.Context, userID uuid.UUID, sno string) error
	ListBookmarks(ctx context.Context, userID uuid.UUID) ([]types.Store, error)
}

// RowQuerier is satisfied by both the pool and an open transaction.
type RowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
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

const storeColumns = `s.id, s.sno, s.name, s.area, s.address, s.tel, s.open_hours, s.holiday, s.menu,
        s.image_url, s.parking, s.seats, s.latitude, s.longitude, s.created_at`

func scanStore(row pgx.Row) (types.Store, error) {
	var (
		s        types.Store
		lat, lng *string
	)
	err := row.Scan(&s.ID, &s.Sno, &s.Name, &s.Area, &s.Address, &s.Tel, &s.OpenHours, &s.Holiday, &s.Menu,
		&s.ImageURL, &s.Parking, &s.Seats, &lat, &lng, &s.CreatedAt)
	if err != nil {
		return types.Store{}, err
	}
	if lat != nil && lng != nil {
		s.Point = &types.GeoPoint{Latitude: *lat, Longitude: *lng}
	}
	return s, nil
}

func (r *RepositoryImpl) FindStoreBySno(ctx context.Context, sno string) (*types.Store, error) {
	ctx, span := otel.Tracer("StoreRepository").Start(ctx, "FindStoreBySno", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("sno", sno),
	))
	defer span.End()

	query := `SELECT ` + storeColumns + ` FROM stores s WHERE s.sno = $1`
	s, err := scanStore(r.pgpool.QueryRow(ctx, query, sno))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetAttributes(attribute.Bool("found", false))
			return nil, nil
		}
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("failed to find store %s: %w", sno, err)
	}
	span.SetAttributes(attribute.Bool("found", true))
	return &s, nil
}

func (r *RepositoryImpl) SaveStore(ctx context.Context, s types.Store) (uuid.UUID, error) {
	ctx, span := otel.Tracer("StoreRepository").Start(ctx, "SaveStore", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("sno", s.Sno),
	))
	defer span.End()

	id, err := UpsertStore(ctx, r.pgpool, s)
	if err != nil {
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "upsert failed")
		return uuid.Nil, err
	}
	r.logger.InfoContext(ctx, "Store saved", slog.String("sno", s.Sno), slog.String("id", id.String()))
	return id, nil
}

// UpsertStore inserts s unless a store with the same sno exists, and returns
// the id of the row that holds that sno. An existing row is left untouched.
func UpsertStore(ctx context.Context, q RowQuerier, s types.Store) (uuid.UUID, error) {
	var lat, lng *string
	if s.Point != nil {
		lat, lng = &s.Point.Latitude, &s.Point.Longitude
	}
	query := `
        INSERT INTO stores (
            sno, name, area, address, tel, open_hours, holiday, menu,
            image_url, parking, seats, latitude, longitude
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        ON CONFLICT (sno) DO UPDATE SET updated_at = stores.updated_at
        RETURNING id
    `
	var id uuid.UUID
	if err := q.QueryRow(ctx, query,
		s.Sno, s.Name, s.Area, s.Address, s.Tel, s.OpenHours, s.Holiday, s.Menu,
		s.ImageURL, s.Parking, s.Seats, lat, lng,
	).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("failed to upsert store %s: %w", s.Sno, err)
	}
	return id, nil
}

func (r *RepositoryImpl) AddBookmark(ctx context.Context, userID, storeID uuid.UUID) error {
	ctx, span := otel.Tracer("StoreRepository").Start(ctx, "AddBookmark", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("user.id", userID.String()),
		attribute.String("store.id", storeID.String()),
	))
	defer span.End()

	tag, err := r.pgpool.Exec(ctx, `
        INSERT INTO store_bookmarks (user_id, store_id, created_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id, store_id) DO NOTHING
    `, userID, storeID, time.Now())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return types.NewNotFoundError(types.CodeUserNotFound, "user not found")
		}
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return fmt.Errorf("failed to add bookmark: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrKindConflict, types.CodeBookmarkExists, "store is already bookmarked", nil)
	}
	return nil
}

func (r *RepositoryImpl) RemoveBookmark(ctx context.Context, userID uuid.UUID, sno string) error {
	ctx, span := otel.Tracer("StoreRepository").Start(ctx, "RemoveBookmark", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("user.id", userID.String()),
		attribute.String("sno", sno),
	))
	defer span.End()

	tag, err := r.pgpool.Exec(ctx, `
        DELETE FROM store_bookmarks b
        USING stores s
        WHERE b.store_id = s.id AND b.user_id = $1 AND s.sno = $2
    `, userID, sno)
	if err != nil {
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return fmt.Errorf("failed to remove bookmark: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewNotFoundError(types.CodeBookmarkNotFound, "bookmark not found")
	}
	return nil
}

func (r *RepositoryImpl) ListBookmarks(ctx context.Context, userID uuid.UUID) ([]types.Store, error) {
	ctx, span := otel.Tracer("StoreRepository").Start(ctx, "ListBookmarks", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	query := `
        SELECT ` + storeColumns + `
        FROM store_bookmarks b
        JOIN stores s ON s.id = b.store_id
        WHERE b.user_id = $1
        ORDER BY b.created_at DESC
    `
	rows, err := r.pgpool.Query(ctx, query, userID)
	if err != nil {
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("failed to query bookmarks: %w", err)
	}
	defer rows.Close()

	stores := []types.Store{}
	for rows.Next() {
		s, err := scanStore(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bookmarked store: %w", err)
		}
		stores = append(stores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookmarks: %w", err)
	}
	span.SetAttributes(attribute.Int("results.count", len(stores)))
	return stores, nil
}
