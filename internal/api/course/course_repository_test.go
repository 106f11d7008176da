package course

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-food-course-suggestions/internal/types"
)

var stopRowColumns = []string{"id", "sno", "name", "area", "address", "menu", "open_hours", "tel",
	"image_url", "latitude", "longitude", "visit_order"}

func strPtr(s string) *string { return &s }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupCourseRepositoryTest(t *testing.T) (*RepositoryImpl, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewRepository(mock, discardLogger()), mock
}

func upsertArgs() []interface{} {
	args := make([]interface{}, 13)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func TestRepositoryImpl_UserExists(t *testing.T) {
	ctx := context.Background()
	repo, mock := setupCourseRepositoryTest(t)
	userID := uuid.New()

	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM users WHERE id = \$1\)`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.UserExists(ctx, userID)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryImpl_CreateCourse(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	courseID := uuid.New()
	existingStoreID := uuid.New()
	newStoreID := uuid.New()

	newCourse := types.NewCourse{
		OwnerID:     ownerID,
		Name:        "전주 한 바퀴",
		Description: "비빔밥과 국밥",
		Stops: []types.NewCourseStop{
			{Store: types.Store{ID: existingStoreID, Sno: "100", Name: "한옥집"}, VisitOrder: 1},
			{Store: types.Store{Sno: "200", Name: "국밥집", Point: &types.GeoPoint{Latitude: "35.8", Longitude: "127.1"}}, VisitOrder: 2},
		},
	}

	t.Run("writes new stores, the course and its stops in one transaction", func(t *testing.T) {
		repo, mock := setupCourseRepositoryTest(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO courses \(user_id, name, description\)`).
			WithArgs(ownerID, "전주 한 바퀴", "비빔밥과 국밥").
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(courseID))
		mock.ExpectExec(`INSERT INTO course_stores \(course_id, store_id, visit_order\)`).
			WithArgs(courseID, existingStoreID, 1).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectQuery(`INSERT INTO stores .* ON CONFLICT \(sno\) DO UPDATE SET updated_at = stores.updated_at RETURNING id`).
			WithArgs(upsertArgs()...).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(newStoreID))
		mock.ExpectExec(`INSERT INTO course_stores \(course_id, store_id, visit_order\)`).
			WithArgs(courseID, newStoreID, 2).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit()

		id, err := repo.CreateCourse(ctx, newCourse)
		require.NoError(t, err)
		assert.Equal(t, courseID, id)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed stop insert rolls everything back", func(t *testing.T) {
		repo, mock := setupCourseRepositoryTest(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO courses`).
			WithArgs(ownerID, "전주 한 바퀴", "비빔밥과 국밥").
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(courseID))
		mock.ExpectExec(`INSERT INTO course_stores`).
			WithArgs(courseID, existingStoreID, 1).
			WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		_, err := repo.CreateCourse(ctx, newCourse)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown owner", func(t *testing.T) {
		repo, mock := setupCourseRepositoryTest(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO courses`).
			WithArgs(ownerID, "전주 한 바퀴", "비빔밥과 국밥").
			WillReturnError(&pgconn.PgError{Code: pgForeignKeyViolation})
		mock.ExpectRollback()

		_, err := repo.CreateCourse(ctx, newCourse)
		appErr, ok := types.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, types.CodeUserNotFound, appErr.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin fails", func(t *testing.T) {
		repo, mock := setupCourseRepositoryTest(t)
		mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

		_, err := repo.CreateCourse(ctx, newCourse)
		require.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepositoryImpl_GetCourse(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	courseID := uuid.New()
	created := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	t.Run("stops ordered by visit order", func(t *testing.T) {
		repo, mock := setupCourseRepositoryTest(t)
		storeA, storeB := uuid.New(), uuid.New()
		mock.ExpectQuery(`FROM courses\s+WHERE id = \$1 AND user_id = \$2`).
			WithArgs(courseID, ownerID).
			WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "name", "description", "created_at"}).
				AddRow(courseID, ownerID, "코스", "설명", created))
		mock.ExpectQuery(`FROM course_stores cs JOIN stores s ON s.id = cs.store_id WHERE cs.course_id = \$1 ORDER BY cs.visit_order`).
			WithArgs(courseID).
			WillReturnRows(pgxmock.NewRows(stopRowColumns).
				AddRow(storeA, "100", "한옥집", "전주시", "addr a", "비빔밥", "09:00~21:00", "063", strPtr("http://img/a.jpg"), strPtr("35.8"), strPtr("127.1"), 1).
				AddRow(storeB, "200", "국밥집", "전주시", "addr b", "국밥", "", "", (*string)(nil), (*string)(nil), (*string)(nil), 2))

		c, err := repo.GetCourse(ctx, ownerID, courseID)
		require.NoError(t, err)
		assert.Equal(t, "코스", c.Name)
		assert.Equal(t, 2, c.StoreCount)
		require.Len(t, c.Stops, 2)
		assert.Equal(t, "100", c.Stops[0].Sno)
		assert.Equal(t, 1, c.Stops[0].VisitOrder)
		assert.Equal(t, "35.8", *c.Stops[0].Latitude)
		assert.Equal(t, "200", c.Stops[1].Sno)
		assert.Nil(t, c.Stops[1].Latitude)
		assert.Nil(t, c.Stops[1].ImageURL)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other owner's course is not found", func(t *testing.T) {
		repo, mock := setupCourseRepositoryTest(t)
		mock.ExpectQuery(`FROM courses`).
			WithArgs(courseID, ownerID).
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetCourse(ctx, ownerID, courseID)
		appErr, ok := types.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, types.CodeCourseNotFound, appErr.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepositoryImpl_ListCourses(t *testing.T) {
	ctx := context.Background()
	repo, mock := setupCourseRepositoryTest(t)
	ownerID := uuid.New()
	id1, id2 := uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectQuery(`array_agg\(DISTINCT s.area\).* WHERE c.user_id = \$1 GROUP BY c.id ORDER BY c.created_at DESC`).
		WithArgs(ownerID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "description", "created_at", "count", "positions"}).
			AddRow(id1, "코스1", "d1", now, 3, []string{"군산시", "전주시"}).
			AddRow(id2, "코스2", "d2", now, 0, []string{}))

	courses, err := repo.ListCourses(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, 3, courses[0].StoreCount)
	assert.Equal(t, []string{"군산시", "전주시"}, courses[0].Positions)
	assert.Empty(t, courses[1].Positions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryImpl_DeleteCourse(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	courseID := uuid.New()

	t.Run("deleted", func(t *testing.T) {
		repo, mock := setupCourseRepositoryTest(t)
		mock.ExpectExec(`DELETE FROM courses WHERE id = \$1 AND user_id = \$2`).
			WithArgs(courseID, ownerID).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		require.NoError(t, repo.DeleteCourse(ctx, ownerID, courseID))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nothing to delete", func(t *testing.T) {
		repo, mock := setupCourseRepositoryTest(t)
		mock.ExpectExec(`DELETE FROM courses`).
			WithArgs(courseID, ownerID).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		err := repo.DeleteCourse(ctx, ownerID, courseID)
		assert.Equal(t, types.ErrKindNotFound, types.KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
