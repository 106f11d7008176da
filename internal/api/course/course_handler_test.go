package course

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-food-course-suggestions/internal/api/auth"
	"github.com/FACorreiaa/go-food-course-suggestions/internal/types"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) CreateCourse(ctx context.Context, ownerID uuid.UUID, req types.CreateCourseRequest) (*types.Course, error) {
	args := m.Called(ctx, ownerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Course), args.Error(1)
}

func (m *MockService) GetCourse(ctx context.Context, ownerID, courseID uuid.UUID) (*types.Course, error) {
	args := m.Called(ctx, ownerID, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Course), args.Error(1)
}

func (m *MockService) ListCourses(ctx context.Context, ownerID uuid.UUID) ([]types.CourseSummary, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.CourseSummary), args.Error(1)
}

func (m *MockService) DeleteCourse(ctx context.Context, ownerID, courseID uuid.UUID) error {
	args := m.Called(ctx, ownerID, courseID)
	return args.Error(0)
}

// newCourseRouter mounts the handler the way the API router does, with the
// caller already authenticated.
func newCourseRouter(h *HandlerImpl, ownerID uuid.UUID) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := auth.WithOwner(req.Context(), ownerID)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Post("/courses", h.CreateCourse)
	r.Get("/courses", h.ListCourses)
	r.Get("/courses/{courseID}", h.GetCourse)
	r.Delete("/courses/{courseID}", h.DeleteCourse)
	return r
}

func TestHandlerImpl_Courses(t *testing.T) {
	ownerID := uuid.New()
	courseID := uuid.New()

	t.Run("create", func(t *testing.T) {
		svc := new(MockService)
		router := newCourseRouter(NewHandlerImpl(svc, discardLogger()), ownerID)
		svc.On("CreateCourse", mock.Anything, ownerID, mock.MatchedBy(func(req types.CreateCourseRequest) bool {
			return req.CourseName == "코스" && len(req.Stops) == 1 && req.Stops[0].Latitude == "35.8"
		})).Return(&types.Course{ID: courseID, Name: "코스", StoreCount: 1}, nil).Once()

		body := `{"courseName":"코스","description":"d","stores":[{"sno":"A","storeName":"a","address":"x","lat":35.8,"lng":"127.1","visitOrder":1}]}`
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/courses", strings.NewReader(body)))

		assert.Equal(t, http.StatusCreated, rr.Code)
		var got types.Course
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, courseID, got.ID)
		svc.AssertExpectations(t)
	})

	t.Run("create with unknown store", func(t *testing.T) {
		svc := new(MockService)
		router := newCourseRouter(NewHandlerImpl(svc, discardLogger()), ownerID)
		svc.On("CreateCourse", mock.Anything, ownerID, mock.Anything).
			Return(nil, types.NewNotFoundError(types.CodeStoreNotFound, "store not found")).Once()

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/courses",
			strings.NewReader(`{"courseName":"c","stores":[{"sno":"X","storeName":"x","address":"","visitOrder":1}]}`)))

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Contains(t, rr.Body.String(), types.CodeStoreNotFound)
	})

	t.Run("list", func(t *testing.T) {
		svc := new(MockService)
		router := newCourseRouter(NewHandlerImpl(svc, discardLogger()), ownerID)
		svc.On("ListCourses", mock.Anything, ownerID).
			Return([]types.CourseSummary{{ID: courseID, Name: "c", Positions: []string{"전주시"}}}, nil).Once()

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/courses", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "전주시")
	})

	t.Run("get", func(t *testing.T) {
		svc := new(MockService)
		router := newCourseRouter(NewHandlerImpl(svc, discardLogger()), ownerID)
		svc.On("GetCourse", mock.Anything, ownerID, courseID).Return(&types.Course{ID: courseID}, nil).Once()

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/courses/"+courseID.String(), nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		svc.AssertExpectations(t)
	})

	t.Run("get with malformed id", func(t *testing.T) {
		svc := new(MockService)
		router := newCourseRouter(NewHandlerImpl(svc, discardLogger()), ownerID)

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/courses/not-a-uuid", nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		svc.AssertNotCalled(t, "GetCourse", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("delete", func(t *testing.T) {
		svc := new(MockService)
		router := newCourseRouter(NewHandlerImpl(svc, discardLogger()), ownerID)
		svc.On("DeleteCourse", mock.Anything, ownerID, courseID).Return(nil).Once()

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/courses/"+courseID.String(), nil))

		assert.Equal(t, http.StatusNoContent, rr.Code)
		svc.AssertExpectations(t)
	})
}
