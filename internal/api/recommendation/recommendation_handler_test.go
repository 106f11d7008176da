package recommendation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

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

func (m *MockService) Recommend(ctx context.Context, prefs types.CoursePreferences) (*types.CourseRecommendation, error) {
	args := m.Called(ctx, prefs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.CourseRecommendation), args.Error(1)
}

func (m *MockService) RecommendAndSave(ctx context.Context, ownerID uuid.UUID, prefs types.CoursePreferences) (*types.Course, error) {
	args := m.Called(ctx, ownerID, prefs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Course), args.Error(1)
}

func newRecommendRequest(body string, userID string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/courses/recommendations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req = req.WithContext(auth.WithOwner(req.Context(), uuid.MustParse(userID)))
	}
	return req
}

func TestHandlerImpl_RecommendCourse(t *testing.T) {
	ownerID := uuid.New()

	t.Run("returns the recommendation", func(t *testing.T) {
		svc := new(MockService)
		h := NewHandlerImpl(svc, discardLogger())
		prefs := types.CoursePreferences{FoodStyles: []string{"한식"}, Regions: []string{"01"}}
		svc.On("Recommend", mock.Anything, prefs).Return(&types.CourseRecommendation{
			CourseName: "코스",
			StoreCount: 1,
			Stops:      []types.RecommendedStop{{Sno: "A1", StoreName: "가게A", VisitOrder: 1}},
		}, nil).Once()

		rr := httptest.NewRecorder()
		h.RecommendCourse(rr, newRecommendRequest(`{"foodStyles":["한식"],"regions":["01"]}`, ownerID.String()))

		assert.Equal(t, http.StatusOK, rr.Code)
		var got types.CourseRecommendation
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, "코스", got.CourseName)
		assert.Equal(t, "A1", got.Stops[0].Sno)
		svc.AssertExpectations(t)
	})

	t.Run("save persists for the caller", func(t *testing.T) {
		svc := new(MockService)
		h := NewHandlerImpl(svc, discardLogger())
		courseID := uuid.New()
		svc.On("RecommendAndSave", mock.Anything, ownerID, mock.MatchedBy(func(p types.CoursePreferences) bool {
			return p.Save && len(p.Regions) == 1
		})).Return(&types.Course{ID: courseID, OwnerID: ownerID, Name: "코스"}, nil).Once()

		rr := httptest.NewRecorder()
		h.RecommendCourse(rr, newRecommendRequest(`{"regions":["01"],"save":true}`, ownerID.String()))

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Contains(t, rr.Body.String(), courseID.String())
		svc.AssertExpectations(t)
	})

	t.Run("save without a user", func(t *testing.T) {
		svc := new(MockService)
		h := NewHandlerImpl(svc, discardLogger())

		rr := httptest.NewRecorder()
		h.RecommendCourse(rr, newRecommendRequest(`{"regions":["01"],"save":true}`, ""))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		svc.AssertNotCalled(t, "RecommendAndSave", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("bad body", func(t *testing.T) {
		svc := new(MockService)
		h := NewHandlerImpl(svc, discardLogger())

		rr := httptest.NewRecorder()
		h.RecommendCourse(rr, newRecommendRequest(`{"regions":`, ownerID.String()))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	errorCases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid AI answer", types.NewAppError(types.ErrKindAIResponseInvalid, types.CodeAIResponseInvalid, "bad", nil), http.StatusBadGateway, types.CodeAIResponseInvalid},
		{"AI unavailable", types.NewAppError(types.ErrKindUpstreamUnavailable, types.CodeAIConnectionFailed, "down", nil), http.StatusServiceUnavailable, types.CodeAIConnectionFailed},
		{"no stores", types.NewNotFoundError(types.CodeNoStoresFound, "none"), http.StatusNotFound, types.CodeNoStoresFound},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(MockService)
			h := NewHandlerImpl(svc, discardLogger())
			svc.On("Recommend", mock.Anything, mock.Anything).Return(nil, tc.err).Once()

			rr := httptest.NewRecorder()
			h.RecommendCourse(rr, newRecommendRequest(`{"regions":["01"]}`, ownerID.String()))

			assert.Equal(t, tc.status, rr.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body["code"])
		})
	}
}
