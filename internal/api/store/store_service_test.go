package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-food-course-suggestions/internal/types"
)

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) FetchRegion(ctx context.Context, region string) ([]types.RegionRecord, error) {
	args := m.Called(ctx, region)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.RegionRecord), args.Error(1)
}

func (m *MockFetcher) FetchRegions(ctx context.Context, regions []string) ([]types.RegionRecord, error) {
	args := m.Called(ctx, regions)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.RegionRecord), args.Error(1)
}

func (m *MockFetcher) FetchDetail(ctx context.Context, sno string) (*types.RegionRecord, error) {
	args := m.Called(ctx, sno)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RegionRecord), args.Error(1)
}

type MockEnricher struct {
	mock.Mock
}

func (m *MockEnricher) Enrich(ctx context.Context, records []types.RegionRecord) []types.EnrichedRecord {
	args := m.Called(ctx, records)
	return args.Get(0).([]types.EnrichedRecord)
}

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) FindStoreBySno(ctx context.Context, sno string) (*types.Store, error) {
	args := m.Called(ctx, sno)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Store), args.Error(1)
}

func (m *MockRepository) SaveStore(ctx context.Context, s types.Store) (uuid.UUID, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockRepository) AddBookmark(ctx context.Context, userID, storeID uuid.UUID) error {
	args := m.Called(ctx, userID, storeID)
	return args.Error(0)
}

func (m *MockRepository) RemoveBookmark(ctx context.Context, userID uuid.UUID, sno string) error {
	args := m.Called(ctx, userID, sno)
	return args.Error(0)
}

func (m *MockRepository) ListBookmarks(ctx context.Context, userID uuid.UUID) ([]types.Store, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Store), args.Error(1)
}

func setupStoreServiceTest() (*ServiceImpl, *MockFetcher, *MockEnricher, *MockRepository) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fetcher := new(MockFetcher)
	enricher := new(MockEnricher)
	repo := new(MockRepository)
	resolver := NewResolver(repo, fetcher, testImageBase, logger)
	return NewServiceImpl(fetcher, fetcher, enricher, resolver, repo, testImageBase, logger), fetcher, enricher, repo
}

func TestServiceImpl_ListRegionStores(t *testing.T) {
	ctx := context.Background()

	t.Run("enriches the listing", func(t *testing.T) {
		service, fetcher, enricher, _ := setupStoreServiceTest()
		records := []types.RegionRecord{{Sno: "1", Name: "A"}, {Sno: "2", Name: "B"}}
		point := &types.GeoPoint{Latitude: "35.1", Longitude: "127.1"}
		fetcher.On("FetchRegion", mock.Anything, "전주시").Return(records, nil).Once()
		enricher.On("Enrich", mock.Anything, records).Return([]types.EnrichedRecord{
			{RegionRecord: records[0], Point: point},
			{RegionRecord: records[1]},
		}).Once()

		stores, err := service.ListRegionStores(ctx, "전주시")
		require.NoError(t, err)
		require.Len(t, stores, 2)
		assert.Equal(t, point, stores[0].Point)
		assert.Nil(t, stores[1].Point)
		fetcher.AssertExpectations(t)
		enricher.AssertExpectations(t)
	})

	t.Run("blank region", func(t *testing.T) {
		service, _, _, _ := setupStoreServiceTest()
		_, err := service.ListRegionStores(ctx, "  ")
		assert.Equal(t, types.ErrKindInvalidInput, types.KindOf(err))
	})

	t.Run("upstream failure passes through", func(t *testing.T) {
		service, fetcher, enricher, _ := setupStoreServiceTest()
		upstream := types.NewAppError(types.ErrKindUpstreamUnavailable, types.CodeExternalAPI, "down", nil)
		fetcher.On("FetchRegion", mock.Anything, "전주시").Return(nil, upstream).Once()

		_, err := service.ListRegionStores(ctx, "전주시")
		assert.ErrorIs(t, err, upstream)
		enricher.AssertNotCalled(t, "Enrich", mock.Anything, mock.Anything)
	})
}

func TestServiceImpl_BookmarkStore(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("existing store", func(t *testing.T) {
		service, fetcher, _, repo := setupStoreServiceTest()
		existing := &types.Store{ID: uuid.New(), Sno: "101", Name: "A"}
		repo.On("FindStoreBySno", mock.Anything, "101").Return(existing, nil).Once()
		repo.On("AddBookmark", mock.Anything, userID, existing.ID).Return(nil).Once()

		st, err := service.BookmarkStore(ctx, userID, "101")
		require.NoError(t, err)
		assert.Equal(t, existing.ID, st.ID)
		repo.AssertExpectations(t)
		fetcher.AssertNotCalled(t, "FetchDetail", mock.Anything, mock.Anything)
	})

	t.Run("first reference saves the store", func(t *testing.T) {
		service, fetcher, _, repo := setupStoreServiceTest()
		newID := uuid.New()
		repo.On("FindStoreBySno", mock.Anything, "202").Return(nil, nil).Once()
		fetcher.On("FetchDetail", mock.Anything, "202").Return(&types.RegionRecord{Sno: "202", Name: "B", Menu: "x^y"}, nil).Once()
		repo.On("SaveStore", mock.Anything, mock.MatchedBy(func(s types.Store) bool {
			return s.Sno == "202" && s.Menu == "x, y" && s.ID == uuid.Nil
		})).Return(newID, nil).Once()
		repo.On("AddBookmark", mock.Anything, userID, newID).Return(nil).Once()

		st, err := service.BookmarkStore(ctx, userID, "202")
		require.NoError(t, err)
		assert.Equal(t, newID, st.ID)
		repo.AssertExpectations(t)
		fetcher.AssertExpectations(t)
	})

	t.Run("unknown store", func(t *testing.T) {
		service, fetcher, _, repo := setupStoreServiceTest()
		repo.On("FindStoreBySno", mock.Anything, "303").Return(nil, nil).Once()
		fetcher.On("FetchDetail", mock.Anything, "303").
			Return(nil, types.NewNotFoundError(types.CodeStoreNotFound, "store 303 not found")).Once()

		_, err := service.BookmarkStore(ctx, userID, "303")
		assert.Equal(t, types.ErrKindNotFound, types.KindOf(err))
		repo.AssertNotCalled(t, "SaveStore", mock.Anything, mock.Anything)
	})

	t.Run("duplicate bookmark", func(t *testing.T) {
		service, _, _, repo := setupStoreServiceTest()
		existing := &types.Store{ID: uuid.New(), Sno: "101"}
		repo.On("FindStoreBySno", mock.Anything, "101").Return(existing, nil).Once()
		repo.On("AddBookmark", mock.Anything, userID, existing.ID).
			Return(types.NewAppError(types.ErrKindConflict, types.CodeBookmarkExists, "exists", nil)).Once()

		_, err := service.BookmarkStore(ctx, userID, "101")
		assert.Equal(t, types.ErrKindConflict, types.KindOf(err))
	})

	t.Run("lookup failure is internal", func(t *testing.T) {
		service, _, _, repo := setupStoreServiceTest()
		repo.On("FindStoreBySno", mock.Anything, "101").Return(nil, errors.New("db down")).Once()

		_, err := service.BookmarkStore(ctx, userID, "101")
		assert.Equal(t, types.ErrKindInternal, types.KindOf(err))
	})
}

func TestServiceImpl_RemoveAndListBookmarks(t *testing.T) {
	ctx := context.Background()
	service, _, _, repo := setupStoreServiceTest()
	userID := uuid.New()

	repo.On("RemoveBookmark", ctx, userID, "101").Return(nil).Once()
	require.NoError(t, service.RemoveBookmark(ctx, userID, "101"))

	saved := []types.Store{{ID: uuid.New(), Sno: "1"}}
	repo.On("ListBookmarks", ctx, userID).Return(saved, nil).Once()
	stores, err := service.ListBookmarks(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, saved, stores)

	repo.AssertExpectations(t)
}
