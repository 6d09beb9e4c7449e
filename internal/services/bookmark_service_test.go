package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/wealthmap/internal/logger"
)

func newBookmarkFixture(t *testing.T) (*bookmarkService, *MockPropertySource, *memGateway) {
	t.Helper()
	source := new(MockPropertySource)
	store := newMemGateway()
	svc := NewBookmarkService(store, NewPropertyService(source, logger.NewNop()), logger.NewNop()).(*bookmarkService)
	return svc, source, store
}

func TestAddBookmark_SnapshotsProperty(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, source, store := newBookmarkFixture(t)
	p := sampleProperties()[1]
	source.On("FindByID", mock.Anything, "p2").Return(&p, nil).Once()

	// Act
	b, created, err := svc.Add(ctx, alice, "p2")

	// Assert
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, p, b.Property)
	assert.Equal(t, []string{"p2"}, store.keys("bookmarks:alice"))
}

func TestAddBookmark_DuplicateKeepsOriginalTimestamp(t *testing.T) {
	ctx := context.Background()
	svc, source, _ := newBookmarkFixture(t)
	p := sampleProperties()[0]
	source.On("FindByID", mock.Anything, "p1").Return(&p, nil).Once()

	first := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return first }
	_, _, err := svc.Add(ctx, alice, "p1")
	require.NoError(t, err)

	svc.now = func() time.Time { return first.Add(time.Hour) }
	b, created, err := svc.Add(ctx, alice, "p1")

	require.NoError(t, err)
	assert.False(t, created)
	assert.True(t, b.BookmarkedAt.Equal(first))
	// The snapshot is not refetched
	source.AssertNumberOfCalls(t, "FindByID", 1)
}

func TestAddBookmark_UnknownProperty(t *testing.T) {
	svc, source, store := newBookmarkFixture(t)
	source.On("FindByID", mock.Anything, "ghost").Return(nil, nil)

	_, _, err := svc.Add(context.Background(), alice, "ghost")

	assert.ErrorIs(t, err, ErrPropertyNotFound)
	assert.Empty(t, store.keys("bookmarks:alice"))
}

func TestAddBookmark_StoreFailure(t *testing.T) {
	svc, source, store := newBookmarkFixture(t)
	p := sampleProperties()[0]
	source.On("FindByID", mock.Anything, "p1").Return(&p, nil)
	store.putErr = errors.New("disk full")

	_, _, err := svc.Add(context.Background(), alice, "p1")

	assert.Error(t, err)
}

func TestListBookmarks_NewestFirst(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, source, _ := newBookmarkFixture(t)
	props := sampleProperties()
	base := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"p1", "p2", "p3"} {
		p := props[i]
		source.On("FindByID", mock.Anything, id).Return(&p, nil)
		svc.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		_, _, err := svc.Add(ctx, alice, id)
		require.NoError(t, err)
	}

	// Act
	list, err := svc.List(ctx, alice)

	// Assert
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "p3", list[0].Property.ID)
	assert.Equal(t, "p2", list[1].Property.ID)
	assert.Equal(t, "p1", list[2].Property.ID)

	// Bookmarks are per user
	other, err := svc.List(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRemoveBookmark_Idempotent(t *testing.T) {
	ctx := context.Background()
	svc, source, store := newBookmarkFixture(t)
	p := sampleProperties()[0]
	source.On("FindByID", mock.Anything, "p1").Return(&p, nil)

	_, _, err := svc.Add(ctx, alice, "p1")
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, alice, "p1"))
	require.NoError(t, svc.Remove(ctx, alice, "p1"))
	assert.Empty(t, store.keys("bookmarks:alice"))
}
