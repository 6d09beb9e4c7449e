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
	"github.com/stwalsh4118/wealthmap/internal/models"
)

func newFavoriteFixture(t *testing.T) (FavoriteService, *MockFavoriteRepository, *Sessions) {
	t.Helper()
	repo := new(MockFavoriteRepository)
	sessions := newTestSessions(t, newMemGateway())
	return NewFavoriteService(repo, sessions, logger.NewNop()), repo, sessions
}

func TestToggleFavorite_OnThenOff(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, repo, _ := newFavoriteFixture(t)
	repo.On("ListByUser", mock.Anything, "alice").Return([]models.Favorite{}, nil).Once()
	repo.On("Add", mock.Anything, "alice", "p1", mock.AnythingOfType("time.Time")).Return(nil).Once()
	repo.On("Remove", mock.Anything, "alice", "p1").Return(nil).Once()

	// Act
	on, err := svc.Toggle(ctx, alice, "p1")
	require.NoError(t, err)
	off, err := svc.Toggle(ctx, alice, "p1")
	require.NoError(t, err)

	// Assert
	assert.True(t, on)
	assert.False(t, off)
	repo.AssertExpectations(t)
}

func TestToggleFavorite_ExistingFavoriteIsRemoved(t *testing.T) {
	svc, repo, _ := newFavoriteFixture(t)
	repo.On("ListByUser", mock.Anything, "alice").Return([]models.Favorite{
		{UserID: "alice", PropertyID: "p1", CreatedAt: time.Now()},
	}, nil)
	repo.On("Remove", mock.Anything, "alice", "p1").Return(nil)

	on, err := svc.Toggle(context.Background(), alice, "p1")

	require.NoError(t, err)
	assert.False(t, on)
}

func TestToggleFavorite_RepositoryFailureReverts(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, repo, sessions := newFavoriteFixture(t)
	repo.On("ListByUser", mock.Anything, "alice").Return([]models.Favorite{}, nil)
	repo.On("Add", mock.Anything, "alice", "p1", mock.Anything).Return(errors.New("db down"))

	// Act
	on, err := svc.Toggle(ctx, alice, "p1")

	// Assert
	assert.Error(t, err)
	assert.False(t, on)

	sess := sessions.get(ctx, alice.UserID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	assert.NotContains(t, sess.favorites, "p1")
}

func TestToggleFavorite_RemoveFailureKeepsTimestamp(t *testing.T) {
	ctx := context.Background()
	svc, repo, sessions := newFavoriteFixture(t)
	created := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	repo.On("ListByUser", mock.Anything, "alice").Return([]models.Favorite{
		{UserID: "alice", PropertyID: "p1", CreatedAt: created},
	}, nil)
	repo.On("Remove", mock.Anything, "alice", "p1").Return(errors.New("db down"))

	_, err := svc.Toggle(ctx, alice, "p1")
	assert.Error(t, err)

	sess := sessions.get(ctx, alice.UserID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	assert.Equal(t, created, sess.favorites["p1"])
}

func TestToggleFavorite_EmptyID(t *testing.T) {
	svc, repo, _ := newFavoriteFixture(t)

	_, err := svc.Toggle(context.Background(), alice, "")

	assert.ErrorIs(t, err, ErrPropertyNotFound)
	repo.AssertNotCalled(t, "ListByUser", mock.Anything, mock.Anything)
}

func TestListFavorites(t *testing.T) {
	svc, repo, _ := newFavoriteFixture(t)
	want := []models.Favorite{
		{UserID: "alice", PropertyID: "p2", CreatedAt: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)},
		{UserID: "alice", PropertyID: "p1", CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	repo.On("ListByUser", mock.Anything, "alice").Return(want, nil)

	got, err := svc.List(context.Background(), alice)

	require.NoError(t, err)
	assert.Equal(t, want, got)
}
