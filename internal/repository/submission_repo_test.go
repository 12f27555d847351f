package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lumen-edu/lumen-api/internal/models"
)

func setupTestDB(t *testing.T, entities ...interface{}) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(entities...))
	return db
}

func TestSubmissionRepositoryCountsPerUserAndTask(t *testing.T) {
	db := setupTestDB(t, &models.CodeSubmission{})
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	seeds := []models.CodeSubmission{
		{UserID: 1, TaskID: 10, Source: "a", AttemptNumber: 1, CreatedAt: now},
		{UserID: 1, TaskID: 10, Source: "b", IsCorrect: true, AttemptNumber: 2, CreatedAt: now.Add(time.Minute)},
		{UserID: 1, TaskID: 11, Source: "c", AttemptNumber: 1, CreatedAt: now},
		{UserID: 2, TaskID: 10, Source: "d", AttemptNumber: 1, CreatedAt: now},
	}
	for i := range seeds {
		require.NoError(t, repo.SaveForCodeTask(ctx, &seeds[i]))
	}

	count, err := repo.CountForCodeTask(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	count, err = repo.CountForCodeTask(ctx, 2, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	count, err = repo.CountForCodeTask(ctx, 3, 10)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestSubmissionRepositoryListsInAttemptOrder(t *testing.T) {
	db := setupTestDB(t, &models.TextInputSubmission{})
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	// Insert out of order, listing must sort by attempt number.
	for _, attempt := range []int{3, 1, 2} {
		submission := models.TextInputSubmission{
			UserID:        1,
			TaskID:        5,
			Answer:        "Paris",
			AttemptNumber: attempt,
			CreatedAt:     now,
		}
		require.NoError(t, repo.SaveForTextInputTask(ctx, &submission))
	}

	listed, err := repo.ListTextInputSubmissions(ctx, 1, 5)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	for i, submission := range listed {
		require.Equal(t, i+1, submission.AttemptNumber)
	}
}

func TestSubmissionRepositoryPollLogIsAppendOnly(t *testing.T) {
	db := setupTestDB(t, &models.PollSubmission{})
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	first := models.PollSubmission{UserID: 1, TaskID: 3, OptionID: 31, IsCorrect: true, AttemptNumber: 1, CreatedAt: time.Now().UTC()}
	second := models.PollSubmission{UserID: 1, TaskID: 3, OptionID: 32, AttemptNumber: 2, CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.SaveForPollTask(ctx, &first))
	require.NoError(t, repo.SaveForPollTask(ctx, &second))

	listed, err := repo.ListPollSubmissions(ctx, 1, 3)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	require.True(t, listed[0].IsCorrect)
	require.False(t, listed[1].IsCorrect)
}

func TestTxManagerRollsBackOnError(t *testing.T) {
	db := setupTestDB(t, &models.CodeSubmission{})
	repo := NewSubmissionRepository(db)
	tx := NewTxManager(db)
	ctx := context.Background()

	boom := gorm.ErrInvalidData
	err := tx.Do(ctx, func(txCtx context.Context) error {
		submission := models.CodeSubmission{UserID: 1, TaskID: 10, Source: "x", AttemptNumber: 1, CreatedAt: time.Now().UTC()}
		if err := repo.SaveForCodeTask(txCtx, &submission); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	count, err := repo.CountForCodeTask(ctx, 1, 10)
	require.NoError(t, err)
	require.Zero(t, count)
}
