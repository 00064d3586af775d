package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/plano-vida/plano_api/model"
	"github.com/plano-vida/plano_api/services/repositories"
)

func newGamificationTestService(t *testing.T) (*GamificationService, *repositories.GamificationRepository) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.UserStreak{}, &model.UserAchievement{}))

	repo := repositories.NewGamificationRepository(db)
	svc := &GamificationService{}
	svc.SetRepository(repo)
	return svc, repo
}

func day(yyyy int, mm time.Month, dd int) time.Time {
	return time.Date(yyyy, mm, dd, 15, 30, 0, 0, time.UTC)
}

func TestAdvanceStreak(t *testing.T) {
	base := day(2026, 3, 10)

	t.Run("first activity starts at one", func(t *testing.T) {
		s := &model.UserStreak{}
		advanceStreak(s, base)
		assert.Equal(t, 1, s.CurrentStreak)
		assert.Equal(t, 1, s.LongestStreak)
		require.NotNil(t, s.LastActivityDate)
		assert.Equal(t, DateOnly(base), *s.LastActivityDate)
	})

	t.Run("next day extends", func(t *testing.T) {
		last := DateOnly(base)
		s := &model.UserStreak{CurrentStreak: 4, LongestStreak: 4, LastActivityDate: &last}
		advanceStreak(s, base.AddDate(0, 0, 1))
		assert.Equal(t, 5, s.CurrentStreak)
		assert.Equal(t, 5, s.LongestStreak)
	})

	t.Run("same day is a no-op for the counter", func(t *testing.T) {
		last := DateOnly(base)
		s := &model.UserStreak{CurrentStreak: 4, LongestStreak: 6, LastActivityDate: &last}
		advanceStreak(s, base.Add(5*time.Hour))
		assert.Equal(t, 4, s.CurrentStreak)
		assert.Equal(t, 6, s.LongestStreak)
	})

	t.Run("gap resets to one but longest survives", func(t *testing.T) {
		last := DateOnly(base)
		s := &model.UserStreak{CurrentStreak: 9, LongestStreak: 9, LastActivityDate: &last}
		advanceStreak(s, base.AddDate(0, 0, 3))
		assert.Equal(t, 1, s.CurrentStreak)
		assert.Equal(t, 9, s.LongestStreak)
	})
}

func TestLevelForPoints(t *testing.T) {
	assert.Equal(t, 1, LevelForPoints(0))
	assert.Equal(t, 1, LevelForPoints(99))
	assert.Equal(t, 2, LevelForPoints(100))
	assert.Equal(t, 3, LevelForPoints(250))
	assert.Equal(t, 11, LevelForPoints(1000))
}

func TestRecordDailyVisit(t *testing.T) {
	svc, repo := newGamificationTestService(t)
	userID := "user-1"
	today := day(2026, 3, 10)

	resp, err := svc.RecordDailyVisit(userID, today)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.CurrentStreak)
	assert.Equal(t, 0, resp.TotalPoints)

	// second visit on the same day must not touch the row
	before, err := repo.GetOrCreateStreak(userID)
	require.NoError(t, err)
	resp, err = svc.RecordDailyVisit(userID, today.Add(6*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, resp.CurrentStreak)
	after, err := repo.GetOrCreateStreak(userID)
	require.NoError(t, err)
	assert.Equal(t, before.Version, after.Version)

	resp, err = svc.RecordDailyVisit(userID, today.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, resp.CurrentStreak)
	assert.Equal(t, 2, resp.LongestStreak)

	// a missed day restarts the run without lowering the record
	resp, err = svc.RecordDailyVisit(userID, today.AddDate(0, 0, 5))
	require.NoError(t, err)
	assert.Equal(t, 1, resp.CurrentStreak)
	assert.Equal(t, 2, resp.LongestStreak)
}

func TestRecordGoalCompletion(t *testing.T) {
	svc, _ := newGamificationTestService(t)
	userID := "user-2"
	today := day(2026, 3, 10)

	streak, unlocked, err := svc.RecordGoalCompletion(userID, today)
	require.NoError(t, err)
	assert.Equal(t, 1, streak.TotalGoalsCompleted)
	assert.Equal(t, DefaultPointsPerGoal, streak.TotalPoints)
	assert.Equal(t, 1, streak.Level)
	require.Len(t, unlocked, 1)
	assert.Equal(t, "first_goal", unlocked[0].ID)

	// completing more goals the same day keeps the streak at one
	streak, unlocked, err = svc.RecordGoalCompletion(userID, today)
	require.NoError(t, err)
	assert.Equal(t, 1, streak.CurrentStreak)
	assert.Equal(t, 2, streak.TotalGoalsCompleted)
	assert.Empty(t, unlocked)
}

func TestRecordGoalCompletionLevelsUp(t *testing.T) {
	svc, _ := newGamificationTestService(t)
	userID := "user-3"

	var last *model.UserStreak
	for i := 0; i < 10; i++ {
		var err error
		last, _, err = svc.RecordGoalCompletion(userID, day(2026, 3, 10))
		require.NoError(t, err)
	}

	assert.Equal(t, 10, last.TotalGoalsCompleted)
	assert.Equal(t, 100, last.TotalPoints)
	assert.Equal(t, 2, last.Level)
}

func TestEvaluateAchievements(t *testing.T) {
	svc, repo := newGamificationTestService(t)
	userID := "user-4"

	metrics := ProgressMetrics{TotalGoalsCompleted: 12, LongestStreak: 7, Level: 2}
	unlocked, err := svc.EvaluateAchievements(userID, metrics, nil)
	require.NoError(t, err)

	var ids []string
	for _, a := range unlocked {
		ids = append(ids, a.ID)
	}
	assert.ElementsMatch(t, []string{"first_goal", "goals_10", "streak_3", "streak_7"}, ids)

	// re-running with the same metrics awards nothing new
	unlocked, err = svc.EvaluateAchievements(userID, metrics, nil)
	require.NoError(t, err)
	assert.Empty(t, unlocked)

	earned, err := repo.EarnedAchievementIDs(userID)
	require.NoError(t, err)
	assert.Len(t, earned, 4)
}

func TestStreakAchievementsKeyOffLongestStreak(t *testing.T) {
	svc, _ := newGamificationTestService(t)
	userID := "user-5"

	// current run already collapsed, the record still qualifies
	metrics := ProgressMetrics{TotalGoalsCompleted: 0, LongestStreak: 30, Level: 1}
	unlocked, err := svc.EvaluateAchievements(userID, metrics, nil)
	require.NoError(t, err)

	var ids []string
	for _, a := range unlocked {
		ids = append(ids, a.ID)
	}
	assert.ElementsMatch(t, []string{"streak_3", "streak_7", "streak_30"}, ids)
}

func TestSaveStreakVersionConflict(t *testing.T) {
	_, repo := newGamificationTestService(t)

	streak, err := repo.GetOrCreateStreak("user-6")
	require.NoError(t, err)

	stale := *streak
	streak.TotalPoints = 50
	require.NoError(t, repo.SaveStreak(streak))

	stale.TotalPoints = 70
	err = repo.SaveStreak(&stale)
	assert.ErrorIs(t, err, repositories.ErrVersionConflict)
}

func TestGetAchievementsMergesCatalog(t *testing.T) {
	svc, _ := newGamificationTestService(t)
	userID := "user-7"

	_, err := svc.EvaluateAchievements(userID, ProgressMetrics{TotalGoalsCompleted: 1, Level: 1}, nil)
	require.NoError(t, err)

	resp, err := svc.GetAchievements(userID)
	require.NoError(t, err)
	assert.Equal(t, len(model.AchievementCatalog), resp.Total)
	assert.Equal(t, 1, resp.Unlocked)

	for _, a := range resp.Achievements {
		if a.ID == "first_goal" {
			assert.True(t, a.Unlocked)
			assert.NotNil(t, a.EarnedAt)
		} else {
			assert.False(t, a.Unlocked)
		}
	}
}

func TestCacheableLimitCoversEveryServedLimit(t *testing.T) {
	cases := map[int]int{
		1:   10,
		10:  10,
		11:  20,
		20:  20,
		37:  50,
		50:  50,
		51:  100,
		100: 100,
	}
	for limit, want := range cases {
		assert.Equal(t, want, cacheableLimit(limit), "limit %d", limit)
	}

	// invalidation clears exactly the tiers the cache can hold
	for limit := 1; limit <= 100; limit++ {
		assert.Contains(t, cacheTiers, cacheableLimit(limit))
	}
}
