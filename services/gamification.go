package services

import (
	stdContext "context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/plano-vida/plano_api/dto"
	"github.com/plano-vida/plano_api/model"
	"github.com/plano-vida/plano_api/services/repositories"
	"github.com/plano-vida/plano_api/shared"
)

// GamificationService maintains the per-user streak record and translates
// goal-completion events into point, level and achievement updates.
type GamificationService struct {
	context.DefaultService

	sqlSvc        *SqlService
	redisSvc      *RedisService
	notifSvc      *NotificationService
	monitoringSvc *MonitoringService

	repo *repositories.GamificationRepository

	pointsPerGoal int
}

const GAMIFICATION_SVC = "gamification_svc"

const DefaultPointsPerGoal = 10

// saveRetries bounds the optimistic-concurrency retry loop on the streak row.
const saveRetries = 3

func (svc GamificationService) Id() string {
	return GAMIFICATION_SVC
}

func (svc *GamificationService) Configure(ctx *context.Context) error {
	svc.pointsPerGoal = DefaultPointsPerGoal
	if v := os.Getenv("GOAL_POINTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			svc.pointsPerGoal = n
		}
	}
	return svc.DefaultService.Configure(ctx)
}

func (svc *GamificationService) Start() error {
	svc.sqlSvc = svc.Service(SQL_SVC).(*SqlService)
	svc.redisSvc = svc.Service(REDIS_SVC).(*RedisService)
	svc.notifSvc = svc.Service(NOTIFICATION_SVC).(*NotificationService)
	svc.monitoringSvc, _ = svc.Service(MONITORING_SVC).(*MonitoringService)
	svc.repo = repositories.NewGamificationRepository(svc.sqlSvc.Db())
	return nil
}

// SetRepository allows tests to run the engine against a bare repository.
func (svc *GamificationService) SetRepository(repo *repositories.GamificationRepository) {
	svc.repo = repo
	if svc.pointsPerGoal == 0 {
		svc.pointsPerGoal = DefaultPointsPerGoal
	}
}

// DateOnly truncates a timestamp to its calendar day.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// LevelForPoints derives the level tier purely from accumulated points.
func LevelForPoints(totalPoints int) int {
	return totalPoints/100 + 1
}

// advanceStreak applies the day-continuity rule for activity on `today`.
// Same day is a no-op, the day after the last activity extends the run,
// anything else restarts it. longestStreak never decreases.
func advanceStreak(s *model.UserStreak, today time.Time) {
	today = DateOnly(today)

	if s.LastActivityDate == nil {
		s.CurrentStreak = 1
	} else {
		last := DateOnly(*s.LastActivityDate)
		daysDiff := int(today.Sub(last).Hours() / 24)

		switch daysDiff {
		case 0:
			// Same day, streak already counted.
		case 1:
			s.CurrentStreak++
		default:
			s.CurrentStreak = 1
		}
	}

	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
	s.LastActivityDate = &today
}

// RecordDailyVisit applies the session-start day-boundary check. It runs at
// most once in effect per calendar day per user: repeat visits on the same
// day short-circuit without a write. No points are awarded here.
func (svc *GamificationService) RecordDailyVisit(userID string, today time.Time) (*dto.StreakResponse, error) {
	for attempt := 0; attempt < saveRetries; attempt++ {
		streak, err := svc.repo.GetOrCreateStreak(userID)
		if err != nil {
			return nil, shared.NewPersistenceError(err, "Failed to load streak")
		}

		if streak.LastActivityDate != nil && DateOnly(*streak.LastActivityDate).Equal(DateOnly(today)) {
			return svc.streakResponse(streak), nil
		}

		advanceStreak(streak, today)

		err = svc.repo.SaveStreak(streak)
		if err == nil {
			return svc.streakResponse(streak), nil
		}
		if !errors.Is(err, repositories.ErrVersionConflict) {
			return nil, shared.NewPersistenceError(err, "Failed to save streak")
		}
	}
	return nil, shared.NewPersistenceError(repositories.ErrVersionConflict, "Failed to save streak")
}

// RecordGoalCompletion applies the streak continuity rule, accrues points and
// the goal counter, recomputes the level, persists everything in a single
// conditional update and then runs the achievement evaluator against the new
// metrics. On persistence failure nothing is committed.
func (svc *GamificationService) RecordGoalCompletion(userID string, today time.Time) (*model.UserStreak, []model.Achievement, error) {
	var streak *model.UserStreak

	for attempt := 0; ; attempt++ {
		var err error
		streak, err = svc.repo.GetOrCreateStreak(userID)
		if err != nil {
			return nil, nil, shared.NewPersistenceError(err, "Failed to load streak")
		}

		advanceStreak(streak, today)
		streak.TotalGoalsCompleted++
		streak.TotalPoints += svc.pointsPerGoal
		streak.Level = LevelForPoints(streak.TotalPoints)

		err = svc.repo.SaveStreak(streak)
		if err == nil {
			break
		}
		if !errors.Is(err, repositories.ErrVersionConflict) || attempt+1 >= saveRetries {
			return nil, nil, shared.NewPersistenceError(err, "Failed to save streak")
		}
	}

	unlocked, err := svc.EvaluateAchievements(userID, ProgressMetrics{
		TotalGoalsCompleted: streak.TotalGoalsCompleted,
		LongestStreak:       streak.LongestStreak,
		Level:               streak.Level,
	}, nil)
	if err != nil {
		// The completion itself is committed; surface the evaluator failure
		// in logs rather than failing the whole operation.
		log.WithError(err).WithField("user_id", userID).Error("Achievement evaluation failed")
		unlocked = nil
	}

	svc.invalidateLeaderboardCache()

	return streak, unlocked, nil
}

// ProgressMetrics is the triple the achievement evaluator reads. Streak
// achievements key off the longest streak: it is monotonic, so an unlocked
// achievement can never retroactively stop qualifying.
type ProgressMetrics struct {
	TotalGoalsCompleted int
	LongestStreak       int
	Level               int
}

// EvaluateAchievements records every catalog achievement whose threshold the
// metrics now meet and which the user has not earned yet. Passing nil for
// alreadyEarned loads the earned set from storage. Recording is guarded by a
// unique (user, achievement) constraint, so concurrent evaluation cannot
// double-award; re-running with the same inputs returns an empty list.
func (svc *GamificationService) EvaluateAchievements(userID string, metrics ProgressMetrics, alreadyEarned map[string]bool) ([]model.Achievement, error) {
	if alreadyEarned == nil {
		var err error
		alreadyEarned, err = svc.repo.EarnedAchievementIDs(userID)
		if err != nil {
			return nil, err
		}
	}

	var unlocked []model.Achievement
	for _, def := range model.AchievementCatalog {
		if alreadyEarned[def.ID] {
			continue
		}

		var progress int
		switch def.Type {
		case shared.AchievementTypeGoals:
			progress = metrics.TotalGoalsCompleted
		case shared.AchievementTypeStreak:
			progress = metrics.LongestStreak
		case shared.AchievementTypeLevel:
			progress = metrics.Level
		default:
			continue
		}

		if progress < def.Requirement {
			continue
		}

		created, err := svc.repo.RecordAchievement(userID, def)
		if err != nil {
			return unlocked, err
		}
		if created {
			unlocked = append(unlocked, def)
			if svc.monitoringSvc != nil {
				svc.monitoringSvc.RecordAchievementUnlocked(def.ID)
			}
			svc.notifyUnlock(userID, def)
		}
	}

	return unlocked, nil
}

func (svc *GamificationService) notifyUnlock(userID string, def model.Achievement) {
	if svc.notifSvc == nil {
		return
	}
	if err := svc.notifSvc.NotifyAchievement(userID, def); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"user_id":     userID,
			"achievement": def.ID,
		}).Error("Failed to notify achievement unlock")
	}
}

// ==================== READ SIDE ====================

func (svc *GamificationService) GetStreak(userID string) (*dto.StreakResponse, error) {
	streak, err := svc.repo.GetOrCreateStreak(userID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load streak")
	}
	return svc.streakResponse(streak), nil
}

func (svc *GamificationService) streakResponse(s *model.UserStreak) *dto.StreakResponse {
	return &dto.StreakResponse{
		CurrentStreak:       s.CurrentStreak,
		LongestStreak:       s.LongestStreak,
		LastActivityDate:    s.LastActivityDate,
		TotalGoalsCompleted: s.TotalGoalsCompleted,
		TotalPoints:         s.TotalPoints,
		Level:               s.Level,
		PointsToNextLevel:   s.Level*100 - s.TotalPoints,
	}
}

// GetAchievements merges the static catalog with the user's unlocks.
func (svc *GamificationService) GetAchievements(userID string) (*dto.AchievementListResponse, error) {
	earned, err := svc.repo.GetUserAchievements(userID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load achievements")
	}

	earnedAt := make(map[string]time.Time, len(earned))
	for _, ua := range earned {
		earnedAt[ua.AchievementID] = ua.EarnedAt
	}

	resp := &dto.AchievementListResponse{
		Achievements: make([]dto.AchievementResponse, 0, len(model.AchievementCatalog)),
		Total:        len(model.AchievementCatalog),
	}

	for _, def := range model.AchievementCatalog {
		item := dto.AchievementResponse{
			ID:          def.ID,
			Name:        def.Name,
			Description: def.Description,
			Type:        def.Type,
			Points:      def.Points,
			Requirement: def.Requirement,
		}
		if at, ok := earnedAt[def.ID]; ok {
			item.Unlocked = true
			t := at
			item.EarnedAt = &t
			resp.Unlocked++
		}
		resp.Achievements = append(resp.Achievements, item)
	}

	return resp, nil
}

// ==================== LEADERBOARD ====================

const leaderboardCacheKey = "leaderboard:points:all_time"

// cacheTiers are the only limits stored in redis. Arbitrary limits are
// served from the next tier up so invalidation stays a fixed set of keys.
var cacheTiers = []int{10, 20, 50, 100}

func cacheableLimit(limit int) int {
	for _, tier := range cacheTiers {
		if limit <= tier {
			return tier
		}
	}
	return cacheTiers[len(cacheTiers)-1]
}

func (svc *GamificationService) GetLeaderboard(limit int, currentUserID string) (*dto.LeaderboardResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	resp := &dto.LeaderboardResponse{Period: "all_time"}

	ctx := stdContext.Background()
	cacheLimit := cacheableLimit(limit)
	cacheKey := fmt.Sprintf("%s:%d", leaderboardCacheKey, cacheLimit)
	if svc.redisSvc != nil {
		var cached []dto.LeaderboardEntry
		if err := svc.redisSvc.GetJSON(ctx, cacheKey, &cached); err == nil && len(cached) > 0 {
			if len(cached) > limit {
				cached = cached[:limit]
			}
			resp.TopUsers = cached
			svc.attachCurrentUser(resp, currentUserID)
			return resp, nil
		}
	}

	rows, err := svc.repo.TopStreaksByPoints(cacheLimit)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load leaderboard")
	}

	userRepo := repositories.NewUserRepository(svc.sqlSvc.Db())
	entries := make([]dto.LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		entry := dto.LeaderboardEntry{
			UserID:      row.UserID,
			TotalPoints: row.TotalPoints,
			Level:       row.Level,
			Rank:        i + 1,
		}
		if user, err := userRepo.GetUser(row.UserID); err == nil {
			entry.Username = user.Username
		}
		entries = append(entries, entry)
	}
	if svc.redisSvc != nil {
		if err := svc.redisSvc.Set(ctx, cacheKey, entries, 5*time.Minute); err != nil {
			log.WithError(err).Warn("Failed to cache leaderboard")
		}
	}

	if len(entries) > limit {
		entries = entries[:limit]
	}
	resp.TopUsers = entries

	svc.attachCurrentUser(resp, currentUserID)
	return resp, nil
}

func (svc *GamificationService) attachCurrentUser(resp *dto.LeaderboardResponse, currentUserID string) {
	if currentUserID == "" {
		return
	}
	for i := range resp.TopUsers {
		if resp.TopUsers[i].UserID == currentUserID {
			entry := resp.TopUsers[i]
			resp.CurrentUser = &entry
			return
		}
	}

	rank, err := svc.repo.UserPointsRank(currentUserID)
	if err != nil {
		return
	}
	streak, err := svc.repo.GetOrCreateStreak(currentUserID)
	if err != nil {
		return
	}
	entry := dto.LeaderboardEntry{
		UserID:      currentUserID,
		TotalPoints: streak.TotalPoints,
		Level:       streak.Level,
		Rank:        rank,
	}
	userRepo := repositories.NewUserRepository(svc.sqlSvc.Db())
	if user, err := userRepo.GetUser(currentUserID); err == nil {
		entry.Username = user.Username
	}
	resp.CurrentUser = &entry
}

func (svc *GamificationService) invalidateLeaderboardCache() {
	if svc.redisSvc == nil {
		return
	}
	ctx := stdContext.Background()
	for _, tier := range cacheTiers {
		_ = svc.redisSvc.Delete(ctx, fmt.Sprintf("%s:%d", leaderboardCacheKey, tier))
	}
}
