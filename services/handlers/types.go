package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/plano-vida/plano_api/dto"
)

type AuthServiceInterface interface {
	Register(req dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(req dto.LoginRequest, ip string) (*dto.LoginResponse, error)
	VerifyEmail(req dto.VerifyEmailRequest) error
	ResendVerificationCode(email string) error
	ForgotPassword(req dto.ForgotPasswordRequest) error
	ResetPassword(req dto.ResetPasswordRequest) error
	ChangePassword(userID string, req dto.ChangePasswordRequest) error
	GetProfile(userID string) (*dto.UserProfileResponse, error)
	UpdateProfile(userID string, req dto.UpdateProfileRequest) (*dto.UserProfileResponse, error)
	RequiredAuth() fiber.Handler
	RequiredAdmin() fiber.Handler
}

type PlanServiceInterface interface {
	CreatePlan(userID string, req dto.CreatePlanRequest) (*dto.PlanResponse, error)
	GetPlan(userID, planID string) (*dto.PlanResponse, error)
	ListPlans(userID string) ([]dto.PlanResponse, error)
	UpdatePlan(userID, planID string, req dto.UpdatePlanRequest) (*dto.PlanResponse, error)
	DeletePlan(userID, planID string) error
	CreateGoal(userID, planID string, req dto.CreateGoalRequest) (*dto.GoalResponse, error)
	ListGoals(userID, planID string) ([]dto.GoalResponse, error)
	UpdateGoal(userID, goalID string, req dto.UpdateGoalRequest) (*dto.GoalResponse, error)
	DeleteGoal(userID, goalID string) error
	CompleteGoal(userID, goalID string) (*dto.CompleteGoalResponse, error)
	UncompleteGoal(userID, goalID string) (*dto.GoalResponse, error)
	CreateNote(userID, goalID string, req dto.CreateNoteRequest) (*dto.NoteResponse, error)
	ListNotes(userID, goalID string) ([]dto.NoteResponse, error)
	DeleteNote(userID, noteID string) error
	GetProgress(userID, planID string) (*dto.PlanProgressResponse, error)
	CommitImport(userID string, req dto.CommitImportRequest) (*dto.CommitImportResponse, error)
	ExportPlan(userID, planID, format string) (*dto.ExportResponse, error)
}

type GamificationServiceInterface interface {
	RecordDailyVisit(userID string, today time.Time) (*dto.StreakResponse, error)
	GetStreak(userID string) (*dto.StreakResponse, error)
	GetAchievements(userID string) (*dto.AchievementListResponse, error)
	GetLeaderboard(limit int, currentUserID string) (*dto.LeaderboardResponse, error)
}

type ImportServiceInterface interface {
	ProcessUpload(userID, filename string, data []byte) (*dto.ImportResult, error)
}

type AIServiceInterface interface {
	Enabled() bool
	SummarizePlan(ctx context.Context, goals []string) (string, error)
}

type NotificationServiceInterface interface {
	ListNotifications(userID string, limit int) (*dto.NotificationListResponse, error)
	MarkRead(userID, notificationID string) error
	MarkAllRead(userID string) error
}

type BillingServiceInterface interface {
	RequirePremium(userID string) error
	GetSubscription(userID string) (*dto.SubscriptionResponse, error)
	CreateCheckoutURL(userID string, req dto.CheckoutRequest) (*dto.CheckoutResponse, error)
	CustomerPortalURL(userID string) (*dto.PortalResponse, error)
	HandleWebhook(payload []byte, headers http.Header) error
}
