package services

import (
	"fmt"
	"os"
	"strconv"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	log "github.com/sirupsen/logrus"

	"github.com/plano-vida/plano_api/services/handlers"
	"github.com/plano-vida/plano_api/shared"
)

// HttpService owns the public fiber app and the route table.
type HttpService struct {
	context.DefaultService

	authSvc         *AuthService
	planSvc         *PlanService
	gamificationSvc *GamificationService
	importSvc       *ImportService
	aiSvc           *AIService
	notificationSvc *NotificationService
	billingSvc      *BillingService
	rateLimitSvc    *RateLimitService
	monitoringSvc   *MonitoringService

	port int
	app  *fiber.App
}

const HTTP_SVC = "http_svc"

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *context.Context) error {
	if port := os.Getenv("HTTP_PORT"); port != "" {
		var err error
		if svc.port, err = strconv.Atoi(port); err != nil {
			return err
		}
	} else {
		svc.port = 8000
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	svc.authSvc = svc.Service(AUTH_SVC).(*AuthService)
	svc.planSvc = svc.Service(PLAN_SVC).(*PlanService)
	svc.gamificationSvc = svc.Service(GAMIFICATION_SVC).(*GamificationService)
	svc.importSvc = svc.Service(IMPORT_SVC).(*ImportService)
	svc.aiSvc = svc.Service(AI_SVC).(*AIService)
	svc.notificationSvc = svc.Service(NOTIFICATION_SVC).(*NotificationService)
	svc.billingSvc = svc.Service(BILLING_SVC).(*BillingService)
	svc.rateLimitSvc = svc.Service(RATE_LIMIT_SVC).(*RateLimitService)
	svc.monitoringSvc, _ = svc.Service(MONITORING_SVC).(*MonitoringService)

	svc.app = fiber.New(fiber.Config{
		AppName:      "Plano de Vida API",
		BodyLimit:    12 << 20,
		ErrorHandler: svc.errorHandler,
	})

	svc.app.Use(recover.New())
	svc.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	if svc.monitoringSvc != nil {
		svc.app.Use(MonitoringMiddleware(svc.monitoringSvc))
	}

	svc.registerRoutes()

	log.WithField("port", svc.port).Info("HTTP server starting")
	return svc.app.Listen(fmt.Sprintf(":%d", svc.port))
}

func (svc *HttpService) Shutdown() {
	if svc.app != nil {
		_ = svc.app.Shutdown()
	}
}

// errorHandler maps AppError values onto the response envelope; anything
// else becomes an opaque 500.
func (svc *HttpService) errorHandler(c *fiber.Ctx, err error) error {
	if appErr, ok := shared.GetAppError(err); ok {
		if appErr.StatusCode >= 500 {
			log.WithError(err).WithField("path", c.Path()).Error("Request failed")
		}
		return shared.ResponseJSON(c, appErr.StatusCode, appErr.Message, appErr.Data)
	}

	if fiberErr, ok := err.(*fiber.Error); ok {
		return shared.ResponseJSON(c, fiberErr.Code, fiberErr.Message, nil)
	}

	log.WithError(err).WithField("path", c.Path()).Error("Unhandled error")
	return shared.ResponseInternalError(c, err)
}

func (svc *HttpService) registerRoutes() {
	authHandler := handlers.NewAuthHandler(svc.authSvc)
	planHandler := handlers.NewPlanHandler(svc.planSvc)
	importHandler := handlers.NewImportHandler(svc.importSvc, svc.planSvc, svc.billingSvc)
	gamificationHandler := handlers.NewGamificationHandler(svc.gamificationSvc, svc.planSvc, svc.aiSvc, svc.billingSvc)
	notificationHandler := handlers.NewNotificationHandler(svc.notificationSvc)
	billingHandler := handlers.NewBillingHandler(svc.billingSvc)

	svc.app.Get("/ping", svc.ping)
	svc.app.Get("/swagger/*", swagger.HandlerDefault)

	v1 := svc.app.Group("/api/v1")
	v1.Get("/ping", svc.ping)

	// Public auth endpoints, tightly rate limited.
	authLimited := v1.Group("", svc.rateLimitSvc.AuthMiddleware())
	authLimited.Post("/register", authHandler.Register)
	authLimited.Post("/login", authHandler.Login)
	authLimited.Post("/verify-email", authHandler.VerifyEmail)
	authLimited.Post("/resend-verification", authHandler.ResendVerification)
	authLimited.Post("/forgot-password", authHandler.ForgotPassword)
	authLimited.Post("/reset-password", authHandler.ResetPassword)

	// Webhook is authenticated by its signature, not a bearer token.
	v1.Post("/billing/webhook", billingHandler.Webhook)

	// Everything below requires a valid token.
	authed := v1.Group("", svc.authSvc.RequiredAuth(), svc.rateLimitSvc.Middleware())

	authed.Post("/change-password", authHandler.ChangePassword)
	authed.Get("/profile", authHandler.GetProfile)
	authed.Put("/profile", authHandler.UpdateProfile)

	authed.Post("/plans", planHandler.CreatePlan)
	authed.Get("/plans", planHandler.ListPlans)
	authed.Get("/plans/:planId", planHandler.GetPlan)
	authed.Put("/plans/:planId", planHandler.UpdatePlan)
	authed.Delete("/plans/:planId", planHandler.DeletePlan)
	authed.Get("/plans/:planId/progress", planHandler.GetProgress)
	authed.Get("/plans/:planId/export", planHandler.ExportPlan)
	authed.Get("/plans/:planId/summary", gamificationHandler.SummarizePlan)

	authed.Post("/plans/:planId/goals", planHandler.CreateGoal)
	authed.Get("/plans/:planId/goals", planHandler.ListGoals)
	authed.Put("/goals/:goalId", planHandler.UpdateGoal)
	authed.Delete("/goals/:goalId", planHandler.DeleteGoal)
	authed.Post("/goals/:goalId/complete", planHandler.CompleteGoal)
	authed.Post("/goals/:goalId/uncomplete", planHandler.UncompleteGoal)
	authed.Post("/goals/:goalId/notes", planHandler.CreateNote)
	authed.Get("/goals/:goalId/notes", planHandler.ListNotes)
	authed.Delete("/notes/:noteId", planHandler.DeleteNote)

	authed.Post("/import", svc.rateLimitSvc.ImportMiddleware(), importHandler.Upload)
	authed.Post("/import/commit", importHandler.Commit)

	authed.Post("/streak/visit", gamificationHandler.RecordVisit)
	authed.Get("/streak", gamificationHandler.GetStreak)
	authed.Get("/achievements", gamificationHandler.GetAchievements)
	authed.Get("/leaderboard", gamificationHandler.GetLeaderboard)

	authed.Get("/notifications", notificationHandler.List)
	authed.Post("/notifications/read-all", notificationHandler.MarkAllRead)
	authed.Post("/notifications/:notificationId/read", notificationHandler.MarkRead)

	authed.Get("/billing/subscription", billingHandler.GetSubscription)
	authed.Post("/billing/checkout", billingHandler.Checkout)
	authed.Post("/billing/portal", billingHandler.Portal)
}

// @Summary Liveness check
// @Tags health
// @Produce json
// @Success 200 {object} shared.Response{data=nil}
// @Router /ping [get]
func (svc *HttpService) ping(c *fiber.Ctx) error {
	return shared.ResponseJSON(c, fiber.StatusOK, "pong", nil)
}
