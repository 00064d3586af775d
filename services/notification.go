package services

import (
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

// NotificationService persists in-app notifications and drives the daily
// goal-reminder scheduler.
type NotificationService struct {
	context.DefaultService

	sqlSvc   *SqlService
	emailSvc *EmailService

	repo     *repositories.NotificationRepository
	userRepo *repositories.UserRepository
	planRepo *repositories.PlanRepository

	reminderHour int
}

const NOTIFICATION_SVC = "notification_svc"

func (svc NotificationService) Id() string {
	return NOTIFICATION_SVC
}

func (svc *NotificationService) Configure(ctx *context.Context) error {
	svc.reminderHour = 9
	if v := os.Getenv("REMINDER_HOUR"); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h >= 0 && h <= 23 {
			svc.reminderHour = h
		}
	}
	return svc.DefaultService.Configure(ctx)
}

func (svc *NotificationService) Start() error {
	svc.sqlSvc = svc.Service(SQL_SVC).(*SqlService)
	svc.emailSvc = svc.Service(EMAIL_SVC).(*EmailService)

	svc.repo = repositories.NewNotificationRepository(svc.sqlSvc.Db())
	svc.userRepo = repositories.NewUserRepository(svc.sqlSvc.Db())
	svc.planRepo = repositories.NewPlanRepository(svc.sqlSvc.Db())

	if os.Getenv("DISABLE_REMINDERS") != "true" {
		go svc.startReminderScheduler()
	}

	return nil
}

func (svc *NotificationService) startReminderScheduler() {
	for {
		now := time.Now()
		next := time.Date(now.Year(), now.Month(), now.Day(), svc.reminderHour, 0, 0, 0, now.Location())
		if !next.After(now) {
			next = next.Add(24 * time.Hour)
		}

		timer := time.NewTimer(next.Sub(now))
		<-timer.C

		svc.SendGoalReminders()
	}
}

// SendGoalReminders emails every opted-in user their pending goals for the
// current year and mirrors the reminder as an in-app notification.
func (svc *NotificationService) SendGoalReminders() {
	users, err := svc.userRepo.UsersWithRemindersEnabled()
	if err != nil {
		log.WithError(err).Error("Failed to load users for goal reminders")
		return
	}

	year := time.Now().Year()
	sent := 0

	for _, user := range users {
		goals, err := svc.planRepo.GoalsDueInYear(user.ID, year)
		if err != nil {
			log.WithError(err).WithField("user_id", user.ID).Error("Failed to load goals for reminder")
			continue
		}

		pending := make([]string, 0, len(goals))
		for _, g := range goals {
			pending = append(pending, g.Text)
		}
		if len(pending) == 0 {
			continue
		}
		if len(pending) > 5 {
			pending = pending[:5]
		}

		err = svc.CreateNotification(user.ID, shared.NotificationTypeReminder,
			"Lembrete do seu plano de vida",
			"Você tem metas pendentes para este ano. Continue seu progresso!")
		if err != nil {
			log.WithError(err).WithField("user_id", user.ID).Error("Failed to create reminder notification")
		}

		if err := svc.emailSvc.SendReminderEmail(user.Email, user.Username, year, pending); err != nil {
			log.WithError(err).WithField("user_id", user.ID).Error("Failed to send reminder email")
			continue
		}
		sent++
	}

	log.WithField("count", sent).Info("Goal reminders sent")
}

func (svc *NotificationService) CreateNotification(userID, notificationType, title, body string) error {
	n := &model.Notification{
		UserID: userID,
		Type:   notificationType,
		Title:  title,
		Body:   body,
	}
	return svc.repo.Create(n)
}

// NotifyAchievement records an unlock notification and, when the user has
// emails enabled, sends the congratulation email.
func (svc *NotificationService) NotifyAchievement(userID string, def model.Achievement) error {
	err := svc.CreateNotification(userID, shared.NotificationTypeAchievement,
		"Conquista desbloqueada: "+def.Name, def.Description)
	if err != nil {
		return err
	}

	user, err := svc.userRepo.GetUser(userID)
	if err != nil {
		return err
	}
	if !user.ReminderEmails {
		return nil
	}

	return svc.emailSvc.SendAchievementEmail(user.Email, user.Username, def.Name, def.Description)
}

func (svc *NotificationService) ListNotifications(userID string, limit int) (*dto.NotificationListResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := svc.repo.List(userID, limit)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load notifications")
	}

	unread, err := svc.repo.CountUnread(userID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to count notifications")
	}

	total, err := svc.repo.Count(userID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to count notifications")
	}

	resp := &dto.NotificationListResponse{
		Notifications: make([]dto.NotificationResponse, 0, len(rows)),
		Unread:        int(unread),
		Total:         int(total),
	}
	for _, n := range rows {
		resp.Notifications = append(resp.Notifications, dto.NotificationResponse{
			ID:        n.ID,
			Type:      n.Type,
			Title:     n.Title,
			Body:      n.Body,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		})
	}

	return resp, nil
}

func (svc *NotificationService) MarkRead(userID, notificationID string) error {
	if err := svc.repo.MarkRead(userID, notificationID); err != nil {
		return shared.NewInternalError(err, "Failed to update notification")
	}
	return nil
}

func (svc *NotificationService) MarkAllRead(userID string) error {
	if err := svc.repo.MarkAllRead(userID); err != nil {
		return shared.NewInternalError(err, "Failed to update notifications")
	}
	return nil
}
