package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/plano-vida/plano_api/model"
	"github.com/plano-vida/plano_api/services/repositories"
	"github.com/plano-vida/plano_api/shared"
)

func newNotificationTestService(t *testing.T) (*NotificationService, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Notification{}, &model.User{}))

	svc := &NotificationService{
		emailSvc: &EmailService{},
		repo:     repositories.NewNotificationRepository(db),
		userRepo: repositories.NewUserRepository(db),
	}
	return svc, db
}

func TestNotificationLifecycle(t *testing.T) {
	svc, _ := newNotificationTestService(t)

	require.NoError(t, svc.CreateNotification("u1", shared.NotificationTypeReminder,
		"Metas pendentes", "Você tem 3 metas para este ano"))
	require.NoError(t, svc.CreateNotification("u1", shared.NotificationTypeSystem,
		"Bem-vindo", "Seu plano está pronto"))
	require.NoError(t, svc.CreateNotification("u2", shared.NotificationTypeSystem,
		"Bem-vindo", "Seu plano está pronto"))

	resp, err := svc.ListNotifications("u1", 10)
	require.NoError(t, err)
	require.Len(t, resp.Notifications, 2)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 2, resp.Unread)

	require.NoError(t, svc.MarkRead("u1", resp.Notifications[0].ID))

	resp, err = svc.ListNotifications("u1", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Unread)

	// total counts past the page size
	resp, err = svc.ListNotifications("u1", 1)
	require.NoError(t, err)
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, 2, resp.Total)

	require.NoError(t, svc.MarkAllRead("u1"))

	resp, err = svc.ListNotifications("u1", 10)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Unread)

	// the other user's inbox is untouched
	resp, err = svc.ListNotifications("u2", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Unread)
}

func TestNotifyAchievement(t *testing.T) {
	svc, db := newNotificationTestService(t)

	user := model.User{ID: "u1", Email: "u1@example.com", Username: "u1", ReminderEmails: true}
	require.NoError(t, db.Create(&user).Error)

	def := model.AchievementCatalog[0]
	require.NoError(t, svc.NotifyAchievement("u1", def))

	resp, err := svc.ListNotifications("u1", 10)
	require.NoError(t, err)
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, shared.NotificationTypeAchievement, resp.Notifications[0].Type)
	assert.Contains(t, resp.Notifications[0].Title, def.Name)
}
