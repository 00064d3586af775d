package repositories

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plano-vida/plano_api/model"
)

type NotificationRepository struct {
	BaseRepository
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (r *NotificationRepository) Create(n *model.Notification) error {
	if n.ID == "" {
		id, _ := uuid.NewV7()
		n.ID = id.String()
	}
	n.CreatedAt = time.Now()
	n.UpdatedAt = n.CreatedAt
	return r.db.Create(n).Error
}

func (r *NotificationRepository) List(userID string, limit int) ([]model.Notification, error) {
	var rows []model.Notification
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *NotificationRepository) Count(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Notification{}).
		Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *NotificationRepository) CountUnread(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).Count(&count).Error
	return count, err
}

func (r *NotificationRepository) MarkRead(userID, notificationID string) error {
	return r.db.Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Updates(map[string]interface{}{"read": true, "updated_at": time.Now()}).Error
}

func (r *NotificationRepository) MarkAllRead(userID string) error {
	return r.db.Model(&model.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Updates(map[string]interface{}{"read": true, "updated_at": time.Now()}).Error
}
