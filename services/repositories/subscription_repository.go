package repositories

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/plano-vida/plano_api/model"
)

type SubscriptionRepository struct {
	BaseRepository
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// GetOrCreate returns the per-user subscription row, defaulting to the free
// plan on first read.
func (r *SubscriptionRepository) GetOrCreate(userID string) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.Where("user_id = ?", userID).First(&sub).Error
	if err == nil {
		return &sub, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	id, _ := uuid.NewV7()
	sub = model.Subscription{
		ID:        id.String(),
		UserID:    userID,
		PlanID:    model.PlanFree,
		Status:    model.SubscriptionActive,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	err = r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&sub).Error
	if err != nil {
		return nil, err
	}

	err = r.db.Where("user_id = ?", userID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepository) Update(sub *model.Subscription) error {
	sub.UpdatedAt = time.Now()
	return r.db.Save(sub).Error
}

func (r *SubscriptionRepository) GetByProviderCustomerID(customerID string) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.Where("provider_customer_id = ?", customerID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepository) GetByProviderSubscriptionID(subscriptionID string) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.Where("provider_subscription_id = ?", subscriptionID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
