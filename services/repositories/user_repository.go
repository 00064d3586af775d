package repositories

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plano-vida/plano_api/dto"
	"github.com/plano-vida/plano_api/model"
)

// UserRepository handles user-related database operations
type UserRepository struct {
	BaseRepository
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (r *UserRepository) CreateUser(req dto.RegisterRequest, hashedPassword, verificationCode string) (*model.User, error) {
	codeExpiry := time.Now().Add(15 * time.Minute)
	id, _ := uuid.NewV7()
	user := &model.User{
		ID:                     id.String(),
		Username:               req.Username,
		Email:                  strings.ToLower(req.Email),
		Password:               hashedPassword,
		Role:                   model.RoleUser,
		IsActive:               true,
		EmailVerified:          false,
		VerificationCode:       verificationCode,
		VerificationCodeExpiry: &codeExpiry,
		ReminderEmails:         true,
		CreatedAt:              time.Now(),
		UpdatedAt:              time.Now(),
	}

	if err := r.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) GetUser(userID string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("id = ? AND deleted_at IS NULL", userID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetUserByEmail(email string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("LOWER(email) = LOWER(?) AND deleted_at IS NULL", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetUserByEmailOrUsername(emailOrUsername string) (*model.User, error) {
	var user model.User
	err := r.db.Where("(LOWER(email) = LOWER(?) OR username = ?) AND deleted_at IS NULL",
		emailOrUsername, emailOrUsername).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetUserByResetToken(token string) (*model.User, error) {
	var user model.User
	err := r.db.Where("reset_token = ? AND deleted_at IS NULL", token).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UpdateUser(user *model.User) error {
	user.UpdatedAt = time.Now()
	return r.db.Save(user).Error
}

func (r *UserRepository) UpdateUserFields(userID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	return r.db.Model(&model.User{}).Where("id = ?", userID).Updates(updates).Error
}

func (r *UserRepository) UpdateLastLogin(userID, ip string) error {
	now := time.Now()
	return r.db.Model(&model.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"last_login_at": &now,
		"last_login_ip": ip,
		"updated_at":    now,
	}).Error
}

// UsersWithRemindersEnabled returns users who opted in to reminder emails.
func (r *UserRepository) UsersWithRemindersEnabled() ([]model.User, error) {
	var users []model.User
	err := r.db.Where("reminder_emails = ? AND is_active = ? AND deleted_at IS NULL", true, true).
		Find(&users).Error
	return users, err
}
