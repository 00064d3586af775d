package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/plano-vida/plano_api/dto"
	"github.com/plano-vida/plano_api/model"
	"github.com/plano-vida/plano_api/services/repositories"
	"github.com/plano-vida/plano_api/shared"
)

// AuthService owns account lifecycle (register, verify, login, password
// recovery) and exposes the JWT middleware for protected routes.
type AuthService struct {
	context.DefaultService

	sqlSvc   *SqlService
	jwtSvc   *JWTService
	emailSvc *EmailService

	userRepo *repositories.UserRepository
}

const AUTH_SVC = "auth_svc"

func (svc AuthService) Id() string {
	return AUTH_SVC
}

func (svc *AuthService) Start() error {
	svc.sqlSvc = svc.Service(SQL_SVC).(*SqlService)
	svc.jwtSvc = svc.Service(JWT_SVC).(*JWTService)
	svc.emailSvc = svc.Service(EMAIL_SVC).(*EmailService)
	svc.userRepo = repositories.NewUserRepository(svc.sqlSvc.Db())
	return nil
}

// RequiredAuth validates the bearer token and stores the user id in locals.
func (svc *AuthService) RequiredAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := svc.jwtSvc.ExtractTokenFromHeader(c.Get("Authorization"))
		if err != nil {
			return shared.ResponseUnauthorized(c)
		}

		userID, err := svc.jwtSvc.VerifyJWTToken(token)
		if err != nil || userID == "" {
			return shared.ResponseUnauthorized(c)
		}

		c.Locals(shared.UserID, userID)
		return c.Next()
	}
}

// RequiredAdmin layers a role check on top of RequiredAuth. Must run after it.
func (svc *AuthService) RequiredAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := c.Locals(shared.UserID).(string)
		if userID == "" {
			return shared.ResponseUnauthorized(c)
		}

		user, err := svc.userRepo.GetUser(userID)
		if err != nil || user.Role != model.RoleAdmin {
			return shared.ResponseJSON(c, fiber.StatusForbidden, "Forbidden", nil)
		}
		return c.Next()
	}
}

func (svc *AuthService) Register(req dto.RegisterRequest) (*dto.RegisterResponse, error) {
	if _, err := svc.userRepo.GetUserByEmail(req.Email); err == nil {
		return nil, shared.NewConflictError(nil, "Email already registered")
	}
	if _, err := svc.userRepo.GetUserByEmailOrUsername(req.Username); err == nil {
		return nil, shared.NewConflictError(nil, "Username already taken")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to hash password")
	}

	code, err := generateVerificationCode()
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to generate verification code")
	}

	user, err := svc.userRepo.CreateUser(req, string(hashed), code)
	if err != nil {
		return nil, shared.NewPersistenceError(err, "Failed to create user")
	}

	go func() {
		if err := svc.emailSvc.SendVerificationEmail(user.Email, user.Username, code); err != nil {
			log.WithError(err).WithField("user_id", user.ID).Error("Failed to send verification email")
		}
	}()

	return &dto.RegisterResponse{
		UserID:  user.ID,
		Email:   user.Email,
		Message: "Registration successful. Check your email for the verification code.",
	}, nil
}

func (svc *AuthService) VerifyEmail(req dto.VerifyEmailRequest) error {
	user, err := svc.userRepo.GetUserByEmail(req.Email)
	if err != nil {
		return shared.NewNotFoundError(err, "User not found")
	}

	if user.EmailVerified {
		return nil
	}
	if user.VerificationCode == "" || user.VerificationCode != req.Code {
		return shared.NewBadRequestError(nil, "Invalid verification code")
	}
	if user.VerificationCodeExpiry == nil || time.Now().After(*user.VerificationCodeExpiry) {
		return shared.NewBadRequestError(nil, "Verification code expired")
	}

	err = svc.userRepo.UpdateUserFields(user.ID, map[string]interface{}{
		"email_verified":           true,
		"verification_code":        "",
		"verification_code_expiry": nil,
	})
	if err != nil {
		return shared.NewPersistenceError(err, "Failed to verify email")
	}
	return nil
}

func (svc *AuthService) ResendVerificationCode(email string) error {
	user, err := svc.userRepo.GetUserByEmail(email)
	if err != nil {
		// Don't reveal whether the address exists.
		return nil
	}
	if user.EmailVerified {
		return nil
	}

	code, err := generateVerificationCode()
	if err != nil {
		return shared.NewInternalError(err, "Failed to generate verification code")
	}

	expiry := time.Now().Add(15 * time.Minute)
	err = svc.userRepo.UpdateUserFields(user.ID, map[string]interface{}{
		"verification_code":        code,
		"verification_code_expiry": &expiry,
	})
	if err != nil {
		return shared.NewPersistenceError(err, "Failed to store verification code")
	}

	return svc.emailSvc.SendVerificationEmail(user.Email, user.Username, code)
}

func (svc *AuthService) Login(req dto.LoginRequest, ip string) (*dto.LoginResponse, error) {
	user, err := svc.userRepo.GetUserByEmailOrUsername(req.EmailOrUsername)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewUnauthorizedError(nil, "Invalid credentials")
		}
		return nil, shared.NewInternalError(err, "Failed to load user")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return nil, shared.NewUnauthorizedError(nil, "Invalid credentials")
	}
	if !user.IsActive {
		return nil, shared.NewForbiddenError(nil, "Account is disabled")
	}
	if !user.EmailVerified {
		return nil, shared.NewForbiddenError(nil, "Email not verified")
	}

	pair, err := svc.jwtSvc.GenerateTokenPair(user.ID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to issue token")
	}

	if err := svc.userRepo.UpdateLastLogin(user.ID, ip); err != nil {
		log.WithError(err).WithField("user_id", user.ID).Warn("Failed to record last login")
	}

	return &dto.LoginResponse{
		UserID:      user.ID,
		Username:    user.Username,
		AccessToken: pair.AccessToken,
		ExpiresIn:   pair.ExpiresIn,
		LoggedInAt:  time.Now(),
	}, nil
}

func (svc *AuthService) ForgotPassword(req dto.ForgotPasswordRequest) error {
	user, err := svc.userRepo.GetUserByEmail(req.Email)
	if err != nil {
		// Same response whether or not the account exists.
		return nil
	}

	token, err := generateResetToken()
	if err != nil {
		return shared.NewInternalError(err, "Failed to generate reset token")
	}

	expiry := time.Now().Add(1 * time.Hour)
	err = svc.userRepo.UpdateUserFields(user.ID, map[string]interface{}{
		"reset_token":        token,
		"reset_token_expiry": &expiry,
	})
	if err != nil {
		return shared.NewPersistenceError(err, "Failed to store reset token")
	}

	go func() {
		if err := svc.emailSvc.SendPasswordResetEmail(user.Email, user.Username, token); err != nil {
			log.WithError(err).WithField("user_id", user.ID).Error("Failed to send password reset email")
		}
	}()

	return nil
}

func (svc *AuthService) ResetPassword(req dto.ResetPasswordRequest) error {
	user, err := svc.userRepo.GetUserByResetToken(req.Token)
	if err != nil {
		return shared.NewBadRequestError(nil, "Invalid or expired reset token")
	}
	if user.ResetTokenExpiry == nil || time.Now().After(*user.ResetTokenExpiry) {
		return shared.NewBadRequestError(nil, "Invalid or expired reset token")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return shared.NewInternalError(err, "Failed to hash password")
	}

	err = svc.userRepo.UpdateUserFields(user.ID, map[string]interface{}{
		"password":           string(hashed),
		"reset_token":        "",
		"reset_token_expiry": nil,
	})
	if err != nil {
		return shared.NewPersistenceError(err, "Failed to update password")
	}
	return nil
}

func (svc *AuthService) ChangePassword(userID string, req dto.ChangePasswordRequest) error {
	user, err := svc.userRepo.GetUser(userID)
	if err != nil {
		return shared.NewNotFoundError(err, "User not found")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)) != nil {
		return shared.NewUnauthorizedError(nil, "Current password is incorrect")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return shared.NewInternalError(err, "Failed to hash password")
	}

	err = svc.userRepo.UpdateUserFields(userID, map[string]interface{}{
		"password": string(hashed),
	})
	if err != nil {
		return shared.NewPersistenceError(err, "Failed to update password")
	}
	return nil
}

// ==================== PROFILE ====================

func (svc *AuthService) GetProfile(userID string) (*dto.UserProfileResponse, error) {
	user, err := svc.userRepo.GetUser(userID)
	if err != nil {
		return nil, shared.NewNotFoundError(err, "User not found")
	}
	return userProfileResponse(user), nil
}

func (svc *AuthService) UpdateProfile(userID string, req dto.UpdateProfileRequest) (*dto.UserProfileResponse, error) {
	user, err := svc.userRepo.GetUser(userID)
	if err != nil {
		return nil, shared.NewNotFoundError(err, "User not found")
	}

	updates := map[string]interface{}{}
	if req.Username != "" && req.Username != user.Username {
		if _, err := svc.userRepo.GetUserByEmailOrUsername(req.Username); err == nil {
			return nil, shared.NewConflictError(nil, "Username already taken")
		}
		updates["username"] = req.Username
	}
	if req.ReminderEmails != nil {
		updates["reminder_emails"] = *req.ReminderEmails
	}

	if len(updates) > 0 {
		if err := svc.userRepo.UpdateUserFields(userID, updates); err != nil {
			return nil, shared.NewPersistenceError(err, "Failed to update profile")
		}
	}

	user, err = svc.userRepo.GetUser(userID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to reload profile")
	}
	return userProfileResponse(user), nil
}

func userProfileResponse(user *model.User) *dto.UserProfileResponse {
	return &dto.UserProfileResponse{
		ID:             user.ID,
		Username:       user.Username,
		Email:          user.Email,
		Role:           user.Role,
		EmailVerified:  user.EmailVerified,
		ReminderEmails: user.ReminderEmails,
		LastLoginAt:    user.LastLoginAt,
		CreatedAt:      user.CreatedAt,
	}
}

func generateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func generateResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
