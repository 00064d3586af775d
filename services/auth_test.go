package services

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/plano-vida/plano_api/dto"
	"github.com/plano-vida/plano_api/model"
	"github.com/plano-vida/plano_api/services/repositories"
)

func newAuthTestService(t *testing.T) (*AuthService, *repositories.UserRepository) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}))

	userRepo := repositories.NewUserRepository(db)
	svc := &AuthService{
		jwtSvc: &JWTService{
			AccessTokenDuration: time.Hour,
			jwtSecretKey:        "test-secret",
		},
		emailSvc: &EmailService{},
		userRepo: userRepo,
	}
	return svc, userRepo
}

func registerVerifiedUser(t *testing.T, svc *AuthService, repo *repositories.UserRepository, email, username, password string) string {
	t.Helper()

	resp, err := svc.Register(dto.RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)

	user, err := repo.GetUserByEmail(email)
	require.NoError(t, err)
	require.NoError(t, svc.VerifyEmail(dto.VerifyEmailRequest{
		Email: email,
		Code:  user.VerificationCode,
	}))

	return resp.UserID
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc, _ := newAuthTestService(t)

	_, err := svc.Register(dto.RegisterRequest{
		Username: "maria",
		Email:    "maria@example.com",
		Password: "Senha@123",
	})
	require.NoError(t, err)

	_, err = svc.Register(dto.RegisterRequest{
		Username: "maria2",
		Email:    "maria@example.com",
		Password: "Senha@123",
	})
	assert.Equal(t, http.StatusConflict, appErrStatus(t, err))

	_, err = svc.Register(dto.RegisterRequest{
		Username: "maria",
		Email:    "outra@example.com",
		Password: "Senha@123",
	})
	assert.Equal(t, http.StatusConflict, appErrStatus(t, err))
}

func TestVerifyEmail(t *testing.T) {
	svc, repo := newAuthTestService(t)

	_, err := svc.Register(dto.RegisterRequest{
		Username: "joao",
		Email:    "joao@example.com",
		Password: "Senha@123",
	})
	require.NoError(t, err)

	err = svc.VerifyEmail(dto.VerifyEmailRequest{Email: "joao@example.com", Code: "000000"})
	assert.Equal(t, http.StatusBadRequest, appErrStatus(t, err))

	user, err := repo.GetUserByEmail("joao@example.com")
	require.NoError(t, err)
	require.Len(t, user.VerificationCode, 6)

	require.NoError(t, svc.VerifyEmail(dto.VerifyEmailRequest{
		Email: "joao@example.com",
		Code:  user.VerificationCode,
	}))

	user, err = repo.GetUserByEmail("joao@example.com")
	require.NoError(t, err)
	assert.True(t, user.EmailVerified)
	assert.Empty(t, user.VerificationCode)

	// verifying again is a no-op
	assert.NoError(t, svc.VerifyEmail(dto.VerifyEmailRequest{
		Email: "joao@example.com",
		Code:  "qualquer",
	}))
}

func TestLogin(t *testing.T) {
	svc, repo := newAuthTestService(t)

	t.Run("requires a verified email", func(t *testing.T) {
		_, err := svc.Register(dto.RegisterRequest{
			Username: "ana",
			Email:    "ana@example.com",
			Password: "Senha@123",
		})
		require.NoError(t, err)

		_, err = svc.Login(dto.LoginRequest{EmailOrUsername: "ana@example.com", Password: "Senha@123"}, "127.0.0.1")
		assert.Equal(t, http.StatusForbidden, appErrStatus(t, err))
	})

	t.Run("succeeds with email or username", func(t *testing.T) {
		userID := registerVerifiedUser(t, svc, repo, "pedro@example.com", "pedro", "Senha@123")

		resp, err := svc.Login(dto.LoginRequest{EmailOrUsername: "pedro@example.com", Password: "Senha@123"}, "127.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, userID, resp.UserID)
		assert.NotEmpty(t, resp.AccessToken)

		resp, err = svc.Login(dto.LoginRequest{EmailOrUsername: "pedro", Password: "Senha@123"}, "127.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, userID, resp.UserID)

		// the token round-trips through the verifier
		verified, err := svc.jwtSvc.VerifyJWTToken(resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, userID, verified)
	})

	t.Run("wrong password and unknown account look the same", func(t *testing.T) {
		registerVerifiedUser(t, svc, repo, "lucas@example.com", "lucas", "Senha@123")

		_, err := svc.Login(dto.LoginRequest{EmailOrUsername: "lucas@example.com", Password: "errada"}, "127.0.0.1")
		assert.Equal(t, http.StatusUnauthorized, appErrStatus(t, err))

		_, err = svc.Login(dto.LoginRequest{EmailOrUsername: "ninguem@example.com", Password: "errada"}, "127.0.0.1")
		assert.Equal(t, http.StatusUnauthorized, appErrStatus(t, err))
	})

	t.Run("disabled account is forbidden", func(t *testing.T) {
		userID := registerVerifiedUser(t, svc, repo, "ze@example.com", "ze1", "Senha@123")
		require.NoError(t, repo.UpdateUserFields(userID, map[string]interface{}{"is_active": false}))

		_, err := svc.Login(dto.LoginRequest{EmailOrUsername: "ze@example.com", Password: "Senha@123"}, "127.0.0.1")
		assert.Equal(t, http.StatusForbidden, appErrStatus(t, err))
	})
}

func TestPasswordResetFlow(t *testing.T) {
	svc, repo := newAuthTestService(t)
	registerVerifiedUser(t, svc, repo, "rita@example.com", "rita", "Senha@123")

	// unknown addresses get the same silent answer
	assert.NoError(t, svc.ForgotPassword(dto.ForgotPasswordRequest{Email: "ninguem@example.com"}))

	require.NoError(t, svc.ForgotPassword(dto.ForgotPasswordRequest{Email: "rita@example.com"}))

	user, err := repo.GetUserByEmail("rita@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, user.ResetToken)

	err = svc.ResetPassword(dto.ResetPasswordRequest{Token: "token-invalido", NewPassword: "Nova@456"})
	assert.Equal(t, http.StatusBadRequest, appErrStatus(t, err))

	require.NoError(t, svc.ResetPassword(dto.ResetPasswordRequest{
		Token:       user.ResetToken,
		NewPassword: "Nova@456",
	}))

	_, err = svc.Login(dto.LoginRequest{EmailOrUsername: "rita@example.com", Password: "Senha@123"}, "127.0.0.1")
	assert.Equal(t, http.StatusUnauthorized, appErrStatus(t, err))

	resp, err := svc.Login(dto.LoginRequest{EmailOrUsername: "rita@example.com", Password: "Nova@456"}, "127.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)

	// the token is single use
	err = svc.ResetPassword(dto.ResetPasswordRequest{Token: user.ResetToken, NewPassword: "Outra@789"})
	assert.Equal(t, http.StatusBadRequest, appErrStatus(t, err))
}

func TestChangePassword(t *testing.T) {
	svc, repo := newAuthTestService(t)
	userID := registerVerifiedUser(t, svc, repo, "caio@example.com", "caio", "Senha@123")

	err := svc.ChangePassword(userID, dto.ChangePasswordRequest{
		CurrentPassword: "errada",
		NewPassword:     "Nova@456",
	})
	assert.Equal(t, http.StatusUnauthorized, appErrStatus(t, err))

	require.NoError(t, svc.ChangePassword(userID, dto.ChangePasswordRequest{
		CurrentPassword: "Senha@123",
		NewPassword:     "Nova@456",
	}))

	_, err = svc.Login(dto.LoginRequest{EmailOrUsername: "caio@example.com", Password: "Nova@456"}, "127.0.0.1")
	assert.NoError(t, err)
}

func TestUpdateProfile(t *testing.T) {
	svc, repo := newAuthTestService(t)
	userID := registerVerifiedUser(t, svc, repo, "duda@example.com", "duda", "Senha@123")
	registerVerifiedUser(t, svc, repo, "nina@example.com", "nina", "Senha@123")

	_, err := svc.UpdateProfile(userID, dto.UpdateProfileRequest{Username: "nina"})
	assert.Equal(t, http.StatusConflict, appErrStatus(t, err))

	off := false
	profile, err := svc.UpdateProfile(userID, dto.UpdateProfileRequest{
		Username:       "duda2",
		ReminderEmails: &off,
	})
	require.NoError(t, err)
	assert.Equal(t, "duda2", profile.Username)
	assert.False(t, profile.ReminderEmails)
}
