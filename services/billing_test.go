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

	"github.com/plano-vida/plano_api/model"
	"github.com/plano-vida/plano_api/services/repositories"
)

func newBillingTestService(t *testing.T, enforced bool) (*BillingService, *repositories.SubscriptionRepository) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Subscription{}))

	repo := repositories.NewSubscriptionRepository(db)
	svc := &BillingService{repo: repo, enforced: enforced}
	return svc, repo
}

func TestRequirePremium(t *testing.T) {
	t.Run("everything is allowed when billing is not enforced", func(t *testing.T) {
		svc, _ := newBillingTestService(t, false)
		assert.NoError(t, svc.RequirePremium("u1"))
	})

	t.Run("free plan is rejected when enforced", func(t *testing.T) {
		svc, _ := newBillingTestService(t, true)
		err := svc.RequirePremium("u1")
		assert.Equal(t, http.StatusForbidden, appErrStatus(t, err))
	})

	t.Run("active premium passes", func(t *testing.T) {
		svc, repo := newBillingTestService(t, true)

		sub, err := repo.GetOrCreate("u1")
		require.NoError(t, err)
		sub.PlanID = model.PlanPremium
		sub.Status = model.SubscriptionActive
		require.NoError(t, repo.Update(sub))

		assert.NoError(t, svc.RequirePremium("u1"))
	})

	t.Run("past_due still passes, canceled does not", func(t *testing.T) {
		svc, repo := newBillingTestService(t, true)

		sub, err := repo.GetOrCreate("u1")
		require.NoError(t, err)
		sub.PlanID = model.PlanPremium
		sub.Status = model.SubscriptionPastDue
		require.NoError(t, repo.Update(sub))
		assert.NoError(t, svc.RequirePremium("u1"))

		sub.Status = model.SubscriptionCanceled
		require.NoError(t, repo.Update(sub))
		err = svc.RequirePremium("u1")
		assert.Equal(t, http.StatusForbidden, appErrStatus(t, err))
	})
}

func TestGetSubscriptionDefaultsToFree(t *testing.T) {
	svc, _ := newBillingTestService(t, true)

	resp, err := svc.GetSubscription("u1")
	require.NoError(t, err)
	assert.Equal(t, model.PlanFree, resp.PlanID)
	assert.False(t, resp.Premium)

	// with enforcement off the same subscription reads as premium
	svc.enforced = false
	resp, err = svc.GetSubscription("u1")
	require.NoError(t, err)
	assert.True(t, resp.Premium)
}

func TestMapStripeStatus(t *testing.T) {
	assert.Equal(t, model.SubscriptionActive, mapStripeStatus("active"))
	assert.Equal(t, model.SubscriptionActive, mapStripeStatus("trialing"))
	assert.Equal(t, model.SubscriptionPastDue, mapStripeStatus("past_due"))
	assert.Equal(t, model.SubscriptionCanceled, mapStripeStatus("canceled"))
	assert.Equal(t, model.SubscriptionCanceled, mapStripeStatus("unpaid"))
}

func TestSubscriptionIsPremiumExpiry(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(24 * time.Hour)

	sub := &model.Subscription{PlanID: model.PlanPremium, Status: model.SubscriptionActive}
	assert.True(t, sub.IsPremium())

	sub.CurrentPeriodEnd = &future
	assert.True(t, sub.IsPremium())

	sub.CurrentPeriodEnd = &past
	assert.False(t, sub.IsPremium())
}
