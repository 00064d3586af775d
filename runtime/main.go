package main

import (
	"github.com/plano-vida/plano_api/services"

	"github.com/alphabatem/common/context"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Warn().Err(err).Msg("No .env file loaded")
	}

	ctx, err := context.NewCtx(
		&services.SqlService{},
		&services.RedisService{},
		&services.JWTService{},
		&services.EmailService{},
		&services.StorageService{},
		&services.MonitoringService{},

		&services.AuthService{},
		&services.NotificationService{},
		&services.GamificationService{},
		&services.PlanService{},
		&services.AIService{},
		&services.ImportService{},
		&services.BillingService{},
		&services.RateLimitService{},

		&services.HttpService{},
	)
	if err != nil {
		log.Fatal().Err(err)
		return
	}

	err = ctx.Run()
	if err != nil {
		log.Fatal().Err(err)
		return
	}
}
