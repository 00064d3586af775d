package services

import (
	stdContext "context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/plano-vida/plano_api/shared"
)

// RateLimitService implements fixed-window request limits on top of redis.
// Windows are keyed per client (user id when authenticated, IP otherwise),
// so limits survive restarts and apply across instances.
type RateLimitService struct {
	context.DefaultService

	redisSvc *RedisService

	defaultLimit int
	authLimit    int
	importLimit  int
	window       time.Duration

	disabled bool
}

const RATE_LIMIT_SVC = "rate_limit_svc"

func (svc RateLimitService) Id() string {
	return RATE_LIMIT_SVC
}

func (svc *RateLimitService) Configure(ctx *context.Context) error {
	svc.defaultLimit = envInt("RATE_LIMIT_PER_MINUTE", 120)
	svc.authLimit = envInt("RATE_LIMIT_AUTH_PER_MINUTE", 10)
	svc.importLimit = envInt("RATE_LIMIT_IMPORT_PER_MINUTE", 5)
	svc.window = time.Minute
	svc.disabled = os.Getenv("DISABLE_RATE_LIMIT") == "true"

	return svc.DefaultService.Configure(ctx)
}

func (svc *RateLimitService) Start() error {
	svc.redisSvc = svc.Service(REDIS_SVC).(*RedisService)
	return nil
}

// Allow consumes one request from the window for key and reports whether it
// fit. Redis outages fail open.
func (svc *RateLimitService) Allow(key string, limit int) (bool, error) {
	if svc.disabled || limit <= 0 {
		return true, nil
	}

	ctx, cancel := stdContext.WithTimeout(stdContext.Background(), 2*time.Second)
	defer cancel()

	windowKey := fmt.Sprintf("ratelimit:%s:%d", key, time.Now().Unix()/int64(svc.window.Seconds()))

	count, err := svc.redisSvc.Increment(ctx, windowKey)
	if err != nil {
		log.WithError(err).Warn("Rate limit check failed, allowing request")
		return true, err
	}
	if count == 1 {
		if err := svc.redisSvc.Expire(ctx, windowKey, svc.window); err != nil {
			log.WithError(err).Warn("Failed to set rate limit window expiry")
		}
	}

	return count <= int64(limit), nil
}

// Middleware applies the default per-client limit.
func (svc *RateLimitService) Middleware() fiber.Handler {
	return svc.middlewareWithLimit("api", func() int { return svc.defaultLimit })
}

// AuthMiddleware applies the tighter limit for credential endpoints.
func (svc *RateLimitService) AuthMiddleware() fiber.Handler {
	return svc.middlewareWithLimit("auth", func() int { return svc.authLimit })
}

// ImportMiddleware throttles upload processing, which is expensive.
func (svc *RateLimitService) ImportMiddleware() fiber.Handler {
	return svc.middlewareWithLimit("import", func() int { return svc.importLimit })
}

func (svc *RateLimitService) middlewareWithLimit(scope string, limit func() int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		client := c.IP()
		if userID, ok := c.Locals(shared.UserID).(string); ok && userID != "" {
			client = userID
		}

		allowed, _ := svc.Allow(scope+":"+client, limit())
		if !allowed {
			c.Set("Retry-After", strconv.Itoa(int(svc.window.Seconds())))
			return shared.ResponseJSON(c, fiber.StatusTooManyRequests,
				"Too many requests, slow down", nil)
		}

		return c.Next()
	}
}

func envInt(name string, fallback int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
