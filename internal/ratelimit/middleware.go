package ratelimit

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/studio-booking/pkg/util/errorutil"
)

// Recorder counts rejected requests.
type Recorder interface {
	RecordRateLimited(route, scope string)
}

// Middleware rejects a request once either its IP or its body email has exhausted
// the window for the matched route. Both keys are checked before either is
// counted, so a request refused on one key does not spend the other's budget.
// Limiter errors fail open.
func Middleware(limiter Limiter, logger *zap.Logger, recorder Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		route := c.Route().Path
		keys := []string{RouteKey(route, IPKey(c.IP()))}
		if email := bodyEmail(c.Body()); email != "" {
			keys = append(keys, RouteKey(route, EmailKey(email)))
		}

		result, err := limiter.Allow(c.UserContext(), keys...)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.String("route", route), zap.Error(err))
			return c.Next()
		}
		if !result.Allowed {
			if recorder != nil {
				recorder.RecordRateLimited(route, scopeOf(result.Exhausted))
			}
			return apperrors.NewTooManyRequests("too many requests, please try again later")
		}
		return c.Next()
	}
}

// RouteKey scopes a limiter key to one route, so each endpoint has its own budget.
func RouteKey(route, key string) string {
	return route + "|" + key
}

func scopeOf(key string) string {
	if i := strings.Index(key, "|"); i >= 0 {
		key = key[i+1:]
	}
	scope, _, _ := strings.Cut(key, ":")
	return scope
}

// IPKey builds the limiter key for a client address.
func IPKey(ip string) string {
	return "ip:" + ip
}

// EmailKey builds the limiter key for an email address.
func EmailKey(email string) string {
	return "email:" + strings.ToLower(strings.TrimSpace(email))
}

func bodyEmail(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Email)
}
