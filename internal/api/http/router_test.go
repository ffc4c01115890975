package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/studio-booking/internal/api/http/handlers"
	"github.com/spec-kit/studio-booking/internal/auth"
	"github.com/spec-kit/studio-booking/internal/config"
	"github.com/spec-kit/studio-booking/internal/events"
	"github.com/spec-kit/studio-booking/internal/mailer"
	"github.com/spec-kit/studio-booking/internal/observability"
	"github.com/spec-kit/studio-booking/internal/persistence"
	"github.com/spec-kit/studio-booking/internal/ratelimit"
	"github.com/spec-kit/studio-booking/internal/repository/memory"
	"github.com/spec-kit/studio-booking/internal/service"
)

const (
	testAdmin    = "owner@studio.test"
	testPassword = "Passw0rd!"
)

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

type testServer struct {
	t    *testing.T
	app  *fiber.App
	mail *mailer.CaptureMailer
}

func newTestServer(t *testing.T, limiter ratelimit.Limiter) *testServer {
	t.Helper()
	logger := zap.NewNop()
	store := memory.NewStore()
	mail := &mailer.CaptureMailer{}
	allowlist := auth.NewAdminAllowlist([]string{testAdmin})
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()
	tokens := auth.NewTokenManager(auth.TokenSettings{AccessSecret: "a", RefreshSecret: "r"})

	service.NewNotificationService(store.Notifications(), dispatcher, allowlist, logger, config.NotificationConfig{}).RegisterHandlers()
	authService, err := service.NewAuthService(service.AuthSettings{
		BcryptCost:        4,
		PasswordMinLength: 8,
		ResetTTL:          time.Hour,
		FrontendURL:       "https://studio.test",
	}, service.AuthDependencies{
		Users:      store.Users(),
		Tokens:     tokens,
		OTP:        auth.NewOTPEngine(10*time.Minute, 5),
		Lockout:    auth.NewLockoutGuard(5, 30*time.Minute),
		Allowlist:  allowlist,
		Mailer:     mail,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	require.NoError(t, err)
	userService := service.NewUserService(store.Users(), allowlist, logger)
	bookingService := service.NewBookingService(service.BookingDependencies{
		BookingRepo: store.Bookings(),
		UserRepo:    store.Users(),
		Catalog:     store.Catalog(),
		Dispatcher:  dispatcher,
		Logger:      logger,
	})

	var rateLimit fiber.Handler
	if limiter != nil {
		rateLimit = ratelimit.Middleware(limiter, logger, metrics)
	}

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("studio-booking", "test", &persistence.Postgres{}, nil),
		Auth:           handlers.NewAuthHandler(authService, userService),
		Admin:          handlers.NewAdminHandler(authService, userService),
		Bookings:       handlers.NewBookingsHandler(bookingService),
		Reviews:        handlers.NewReviewsHandler(service.NewReviewService(store.Reviews(), store.Bookings(), logger)),
		Catalog:        handlers.NewCatalogHandler(service.NewCatalogService(store.Catalog(), logger)),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, store.Users(), allowlist),
		Metrics:        metrics,
		RateLimit:      rateLimit,
	})
	return &testServer{t: t, app: app, mail: mail}
}

func (s *testServer) do(method, path, token string, body any) (int, map[string]any) {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(s.t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func (s *testServer) otp(email string) string {
	s.t.Helper()
	msg, ok := s.mail.Last(email)
	require.True(s.t, ok)
	return codePattern.FindString(msg.Text)
}

func (s *testServer) signUp(name, email string) string {
	s.t.Helper()
	status, _ := s.do("POST", "/api/auth/register", "", map[string]string{"name": name, "email": email, "password": testPassword})
	require.Equal(s.t, 201, status)
	status, body := s.do("POST", "/api/auth/verify-email", "", map[string]string{"email": email, "otp": s.otp(email)})
	require.Equal(s.t, 200, status)
	return body["token"].(string)
}

func (s *testServer) adminToken() string {
	s.t.Helper()
	status, _ := s.do("POST", "/api/admin/login", "", map[string]string{"email": testAdmin})
	require.Equal(s.t, 200, status)
	status, body := s.do("POST", "/api/admin/verify-otp", "", map[string]string{"email": testAdmin, "otp": s.otp(testAdmin)})
	require.Equal(s.t, 200, status)
	return body["token"].(string)
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func TestRegistrationScenario(t *testing.T) {
	s := newTestServer(t, nil)

	status, body := s.do("POST", "/api/auth/register", "", map[string]string{"name": "A", "email": "a@x.com", "password": testPassword})
	require.Equal(t, 201, status)
	assert.Equal(t, true, body["requiresVerification"])
	assert.Equal(t, "a@x.com", body["email"])
	code := s.otp("a@x.com")

	status, body = s.do("POST", "/api/auth/verify-email", "", map[string]string{"email": "a@x.com", "otp": wrongCode(code)})
	assert.Equal(t, 400, status)
	assert.Equal(t, "INVALID_OTP", errorCode(body))

	status, body = s.do("POST", "/api/auth/verify-email", "", map[string]string{"email": "a@x.com", "otp": code})
	require.Equal(t, 200, status)
	assert.NotEmpty(t, body["token"])
	assert.NotEmpty(t, body["refreshToken"])
	user := body["user"].(map[string]any)
	assert.Equal(t, true, user["isVerified"])
	assert.NotContains(t, user, "passwordHash")

	status, body = s.do("POST", "/api/auth/login", "", map[string]string{"email": "a@x.com", "password": testPassword})
	require.Equal(t, 200, status)
	assert.NotEmpty(t, body["token"])

	status, body = s.do("GET", "/api/auth/me", body["token"].(string), nil)
	require.Equal(t, 200, status)
	assert.Equal(t, "a@x.com", body["user"].(map[string]any)["email"])
}

func TestLockoutScenario(t *testing.T) {
	s := newTestServer(t, nil)
	s.signUp("B", "b@x.com")

	for i := 1; i <= 4; i++ {
		status, body := s.do("POST", "/api/auth/login", "", map[string]string{"email": "b@x.com", "password": "wrong"})
		require.Equal(t, 401, status)
		details := body["error"].(map[string]any)["details"].(map[string]any)
		assert.EqualValues(t, 5-i, details["remainingAttempts"])
	}

	status, body := s.do("POST", "/api/auth/login", "", map[string]string{"email": "b@x.com", "password": "wrong"})
	assert.Equal(t, 403, status)
	assert.Equal(t, "ACCOUNT_LOCKED", errorCode(body))

	status, body = s.do("POST", "/api/auth/login", "", map[string]string{"email": "b@x.com", "password": testPassword})
	assert.Equal(t, 403, status)
	assert.Equal(t, "ACCOUNT_LOCKED", errorCode(body))
}

func TestUnverifiedLoginRequiresVerification(t *testing.T) {
	s := newTestServer(t, nil)
	status, _ := s.do("POST", "/api/auth/register", "", map[string]string{"name": "U", "email": "u@x.com", "password": testPassword})
	require.Equal(t, 201, status)

	status, body := s.do("POST", "/api/auth/login", "", map[string]string{"email": "u@x.com", "password": testPassword})
	assert.Equal(t, 403, status)
	assert.Equal(t, true, body["requiresVerification"])
	assert.NotContains(t, body, "token")
}

func TestRefreshRotationOverHTTP(t *testing.T) {
	s := newTestServer(t, nil)
	s.signUp("R", "r@x.com")
	_, login := s.do("POST", "/api/auth/login", "", map[string]string{"email": "r@x.com", "password": testPassword})
	first := login["refreshToken"].(string)

	status, body := s.do("POST", "/api/auth/refresh", "", map[string]string{"refreshToken": first})
	require.Equal(t, 200, status)
	assert.NotEqual(t, first, body["refreshToken"])

	status, _ = s.do("POST", "/api/auth/refresh", "", map[string]string{"refreshToken": first})
	assert.Equal(t, 401, status)
}

func TestForgotPasswordResponsesMatch(t *testing.T) {
	s := newTestServer(t, nil)
	s.signUp("F", "f@x.com")

	knownStatus, known := s.do("POST", "/api/auth/forgot-password", "", map[string]string{"email": "f@x.com"})
	unknownStatus, unknown := s.do("POST", "/api/auth/forgot-password", "", map[string]string{"email": "ghost@x.com"})
	assert.Equal(t, 200, knownStatus)
	assert.Equal(t, knownStatus, unknownStatus)
	assert.Equal(t, known, unknown)
}

func TestBookingAuthorization(t *testing.T) {
	s := newTestServer(t, nil)
	owner := s.signUp("A", "a@x.com")
	other := s.signUp("C", "c@x.com")
	admin := s.adminToken()

	status, body := s.do("POST", "/api/bookings", owner, map[string]any{
		"serviceType": "portrait",
		"packageType": "standard",
		"date":        time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339),
		"location":    "Studio 1",
		"price":       250,
		"status":      "approved",
	})
	require.Equal(t, 201, status)
	booking := body["booking"].(map[string]any)
	assert.Equal(t, "pending", booking["status"], "client supplied status is ignored")
	id := booking["id"].(string)

	status, _ = s.do("PATCH", "/api/bookings/"+id, owner, map[string]any{"status": "approved"})
	assert.Equal(t, 403, status)

	for _, method := range []string{"GET", "PATCH", "DELETE"} {
		status, _ = s.do(method, "/api/bookings/"+id, other, map[string]any{"location": "elsewhere"})
		assert.Equal(t, 403, status, method)
	}

	status, _ = s.do("GET", "/api/bookings/admin/all", owner, nil)
	assert.Equal(t, 403, status)

	status, body = s.do("PATCH", "/api/bookings/"+id, admin, map[string]any{"status": "approved"})
	require.Equal(t, 200, status)
	assert.Equal(t, "approved", body["booking"].(map[string]any)["status"])

	status, body = s.do("PATCH", "/api/bookings/admin/status/"+id, admin, map[string]any{"status": "pending"})
	assert.Equal(t, 400, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, body = s.do("PATCH", "/api/bookings/admin/status/"+id, admin, map[string]any{"status": "completed", "adminNotes": "delivered"})
	require.Equal(t, 200, status)
	assert.Equal(t, true, body["changed"])

	status, body = s.do("GET", "/api/bookings/admin/all?status=completed", admin, nil)
	require.Equal(t, 200, status)
	list := body["bookings"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "a@x.com", list[0].(map[string]any)["user"].(map[string]any)["email"])
}

func TestBookingDateAcceptsCalendarDates(t *testing.T) {
	s := newTestServer(t, nil)
	owner := s.signUp("A", "a@x.com")

	day := time.Now().UTC().AddDate(0, 2, 0).Format("2006-01-02")
	status, body := s.do("POST", "/api/bookings", owner, map[string]any{
		"serviceType": "family",
		"packageType": "basic",
		"date":        day,
		"location":    "Sintra",
		"price":       180,
	})
	require.Equal(t, 201, status, body)
	booking := body["booking"].(map[string]any)
	assert.Equal(t, day+"T00:00:00Z", booking["date"])
	id := booking["id"].(string)

	later := time.Now().UTC().AddDate(0, 3, 0).Format("2006-01-02")
	status, body = s.do("PATCH", "/api/bookings/"+id, owner, map[string]any{"date": later})
	require.Equal(t, 200, status, body)
	assert.Equal(t, later+"T00:00:00Z", body["booking"].(map[string]any)["date"])

	for _, bad := range []any{"01/12/2026", 20261201, "tomorrow"} {
		status, body = s.do("POST", "/api/bookings", owner, map[string]any{
			"serviceType": "family",
			"packageType": "basic",
			"date":        bad,
			"location":    "Sintra",
			"price":       180,
		})
		assert.Equal(t, 400, status, bad)
		assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
		details := body["error"].(map[string]any)["details"].(map[string]any)
		assert.Equal(t, "date", details["field"])
	}

	status, body = s.do("PATCH", "/api/bookings/"+id, owner, map[string]any{"date": "next week"})
	assert.Equal(t, 400, status)
	assert.Equal(t, "date", body["error"].(map[string]any)["details"].(map[string]any)["field"])

	status, _ = s.do("GET", "/api/bookings/not-a-uuid", owner, nil)
	assert.Equal(t, 404, status)
}

func TestAdminGuards(t *testing.T) {
	s := newTestServer(t, nil)
	client := s.signUp("A", "a@x.com")

	status, body := s.do("POST", "/api/admin/login", "", map[string]string{"email": "a@x.com"})
	assert.Equal(t, 403, status)
	assert.Equal(t, "FORBIDDEN", errorCode(body))

	status, _ = s.do("GET", "/api/admin/validate", client, nil)
	assert.Equal(t, 403, status)
	status, _ = s.do("GET", "/api/admin/validate", "", nil)
	assert.Equal(t, 401, status)

	admin := s.adminToken()
	status, body = s.do("GET", "/api/admin/validate", admin, nil)
	require.Equal(t, 200, status)
	assert.Equal(t, true, body["isAdmin"])

	status, body = s.do("GET", "/api/admin/users", admin, nil)
	require.Equal(t, 200, status)
	assert.Len(t, body["users"], 2)
}

func TestReviewsModeration(t *testing.T) {
	s := newTestServer(t, nil)
	client := s.signUp("A", "a@x.com")
	admin := s.adminToken()

	status, body := s.do("POST", "/api/reviews", client, map[string]any{"rating": 5, "comment": "Wonderful"})
	require.Equal(t, 201, status)
	id := body["review"].(map[string]any)["id"].(string)

	_, body = s.do("GET", "/api/reviews", "", nil)
	assert.Empty(t, body["reviews"])

	status, _ = s.do("PATCH", "/api/reviews/admin/"+id, admin, map[string]any{"approved": true})
	require.Equal(t, 200, status)
	_, body = s.do("GET", "/api/reviews", "", nil)
	assert.Len(t, body["reviews"], 1)
}

func TestCatalogManagement(t *testing.T) {
	s := newTestServer(t, nil)
	client := s.signUp("A", "a@x.com")
	admin := s.adminToken()

	entry := map[string]any{"serviceType": "event", "packageType": "standard", "title": "Corporate event", "price": 900}
	status, _ := s.do("PUT", "/api/catalog/admin", client, entry)
	assert.Equal(t, 403, status)
	status, _ = s.do("PUT", "/api/catalog/admin", "", entry)
	assert.Equal(t, 401, status)

	status, body := s.do("PUT", "/api/catalog/admin", admin, entry)
	require.Equal(t, 200, status, body)
	saved := body["entry"].(map[string]any)
	assert.Equal(t, true, saved["active"])
	id := saved["id"].(string)

	status, body = s.do("GET", "/api/catalog", "", nil)
	require.Equal(t, 200, status)
	require.Len(t, body["entries"].([]any), 1)

	status, body = s.do("POST", "/api/bookings", client, map[string]any{
		"serviceType": "event",
		"packageType": "standard",
		"date":        time.Now().UTC().AddDate(0, 1, 0).Format("2006-01-02"),
		"location":    "Lisbon",
	})
	require.Equal(t, 201, status, body)
	assert.EqualValues(t, 900, body["booking"].(map[string]any)["price"])

	entry["active"] = false
	status, _ = s.do("PUT", "/api/catalog/admin", admin, entry)
	require.Equal(t, 200, status)
	status, body = s.do("GET", "/api/catalog", "", nil)
	require.Equal(t, 200, status)
	assert.Empty(t, body["entries"])
	status, body = s.do("GET", "/api/catalog/admin/all", admin, nil)
	require.Equal(t, 200, status)
	assert.Len(t, body["entries"].([]any), 1)

	status, _ = s.do("DELETE", "/api/catalog/admin/"+id, admin, nil)
	assert.Equal(t, 200, status)
	status, body = s.do("DELETE", "/api/catalog/admin/"+id, admin, nil)
	assert.Equal(t, 404, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}

func TestRateLimitedRoutes(t *testing.T) {
	s := newTestServer(t, ratelimit.NewMemoryLimiter(time.Minute, 2))

	for i := 0; i < 2; i++ {
		status, _ := s.do("POST", "/api/auth/forgot-password", "", map[string]string{"email": "x@x.com"})
		require.Equal(t, 200, status)
	}
	status, body := s.do("POST", "/api/auth/forgot-password", "", map[string]string{"email": "x@x.com"})
	assert.Equal(t, 429, status)
	assert.Equal(t, "RATE_LIMITED", errorCode(body))

	status, _ = s.do("GET", "/api/reviews", "", nil)
	assert.Equal(t, 200, status, "public routes are not limited")
}

// With the default budget of five requests per window, the limiter and the
// lockout guard meet on the sixth login: the fifth failure locks the account
// and the sixth request is refused by the limiter before it reaches the guard.
func TestLockoutUnderDefaultRateLimit(t *testing.T) {
	s := newTestServer(t, ratelimit.NewMemoryLimiter(15*time.Minute, 5))
	s.signUp("B", "b@x.com")

	for i := 1; i <= 4; i++ {
		status, _ := s.do("POST", "/api/auth/login", "", map[string]string{"email": "b@x.com", "password": "wrong"})
		require.Equal(t, 401, status, "attempt %d", i)
	}
	status, body := s.do("POST", "/api/auth/login", "", map[string]string{"email": "b@x.com", "password": "wrong"})
	assert.Equal(t, 403, status)
	assert.Equal(t, "ACCOUNT_LOCKED", errorCode(body))

	status, body = s.do("POST", "/api/auth/login", "", map[string]string{"email": "b@x.com", "password": testPassword})
	assert.Equal(t, 429, status)
	assert.Equal(t, "RATE_LIMITED", errorCode(body))

	// registration and verification spent their own budgets, not the login one
	status, _ = s.do("POST", "/api/auth/forgot-password", "", map[string]string{"email": "b@x.com"})
	assert.Equal(t, 200, status)
}

func TestHealthMetricsAndNotFound(t *testing.T) {
	s := newTestServer(t, nil)

	status, body := s.do("GET", "/health/live", "", nil)
	assert.Equal(t, 200, status)
	assert.Equal(t, "alive", body["status"])

	status, body = s.do("GET", "/health/ready", "", nil)
	assert.Equal(t, 200, status)
	assert.Equal(t, "memory", body["dependencies"].(map[string]any)["store"])

	status, _ = s.do("GET", "/metrics", "", nil)
	assert.Equal(t, 200, status)

	status, body = s.do("GET", "/api/nope", "", nil)
	assert.Equal(t, 404, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}
