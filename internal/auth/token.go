package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/studio-booking/internal/domain"
)

var (
	// ErrTokenExpired marks a well-formed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers bad signatures, malformed tokens and wrong token types.
	ErrTokenInvalid = errors.New("token invalid")
)

// TokenSettings configures the TokenManager.
type TokenSettings struct {
	AccessSecret   string
	RefreshSecret  string
	AccessTTL      time.Duration
	AdminAccessTTL time.Duration
	RefreshTTL     time.Duration
}

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	accessSecret   []byte
	refreshSecret  []byte
	accessTTL      time.Duration
	adminAccessTTL time.Duration
	refreshTTL     time.Duration
	now            func() time.Time
}

// NewTokenManager builds a new manager.
func NewTokenManager(settings TokenSettings) *TokenManager {
	tm := &TokenManager{
		accessSecret:   []byte(settings.AccessSecret),
		refreshSecret:  []byte(settings.RefreshSecret),
		accessTTL:      settings.AccessTTL,
		adminAccessTTL: settings.AdminAccessTTL,
		refreshTTL:     settings.RefreshTTL,
		now:            time.Now,
	}
	if tm.accessTTL <= 0 {
		tm.accessTTL = 15 * time.Minute
	}
	if tm.adminAccessTTL <= 0 {
		tm.adminAccessTTL = 24 * time.Hour
	}
	if tm.refreshTTL <= 0 {
		tm.refreshTTL = 7 * 24 * time.Hour
	}
	return tm
}

// WithClock overrides the time source; used by tests.
func (tm *TokenManager) WithClock(now func() time.Time) *TokenManager {
	tm.now = now
	return tm
}

// Claims describes JWT payload.
type Claims struct {
	UserID    string           `json:"id"`
	IsAdmin   bool             `json:"isAdmin,omitempty"`
	TokenType domain.TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// IssuePair mints an access token and a rotating refresh token.
func (tm *TokenManager) IssuePair(userID string, admin bool) (*domain.TokenPair, error) {
	accessTTL := tm.accessTTL
	if admin {
		accessTTL = tm.adminAccessTTL
	}
	access, accessExp, err := tm.sign(userID, admin, domain.TokenTypeAccess, accessTTL, tm.accessSecret)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := tm.sign(userID, admin, domain.TokenTypeRefresh, tm.refreshTTL, tm.refreshSecret)
	if err != nil {
		return nil, err
	}
	return &domain.TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (tm *TokenManager) sign(userID string, admin bool, typ domain.TokenType, ttl time.Duration, secret []byte) (string, time.Time, error) {
	now := tm.now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		UserID:    userID,
		IsAdmin:   admin,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseAccessToken validates an access token and returns its claims.
func (tm *TokenManager) ParseAccessToken(tokenStr string) (*Claims, error) {
	return tm.parse(tokenStr, tm.accessSecret, domain.TokenTypeAccess)
}

// ParseRefreshToken validates a refresh token and returns its claims.
func (tm *TokenManager) ParseRefreshToken(tokenStr string) (*Claims, error) {
	return tm.parse(tokenStr, tm.refreshSecret, domain.TokenTypeRefresh)
}

func (tm *TokenManager) parse(tokenStr string, secret []byte, typ domain.TokenType) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}, jwt.WithTimeFunc(tm.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.TokenType != typ || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// HashToken returns the SHA-256 hex digest stored in place of a raw token.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// EqualHash compares two hex digests in constant time.
func EqualHash(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
