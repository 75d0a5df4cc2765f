package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken is returned when the token is invalid.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")
)

// JWTConfig holds the token manager's settings. The secret comes from the
// startup Config; the manager is constructed once and never mutated.
type JWTConfig struct {
	SecretKey           string
	AccessTokenDuration time.Duration
	Issuer              string
}

// AuthClaims are the custom claims carried by access tokens.
type AuthClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// JWTManager issues and validates HS256 access tokens.
type JWTManager struct {
	config JWTConfig
}

func NewJWTManager(config JWTConfig) *JWTManager {
	if config.AccessTokenDuration == 0 {
		config.AccessTokenDuration = 24 * time.Hour
	}
	if config.Issuer == "" {
		config.Issuer = "work-optimizer"
	}
	return &JWTManager{config: config}
}

// GenerateAccessToken generates a new access token for the given user.
func (m *JWTManager) GenerateAccessToken(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := AuthClaims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.AccessTokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.config.SecretKey))
}

// ValidateAccessToken validates the token and returns the user id it carries.
func (m *JWTManager) ValidateAccessToken(tokenString string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(m.config.SecretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, ErrExpiredToken
		}
		return uuid.Nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return userID, nil
}

// tokenManager is wired once at startup from the loaded Config.
var tokenManager *JWTManager

// InitTokenManager constructs the process-wide JWT manager.
func InitTokenManager(secret string) {
	tokenManager = NewJWTManager(JWTConfig{SecretKey: secret})
}

// IssueAccessToken issues a JWT for a signed-in user.
func IssueAccessToken(userID uuid.UUID) (string, error) {
	if tokenManager == nil {
		return "", errors.New("token manager not initialized")
	}
	return tokenManager.GenerateAccessToken(userID)
}

// ResolveToken accepts either a JWT access token or an opaque Redis session
// token and returns the authenticated user.
func ResolveToken(token string) (uuid.UUID, bool) {
	if token == "" {
		return uuid.Nil, false
	}
	if tokenManager != nil {
		if userID, err := tokenManager.ValidateAccessToken(token); err == nil {
			return userID, true
		}
	}
	userID, ok, err := ValidateSession(token)
	if err != nil || !ok {
		return uuid.Nil, false
	}
	return userID, true
}
