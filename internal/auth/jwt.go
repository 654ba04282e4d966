package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gymcore/gym-api/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrEmptySecret  = errors.New("token secret must not be empty")
)

// Claims is what a validated token tells us about the caller.
type Claims struct {
	UserID int64
	Role   models.Role
}

// TokenManager signs and validates the bearer tokens ("passports") handed out at login.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager builds a manager signing with HS256.
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// GenerateToken creates a new JWT for a given user ID and role.
func (m *TokenManager) GenerateToken(userID int64, role models.Role) (string, error) {
	// 1. Create the "claims" (the data inside the passport).
	now := m.now()
	claims := jwt.MapClaims{
		"sub": userID,
		"rol": string(role),
		"exp": now.Add(m.ttl).Unix(),
		"iat": now.Unix(),
	}

	// 2. Sign it using HS256 and our secret key.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ValidateToken parses and validates a JWT token string.
func (m *TokenManager) ValidateToken(tokenString string) (Claims, error) {
	// 1. Parse, rejecting anything that is not HMAC-signed.
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return Claims{}, err // expired, malformed, bad signature
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	// 2. "sub" arrives as float64 (JSON's number type).
	userIDFloat, ok := claims["sub"].(float64)
	if !ok || userIDFloat <= 0 {
		return Claims{}, errors.New("invalid subject claim")
	}

	// 3. Role must be one we know about.
	roleStr, _ := claims["rol"].(string)
	role := models.Role(roleStr)
	if !role.Valid() {
		return Claims{}, errors.New("invalid role claim")
	}

	return Claims{UserID: int64(userIDFloat), Role: role}, nil
}
