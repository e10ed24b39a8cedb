package auth

import (
	"errors"
	"time"

	"deposit-backend/internal/config"
	"deposit-backend/internal/timeutil"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carry the caller's identity. TenantID scopes every query; UserID is
// recorded as the actor on lifecycle transitions.
type Claims struct {
	UserID              int    `json:"user_id"`
	TenantID            int    `json:"tenant_id"`
	Email               string `json:"email"`
	Role                string `json:"role"`
	HasAccountantAccess bool   `json:"has_accountant_access"`
	jwt.RegisteredClaims
}

type JWTManager struct {
	cfg *config.Config
}

func NewJWTManager(cfg *config.Config) *JWTManager {
	return &JWTManager{cfg: cfg}
}

// GenerateToken creates a new JWT token for a user. Tokens are normally
// issued by the identity service; this path exists for service accounts
// and local development.
func (j *JWTManager) GenerateToken(userID, tenantID int, email, role string, accountant bool) (string, error) {
	now := timeutil.Now()
	expirationTime := now.Add(time.Duration(j.cfg.JWT.ExpirationHours) * time.Hour)

	claims := &Claims{
		UserID:              userID,
		TenantID:            tenantID,
		Email:               email,
		Role:                role,
		HasAccountantAccess: accountant,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    j.cfg.JWT.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.cfg.JWT.Secret))
}

// ValidateToken verifies a JWT token and returns the claims
func (j *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(j.cfg.JWT.Secret), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	if claims.TenantID <= 0 {
		return nil, errors.New("token missing tenant")
	}

	return claims, nil
}
