package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"clarifier/internal/platform/config"
)

const issuer = "clarifier"

var ErrInvalidToken = errors.New("invalid token")

// Claims binds a bearer token to one organization.
type Claims struct {
	OrganizationID string   `json:"oid"`
	Scopes         []string `json:"scp,omitempty"`
	jwt.RegisteredClaims
}

type TokenService struct {
	config config.JWTConfig
}

func NewTokenService(cfg config.JWTConfig) *TokenService {
	return &TokenService{config: cfg}
}

// Enabled reports whether a signing secret is configured.
func (s *TokenService) Enabled() bool {
	return s != nil && s.config.Secret != ""
}

func (s *TokenService) GenerateAccessToken(orgID string, scopes []string) (string, error) {
	if !s.Enabled() {
		return "", errors.New("jwt secret not configured")
	}
	now := time.Now()
	claims := Claims{
		OrganizationID: orgID,
		Scopes:         scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   orgID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.Secret))
}

func (s *TokenService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithIssuer(issuer))

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.OrganizationID != "" {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
