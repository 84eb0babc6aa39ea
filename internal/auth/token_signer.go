package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// botClaims is the JWT body: uid/gid identify the member, elv marks the
// guild owner or an administrator.
type botClaims struct {
	UID   string   `json:"uid"`
	GID   string   `json:"gid"`
	Elv   bool     `json:"elv,omitempty"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// TokenSigner issues and validates HS256 bearer tokens for the bot.
type TokenSigner struct {
	secretKey []byte
}

func NewTokenSigner(secretKey []byte) *TokenSigner {
	return &TokenSigner{secretKey: secretKey}
}

// Enabled reports whether a secret is configured.
func (s *TokenSigner) Enabled() bool {
	return s != nil && len(s.secretKey) > 0
}

// Sign issues a token for the member valid for ttl.
func (s *TokenSigner) Sign(userID, guildID string, elevated bool, ttl time.Duration) (string, error) {
	if !s.Enabled() {
		return "", errors.New("JWT_SECRET is not set")
	}
	now := time.Now()
	claims := botClaims{
		UID: userID,
		GID: guildID,
		Elv: elevated,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "garrison",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Parse validates the token and returns its claims.
func (s *TokenSigner) Parse(tokenString string) (*JWTClaims, error) {
	if !s.Enabled() {
		return nil, errors.New("JWT_SECRET is not set")
	}

	var claims botClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.UID == "" || claims.GID == "" {
		return nil, errors.New("missing uid or gid claim")
	}

	return &JWTClaims{
		UserID:     claims.UID,
		GuildID:    claims.GID,
		IsElevated: claims.Elv,
		TokenID:    claims.ID,
		Roles:      claims.Roles,
	}, nil
}
