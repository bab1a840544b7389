package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is what the client can read from an access token without the
// signing key. It is for display only and never used for authorization.
type TokenInfo struct {
	Subject   string
	UserID    string
	TokenType string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func (t TokenInfo) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}

func (t TokenInfo) Remaining(now time.Time) time.Duration {
	if t.ExpiresAt.IsZero() || now.After(t.ExpiresAt) {
		return 0
	}
	return t.ExpiresAt.Sub(now)
}

type accessClaims struct {
	UserID    interface{} `json:"user_id"`
	TokenType string      `json:"token_type"`
	jwt.RegisteredClaims
}

// DescribeToken decodes the claims of a JWT without verifying it.
func DescribeToken(token string) (TokenInfo, error) {
	var claims accessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return TokenInfo{}, fmt.Errorf("failed to parse token: %w", err)
	}

	info := TokenInfo{
		Subject:   claims.Subject,
		TokenType: claims.TokenType,
	}
	if claims.UserID != nil {
		info.UserID = fmt.Sprint(claims.UserID)
	}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}
