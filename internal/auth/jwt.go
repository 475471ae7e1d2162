package auth

import (
	"errors"
	"fmt"
	"time"

	"resto-system/internal/database/models"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

type Claims struct {
	AccountID string      `json:"account_id"`
	Username  string      `json:"username"`
	Role      models.Role `json:"role"`
	SteppedUp bool        `json:"stepped_up,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies session tokens with one HMAC secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// Issue returns a signed token for p with a fresh token id.
func (i *TokenIssuer) Issue(p Principal) (string, Principal, error) {
	now := i.now()
	p.TokenID = uuid.NewString()
	p.ExpiresAt = now.Add(i.ttl)

	claims := &Claims{
		AccountID: p.AccountID,
		Username:  p.Username,
		Role:      p.Role,
		SteppedUp: p.SteppedUp,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        p.TokenID,
			ExpiresAt: jwt.NewNumericDate(p.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   p.Username,
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(i.secret)
	if err != nil {
		return "", Principal{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return s, p, nil
}

func (i *TokenIssuer) Parse(tokenStr string) (Principal, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Principal{}, ErrInvalidToken
	}
	if !claims.Role.Valid() || claims.ID == "" {
		return Principal{}, fmt.Errorf("%w: malformed claims", ErrInvalidToken)
	}

	p := Principal{
		AccountID: claims.AccountID,
		Username:  claims.Username,
		Role:      claims.Role,
		SteppedUp: claims.SteppedUp,
		TokenID:   claims.ID,
	}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}
	return p, nil
}

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrStepUpFailed       = errors.New("second factor rejected")
	ErrStepUpDisabled     = errors.New("second factor not enabled")
)
