package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gogotex/personstore/pkg/middleware"
	"github.com/golang-jwt/jwt/v5"
)

var ErrNoSecret = errors.New("jwt secret is empty")

// GenerateAccessToken creates a signed HS256 access token for sub.
func GenerateAccessToken(secret, sub string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrNoSecret
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": sub,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// HMACVerifier checks HS256 tokens signed with a shared secret. It satisfies
// middleware.Verifier, which guards the write endpoints.
type HMACVerifier struct {
	secret []byte
}

// NewHMACVerifier returns nil when secret is empty. Check for nil before
// storing the result in a middleware.Verifier.
func NewHMACVerifier(secret string) *HMACVerifier {
	if secret == "" {
		return nil
	}
	return &HMACVerifier{secret: []byte(secret)}
}

func (v *HMACVerifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type %T", tok.Claims)
	}
	return verifiedToken{claims: claims}, nil
}

type verifiedToken struct {
	claims jwt.MapClaims
}

func (t verifiedToken) Claims(v interface{}) error {
	if mm, ok := v.(*map[string]interface{}); ok {
		*mm = map[string]interface{}(t.claims)
		return nil
	}
	b, err := json.Marshal(t.claims)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
