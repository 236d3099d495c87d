package tokenizer

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/layer-3/walletredirect/ports"
)

const AudienceStorage = "walletredirect:storage"

var ErrEmptySecret = errors.New("tokenizer secret must not be empty")

// JWTTokenizer implements the Tokenizer interface using HMAC-signed JWTs
type JWTTokenizer struct {
	secret []byte
	ttl    time.Duration
}

// NewJWTTokenizer creates a new JWT tokenizer. A zero ttl issues tokens that
// never expire.
func NewJWTTokenizer(secret []byte, ttl time.Duration) (ports.Tokenizer, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	return &JWTTokenizer{secret: secret, ttl: ttl}, nil
}

// ItemsToToken signs items into a JWT
func (j *JWTTokenizer) ItemsToToken(items map[string]string) (string, error) {
	now := time.Now()
	claims := StorageClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
			Audience: jwt.ClaimStrings{AudienceStorage},
		},
		Items: items,
	}
	if j.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(j.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// TokenToItems verifies a JWT and returns the items it carries
func (j *JWTTokenizer) TokenToItems(tokenStr string) (map[string]string, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &StorageClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	}, jwt.WithAudience(AudienceStorage))

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*StorageClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid claims type")
	}

	if claims.Items == nil {
		return map[string]string{}, nil
	}
	return claims.Items, nil
}
