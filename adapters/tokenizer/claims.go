package tokenizer

import "github.com/golang-jwt/jwt/v5"

// StorageClaims combines standard claims with the stored items
type StorageClaims struct {
	jwt.RegisteredClaims
	Items map[string]string `json:"items"`
}
