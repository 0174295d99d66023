package tokenizer

import "github.com/golang-jwt/jwt/v5"

// AccessClaims are the bearer-credential claims. The format is fixed so any
// instance sharing the signing key can validate tokens minted elsewhere.
type AccessClaims struct {
	jwt.RegisteredClaims
}
