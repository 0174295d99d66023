package tokenizer

import (
	"crypto/ecdsa"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/agora-market/admission/core"
	"github.com/agora-market/admission/ports"
)

// AudienceAccess tags bearer credentials so tokens cannot be replayed into
// a different verification context.
const AudienceAccess = "admission:access"

// JWTTokenizer implements the Tokenizer port using ES256-signed JWTs.
type JWTTokenizer struct {
	signKey *ecdsa.PrivateKey
}

// NewJWTTokenizer creates a new JWT tokenizer. The signing key is held for
// the process lifetime and never leaves this adapter.
func NewJWTTokenizer(signKey *ecdsa.PrivateKey) ports.Tokenizer {
	return &JWTTokenizer{signKey: signKey}
}

// Issue mints a signed bearer credential for the subject, expiring ttl from
// now.
func (j *JWTTokenizer) Issue(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Audience:  jwt.ClaimStrings{AudienceAccess},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)

	signed, err := token.SignedString(j.signKey)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Validate parses and verifies a bearer credential and returns its subject.
func (j *JWTTokenizer) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, core.ErrCredentialInvalid
		}
		return &j.signKey.PublicKey, nil
	}, jwt.WithAudience(AudienceAccess))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", core.ErrCredentialExpired
		}
		return "", core.ErrCredentialInvalid
	}
	if !token.Valid {
		return "", core.ErrCredentialInvalid
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || claims.Subject == "" {
		return "", core.ErrCredentialInvalid
	}
	return claims.Subject, nil
}
