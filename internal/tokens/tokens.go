package tokens

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/greenstay/hotelenergy/internal/rbac"
)

// Kind discriminates access tokens from refresh tokens. A token of one
// kind is never accepted where the other is expected.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrWrongKind    = errors.New("wrong token kind")
	ErrTokenRevoked = errors.New("token revoked")
)

type Claims struct {
	Role string `json:"role"`
	Kind Kind   `json:"typ"`
	jwt.RegisteredClaims
}

// Sign produces an HS256 token carrying the subject, the role snapshot
// and the kind, expiring after ttl.
func Sign(subject string, role rbac.Role, kind Kind, ttl time.Duration, secret []byte) (string, *Claims, error) {
	claims := Claims{
		Role: string(role),
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        NewJTI(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", nil, err
	}
	return signed, &claims, nil
}

// Parse verifies the signature and expiry and checks the kind claim.
// Validity never involves any store lookup.
func Parse(tokenStr string, expected Kind, secret []byte) (*Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !tkn.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Kind != expected {
		return nil, ErrWrongKind
	}
	return &claims, nil
}

func Sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func NewJTI() string { return uuid.NewString() }
