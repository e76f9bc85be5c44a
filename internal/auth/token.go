package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"resume-match/internal/domain"
)

// ErrInvalidToken is returned for every token validation failure. The cause
// (malformed, bad signature, expired, unknown subject) is deliberately not
// distinguishable by the caller.
var ErrInvalidToken = errors.New("could not validate credentials")

// UserLookup resolves a subject email to a stored user. A nil user without an
// error means the subject does not exist.
type UserLookup func(ctx context.Context, email string) (*domain.User, error)

// Config carries the signing material and token lifetime. It is supplied
// explicitly at construction; this package never reads the environment.
type Config struct {
	Secret    string
	Algorithm string
	TokenTTL  time.Duration
}

// TokenManager hashes credentials and issues/validates session tokens.
// It is stateless after construction and safe for concurrent use.
type TokenManager struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	ttl    time.Duration
}

var signingMethods = map[string]*jwt.SigningMethodHMAC{
	"HS256": jwt.SigningMethodHS256,
	"HS384": jwt.SigningMethodHS384,
	"HS512": jwt.SigningMethodHS512,
}

func NewTokenManager(cfg Config) (*TokenManager, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("auth secret is required")
	}

	alg := strings.TrimSpace(cfg.Algorithm)
	if alg == "" {
		alg = "HS256"
	}
	method, ok := signingMethods[strings.ToUpper(alg)]
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", cfg.Algorithm)
	}

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	return &TokenManager{
		secret: []byte(cfg.Secret),
		method: method,
		ttl:    ttl,
	}, nil
}

// HashPassword produces a salted one-way hash of the plaintext. The salt is
// generated per call, so two hashes of the same password differ.
func (m *TokenManager) HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether plaintext matches the stored hash. A
// mismatch is a plain false, never an error.
func (m *TokenManager) VerifyPassword(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// IssueToken merges the caller's claims with a computed absolute expiration
// and signs the result. Caller claims win over nothing: exp, iat and jti are
// always set here.
func (m *TokenManager) IssueToken(claims map[string]any) (string, error) {
	now := time.Now().UTC()

	merged := jwt.MapClaims{}
	for k, v := range claims {
		merged[k] = v
	}
	merged["exp"] = now.Add(m.ttl).Unix()
	merged["iat"] = now.Unix()
	merged["jti"] = uuid.NewString()

	token := jwt.NewWithClaims(m.method, merged)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ResolveSubject verifies the token's signature and expiration, extracts the
// subject email and resolves it through lookup. A token is accepted only if
// the signature verifies under the current secret, the expiration is in the
// future and the subject exists.
func (m *TokenManager) ResolveSubject(ctx context.Context, tokenString string, lookup UserLookup) (*domain.User, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != m.method.Alg() {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return m.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return nil, ErrInvalidToken
	}

	user, err := lookup(ctx, subject)
	if err != nil || user == nil {
		return nil, ErrInvalidToken
	}
	return user, nil
}
