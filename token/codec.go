package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the minimum HS256 secret size in bytes (256 bits)
const MinSecretLength = 32

var (
	// ErrSecretTooShort is returned by NewCodec for secrets under MinSecretLength
	ErrSecretTooShort = fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLength)

	// ErrInvalidTTL is returned by NewCodec for a non-positive TTL
	ErrInvalidTTL = errors.New("token ttl must be positive")
)

// Claims is the verified content of an identity token
type Claims struct {
	Subject   string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// wireClaims is the JSON claim set: sub, role, iat, exp
type wireClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Config holds configuration for Codec
type Config struct {
	Secret string
	TTL    time.Duration
	Issuer string // optional; when set it is stamped on and required from every token
}

// Codec issues and verifies HS256 identity tokens. The key is derived once
// in NewCodec and never changes afterwards.
type Codec struct {
	key    []byte
	ttl    time.Duration
	issuer string
	method jwt.SigningMethod
}

// NewCodec creates a new Codec from the configured secret
func NewCodec(config Config) (*Codec, error) {
	if len(config.Secret) < MinSecretLength {
		return nil, ErrSecretTooShort
	}
	if config.TTL <= 0 {
		return nil, ErrInvalidTTL
	}

	key := make([]byte, len(config.Secret))
	copy(key, config.Secret)

	return &Codec{
		key:    key,
		ttl:    config.TTL,
		issuer: config.Issuer,
		method: jwt.SigningMethodHS256,
	}, nil
}

// Issue signs a token for subject and role with iat=now and exp=now+TTL
func (c *Codec) Issue(subject, role string, now time.Time) (string, error) {
	claims := wireClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of tokenString as of now.
// The returned error is always a *Error.
func (c *Codec) Verify(tokenString string, now time.Time) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}
	parser := jwt.NewParser(opts...)

	claims := &wireClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return c.key, nil
	})
	if err != nil {
		return nil, c.classify(tokenString, err)
	}
	if !token.Valid {
		return nil, newError(KindInvalidSignature, nil)
	}
	if claims.Subject == "" {
		return nil, newError(KindMalformed, errors.New("missing sub claim"))
	}

	out := &Claims{
		Subject:   claims.Subject,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}

// classify maps jwt parse errors onto the three token error kinds.
// The parser checks the signature before the claims, so a tampered
// token that is also expired reports an invalid signature.
func (c *Codec) classify(tokenString string, err error) *Error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return newError(KindInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return newError(KindExpired, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		if signatureOnlyDamage(tokenString) {
			return newError(KindInvalidSignature, err)
		}
		return newError(KindMalformed, err)
	default:
		return newError(KindMalformed, err)
	}
}

// signatureOnlyDamage reports whether header and claims are intact JSON, so a
// parse failure can only come from the signature segment
func signatureOnlyDamage(tokenString string) bool {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return false
	}

	parser := jwt.NewParser(jwt.WithStrictDecoding())
	for _, segment := range parts[:2] {
		raw, err := parser.DecodeSegment(segment)
		if err != nil {
			return false
		}
		var fields map[string]interface{}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return false
		}
	}
	return true
}

// Mask shortens a token for diagnostics: first 6 and last 4 characters
func Mask(token string) string {
	if len(token) <= 10 {
		return "***"
	}
	return token[:6] + "..." + token[len(token)-4:]
}
