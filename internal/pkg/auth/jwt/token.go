package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

const (
	// ExpiryLeeway is subtracted from exp when deciding if a stored token is still usable,
	// so that a token about to lapse is not used to open a push connection.
	ExpiryLeeway = 30 * time.Second

	// TokenIssuer identifies tokens minted by GenerateToken.
	TokenIssuer = "chatterm-dev"
)

// ErrMalformedToken is returned when a string is not a parseable JWT.
var ErrMalformedToken = errors.New("malformed token")

// ParseUnverified decodes the claims of tokenString without checking the signature.
// The backend is the only party that verifies tokens; the client reads claims only.
func ParseUnverified(tokenString string) (*Payload, error) {
	claims := &Payload{}

	parser := &jwt.Parser{}
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, errors.Join(ErrMalformedToken, err)
	}

	return claims, nil
}

// IsExpired reports whether tokenString is past its exp claim (minus ExpiryLeeway) at now.
// Tokens that are not JWTs, or carry no exp claim, are treated as opaque and never expire locally.
func IsExpired(tokenString string, now time.Time) bool {
	payload, err := ParseUnverified(tokenString)
	if err != nil {
		return false
	}

	exp, ok := payload.Expiry()
	if !ok {
		return false
	}

	return !now.Before(time.Unix(exp, 0).Add(-ExpiryLeeway))
}

// GenerateToken creates and signs a new HS256 token for the given payload.
// It is used by the fake backend in tests and local development.
func GenerateToken(payload *Payload, secretKey string, duration time.Duration) (string, error) {
	now := time.Now()

	payload.StandardClaims = jwt.StandardClaims{
		ExpiresAt: now.Add(duration).Unix(),
		IssuedAt:  now.Unix(),
		Issuer:    TokenIssuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)

	return token.SignedString([]byte(secretKey))
}

// ParseToken parses and validates the token string using the provided secretKey.
// It is the server-side counterpart of ParseUnverified, used by the fake backend.
func ParseToken(tokenString string, secretKey string) (*Payload, error) {
	claims := &Payload{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	return claims, nil
}
