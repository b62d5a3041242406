package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the claims carried by the session token the backend issues.
// The client never holds the signing key; it only reads these claims to learn
// who the token belongs to and when it stops being accepted.
type Payload struct {
	// StandardClaims embeds the standard fields such as ExpiresAt (exp) and IssuedAt (iat).
	jwt.StandardClaims

	// UserID is the backend identifier of the authenticated user.
	UserID int64 `json:"id,omitempty"`

	// Username is included by backends that embed the display name in the token.
	Username string `json:"username,omitempty"`
}

// Expiry returns the expiration time, and false if the token carries no exp claim.
func (p *Payload) Expiry() (int64, bool) {
	if p.ExpiresAt == 0 {
		return 0, false
	}
	return p.ExpiresAt, true
}
