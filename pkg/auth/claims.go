package auth

import "github.com/golang-jwt/jwt/v5"

// SessionClaims is the payload of the auth_token cookie. Role is not
// embedded; it is read from the store on every request.
type SessionClaims struct {
	UserID uint `json:"userId"`
	jwt.RegisteredClaims
}
