package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v4"
)

// SessionClaims are the claims carried by a session token issued by the
// account service. Only the user id matters here.
type SessionClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// SessionVerifier resolves a session token to a user id. Sessions are
// managed outside this service; this is the only surface the core needs.
type SessionVerifier interface {
	UserIDFromToken(token string) (uint, error)
}

type jwtSessionVerifier struct {
	secret []byte
}

// NewSessionVerifier creates a verifier for HS256-signed session tokens.
func NewSessionVerifier(secret string) SessionVerifier {
	return &jwtSessionVerifier{secret: []byte(secret)}
}

// UserIDFromToken validates the token and returns the embedded user id.
func (v *jwtSessionVerifier) UserIDFromToken(tokenString string) (uint, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil {
		return 0, err
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return 0, errors.New("invalid token")
	}
	if claims.UserID == 0 {
		return 0, errors.New("token carries no user id")
	}
	return claims.UserID, nil
}
