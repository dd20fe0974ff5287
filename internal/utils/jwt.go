package utils

import (
	"errors"
	"os"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// Claims carried by the bearer tokens the frontend sends. Tokens are minted
// by the auth service after the Firebase handshake; this backend only
// validates them.
type Claims struct {
	FirebaseUID string `json:"firebase_uid"`
	UserType    string `json:"user_type"`
	jwt.StandardClaims
}

func getJWTSecret() string {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		// development fallback, override in production
		return "jobsetu_development_jwt_secret_key"
	}
	return secret
}

// GenerateToken creates a signed token for the given user. Used by tests and
// internal tooling; production tokens come from the auth service.
func GenerateToken(firebaseUID, userType string, ttl time.Duration) (string, error) {
	claims := Claims{
		FirebaseUID: firebaseUID,
		UserType:    userType,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(ttl).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(getJWTSecret()))
}

// ValidateToken parses and verifies a bearer token and returns its claims.
func ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(getJWTSecret()), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	if claims.FirebaseUID == "" {
		return nil, errors.New("token missing firebase_uid")
	}

	return claims, nil
}
