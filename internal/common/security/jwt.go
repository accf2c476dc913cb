package security

import (
	"errors"
	"time"

	"credtrack/internal/platform/config"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var TokenAuth *jwtauth.JWTAuth

func InitJWT() {
	TokenAuth = jwtauth.New("HS256", config.AppConfig.JWTKey, nil)
}

// IssuedToken is a signed token together with the identifiers the session
// store needs to allowlist and later revoke it.
type IssuedToken struct {
	Token     string
	JTI       string
	ExpiresAt time.Time
}

// GenerateToken signs a token for the user with the given lifetime. Each
// token carries a unique jti so a single token can be revoked on logout
// without touching the user's other sessions.
func GenerateToken(userID, role string, ttl time.Duration) (*IssuedToken, error) {
	jti := uuid.NewString()
	expiresAt := time.Now().Add(ttl)
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"jti":     jti,
		"exp":     expiresAt.Unix(),
		"iat":     time.Now().Unix(),
	}
	_, tokenString, err := TokenAuth.Encode(claims)
	if err != nil {
		return nil, err
	}
	return &IssuedToken{Token: tokenString, JTI: jti, ExpiresAt: expiresAt}, nil
}

// Helper functions to extract claims, used by middleware and handlers.
func GetUserIDFromClaims(claims map[string]interface{}) (string, error) {
	id, ok := claims["user_id"].(string)
	if !ok {
		return "", errors.New("user_id claim is missing or not a string")
	}
	return id, nil
}

func GetJTIFromClaims(claims map[string]interface{}) (string, error) {
	jti, ok := claims["jti"].(string)
	if !ok {
		return "", errors.New("jti claim is missing or not a string")
	}
	return jti, nil
}

func GetExpiryFromClaims(claims map[string]interface{}) (time.Time, error) {
	switch exp := claims["exp"].(type) {
	case time.Time:
		return exp, nil
	case float64:
		return time.Unix(int64(exp), 0), nil
	case int64:
		return time.Unix(exp, 0), nil
	}
	return time.Time{}, errors.New("exp claim is missing or malformed")
}
