package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/goatbot786-md/goattecc-bot/pkg/env"
	"github.com/goatbot786-md/goattecc-bot/pkg/router"
)

// JWTSecretKey for signing per-number session tokens
// REQUIRED: Application will panic if not set
var JWTSecretKey string

func init() {
	JWTSecretKey = env.MustGetEnvString("JWT_SECRET_KEY")
}

// SessionTokenClaims binds a bearer token to one paired phone number.
type SessionTokenClaims struct {
	Number string `json:"number"`
	jwt.RegisteredClaims
}

// GenerateSessionToken creates a long-lived JWT for a paired number. The
// token does not expire; revoking the pairing revokes its usefulness.
func GenerateSessionToken(number string) (string, error) {
	if JWTSecretKey == "" {
		return "", errors.New("JWT_SECRET_KEY not configured")
	}

	claims := SessionTokenClaims{
		Number: number,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   number,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(JWTSecretKey))
}

// ValidateSessionToken validates a session JWT and returns the claims
func ValidateSessionToken(tokenString string) (*SessionTokenClaims, error) {
	if JWTSecretKey == "" {
		return nil, errors.New("JWT_SECRET_KEY not configured")
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(JWTSecretKey), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*SessionTokenClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token claims")
}

// SessionOrAdminAuth allows either the admin secret or a bearer token whose
// number claim matches the :number route parameter.
func SessionOrAdminAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if isAdminSecret(c.Get("X-Admin-Secret")) {
			return c.Next()
		}

		bearer := strings.TrimSpace(c.Get("Authorization"))
		if strings.HasPrefix(bearer, "Bearer ") {
			claims, err := ValidateSessionToken(strings.TrimPrefix(bearer, "Bearer "))
			if err == nil && claims.Number == c.Params("number") {
				c.Locals("session_number", claims.Number)
				return c.Next()
			}
		}

		return router.ResponseUnauthorized(c, "Admin secret or matching session token required")
	}
}
