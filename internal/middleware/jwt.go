package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/society-points-api/internal/service"
	"github.com/noah-isme/society-points-api/internal/utils"
)

const identityKey = "identity"

// JWTProtected validates HMAC-signed bearer tokens and stores the bearer's identity on the request.
func JWTProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get("Authorization")
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		const bearer = "Bearer "
		if len(authorization) < len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		identity := identityFromClaims(claims)
		if identity.Subject == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "token subject missing")
		}

		c.Locals(identityKey, identity)
		c.Locals("user_id", identity.Subject)
		return c.Next()
	}
}

// IdentityFromContext returns the identity stored by JWTProtected.
func IdentityFromContext(c *fiber.Ctx) (service.Identity, bool) {
	identity, ok := c.Locals(identityKey).(service.Identity)
	return identity, ok
}

func identityFromClaims(claims jwt.MapClaims) service.Identity {
	return service.Identity{
		Subject: firstClaim(claims, "sub", "user_id", "id"),
		Email:   firstClaim(claims, "email"),
		Name:    firstClaim(claims, "name"),
		Picture: firstClaim(claims, "picture"),
	}
}

func firstClaim(claims jwt.MapClaims, keys ...string) string {
	for _, key := range keys {
		switch value := claims[key].(type) {
		case string:
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		case float64:
			return fmt.Sprintf("%.0f", value)
		}
	}
	return ""
}
