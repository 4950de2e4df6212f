package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/Jitenmohanty/SelfEx-Job-tracker/internal/apperr"
	"github.com/Jitenmohanty/SelfEx-Job-tracker/internal/services"
)

type authClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// RequireAuth validates the bearer token and stores user_id and role in
// Locals for the handlers behind it.
func RequireAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth := c.Get("Authorization")
		if auth == "" || !strings.HasPrefix(strings.ToLower(auth), "bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Not authorized, no token"})
		}
		tokenStr := strings.TrimSpace(auth[7:])

		var claims authClaims
		token, err := jwt.ParseWithClaims(
			tokenStr,
			&claims,
			func(t *jwt.Token) (interface{}, error) {
				if t.Method != jwt.SigningMethodHS256 {
					return nil, fiber.ErrUnauthorized
				}
				return []byte(secret), nil
			},
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		)
		if err != nil || !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Not authorized, token failed"})
		}

		uid := claims.UserID
		if uid == "" {
			uid = claims.Subject
		}
		if uid == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Not authorized, token failed"})
		}

		c.Locals("user_id", uid)
		c.Locals("role", claims.Role)
		return c.Next()
	}
}

// RequireRole gates a route on the role claim; RequireAuth must run
// first.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		got, _ := c.Locals("role").(string)
		if got != role {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Forbidden: insufficient role"})
		}
		return c.Next()
	}
}

// PrincipalFromCtx rebuilds the acting principal from Locals.
func PrincipalFromCtx(c *fiber.Ctx) (services.Principal, error) {
	uid, _ := c.Locals("user_id").(string)
	role, _ := c.Locals("role").(string)

	oid, err := bson.ObjectIDFromHex(uid)
	if err != nil {
		return services.Principal{}, apperr.Unauthorized("Not authorized, token failed")
	}
	return services.Principal{ID: oid, Role: role}, nil
}
