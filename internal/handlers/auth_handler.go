package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/Jitenmohanty/SelfEx-Job-tracker/internal/dto"
	"github.com/Jitenmohanty/SelfEx-Job-tracker/internal/middleware"
	"github.com/Jitenmohanty/SelfEx-Job-tracker/internal/models"
	"github.com/Jitenmohanty/SelfEx-Job-tracker/internal/repository"
)

const tokenTTL = 72 * time.Hour

func signToken(user models.User, secret string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID.Hex(),
		"role":    user.Role,
		"email":   user.Email,
		"exp":     time.Now().Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Register godoc
// @Summary      Register a new applicant account
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterRequest  true  "Account fields"
// @Success      201   {object} map[string]interface{}
// @Failure      400   {object} map[string]string
// @Router       /users/register [post]
func Register(users *repository.UserRepository, secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req dto.RegisterRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
		}
		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		if req.Name == "" || req.Email == "" || len(req.Password) < 6 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Name, email and a password of at least 6 characters are required"})
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error"})
		}

		// Registration always creates applicants; admin accounts are
		// provisioned out of band.
		user := models.User{
			Name:         req.Name,
			Email:        req.Email,
			PasswordHash: string(hash),
			Role:         models.RoleApplicant,
			CreatedAt:    time.Now().UTC(),
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if err := users.Insert(ctx, &user); err != nil {
			if errors.Is(err, repository.ErrDuplicateKey) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Email already registered"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error"})
		}

		token, err := signToken(user, secret)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Could not sign token"})
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"user":        user,
			"accessToken": token,
		})
	}
}

// Login godoc
// @Summary      Log in and receive a bearer token
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "Credentials"
// @Success      200   {object} map[string]interface{}
// @Failure      401   {object} map[string]string
// @Router       /users/login [post]
func Login(users *repository.UserRepository, secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req dto.LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		user, err := users.FindByEmail(ctx, strings.TrimSpace(strings.ToLower(req.Email)))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error"})
		}
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid email or password"})
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid email or password"})
		}

		token, err := signToken(*user, secret)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Could not sign token"})
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"user":        user,
			"accessToken": token,
		})
	}
}

// Me godoc
// @Summary      Current user profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object} models.User
// @Failure      401  {object} map[string]string
// @Router       /users/me [get]
func Me(users *repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := middleware.PrincipalFromCtx(c)
		if err != nil {
			return errorJSON(c, err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		user, err := users.FindByID(ctx, p.ID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error"})
		}
		if user == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
		}
		return c.Status(fiber.StatusOK).JSON(user)
	}
}
