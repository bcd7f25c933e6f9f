package middleware

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/atlasmarket/internal/apperr"
	"github.com/example/atlasmarket/internal/config"
	"github.com/example/atlasmarket/internal/models"
	"github.com/example/atlasmarket/internal/utils"
)

const (
	userIDContextKey = "currentUserID"
	roleContextKey   = "currentUserRole"
)

// RequireAuth validates the bearer token and loads the caller's identity
// into the request context.
func RequireAuth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return apperr.Auth("missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return apperr.Auth("invalid authorization header")
		}

		claims, err := utils.ParseAccessToken(cfg.JWTSecret, parts[1])
		if err != nil {
			return err
		}

		userID, err := claims.UserID()
		if err != nil {
			return apperr.Auth("invalid token")
		}

		c.Locals(userIDContextKey, userID)
		c.Locals(roleContextKey, claims.Role)
		return c.Next()
	}
}

// RestrictTo rejects callers whose role is not in the allowed set.
func RestrictTo(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := GetCurrentRole(c)
		if !ok {
			return apperr.Auth("unauthorized")
		}
		for _, allowed := range roles {
			if role == allowed {
				return c.Next()
			}
		}
		return apperr.Forbidden("insufficient permissions")
	}
}

// OwnerOrAdmin permits admins unconditionally and non-admins only when they
// own the resource named by the route parameter. An unknown resource type is
// a programming fault.
func OwnerOrAdmin(db *gorm.DB, resourceType, idParam string) fiber.Handler {
	ownerOf := ownerLookup(resourceType)

	return func(c *fiber.Ctx) error {
		userID, ok := GetCurrentUserID(c)
		if !ok {
			return apperr.Auth("unauthorized")
		}

		if role, _ := GetCurrentRole(c); role == models.RoleAdmin {
			return c.Next()
		}

		id, err := strconv.ParseUint(c.Params(idParam), 10, 64)
		if err != nil {
			return apperr.Validation("invalid id")
		}

		ownerID, err := ownerOf(db, uint(id))
		if err != nil {
			return err
		}
		if ownerID != userID {
			return apperr.Forbidden("you do not own this resource")
		}

		return c.Next()
	}
}

func ownerLookup(resourceType string) func(*gorm.DB, uint) (uint, error) {
	switch resourceType {
	case "order":
		return func(db *gorm.DB, id uint) (uint, error) {
			var order models.Order
			if err := db.Select("user_id").First(&order, id).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return 0, apperr.NotFound("order not found")
				}
				return 0, apperr.Internal(err)
			}
			return order.UserID, nil
		}
	case "address":
		return func(db *gorm.DB, id uint) (uint, error) {
			var address models.UserAddress
			if err := db.Select("user_id").First(&address, id).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return 0, apperr.NotFound("address not found")
				}
				return 0, apperr.Internal(err)
			}
			return address.UserID, nil
		}
	default:
		panic(fmt.Sprintf("middleware: unknown resource type %q", resourceType))
	}
}

// GetCurrentUserID extracts the authenticated user ID from context.
func GetCurrentUserID(c *fiber.Ctx) (uint, bool) {
	if id, ok := c.Locals(userIDContextKey).(uint); ok {
		return id, true
	}
	return 0, false
}

// GetCurrentRole extracts the authenticated user's role from context.
func GetCurrentRole(c *fiber.Ctx) (string, bool) {
	if role, ok := c.Locals(roleContextKey).(string); ok {
		return role, true
	}
	return "", false
}
