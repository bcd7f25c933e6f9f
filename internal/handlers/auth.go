package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/atlasmarket/internal/apperr"
	"github.com/example/atlasmarket/internal/middleware"
	"github.com/example/atlasmarket/internal/services"
)

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	auth *services.AuthService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func sessionResponse(result *services.AuthResult) fiber.Map {
	return fiber.Map{
		"status": "success",
		"data": fiber.Map{
			"user":          result.User.PublicView(),
			"access_token":  result.Tokens.AccessToken,
			"refresh_token": result.Tokens.RefreshToken,
		},
	}
}

type registerRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// Register creates a new user account.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	result, err := h.auth.Register(req.FullName, req.Email, req.Phone, req.Password)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(sessionResponse(result))
}

type loginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// Login authenticates an existing user by phone and password.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	result, err := h.auth.Login(req.Phone, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(sessionResponse(result))
}

type externalLoginRequest struct {
	UID   string `json:"uid"`
	Phone string `json:"phone"`
}

// ExternalLogin authenticates a user whose identity was verified by an
// external provider.
func (h *AuthHandler) ExternalLogin(c *fiber.Ctx) error {
	var req externalLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	result, err := h.auth.LoginWithUID(req.UID, req.Phone)
	if err != nil {
		return err
	}

	return c.JSON(sessionResponse(result))
}

type sendOTPRequest struct {
	Phone string `json:"phone"`
}

// SendOTP delivers a one-time code to the given phone.
func (h *AuthHandler) SendOTP(c *fiber.Ctx) error {
	var req sendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	status, err := h.auth.SendOTP(req.Phone)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"data":   fiber.Map{"verification_status": status},
	})
}

type verifyOTPRequest struct {
	Phone    string `json:"phone"`
	Code     string `json:"code"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// VerifyOTP checks a one-time code and opens a session, registering the
// phone as a new account when needed.
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	result, err := h.auth.VerifyOTP(req.Phone, req.Code, req.FullName, req.Email)
	if err != nil {
		return err
	}

	return c.JSON(sessionResponse(result))
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh rotates a refresh token and returns a new pair.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	result, err := h.auth.Refresh(req.RefreshToken)
	if err != nil {
		return err
	}

	return c.JSON(sessionResponse(result))
}

// Logout revokes the presented refresh token. Always succeeds.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req refreshRequest
	_ = c.BodyParser(&req)

	if err := h.auth.Logout(req.RefreshToken); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"status": "success", "data": fiber.Map{"message": "logged out"}})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword replaces the caller's password.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return apperr.Auth("unauthorized")
	}

	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	if err := h.auth.ChangePassword(userID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"status": "success", "data": fiber.Map{"message": "password updated"}})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword starts the reset flow. The reply is identical whether or
// not the email exists.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	if err := h.auth.ForgotPassword(req.Email); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"data":   fiber.Map{"message": "if the email exists, reset instructions have been sent"},
	})
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ResetPassword consumes a reset token and sets a new password.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	if err := h.auth.ResetPassword(req.Token, req.NewPassword); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"status": "success", "data": fiber.Map{"message": "password updated"}})
}
