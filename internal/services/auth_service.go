package services

import (
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/atlasmarket/internal/apperr"
	"github.com/example/atlasmarket/internal/config"
	"github.com/example/atlasmarket/internal/models"
	"github.com/example/atlasmarket/internal/utils"
)

const (
	maxLoginAttempts   = 5
	minPasswordLength  = 8
	passwordResetTTL   = time.Hour
	lockedAccountError = "account locked due to too many failed login attempts"
)

// AuthService orchestrates registration, login, OTP verification, token
// refresh and password lifecycle.
type AuthService struct {
	db      *gorm.DB
	cfg     *config.Config
	tokens  *TokenService
	gateway VerifyGateway
}

// NewAuthService constructs an AuthService.
func NewAuthService(db *gorm.DB, cfg *config.Config, tokens *TokenService, gateway VerifyGateway) *AuthService {
	return &AuthService{db: db, cfg: cfg, tokens: tokens, gateway: gateway}
}

// AuthResult is returned by every operation that establishes a session.
type AuthResult struct {
	User   *models.User
	Tokens *TokenPair
}

// Register creates a new active user account and opens a session for it.
func (s *AuthService) Register(fullName, email, phone, password string) (*AuthResult, error) {
	if fullName == "" || email == "" || phone == "" || password == "" {
		return nil, apperr.Validation("full_name, email, phone and password are required")
	}
	if !utils.ValidEmail(email) {
		return nil, apperr.Validation("invalid email address")
	}
	if !utils.ValidPhone(phone) {
		return nil, apperr.Validation("invalid phone number format")
	}
	if len(password) < minPasswordLength {
		return nil, apperr.Validation("password must be at least 8 characters")
	}

	var count int64
	if err := s.db.Model(&models.User{}).
		Where("email = ? OR phone = ?", email, phone).
		Count(&count).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	if count > 0 {
		return nil, apperr.Conflict("email or phone already in use")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to hash password", err)
	}

	user := models.User{
		UID:          uuid.NewString(),
		FullName:     fullName,
		Email:        email,
		Phone:        phone,
		PasswordHash: &hash,
		Role:         models.RoleUser,
		Active:       true,
	}

	var pair *TokenPair
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			// The pre-check races with concurrent registration; the unique
			// indexes are authoritative.
			if isDuplicateError(err) {
				return apperr.Conflict("email or phone already in use")
			}
			return apperr.Internal(err)
		}
		pair, err = s.tokens.IssuePair(tx, &user)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: &user, Tokens: pair}, nil
}

// Login authenticates by phone and password. Five cumulative failures lock
// the account; a locked account rejects even the correct password.
func (s *AuthService) Login(phone, password string) (*AuthResult, error) {
	var user models.User
	if err := s.db.Where("phone = ?", phone).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.Auth("invalid credentials")
		}
		return nil, apperr.Internal(err)
	}

	if !user.Active {
		return nil, apperr.AccountLocked(lockedAccountError)
	}

	if user.PasswordHash == nil || !utils.CheckPassword(*user.PasswordHash, password) {
		return nil, s.recordFailedAttempt(&user)
	}

	now := time.Now()
	if err := s.db.Model(&user).Updates(map[string]interface{}{
		"failed_login_attempts": 0,
		"last_login_at":         now,
	}).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	user.FailedLoginAttempts = 0
	user.LastLoginAt = &now

	var pair *TokenPair
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		pair, err = s.tokens.IssuePair(tx, &user)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: &user, Tokens: pair}, nil
}

func (s *AuthService) recordFailedAttempt(user *models.User) error {
	attempts := user.FailedLoginAttempts + 1
	updates := map[string]interface{}{"failed_login_attempts": attempts}
	locked := attempts >= maxLoginAttempts
	if locked {
		updates["active"] = false
	}

	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return apperr.Internal(err)
	}

	if locked {
		return apperr.AccountLocked(lockedAccountError)
	}
	return apperr.Auth("invalid credentials")
}

// LoginWithUID authenticates a user whose identity was established by an
// external provider. A changed uid is adopted best-effort.
func (s *AuthService) LoginWithUID(uid, phone string) (*AuthResult, error) {
	var user models.User
	if err := s.db.Where("phone = ?", phone).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal(err)
	}

	if !user.Active {
		return nil, apperr.AccountLocked(lockedAccountError)
	}

	if uid != "" && user.UID != uid {
		if err := s.db.Model(&user).Update("uid", uid).Error; err != nil {
			log.Printf("auth: failed to update uid for user %d: %v", user.ID, err)
		} else {
			user.UID = uid
		}
	}

	now := time.Now()
	if err := s.db.Model(&user).Update("last_login_at", now).Error; err != nil {
		log.Printf("auth: failed to stamp last login for user %d: %v", user.ID, err)
	} else {
		user.LastLoginAt = &now
	}

	var pair *TokenPair
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		pair, err = s.tokens.IssuePair(tx, &user)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: &user, Tokens: pair}, nil
}

// SendOTP asks the verification gateway to deliver a code. The phone format
// is validated before the gateway is contacted.
func (s *AuthService) SendOTP(phone string) (string, error) {
	if !utils.ValidPhone(phone) {
		return "", apperr.Validation("invalid phone number format")
	}

	status, err := s.gateway.SendVerification(phone)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "verification gateway send failed", err)
	}
	return status, nil
}

// VerifyOTP checks a one-time code and opens a session, creating a new
// passwordless account when the phone is unknown. User creation and token
// issuance share one transaction.
func (s *AuthService) VerifyOTP(phone, code, fullName, email string) (*AuthResult, error) {
	if !utils.ValidPhone(phone) {
		return nil, apperr.Validation("invalid phone number format")
	}

	status, err := s.gateway.CheckVerification(phone, code)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "verification gateway check failed", err)
	}
	if status != VerifyStatusApproved {
		return nil, apperr.Auth("invalid verification code")
	}

	var user models.User
	err = s.db.Where("phone = ?", phone).First(&user).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		if fullName == "" || email == "" {
			return nil, apperr.Validation("full_name and email are required for new accounts")
		}
		if !utils.ValidEmail(email) {
			return nil, apperr.Validation("invalid email address")
		}
		now := time.Now()
		user = models.User{
			UID:         uuid.NewString(),
			FullName:    fullName,
			Email:       email,
			Phone:       phone,
			Role:        models.RoleUser,
			Active:      true,
			LastLoginAt: &now,
		}

		var pair *TokenPair
		txErr := s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&user).Error; err != nil {
				if isDuplicateError(err) {
					return apperr.Conflict("email or phone already in use")
				}
				return apperr.Internal(err)
			}
			var err error
			pair, err = s.tokens.IssuePair(tx, &user)
			return err
		})
		if txErr != nil {
			return nil, txErr
		}
		return &AuthResult{User: &user, Tokens: pair}, nil

	case err != nil:
		return nil, apperr.Internal(err)
	}

	if !user.Active {
		return nil, apperr.AccountLocked(lockedAccountError)
	}

	now := time.Now()
	if err := s.db.Model(&user).Update("last_login_at", now).Error; err != nil {
		log.Printf("auth: failed to stamp last login for user %d: %v", user.ID, err)
	} else {
		user.LastLoginAt = &now
	}

	var pair *TokenPair
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		pair, err = s.tokens.IssuePair(tx, &user)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: &user, Tokens: pair}, nil
}

// Refresh rotates a refresh token: the presented token is revoked in the
// same transaction that issues the replacement pair, so it can never be
// replayed.
func (s *AuthService) Refresh(refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, apperr.Auth("missing refresh token")
	}

	var user models.User
	var pair *TokenPair
	err := s.db.Transaction(func(tx *gorm.DB) error {
		record, err := s.tokens.FindUsable(tx, refreshToken)
		if err != nil {
			return err
		}

		if err := tx.First(&user, record.UserID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperr.Auth("user no longer exists")
			}
			return apperr.Internal(err)
		}

		if err := s.tokens.Revoke(tx, refreshToken); err != nil {
			return err
		}

		pair, err = s.tokens.IssuePair(tx, &user)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: &user, Tokens: pair}, nil
}

// Logout revokes the presented refresh token. Absent or already-revoked
// tokens are not an error.
func (s *AuthService) Logout(refreshToken string) error {
	return s.tokens.Revoke(s.db, refreshToken)
}

// ChangePassword replaces the stored hash after verifying the current
// password.
func (s *AuthService) ChangePassword(userID uint, currentPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return apperr.Validation("password must be at least 8 characters")
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperr.NotFound("user not found")
		}
		return apperr.Internal(err)
	}

	if user.PasswordHash == nil || !utils.CheckPassword(*user.PasswordHash, currentPassword) {
		return apperr.Auth("current password is incorrect")
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to hash password", err)
	}

	if err := s.db.Model(&user).Update("password_hash", hash).Error; err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// ForgotPassword stores a reset token when the email is known. It reports
// success either way so callers cannot enumerate accounts.
func (s *AuthService) ForgotPassword(email string) error {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return apperr.Internal(err)
	}

	token, err := utils.RandomToken(32)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to generate reset token", err)
	}

	expiry := time.Now().Add(passwordResetTTL)
	if err := s.db.Model(&user).Updates(map[string]interface{}{
		"password_reset_token":      token,
		"password_reset_expires_at": expiry,
	}).Error; err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// ResetPassword consumes a reset token, replaces the password and revokes
// every refresh token for the user, forcing re-login on all devices.
func (s *AuthService) ResetPassword(token, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return apperr.Validation("password must be at least 8 characters")
	}
	if token == "" {
		return apperr.Auth("invalid or expired reset token")
	}

	var user models.User
	if err := s.db.Where("password_reset_token = ?", token).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperr.Auth("invalid or expired reset token")
		}
		return apperr.Internal(err)
	}

	if user.PasswordResetExpiresAt == nil || time.Now().After(*user.PasswordResetExpiresAt) {
		return apperr.Auth("invalid or expired reset token")
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to hash password", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Updates(map[string]interface{}{
			"password_hash":             hash,
			"password_reset_token":      nil,
			"password_reset_expires_at": nil,
		}).Error; err != nil {
			return apperr.Internal(err)
		}
		return s.tokens.RevokeAllForUser(tx, user.ID)
	})
}
