package services

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/example/atlasmarket/internal/apperr"
	"github.com/example/atlasmarket/internal/config"
	"github.com/example/atlasmarket/internal/models"
	"github.com/example/atlasmarket/internal/utils"
)

const (
	refreshInsertAttempts = 3
	refreshRetryBaseDelay = 50 * time.Millisecond
)

// TokenService issues short-lived access tokens and persisted, revocable
// refresh tokens.
type TokenService struct {
	cfg *config.Config
}

// NewTokenService constructs a TokenService.
func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{cfg: cfg}
}

// TokenPair bundles the credentials returned after a successful login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// IssuePair creates an access token plus a persisted refresh token for the
// user. The refresh token is inserted through tx so that callers can make
// issuance atomic with surrounding writes.
func (s *TokenService) IssuePair(tx *gorm.DB, user *models.User) (*TokenPair, error) {
	access, err := utils.GenerateAccessToken(s.cfg.JWTSecret, user.ID, user.Email, user.FullName, user.Role, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to sign access token", err)
	}

	refresh, err := s.createRefreshToken(tx, user.ID)
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// createRefreshToken inserts a new refresh token row, retrying a bounded
// number of times with increasing backoff when the insert loses a lock wait.
func (s *TokenService) createRefreshToken(tx *gorm.DB, userID uint) (string, error) {
	token, err := utils.RandomToken(32)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "failed to generate refresh token", err)
	}

	record := models.RefreshToken{
		Token:     token,
		UserID:    userID,
		ExpiresAt: time.Now().Add(s.cfg.RefreshTokenTTL),
	}

	var lastErr error
	for attempt := 1; attempt <= refreshInsertAttempts; attempt++ {
		lastErr = tx.Create(&record).Error
		if lastErr == nil {
			return token, nil
		}
		if !isLockError(lastErr) {
			break
		}
		time.Sleep(refreshRetryBaseDelay * time.Duration(attempt))
	}

	return "", apperr.Wrap(apperr.KindInternal, "failed to store refresh token", lastErr)
}

// FindUsable returns the refresh token row if it exists and is still valid.
func (s *TokenService) FindUsable(tx *gorm.DB, token string) (*models.RefreshToken, error) {
	var record models.RefreshToken
	if err := tx.Where("token = ?", token).First(&record).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.Auth("invalid refresh token")
		}
		return nil, apperr.Internal(err)
	}

	if !record.Usable(time.Now()) {
		return nil, apperr.Auth("refresh token expired or revoked")
	}

	return &record, nil
}

// Revoke marks a single refresh token as revoked. Unknown tokens are not an
// error, keeping logout idempotent.
func (s *TokenService) Revoke(tx *gorm.DB, token string) error {
	if token == "" {
		return nil
	}
	if err := tx.Model(&models.RefreshToken{}).
		Where("token = ?", token).
		Update("revoked", true).Error; err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// RevokeAllForUser revokes every refresh token belonging to the user.
func (s *TokenService) RevokeAllForUser(tx *gorm.DB, userID uint) error {
	if err := tx.Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true).Error; err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "lock") ||
		strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "busy")
}
