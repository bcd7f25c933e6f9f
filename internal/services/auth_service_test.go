package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/atlasmarket/internal/apperr"
	"github.com/example/atlasmarket/internal/models"
)

func TestRegisterThenLogin(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	result, err := svc.Register("Youssef Alaoui", "youssef@example.com", "+212600000010", "s3cr3tpass")
	require.NoError(t, err)
	require.NotNil(t, result.Tokens)
	assert.NotEmpty(t, result.Tokens.AccessToken)
	assert.NotEmpty(t, result.Tokens.RefreshToken)
	assert.Equal(t, models.RoleUser, result.User.Role)
	assert.True(t, result.User.Active)
	assert.NotEmpty(t, result.User.UID)

	login, err := svc.Login("+212600000010", "s3cr3tpass")
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, login.User.ID)
	assert.NotNil(t, login.User.LastLoginAt)
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	cases := []struct {
		name                         string
		fullName, email, phone, pass string
	}{
		{"missing name", "", "a@example.com", "+212600000011", "password1"},
		{"missing email", "A", "", "+212600000011", "password1"},
		{"bad email", "A", "not-an-email", "+212600000011", "password1"},
		{"bad phone", "A", "a@example.com", "0600000011", "password1"},
		{"short password", "A", "a@example.com", "+212600000011", "short"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(tc.fullName, tc.email, tc.phone, tc.pass)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindValidation))
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, err := svc.Register("First", "dup@example.com", "+212600000012", "password1")
	require.NoError(t, err)

	_, err = svc.Register("Second", "dup@example.com", "+212600000013", "password1")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = svc.Register("Third", "other@example.com", "+212600000012", "password1")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestLoginUnknownPhone(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, err := svc.Login("+212600000099", "whatever1")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindAuth))
}

func TestLockoutAfterFiveFailures(t *testing.T) {
	svc, db, _ := newTestAuthService(t)

	_, err := svc.Register("Amine", "amine@example.com", "+212600000001", "rightpass")
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err := svc.Login("+212600000001", "wrongpass")
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.KindAuth), "attempt %d should be a plain auth error", i+1)
	}

	// Fifth failure crosses the threshold and locks the account.
	_, err = svc.Login("+212600000001", "wrongpass")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindAccountLocked))

	var user models.User
	require.NoError(t, db.Where("phone = ?", "+212600000001").First(&user).Error)
	assert.False(t, user.Active)
	assert.Equal(t, 5, user.FailedLoginAttempts)

	// Even the correct password is rejected once locked.
	_, err = svc.Login("+212600000001", "rightpass")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindAccountLocked))
}

func TestLoginResetsFailureCounter(t *testing.T) {
	svc, db, _ := newTestAuthService(t)

	_, err := svc.Register("Nadia", "nadia@example.com", "+212600000014", "rightpass")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, _ = svc.Login("+212600000014", "wrongpass")
	}

	_, err = svc.Login("+212600000014", "rightpass")
	require.NoError(t, err)

	var user models.User
	require.NoError(t, db.Where("phone = ?", "+212600000014").First(&user).Error)
	assert.Equal(t, 0, user.FailedLoginAttempts)
}

func TestRefreshRotation(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	result, err := svc.Register("Khalid", "khalid@example.com", "+212600000015", "password1")
	require.NoError(t, err)
	original := result.Tokens.RefreshToken

	rotated, err := svc.Refresh(original)
	require.NoError(t, err)
	assert.NotEqual(t, original, rotated.Tokens.RefreshToken)

	// The consumed token can never be replayed.
	_, err = svc.Refresh(original)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindAuth))

	// The replacement still works.
	_, err = svc.Refresh(rotated.Tokens.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshExpiredToken(t *testing.T) {
	svc, db, _ := newTestAuthService(t)

	result, err := svc.Register("Hassan", "hassan@example.com", "+212600000016", "password1")
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.RefreshToken{}).
		Where("token = ?", result.Tokens.RefreshToken).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	_, err = svc.Refresh(result.Tokens.RefreshToken)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindAuth))
}

func TestRefreshMissingToken(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, err := svc.Refresh("")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindAuth))

	_, err = svc.Refresh("deadbeef")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindAuth))
}

func TestLogoutIdempotent(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	result, err := svc.Register("Meryem", "meryem@example.com", "+212600000017", "password1")
	require.NoError(t, err)
	token := result.Tokens.RefreshToken

	require.NoError(t, svc.Logout(token))
	require.NoError(t, svc.Logout(token))
	require.NoError(t, svc.Logout(""))
	require.NoError(t, svc.Logout("never-issued"))

	_, err = svc.Refresh(token)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindAuth))
}

func TestChangePassword(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	result, err := svc.Register("Omar", "omar@example.com", "+212600000018", "oldpassword")
	require.NoError(t, err)

	err = svc.ChangePassword(result.User.ID, "wrongcurrent", "newpassword")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindAuth))

	err = svc.ChangePassword(result.User.ID, "oldpassword", "tiny")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	require.NoError(t, svc.ChangePassword(result.User.ID, "oldpassword", "newpassword"))

	_, err = svc.Login("+212600000018", "oldpassword")
	require.Error(t, err)

	_, err = svc.Login("+212600000018", "newpassword")
	require.NoError(t, err)
}

func TestForgotPasswordUnknownEmailSucceeds(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	require.NoError(t, svc.ForgotPassword("nobody@example.com"))
}

func TestResetPasswordRevokesSessions(t *testing.T) {
	svc, db, _ := newTestAuthService(t)

	result, err := svc.Register("Salma", "salma@example.com", "+212600000019", "password1")
	require.NoError(t, err)
	firstRefresh := result.Tokens.RefreshToken

	second, err := svc.Login("+212600000019", "password1")
	require.NoError(t, err)
	secondRefresh := second.Tokens.RefreshToken

	require.NoError(t, svc.ForgotPassword("salma@example.com"))

	var user models.User
	require.NoError(t, db.Where("email = ?", "salma@example.com").First(&user).Error)
	require.NotNil(t, user.PasswordResetToken)
	require.NotNil(t, user.PasswordResetExpiresAt)

	require.NoError(t, svc.ResetPassword(*user.PasswordResetToken, "brandnewpass"))

	// Reset token is single use.
	err = svc.ResetPassword(*user.PasswordResetToken, "anotherpass1")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindAuth))

	// Every previously issued refresh token is dead.
	_, err = svc.Refresh(firstRefresh)
	require.Error(t, err)
	_, err = svc.Refresh(secondRefresh)
	require.Error(t, err)

	_, err = svc.Login("+212600000019", "brandnewpass")
	require.NoError(t, err)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	svc, db, _ := newTestAuthService(t)

	_, err := svc.Register("Ali", "ali@example.com", "+212600000020", "password1")
	require.NoError(t, err)
	require.NoError(t, svc.ForgotPassword("ali@example.com"))

	var user models.User
	require.NoError(t, db.Where("email = ?", "ali@example.com").First(&user).Error)
	require.NoError(t, db.Model(&user).
		Update("password_reset_expires_at", time.Now().Add(-time.Minute)).Error)

	err = svc.ResetPassword(*user.PasswordResetToken, "brandnewpass")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindAuth))
}

func TestSendOTPValidatesPhoneBeforeGateway(t *testing.T) {
	svc, _, gateway := newTestAuthService(t)

	_, err := svc.SendOTP("0600000002")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	gateway.AssertNotCalled(t, "SendVerification")

	gateway.On("SendVerification", "+212600000002").Return(VerifyStatusPending, nil)
	status, err := svc.SendOTP("+212600000002")
	require.NoError(t, err)
	assert.Equal(t, VerifyStatusPending, status)
	gateway.AssertExpectations(t)
}

func TestVerifyOTPCreatesNewUser(t *testing.T) {
	svc, db, gateway := newTestAuthService(t)

	gateway.On("CheckVerification", "+212600000002", "123456").Return(VerifyStatusApproved, nil)

	result, err := svc.VerifyOTP("+212600000002", "123456", "Sara", "sara@example.com")
	require.NoError(t, err)
	assert.True(t, result.User.Active)
	assert.Nil(t, result.User.PasswordHash)
	assert.NotEmpty(t, result.User.UID)
	assert.NotEmpty(t, result.Tokens.AccessToken)
	assert.NotEmpty(t, result.Tokens.RefreshToken)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("phone = ?", "+212600000002").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestVerifyOTPDeniedCreatesNothing(t *testing.T) {
	svc, db, gateway := newTestAuthService(t)

	gateway.On("CheckVerification", "+212600000002", "999999").Return(VerifyStatusDenied, nil)

	_, err := svc.VerifyOTP("+212600000002", "999999", "Sara", "sara@example.com")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindAuth))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestVerifyOTPRollsBackUserOnTokenFailure(t *testing.T) {
	svc, db, gateway := newTestAuthService(t)

	gateway.On("CheckVerification", "+212600000002", "123456").Return(VerifyStatusApproved, nil)

	// Sabotage token issuance so the transaction fails after the user insert.
	require.NoError(t, db.Migrator().DropTable(&models.RefreshToken{}))

	_, err := svc.VerifyOTP("+212600000002", "123456", "Sara", "sara@example.com")
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 0, count, "no user row may survive the rollback")
}

func TestVerifyOTPNewUserRequiresProfile(t *testing.T) {
	svc, _, gateway := newTestAuthService(t)

	gateway.On("CheckVerification", "+212600000003", "123456").Return(VerifyStatusApproved, nil)

	_, err := svc.VerifyOTP("+212600000003", "123456", "", "")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.VerifyOTP("+212600000003", "123456", "Sara", "not-an-email")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestVerifyOTPExistingUser(t *testing.T) {
	svc, _, gateway := newTestAuthService(t)

	registered, err := svc.Register("Karim", "karim@example.com", "+212600000004", "password1")
	require.NoError(t, err)

	gateway.On("CheckVerification", "+212600000004", "123456").Return(VerifyStatusApproved, nil)

	result, err := svc.VerifyOTP("+212600000004", "123456", "", "")
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, result.User.ID)
	assert.NotNil(t, result.User.LastLoginAt)
}

func TestLoginWithUID(t *testing.T) {
	svc, db, _ := newTestAuthService(t)

	registered, err := svc.Register("Rachid", "rachid@example.com", "+212600000005", "password1")
	require.NoError(t, err)

	_, err = svc.LoginWithUID("ext-uid-1", "+212600000090")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	result, err := svc.LoginWithUID("ext-uid-1", "+212600000005")
	require.NoError(t, err)
	assert.Equal(t, "ext-uid-1", result.User.UID)

	var user models.User
	require.NoError(t, db.First(&user, registered.User.ID).Error)
	assert.Equal(t, "ext-uid-1", user.UID)

	require.NoError(t, db.Model(&user).Update("active", false).Error)
	_, err = svc.LoginWithUID("ext-uid-1", "+212600000005")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindAccountLocked))
}
