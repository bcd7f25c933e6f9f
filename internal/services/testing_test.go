package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/example/atlasmarket/internal/config"
	"github.com/example/atlasmarket/internal/database"
)

// setupTestDB opens a fresh in-memory database migrated to the full schema.
// The shared-cache name keeps all pooled connections on the same database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	return db
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 30 * 24 * time.Hour,
	}
}

type mockVerifyGateway struct {
	mock.Mock
}

func (m *mockVerifyGateway) SendVerification(phone string) (string, error) {
	args := m.Called(phone)
	return args.String(0), args.Error(1)
}

func (m *mockVerifyGateway) CheckVerification(phone, code string) (string, error) {
	args := m.Called(phone, code)
	return args.String(0), args.Error(1)
}

func newTestAuthService(t *testing.T) (*AuthService, *gorm.DB, *mockVerifyGateway) {
	t.Helper()

	db := setupTestDB(t)
	cfg := testConfig()
	gateway := &mockVerifyGateway{}
	tokens := NewTokenService(cfg)
	return NewAuthService(db, cfg, tokens, gateway), db, gateway
}
