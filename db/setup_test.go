package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/outsourceats/hirex/internal/models"
)

// legacyUser mimics a users table created by an older release, before
// later columns were added to the model.
type legacyUser struct {
	gorm.Model
	Email string
}

func (legacyUser) TableName() string { return "users" }

func TestConnectDatabaseRejectsUnknownScheme(t *testing.T) {
	err := ConnectDatabase("redis://localhost:6379")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database URL scheme")
}

func TestMigrateDatabaseAddsColumnsToExistingTables(t *testing.T) {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	DB = gdb

	require.NoError(t, DB.Migrator().CreateTable(&legacyUser{}))
	require.False(t, DB.Migrator().HasColumn(&models.User{}, "full_name"))

	// Upgrading an existing deployment must extend tables in place, not
	// just create missing ones.
	require.NoError(t, MigrateDatabase())

	assert.True(t, DB.Migrator().HasColumn(&models.User{}, "full_name"))
	assert.True(t, DB.Migrator().HasTable(&models.Application{}))
	assert.True(t, DB.Migrator().HasTable(&models.Offer{}))
}
