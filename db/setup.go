package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/outsourceats/hirex/internal/models"
)

var DB *gorm.DB

// ConnectDatabase opens the shared connection. The driver is picked
// from the DSN scheme so deployments can run Postgres or MySQL.
func ConnectDatabase(dsn string) error {
	var dialector gorm.Dialector

	switch {
	case strings.HasPrefix(dsn, "mysql://"):
		dialector = mysql.Open(strings.TrimPrefix(dsn, "mysql://"))
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		dialector = postgres.Open(dsn)
	default:
		return fmt.Errorf("unsupported database URL scheme in %q", dsn)
	}

	var err error
	DB, err = gorm.Open(dialector, &gorm.Config{})
	return err
}

func MigrateDatabase() error {
	tables := []interface{}{
		&models.User{},
		&models.Client{},
		&models.ClientContact{},
		&models.Pitch{},
		&models.JobDescription{},
		&models.Candidate{},
		&models.Application{},
		&models.ApplicationStatusHistory{},
		&models.Interview{},
		&models.Offer{},
		&models.Joining{},
	}

	// AutoMigrate is idempotent and also adds columns missing from
	// existing tables, so it runs unconditionally.
	for _, table := range tables {
		if err := DB.AutoMigrate(table); err != nil {
			return err
		}
	}

	return nil
}
