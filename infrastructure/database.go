package infrastructure

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"job-board/domain"
)

// Models lists every table the application owns, in migration order.
var Models = []interface{}{
	&domain.User{},
	&domain.PasswordReset{},
	&domain.JobListing{},
	&domain.Favorite{},
	&domain.BlogPost{},
	&domain.Comment{},
	&domain.CV{},
	&domain.Payment{},
	&domain.ChatMessage{},
}

// OpenDatabase connects with the configured driver. An in-memory sqlite DSN
// is pinned to a single connection so every query sees the same database.
func OpenDatabase(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "mysql":
		dialector = mysql.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		if dsn == "" {
			dsn = ":memory:"
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql handle: %w", err)
	}
	if driver == "sqlite" && dsn == ":memory:" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return db, nil
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// likeEscaper neutralizes LIKE wildcards in user input. '!' is used as the
// escape character because backslash means different things in MySQL and
// PostgreSQL string literals.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// containsPattern builds a LIKE pattern that matches s literally anywhere.
// The query must add ESCAPE '!'.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
