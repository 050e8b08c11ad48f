package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"shiftboard/pkg/store/mysql"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB creates an in-memory SQLite database with every engine table migrated.
// The single connection keeps the shared in-memory database alive for the test.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := mysql.NewDatastoreFromDB(db).AutoMigrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// NewTestRepository returns the repository aggregate on a fresh test database
func NewTestRepository(t *testing.T) *mysql.Repository {
	t.Helper()
	return mysql.NewRepositoryFromDatastore(mysql.NewDatastoreFromDB(NewTestDB(t)))
}
