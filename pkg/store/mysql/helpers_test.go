package mysql

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestRepository opens a private in-memory SQLite database per test
func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	ds := NewDatastoreFromDB(db)
	require.NoError(t, ds.AutoMigrate(context.Background()))
	return NewRepositoryFromDatastore(ds)
}

func newOfferRow(id, poster, date string) *Offer {
	return &Offer{
		OfferID:       id,
		PosterID:      poster,
		Type:          "poster",
		Address:       "Rua Augusta 100",
		Date:          date,
		TimeStart:     "09:00",
		TimeEnd:       "17:00",
		PaymentAmount: decimal.RequireFromString("150.00"),
	}
}

func newAssignmentRow(id, worker, offer string, at time.Time) *Assignment {
	return &Assignment{
		AssignmentID:   id,
		WorkerID:       worker,
		OfferID:        offer,
		Status:         StatusPending,
		AcceptedAt:     at.UTC(),
		PenaltySettled: true,
	}
}
