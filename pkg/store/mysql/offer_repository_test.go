package mysql

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfferRepository_CreateAndGet(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Offer.Create(ctx, newOfferRow("o1", "poster-1", "2026-03-10")))

	got, err := repo.Offer.Get(ctx, "o1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "poster-1", got.PosterID)
	assert.Equal(t, "150", got.PaymentAmount.String())
	assert.False(t, got.IsAccepted)
	assert.Nil(t, got.AcceptedBy)

	missing, err := repo.Offer.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestOfferRepository_MarkAcceptedIsCompareAndSet(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Offer.Create(ctx, newOfferRow("o1", "poster-1", "2026-03-10")))

	ok, err := repo.Offer.MarkAccepted(ctx, "o1", "w1", now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Offer.MarkAccepted(ctx, "o1", "w2", now)
	require.NoError(t, err)
	assert.False(t, ok, "second acceptance must lose")

	got, err := repo.Offer.Get(ctx, "o1")
	require.NoError(t, err)
	assert.True(t, got.IsAccepted)
	require.NotNil(t, got.AcceptedBy)
	assert.Equal(t, "w1", *got.AcceptedBy)
}

func TestOfferRepository_ConcurrentMarkAcceptedSingleWinner(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	require.NoError(t, repo.Offer.Create(ctx, newOfferRow("o1", "poster-1", "2026-03-10")))

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := repo.Offer.MarkAccepted(ctx, "o1", "w"+string(rune('a'+i)), time.Now())
			if err == nil && ok {
				atomic.AddInt32(&wins, 1)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}

func TestOfferRepository_RevertAcceptanceOnlyByHolder(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Offer.Create(ctx, newOfferRow("o1", "poster-1", "2026-03-10")))
	_, err := repo.Offer.MarkAccepted(ctx, "o1", "w1", now)
	require.NoError(t, err)

	ok, err := repo.Offer.RevertAcceptance(ctx, "o1", "w2", now)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Offer.RevertAcceptance(ctx, "o1", "w1", now)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.Offer.Get(ctx, "o1")
	require.NoError(t, err)
	assert.False(t, got.IsAccepted)
	assert.Nil(t, got.AcceptedBy)

	ok, err = repo.Offer.MarkAccepted(ctx, "o1", "w2", now)
	require.NoError(t, err)
	assert.True(t, ok, "reverted offer can be accepted again")
}

func TestOfferRepository_ArchivedOffersAreClosed(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 11, 0, 5, 0, 0, time.UTC)
	require.NoError(t, repo.Offer.Create(ctx, newOfferRow("o1", "poster-1", "2026-03-10")))

	ok, err := repo.Offer.Archive(ctx, "o1", now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Offer.Archive(ctx, "o1", now)
	require.NoError(t, err)
	assert.False(t, ok, "archiving twice is a no-op")

	ok, err = repo.Offer.MarkAccepted(ctx, "o1", "w1", now)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Offer.UpdateIfOpen(ctx, "o1", map[string]interface{}{"description": "late edit"})
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := repo.Offer.List(ctx, OfferQuery{})
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = repo.Offer.List(ctx, OfferQuery{IncludeArchived: true})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestOfferRepository_ListFiltersAndOrder(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	late := newOfferRow("o-late", "poster-1", "2026-03-10")
	late.TimeStart, late.TimeEnd = "14:00", "18:00"
	require.NoError(t, repo.Offer.Create(ctx, late))
	require.NoError(t, repo.Offer.Create(ctx, newOfferRow("o-early", "poster-1", "2026-03-10")))
	require.NoError(t, repo.Offer.Create(ctx, newOfferRow("o-other", "poster-2", "2026-03-12")))
	require.NoError(t, repo.Offer.Create(ctx, newOfferRow("o-past", "poster-2", "2026-03-01")))

	_, err := repo.Offer.MarkAccepted(ctx, "o-other", "w1", time.Now())
	require.NoError(t, err)

	list, err := repo.Offer.List(ctx, OfferQuery{FromDate: "2026-03-05"})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "o-early", list[0].OfferID)
	assert.Equal(t, "o-late", list[1].OfferID)
	assert.Equal(t, "o-other", list[2].OfferID)

	list, err = repo.Offer.List(ctx, OfferQuery{FromDate: "2026-03-05", OnlyOpen: true})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = repo.Offer.List(ctx, OfferQuery{PosterID: "poster-1", Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "o-late", list[0].OfferID)

	expirable, err := repo.Offer.ListUnarchivedUpTo(ctx, "2026-03-10", 0)
	require.NoError(t, err)
	assert.Len(t, expirable, 3)

	byID, err := repo.Offer.GetByIDs(ctx, []string{"o-early", "o-past", "missing"})
	require.NoError(t, err)
	assert.Len(t, byID, 2)
	assert.Contains(t, byID, "o-past")
}

func TestDatastore_ExecTxRollsBack(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	ds := repo.GetDatastore()

	err := ds.ExecTx(ctx, func(txCtx context.Context) error {
		if err := repo.Offer.Create(txCtx, newOfferRow("o1", "poster-1", "2026-03-10")); err != nil {
			return err
		}
		// nested call joins the outer transaction
		return ds.ExecTx(txCtx, func(inner context.Context) error {
			if err := repo.Offer.Create(inner, newOfferRow("o2", "poster-1", "2026-03-10")); err != nil {
				return err
			}
			return assert.AnError
		})
	})
	require.ErrorIs(t, err, assert.AnError)

	for _, id := range []string{"o1", "o2"} {
		got, err := repo.Offer.Get(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, got, id)
	}
}
