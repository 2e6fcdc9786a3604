package storage

import (
	"context"
	"testing"
	"time"

	"shareit/pkg/database"
	"shareit/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	return db
}

type fixture struct {
	store  *Store
	owner  models.User
	booker models.User
	item   models.Item
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := New(setupTestDB(t))

	f := &fixture{
		store:  store,
		owner:  models.User{Name: "owner", Email: "owner@example.com"},
		booker: models.User{Name: "booker", Email: "booker@example.com"},
		now:    time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Users.Create(ctx, &f.owner))
	require.NoError(t, store.Users.Create(ctx, &f.booker))

	f.item = models.Item{Name: "Drill", Description: "Cordless drill", Available: true, OwnerID: f.owner.ID}
	require.NoError(t, store.Items.Create(ctx, &f.item))
	return f
}

func (f *fixture) book(t *testing.T, start, end time.Time, status models.BookingStatus) models.Booking {
	t.Helper()
	b := models.Booking{Start: start, End: end, ItemID: f.item.ID, BookerID: f.booker.ID, Status: status}
	require.NoError(t, f.store.Bookings.Create(context.Background(), &b))
	return b
}

func ids(bookings []models.Booking) []int64 {
	out := make([]int64, len(bookings))
	for i, b := range bookings {
		out[i] = b.ID
	}
	return out
}

func TestNewPage(t *testing.T) {
	assert.Equal(t, Page{Offset: 0, Limit: 10}, NewPage(0, 10))
	assert.Equal(t, Page{Offset: 10, Limit: 10}, NewPage(15, 10))
	assert.Equal(t, Page{Offset: 4, Limit: 2}, NewPage(4, 2))
	assert.Equal(t, Page{}, NewPage(3, 0))
}

func TestUserStore(t *testing.T) {
	ctx := context.Background()
	store := New(setupTestDB(t))

	user := models.User{Name: "Alice", Email: "alice@example.com"}
	require.NoError(t, store.Users.Create(ctx, &user))

	dup := models.User{Name: "Other", Email: "alice@example.com"}
	err := store.Users.Create(ctx, &dup)
	assert.ErrorIs(t, err, ErrDuplicate)

	exists, err := store.Users.ExistsByEmail(ctx, "ALICE@example.com", 0)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.Users.ExistsByEmail(ctx, "alice@example.com", user.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Users.Delete(ctx, user.ID))
	_, err = store.Users.FindByID(ctx, user.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Users.Delete(ctx, user.ID), ErrNotFound)
}

func TestBookingFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := f.now

	past := f.book(t, now.Add(-72*time.Hour), now.Add(-48*time.Hour), models.StatusApproved)
	current := f.book(t, now.Add(-time.Hour), now.Add(time.Hour), models.StatusApproved)
	future := f.book(t, now.Add(24*time.Hour), now.Add(48*time.Hour), models.StatusWaiting)
	rejected := f.book(t, now.Add(72*time.Hour), now.Add(96*time.Hour), models.StatusRejected)

	tests := []struct {
		state    models.BookingState
		expected []int64
	}{
		{models.StateAll, []int64{rejected.ID, future.ID, current.ID, past.ID}},
		{models.StateCurrent, []int64{current.ID}},
		{models.StatePast, []int64{past.ID}},
		{models.StateFuture, []int64{rejected.ID, future.ID}},
		{models.StateWaiting, []int64{future.ID}},
		{models.StateRejected, []int64{rejected.ID}},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			asBooker, err := f.store.Bookings.FindByBooker(ctx, f.booker.ID, tt.state, now, NewPage(0, 10))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ids(asBooker))

			asOwner, err := f.store.Bookings.FindByOwner(ctx, f.owner.ID, tt.state, now, NewPage(0, 10))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ids(asOwner))
		})
	}

	none, err := f.store.Bookings.FindByOwner(ctx, f.booker.ID, models.StateAll, now, NewPage(0, 10))
	require.NoError(t, err)
	assert.Empty(t, none)

	paged, err := f.store.Bookings.FindByBooker(ctx, f.booker.ID, models.StateAll, now, NewPage(2, 2))
	require.NoError(t, err)
	assert.Equal(t, []int64{current.ID, past.ID}, ids(paged))

	_, err = f.store.Bookings.FindByBooker(ctx, f.booker.ID, models.BookingState("BOGUS"), now, NewPage(0, 10))
	assert.Error(t, err)
}

func TestBookingPreloadsAssociations(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, f.now.Add(time.Hour), f.now.Add(2*time.Hour), models.StatusWaiting)

	got, err := f.store.Bookings.FindByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Drill", got.Item.Name)
	assert.Equal(t, f.owner.ID, got.Item.OwnerID)
	assert.Equal(t, "booker", got.Booker.Name)
	assert.Equal(t, models.StatusWaiting, got.Status)

	_, err = f.store.Bookings.FindByID(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatusIfWaiting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t, f.now.Add(time.Hour), f.now.Add(2*time.Hour), models.StatusWaiting)

	ok, err := f.store.Bookings.UpdateStatusIfWaiting(ctx, b.ID, models.StatusApproved)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.store.Bookings.UpdateStatusIfWaiting(ctx, b.ID, models.StatusRejected)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := f.store.Bookings.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)
}

func TestLastAndNextApproved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := f.now

	older := f.book(t, now.Add(-96*time.Hour), now.Add(-72*time.Hour), models.StatusApproved)
	recent := f.book(t, now.Add(-48*time.Hour), now.Add(-24*time.Hour), models.StatusApproved)
	f.book(t, now.Add(-10*time.Hour), now.Add(-9*time.Hour), models.StatusRejected)
	soon := f.book(t, now.Add(24*time.Hour), now.Add(48*time.Hour), models.StatusApproved)
	later := f.book(t, now.Add(96*time.Hour), now.Add(120*time.Hour), models.StatusApproved)
	f.book(t, now.Add(12*time.Hour), now.Add(13*time.Hour), models.StatusWaiting)

	last, err := f.store.Bookings.FindLastApproved(ctx, []int64{f.item.ID}, now)
	require.NoError(t, err)
	assert.Equal(t, []int64{recent.ID, older.ID}, ids(last))

	next, err := f.store.Bookings.FindNextApproved(ctx, []int64{f.item.ID}, now)
	require.NoError(t, err)
	assert.Equal(t, []int64{soon.ID, later.ID}, ids(next))

	empty, err := f.store.Bookings.FindLastApproved(ctx, nil, now)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestExistsCompleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := f.now

	f.book(t, now.Add(-48*time.Hour), now.Add(-24*time.Hour), models.StatusRejected)
	ok, err := f.store.Bookings.ExistsCompleted(ctx, f.booker.ID, f.item.ID, now)
	require.NoError(t, err)
	assert.False(t, ok)

	f.book(t, now.Add(-time.Hour), now.Add(time.Hour), models.StatusApproved)
	ok, err = f.store.Bookings.ExistsCompleted(ctx, f.booker.ID, f.item.ID, now)
	require.NoError(t, err)
	assert.False(t, ok)

	f.book(t, now.Add(-48*time.Hour), now.Add(-24*time.Hour), models.StatusApproved)
	ok, err = f.store.Bookings.ExistsCompleted(ctx, f.booker.ID, f.item.ID, now)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestItemSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	saw := models.Item{Name: "Saw", Description: "Hand saw for wood", Available: true, OwnerID: f.owner.ID}
	hidden := models.Item{Name: "Power drill", Description: "Broken", Available: false, OwnerID: f.owner.ID}
	require.NoError(t, f.store.Items.Create(ctx, &saw))
	require.NoError(t, f.store.Items.Create(ctx, &hidden))

	found, err := f.store.Items.Search(ctx, "DRILL", NewPage(0, 10))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, f.item.ID, found[0].ID)

	found, err = f.store.Items.Search(ctx, "wood", NewPage(0, 10))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, saw.ID, found[0].ID)
}

func TestItemSearchMatchesWildcardsLiterally(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	discount := models.Item{Name: "Tile cutter", Description: "50% off, snap_cut blade", Available: true, OwnerID: f.owner.ID}
	require.NoError(t, f.store.Items.Create(ctx, &discount))

	for _, text := range []string{"%", "_", `\`} {
		found, err := f.store.Items.Search(ctx, text+"x", NewPage(0, 10))
		require.NoError(t, err)
		assert.Empty(t, found, "text %q", text+"x")
	}

	found, err := f.store.Items.Search(ctx, "%", NewPage(0, 10))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, discount.ID, found[0].ID)

	found, err = f.store.Items.Search(ctx, "SNAP_CUT", NewPage(0, 10))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, discount.ID, found[0].ID)

	found, err = f.store.Items.Search(ctx, "d_ill", NewPage(0, 10))
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestDeleteKeepsReferencedRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t, f.now.Add(time.Hour), f.now.Add(2*time.Hour), models.StatusWaiting)

	assert.ErrorIs(t, f.store.Items.Delete(ctx, f.item.ID), ErrReferenced)
	assert.ErrorIs(t, f.store.Users.Delete(ctx, f.owner.ID), ErrReferenced)

	got, err := f.store.Bookings.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, f.item.ID, got.Item.ID)
	assert.Equal(t, "Drill", got.Item.Name)

	orphan := models.Booking{Start: f.now, End: f.now.Add(time.Hour), ItemID: 999, BookerID: f.booker.ID, Status: models.StatusWaiting}
	assert.Error(t, f.store.Bookings.Create(ctx, &orphan))
}

func TestItemAvailableFalseIsPersisted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.item.Available = false
	require.NoError(t, f.store.Items.Update(ctx, &f.item))

	got, err := f.store.Items.FindByID(ctx, f.item.ID)
	require.NoError(t, err)
	assert.False(t, got.Available)
	assert.Equal(t, "owner", got.Owner.Name)
}

func TestItemRequestOrdering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := f.now

	first := models.ItemRequest{Description: "need a ladder", RequesterID: f.booker.ID, Created: base}
	second := models.ItemRequest{Description: "need a tent", RequesterID: f.booker.ID, Created: base.Add(time.Hour)}
	foreign := models.ItemRequest{Description: "need a kayak", RequesterID: f.owner.ID, Created: base.Add(2 * time.Hour)}
	for _, r := range []*models.ItemRequest{&second, &first, &foreign} {
		require.NoError(t, f.store.Requests.Create(ctx, r))
	}

	own, err := f.store.Requests.FindByRequester(ctx, f.booker.ID)
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.Equal(t, first.ID, own[0].ID)
	assert.Equal(t, second.ID, own[1].ID)

	others, err := f.store.Requests.FindOthers(ctx, f.owner.ID, NewPage(0, 10))
	require.NoError(t, err)
	require.Len(t, others, 2)
	assert.Equal(t, second.ID, others[0].ID)
	assert.Equal(t, first.ID, others[1].ID)

	reqID := first.ID
	answer := models.Item{Name: "Ladder", Description: "3m", Available: true, OwnerID: f.owner.ID, RequestID: &reqID}
	require.NoError(t, f.store.Items.Create(ctx, &answer))

	items, err := f.store.Items.FindByRequestIDs(ctx, []int64{first.ID, second.ID})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, answer.ID, items[0].ID)
}
