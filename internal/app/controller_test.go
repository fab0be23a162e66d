// internal/app/controller_test.go
package app

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"stayease/internal/booking"
	"stayease/internal/catalog"
	"stayease/internal/common/config"
	"stayease/internal/common/logger"
	"stayease/internal/filter"
	"stayease/internal/kvstore"
	"stayease/internal/models"
	"stayease/internal/navigation"
	"stayease/internal/referral"
	"stayease/internal/session"
	"stayease/internal/wishlist"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func testConfig() *config.Config {
	return &config.Config{
		Booking:  config.BookingConfig{TokenAmount: 2000},
		Referral: config.ReferralConfig{Code: "STAYEASE500", Reward: 500},
	}
}

func newController(t *testing.T, store kvstore.Store, deps ...func(*Deps)) *Controller {
	t.Helper()
	if store == nil {
		store = kvstore.NewMemoryStore()
	}
	d := Deps{Catalog: catalog.Generate(), Store: store}
	for _, fn := range deps {
		fn(&d)
	}
	c, err := New(context.Background(), testConfig(), d, logger.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Shutdown(context.Background()) })
	return c
}

func signedInStore(t *testing.T) kvstore.Store {
	store := kvstore.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), kvstore.KeyAuth, "true"))
	return store
}

func strPtr(s string) *string { return &s }

func ids(listings []models.Listing) []string {
	out := make([]string, len(listings))
	for i, l := range listings {
		out[i] = l.ID
	}
	return out
}

func fillContact(t *testing.T, c *Controller) {
	_, err := c.UpdateBookingForm(booking.FormUpdate{
		Name:        strPtr("Asha Rao"),
		Phone:       strPtr("9876543210"),
		MoveInDate:  strPtr("2026-11-01"),
		Subdivision: strPtr("HSR 1st Phase"),
	})
	require.NoError(t, err)
}

type failingSearcher struct{ calls int }

func (f *failingSearcher) Search(context.Context, filter.Criteria) ([]string, error) {
	f.calls++
	return nil, stderrors.New("connection refused")
}

type staticSearcher struct{ ids []string }

func (s staticSearcher) Search(context.Context, filter.Criteria) ([]string, error) {
	return s.ids, nil
}

// ==========================
// Scenarios
// ==========================

func TestScenarioA_SharingFilter(t *testing.T) {
	l := models.Listing{
		ID: "solo", Name: "Solo PG", Location: "BTM Layout 2nd Stage", Category: models.CategoryMen,
		Buildings: []models.Building{{ID: "b1", Name: "Block A", Rooms: []models.RoomOffer{
			{Sharing: 2, Rent: 9000, Availability: models.AvailabilityOpen},
			{Sharing: 3, Rent: 8000, Availability: models.AvailabilityLimited},
			{Sharing: 4, Rent: 7000, Availability: models.AvailabilityOpen},
			{Sharing: 5, Rent: 6000, Availability: models.AvailabilityExhausted},
			{Sharing: 6, Rent: 5000, Availability: models.AvailabilityOpen},
		}}},
	}
	cat, err := catalog.New([]models.Listing{l})
	require.NoError(t, err)

	c := newController(t, nil, func(d *Deps) { d.Catalog = cat })
	require.NoError(t, c.SetFilters(filter.Criteria{Gender: filter.GenderAll, Sharing: 3}))
	assert.Equal(t, []string{"solo"}, ids(c.Listings(context.Background(), nil)))
}

func TestScenarioB_UnauthenticatedWishlist(t *testing.T) {
	c := newController(t, nil)

	tk, outcome, err := c.ToggleWishlist("m1")
	require.NoError(t, err)
	assert.Nil(t, tk)
	assert.Equal(t, wishlist.OutcomeRedirectToAuth, outcome)

	snap := c.Snapshot()
	assert.Equal(t, models.ViewAuth, snap.View)
	assert.Empty(t, snap.Wishlist)
}

func TestScenarioC_VisitBooking(t *testing.T) {
	c := newController(t, signedInStore(t))

	require.NoError(t, c.SelectListing("m3"))
	_, err := c.RequestBooking(BookingRequest{BuildingID: "b-m3", Sharing: 2, Path: models.PathVisit})
	require.NoError(t, err)
	assert.Equal(t, models.ViewBooking, c.Snapshot().View)

	fillContact(t, c)
	tk, err := c.AdvanceBooking()
	require.NoError(t, err)
	assert.Nil(t, tk)

	_, err = c.UpdateBookingForm(booking.FormUpdate{VisitDay: strPtr("Tomorrow"), TimeWindow: strPtr("Evening (4-6)")})
	require.NoError(t, err)

	tk, err = c.AdvanceBooking()
	require.NoError(t, err)
	require.NotNil(t, tk)

	done, err := tk.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.PathVisit, done.Path)

	snap := c.Snapshot()
	assert.Equal(t, models.ViewSuccess, snap.View)
	assert.Equal(t, models.PathVisit, snap.Outcome)
	assert.Nil(t, snap.Draft)
	assert.Nil(t, snap.Booking)

	_, err = c.Done()
	require.NoError(t, err)
	snap = c.Snapshot()
	assert.Equal(t, models.ViewCatalog, snap.View)
	assert.Empty(t, snap.SelectedListingID)
}

func TestScenarioD_CaseInsensitiveSearch(t *testing.T) {
	c := newController(t, nil)
	crit := filter.Criteria{Gender: filter.GenderAll, Search: "hsr"}

	got := c.Listings(context.Background(), &crit)
	require.NotEmpty(t, got)
	assert.Contains(t, ids(got), "m2", "m2 is at HSR Layout Sector 2")
}

// ==========================
// Intent Tests
// ==========================

func TestRequestBooking_UnauthenticatedKeepsSelection(t *testing.T) {
	c := newController(t, nil)
	require.NoError(t, c.SelectListing("l2"))

	eff, err := c.RequestBooking(BookingRequest{BuildingID: "b-l2", Sharing: 1, Path: models.PathDirect})
	require.NoError(t, err)
	assert.True(t, eff.RedirectedToAuth)

	snap := c.Snapshot()
	assert.Equal(t, models.ViewAuth, snap.View)
	assert.Equal(t, "l2", snap.SelectedListingID)
	assert.Nil(t, snap.Draft)
}

func TestRequestBooking_UnauthenticatedFromCatalog(t *testing.T) {
	c := newController(t, nil)

	eff, err := c.RequestBooking(BookingRequest{BuildingID: "b-m1", Sharing: 2, Path: models.PathDirect})
	require.NoError(t, err)
	assert.True(t, eff.RedirectedToAuth)
	assert.Equal(t, models.ViewCatalog, eff.From)
	assert.Equal(t, models.ViewAuth, c.Snapshot().View)

	_, err = c.Back()
	require.NoError(t, err)
	require.NoError(t, c.SelectListing("l2"))
	_, err = c.Back()
	require.NoError(t, err)
	require.Equal(t, models.ViewCatalog, c.Snapshot().View)

	eff, err = c.QuickBook()
	require.NoError(t, err)
	assert.True(t, eff.RedirectedToAuth)

	snap := c.Snapshot()
	assert.Equal(t, models.ViewAuth, snap.View)
	assert.Equal(t, "l2", snap.SelectedListingID)
	assert.Nil(t, snap.Draft)
}

func TestRequestBooking_Validation(t *testing.T) {
	c := newController(t, signedInStore(t))

	_, err := c.RequestBooking(BookingRequest{BuildingID: "b-m1", Sharing: 2, Path: models.PathDirect})
	assert.ErrorIs(t, err, navigation.ErrInvalidTransition, "nothing selected yet")

	require.NoError(t, c.SelectListing("m4"))

	_, err = c.RequestBooking(BookingRequest{ListingID: "m5", BuildingID: "b-m4", Sharing: 2, Path: models.PathDirect})
	assert.ErrorIs(t, err, ErrListingMismatch)

	_, err = c.RequestBooking(BookingRequest{BuildingID: "b-m1", Sharing: 2, Path: models.PathDirect})
	assert.ErrorIs(t, err, catalog.ErrBuildingNotFound)

	_, err = c.RequestBooking(BookingRequest{BuildingID: "b-m4", Sharing: 5, Path: models.PathDirect})
	assert.ErrorIs(t, err, catalog.ErrOfferExhausted)
	assert.Equal(t, models.ViewDetails, c.Snapshot().View)

	_, err = c.RequestBooking(BookingRequest{BuildingID: "b-m4", Sharing: 5, Path: models.PathVisit})
	require.NoError(t, err)
	assert.Equal(t, models.ViewBooking, c.Snapshot().View)
}

func TestQuickBook(t *testing.T) {
	c := newController(t, signedInStore(t))
	require.NoError(t, c.SelectListing("c1"))

	_, err := c.QuickBook()
	require.NoError(t, err)

	snap := c.Snapshot()
	require.NotNil(t, snap.Draft)
	assert.Equal(t, 1, snap.Draft.Sharing)
	assert.Equal(t, models.PathDirect, snap.Draft.Path)
}

func TestBack_FromBookingDiscardsDraft(t *testing.T) {
	c := newController(t, signedInStore(t))
	require.NoError(t, c.SelectListing("m3"))
	_, err := c.RequestBooking(BookingRequest{BuildingID: "b-m3", Sharing: 2, Path: models.PathDirect})
	require.NoError(t, err)
	fillContact(t, c)
	_, err = c.AdvanceBooking()
	require.NoError(t, err)

	_, err = c.Back()
	require.NoError(t, err)
	snap := c.Snapshot()
	assert.Equal(t, models.ViewDetails, snap.View)
	assert.Nil(t, snap.Booking)

	_, err = c.BookingView()
	assert.ErrorIs(t, err, ErrWizardNotActive)
}

func TestBack_RejectedWhileSubmitting(t *testing.T) {
	store := signedInStore(t)
	cfg := testConfig()
	cfg.Delays.Booking = 50
	c, err := New(context.Background(), cfg, Deps{Catalog: catalog.Generate(), Store: store}, logger.NewTestLogger(t))
	require.NoError(t, err)
	defer c.Shutdown(context.Background())

	require.NoError(t, c.SelectListing("m3"))
	_, err = c.RequestBooking(BookingRequest{BuildingID: "b-m3", Sharing: 2, Path: models.PathDirect})
	require.NoError(t, err)
	fillContact(t, c)
	_, err = c.AdvanceBooking()
	require.NoError(t, err)

	tk, err := c.AdvanceBooking()
	require.NoError(t, err)
	assert.True(t, c.Snapshot().Booking.Submitting)

	_, err = c.Back()
	assert.ErrorIs(t, err, booking.ErrSubmissionInProgress)
	_, err = c.SignOut(context.Background())
	assert.ErrorIs(t, err, booking.ErrSubmissionInProgress)

	done, err := tk.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.PathDirect, done.Path)
	assert.Equal(t, 2000, done.Record.TokenAmount)
	assert.Equal(t, models.ViewSuccess, c.Snapshot().View)
}

func TestBack_CannotOvertakeCompletion(t *testing.T) {
	cfg := testConfig()
	cfg.Delays.Booking = 1
	c, err := New(context.Background(), cfg, Deps{Catalog: catalog.Generate(), Store: signedInStore(t)}, logger.NewTestLogger(t))
	require.NoError(t, err)
	defer c.Shutdown(context.Background())

	for i := 0; i < 30; i++ {
		require.NoError(t, c.SelectListing("m3"))
		_, err = c.RequestBooking(BookingRequest{BuildingID: "b-m3", Sharing: 2, Path: models.PathDirect})
		require.NoError(t, err)
		fillContact(t, c)
		_, err = c.AdvanceBooking()
		require.NoError(t, err)

		tk, err := c.AdvanceBooking()
		require.NoError(t, err)
		require.NotNil(t, tk)

	race:
		for {
			select {
			case <-tk.Done():
				break race
			default:
				_, _ = c.Back()
			}
		}

		_, err = tk.Wait(context.Background())
		require.NoError(t, err)
		require.Equal(t, models.ViewSuccess, c.Snapshot().View, "iteration %d", i)

		_, err = c.Done()
		require.NoError(t, err)
	}
}

func TestSignInAndOut(t *testing.T) {
	store := kvstore.NewMemoryStore()
	c := newController(t, store)

	_, err := c.SignIn()
	assert.ErrorIs(t, err, navigation.ErrInvalidTransition)

	_, err = c.OpenAuth(session.ModeSignup)
	require.NoError(t, err)
	assert.Equal(t, session.ModeSignup, c.Snapshot().AuthMode)

	tk, err := c.SignIn()
	require.NoError(t, err)
	ok, err := tk.Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	snap := c.Snapshot()
	assert.True(t, snap.Authenticated)
	assert.Equal(t, models.ViewCatalog, snap.View)

	_, err = c.SwitchTab(models.ViewReferral)
	require.NoError(t, err)
	eff, err := c.SignOut(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ViewCatalog, eff.To)
	assert.False(t, c.Snapshot().Authenticated)

	raw, _, _ := store.Get(context.Background(), kvstore.KeyAuth)
	assert.Equal(t, "false", raw)
}

func TestToggleWishlist_UnauthenticatedFromReferral(t *testing.T) {
	c := newController(t, nil)
	_, err := c.SwitchTab(models.ViewReferral)
	require.NoError(t, err)

	tk, outcome, err := c.ToggleWishlist("m1")
	require.NoError(t, err)
	assert.Nil(t, tk)
	assert.Equal(t, wishlist.OutcomeRedirectToAuth, outcome)
	assert.Equal(t, models.ViewAuth, c.Snapshot().View)
}

func TestToggleWishlist_Authenticated(t *testing.T) {
	c := newController(t, signedInStore(t))

	tk, outcome, err := c.ToggleWishlist("c5")
	require.NoError(t, err)
	assert.Equal(t, wishlist.OutcomeProcessing, outcome)
	res, err := tk.Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Saved)

	assert.Equal(t, []string{"c5"}, ids(c.SavedListings()))
	assert.True(t, c.Summaries(c.SavedListings())[0].Saved)

	_, _, err = c.ToggleWishlist("zz")
	assert.ErrorIs(t, err, catalog.ErrListingNotFound)
}

func TestListings_SearchBackend(t *testing.T) {
	t.Run("uses backend ids", func(t *testing.T) {
		c := newController(t, nil, func(d *Deps) { d.Searcher = staticSearcher{ids: []string{"c1", "m1"}} })
		assert.Equal(t, []string{"m1", "c1"}, ids(c.Listings(context.Background(), nil)))
	})

	t.Run("falls back on failure", func(t *testing.T) {
		s := &failingSearcher{}
		c := newController(t, nil, func(d *Deps) { d.Searcher = s })
		assert.Len(t, c.Listings(context.Background(), nil), 33)
		assert.Equal(t, 1, s.calls)
	})
}

func TestFilters(t *testing.T) {
	c := newController(t, nil)

	assert.ErrorIs(t, c.SetFilters(filter.Criteria{Gender: "Family"}), filter.ErrInvalidCriteria)
	require.NoError(t, c.SetFilters(filter.Criteria{Gender: "Ladies", Sharing: 1}))
	assert.Len(t, c.Listings(context.Background(), nil), 11)

	c.ResetFilters()
	assert.True(t, c.Filters().IsDefault())
	assert.Len(t, c.Listings(context.Background(), nil), 33)
}

func TestCatalogLoadingAndReferral(t *testing.T) {
	cfg := testConfig()
	cfg.Delays.InitialLoad = 30
	clip := &referral.MemoryClipboard{}
	c, err := New(context.Background(), cfg, Deps{Catalog: catalog.Generate(), Store: kvstore.NewMemoryStore(), Clipboard: clip}, logger.NewTestLogger(t))
	require.NoError(t, err)
	defer c.Shutdown(context.Background())

	assert.True(t, c.Snapshot().CatalogLoading)
	assert.Len(t, c.Listings(context.Background(), nil), 33, "listings are served while loading")
	assert.Eventually(t, func() bool { return !c.Snapshot().CatalogLoading }, time.Second, 5*time.Millisecond)

	require.NoError(t, c.CopyReferral(context.Background()))
	assert.Equal(t, "STAYEASE500", clip.Last())
	assert.True(t, c.Referral().Copied)
}
