// internal/navigation/navigation_test.go
package navigation

import (
	"testing"

	"stayease/internal/catalog"
	"stayease/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(t *testing.T) (*models.Listing, *models.BookingDraft) {
	c := catalog.Generate()
	l, err := c.Get("m2")
	require.NoError(t, err)
	d, err := catalog.NewDraft(l, "b-m2", 2, models.PathDirect)
	require.NoError(t, err)
	return l, d
}

// machineAt drives a fresh machine into view v through legal events.
func machineAt(t *testing.T, v models.View) *Machine {
	l, d := fixture(t)
	m := New()
	fire := func(e Event) {
		_, err := m.Fire(e)
		require.NoError(t, err)
	}

	switch v {
	case models.ViewCatalog:
	case models.ViewWishlist, models.ViewReferral:
		fire(Event{Kind: EventSwitchTab, Tab: v})
	case models.ViewAuth:
		fire(Event{Kind: EventOpenAuth})
	case models.ViewDetails:
		fire(Event{Kind: EventSelectListing, Listing: l})
	case models.ViewBooking:
		fire(Event{Kind: EventSelectListing, Listing: l})
		fire(Event{Kind: EventRequestBooking, Authenticated: true, Draft: d})
	case models.ViewSuccess:
		fire(Event{Kind: EventSelectListing, Listing: l})
		fire(Event{Kind: EventRequestBooking, Authenticated: true, Draft: d})
		fire(Event{Kind: EventComplete, Outcome: models.PathDirect})
	}
	require.Equal(t, v, m.View())
	return m
}

func TestFire_Table(t *testing.T) {
	l, d := fixture(t)

	tests := []struct {
		name     string
		from     models.View
		event    Event
		want     models.View
		redirect bool
		wantErr  bool
	}{
		{name: "select from catalog", from: models.ViewCatalog, event: Event{Kind: EventSelectListing, Listing: l}, want: models.ViewDetails},
		{name: "select from wishlist", from: models.ViewWishlist, event: Event{Kind: EventSelectListing, Listing: l}, want: models.ViewDetails},
		{name: "select from details rejected", from: models.ViewDetails, event: Event{Kind: EventSelectListing, Listing: l}, wantErr: true},
		{name: "booking unauthenticated", from: models.ViewDetails, event: Event{Kind: EventRequestBooking, Draft: d}, want: models.ViewAuth, redirect: true},
		{name: "booking authenticated", from: models.ViewDetails, event: Event{Kind: EventRequestBooking, Authenticated: true, Draft: d}, want: models.ViewBooking},
		{name: "authenticated booking from catalog rejected", from: models.ViewCatalog, event: Event{Kind: EventRequestBooking, Authenticated: true, Draft: d}, wantErr: true},
		{name: "unauthenticated booking from catalog", from: models.ViewCatalog, event: Event{Kind: EventRequestBooking}, want: models.ViewAuth, redirect: true},
		{name: "unauthenticated booking from wishlist", from: models.ViewWishlist, event: Event{Kind: EventRequestBooking}, want: models.ViewAuth, redirect: true},
		{name: "complete", from: models.ViewBooking, event: Event{Kind: EventComplete, Outcome: models.PathVisit}, want: models.ViewSuccess},
		{name: "complete outside booking", from: models.ViewDetails, event: Event{Kind: EventComplete, Outcome: models.PathVisit}, wantErr: true},
		{name: "done", from: models.ViewSuccess, event: Event{Kind: EventDone}, want: models.ViewCatalog},
		{name: "done outside success", from: models.ViewCatalog, event: Event{Kind: EventDone}, wantErr: true},
		{name: "open auth from booking", from: models.ViewBooking, event: Event{Kind: EventOpenAuth}, want: models.ViewAuth},
		{name: "auth succeeded", from: models.ViewAuth, event: Event{Kind: EventAuthSucceeded}, want: models.ViewCatalog},
		{name: "auth succeeded elsewhere", from: models.ViewDetails, event: Event{Kind: EventAuthSucceeded}, wantErr: true},
		{name: "back from details", from: models.ViewDetails, event: Event{Kind: EventBack}, want: models.ViewCatalog},
		{name: "back from booking", from: models.ViewBooking, event: Event{Kind: EventBack}, want: models.ViewDetails},
		{name: "back from auth", from: models.ViewAuth, event: Event{Kind: EventBack}, want: models.ViewCatalog},
		{name: "back from referral", from: models.ViewReferral, event: Event{Kind: EventBack}, want: models.ViewCatalog},
		{name: "back from catalog rejected", from: models.ViewCatalog, event: Event{Kind: EventBack}, wantErr: true},
		{name: "back from success rejected", from: models.ViewSuccess, event: Event{Kind: EventBack}, wantErr: true},
		{name: "tab switch", from: models.ViewWishlist, event: Event{Kind: EventSwitchTab, Tab: models.ViewReferral}, want: models.ViewReferral},
		{name: "tab to non-tab rejected", from: models.ViewCatalog, event: Event{Kind: EventSwitchTab, Tab: models.ViewBooking}, wantErr: true},
		{name: "tab from details rejected", from: models.ViewDetails, event: Event{Kind: EventSwitchTab, Tab: models.ViewCatalog}, wantErr: true},
		{name: "sign out from success", from: models.ViewSuccess, event: Event{Kind: EventSignOut}, want: models.ViewCatalog},
		{name: "wishlist denied", from: models.ViewDetails, event: Event{Kind: EventWishlistDenied}, want: models.ViewAuth, redirect: true},
		{name: "wishlist denied from referral", from: models.ViewReferral, event: Event{Kind: EventWishlistDenied}, want: models.ViewAuth, redirect: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := machineAt(t, tt.from)
			before := m.State()

			eff, err := m.Fire(tt.event)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTransition)
				assert.Equal(t, before, m.State())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.from, eff.From)
			assert.Equal(t, tt.want, eff.To)
			assert.Equal(t, tt.want, m.View())
			assert.Equal(t, tt.redirect, eff.RedirectedToAuth)
		})
	}
}

func TestFire_DraftOnlyWhileBooking(t *testing.T) {
	m := machineAt(t, models.ViewBooking)
	require.NotNil(t, m.State().Draft)

	eff, err := m.Fire(Event{Kind: EventBack})
	require.NoError(t, err)
	assert.True(t, eff.DraftDiscarded)
	assert.Nil(t, m.State().Draft)
	assert.NotNil(t, m.State().Selected, "selection survives leaving the wizard")
}

func TestFire_UnauthenticatedBookingKeepsSelection(t *testing.T) {
	m := machineAt(t, models.ViewDetails)
	selected := m.State().Selected

	_, err := m.Fire(Event{Kind: EventRequestBooking})
	require.NoError(t, err)
	assert.Equal(t, models.ViewAuth, m.View())
	assert.Same(t, selected, m.State().Selected)
	assert.Nil(t, m.State().Draft)
}

func TestFire_UnauthenticatedBookingFromCatalog(t *testing.T) {
	m := machineAt(t, models.ViewDetails)
	_, err := m.Fire(Event{Kind: EventBack})
	require.NoError(t, err)
	require.Equal(t, models.ViewCatalog, m.View())
	selected := m.State().Selected

	eff, err := m.Fire(Event{Kind: EventRequestBooking})
	require.NoError(t, err)
	assert.True(t, eff.RedirectedToAuth)
	assert.Equal(t, models.ViewCatalog, eff.From)
	assert.Equal(t, models.ViewAuth, m.View())
	assert.Same(t, selected, m.State().Selected)

	m = New()
	_, err = m.Fire(Event{Kind: EventRequestBooking})
	require.NoError(t, err)
	assert.Equal(t, models.ViewAuth, m.View())
	assert.Nil(t, m.State().Selected)
}

func TestFire_SuccessAndDone(t *testing.T) {
	m := machineAt(t, models.ViewSuccess)
	st := m.State()
	assert.Equal(t, models.PathDirect, st.Outcome)
	assert.Nil(t, st.Draft)

	_, err := m.Fire(Event{Kind: EventDone})
	require.NoError(t, err)
	assert.Equal(t, State{View: models.ViewCatalog}, m.State())
}
