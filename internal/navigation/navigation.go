// internal/navigation/navigation.go
package navigation

import (
	"errors"
	"fmt"

	"stayease/internal/common/metrics"
	"stayease/internal/models"
)

var ErrInvalidTransition = errors.New("invalid transition")

type EventKind string

const (
	EventSelectListing  EventKind = "select_listing"
	EventRequestBooking EventKind = "request_booking"
	EventComplete       EventKind = "complete"
	EventDone           EventKind = "done"
	EventOpenAuth       EventKind = "open_auth"
	EventAuthSucceeded  EventKind = "auth_succeeded"
	EventBack           EventKind = "back"
	EventSwitchTab      EventKind = "switch_tab"
	EventSignOut        EventKind = "sign_out"
	EventWishlistDenied EventKind = "wishlist_denied"
)

// Event is an input to the machine. Only the fields its Kind needs are read.
type Event struct {
	Kind          EventKind
	Listing       *models.Listing
	Draft         *models.BookingDraft
	Authenticated bool
	Outcome       models.BookingPath
	Tab           models.View
}

// State is the navigation part of the view state. Draft is non-nil only
// while View is booking; Outcome is meaningful only while View is success.
type State struct {
	View     models.View
	Selected *models.Listing
	Draft    *models.BookingDraft
	Outcome  models.BookingPath
}

// Effect describes an applied transition.
type Effect struct {
	From models.View `json:"from"`
	To   models.View `json:"to"`
	// RedirectedToAuth is set when a guarded intent was dropped in favour
	// of the auth screen.
	RedirectedToAuth bool `json:"redirectedToAuth"`
	DraftDiscarded   bool `json:"draftDiscarded"`
}

// Machine is the view selector. It is not safe for concurrent use.
type Machine struct {
	state State
}

func New() *Machine {
	return &Machine{state: State{View: models.ViewCatalog}}
}

// State returns a copy of the current state.
func (m *Machine) State() State {
	return m.state
}

func (m *Machine) View() models.View {
	return m.state.View
}

func fromAny(v models.View, views ...models.View) bool {
	for _, candidate := range views {
		if v == candidate {
			return true
		}
	}
	return false
}

// Fire applies e. Unlisted (view, event) pairs return ErrInvalidTransition
// and leave the state unchanged.
func (m *Machine) Fire(e Event) (Effect, error) {
	cur := m.state
	next := cur
	eff := Effect{From: cur.View}

	switch e.Kind {
	case EventSelectListing:
		if !fromAny(cur.View, models.ViewCatalog, models.ViewWishlist, models.ViewReferral) || e.Listing == nil {
			return m.reject(e)
		}
		next.View = models.ViewDetails
		next.Selected = e.Listing

	case EventRequestBooking:
		// signed-out requests redirect from any view and keep the selection
		if !e.Authenticated {
			next.View = models.ViewAuth
			eff.RedirectedToAuth = true
			break
		}
		if cur.View != models.ViewDetails || e.Draft == nil {
			return m.reject(e)
		}
		next.View = models.ViewBooking
		next.Draft = e.Draft

	case EventComplete:
		if cur.View != models.ViewBooking || !e.Outcome.Valid() {
			return m.reject(e)
		}
		next.View = models.ViewSuccess
		next.Outcome = e.Outcome
		next.Draft = nil

	case EventDone:
		if cur.View != models.ViewSuccess {
			return m.reject(e)
		}
		next = State{View: models.ViewCatalog}

	case EventOpenAuth:
		next.View = models.ViewAuth

	case EventAuthSucceeded:
		if cur.View != models.ViewAuth {
			return m.reject(e)
		}
		next.View = models.ViewCatalog

	case EventBack:
		switch cur.View {
		case models.ViewDetails, models.ViewAuth, models.ViewWishlist, models.ViewReferral:
			next.View = models.ViewCatalog
		case models.ViewBooking:
			next.View = models.ViewDetails
		default:
			return m.reject(e)
		}

	case EventSwitchTab:
		if !cur.View.IsTab() || !e.Tab.IsTab() {
			return m.reject(e)
		}
		next.View = e.Tab

	case EventSignOut:
		next.View = models.ViewCatalog

	case EventWishlistDenied:
		next.View = models.ViewAuth
		eff.RedirectedToAuth = true

	default:
		return m.reject(e)
	}

	if next.View != models.ViewBooking && next.Draft != nil {
		next.Draft = nil
		eff.DraftDiscarded = true
	}
	if next.View != models.ViewSuccess {
		next.Outcome = ""
	}

	m.state = next
	eff.To = next.View
	if eff.From != eff.To {
		metrics.ViewTransitions.WithLabelValues(string(eff.From), string(eff.To)).Inc()
	}
	return eff, nil
}

func (m *Machine) reject(e Event) (Effect, error) {
	return Effect{From: m.state.View, To: m.state.View},
		fmt.Errorf("%w: %s from %s", ErrInvalidTransition, e.Kind, m.state.View)
}
