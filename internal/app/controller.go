// internal/app/controller.go
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"stayease/internal/booking"
	"stayease/internal/catalog"
	"stayease/internal/common/config"
	"stayease/internal/common/logger"
	"stayease/internal/common/metrics"
	"stayease/internal/common/observability"
	"stayease/internal/filter"
	"stayease/internal/kvstore"
	"stayease/internal/models"
	"stayease/internal/navigation"
	"stayease/internal/referral"
	"stayease/internal/session"
	"stayease/internal/task"
	"stayease/internal/wishlist"
)

var (
	ErrWizardNotActive = errors.New("booking wizard is not active")
	ErrListingMismatch = errors.New("listing is not the selected listing")
	ErrNoBookableOffer = errors.New("listing has no rooms")
)

// Searcher queries an external listing index and returns ids in catalog order.
type Searcher interface {
	Search(ctx context.Context, c filter.Criteria) ([]string, error)
}

// Deps are the collaborators of a Controller. Searcher and Observability
// are optional.
type Deps struct {
	Catalog       *catalog.Catalog
	Store         kvstore.Store
	Submitter     booking.Submitter
	Clipboard     referral.Clipboard
	Searcher      Searcher
	Observability *observability.Observability
}

// BookingRequest selects the offer to book.
type BookingRequest struct {
	ListingID  string             `json:"listingId"`
	BuildingID string             `json:"buildingId"`
	Sharing    int                `json:"sharing"`
	Path       models.BookingPath `json:"path"`
}

// Controller owns all application state. Intents are serialized on one
// mutex; simulated remote work runs as tasks that re-enter the controller
// when they finish.
type Controller struct {
	cfg       *config.Config
	catalog   *catalog.Catalog
	submitter booking.Submitter
	searcher  Searcher
	obs       *observability.Observability
	log       logger.Logger
	tasks     *task.Group

	session  *session.Session
	wishlist *wishlist.Wishlist
	referral *referral.Program

	mu      sync.Mutex
	nav     *navigation.Machine
	filters filter.Criteria
	wizard  *booking.Wizard
	loading bool
}

// New loads the persisted values and starts the simulated initial load.
func New(ctx context.Context, cfg *config.Config, deps Deps, log logger.Logger) (*Controller, error) {
	if deps.Catalog == nil || deps.Store == nil {
		return nil, errors.New("catalog and store are required")
	}
	log = log.WithFields(map[string]interface{}{"component": "controller"})

	submitter := deps.Submitter
	if submitter == nil {
		submitter = booking.NewSimulatedSubmitter(log)
	}
	clipboard := deps.Clipboard
	if clipboard == nil {
		clipboard = &referral.MemoryClipboard{}
	}

	c := &Controller{
		cfg:       cfg,
		catalog:   deps.Catalog,
		submitter: submitter,
		searcher:  deps.Searcher,
		obs:       deps.Observability,
		log:       log,
		tasks:     task.NewGroup(context.Background()),
		session:   session.New(deps.Store, config.GetDuration(cfg.Delays.Auth), log),
		wishlist:  wishlist.New(deps.Store, config.GetDuration(cfg.Delays.Wishlist), log),
		referral: referral.New(cfg.Referral.Code, cfg.Referral.Reward, clipboard,
			config.GetDuration(cfg.Delays.CopyReset), log),
		nav:     navigation.New(),
		filters: filter.Default(),
		loading: true,
	}

	if err := c.session.Load(ctx); err != nil {
		return nil, err
	}
	if err := c.wishlist.Load(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	task.Go(c.tasks, config.GetDuration(cfg.Delays.InitialLoad), func(ctx context.Context) (struct{}, error) {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
		c.recordTask(ctx, "initial_load", nil, start)
		return struct{}{}, nil
	})

	log.Info("controller ready", map[string]interface{}{
		"listings":      c.catalog.Len(),
		"authenticated": c.session.Authenticated(),
		"wishlist":      len(c.wishlist.IDs()),
	})
	return c, nil
}

// Shutdown cancels pending tasks.
func (c *Controller) Shutdown(ctx context.Context) error {
	return c.tasks.Shutdown(ctx)
}

func (c *Controller) Catalog() *catalog.Catalog {
	return c.catalog
}

func (c *Controller) observe(intent string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.IntentsTotal.WithLabelValues(intent, result).Inc()
}

func (c *Controller) recordTask(ctx context.Context, kind string, err error, start time.Time) {
	if c.obs == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.obs.RecordTask(ctx, kind, status, time.Since(start))
}

// fire applies a navigation event. Leaving the booking view drops the
// wizard; nothing but completion may move the view while a submission runs.
// Callers hold c.mu.
func (c *Controller) fire(e navigation.Event) (navigation.Effect, error) {
	// a finished submission holds the view until its completion is applied
	if c.wizard != nil && c.wizard.Pending() && e.Kind != navigation.EventComplete {
		return navigation.Effect{From: c.nav.View(), To: c.nav.View()}, booking.ErrSubmissionInProgress
	}
	eff, err := c.nav.Fire(e)
	if err != nil {
		return eff, err
	}
	if eff.DraftDiscarded || c.nav.View() != models.ViewBooking {
		c.wizard = nil
	}
	c.log.Debug("view changed", map[string]interface{}{
		"event": e.Kind,
		"from":  eff.From,
		"to":    eff.To,
	})
	return eff, nil
}

// ==========================
// Catalog
// ==========================

func (c *Controller) SetFilters(f filter.Criteria) error {
	err := f.Validate()
	if err == nil {
		if f.Gender == "" {
			f.Gender = filter.GenderAll
		}
		c.mu.Lock()
		c.filters = f
		c.mu.Unlock()
	}
	c.observe("set_filters", err)
	return err
}

func (c *Controller) ResetFilters() {
	c.mu.Lock()
	c.filters = filter.Default()
	c.mu.Unlock()
	c.observe("reset_filters", nil)
}

func (c *Controller) Filters() filter.Criteria {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters
}

// Listings returns the catalog filtered by criteria, or by the stored
// filters when criteria is nil. A failing search backend falls back to the
// in-memory filter.
func (c *Controller) Listings(ctx context.Context, criteria *filter.Criteria) []models.Listing {
	crit := c.Filters()
	if criteria != nil {
		crit = *criteria
	}

	if c.searcher != nil {
		ids, err := c.searcher.Search(ctx, crit)
		if err == nil {
			return c.catalog.InOrder(ids)
		}
		c.log.Warn("search backend failed, using in-memory filter", map[string]interface{}{"error": err.Error()})
	}
	return filter.Apply(c.catalog.All(), crit)
}

func (c *Controller) Summaries(listings []models.Listing) []ListingSummary {
	out := make([]ListingSummary, len(listings))
	for i := range listings {
		out[i] = Summarize(&listings[i], c.wishlist.Contains(listings[i].ID))
	}
	return out
}

func (c *Controller) Details(id string) (*ListingDetails, error) {
	l, err := c.catalog.Get(id)
	if err != nil {
		return nil, err
	}
	return &ListingDetails{
		Listing:      *l,
		StartingRent: catalog.StartingRent(l),
		Availability: catalog.OverallAvailability(l),
		Saved:        c.wishlist.Contains(id),
	}, nil
}

func (c *Controller) SelectListing(id string) error {
	err := c.selectListing(id)
	c.observe("select_listing", err)
	return err
}

func (c *Controller) selectListing(id string) error {
	l, err := c.catalog.Get(id)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err = c.fire(navigation.Event{Kind: navigation.EventSelectListing, Listing: l})
	return err
}

// ==========================
// Wishlist
// ==========================

// ToggleWishlist flips a saved listing. Signed-out users are sent to the
// auth screen and the toggle is dropped.
func (c *Controller) ToggleWishlist(id string) (*task.Task[wishlist.Result], wishlist.Outcome, error) {
	t, outcome, err := c.toggleWishlist(id)
	c.observe("toggle_wishlist", err)
	return t, outcome, err
}

func (c *Controller) toggleWishlist(id string) (*task.Task[wishlist.Result], wishlist.Outcome, error) {
	if _, err := c.catalog.Get(id); err != nil {
		return nil, "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	t, outcome := c.wishlist.Toggle(c.tasks, c.session.Authenticated(), id)
	if outcome == wishlist.OutcomeRedirectToAuth {
		if _, err := c.fire(navigation.Event{Kind: navigation.EventWishlistDenied}); err != nil {
			return nil, outcome, err
		}
		return nil, outcome, nil
	}

	start := time.Now()
	go func() {
		_, err := t.Wait(c.tasks.Context())
		c.recordTask(context.Background(), "wishlist", err, start)
	}()
	return t, outcome, nil
}

func (c *Controller) SavedListings() []models.Listing {
	return c.wishlist.Listings(c.catalog)
}

// ==========================
// Booking
// ==========================

// RequestBooking opens the wizard for an offer of the selected listing.
// Signed-out users are sent to the auth screen and the request is dropped.
func (c *Controller) RequestBooking(req BookingRequest) (navigation.Effect, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	eff, err := c.requestBooking(req)
	c.observe("request_booking", err)
	return eff, err
}

func (c *Controller) requestBooking(req BookingRequest) (navigation.Effect, error) {
	if !c.session.Authenticated() {
		return c.fire(navigation.Event{Kind: navigation.EventRequestBooking})
	}
	selected := c.nav.State().Selected
	if c.nav.View() != models.ViewDetails || selected == nil {
		return c.fire(navigation.Event{Kind: navigation.EventRequestBooking, Authenticated: true})
	}
	if req.ListingID != "" && req.ListingID != selected.ID {
		return navigation.Effect{From: c.nav.View(), To: c.nav.View()},
			fmt.Errorf("%w: %s", ErrListingMismatch, req.ListingID)
	}

	draft, err := catalog.NewDraft(selected, req.BuildingID, req.Sharing, req.Path)
	if err != nil {
		return navigation.Effect{From: c.nav.View(), To: c.nav.View()}, err
	}
	return c.startWizard(draft)
}

// QuickBook books the first available offer of the first building directly,
// or schedules a visit to its first offer when every room is taken.
func (c *Controller) QuickBook() (navigation.Effect, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	eff, err := c.quickBook()
	c.observe("quick_book", err)
	return eff, err
}

func (c *Controller) quickBook() (navigation.Effect, error) {
	if !c.session.Authenticated() {
		return c.fire(navigation.Event{Kind: navigation.EventRequestBooking})
	}
	selected := c.nav.State().Selected
	if c.nav.View() != models.ViewDetails || selected == nil {
		return c.fire(navigation.Event{Kind: navigation.EventRequestBooking, Authenticated: true})
	}

	req := BookingRequest{Path: models.PathDirect}
	if b, offer, ok := catalog.FirstBookableOffer(selected); ok {
		req.BuildingID, req.Sharing = b.ID, offer.Sharing
	} else {
		first := selected.Buildings[0]
		if len(first.Rooms) == 0 {
			return navigation.Effect{From: c.nav.View(), To: c.nav.View()}, ErrNoBookableOffer
		}
		req.BuildingID, req.Sharing, req.Path = first.ID, first.Rooms[0].Sharing, models.PathVisit
	}
	return c.requestBooking(req)
}

func (c *Controller) startWizard(draft *models.BookingDraft) (navigation.Effect, error) {
	w, err := booking.NewWizard(draft, booking.Options{
		TokenAmount:      c.cfg.Booking.TokenAmount,
		StrictValidation: c.cfg.Booking.StrictValidation,
		SubmitDelay:      config.GetDuration(c.cfg.Delays.Booking),
	})
	if err != nil {
		return navigation.Effect{}, err
	}
	eff, err := c.fire(navigation.Event{Kind: navigation.EventRequestBooking, Authenticated: true, Draft: draft})
	if err != nil {
		return eff, err
	}
	c.wizard = w
	c.log.Info("booking started", map[string]interface{}{
		"listingId":  draft.Listing.ID,
		"buildingId": draft.Building.ID,
		"sharing":    draft.Offer.Sharing,
		"path":       draft.Path,
	})
	return eff, nil
}

func (c *Controller) BookingView() (booking.View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.wizard == nil {
		return booking.View{}, ErrWizardNotActive
	}
	return c.wizard.View(), nil
}

func (c *Controller) UpdateBookingForm(u booking.FormUpdate) (booking.View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	defer func() { c.observe("update_booking_form", err) }()

	if c.wizard == nil {
		err = ErrWizardNotActive
		return booking.View{}, err
	}
	if err = c.wizard.Update(u); err != nil {
		return booking.View{}, err
	}
	return c.wizard.View(), nil
}

// AdvanceBooking moves the wizard forward. On the final step it returns the
// submission task; when that succeeds the view moves to success.
func (c *Controller) AdvanceBooking() (*task.Task[booking.Completion], error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, err := c.advanceBooking()
	c.observe("advance_booking", err)
	return t, err
}

func (c *Controller) advanceBooking() (*task.Task[booking.Completion], error) {
	w := c.wizard
	if w == nil {
		return nil, ErrWizardNotActive
	}
	inner, err := w.Advance(c.tasks, c.submitter)
	if err != nil || inner == nil {
		return nil, err
	}
	metrics.PendingTasks.WithLabelValues("booking").Inc()

	start := time.Now()
	return task.Go(c.tasks, 0, func(ctx context.Context) (booking.Completion, error) {
		defer metrics.PendingTasks.WithLabelValues("booking").Dec()

		done, err := inner.Wait(ctx)
		c.recordTask(ctx, "booking", err, start)
		if err != nil {
			c.log.Error("booking submission failed", map[string]interface{}{"error": err.Error()})
			return done, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.wizard != w {
			return done, nil
		}
		if _, err := c.fire(navigation.Event{Kind: navigation.EventComplete, Outcome: done.Path}); err != nil {
			return done, err
		}
		metrics.BookingsCompleted.WithLabelValues(string(done.Path)).Inc()
		c.log.Info("booking completed", map[string]interface{}{
			"bookingId": done.Record.ID,
			"listingId": done.Record.ListingID,
			"path":      done.Path,
		})
		return done, nil
	}), nil
}

// ==========================
// Navigation
// ==========================

func (c *Controller) Back() (navigation.Effect, error) {
	return c.navigate("back", navigation.Event{Kind: navigation.EventBack})
}

func (c *Controller) SwitchTab(tab models.View) (navigation.Effect, error) {
	return c.navigate("switch_tab", navigation.Event{Kind: navigation.EventSwitchTab, Tab: tab})
}

func (c *Controller) Done() (navigation.Effect, error) {
	return c.navigate("done", navigation.Event{Kind: navigation.EventDone})
}

func (c *Controller) navigate(intent string, e navigation.Event) (navigation.Effect, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	eff, err := c.fire(e)
	c.observe(intent, err)
	return eff, err
}

// ==========================
// Auth
// ==========================

// OpenAuth shows the auth screen, optionally on the given tab.
func (c *Controller) OpenAuth(mode session.Mode) (navigation.Effect, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	defer func() { c.observe("open_auth", err) }()

	if mode != "" {
		if err = c.session.SetMode(mode); err != nil {
			return navigation.Effect{}, err
		}
	}
	eff, err := c.fire(navigation.Event{Kind: navigation.EventOpenAuth})
	return eff, err
}

// SignIn starts the simulated sign-in from the auth screen. When it
// finishes the view returns to the catalog if it is still on auth.
func (c *Controller) SignIn() (*task.Task[bool], error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.nav.View() != models.ViewAuth {
		err := fmt.Errorf("%w: sign in from %s", navigation.ErrInvalidTransition, c.nav.View())
		c.observe("sign_in", err)
		return nil, err
	}

	inner := c.session.SignIn(c.tasks)
	metrics.PendingTasks.WithLabelValues("auth").Inc()
	c.observe("sign_in", nil)

	start := time.Now()
	return task.Go(c.tasks, 0, func(ctx context.Context) (bool, error) {
		defer metrics.PendingTasks.WithLabelValues("auth").Dec()

		ok, err := inner.Wait(ctx)
		c.recordTask(ctx, "auth", err, start)
		if err != nil {
			return false, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.nav.View() == models.ViewAuth {
			if _, err := c.fire(navigation.Event{Kind: navigation.EventAuthSucceeded}); err != nil {
				return ok, err
			}
		}
		return ok, nil
	}), nil
}

// SignOut clears the flag and returns to the catalog from any view.
func (c *Controller) SignOut(ctx context.Context) (navigation.Effect, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	defer func() { c.observe("sign_out", err) }()

	if c.wizard != nil && c.wizard.Pending() {
		err = booking.ErrSubmissionInProgress
		return navigation.Effect{}, err
	}
	if err = c.session.SignOut(ctx); err != nil {
		return navigation.Effect{}, err
	}
	eff, err := c.fire(navigation.Event{Kind: navigation.EventSignOut})
	return eff, err
}

// ==========================
// Referral
// ==========================

func (c *Controller) CopyReferral(ctx context.Context) error {
	err := c.referral.Copy(ctx, c.tasks)
	c.observe("copy_referral", err)
	return err
}

func (c *Controller) Referral() referral.View {
	return c.referral.View()
}

// ==========================
// Projection
// ==========================

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.nav.State()
	s := Snapshot{
		View:               st.View,
		Draft:              newDraftView(st.Draft),
		Outcome:            st.Outcome,
		Authenticated:      c.session.Authenticated(),
		AuthMode:           c.session.Mode(),
		SigningIn:          c.session.SigningIn(),
		WishlistProcessing: c.wishlist.Processing(),
		Wishlist:           c.wishlist.IDs(),
		Filters:            c.filters,
		CatalogLoading:     c.loading,
		ReferralCopied:     c.referral.Copied(),
	}
	if st.Selected != nil {
		s.SelectedListingID = st.Selected.ID
	}
	if c.wizard != nil {
		v := c.wizard.View()
		s.Booking = &v
	}
	return s
}
