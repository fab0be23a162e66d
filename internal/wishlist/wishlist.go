// internal/wishlist/wishlist.go
package wishlist

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"stayease/internal/catalog"
	"stayease/internal/common/logger"
	"stayease/internal/common/metrics"
	"stayease/internal/kvstore"
	"stayease/internal/models"
	"stayease/internal/task"
)

// Outcome of a toggle request.
type Outcome string

const (
	OutcomeRedirectToAuth Outcome = "redirect_to_auth"
	OutcomeProcessing     Outcome = "processing"
	OutcomeDone           Outcome = "done"
	OutcomeFailed         Outcome = "failed"
)

// Result is what a finished toggle resolves with.
type Result struct {
	ID      string  `json:"id"`
	Saved   bool    `json:"saved"`
	Outcome Outcome `json:"outcome"`
}

// Wishlist is the persisted set of saved listing ids.
type Wishlist struct {
	store kvstore.Store
	delay time.Duration
	log   logger.Logger

	// commit serializes read-modify-write of the set and its persisted copy
	commit sync.Mutex

	mu       sync.RWMutex
	ids      map[string]bool
	inFlight int
}

func New(store kvstore.Store, delay time.Duration, log logger.Logger) *Wishlist {
	return &Wishlist{
		store: store,
		delay: delay,
		log:   log.WithFields(map[string]interface{}{"component": "wishlist"}),
		ids:   make(map[string]bool),
	}
}

// Load reads the persisted set. A malformed value loads as empty.
func (w *Wishlist) Load(ctx context.Context) error {
	raw, found, err := w.store.Get(ctx, kvstore.KeyWishlist)
	if err != nil {
		return &kvstore.OpError{Op: kvstore.OpGet, Key: kvstore.KeyWishlist, Err: err}
	}

	ids := make(map[string]bool)
	if found {
		var list []string
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			w.log.Warn("ignoring malformed wishlist", map[string]interface{}{"error": err.Error()})
		}
		for _, id := range list {
			ids[id] = true
		}
	}

	w.mu.Lock()
	w.ids = ids
	w.mu.Unlock()

	w.log.Debug("wishlist loaded", map[string]interface{}{"count": len(ids)})
	return nil
}

// Toggle flips membership of id after the configured delay. Unauthenticated
// callers get OutcomeRedirectToAuth and no task. Overlapping toggles are
// allowed; each flip applies atomically when its own delay ends.
func (w *Wishlist) Toggle(g *task.Group, authenticated bool, id string) (*task.Task[Result], Outcome) {
	if !authenticated {
		metrics.WishlistToggles.WithLabelValues(string(OutcomeRedirectToAuth)).Inc()
		return nil, OutcomeRedirectToAuth
	}

	w.mu.Lock()
	w.inFlight++
	w.mu.Unlock()
	metrics.PendingTasks.WithLabelValues("wishlist").Inc()

	t := task.Go(g, w.delay, func(ctx context.Context) (Result, error) {
		return w.flip(ctx, id)
	})

	go func() {
		<-t.Done()
		w.mu.Lock()
		w.inFlight--
		w.mu.Unlock()
		metrics.PendingTasks.WithLabelValues("wishlist").Dec()
	}()

	return t, OutcomeProcessing
}

func (w *Wishlist) flip(ctx context.Context, id string) (Result, error) {
	w.commit.Lock()
	defer w.commit.Unlock()

	w.mu.RLock()
	next := make(map[string]bool, len(w.ids)+1)
	for k := range w.ids {
		next[k] = true
	}
	w.mu.RUnlock()

	saved := !next[id]
	if saved {
		next[id] = true
	} else {
		delete(next, id)
	}

	data, err := json.Marshal(sortedKeys(next))
	if err != nil {
		return Result{ID: id, Outcome: OutcomeFailed}, err
	}
	if err := w.store.Set(ctx, kvstore.KeyWishlist, string(data)); err != nil {
		metrics.WishlistToggles.WithLabelValues(string(OutcomeFailed)).Inc()
		w.log.Error("failed to persist wishlist", map[string]interface{}{"listingId": id, "error": err.Error()})
		return Result{ID: id, Saved: !saved, Outcome: OutcomeFailed},
			&kvstore.OpError{Op: kvstore.OpSet, Key: kvstore.KeyWishlist, Err: err}
	}

	w.mu.Lock()
	w.ids = next
	w.mu.Unlock()

	metrics.WishlistToggles.WithLabelValues(string(OutcomeDone)).Inc()
	w.log.Info("wishlist updated", map[string]interface{}{"listingId": id, "saved": saved, "count": len(next)})
	return Result{ID: id, Saved: saved, Outcome: OutcomeDone}, nil
}

// Processing reports whether any toggle is in flight.
func (w *Wishlist) Processing() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.inFlight > 0
}

func (w *Wishlist) Contains(id string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.ids[id]
}

// IDs returns the saved ids, sorted.
func (w *Wishlist) IDs() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return sortedKeys(w.ids)
}

// Listings returns the saved listings in catalog order.
func (w *Wishlist) Listings(c *catalog.Catalog) []models.Listing {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return c.ByIDs(w.ids)
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
