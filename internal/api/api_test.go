package api

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"stayease/internal/app"
	"stayease/internal/booking"
	"stayease/internal/catalog"
	"stayease/internal/common/config"
	apperrors "stayease/internal/common/errors"
	"stayease/internal/common/logger"
	"stayease/internal/kvstore"
	"stayease/internal/navigation"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *errorBody      `json:"error"`
}

func testConfig() *config.Config {
	return &config.Config{
		HTTP:     config.HTTPConfig{CORSOrigins: []string{"*"}, WriteTimeout: 5000},
		Delays:   config.DelayConfig{CopyReset: 60000},
		Booking:  config.BookingConfig{TokenAmount: 2000, StrictValidation: true},
		Referral: config.ReferralConfig{Code: "STAYEASE500", Reward: 500},
	}
}

func newRouter(t *testing.T, store kvstore.Store, ready map[string]kvstore.Pinger) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if store == nil {
		store = kvstore.NewMemoryStore()
	}
	log := logger.NewTestLogger(t)
	ctrl, err := app.New(context.Background(), testConfig(), app.Deps{
		Catalog: catalog.Generate(),
		Store:   store,
	}, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctrl.Shutdown(context.Background()) })

	return NewRouter(testConfig(), RouterDeps{Controller: ctrl, Ready: ready}, log)
}

func signedInStore(t *testing.T) kvstore.Store {
	store := kvstore.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), kvstore.KeyAuth, "true"))
	return store
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func decode(t *testing.T, raw json.RawMessage, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, v), string(raw))
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return stderrors.New("connection refused") }

// ==========================
// Health
// ==========================

func TestHealthAndReady(t *testing.T) {
	r := newRouter(t, nil, map[string]kvstore.Pinger{"store": kvstore.NewMemoryStore()})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "stayease_http_request_duration_seconds")
}

func TestReady_StoreDown(t *testing.T) {
	r := newRouter(t, nil, map[string]kvstore.Pinger{"store": failingPinger{}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

// ==========================
// Catalog
// ==========================

func TestListListings(t *testing.T) {
	r := newRouter(t, nil, nil)

	tests := []struct {
		name      string
		path      string
		wantCode  int
		wantCount int
		wantErr   apperrors.ErrorCode
	}{
		{name: "stored filters", path: "/api/v1/listings", wantCode: http.StatusOK, wantCount: 33},
		{name: "gender", path: "/api/v1/listings?gender=Ladies", wantCode: http.StatusOK, wantCount: 11},
		{name: "search", path: "/api/v1/listings?q=whitefield", wantCode: http.StatusOK, wantCount: 3},
		{name: "invalid gender", path: "/api/v1/listings?gender=Kids", wantCode: http.StatusBadRequest, wantErr: apperrors.ErrCodeValidationFailed},
		{name: "invalid sharing", path: "/api/v1/listings?sharing=two", wantCode: http.StatusBadRequest, wantErr: apperrors.ErrCodeValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := do(t, r, http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.wantCode, code)
			if tt.wantErr != "" {
				require.NotNil(t, env.Error)
				assert.False(t, env.Success)
				assert.Equal(t, tt.wantErr, env.Error.Code)
				return
			}
			var data struct {
				Count    int                  `json:"count"`
				Listings []app.ListingSummary `json:"listings"`
			}
			decode(t, env.Data, &data)
			assert.True(t, env.Success)
			assert.Equal(t, tt.wantCount, data.Count)
			assert.Len(t, data.Listings, tt.wantCount)
		})
	}
}

func TestGetListing(t *testing.T) {
	r := newRouter(t, nil, nil)

	code, env := do(t, r, http.MethodGet, "/api/v1/listings/m4", nil)
	assert.Equal(t, http.StatusOK, code)
	var details app.ListingDetails
	decode(t, env.Data, &details)
	assert.Equal(t, "m4", details.ID)

	code, env = do(t, r, http.MethodGet, "/api/v1/listings/zz", nil)
	assert.Equal(t, http.StatusNotFound, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, apperrors.ErrCodeListingNotFound, env.Error.Code)
}

func TestFilters(t *testing.T) {
	r := newRouter(t, nil, nil)

	code, _ := do(t, r, http.MethodPut, "/api/v1/filters", filtersRequest{Gender: "Men", Sharing: "2"})
	assert.Equal(t, http.StatusOK, code)

	_, env := do(t, r, http.MethodGet, "/api/v1/state", nil)
	var snap app.Snapshot
	decode(t, env.Data, &snap)
	assert.Equal(t, "Men", snap.Filters.Gender)
	assert.Equal(t, 2, snap.Filters.Sharing)

	code, env = do(t, r, http.MethodDelete, "/api/v1/filters", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"gender":"all"`)

	code, env = do(t, r, http.MethodPut, "/api/v1/filters", filtersRequest{Gender: "Nobody"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, apperrors.ErrCodeValidationFailed, env.Error.Code)
}

// ==========================
// Wishlist
// ==========================

func TestToggleWishlist_SignedOut(t *testing.T) {
	r := newRouter(t, nil, nil)

	code, env := do(t, r, http.MethodPost, "/api/v1/wishlist/m1/toggle?wait=true", nil)
	assert.Equal(t, http.StatusAccepted, code)
	assert.Contains(t, string(env.Data), `"outcome":"redirect_to_auth"`)
	assert.Contains(t, string(env.Data), `"view":"auth"`)
}

func TestToggleWishlist_Wait(t *testing.T) {
	r := newRouter(t, signedInStore(t), nil)

	code, env := do(t, r, http.MethodPost, "/api/v1/wishlist/c2/toggle?wait=true", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"saved":true`)

	_, env = do(t, r, http.MethodGet, "/api/v1/wishlist", nil)
	assert.Contains(t, string(env.Data), `"count":1`)

	code, env = do(t, r, http.MethodPost, "/api/v1/wishlist/nope/toggle", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, apperrors.ErrCodeListingNotFound, env.Error.Code)
}

// ==========================
// Booking
// ==========================

func TestBookingFlow(t *testing.T) {
	r := newRouter(t, signedInStore(t), nil)

	code, _ := do(t, r, http.MethodPost, "/api/v1/listings/m3/select", nil)
	require.Equal(t, http.StatusOK, code)

	code, env := do(t, r, http.MethodPost, "/api/v1/booking", app.BookingRequest{
		ListingID: "m3", BuildingID: "b-m3", Sharing: 3, Path: "visit",
	})
	require.Equal(t, http.StatusOK, code, string(env.Data))
	var tr struct {
		Effect navigation.Effect `json:"effect"`
		State  app.Snapshot      `json:"state"`
	}
	decode(t, env.Data, &tr)
	assert.Equal(t, "booking", string(tr.Effect.To))

	t.Run("advance before contact is filled", func(t *testing.T) {
		code, env := do(t, r, http.MethodPost, "/api/v1/booking/advance", nil)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, apperrors.ErrCodeValidationFailed, env.Error.Code)
	})

	t.Run("invalid phone", func(t *testing.T) {
		phone, name, date, sub := "12ab", "Asha", "2026-11-01", "HSR 1st Phase"
		code, _ := do(t, r, http.MethodPatch, "/api/v1/booking", booking.FormUpdate{
			Name: &name, Phone: &phone, MoveInDate: &date, Subdivision: &sub,
		})
		require.Equal(t, http.StatusOK, code)

		code, env := do(t, r, http.MethodPost, "/api/v1/booking/advance", nil)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, apperrors.ErrCodeValidationFailed, env.Error.Code)
		assert.Contains(t, fmt.Sprint(env.Error.Metadata["fields"]), "phone")
	})

	phone, day, window := "9876543210", "Tomorrow", "Evening (4-6)"
	code, _ = do(t, r, http.MethodPatch, "/api/v1/booking", booking.FormUpdate{Phone: &phone})
	require.Equal(t, http.StatusOK, code)

	code, env = do(t, r, http.MethodPost, "/api/v1/booking/advance", nil)
	require.Equal(t, http.StatusOK, code)
	var v booking.View
	decode(t, env.Data, &v)
	assert.Equal(t, booking.StepConfirm, v.Step)

	code, _ = do(t, r, http.MethodPatch, "/api/v1/booking", booking.FormUpdate{VisitDay: &day, TimeWindow: &window})
	require.Equal(t, http.StatusOK, code)

	code, env = do(t, r, http.MethodPost, "/api/v1/booking/advance?wait=true", nil)
	require.Equal(t, http.StatusOK, code, string(env.Data))
	assert.Contains(t, string(env.Data), `"view":"success"`)
	assert.Contains(t, string(env.Data), `"outcome":"visit"`)

	code, env = do(t, r, http.MethodGet, "/api/v1/booking", nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, apperrors.ErrCodeWizardNotActive, env.Error.Code)

	code, env = do(t, r, http.MethodPost, "/api/v1/nav/done", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"to":"catalog"`)
}

func TestRequestBooking_Errors(t *testing.T) {
	r := newRouter(t, signedInStore(t), nil)

	code, env := do(t, r, http.MethodPost, "/api/v1/booking", app.BookingRequest{ListingID: "m3"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, apperrors.ErrCodeInvalidTransition, env.Error.Code)

	do(t, r, http.MethodPost, "/api/v1/listings/m3/select", nil)

	code, env = do(t, r, http.MethodPost, "/api/v1/booking", app.BookingRequest{ListingID: "m3", BuildingID: "b-zz", Sharing: 3, Path: "visit"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, apperrors.ErrCodeOfferNotFound, env.Error.Code)

	code, env = do(t, r, http.MethodPost, "/api/v1/booking", app.BookingRequest{ListingID: "m4", BuildingID: "b-m4", Sharing: 3, Path: "visit"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, apperrors.ErrCodeValidationFailed, env.Error.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/booking", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuickBook(t *testing.T) {
	r := newRouter(t, signedInStore(t), nil)

	do(t, r, http.MethodPost, "/api/v1/listings/c1/select", nil)
	code, env := do(t, r, http.MethodPost, "/api/v1/booking/quick", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"to":"booking"`)

	code, env = do(t, r, http.MethodPost, "/api/v1/nav/back", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"draftDiscarded":true`)
}

// ==========================
// Auth & navigation
// ==========================

func TestAuthFlow(t *testing.T) {
	r := newRouter(t, nil, nil)

	code, env := do(t, r, http.MethodPost, "/api/v1/auth/sign-in", nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, apperrors.ErrCodeInvalidTransition, env.Error.Code)

	code, env = do(t, r, http.MethodPost, "/api/v1/auth/open", openAuthRequest{Mode: "bogus"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, apperrors.ErrCodeValidationFailed, env.Error.Code)

	code, _ = do(t, r, http.MethodPost, "/api/v1/auth/open", openAuthRequest{Mode: "signup"})
	require.Equal(t, http.StatusOK, code)

	code, env = do(t, r, http.MethodPost, "/api/v1/auth/sign-in?wait=true", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"authenticated":true`)
	assert.Contains(t, string(env.Data), `"view":"catalog"`)

	code, env = do(t, r, http.MethodPost, "/api/v1/nav/tab", tabRequest{Tab: "wishlist"})
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"to":"wishlist"`)

	code, env = do(t, r, http.MethodPost, "/api/v1/auth/sign-out", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"authenticated":false`)
}

func TestSwitchTab_MissingBody(t *testing.T) {
	r := newRouter(t, nil, nil)
	code, env := do(t, r, http.MethodPost, "/api/v1/nav/tab", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, apperrors.ErrCodeValidationFailed, env.Error.Code)
}

// ==========================
// Referral
// ==========================

func TestReferral(t *testing.T) {
	r := newRouter(t, nil, nil)

	code, env := do(t, r, http.MethodGet, "/api/v1/referral", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"code":"STAYEASE500"`)

	code, env = do(t, r, http.MethodPost, "/api/v1/referral/copy", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"copied":true`)
}

// ==========================
// Error mapping
// ==========================

func TestToStandardError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperrors.ErrorCode
	}{
		{"store read", &kvstore.OpError{Op: kvstore.OpGet, Key: "k", Err: stderrors.New("down")}, apperrors.ErrCodeStoreReadFailed},
		{"store write", fmt.Errorf("persist: %w", &kvstore.OpError{Op: kvstore.OpSet, Key: "k", Err: stderrors.New("down")}), apperrors.ErrCodeStoreWriteFailed},
		{"exhausted offer", catalog.ErrOfferExhausted, apperrors.ErrCodeValidationFailed},
		{"submitting", booking.ErrSubmissionInProgress, apperrors.ErrCodeSubmissionInProgress},
		{"completed", booking.ErrAlreadyCompleted, apperrors.ErrCodeInvalidTransition},
		{"process start", fmt.Errorf("%w: boom", booking.ErrProcessStart), apperrors.ErrCodeProcessStartFailed},
		{"deadline", context.DeadlineExceeded, apperrors.ErrCodeTimeout},
		{"standard error kept", fmt.Errorf("%w: %w", booking.ErrProcessStart, apperrors.NewTimeoutError("zeebe", stderrors.New("slow"))), apperrors.ErrCodeTimeout},
		{"unknown", stderrors.New("boom"), apperrors.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, toStandardError(tt.err).Code)
		})
	}
}
