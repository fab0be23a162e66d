// internal/api/handler.go
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"stayease/internal/app"
	"stayease/internal/booking"
	"stayease/internal/filter"
	"stayease/internal/models"
	"stayease/internal/navigation"
	"stayease/internal/session"
	"stayease/internal/task"

	"github.com/gin-gonic/gin"
)

// Handler exposes the controller's intents over HTTP.
type Handler struct {
	ctrl        *app.Controller
	waitTimeout time.Duration
}

func NewHandler(ctrl *app.Controller, waitTimeout time.Duration) *Handler {
	if waitTimeout <= 0 {
		waitTimeout = 30 * time.Second
	}
	return &Handler{ctrl: ctrl, waitTimeout: waitTimeout}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/state", h.State)

	rg.GET("/listings", h.ListListings)
	rg.GET("/listings/:id", h.GetListing)
	rg.POST("/listings/:id/select", h.SelectListing)

	rg.PUT("/filters", h.SetFilters)
	rg.DELETE("/filters", h.ResetFilters)

	rg.GET("/wishlist", h.Wishlist)
	rg.POST("/wishlist/:id/toggle", h.ToggleWishlist)

	b := rg.Group("/booking")
	b.POST("", h.RequestBooking)
	b.POST("/quick", h.QuickBook)
	b.GET("", h.BookingView)
	b.PATCH("", h.UpdateBooking)
	b.POST("/advance", h.AdvanceBooking)

	n := rg.Group("/nav")
	n.POST("/back", h.Back)
	n.POST("/tab", h.SwitchTab)
	n.POST("/done", h.Done)

	a := rg.Group("/auth")
	a.POST("/open", h.OpenAuth)
	a.POST("/sign-in", h.SignIn)
	a.POST("/sign-out", h.SignOut)

	rg.GET("/referral", h.Referral)
	rg.POST("/referral/copy", h.CopyReferral)
}

type transitionResponse struct {
	Effect navigation.Effect `json:"effect"`
	State  app.Snapshot      `json:"state"`
}

func (h *Handler) transition(c *gin.Context, eff navigation.Effect, err error) {
	if err != nil {
		jsonError(c, err)
		return
	}
	ok(c, transitionResponse{Effect: eff, State: h.ctrl.Snapshot()})
}

func wantsWait(c *gin.Context) bool {
	w, _ := strconv.ParseBool(c.Query("wait"))
	return w
}

// await blocks on t when the caller asked for it. Otherwise it reports the
// task as accepted.
func await[T any](h *Handler, c *gin.Context, t *task.Task[T], accepted interface{}) {
	if t == nil || !wantsWait(c) {
		jsonSuccess(c, http.StatusAccepted, accepted)
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.waitTimeout)
	defer cancel()

	res, err := t.Wait(ctx)
	if err != nil {
		jsonError(c, err)
		return
	}
	ok(c, gin.H{"result": res, "state": h.ctrl.Snapshot()})
}

// ==========================
// Catalog
// ==========================

func (h *Handler) State(c *gin.Context) {
	ok(c, h.ctrl.Snapshot())
}

func (h *Handler) ListListings(c *gin.Context) {
	var criteria *filter.Criteria
	if hasAnyQuery(c, "gender", "sharing", "q") {
		parsed, err := filter.ParseCriteria(c.Query("gender"), c.Query("sharing"), c.Query("q"))
		if err != nil {
			jsonError(c, err)
			return
		}
		criteria = &parsed
	}
	listings := h.ctrl.Listings(c.Request.Context(), criteria)
	ok(c, gin.H{
		"count":    len(listings),
		"listings": h.ctrl.Summaries(listings),
	})
}

func hasAnyQuery(c *gin.Context, keys ...string) bool {
	for _, k := range keys {
		if _, present := c.GetQuery(k); present {
			return true
		}
	}
	return false
}

func (h *Handler) GetListing(c *gin.Context) {
	details, err := h.ctrl.Details(c.Param("id"))
	if err != nil {
		jsonError(c, err)
		return
	}
	ok(c, details)
}

func (h *Handler) SelectListing(c *gin.Context) {
	if err := h.ctrl.SelectListing(c.Param("id")); err != nil {
		jsonError(c, err)
		return
	}
	ok(c, h.ctrl.Snapshot())
}

type filtersRequest struct {
	Gender  string `json:"gender"`
	Sharing string `json:"sharing"`
	Search  string `json:"search"`
}

func (h *Handler) SetFilters(c *gin.Context) {
	var req filtersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	criteria, err := filter.ParseCriteria(req.Gender, req.Sharing, req.Search)
	if err != nil {
		jsonError(c, err)
		return
	}
	if err := h.ctrl.SetFilters(criteria); err != nil {
		jsonError(c, err)
		return
	}
	ok(c, h.ctrl.Filters())
}

func (h *Handler) ResetFilters(c *gin.Context) {
	h.ctrl.ResetFilters()
	ok(c, h.ctrl.Filters())
}

// ==========================
// Wishlist
// ==========================

func (h *Handler) Wishlist(c *gin.Context) {
	saved := h.ctrl.SavedListings()
	ok(c, gin.H{
		"count":    len(saved),
		"listings": h.ctrl.Summaries(saved),
	})
}

func (h *Handler) ToggleWishlist(c *gin.Context) {
	t, outcome, err := h.ctrl.ToggleWishlist(c.Param("id"))
	if err != nil {
		jsonError(c, err)
		return
	}
	await(h, c, t, gin.H{"outcome": outcome, "state": h.ctrl.Snapshot()})
}

// ==========================
// Booking
// ==========================

func (h *Handler) RequestBooking(c *gin.Context) {
	var req app.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	eff, err := h.ctrl.RequestBooking(req)
	h.transition(c, eff, err)
}

func (h *Handler) QuickBook(c *gin.Context) {
	eff, err := h.ctrl.QuickBook()
	h.transition(c, eff, err)
}

func (h *Handler) BookingView(c *gin.Context) {
	v, err := h.ctrl.BookingView()
	if err != nil {
		jsonError(c, err)
		return
	}
	ok(c, v)
}

func (h *Handler) UpdateBooking(c *gin.Context) {
	var u booking.FormUpdate
	if err := c.ShouldBindJSON(&u); err != nil {
		badRequest(c, err)
		return
	}
	v, err := h.ctrl.UpdateBookingForm(u)
	if err != nil {
		jsonError(c, err)
		return
	}
	ok(c, v)
}

func (h *Handler) AdvanceBooking(c *gin.Context) {
	t, err := h.ctrl.AdvanceBooking()
	if err != nil {
		jsonError(c, err)
		return
	}
	if t == nil {
		v, err := h.ctrl.BookingView()
		if err != nil {
			jsonError(c, err)
			return
		}
		ok(c, v)
		return
	}
	await(h, c, t, h.ctrl.Snapshot())
}

// ==========================
// Navigation
// ==========================

func (h *Handler) Back(c *gin.Context) {
	eff, err := h.ctrl.Back()
	h.transition(c, eff, err)
}

type tabRequest struct {
	Tab models.View `json:"tab" binding:"required"`
}

func (h *Handler) SwitchTab(c *gin.Context) {
	var req tabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	eff, err := h.ctrl.SwitchTab(req.Tab)
	h.transition(c, eff, err)
}

func (h *Handler) Done(c *gin.Context) {
	eff, err := h.ctrl.Done()
	h.transition(c, eff, err)
}

// ==========================
// Auth
// ==========================

type openAuthRequest struct {
	Mode session.Mode `json:"mode"`
}

func (h *Handler) OpenAuth(c *gin.Context) {
	var req openAuthRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	eff, err := h.ctrl.OpenAuth(req.Mode)
	h.transition(c, eff, err)
}

func (h *Handler) SignIn(c *gin.Context) {
	t, err := h.ctrl.SignIn()
	if err != nil {
		jsonError(c, err)
		return
	}
	await(h, c, t, h.ctrl.Snapshot())
}

func (h *Handler) SignOut(c *gin.Context) {
	eff, err := h.ctrl.SignOut(c.Request.Context())
	h.transition(c, eff, err)
}

// ==========================
// Referral
// ==========================

func (h *Handler) Referral(c *gin.Context) {
	ok(c, h.ctrl.Referral())
}

func (h *Handler) CopyReferral(c *gin.Context) {
	if err := h.ctrl.CopyReferral(c.Request.Context()); err != nil {
		jsonError(c, err)
		return
	}
	ok(c, h.ctrl.Referral())
}
