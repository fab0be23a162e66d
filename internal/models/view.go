// internal/models/view.go
package models

// View is the screen currently shown.
type View string

const (
	ViewCatalog  View = "catalog"
	ViewDetails  View = "details"
	ViewBooking  View = "booking"
	ViewSuccess  View = "success"
	ViewWishlist View = "wishlist"
	ViewAuth     View = "auth"
	ViewReferral View = "referral"
)

// IsTab reports whether v is one of the top-level tabs.
func (v View) IsTab() bool {
	return v == ViewCatalog || v == ViewWishlist || v == ViewReferral
}

func (v View) Valid() bool {
	switch v {
	case ViewCatalog, ViewDetails, ViewBooking, ViewSuccess, ViewWishlist, ViewAuth, ViewReferral:
		return true
	}
	return false
}
