package productlist

import "github.com/fekuna/omnipos-product-picker/internal/apperr"

const (
	ErrMsgIndexOutOfRange = "Index out of range"
	ErrMsgInvalidDiscount = "Invalid discount"
	ErrMsgPickerOpen      = "A product picker is already open"
	ErrMsgNoCatalog       = "Product catalog is not configured"
)

var (
	ErrIndexOutOfRange = apperr.NewInvalidArgument(ErrMsgIndexOutOfRange)
	ErrInvalidDiscount = apperr.NewInvalidArgument(ErrMsgInvalidDiscount)
	ErrPickerOpen      = apperr.NewFailedPrecondition(ErrMsgPickerOpen)
	ErrNoCatalog       = apperr.NewFailedPrecondition(ErrMsgNoCatalog)
)
