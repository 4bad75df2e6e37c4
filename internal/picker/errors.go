package picker

import "github.com/fekuna/omnipos-product-picker/internal/apperr"

// Error message constants for picker sessions.
const (
	ErrMsgUnknownProduct = "Product is not in the current results"
	ErrMsgUnknownVariant = "Variant does not belong to the product"
	ErrMsgSessionClosed  = "Picker session is closed"

	// FetchFailedMessage is what the session shows when a catalog fetch fails.
	FetchFailedMessage = "Failed to fetch products"
)

var (
	ErrUnknownProduct = apperr.NewInvalidArgument(ErrMsgUnknownProduct)
	ErrUnknownVariant = apperr.NewInvalidArgument(ErrMsgUnknownVariant)
	ErrSessionClosed  = apperr.NewFailedPrecondition(ErrMsgSessionClosed)
)
