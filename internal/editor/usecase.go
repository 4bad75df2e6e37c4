package editor

import (
	"context"

	"github.com/fekuna/omnipos-product-picker/internal/editor/dto"
	"github.com/fekuna/omnipos-product-picker/internal/picker"
)

// UseCase manages the in-memory editing sessions, one product list each.
type UseCase interface {
	CreateList(ctx context.Context) (*dto.ListView, error)
	GetList(ctx context.Context, id string) (*dto.ListView, error)
	DeleteList(ctx context.Context, id string) error

	Append(ctx context.Context, id string) (*dto.ListView, error)
	Remove(ctx context.Context, id string, index int) (*dto.ListView, error)
	RemoveVariant(ctx context.Context, id string, index, variantIndex int) (*dto.ListView, error)
	ToggleShowVariants(ctx context.Context, id string, index int) (*dto.ListView, error)
	SetDiscount(ctx context.Context, id string, input *dto.SetDiscountInput) (*dto.ListView, error)
	ToggleDiscountEditor(ctx context.Context, id string, input *dto.EditorInput) (*dto.ListView, error)
	Move(ctx context.Context, id string, input *dto.MoveInput) (*dto.ListView, error)

	OpenPicker(ctx context.Context, id string, index int) (*picker.State, error)
	PickerState(ctx context.Context, id string) (*picker.State, error)
	SetQuery(ctx context.Context, id, query string) (*picker.State, error)
	LoadMore(ctx context.Context, id string) (*picker.State, error)
	TogglePickerProduct(ctx context.Context, id string, input *dto.ToggleInput) (*picker.State, error)
	ConfirmPicker(ctx context.Context, id string) (*dto.ListView, error)
	CancelPicker(ctx context.Context, id string) error
}

// Publisher delivers list-changed events to the surrounding application.
type Publisher interface {
	PublishListChanged(ctx context.Context, event *dto.ListChangedEvent) error
	Close() error
}
