package dto

import (
	"time"

	"github.com/fekuna/omnipos-product-picker/internal/model"
)

type SetDiscountInput struct {
	Index        int     `json:"index" validate:"min=0"`
	VariantIndex *int    `json:"variantIndex,omitempty" validate:"omitempty,min=0"`
	Value        float64 `json:"value" validate:"gte=0"`
	Type         string  `json:"type" validate:"required,oneof=percentage flat"`
}

type EditorInput struct {
	Index        int  `json:"index" validate:"min=0"`
	VariantIndex *int `json:"variantIndex,omitempty" validate:"omitempty,min=0"`
}

// MoveInput reorders the top level, or the variants of Index when
// Variants is set.
type MoveInput struct {
	Index    int  `json:"index" validate:"min=0"`
	Variants bool `json:"variants"`
	From     int  `json:"from" validate:"min=0"`
	To       int  `json:"to" validate:"min=0"`
}

type OpenPickerInput struct {
	Index int `json:"index" validate:"min=0"`
}

type QueryInput struct {
	Query string `json:"query" validate:"max=200"`
}

// ToggleInput toggles a product, or one of its variants when VariantID is
// set.
type ToggleInput struct {
	ProductID int  `json:"productId" validate:"required,gt=0"`
	VariantID *int `json:"variantId,omitempty"`
}

type EntryView struct {
	model.SelectedEntry
	DiscountEditorOpen bool           `json:"discountEditorOpen"`
	VariantEditorsOpen []int          `json:"variantEditorsOpen"`
	DiscountedPrices   map[int]string `json:"discountedPrices,omitempty"`
}

type ListView struct {
	ID         string      `json:"id"`
	Entries    []EntryView `json:"entries"`
	PickerOpen bool        `json:"pickerOpen"`
}

type ListChangedEvent struct {
	EventID   string                `json:"event_id"`
	EventType string                `json:"event_type"`
	ListID    string                `json:"list_id"`
	Entries   []model.SelectedEntry `json:"entries"`
	Timestamp time.Time             `json:"timestamp"`
}

const EventListChanged = "ListChanged"
