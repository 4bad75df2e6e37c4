// Package productlist holds the ordered list of selected products being
// edited, with their discounts and the two drag levels.
package productlist

import (
	"context"
	"fmt"
	"sync"

	"github.com/fekuna/omnipos-product-picker/internal/catalog"
	"github.com/fekuna/omnipos-product-picker/internal/drag"
	"github.com/fekuna/omnipos-product-picker/internal/model"
	"github.com/fekuna/omnipos-product-picker/internal/picker"
	"github.com/fekuna/omnipos-product-picker/internal/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Options struct {
	// OnChange receives the complete new list after every edit. It must not
	// modify the slice.
	OnChange func([]model.SelectedEntry)

	// Catalog backs the pickers opened from this list.
	Catalog catalog.UseCase
	// Picker is the template for picker sessions. Its resolution callbacks
	// run after the list has applied the result.
	Picker picker.Options
}

// editorKey identifies an open discount editor by entry identity, never by
// position. variant is false for the entry-level editor.
type editorKey struct {
	entry     string
	variant   bool
	variantID int
}

// List is the Selection List Model. Every edit replaces the entries slice
// wholesale and calls OnChange exactly once; guard no-ops call nothing.
type List struct {
	mu      sync.Mutex
	entries []model.SelectedEntry
	editors map[editorKey]struct{}

	session    *picker.Session
	pickerSlot string

	products *drag.Gesture
	variants *drag.ScopedGesture

	opts   Options
	logger logger.ZapLogger
}

// New returns a list holding initial, or a single placeholder row when
// initial is empty.
func New(log logger.ZapLogger, opts Options, initial ...model.SelectedEntry) *List {
	if log == nil {
		log = logger.NewNop()
	}
	l := &List{
		editors: make(map[editorKey]struct{}),
		opts:    opts,
		logger:  log,
	}
	if len(initial) == 0 {
		initial = []model.SelectedEntry{model.Placeholder()}
	}
	l.entries = withKeys(initial)
	l.products = drag.NewGesture(l.Move)
	l.variants = drag.NewScopedGesture(l.MoveVariant)
	return l
}

// withKeys clones entries and gives every one without a key a fresh one.
func withKeys(entries []model.SelectedEntry) []model.SelectedEntry {
	out := make([]model.SelectedEntry, len(entries))
	for i, e := range entries {
		e = e.Clone()
		if e.Key == "" {
			e.Key = uuid.NewString()
		}
		out[i] = e
	}
	return out
}

func (l *List) Entries() []model.SelectedEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.SelectedEntry(nil), l.entries...)
}

func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// edit runs fn against the current entries under the lock. fn returns the
// replacement slice, or nil for a no-op.
func (l *List) edit(op string, fn func(entries []model.SelectedEntry) ([]model.SelectedEntry, error)) error {
	l.mu.Lock()
	next, err := fn(l.entries)
	if err != nil || next == nil {
		l.mu.Unlock()
		return err
	}
	l.commitLocked(next)
	l.mu.Unlock()

	l.logger.Debug("product list changed", zap.String("op", op), zap.Int("entries", len(next)))
	l.notify(next)
	return nil
}

func (l *List) commitLocked(next []model.SelectedEntry) {
	l.entries = next
	l.pruneEditorsLocked()
}

// pruneEditorsLocked drops editor flags whose entry or variant is gone.
func (l *List) pruneEditorsLocked() {
	live := make(map[editorKey]struct{}, len(l.editors))
	for _, e := range l.entries {
		live[editorKey{entry: e.Key}] = struct{}{}
		for _, v := range e.Variants {
			live[editorKey{entry: e.Key, variant: true, variantID: v.ID}] = struct{}{}
		}
	}
	for k := range l.editors {
		if _, ok := live[k]; !ok {
			delete(l.editors, k)
		}
	}
}

func (l *List) notify(entries []model.SelectedEntry) {
	if l.opts.OnChange != nil {
		l.opts.OnChange(entries)
	}
}

func checkIndex(entries []model.SelectedEntry, index int) error {
	if index < 0 || index >= len(entries) {
		return ErrIndexOutOfRange
	}
	return nil
}

func checkVariant(entries []model.SelectedEntry, productIndex, variantIndex int) error {
	if err := checkIndex(entries, productIndex); err != nil {
		return err
	}
	if variantIndex < 0 || variantIndex >= len(entries[productIndex].Variants) {
		return ErrIndexOutOfRange
	}
	return nil
}

// replace returns a copy of entries with entries[index] set to e.
func replace(entries []model.SelectedEntry, index int, e model.SelectedEntry) []model.SelectedEntry {
	out := append([]model.SelectedEntry(nil), entries...)
	out[index] = e
	return out
}

// splice returns a copy of entries with entries[index] swapped for with.
func splice(entries []model.SelectedEntry, index int, with []model.SelectedEntry) []model.SelectedEntry {
	out := make([]model.SelectedEntry, 0, len(entries)-1+len(with))
	out = append(out, entries[:index]...)
	out = append(out, with...)
	return append(out, entries[index+1:]...)
}

// Append adds a placeholder row at the end.
func (l *List) Append() {
	_ = l.edit("append", func(entries []model.SelectedEntry) ([]model.SelectedEntry, error) {
		return append(append([]model.SelectedEntry(nil), entries...), withKeys([]model.SelectedEntry{model.Placeholder()})...), nil
	})
}

// Remove deletes the row at index. The last remaining row cannot be removed.
func (l *List) Remove(index int) error {
	return l.edit("remove", func(entries []model.SelectedEntry) ([]model.SelectedEntry, error) {
		if err := checkIndex(entries, index); err != nil {
			return nil, err
		}
		if len(entries) == 1 {
			return nil, nil
		}
		return splice(entries, index, nil), nil
	})
}

// RemoveVariant deletes one variant. Removing a product's only variant
// removes the whole row instead, subject to the same one-row guard.
func (l *List) RemoveVariant(productIndex, variantIndex int) error {
	return l.edit("remove_variant", func(entries []model.SelectedEntry) ([]model.SelectedEntry, error) {
		if err := checkVariant(entries, productIndex, variantIndex); err != nil {
			return nil, err
		}
		e := entries[productIndex]
		if len(e.Variants) == 1 {
			if len(entries) == 1 {
				return nil, nil
			}
			return splice(entries, productIndex, nil), nil
		}
		e = e.Clone()
		e.Variants = append(e.Variants[:variantIndex:variantIndex], e.Variants[variantIndex+1:]...)
		if len(e.Variants) <= 1 {
			e.ShowVariants = false
		}
		return replace(entries, productIndex, e), nil
	})
}

// ToggleShowVariants flips the variant list of a row open or closed. Rows
// with one variant or none have nothing to show.
func (l *List) ToggleShowVariants(index int) error {
	return l.edit("toggle_show_variants", func(entries []model.SelectedEntry) ([]model.SelectedEntry, error) {
		if err := checkIndex(entries, index); err != nil {
			return nil, err
		}
		e := entries[index]
		if len(e.Variants) <= 1 {
			return nil, nil
		}
		e.ShowVariants = !e.ShowVariants
		return replace(entries, index, e), nil
	})
}

func newDiscount(value float64, typ model.DiscountType) (*model.Discount, error) {
	d := &model.Discount{Value: value, Type: typ}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDiscount, err)
	}
	return d, nil
}

func (l *List) SetDiscount(index int, value float64, typ model.DiscountType) error {
	d, err := newDiscount(value, typ)
	if err != nil {
		return err
	}
	return l.edit("set_discount", func(entries []model.SelectedEntry) ([]model.SelectedEntry, error) {
		if err := checkIndex(entries, index); err != nil {
			return nil, err
		}
		e := entries[index].Clone()
		e.Discount = d
		return replace(entries, index, e), nil
	})
}

func (l *List) SetVariantDiscount(productIndex, variantIndex int, value float64, typ model.DiscountType) error {
	d, err := newDiscount(value, typ)
	if err != nil {
		return err
	}
	return l.edit("set_variant_discount", func(entries []model.SelectedEntry) ([]model.SelectedEntry, error) {
		if err := checkVariant(entries, productIndex, variantIndex); err != nil {
			return nil, err
		}
		e := entries[productIndex].Clone()
		e.Variants[variantIndex].Discount = d
		return replace(entries, productIndex, e), nil
	})
}

// ReplaceAt swaps the row at index for zero or more rows. Replacing the only
// row with nothing is a no-op.
func (l *List) ReplaceAt(index int, with []model.SelectedEntry) error {
	return l.edit("replace", func(entries []model.SelectedEntry) ([]model.SelectedEntry, error) {
		return replaceAt(entries, index, with)
	})
}

func replaceAt(entries []model.SelectedEntry, index int, with []model.SelectedEntry) ([]model.SelectedEntry, error) {
	if err := checkIndex(entries, index); err != nil {
		return nil, err
	}
	if len(with) == 0 && len(entries) == 1 {
		return nil, nil
	}
	return splice(entries, index, rekey(with)), nil
}

// rekey clones entries under fresh keys; a confirmed selection always
// becomes new rows.
func rekey(entries []model.SelectedEntry) []model.SelectedEntry {
	fresh := make([]model.SelectedEntry, len(entries))
	for i, e := range entries {
		e.Key = ""
		fresh[i] = e
	}
	return withKeys(fresh)
}

// Move reorders the top level. Moving a row onto itself is a no-op.
func (l *List) Move(from, to int) error {
	return l.edit("move", func(entries []model.SelectedEntry) ([]model.SelectedEntry, error) {
		next, err := drag.MoveChecked(entries, from, to)
		if err != nil {
			return nil, ErrIndexOutOfRange
		}
		if from == to {
			return nil, nil
		}
		return next, nil
	})
}

// MoveVariant reorders the variants of one row.
func (l *List) MoveVariant(productIndex, from, to int) error {
	return l.edit("move_variant", func(entries []model.SelectedEntry) ([]model.SelectedEntry, error) {
		if err := checkIndex(entries, productIndex); err != nil {
			return nil, err
		}
		e := entries[productIndex].Clone()
		variants, err := drag.MoveChecked(e.Variants, from, to)
		if err != nil {
			return nil, ErrIndexOutOfRange
		}
		if from == to {
			return nil, nil
		}
		e.Variants = variants
		return replace(entries, productIndex, e), nil
	})
}

// ToggleDiscountEditor opens or closes the discount editor of a row. The
// flag is UI state only: it never creates a discount and is not a list edit.
func (l *List) ToggleDiscountEditor(index int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := checkIndex(l.entries, index); err != nil {
		return err
	}
	l.toggleEditorLocked(editorKey{entry: l.entries[index].Key})
	return nil
}

func (l *List) ToggleVariantDiscountEditor(productIndex, variantIndex int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := checkVariant(l.entries, productIndex, variantIndex); err != nil {
		return err
	}
	e := l.entries[productIndex]
	l.toggleEditorLocked(editorKey{entry: e.Key, variant: true, variantID: e.Variants[variantIndex].ID})
	return nil
}

func (l *List) toggleEditorLocked(k editorKey) {
	if _, open := l.editors[k]; open {
		delete(l.editors, k)
		return
	}
	l.editors[k] = struct{}{}
}

func (l *List) DiscountEditorOpen(index int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if checkIndex(l.entries, index) != nil {
		return false
	}
	_, open := l.editors[editorKey{entry: l.entries[index].Key}]
	return open
}

func (l *List) VariantDiscountEditorOpen(productIndex, variantIndex int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if checkVariant(l.entries, productIndex, variantIndex) != nil {
		return false
	}
	e := l.entries[productIndex]
	_, open := l.editors[editorKey{entry: e.Key, variant: true, variantID: e.Variants[variantIndex].ID}]
	return open
}

// Row is an entry together with the state of its discount editors.
type Row struct {
	Entry              model.SelectedEntry
	EditorOpen         bool
	OpenVariantEditors []int // variant ids
}

// Rows returns a consistent view of entries and open editors.
func (l *List) Rows() []Row {
	l.mu.Lock()
	defer l.mu.Unlock()
	rows := make([]Row, len(l.entries))
	for i, e := range l.entries {
		_, open := l.editors[editorKey{entry: e.Key}]
		row := Row{Entry: e, EditorOpen: open, OpenVariantEditors: []int{}}
		for _, v := range e.Variants {
			if _, ok := l.editors[editorKey{entry: e.Key, variant: true, variantID: v.ID}]; ok {
				row.OpenVariantEditors = append(row.OpenVariantEditors, v.ID)
			}
		}
		rows[i] = row
	}
	return rows
}

// ProductGesture drags rows. Each hover moves the row immediately.
func (l *List) ProductGesture() *drag.Gesture {
	return l.products
}

// VariantGesture drags variants inside the row given as the scope.
func (l *List) VariantGesture() *drag.ScopedGesture {
	return l.variants
}

// ProductItems binds every row to the product gesture at its current index.
func (l *List) ProductItems() []drag.Item {
	l.mu.Lock()
	defer l.mu.Unlock()
	items := make([]drag.Item, len(l.entries))
	for i, e := range l.entries {
		items[i] = l.products.Item(e.Key, i)
	}
	return items
}

// VariantItems binds the variants of one row to the variant gesture.
func (l *List) VariantItems(productIndex int) ([]drag.ScopedItem, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := checkIndex(l.entries, productIndex); err != nil {
		return nil, err
	}
	e := l.entries[productIndex]
	items := make([]drag.ScopedItem, len(e.Variants))
	for i, v := range e.Variants {
		items[i] = l.variants.Item(fmt.Sprintf("%s/%d", e.Key, v.ID), productIndex, i)
	}
	return items, nil
}

// OpenPicker starts a picker session for the row at index. Confirming it
// replaces that row with the selection, wherever the row has moved to in the
// meantime. Only one picker can be open at a time.
func (l *List) OpenPicker(ctx context.Context, index int) (*picker.Session, error) {
	l.mu.Lock()
	if l.opts.Catalog == nil {
		l.mu.Unlock()
		return nil, ErrNoCatalog
	}
	if l.session != nil && !l.session.Closed() {
		l.mu.Unlock()
		return nil, ErrPickerOpen
	}
	if err := checkIndex(l.entries, index); err != nil {
		l.mu.Unlock()
		return nil, err
	}
	slot := l.entries[index].Key

	opts := l.opts.Picker
	onSelected, onClose := opts.OnProductsSelected, opts.OnClose
	opts.OnProductsSelected = func(selected []model.SelectedEntry) {
		l.resolvePicker(slot, selected)
		if onSelected != nil {
			onSelected(selected)
		}
	}
	opts.OnClose = func() {
		l.clearPicker(slot)
		if onClose != nil {
			onClose()
		}
	}

	session := picker.NewSession(ctx, l.opts.Catalog, l.logger, opts)
	l.session = session
	l.pickerSlot = slot
	l.mu.Unlock()

	if err := session.Start(); err != nil {
		return nil, err
	}
	return session, nil
}

// Picker returns the open picker session, if any.
func (l *List) Picker() (*picker.Session, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.session == nil || l.session.Closed() {
		return nil, false
	}
	return l.session, true
}

func (l *List) resolvePicker(slot string, selected []model.SelectedEntry) {
	_ = l.edit("picker_confirm", func(entries []model.SelectedEntry) ([]model.SelectedEntry, error) {
		if l.pickerSlot == slot {
			l.session, l.pickerSlot = nil, ""
		}
		for i, e := range entries {
			if e.Key == slot {
				return replaceAt(entries, i, selected)
			}
		}
		// The row was removed while the picker was open.
		if len(selected) == 0 {
			return nil, nil
		}
		l.logger.Warn("picker row no longer exists, appending selection", zap.String("slot", slot))
		return append(append([]model.SelectedEntry(nil), entries...), rekey(selected)...), nil
	})
}

func (l *List) clearPicker(slot string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pickerSlot == slot {
		l.session, l.pickerSlot = nil, ""
	}
}
