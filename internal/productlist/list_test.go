package productlist

import (
	"context"
	"sync"
	"testing"

	"github.com/fekuna/omnipos-product-picker/internal/catalog/dto"
	"github.com/fekuna/omnipos-product-picker/internal/model"
	"github.com/fekuna/omnipos-product-picker/internal/picker"
	"github.com/fekuna/omnipos-product-picker/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	lists [][]model.SelectedEntry
}

func (r *recorder) record(entries []model.SelectedEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists = append(r.lists, entries)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lists)
}

func entry(id int, variantIDs ...int) model.SelectedEntry {
	variants := make([]model.Variant, len(variantIDs))
	for i, vid := range variantIDs {
		variants[i] = model.Variant{ID: vid, ProductID: id, Title: "v", Price: "10.00"}
	}
	return model.SelectedEntry{Product: model.Product{ID: id, Title: "p", Variants: variants}}
}

func ids(entries []model.SelectedEntry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func variantIDs(e model.SelectedEntry) []int {
	out := make([]int, len(e.Variants))
	for i, v := range e.Variants {
		out[i] = v.ID
	}
	return out
}

func newList(initial ...model.SelectedEntry) (*List, *recorder) {
	rec := &recorder{}
	return New(logger.NewNop(), Options{OnChange: rec.record}, initial...), rec
}

func TestNewSeedsPlaceholder(t *testing.T) {
	l, rec := newList()
	entries := l.Entries()
	require.Len(t, entries, 1)
	assert.True(t, entries[0].IsPlaceholder())
	assert.NotEmpty(t, entries[0].Key)
	assert.Zero(t, rec.count())
}

func TestAppendAddsPlaceholder(t *testing.T) {
	l, rec := newList(entry(1, 1))
	l.Append()

	entries := l.Entries()
	require.Len(t, entries, 2)
	assert.True(t, entries[1].IsPlaceholder())
	assert.NotEqual(t, entries[0].Key, entries[1].Key)
	assert.Equal(t, 1, rec.count())
	assert.Equal(t, entries, rec.lists[0])
}

func TestRemoveSoleEntryIsRejected(t *testing.T) {
	l, rec := newList(entry(1, 1))
	require.NoError(t, l.Remove(0))
	assert.Equal(t, 1, l.Len())
	assert.Zero(t, rec.count())
}

func TestRemove(t *testing.T) {
	l, rec := newList(entry(1, 1), entry(2, 1), entry(3, 1))
	before := l.Entries()

	require.NoError(t, l.Remove(1))
	assert.Equal(t, []int{1, 3}, ids(l.Entries()))
	assert.Equal(t, []int{1, 2, 3}, ids(before), "earlier snapshots are not aliased")
	assert.Equal(t, 1, rec.count())

	assert.ErrorIs(t, l.Remove(5), ErrIndexOutOfRange)
	assert.ErrorIs(t, l.Remove(-1), ErrIndexOutOfRange)
	assert.Equal(t, 1, rec.count())
}

func TestRemoveVariant(t *testing.T) {
	l, rec := newList(entry(1, 10, 11, 12), entry(2, 20))

	require.NoError(t, l.RemoveVariant(0, 1))
	entries := l.Entries()
	assert.Equal(t, []int{10, 12}, variantIDs(entries[0]))

	require.NoError(t, l.RemoveVariant(1, 0))
	assert.Equal(t, []int{1}, ids(l.Entries()), "removing the only variant removes the product")
	assert.Equal(t, 2, rec.count())

	assert.Len(t, entries[0].Variants, 2, "snapshot unchanged by later edits")
}

func TestRemoveVariantOfSoleSingleVariantEntryIsRejected(t *testing.T) {
	l, rec := newList(entry(1, 10))
	require.NoError(t, l.RemoveVariant(0, 0))
	assert.Equal(t, []int{10}, variantIDs(l.Entries()[0]))
	assert.Zero(t, rec.count())

	assert.ErrorIs(t, l.RemoveVariant(0, 3), ErrIndexOutOfRange)
}

func TestToggleShowVariants(t *testing.T) {
	l, rec := newList(entry(1, 10, 11), entry(2, 20), model.Placeholder())

	require.NoError(t, l.ToggleShowVariants(0))
	assert.True(t, l.Entries()[0].ShowVariants)
	require.NoError(t, l.ToggleShowVariants(0))
	assert.False(t, l.Entries()[0].ShowVariants)
	assert.Equal(t, 2, rec.count())

	require.NoError(t, l.ToggleShowVariants(1))
	require.NoError(t, l.ToggleShowVariants(2))
	assert.False(t, l.Entries()[1].ShowVariants)
	assert.Equal(t, 2, rec.count(), "single-variant rows have nothing to expand")
}

func TestSetDiscounts(t *testing.T) {
	l, rec := newList(entry(1, 10, 11))
	before := l.Entries()

	require.NoError(t, l.SetDiscount(0, 15, model.DiscountPercentage))
	require.NoError(t, l.SetVariantDiscount(0, 1, 2.5, model.DiscountFlat))
	require.NoError(t, l.SetDiscount(0, 20, model.DiscountPercentage))

	e := l.Entries()[0]
	assert.Equal(t, &model.Discount{Value: 20, Type: model.DiscountPercentage}, e.Discount)
	assert.Nil(t, e.Variants[0].Discount)
	assert.Equal(t, &model.Discount{Value: 2.5, Type: model.DiscountFlat}, e.Variants[1].Discount)
	assert.Equal(t, 3, rec.count())

	assert.Nil(t, before[0].Discount)
	assert.Nil(t, before[0].Variants[1].Discount)
}

func TestSetDiscountValidates(t *testing.T) {
	l, rec := newList(entry(1, 10))

	err := l.SetDiscount(0, 120, model.DiscountPercentage)
	assert.ErrorIs(t, err, ErrInvalidDiscount)
	assert.ErrorIs(t, l.SetVariantDiscount(0, 0, -1, model.DiscountFlat), ErrInvalidDiscount)
	assert.ErrorIs(t, l.SetDiscount(0, 5, "bogus"), ErrInvalidDiscount)
	assert.ErrorIs(t, l.SetDiscount(3, 5, model.DiscountFlat), ErrIndexOutOfRange)
	assert.Zero(t, rec.count())
}

func TestReplaceAtFansOut(t *testing.T) {
	l, rec := newList(entry(1, 1), entry(2, 1), entry(3, 1))
	keyA := l.Entries()[0].Key

	require.NoError(t, l.ReplaceAt(1, []model.SelectedEntry{entry(24, 1), entry(25, 1)}))

	entries := l.Entries()
	assert.Equal(t, []int{1, 24, 25, 3}, ids(entries))
	assert.Equal(t, keyA, entries[0].Key)
	assert.NotEmpty(t, entries[1].Key)
	assert.NotEqual(t, entries[1].Key, entries[2].Key)
	assert.Equal(t, 1, rec.count())
}

func TestReplaceAtWithNothing(t *testing.T) {
	l, rec := newList(entry(1, 1), entry(2, 1))
	require.NoError(t, l.ReplaceAt(0, nil))
	assert.Equal(t, []int{2}, ids(l.Entries()))

	require.NoError(t, l.ReplaceAt(0, nil))
	assert.Equal(t, []int{2}, ids(l.Entries()), "the only row stays")
	assert.Equal(t, 1, rec.count())
}

func TestMoveRoundTrip(t *testing.T) {
	l, rec := newList(entry(1, 1), entry(2, 1), entry(3, 1), entry(4, 1))

	require.NoError(t, l.Move(0, 2))
	assert.Equal(t, []int{2, 3, 1, 4}, ids(l.Entries()))
	require.NoError(t, l.Move(2, 0))
	assert.Equal(t, []int{1, 2, 3, 4}, ids(l.Entries()))
	assert.Equal(t, 2, rec.count())

	require.NoError(t, l.Move(1, 1))
	assert.Equal(t, 2, rec.count())
	assert.ErrorIs(t, l.Move(0, 4), ErrIndexOutOfRange)
}

func TestMoveVariant(t *testing.T) {
	l, _ := newList(entry(1, 10, 11, 12, 13), entry(2, 20, 21))

	require.NoError(t, l.MoveVariant(0, 3, 0))
	entries := l.Entries()
	assert.Equal(t, []int{13, 10, 11, 12}, variantIDs(entries[0]))
	assert.Equal(t, []int{20, 21}, variantIDs(entries[1]))
	assert.ErrorIs(t, l.MoveVariant(1, 0, 2), ErrIndexOutOfRange)
}

func TestProductGestureMovesLive(t *testing.T) {
	l, rec := newList(entry(1, 1), entry(2, 1), entry(3, 1), entry(4, 1), entry(5, 1))
	g := l.ProductGesture()

	g.Begin(0)
	for _, i := range []int{2, 3, 4} {
		require.NoError(t, g.Hover(i))
	}
	g.End()

	assert.Equal(t, []int{2, 3, 4, 5, 1}, ids(l.Entries()))
	assert.Equal(t, 3, rec.count(), "every hover is a real reorder")
}

func TestDragItemsFollowTheList(t *testing.T) {
	l, _ := newList(entry(1, 1), entry(2, 1), entry(3, 1))

	items := l.ProductItems()
	items[2].DragStart()
	require.NoError(t, items[0].DragOver())
	items[0].DragEnd()
	assert.Equal(t, []int{3, 1, 2}, ids(l.Entries()))

	items = l.ProductItems()
	assert.Equal(t, l.Entries()[0].Key, items[0].ID)
}

func TestVariantGestureStaysInsideItsProduct(t *testing.T) {
	l, _ := newList(entry(1, 10, 11, 12), entry(2, 20, 21, 22))
	pg, vg := l.ProductGesture(), l.VariantGesture()

	items, err := l.VariantItems(1)
	require.NoError(t, err)
	items[0].DragStart()
	require.NoError(t, vg.Hover(0, 2), "other product's variants are ignored")
	require.NoError(t, pg.Hover(1), "product level is idle")
	require.NoError(t, items[2].DragOver())
	items[2].DragEnd()

	entries := l.Entries()
	assert.Equal(t, []int{1, 2}, ids(entries))
	assert.Equal(t, []int{10, 11, 12}, variantIDs(entries[0]))
	assert.Equal(t, []int{21, 22, 20}, variantIDs(entries[1]))

	_, err = l.VariantItems(9)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestDiscountEditorFollowsEntryIdentity(t *testing.T) {
	l, rec := newList(entry(1, 10, 11), entry(2, 20), entry(3, 30))

	require.NoError(t, l.ToggleDiscountEditor(0))
	require.NoError(t, l.ToggleVariantDiscountEditor(0, 1))
	assert.True(t, l.DiscountEditorOpen(0))
	assert.True(t, l.VariantDiscountEditorOpen(0, 1))
	assert.Nil(t, l.Entries()[0].Discount, "opening the editor creates no discount")
	assert.Zero(t, rec.count())

	require.NoError(t, l.Move(0, 2))
	assert.False(t, l.DiscountEditorOpen(0))
	assert.True(t, l.DiscountEditorOpen(2))
	assert.True(t, l.VariantDiscountEditorOpen(2, 1))
	assert.False(t, l.VariantDiscountEditorOpen(2, 0))

	require.NoError(t, l.MoveVariant(2, 1, 0))
	assert.True(t, l.VariantDiscountEditorOpen(2, 0))

	require.NoError(t, l.ToggleDiscountEditor(2))
	assert.False(t, l.DiscountEditorOpen(2))

	assert.ErrorIs(t, l.ToggleDiscountEditor(7), ErrIndexOutOfRange)
	assert.ErrorIs(t, l.ToggleVariantDiscountEditor(0, 5), ErrIndexOutOfRange)
	assert.False(t, l.DiscountEditorOpen(7))
}

func TestDiscountEditorPrunedOnRemoval(t *testing.T) {
	l, _ := newList(entry(1, 10, 11), entry(2, 20))

	require.NoError(t, l.ToggleDiscountEditor(0))
	require.NoError(t, l.ToggleVariantDiscountEditor(0, 0))
	require.NoError(t, l.RemoveVariant(0, 0))
	_, open := l.editors[editorKey{entry: l.Entries()[0].Key, variant: true, variantID: 10}]
	assert.False(t, open)
	assert.Len(t, l.editors, 1)

	require.NoError(t, l.Remove(0))
	assert.Empty(t, l.editors)
	assert.False(t, l.DiscountEditorOpen(0))
}

type stubCatalog struct {
	products []model.Product
}

func (s *stubCatalog) Search(ctx context.Context, f *dto.SearchFilters) ([]model.Product, error) {
	if f.Page > 1 {
		return []model.Product{}, nil
	}
	return s.products, nil
}

func pickerList(t *testing.T, rec *recorder, initial ...model.SelectedEntry) *List {
	t.Helper()
	cat := &stubCatalog{products: []model.Product{
		entry(24, 1, 2, 3).Product,
		entry(25, 1).Product,
	}}
	return New(logger.NewNop(), Options{
		OnChange: rec.record,
		Catalog:  cat,
		Picker:   picker.Options{Dispatch: func(f func()) { f() }},
	}, initial...)
}

func TestOpenPickerConfirmReplacesSlot(t *testing.T) {
	rec := &recorder{}
	l := pickerList(t, rec, entry(1, 1), model.Placeholder(), entry(3, 1))

	session, err := l.OpenPicker(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, session.State().Products, 2)

	_, err = l.OpenPicker(context.Background(), 0)
	assert.ErrorIs(t, err, ErrPickerOpen)

	require.NoError(t, session.ToggleVariant(2, 24))
	require.NoError(t, session.ToggleProduct(25))

	// The slot is tracked by identity, not by position.
	require.NoError(t, l.Move(1, 0))

	_, err = session.Confirm()
	require.NoError(t, err)

	entries := l.Entries()
	assert.Equal(t, []int{24, 25, 1, 3}, ids(entries))
	assert.Equal(t, []int{2}, variantIDs(entries[0]))
	assert.Equal(t, 2, rec.count())

	_, open := l.Picker()
	assert.False(t, open)
	_, err = l.OpenPicker(context.Background(), 0)
	assert.NoError(t, err)
}

func TestOpenPickerCancelLeavesList(t *testing.T) {
	rec := &recorder{}
	closed := false
	cat := &stubCatalog{products: []model.Product{entry(24, 1).Product}}
	l := New(logger.NewNop(), Options{
		OnChange: rec.record,
		Catalog:  cat,
		Picker: picker.Options{
			Dispatch: func(f func()) { f() },
			OnClose:  func() { closed = true },
		},
	})

	session, err := l.OpenPicker(context.Background(), 0)
	require.NoError(t, err)
	require.NoError(t, session.ToggleProduct(24))
	session.Cancel()

	assert.True(t, closed)
	assert.Zero(t, rec.count())
	assert.True(t, l.Entries()[0].IsPlaceholder())
	_, open := l.Picker()
	assert.False(t, open)
}

func TestOpenPickerRequiresCatalog(t *testing.T) {
	l, _ := newList()
	_, err := l.OpenPicker(context.Background(), 0)
	assert.ErrorIs(t, err, ErrNoCatalog)
}

func TestRowsReportOpenEditors(t *testing.T) {
	l, _ := newList(entry(1, 10, 11), entry(2, 20))
	require.NoError(t, l.ToggleVariantDiscountEditor(0, 1))
	require.NoError(t, l.ToggleDiscountEditor(1))

	rows := l.Rows()
	require.Len(t, rows, 2)
	assert.False(t, rows[0].EditorOpen)
	assert.Equal(t, []int{11}, rows[0].OpenVariantEditors)
	assert.True(t, rows[1].EditorOpen)
	assert.Empty(t, rows[1].OpenVariantEditors)
}
