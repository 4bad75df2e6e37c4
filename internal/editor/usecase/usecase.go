package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/fekuna/omnipos-product-picker/internal/apperr"
	"github.com/fekuna/omnipos-product-picker/internal/catalog"
	"github.com/fekuna/omnipos-product-picker/internal/editor"
	"github.com/fekuna/omnipos-product-picker/internal/editor/dto"
	"github.com/fekuna/omnipos-product-picker/internal/model"
	"github.com/fekuna/omnipos-product-picker/internal/picker"
	"github.com/fekuna/omnipos-product-picker/internal/pkg/logger"
	"github.com/fekuna/omnipos-product-picker/internal/productlist"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrListNotFound = apperr.NewNotFound("Product list not found")
	ErrNoPicker     = apperr.NewFailedPrecondition("No product picker is open")
)

const publishTimeout = 5 * time.Second

type editorUseCase struct {
	mu    sync.RWMutex
	lists map[string]*productlist.List

	ctx        context.Context
	catalog    catalog.UseCase
	publisher  editor.Publisher
	pickerOpts picker.Options
	logger     logger.ZapLogger
}

// NewEditorUseCase keeps lists in memory for the lifetime of ctx. Picker
// sessions are bound to ctx rather than to the request that opened them.
func NewEditorUseCase(ctx context.Context, cat catalog.UseCase, pub editor.Publisher, pickerOpts picker.Options, log logger.ZapLogger) editor.UseCase {
	return &editorUseCase{
		lists:      make(map[string]*productlist.List),
		ctx:        ctx,
		catalog:    cat,
		publisher:  pub,
		pickerOpts: pickerOpts,
		logger:     log,
	}
}

func (uc *editorUseCase) CreateList(ctx context.Context) (*dto.ListView, error) {
	id := uuid.New().String()
	list := productlist.New(uc.logger.With(zap.String("list_id", id)), productlist.Options{
		OnChange: func(entries []model.SelectedEntry) { uc.publish(id, entries) },
		Catalog:  uc.catalog,
		Picker:   uc.pickerOpts,
	})

	uc.mu.Lock()
	uc.lists[id] = list
	uc.mu.Unlock()

	uc.logger.Info("product list created", zap.String("list_id", id))
	return view(id, list), nil
}

func (uc *editorUseCase) get(id string) (*productlist.List, error) {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	list, ok := uc.lists[id]
	if !ok {
		return nil, ErrListNotFound
	}
	return list, nil
}

func (uc *editorUseCase) GetList(ctx context.Context, id string) (*dto.ListView, error) {
	list, err := uc.get(id)
	if err != nil {
		return nil, err
	}
	return view(id, list), nil
}

func (uc *editorUseCase) DeleteList(ctx context.Context, id string) error {
	uc.mu.Lock()
	list, ok := uc.lists[id]
	delete(uc.lists, id)
	uc.mu.Unlock()
	if !ok {
		return ErrListNotFound
	}
	if session, open := list.Picker(); open {
		session.Cancel()
	}
	return nil
}

// mutate applies fn to the list and returns the resulting view.
func (uc *editorUseCase) mutate(id string, fn func(*productlist.List) error) (*dto.ListView, error) {
	list, err := uc.get(id)
	if err != nil {
		return nil, err
	}
	if err := fn(list); err != nil {
		return nil, err
	}
	return view(id, list), nil
}

func (uc *editorUseCase) Append(ctx context.Context, id string) (*dto.ListView, error) {
	return uc.mutate(id, func(l *productlist.List) error {
		l.Append()
		return nil
	})
}

func (uc *editorUseCase) Remove(ctx context.Context, id string, index int) (*dto.ListView, error) {
	return uc.mutate(id, func(l *productlist.List) error { return l.Remove(index) })
}

func (uc *editorUseCase) RemoveVariant(ctx context.Context, id string, index, variantIndex int) (*dto.ListView, error) {
	return uc.mutate(id, func(l *productlist.List) error { return l.RemoveVariant(index, variantIndex) })
}

func (uc *editorUseCase) ToggleShowVariants(ctx context.Context, id string, index int) (*dto.ListView, error) {
	return uc.mutate(id, func(l *productlist.List) error { return l.ToggleShowVariants(index) })
}

func (uc *editorUseCase) SetDiscount(ctx context.Context, id string, input *dto.SetDiscountInput) (*dto.ListView, error) {
	typ := model.DiscountType(input.Type)
	return uc.mutate(id, func(l *productlist.List) error {
		if input.VariantIndex != nil {
			return l.SetVariantDiscount(input.Index, *input.VariantIndex, input.Value, typ)
		}
		return l.SetDiscount(input.Index, input.Value, typ)
	})
}

func (uc *editorUseCase) ToggleDiscountEditor(ctx context.Context, id string, input *dto.EditorInput) (*dto.ListView, error) {
	return uc.mutate(id, func(l *productlist.List) error {
		if input.VariantIndex != nil {
			return l.ToggleVariantDiscountEditor(input.Index, *input.VariantIndex)
		}
		return l.ToggleDiscountEditor(input.Index)
	})
}

func (uc *editorUseCase) Move(ctx context.Context, id string, input *dto.MoveInput) (*dto.ListView, error) {
	return uc.mutate(id, func(l *productlist.List) error {
		if input.Variants {
			return l.MoveVariant(input.Index, input.From, input.To)
		}
		return l.Move(input.From, input.To)
	})
}

func (uc *editorUseCase) OpenPicker(ctx context.Context, id string, index int) (*picker.State, error) {
	list, err := uc.get(id)
	if err != nil {
		return nil, err
	}
	session, err := list.OpenPicker(uc.ctx, index)
	if err != nil {
		return nil, err
	}
	st := session.State()
	return &st, nil
}

func (uc *editorUseCase) session(id string) (*picker.Session, error) {
	list, err := uc.get(id)
	if err != nil {
		return nil, err
	}
	session, ok := list.Picker()
	if !ok {
		return nil, ErrNoPicker
	}
	return session, nil
}

func (uc *editorUseCase) PickerState(ctx context.Context, id string) (*picker.State, error) {
	session, err := uc.session(id)
	if err != nil {
		return nil, err
	}
	st := session.State()
	return &st, nil
}

func (uc *editorUseCase) SetQuery(ctx context.Context, id, query string) (*picker.State, error) {
	session, err := uc.session(id)
	if err != nil {
		return nil, err
	}
	if err := session.SetQuery(query); err != nil {
		return nil, err
	}
	st := session.State()
	return &st, nil
}

func (uc *editorUseCase) LoadMore(ctx context.Context, id string) (*picker.State, error) {
	session, err := uc.session(id)
	if err != nil {
		return nil, err
	}
	session.LoadMore()
	st := session.State()
	return &st, nil
}

func (uc *editorUseCase) TogglePickerProduct(ctx context.Context, id string, input *dto.ToggleInput) (*picker.State, error) {
	session, err := uc.session(id)
	if err != nil {
		return nil, err
	}
	if input.VariantID != nil {
		err = session.ToggleVariant(*input.VariantID, input.ProductID)
	} else {
		err = session.ToggleProduct(input.ProductID)
	}
	if err != nil {
		return nil, err
	}
	st := session.State()
	return &st, nil
}

func (uc *editorUseCase) ConfirmPicker(ctx context.Context, id string) (*dto.ListView, error) {
	session, err := uc.session(id)
	if err != nil {
		return nil, err
	}
	if _, err := session.Confirm(); err != nil {
		return nil, err
	}
	return uc.GetList(ctx, id)
}

func (uc *editorUseCase) CancelPicker(ctx context.Context, id string) error {
	session, err := uc.session(id)
	if err != nil {
		return err
	}
	session.Cancel()
	return nil
}

func (uc *editorUseCase) publish(id string, entries []model.SelectedEntry) {
	if uc.publisher == nil {
		return
	}
	event := &dto.ListChangedEvent{
		EventID:   uuid.New().String(),
		EventType: dto.EventListChanged,
		ListID:    id,
		Entries:   entries,
		Timestamp: time.Now().UTC(),
	}
	ctx, cancel := context.WithTimeout(uc.ctx, publishTimeout)
	defer cancel()
	if err := uc.publisher.PublishListChanged(ctx, event); err != nil {
		uc.logger.Error("failed to publish list change", zap.String("list_id", id), zap.Error(err))
	}
}

func view(id string, list *productlist.List) *dto.ListView {
	rows := list.Rows()
	v := &dto.ListView{ID: id, Entries: make([]dto.EntryView, len(rows))}
	_, v.PickerOpen = list.Picker()
	for i, row := range rows {
		entry := dto.EntryView{
			SelectedEntry:      row.Entry,
			DiscountEditorOpen: row.EditorOpen,
			VariantEditorsOpen: row.OpenVariantEditors,
		}
		if prices, err := row.Entry.DiscountedPrices(); err == nil && len(prices) > 0 {
			entry.DiscountedPrices = make(map[int]string, len(prices))
			for variantID, p := range prices {
				entry.DiscountedPrices[variantID] = p.StringFixed(2)
			}
		}
		v.Entries[i] = entry
	}
	return v
}
