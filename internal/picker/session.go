package picker

import (
	"context"
	"sync"
	"time"

	"github.com/fekuna/omnipos-product-picker/internal/catalog"
	"github.com/fekuna/omnipos-product-picker/internal/model"
	"github.com/fekuna/omnipos-product-picker/internal/pkg/logger"
	"go.uber.org/zap"
)

const (
	DefaultPageSize = 10
	DefaultDebounce = 300 * time.Millisecond
)

type Options struct {
	PageSize int
	Debounce time.Duration

	// Scheduler runs the debounce timer. Defaults to the wall clock.
	Scheduler Scheduler
	// Dispatch runs catalog fetches. Defaults to a new goroutine per fetch.
	Dispatch func(func())

	OnChange           func(State)
	OnProductsSelected func([]model.SelectedEntry)
	OnClose            func()
}

// Session is one open search-and-select interaction. All methods are safe
// for concurrent use; callbacks are invoked without the lock held.
type Session struct {
	mu      sync.Mutex
	state   State
	timer   Timer
	ctx     context.Context
	cancel  context.CancelFunc
	catalog catalog.UseCase
	opts    Options
	logger  logger.ZapLogger
}

func NewSession(ctx context.Context, uc catalog.UseCase, log logger.ZapLogger, opts Options) *Session {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Scheduler == nil {
		opts.Scheduler = ClockScheduler()
	}
	if opts.Dispatch == nil {
		opts.Dispatch = func(f func()) { go f() }
	}
	if log == nil {
		log = logger.NewNop()
	}

	ctx, cancel := context.WithCancel(ctx)
	return &Session{
		state:   newState(opts.PageSize),
		ctx:     ctx,
		cancel:  cancel,
		catalog: uc,
		opts:    opts,
		logger:  log,
	}
}

// Start loads the first page of the unfiltered catalog without waiting for
// the debounce window. It only acts on an idle session.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.state.Phase == PhaseClosed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.state.Phase != PhaseIdle {
		s.mu.Unlock()
		return nil
	}
	next, req := s.state.startSearch(s.state.Query).searchRequest()
	s.state = next
	s.mu.Unlock()

	s.notify(next)
	s.opts.Dispatch(func() { s.run(req) })
	return nil
}

// SetQuery resets the result list and (re)starts the debounce timer. Only the
// last query of a quiet interval reaches the catalog. Repeating the current
// query is a no-op unless the last fetch failed.
func (s *Session) SetQuery(query string) error {
	s.mu.Lock()
	if s.state.Phase == PhaseClosed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if query == s.state.Query && s.state.Phase != PhaseIdle && s.state.Phase != PhaseFailed {
		s.mu.Unlock()
		return nil
	}

	if s.timer != nil {
		s.timer.Stop()
	}
	s.state = s.state.startSearch(query)
	generation := s.state.Generation
	s.timer = s.opts.Scheduler.AfterFunc(s.opts.Debounce, func() { s.fire(generation) })
	next := s.state
	s.mu.Unlock()

	s.notify(next)
	return nil
}

func (s *Session) fire(generation uint64) {
	s.mu.Lock()
	if s.state.Phase == PhaseClosed || s.state.Generation != generation || !s.state.Debouncing {
		s.mu.Unlock()
		return
	}
	next, req := s.state.searchRequest()
	s.state = next
	s.timer = nil
	s.mu.Unlock()

	s.notify(next)
	s.opts.Dispatch(func() { s.run(req) })
}

// LoadMore requests the next page. It reports whether a fetch was issued;
// it is ignored while a search is pending, a fetch is in flight, the last
// page has been seen or the previous fetch failed.
func (s *Session) LoadMore() bool {
	s.mu.Lock()
	if s.state.Phase == PhaseClosed {
		s.mu.Unlock()
		return false
	}
	next, req, ok := s.state.loadMoreRequest()
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.state = next
	s.mu.Unlock()

	s.notify(next)
	s.opts.Dispatch(func() { s.run(req) })
	return true
}

func (s *Session) run(req fetch) {
	filters := req.filters
	products, err := s.catalog.Search(s.ctx, &filters)

	s.mu.Lock()
	if s.state.Phase == PhaseClosed {
		s.mu.Unlock()
		return
	}
	next, applied := s.state.applyResult(req, products, err)
	if !applied {
		current := s.state.Generation
		s.mu.Unlock()
		s.logger.Debug("discarding stale catalog result",
			zap.Uint64("generation", req.generation),
			zap.Uint64("current_generation", current),
			zap.String("query", filters.Search),
			zap.Int("page", filters.Page),
		)
		return
	}
	s.state = next
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("catalog fetch failed",
			zap.String("query", filters.Search),
			zap.Int("page", filters.Page),
			zap.Error(err),
		)
	}
	s.notify(next)
}

func (s *Session) ToggleProduct(productID int) error {
	s.mu.Lock()
	if s.state.Phase == PhaseClosed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	p, ok := s.state.product(productID)
	if !ok {
		s.mu.Unlock()
		return ErrUnknownProduct
	}
	s.state.Selection = s.state.Selection.ToggleProduct(p)
	next := s.state
	s.mu.Unlock()

	s.notify(next)
	return nil
}

func (s *Session) ToggleVariant(variantID, productID int) error {
	s.mu.Lock()
	if s.state.Phase == PhaseClosed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	p, ok := s.state.product(productID)
	if !ok {
		s.mu.Unlock()
		return ErrUnknownProduct
	}
	selection, err := s.state.Selection.ToggleVariant(p, variantID)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.state.Selection = selection
	next := s.state
	s.mu.Unlock()

	s.notify(next)
	return nil
}

// Confirm closes the session and hands the selected products, with their
// variants filtered to the selected ones, to OnProductsSelected.
func (s *Session) Confirm() ([]model.SelectedEntry, error) {
	s.mu.Lock()
	if s.state.Phase == PhaseClosed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	entries := s.state.Selection.Entries()
	next := s.closeLocked()
	s.mu.Unlock()

	s.notify(next)
	if s.opts.OnProductsSelected != nil {
		s.opts.OnProductsSelected(entries)
	}
	return entries, nil
}

// Cancel closes the session and drops the selection. Calling it on a closed
// session does nothing.
func (s *Session) Cancel() {
	s.mu.Lock()
	if s.state.Phase == PhaseClosed {
		s.mu.Unlock()
		return
	}
	next := s.closeLocked()
	s.mu.Unlock()

	s.notify(next)
	if s.opts.OnClose != nil {
		s.opts.OnClose()
	}
}

func (s *Session) closeLocked() State {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.cancel()
	s.state = s.state.close()
	return s.state
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Phase == PhaseClosed
}

func (s *Session) notify(st State) {
	if s.opts.OnChange != nil {
		s.opts.OnChange(st)
	}
}
