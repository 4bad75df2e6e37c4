package picker

import (
	"github.com/fekuna/omnipos-product-picker/internal/catalog/dto"
	"github.com/fekuna/omnipos-product-picker/internal/model"
)

type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseSearching   Phase = "searching"
	PhaseLoaded      Phase = "loaded"
	PhaseLoadingMore Phase = "loading_more"
	PhaseExhausted   Phase = "exhausted"
	PhaseFailed      Phase = "failed"
	PhaseClosed      Phase = "closed"
)

// State is the complete, serializable state of one picker session. The
// transition methods below take a State by value and return the next one;
// they never modify the receiver's slices or selection.
type State struct {
	Phase      Phase           `json:"phase"`
	Query      string          `json:"query"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	Products   []model.Product `json:"products"`
	HasMore    bool            `json:"hasMore"`
	Debouncing bool            `json:"debouncing"`
	Err        string          `json:"error,omitempty"`
	Generation uint64          `json:"generation"`
	Selection  Selection       `json:"selection"`
}

// fetch is one outstanding catalog request, stamped with the generation
// it was issued for.
type fetch struct {
	generation uint64
	filters    dto.SearchFilters
	append     bool
}

func newState(limit int) State {
	return State{
		Phase:    PhaseIdle,
		Limit:    limit,
		Products: []model.Product{},
	}
}

// startSearch enters Searching(query, page=1) for a new generation. The
// current product list and any in-flight page are abandoned.
func (s State) startSearch(query string) State {
	s.Generation++
	s.Query = query
	s.Page = 1
	s.Products = []model.Product{}
	s.HasMore = false
	s.Debouncing = true
	s.Err = ""
	s.Phase = PhaseSearching
	return s
}

// searchRequest ends the debounce window and issues the page-1 fetch.
func (s State) searchRequest() (State, fetch) {
	s.Debouncing = false
	s.Phase = PhaseSearching
	return s, fetch{
		generation: s.Generation,
		filters:    dto.SearchFilters{Search: s.Query, Page: 1, Limit: s.Limit},
	}
}

func (s State) canLoadMore() bool {
	return s.Phase == PhaseLoaded && s.HasMore && !s.Debouncing && s.Err == ""
}

// loadMoreRequest issues the next page when the list is fully loaded and
// more data exists. ok is false when the trigger must be ignored.
func (s State) loadMoreRequest() (next State, req fetch, ok bool) {
	if !s.canLoadMore() {
		return s, fetch{}, false
	}
	s.Phase = PhaseLoadingMore
	return s, fetch{
		generation: s.Generation,
		filters:    dto.SearchFilters{Search: s.Query, Page: s.Page + 1, Limit: s.Limit},
		append:     true,
	}, true
}

// applyResult folds a finished fetch into the state. Results from another
// generation, or that the state is no longer waiting for, are discarded and
// applied is false.
func (s State) applyResult(req fetch, products []model.Product, err error) (next State, applied bool) {
	if req.generation != s.Generation {
		return s, false
	}
	if req.append {
		if s.Phase != PhaseLoadingMore || req.filters.Page != s.Page+1 {
			return s, false
		}
	} else if s.Phase != PhaseSearching || s.Debouncing {
		return s, false
	}

	if err != nil {
		s.Phase = PhaseFailed
		s.Err = FetchFailedMessage
		return s, true
	}

	if req.append {
		s.Products = appendUnique(s.Products, products)
	} else {
		s.Products = appendUnique(nil, products)
	}
	s.Page = req.filters.Page
	s.HasMore = len(products) == req.filters.Limit
	if s.HasMore {
		s.Phase = PhaseLoaded
	} else {
		s.Phase = PhaseExhausted
	}
	return s, true
}

func (s State) close() State {
	s.Phase = PhaseClosed
	s.Debouncing = false
	s.Selection = Selection{}
	return s
}

// product looks a product up in the loaded results, then in the selection
// snapshots so products from an earlier query can still be deselected.
func (s State) product(id int) (model.Product, bool) {
	for _, p := range s.Products {
		if p.ID == id {
			return p, true
		}
	}
	return s.Selection.snapshot(id)
}

// appendUnique returns a new slice with next appended to prev, skipping
// product ids already present.
func appendUnique(prev, next []model.Product) []model.Product {
	out := make([]model.Product, 0, len(prev)+len(next))
	seen := make(map[int]struct{}, len(prev)+len(next))
	for _, p := range prev {
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	for _, p := range next {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}
