// Package drag is the reorder primitive shared by the product list and the
// variant lists nested inside it.
//
// A drag is modelled as begin(index), hover(index)..., end(). Every hover over
// a different index performs the move immediately and the dragged token
// follows the item, so intermediate positions are real reorders.
package drag

import (
	"errors"
	"sync"
)

var ErrIndexOutOfRange = errors.New("index out of range")

// Move returns a new slice with the element at from relocated to to. Items
// between the two positions shift by one; the input is never modified.
func Move[T any](items []T, from, to int) []T {
	out := make([]T, 0, len(items))
	moved := items[from]
	for i, it := range items {
		if i != from {
			out = append(out, it)
		}
	}
	out = append(out, moved) // grow by one, then shift right of to
	copy(out[to+1:], out[to:len(out)-1])
	out[to] = moved
	return out
}

// MoveChecked is Move with bounds checking.
func MoveChecked[T any](items []T, from, to int) ([]T, error) {
	if from < 0 || from >= len(items) || to < 0 || to >= len(items) {
		return nil, ErrIndexOutOfRange
	}
	return Move(items, from, to), nil
}

// Mover performs the actual reorder on the owning list.
type Mover func(from, to int) error

// Gesture tracks the currently dragged index for one list level.
type Gesture struct {
	mu      sync.Mutex
	move    Mover
	dragged int
	active  bool
}

func NewGesture(move Mover) *Gesture {
	return &Gesture{move: move}
}

func (g *Gesture) Begin(index int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dragged = index
	g.active = true
}

// Hover moves the dragged item to index and makes index the new dragged
// position. It does nothing outside a gesture or over the dragged item.
func (g *Gesture) Hover(index int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.active || g.dragged == index {
		return nil
	}
	if err := g.move(g.dragged, index); err != nil {
		return err
	}
	g.dragged = index
	return nil
}

func (g *Gesture) End() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.active = false
	g.dragged = 0
}

func (g *Gesture) Dragged() (int, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dragged, g.active
}

// ScopedMover reorders inside one scope, e.g. one product's variants.
type ScopedMover func(scope, from, to int) error

// ScopedGesture is the nested form of Gesture. Hovers outside the scope the
// drag started in are ignored.
type ScopedGesture struct {
	mu      sync.Mutex
	move    ScopedMover
	scope   int
	dragged int
	active  bool
}

func NewScopedGesture(move ScopedMover) *ScopedGesture {
	return &ScopedGesture{move: move}
}

func (g *ScopedGesture) Begin(scope, index int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scope = scope
	g.dragged = index
	g.active = true
}

func (g *ScopedGesture) Hover(scope, index int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.active || scope != g.scope || g.dragged == index {
		return nil
	}
	if err := g.move(g.scope, g.dragged, index); err != nil {
		return err
	}
	g.dragged = index
	return nil
}

func (g *ScopedGesture) End() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.active = false
	g.scope, g.dragged = 0, 0
}

func (g *ScopedGesture) Dragged() (scope, index int, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.scope, g.dragged, g.active
}

// Item binds a stable identity and its current index to a gesture. It keeps
// no state of its own; the owner rebuilds items whenever the list changes.
type Item struct {
	ID      string
	Index   int
	gesture *Gesture
}

func (g *Gesture) Item(id string, index int) Item {
	return Item{ID: id, Index: index, gesture: g}
}

func (it Item) DragStart()      { it.gesture.Begin(it.Index) }
func (it Item) DragOver() error { return it.gesture.Hover(it.Index) }
func (it Item) DragEnd()        { it.gesture.End() }

// ScopedItem is Item for a nested list.
type ScopedItem struct {
	ID      string
	Scope   int
	Index   int
	gesture *ScopedGesture
}

func (g *ScopedGesture) Item(id string, scope, index int) ScopedItem {
	return ScopedItem{ID: id, Scope: scope, Index: index, gesture: g}
}

func (it ScopedItem) DragStart()      { it.gesture.Begin(it.Scope, it.Index) }
func (it ScopedItem) DragOver() error { return it.gesture.Hover(it.Scope, it.Index) }
func (it ScopedItem) DragEnd()        { it.gesture.End() }
