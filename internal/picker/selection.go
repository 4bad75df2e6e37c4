package picker

import (
	"encoding/json"
	"sort"

	"github.com/fekuna/omnipos-product-picker/internal/model"
)

// VariantKey identifies a variant across products; variant ids alone are
// only unique inside one product.
type VariantKey struct {
	ProductID int `json:"productId"`
	VariantID int `json:"variantId"`
}

// Selection is the transient multi-select state of an open session. It is
// never modified in place: every toggle returns a new value.
//
// A product is selected iff at least one of its variants is selected, or it
// has no variants and was toggled on explicitly.
type Selection struct {
	order    []int
	products map[int]model.Product
	variants map[VariantKey]struct{}
}

func (s Selection) clone() Selection {
	out := Selection{
		order:    append([]int(nil), s.order...),
		products: make(map[int]model.Product, len(s.products)),
		variants: make(map[VariantKey]struct{}, len(s.variants)),
	}
	for k, v := range s.products {
		out.products[k] = v
	}
	for k := range s.variants {
		out.variants[k] = struct{}{}
	}
	return out
}

func (s Selection) IsProductSelected(productID int) bool {
	_, ok := s.products[productID]
	return ok
}

func (s Selection) IsVariantSelected(productID, variantID int) bool {
	_, ok := s.variants[VariantKey{ProductID: productID, VariantID: variantID}]
	return ok
}

// ProductIDs returns selected product ids in selection order.
func (s Selection) ProductIDs() []int {
	return append([]int{}, s.order...)
}

func (s Selection) Len() int {
	return len(s.order)
}

// snapshot returns the product captured when it was selected.
func (s Selection) snapshot(productID int) (model.Product, bool) {
	p, ok := s.products[productID]
	return p, ok
}

// ToggleProduct selects p with all of its variants, or deselects it and
// drops every one of its variants.
func (s Selection) ToggleProduct(p model.Product) Selection {
	out := s.clone()
	if s.IsProductSelected(p.ID) {
		out.removeProduct(p.ID)
		for k := range out.variants {
			if k.ProductID == p.ID {
				delete(out.variants, k)
			}
		}
		return out
	}

	out.addProduct(p)
	for _, v := range p.Variants {
		out.variants[VariantKey{ProductID: p.ID, VariantID: v.ID}] = struct{}{}
	}
	return out
}

// ToggleVariant flips one variant. Selecting it always selects its product;
// deselecting it drops the product only when no sibling is left.
func (s Selection) ToggleVariant(p model.Product, variantID int) (Selection, error) {
	if p.VariantIndex(variantID) < 0 {
		return s, ErrUnknownVariant
	}
	key := VariantKey{ProductID: p.ID, VariantID: variantID}
	out := s.clone()

	if _, ok := out.variants[key]; !ok {
		out.variants[key] = struct{}{}
		if !out.IsProductSelected(p.ID) {
			out.addProduct(p)
		}
		return out, nil
	}

	delete(out.variants, key)
	for k := range out.variants {
		if k.ProductID == p.ID {
			return out, nil
		}
	}
	out.removeProduct(p.ID)
	return out, nil
}

func (s *Selection) addProduct(p model.Product) {
	s.products[p.ID] = p
	s.order = append(s.order, p.ID)
}

func (s *Selection) removeProduct(id int) {
	delete(s.products, id)
	for i, pid := range s.order {
		if pid == id {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
}

// Entries materialises the selection in selection order. Each product keeps
// only its selected variants, in their original relative order.
func (s Selection) Entries() []model.SelectedEntry {
	out := make([]model.SelectedEntry, 0, len(s.order))
	for _, id := range s.order {
		p := s.products[id]
		variants := make([]model.Variant, 0, len(p.Variants))
		for _, v := range p.Variants {
			if s.IsVariantSelected(p.ID, v.ID) {
				variants = append(variants, v)
			}
		}
		p.Variants = variants
		out = append(out, model.NewEntry(p))
	}
	return out
}

func (s Selection) consistent() bool {
	for k := range s.variants {
		if !s.IsProductSelected(k.ProductID) {
			return false
		}
	}
	for id, p := range s.products {
		if len(p.Variants) == 0 {
			continue
		}
		found := false
		for _, v := range p.Variants {
			if s.IsVariantSelected(id, v.ID) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return len(s.order) == len(s.products)
}

func (s Selection) MarshalJSON() ([]byte, error) {
	variants := make([]VariantKey, 0, len(s.variants))
	for k := range s.variants {
		variants = append(variants, k)
	}
	sort.Slice(variants, func(i, j int) bool {
		if variants[i].ProductID != variants[j].ProductID {
			return variants[i].ProductID < variants[j].ProductID
		}
		return variants[i].VariantID < variants[j].VariantID
	})
	return json.Marshal(struct {
		ProductIDs []int        `json:"productIds"`
		Variants   []VariantKey `json:"variants"`
	}{
		ProductIDs: s.ProductIDs(),
		Variants:   variants,
	})
}
