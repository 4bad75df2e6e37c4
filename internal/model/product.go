package model

type Image struct {
	ID        int    `db:"id" json:"id"`
	ProductID int    `db:"product_id" json:"product_id"`
	Src       string `db:"src" json:"src"`
}

// Product is a read-only snapshot of a catalog item at fetch time.
type Product struct {
	ID       int       `db:"id" json:"id"`
	Title    string    `db:"title" json:"title"`
	Image    Image     `db:"-" json:"image"`
	Variants []Variant `db:"-" json:"variants"` // Loaded separately
}

// Variant ids are only unique within their parent product.
type Variant struct {
	ID        int       `db:"id" json:"id"`
	ProductID int       `db:"product_id" json:"product_id"`
	Title     string    `db:"title" json:"title"`
	Price     string    `db:"price" json:"price"`
	Discount  *Discount `db:"-" json:"discount,omitempty"`
}

// SelectedEntry is one row of the edited list.
type SelectedEntry struct {
	Product
	Key          string    `json:"key"`
	Discount     *Discount `json:"discount,omitempty"`
	ShowVariants bool      `json:"showVariants"`
}

// Placeholder is the sentinel row shown before a product has been chosen.
func Placeholder() SelectedEntry {
	return SelectedEntry{Product: Product{Variants: []Variant{}}}
}

func (e SelectedEntry) IsPlaceholder() bool {
	return e.ID == 0
}

// Clone deep-copies the variant list and every discount so the copy can be
// edited without touching the original.
func (e SelectedEntry) Clone() SelectedEntry {
	out := e
	out.Discount = e.Discount.clone()
	out.Variants = make([]Variant, len(e.Variants))
	for i, v := range e.Variants {
		v.Discount = v.Discount.clone()
		out.Variants[i] = v
	}
	return out
}

// NewEntry turns a catalog product into a list row. Variants are copied.
func NewEntry(p Product) SelectedEntry {
	return SelectedEntry{Product: p}.Clone()
}

func (p Product) VariantIndex(variantID int) int {
	for i, v := range p.Variants {
		if v.ID == variantID {
			return i
		}
	}
	return -1
}
