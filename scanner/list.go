package scanner

import (
	"sync"

	"github.com/lucafab/magazzino/catalog"
)

// List is the scan-session product list. It is explicitly owned by the
// workflow that created it and scoped to one scan session; concurrent
// sessions each hold their own. It doubles as the reconciliation mirror,
// receiving optimistic copies of saved drafts.
type List struct {
	lock     sync.RWMutex
	products []catalog.Product
}

func NewList() *List {
	return &List{}
}

// Add appends a product to the session list.
func (l *List) Add(product catalog.Product) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.products = append(l.products, product)
}

// Update replaces the entry with the given barcode, reporting whether one
// was present.
func (l *List) Update(barcode string, product catalog.Product) bool {
	l.lock.Lock()
	defer l.lock.Unlock()
	for i := range l.products {
		if l.products[i].Barcode == barcode {
			l.products[i] = product
			return true
		}
	}
	return false
}

// Products returns a copy of the current list.
func (l *List) Products() []catalog.Product {
	l.lock.RLock()
	defer l.lock.RUnlock()
	out := make([]catalog.Product, len(l.products))
	copy(out, l.products)
	return out
}

// Len returns the number of scanned products.
func (l *List) Len() int {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return len(l.products)
}
