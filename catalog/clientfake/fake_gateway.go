package clientfake

import (
	"context"
	"io"
	"sync"

	"github.com/lucafab/magazzino/catalog"
	apperrors "github.com/lucafab/magazzino/internal/errors"
	"github.com/lucafab/magazzino/session"
)

// FakeGateway is an in-memory stand-in for the catalog gateway client,
// recording every write it receives.
type FakeGateway struct {
	lock     sync.Mutex
	products map[string]catalog.Product

	// Injectable behavior
	LookupErr error
	CreateErr error
	UpdateErr error
	Upload    *catalog.InvoiceUpload
	UploadErr error

	// Recorded calls
	Creates []catalog.Product
	Updates []catalog.Product
	Uploads []string
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{products: map[string]catalog.Product{}}
}

// Seed installs a product into the fake catalog.
func (g *FakeGateway) Seed(product catalog.Product) {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.products[product.Barcode] = product
}

func (g *FakeGateway) GetProduct(_ context.Context, sess *session.Session, barcode string) (*catalog.Product, error) {
	if err := g.gate(sess); err != nil {
		return nil, err
	}
	if g.LookupErr != nil {
		return nil, g.LookupErr
	}
	g.lock.Lock()
	defer g.lock.Unlock()
	product, ok := g.products[barcode]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &product, nil
}

func (g *FakeGateway) CreateProduct(_ context.Context, sess *session.Session, product *catalog.Product) error {
	if err := g.gate(sess); err != nil {
		return err
	}
	if g.CreateErr != nil {
		return g.CreateErr
	}
	g.lock.Lock()
	defer g.lock.Unlock()
	g.Creates = append(g.Creates, *product)
	g.products[product.Barcode] = *product
	return nil
}

func (g *FakeGateway) UpdateProduct(_ context.Context, sess *session.Session, product *catalog.Product) error {
	if err := g.gate(sess); err != nil {
		return err
	}
	if g.UpdateErr != nil {
		return g.UpdateErr
	}
	g.lock.Lock()
	defer g.lock.Unlock()
	g.Updates = append(g.Updates, *product)
	g.products[product.Barcode] = *product
	return nil
}

func (g *FakeGateway) UploadInvoice(_ context.Context, sess *session.Session, filename string, _ io.Reader) (*catalog.InvoiceUpload, error) {
	if err := g.gate(sess); err != nil {
		return nil, err
	}
	g.lock.Lock()
	g.Uploads = append(g.Uploads, filename)
	g.lock.Unlock()
	if g.UploadErr != nil {
		return nil, g.UploadErr
	}
	return g.Upload, nil
}

// WriteCount returns the number of create and update calls issued.
func (g *FakeGateway) WriteCount() int {
	g.lock.Lock()
	defer g.lock.Unlock()
	return len(g.Creates) + len(g.Updates)
}

func (g *FakeGateway) gate(sess *session.Session) error {
	if sess == nil || sess.Token == "" {
		return apperrors.ErrNotAuthenticated
	}
	return nil
}
