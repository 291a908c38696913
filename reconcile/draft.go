package reconcile

import (
	"context"

	"github.com/lucafab/magazzino/catalog"
	"github.com/lucafab/magazzino/session"
	"github.com/pkg/errors"
)

// Draft is the ephemeral edit buffer between a barcode and a catalog
// write. Numeric fields are held as the raw edited text and parsed
// leniently on save (unparsable input becomes 0). The barcode is fixed at
// open time and never editable for existing products; discarding a draft
// is simply dropping it.
type Draft struct {
	reconciler *Reconciler
	barcode    string
	existing   bool
	id         int64

	Name            string
	Description     string
	Quantity        string
	PurchasePrice   string
	SalePrice       string
	DiscountedPrice string
	UnitPrice       string
	TotalPrice      string
	UnitOfMeasure   string
	Discount        string
	VAT             string
}

// Barcode returns the immutable key this draft was opened for.
func (d *Draft) Barcode() string {
	return d.barcode
}

// Existing reports whether the catalog already held this barcode when the
// draft was opened; it decides whether Save updates or creates.
func (d *Draft) Existing() bool {
	return d.existing
}

// Product materializes the draft into the wire shape: lenient numeric
// parsing, discount and VAT normalized to absolute decimal magnitude.
func (d *Draft) Product() *catalog.Product {
	return &catalog.Product{
		ID:               d.id,
		Barcode:          d.barcode,
		Name:             d.Name,
		Description:      d.Description,
		Quantity:         toAmount(d.Quantity),
		PurchasePrice:    toAmount(d.PurchasePrice),
		SalePrice:        toAmount(d.SalePrice),
		DiscountedPrice:  toAmount(d.DiscountedPrice),
		UnitPrice:        toAmount(d.UnitPrice),
		TotalPrice:       toAmount(d.TotalPrice),
		UnitOfMeasure:    d.UnitOfMeasure,
		DiscountOrMarkup: formatAmount(NormalizePercent(d.Discount)),
		VATPercent:       NormalizePercent(d.VAT),
	}
}

// Save transmits the draft: an update for existing products, a create
// otherwise. The local mirror is updated optimistically before the remote
// write for create-path entries; a remote failure is logged and returned
// for the caller to surface, without reopening the draft.
func (d *Draft) Save(ctx context.Context, sess *session.Session) error {
	r := d.reconciler
	product := d.Product()

	if r.mirror != nil {
		if !d.existing || !r.mirror.Update(d.barcode, *product) {
			r.mirror.Add(*product)
		}
	}

	var err error
	if d.existing {
		err = r.gateway.UpdateProduct(ctx, sess, product)
	} else {
		err = r.gateway.CreateProduct(ctx, sess, product)
	}
	if err != nil {
		r.logger.Error().Err(err).Str("barcode", d.barcode).Bool("existing", d.existing).Msg("draft save failed")
		return errors.Wrap(err, "[Draft.Save]")
	}
	return nil
}
