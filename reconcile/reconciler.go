package reconcile

import (
	"context"

	"github.com/lucafab/magazzino/catalog"
	apperrors "github.com/lucafab/magazzino/internal/errors"
	"github.com/lucafab/magazzino/session"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Gateway is the slice of the catalog client that reconciliation drives.
type Gateway interface {
	GetProduct(ctx context.Context, sess *session.Session, barcode string) (*catalog.Product, error)
	CreateProduct(ctx context.Context, sess *session.Session, product *catalog.Product) error
	UpdateProduct(ctx context.Context, sess *session.Session, product *catalog.Product) error
}

// Mirror receives optimistic copies of saved drafts. The scanner's
// session-only product list implements it; the mirror is updated before the
// remote write settles and is not rolled back on failure.
type Mirror interface {
	Add(product catalog.Product)
	Update(barcode string, product catalog.Product) bool
}

// Reconciler matches barcodes against the catalog and decides
// create-vs-update for the resulting drafts.
type Reconciler struct {
	gateway Gateway
	mirror  Mirror
	logger  zerolog.Logger
}

// ReconcilerOption defines a function type to modify the Reconciler instance.
type ReconcilerOption func(*Reconciler)

// WithMirror attaches a local list mirror for saved drafts.
func WithMirror(m Mirror) ReconcilerOption {
	return func(r *Reconciler) {
		r.mirror = m
	}
}

// NewReconciler initializes a Reconciler with the required gateway.
func NewReconciler(gateway Gateway, options ...ReconcilerOption) (*Reconciler, error) {
	if gateway == nil {
		return nil, errors.New("[NewReconciler] gateway is required")
	}
	reconciler := &Reconciler{
		gateway: gateway,
		logger:  log.With().Str("component", "reconcile").Logger(),
	}
	for _, opt := range options {
		opt(reconciler)
	}
	return reconciler, nil
}

// Open queries the catalog for the barcode and yields an editable draft.
// A catalog hit pre-fills the draft and makes Save an update; a miss yields
// an empty draft with only the barcode fixed and makes Save a create. Any
// other failure is returned and no draft is opened.
func (r *Reconciler) Open(ctx context.Context, sess *session.Session, barcode string) (*Draft, error) {
	if barcode == "" {
		return nil, apperrors.ErrBarcodeRequired
	}

	product, err := r.gateway.GetProduct(ctx, sess, barcode)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return &Draft{reconciler: r, barcode: barcode, Quantity: "1"}, nil
		}
		return nil, errors.Wrap(err, "[Reconciler.Open] catalog lookup")
	}

	draft := &Draft{
		reconciler:      r,
		barcode:         barcode,
		existing:        true,
		id:              product.ID,
		Name:            product.Name,
		Description:     product.Description,
		Quantity:        formatAmount(product.Quantity),
		PurchasePrice:   formatAmount(product.PurchasePrice),
		SalePrice:       formatAmount(product.SalePrice),
		DiscountedPrice: formatAmount(product.DiscountedPrice),
		UnitPrice:       formatAmount(product.UnitPrice),
		TotalPrice:      formatAmount(product.TotalPrice),
		UnitOfMeasure:   product.UnitOfMeasure,
		Discount:        product.DiscountOrMarkup,
		VAT:             formatAmount(product.VATPercent),
	}
	return draft, nil
}

// OpenFromLine seeds a draft directly from an invoice line item, skipping
// the catalog lookup: the extraction service already reports whether the
// barcode exists via the line's Found flag.
func (r *Reconciler) OpenFromLine(line catalog.LineItem) (*Draft, error) {
	if line.Barcode == "" {
		return nil, apperrors.ErrBarcodeRequired
	}
	return &Draft{
		reconciler:    r,
		barcode:       line.Barcode,
		existing:      line.Found,
		Name:          line.Name,
		Description:   line.Description,
		Quantity:      formatAmount(line.Quantity),
		PurchasePrice: formatAmount(line.PurchasePrice),
		SalePrice:     formatAmount(line.SalePrice),
		UnitPrice:     formatAmount(line.UnitPrice),
		TotalPrice:    formatAmount(line.TotalPrice),
		UnitOfMeasure: line.UnitOfMeasure,
		Discount:      line.Discount,
		VAT:           line.VAT,
	}, nil
}
