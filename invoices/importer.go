package invoices

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/lucafab/magazzino/catalog"
	apperrors "github.com/lucafab/magazzino/internal/errors"
	"github.com/lucafab/magazzino/reconcile"
	"github.com/lucafab/magazzino/session"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// State is the import-session phase.
type State string

const (
	StateIdle      State = "idle"
	StateUploading State = "uploading"
	StateReady     State = "ready"
	StateFailed    State = "failed"
)

// Uploader is the gateway slice the importer drives.
type Uploader interface {
	UploadInvoice(ctx context.Context, sess *session.Session, filename string, file io.Reader) (*catalog.InvoiceUpload, error)
}

// Notifier surfaces non-blocking notices (e.g. a duplicate-upload signal).
type Notifier func(message string)

// Importer runs one invoice-import session at a time: upload a document,
// receive extracted line items, then commit or discard each line
// independently and in any order. The inserted-set of barcodes is
// append-only for the session and resets on the next upload.
type Importer struct {
	gateway    Uploader
	reconciler *reconcile.Reconciler
	notify     Notifier
	logger     zerolog.Logger

	lock      sync.Mutex
	sessionID string
	state     State
	message   string
	metadata  *catalog.InvoiceMetadata
	pending   []catalog.LineItem
	inserted  map[string]bool
	order     []string
}

// ImporterOption defines a function type to modify the Importer instance.
type ImporterOption func(*Importer)

// WithNotify sets the callback for non-blocking notifications.
func WithNotify(n Notifier) ImporterOption {
	return func(im *Importer) {
		im.notify = n
	}
}

// NewImporter initializes an Importer with the required dependencies.
func NewImporter(gateway Uploader, reconciler *reconcile.Reconciler, options ...ImporterOption) (*Importer, error) {
	if gateway == nil {
		return nil, errors.New("[NewImporter] gateway is required")
	}
	if reconciler == nil {
		return nil, errors.New("[NewImporter] reconciler is required")
	}
	importer := &Importer{
		gateway:    gateway,
		reconciler: reconciler,
		logger:     log.With().Str("component", "invoices").Logger(),
		state:      StateIdle,
		inserted:   map[string]bool{},
	}
	for _, opt := range options {
		opt(importer)
	}
	return importer, nil
}

// Upload sends the document for extraction and, on success, moves the
// session to Ready with the pending line items and invoice metadata
// populated. Any failure moves it to Failed with the pending list cleared.
// Either way the previous session's state, including the inserted-set, is
// reset first.
func (im *Importer) Upload(ctx context.Context, sess *session.Session, filename string, file io.Reader) error {
	im.lock.Lock()
	im.sessionID = uuid.New().String()
	im.state = StateUploading
	im.message = ""
	im.metadata = nil
	im.pending = nil
	im.inserted = map[string]bool{}
	im.order = nil
	im.lock.Unlock()

	upload, err := im.gateway.UploadInvoice(ctx, sess, filename, file)

	im.lock.Lock()
	defer im.lock.Unlock()
	if err != nil {
		im.state = StateFailed
		im.message = "errore durante l'upload"
		im.pending = nil
		im.logger.Error().Err(err).Str("file", filename).Msg("invoice upload failed")
		return errors.Wrap(err, "[Importer.Upload]")
	}

	im.state = StateReady
	im.metadata = upload.Metadata
	im.pending = append([]catalog.LineItem(nil), upload.LineItems...)
	im.message = fmt.Sprintf("prodotti trovati: %d", len(im.pending))
	im.logger.Info().Str("file", filename).Int("lines", len(im.pending)).Msg("invoice extracted")

	if upload.Updated && im.notify != nil {
		im.notify("fattura già caricata in precedenza, dati aggiornati")
	}
	return nil
}

// Commit writes one pending line to the catalog: an update when the
// extraction marked the barcode as found, a create otherwise. Optional
// edits are applied to the draft before the write. On success the line is
// removed from the pending set and its barcode recorded as inserted;
// removal rather than flipping the found flag keeps the pending list
// meaning exactly "work remaining". A failed write leaves the line
// pending.
func (im *Importer) Commit(ctx context.Context, sess *session.Session, barcode string, edits ...func(*reconcile.Draft)) error {
	line, err := im.pendingLine(barcode)
	if err != nil {
		return err
	}

	draft, err := im.reconciler.OpenFromLine(*line)
	if err != nil {
		return errors.Wrap(err, "[Importer.Commit]")
	}
	for _, edit := range edits {
		edit(draft)
	}
	if err := draft.Save(ctx, sess); err != nil {
		return errors.Wrap(err, "[Importer.Commit]")
	}

	im.lock.Lock()
	defer im.lock.Unlock()
	im.markInserted(barcode)
	im.removePending(barcode)
	return nil
}

// Discard drops one pending line without writing anything. The barcode is
// still recorded as inserted so the line is never re-offered within this
// session.
func (im *Importer) Discard(barcode string) error {
	if _, err := im.pendingLine(barcode); err != nil {
		return err
	}
	im.lock.Lock()
	defer im.lock.Unlock()
	im.markInserted(barcode)
	im.removePending(barcode)
	return nil
}

// State returns the current import-session phase.
func (im *Importer) State() State {
	im.lock.Lock()
	defer im.lock.Unlock()
	return im.state
}

// Message returns the last user-facing status message.
func (im *Importer) Message() string {
	im.lock.Lock()
	defer im.lock.Unlock()
	return im.message
}

// Metadata returns the current invoice header, nil before a successful
// upload.
func (im *Importer) Metadata() *catalog.InvoiceMetadata {
	im.lock.Lock()
	defer im.lock.Unlock()
	return im.metadata
}

// Pending returns a copy of the line items still awaiting commit or
// discard.
func (im *Importer) Pending() []catalog.LineItem {
	im.lock.Lock()
	defer im.lock.Unlock()
	out := make([]catalog.LineItem, len(im.pending))
	copy(out, im.pending)
	return out
}

// Inserted returns the barcodes committed or discarded this session, in
// order, each at most once.
func (im *Importer) Inserted() []string {
	im.lock.Lock()
	defer im.lock.Unlock()
	out := make([]string, len(im.order))
	copy(out, im.order)
	return out
}

// SessionID identifies the current import session.
func (im *Importer) SessionID() string {
	im.lock.Lock()
	defer im.lock.Unlock()
	return im.sessionID
}

func (im *Importer) pendingLine(barcode string) (*catalog.LineItem, error) {
	im.lock.Lock()
	defer im.lock.Unlock()
	if im.state != StateReady {
		return nil, apperrors.ErrNotReady
	}
	for i := range im.pending {
		if im.pending[i].Barcode == barcode {
			line := im.pending[i]
			return &line, nil
		}
	}
	return nil, apperrors.ErrNoPendingLine
}

func (im *Importer) markInserted(barcode string) {
	if im.inserted[barcode] {
		return
	}
	im.inserted[barcode] = true
	im.order = append(im.order, barcode)
}

func (im *Importer) removePending(barcode string) {
	for i := range im.pending {
		if im.pending[i].Barcode == barcode {
			im.pending = append(im.pending[:i], im.pending[i+1:]...)
			return
		}
	}
}
