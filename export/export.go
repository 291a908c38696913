package export

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/lucafab/magazzino/catalog"
	apperrors "github.com/lucafab/magazzino/internal/errors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Prodotti"

// Column order mirrors the gateway's wire fields, the spreadsheets feed
// back into the same Italian bookkeeping tools.
var headers = []string{
	"idProduct", "barcode", "name", "description", "amount",
	"prezzoacquisto", "prezzovendita", "prezzo_prodotto_scontato",
	"um", "sconto_maggiorazione", "iva_percentuale",
	"prezzo_totale", "prezzo_unitario", "createdon", "modifiedon",
}

// Writer generates spreadsheet files from product lists. The all-rows and
// selected-rows variants are separate operations producing separate files,
// never merged.
type Writer struct {
	dir     string
	nowTime func() time.Time
	logger  zerolog.Logger
}

// WriterOption defines a function type to modify the Writer instance.
type WriterOption func(*Writer)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) WriterOption {
	return func(w *Writer) {
		w.nowTime = nowFunc
	}
}

// NewWriter creates a Writer emitting files into dir.
func NewWriter(dir string, options ...WriterOption) *Writer {
	writer := &Writer{
		dir:     dir,
		nowTime: time.Now,
		logger:  log.With().Str("component", "export").Logger(),
	}
	for _, opt := range options {
		opt(writer)
	}
	return writer
}

// AllProducts exports every row to tutti_prodotti_<timestamp>.xlsx.
func (w *Writer) AllProducts(products []catalog.Product) (string, error) {
	return w.write("tutti_prodotti_"+w.timestamp()+".xlsx", products)
}

// SelectedProducts exports only the rows whose IDs were checkbox-selected,
// to solo_prodotti_selezionati_<timestamp>.xlsx. An empty selection is an
// error, not an empty file.
func (w *Writer) SelectedProducts(products []catalog.Product, selectedIDs []int64) (string, error) {
	selected := make(map[int64]bool, len(selectedIDs))
	for _, id := range selectedIDs {
		selected[id] = true
	}
	rows := make([]catalog.Product, 0, len(selectedIDs))
	for _, p := range products {
		if selected[p.ID] {
			rows = append(rows, p)
		}
	}
	return w.write("solo_prodotti_selezionati_"+w.timestamp()+".xlsx", rows)
}

// ScannedProducts exports a scan-session list to
// prodotti_scannerizzati.xlsx.
func (w *Writer) ScannedProducts(products []catalog.Product) (string, error) {
	return w.write("prodotti_scannerizzati.xlsx", products)
}

// timestamp renders the current instant ISO-like with colons and periods
// replaced by hyphens, so the filename is safe on every filesystem.
func (w *Writer) timestamp() string {
	iso := w.nowTime().UTC().Format("2006-01-02T15:04:05.000Z")
	iso = strings.ReplaceAll(iso, ":", "-")
	return strings.ReplaceAll(iso, ".", "-")
}

func (w *Writer) write(filename string, products []catalog.Product) (string, error) {
	if len(products) == 0 {
		return "", apperrors.ErrNothingToExport
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return "", errors.Wrap(err, "[Writer.write] rename sheet")
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return "", errors.Wrap(err, "[Writer.write] header cell")
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return "", errors.Wrap(err, "[Writer.write] header value")
		}
	}

	for i, p := range products {
		values := []any{
			p.ID, p.Barcode, p.Name, p.Description, p.Quantity,
			p.PurchasePrice, p.SalePrice, p.DiscountedPrice,
			p.UnitOfMeasure, p.DiscountOrMarkup, p.VATPercent,
			p.TotalPrice, p.UnitPrice, p.CreatedOn, p.ModifiedOn,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return "", errors.Wrap(err, "[Writer.write] row cell")
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return "", errors.Wrap(err, "[Writer.write] row value")
			}
		}
	}

	path := filepath.Join(w.dir, filename)
	if err := f.SaveAs(path); err != nil {
		return "", errors.Wrap(err, "[Writer.write] save file")
	}
	w.logger.Info().Str("file", path).Int("rows", len(products)).Msg("spreadsheet written")
	return path, nil
}
