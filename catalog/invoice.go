package catalog

// LineItem is one row extracted from an uploaded supplier invoice.
// Found reports whether a product with this barcode already exists in the
// catalog: committing a found line updates it, committing an unfound line
// creates it. Discount and VAT arrive as string literals ("-10%", "10,5%")
// and are normalized client-side before any write.
type LineItem struct {
	Barcode       string  `json:"barcode"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Quantity      float64 `json:"amount"`
	PurchasePrice float64 `json:"prezzoacquisto"`
	SalePrice     float64 `json:"prezzovendita"`
	UnitOfMeasure string  `json:"um"`
	Discount      string  `json:"sconto"`
	VAT           string  `json:"iva"`
	TotalPrice    float64 `json:"prezzo_totale"`
	UnitPrice     float64 `json:"prezzo_unitario"`
	Found         bool    `json:"found"`
}

// InvoiceMetadata is the document header the extraction service returns
// alongside the line items.
type InvoiceMetadata struct {
	DocumentType   string  `json:"tipo_documento"`
	Article73      string  `json:"articolo_73"`
	DocumentNumber string  `json:"numero_documento"`
	DocumentDate   string  `json:"data_documento"`
	RecipientCode  string  `json:"codice_destinatario"`
	PaymentMethod  string  `json:"modalita_pagamento"`
	Details        string  `json:"dettagli"`
	Deadlines      string  `json:"scadenze"`
	Amount         float64 `json:"importo"`
	Supplier       string  `json:"fornitore"`
	Customer       string  `json:"cliente"`
}

// InvoiceUpload is the full extraction response. Updated is set when the
// gateway recognizes an invoice it has seen before; processing continues
// with whatever data it returned.
type InvoiceUpload struct {
	Metadata  *InvoiceMetadata `json:"fattura"`
	LineItems []LineItem       `json:"prodotti"`
	Updated   bool             `json:"fatturaAggiornata,omitempty"`
}
