package catalog

// Product is a catalog entry as the gateway serves it. The barcode is the
// natural key: the catalog holds exactly one product per barcode. ID exists
// only for UI selection bookkeeping (checkbox exports) and is never used to
// address a product on the wire.
//
// Field names follow the gateway's wire format, which is Italian.
type Product struct {
	ID               int64   `json:"idProduct"`
	Barcode          string  `json:"barcode"`
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	Quantity         float64 `json:"amount"`
	PurchasePrice    float64 `json:"prezzoacquisto"`
	SalePrice        float64 `json:"prezzovendita"`
	DiscountedPrice  float64 `json:"prezzo_prodotto_scontato"`
	UnitOfMeasure    string  `json:"um,omitempty"`
	DiscountOrMarkup string  `json:"sconto_maggiorazione,omitempty"`
	VATPercent       float64 `json:"iva_percentuale,omitempty"`
	TotalPrice       float64 `json:"prezzo_totale,omitempty"`
	UnitPrice        float64 `json:"prezzo_unitario,omitempty"`
	CreatedOn        string  `json:"createdon,omitempty"`
	ModifiedOn       string  `json:"modifiedon,omitempty"`
}

// LoginResult is the gateway's answer to a successful credential check.
type LoginResult struct {
	Token       string `json:"token"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	IsReturning bool   `json:"isReturning,omitempty"`
}
