package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/lucafab/magazzino/internal/errors"
	"github.com/lucafab/magazzino/session"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// invoiceFileField is the multipart field name the gateway expects.
const invoiceFileField = "fattura"

// Client talks to the remote catalog gateway. Every call is a single
// in-flight request/response pair: nothing is retried, queued or batched.
// Authenticated calls take the session explicitly and short-circuit
// locally, without dispatching, when it is absent or inactive.
type Client struct {
	baseURL    string
	httpClient *http.Client
	nowTime    func() time.Time
	logger     zerolog.Logger
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client (primarily for tests).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ClientOption {
	return func(c *Client) {
		c.nowTime = nowFunc
	}
}

// NewClient creates a gateway client rooted at baseURL,
// e.g. "http://localhost:3001/api".
func NewClient(baseURL string, options ...ClientOption) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		nowTime:    time.Now,
		logger:     log.With().Str("component", "catalog").Logger(),
	}
	for _, opt := range options {
		opt(client)
	}
	return client
}

// errorBody is the gateway's error envelope.
type errorBody struct {
	Error string `json:"error"`
}

// Login exchanges credentials for a bearer token. Bad credentials come back
// as the gateway's error message, not a transport failure.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	payload, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Login] marshal credentials")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Login] build request")
	}
	req.Header.Set("Content-Type", "application/json")

	var result LoginResult
	if err := c.do(req, &result); err != nil {
		return nil, errors.Wrap(err, "[Client.Login]")
	}
	return &result, nil
}

// ListProducts returns the full catalog.
func (c *Client) ListProducts(ctx context.Context, sess *session.Session) ([]Product, error) {
	req, err := c.authorizedRequest(ctx, sess, http.MethodGet, "/products", nil)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.ListProducts]")
	}
	var products []Product
	if err := c.do(req, &products); err != nil {
		return nil, errors.Wrap(err, "[Client.ListProducts]")
	}
	return products, nil
}

// GetProduct looks a product up by barcode. A catalog miss is reported as
// ErrNotFound so callers can branch create-vs-update on it.
func (c *Client) GetProduct(ctx context.Context, sess *session.Session, barcode string) (*Product, error) {
	if barcode == "" {
		return nil, apperrors.ErrBarcodeRequired
	}
	req, err := c.authorizedRequest(ctx, sess, http.MethodGet, "/products/"+barcode, nil)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.GetProduct]")
	}
	var product Product
	if err := c.do(req, &product); err != nil {
		return nil, errors.Wrap(err, "[Client.GetProduct]")
	}
	return &product, nil
}

// CreateProduct writes a new catalog entry.
func (c *Client) CreateProduct(ctx context.Context, sess *session.Session, product *Product) error {
	if product.Barcode == "" {
		return apperrors.ErrBarcodeRequired
	}
	req, err := c.authorizedJSONRequest(ctx, sess, http.MethodPost, "/products", product)
	if err != nil {
		return errors.Wrap(err, "[Client.CreateProduct]")
	}
	if err := c.do(req, nil); err != nil {
		return errors.Wrap(err, "[Client.CreateProduct]")
	}
	return nil
}

// UpdateProduct overwrites the catalog entry addressed by the product's
// barcode.
func (c *Client) UpdateProduct(ctx context.Context, sess *session.Session, product *Product) error {
	if product.Barcode == "" {
		return apperrors.ErrBarcodeRequired
	}
	req, err := c.authorizedJSONRequest(ctx, sess, http.MethodPut, "/products/"+product.Barcode, product)
	if err != nil {
		return errors.Wrap(err, "[Client.UpdateProduct]")
	}
	if err := c.do(req, nil); err != nil {
		return errors.Wrap(err, "[Client.UpdateProduct]")
	}
	return nil
}

// DeleteProduct removes the catalog entry addressed by barcode.
func (c *Client) DeleteProduct(ctx context.Context, sess *session.Session, barcode string) error {
	if barcode == "" {
		return apperrors.ErrBarcodeRequired
	}
	req, err := c.authorizedRequest(ctx, sess, http.MethodDelete, "/products/"+barcode, nil)
	if err != nil {
		return errors.Wrap(err, "[Client.DeleteProduct]")
	}
	if err := c.do(req, nil); err != nil {
		return errors.Wrap(err, "[Client.DeleteProduct]")
	}
	return nil
}

// UploadInvoice sends the invoice document for extraction and returns the
// structured line items plus document metadata.
func (c *Client) UploadInvoice(ctx context.Context, sess *session.Session, filename string, file io.Reader) (*InvoiceUpload, error) {
	if err := c.authorize(sess); err != nil {
		return nil, err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(invoiceFileField, filename)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.UploadInvoice] create form file")
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, errors.Wrap(err, "[Client.UploadInvoice] copy file")
	}
	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, "[Client.UploadInvoice] close multipart writer")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/invoices/upload", &body)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.UploadInvoice] build request")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+sess.Token)

	var upload InvoiceUpload
	if err := c.do(req, &upload); err != nil {
		return nil, errors.Wrap(err, "[Client.UploadInvoice]")
	}
	return &upload, nil
}

// authorize is the local gate: a gated call with no active session fails
// here, before any request is dispatched.
func (c *Client) authorize(sess *session.Session) error {
	if !sess.ActiveAt(c.nowTime()) {
		return apperrors.ErrNotAuthenticated
	}
	return nil
}

func (c *Client) authorizedRequest(ctx context.Context, sess *session.Session, method, path string, body io.Reader) (*http.Request, error) {
	if err := c.authorize(sess); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+sess.Token)
	return req, nil
}

func (c *Client) authorizedJSONRequest(ctx context.Context, sess *session.Session, method, path string, payload any) (*http.Request, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "marshal payload")
	}
	req, err := c.authorizedRequest(ctx, sess, method, path, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do executes the request and decodes a 2xx body into out (when non-nil).
// 404 maps to ErrNotFound; other non-2xx statuses carry the gateway's error
// message when one is present. Transport failures are wrapped, logged and
// never retried.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("url", req.URL.String()).Msg("gateway request failed")
		return apperrors.Wrapf(apperrors.ErrGatewayUnavailable, "%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return apperrors.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var gwErr errorBody
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		if json.Unmarshal(raw, &gwErr) == nil && gwErr.Error != "" {
			return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, gwErr.Error)
		}
		return fmt.Errorf("gateway returned %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response body")
	}
	return nil
}
