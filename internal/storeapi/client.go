// Package storeapi talks to the remote product and order API.
package storeapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/packfinderz-storefront/internal/catalog"
	"github.com/angelmondragon/packfinderz-storefront/internal/orders"
	"github.com/angelmondragon/packfinderz-storefront/pkg/auth"
	"github.com/angelmondragon/packfinderz-storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/go-resty/resty/v2"
)

const (
	defaultBaseURL = "http://localhost:8081/api/v1"
	defaultTimeout = 10 * time.Second

	// IdempotencyHeader deduplicates order submissions on the remote side.
	IdempotencyHeader = "Idempotency-Key"

	bodySnippetLimit = 512

	opFetchCategories = "fetch_categories"
	opUpdateProduct   = "update_product"
	opCreateOrder     = "create_order"

	resultUndecoded = "undecoded"
)

// bypassPaths never carry a bearer token.
var bypassPaths = []string{
	"/auth/register",
	"/auth/login",
	"/auth/authenticate",
}

// Recorder observes every remote call.
type Recorder interface {
	ObserveRemoteCall(operation, result string, duration time.Duration)
}

// Client is the typed gateway to the remote API.
type Client struct {
	http     *resty.Client
	tokens   auth.TokenSource
	recorder Recorder
	logg     *logger.Logger
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient swaps the underlying transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http.SetTransport(hc.Transport)
		}
	}
}

// WithTokenSource attaches bearer credentials to outgoing requests.
func WithTokenSource(tokens auth.TokenSource) Option {
	return func(c *Client) {
		c.tokens = tokens
	}
}

func WithRecorder(recorder Recorder) Option {
	return func(c *Client) {
		c.recorder = recorder
	}
}

func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		if logg != nil {
			c.logg = logg
		}
	}
}

// NewClient builds a client for cfg.BaseURL.
func NewClient(cfg config.APIConfig, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("api base url %q must be http or https", cfg.BaseURL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		logg: logger.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.http.OnBeforeRequest(c.attachBearer)
	return c, nil
}

func (c *Client) attachBearer(_ *resty.Client, req *resty.Request) error {
	if c.tokens == nil || isBypassed(req.URL) {
		return nil
	}
	token, err := c.tokens.Token(req.Context())
	if err != nil {
		return err
	}
	if token != "" {
		req.SetAuthToken(token)
	}
	return nil
}

func isBypassed(rawURL string) bool {
	path := rawURL
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	for _, bypass := range bypassPaths {
		if strings.HasSuffix(path, bypass) {
			return true
		}
	}
	return false
}

// FetchCategories loads the nested category graph.
func (c *Client) FetchCategories(ctx context.Context) ([]*catalog.Category, error) {
	var categories []*catalog.Category
	req := c.http.R().
		SetContext(ctx).
		SetResult(&categories).
		ForceContentType("application/json")
	err := c.do(ctx, opFetchCategories, func() (*resty.Response, error) {
		return req.Get("/categories")
	})
	if isUndecoded(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, opFetchCategories+" returned an unreadable body")
	}
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// UpdateProduct replaces the remote product. The category is sent as an id stub.
func (c *Client) UpdateProduct(ctx context.Context, id int64, product *catalog.Product) (*catalog.Product, error) {
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is required")
	}
	var updated catalog.Product
	sent := product.Detached()
	req := c.http.R().
		SetContext(ctx).
		SetPathParam("id", strconv.FormatInt(id, 10)).
		SetHeader("Content-Type", "application/json").
		SetBody(sent).
		SetResult(&updated).
		ForceContentType("application/json")
	err := c.do(ctx, opUpdateProduct, func() (*resty.Response, error) {
		return req.Put("/products/{id}")
	})
	if isUndecoded(err) {
		// the server took the update, so report what was sent
		return sent, nil
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// CreateOrder submits order and returns the server copy carrying its id.
func (c *Client) CreateOrder(ctx context.Context, order *orders.Order) (*orders.Order, error) {
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order is required")
	}
	var created orders.Order
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(order).
		SetResult(&created).
		ForceContentType("application/json")
	if order.IdempotencyKey != "" {
		req.SetHeader(IdempotencyHeader, order.IdempotencyKey)
	}
	err := c.do(ctx, opCreateOrder, func() (*resty.Response, error) {
		return req.Post("/orders")
	})
	if isUndecoded(err) {
		created = *order
		err = nil
	}
	if err != nil {
		return nil, err
	}
	created.IdempotencyKey = order.IdempotencyKey
	return &created, nil
}

func (c *Client) do(ctx context.Context, operation string, send func() (*resty.Response, error)) error {
	started := time.Now()
	resp, err := send()
	switch {
	case err == nil:
		err = classify(operation, resp)
	case resp != nil && resp.IsSuccess():
		err = &UndecodedError{Operation: operation, StatusCode: resp.StatusCode(), Err: err}
	case pkgerrors.As(err) == nil:
		err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, operation+" request failed")
	}

	result := "ok"
	if isUndecoded(err) {
		result = resultUndecoded
		c.logg.Warn(c.logg.WithFields(ctx, map[string]any{
			"operation": operation,
			"status":    resp.StatusCode(),
			"error":     err.Error(),
		}), "remote call accepted with undecodable body")
	} else if err != nil {
		result = string(pkgerrors.As(err).Code())
		c.logg.Warn(c.logg.WithFields(ctx, map[string]any{
			"operation": operation,
			"result":    result,
			"error":     err.Error(),
		}), "remote call failed")
	}
	if c.recorder != nil {
		c.recorder.ObserveRemoteCall(operation, result, time.Since(started))
	}
	return err
}

// classify maps a non-2xx response onto a typed error.
func classify(operation string, resp *resty.Response) error {
	if resp == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, operation+" returned no response")
	}
	status := resp.StatusCode()
	if status >= 200 && status < 300 {
		return nil
	}

	var code pkgerrors.Code
	switch {
	case status == http.StatusUnauthorized:
		code = pkgerrors.CodeUnauthorized
	case status == http.StatusForbidden:
		code = pkgerrors.CodeForbidden
	case status == http.StatusNotFound:
		code = pkgerrors.CodeNotFound
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		code = pkgerrors.CodeRequestRejected
	case status == http.StatusConflict:
		code = pkgerrors.CodeConflict
	default:
		code = pkgerrors.CodeDependency
	}

	cause := &StatusError{StatusCode: status, Body: snippet(resp.Body())}
	return pkgerrors.Wrap(code, cause, fmt.Sprintf("%s failed with status %d", operation, status)).
		WithDetails(map[string]any{
			"status": status,
			"body":   cause.Body,
		})
}

// UndecodedError reports a 2xx response whose body could not be decoded.
// The remote side accepted the request.
type UndecodedError struct {
	Operation  string
	StatusCode int
	Err        error
}

func (e *UndecodedError) Error() string {
	return fmt.Sprintf("%s: decoding %d response: %v", e.Operation, e.StatusCode, e.Err)
}

func (e *UndecodedError) Unwrap() error {
	return e.Err
}

func isUndecoded(err error) bool {
	var undecoded *UndecodedError
	return errors.As(err, &undecoded)
}

// StatusError is the cause attached to a classified non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("remote status %d", e.StatusCode)
	}
	return fmt.Sprintf("remote status %d: %s", e.StatusCode, e.Body)
}

// StatusCode extracts the remote status from err, if any.
func StatusCode(err error) (int, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode, true
	}
	return 0, false
}

func snippet(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > bodySnippetLimit {
		return text[:bodySnippetLimit]
	}
	return text
}
