package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"rocketcart/internal/domain/model"
	repo "rocketcart/internal/repository"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
)

var tracer = otel.Tracer("rocketcart/infra/api")

// Client は在庫API（/products, /stock）を呼ぶ。
// カートの StockFetcher / ProductFetcher を満たす。
type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GET /products/:id
func (c *Client) FetchProduct(ctx context.Context, productID int64) (model.Product, error) {
	var p model.Product
	if err := c.getJSON(ctx, fmt.Sprintf("/products/%d", productID), &p); err != nil {
		return model.Product{}, errors.Wrapf(err, "fetch product %d", productID)
	}
	return p, nil
}

// GET /stock/:id
func (c *Client) FetchStock(ctx context.Context, productID int64) (model.Stock, error) {
	var s model.Stock
	if err := c.getJSON(ctx, fmt.Sprintf("/stock/%d", productID), &s); err != nil {
		return model.Stock{}, errors.Wrapf(err, "fetch stock %d", productID)
	}
	return s, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) (err error) {
	ctx, span := tracer.Start(ctx, "GET "+path)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode == http.StatusNotFound {
		return repo.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}
