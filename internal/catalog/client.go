package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"github.com/angelmondragon/bikeshop-bff/pkg/config"
	pkgerrors "github.com/angelmondragon/bikeshop-bff/pkg/errors"
	"github.com/angelmondragon/bikeshop-bff/pkg/logger"
	"github.com/angelmondragon/bikeshop-bff/pkg/metrics"
)

// ProductsPath is the listing endpoint of the product backend.
const ProductsPath = "/api/product/products"

const (
	defaultTimeout         = 10 * time.Second
	defaultBreakerFailures = 5
	defaultBreakerOpenFor  = 30 * time.Second
	maxBodyBytes           = 8 << 20
)

// Fetcher is what views and controllers need from the catalog.
type Fetcher interface {
	FetchProducts(ctx context.Context) ([]Product, error)
}

// ListingFetcher also reports products the backend lists but that were skipped as invalid.
type ListingFetcher interface {
	Fetcher
	FetchListing(ctx context.Context) (Listing, error)
}

// Listing is one catalog response. Skipped holds the ids of listed items that failed
// validation; they are not renderable but still exist upstream.
type Listing struct {
	Products []Product
	Skipped  []string
}

// IDs returns every id the backend listed, valid or not.
func (l Listing) IDs() []string {
	ids := make([]string, 0, len(l.Products)+len(l.Skipped))
	for _, p := range l.Products {
		ids = append(ids, p.ID)
	}
	return append(ids, l.Skipped...)
}

// ClientParams wires a Client.
type ClientParams struct {
	Config     config.CatalogConfig
	HTTPClient *http.Client
	Logger     *logger.Logger
	Metrics    *metrics.CatalogMetrics
}

// Client fetches the full product list with one GET. Concurrent callers share the
// in-flight request and a breaker stops calls to a backend that keeps failing.
type Client struct {
	url     string
	timeout time.Duration
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[Listing]
	group   singleflight.Group
	logg    *logger.Logger
	metrics *metrics.CatalogMetrics

	mu      sync.Mutex
	current *flight
}

// flight is the request shared by every caller currently waiting on the catalog. It is
// cancelled once the last of them gives up.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

func NewClient(params ClientParams) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(params.Config.BaseURL), "/")
	if base == "" {
		return nil, errors.New("catalog base url is required")
	}

	timeout := params.Config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	failures := params.Config.BreakerFailures
	if failures == 0 {
		failures = defaultBreakerFailures
	}
	openFor := params.Config.BreakerOpenFor
	if openFor <= 0 {
		openFor = defaultBreakerOpenFor
	}

	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}

	c := &Client{
		url:     base + ProductsPath,
		timeout: timeout,
		http:    httpClient,
		logg:    logg,
		metrics: params.Metrics,
	}
	c.breaker = gobreaker.NewCircuitBreaker[Listing](gobreaker.Settings{
		Name:    "catalog",
		Timeout: openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// abandoned requests say nothing about the backend
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			ctx := logg.WithFields(context.Background(), map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			logg.Warn(ctx, "catalog.breaker_state_changed")
		},
	})
	return c, nil
}

// FetchProducts returns the whole catalog. Any failure is a DEPENDENCY_ERROR; the caller
// decides whether that means an empty catalog. Concurrent callers share one request,
// which is cancelled when every one of them has cancelled its ctx.
func (c *Client) FetchProducts(ctx context.Context) ([]Product, error) {
	listing, err := c.FetchListing(ctx)
	if err != nil {
		return nil, err
	}
	return listing.Products, nil
}

// FetchListing is FetchProducts plus the ids of the listed items that were skipped.
func (c *Client) FetchListing(ctx context.Context) (Listing, error) {
	for attempt := 0; ; attempt++ {
		listing, err := c.await(ctx)
		// a flight abandoned by its other callers while we joined it
		if err != nil && attempt == 0 && ctx.Err() == nil && errors.Is(err, context.Canceled) {
			continue
		}
		return listing, err
	}
}

func (c *Client) await(ctx context.Context) (Listing, error) {
	f := c.join()
	ch := c.group.DoChan("products", func() (any, error) {
		defer c.finish(f)
		return c.breaker.Execute(func() (Listing, error) {
			return c.fetch(f.ctx)
		})
	})

	select {
	case <-ctx.Done():
		c.leave(f)
		return Listing{}, ctx.Err()
	case res := <-ch:
		c.leave(f)
		if res.Err != nil {
			if errors.Is(res.Err, gobreaker.ErrOpenState) || errors.Is(res.Err, gobreaker.ErrTooManyRequests) {
				return Listing{}, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Err, "catalog temporarily disabled")
			}
			return Listing{}, res.Err
		}
		shared := res.Val.(Listing)
		return Listing{
			Products: append([]Product(nil), shared.Products...),
			Skipped:  append([]string(nil), shared.Skipped...),
		}, nil
	}
}

func (c *Client) join() *flight {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		c.current = &flight{ctx: ctx, cancel: cancel}
	}
	c.current.waiters++
	return c.current
}

func (c *Client) leave(f *flight) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f.waiters--
	if f.waiters <= 0 {
		f.cancel()
		if c.current == f {
			c.current = nil
		}
	}
}

// finish detaches f so later callers start a new flight.
func (c *Client) finish(f *flight) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == f {
		c.current = nil
	}
}

func (c *Client) fetch(ctx context.Context) (listing Listing, err error) {
	start := time.Now()
	defer func() {
		c.metrics.ObserveFetch(time.Since(start), len(listing.Products), err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Listing{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building catalog request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Listing{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "catalog request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return Listing{}, pkgerrors.New(pkgerrors.CodeDependency, "catalog returned an error status").
			WithDetails(map[string]any{"status": resp.StatusCode})
	}

	var raw []json.RawMessage
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&raw); err != nil {
		return Listing{}, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("decoding catalog: %w", err), "catalog response malformed")
	}

	listing.Products = make([]Product, 0, len(raw))
	for i, item := range raw {
		var p Product
		if err := json.Unmarshal(item, &p); err != nil {
			c.skip(ctx, i, err)
			if id := listedID(item); id != "" {
				listing.Skipped = append(listing.Skipped, id)
			}
			continue
		}
		if err := Validate(p); err != nil {
			c.skip(ctx, i, err)
			if id := strings.TrimSpace(p.ID); id != "" {
				listing.Skipped = append(listing.Skipped, id)
			}
			continue
		}
		listing.Products = append(listing.Products, p)
	}
	return listing, nil
}

// listedID recovers the id of an item whose other fields do not decode.
func listedID(item json.RawMessage) string {
	var ids struct {
		ID    any `json:"_id"`
		AltID any `json:"id"`
	}
	if err := json.Unmarshal(item, &ids); err != nil {
		return ""
	}
	for _, v := range []any{ids.ID, ids.AltID} {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func (c *Client) skip(ctx context.Context, index int, err error) {
	ctx = c.logg.WithField(ctx, "index", index)
	c.logg.Warn(c.logg.WithField(ctx, "reason", err.Error()), "catalog.product_skipped")
}
