package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shopbridge/pkg/shop"
)

// Client performs authenticated calls against one shop's admin API,
// transparently managing the OAuth client-credentials grant.
type Client struct {
	shop    shop.Shop
	cache   TokenCache
	http    *http.Client
	timeout time.Duration
}

type Option func(*Client)

// WithTimeout sets the default timeout applied to every call that does not
// carry its own deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithHTTPClient replaces the underlying transport, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func New(s shop.Shop, cache TokenCache, opts ...Option) *Client {
	c := &Client{
		shop:  s,
		cache: cache,
		// Redirects are a misconfiguration of the shop URL and must surface
		// as errors, never be followed.
		http: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Response is the outcome of an admin-API call.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// JSON decodes the response body into v. A 204 body decodes into nothing.
func (r *Response) JSON(v any) error {
	if len(r.Body) == 0 {
		return nil
	}
	return json.Unmarshal(r.Body, v)
}

type requestConfig struct {
	headers http.Header
	timeout time.Duration
}

type RequestOption func(*requestConfig)

// WithHeader adds a header to one request.
func WithHeader(key, value string) RequestOption {
	return func(cfg *requestConfig) { cfg.headers.Set(key, value) }
}

// WithRequestTimeout overrides the client's default timeout for one call.
func WithRequestTimeout(d time.Duration) RequestOption {
	return func(cfg *requestConfig) { cfg.timeout = d }
}

func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil, opts)
}

func (c *Client) Post(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, body, opts)
}

func (c *Client) Put(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodPut, path, body, opts)
}

func (c *Client) Patch(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodPatch, path, body, opts)
}

func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil, opts)
}

// encodeBody turns the request payload into replayable bytes. JSON payloads
// are marshalled and tagged; raw bytes and readers pass through untouched so
// blobs and multipart bodies keep their own content type.
func encodeBody(body any, headers http.Header) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case io.Reader:
		return io.ReadAll(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return nil, err
		}
		headers.Set("content-type", "application/json")
		return raw, nil
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any, opts []RequestOption) (*Response, error) {
	cfg := requestConfig{headers: http.Header{}, timeout: c.timeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	raw, err := encodeBody(body, cfg.headers)
	if err != nil {
		return nil, err
	}
	cfg.headers.Set("accept", "application/json")

	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	endpoint := strings.TrimRight(c.shop.ShopURL(), "/") + "/api" + path

	// Exactly one retry after a 401: clear the cached token and replay.
	for attempt := 0; ; attempt++ {
		token, err := c.getToken(ctx)
		if err != nil {
			return nil, err
		}

		var reader io.Reader
		if raw != nil {
			reader = bytes.NewReader(raw)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return nil, err
		}
		for key, values := range cfg.headers {
			for _, value := range values {
				req.Header.Add(key, value)
			}
		}
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.roundTrip(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode == http.StatusUnauthorized && attempt == 0 {
			if err := c.cache.Clear(ctx, c.shop.ShopID()); err != nil {
				return nil, err
			}
			continue
		}
		return c.evaluate(resp)
	}
}

// roundTrip executes one HTTP exchange and buffers the response,
// distinguishing cancellation from transport failures.
func (c *Client) roundTrip(req *http.Request) (*Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, fmt.Errorf("request to shop %s aborted: %w", c.shop.ShopID(), ctxErr)
		}
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: resp.StatusCode, Body: raw, Headers: resp.Header}, nil
}

// evaluate maps a buffered response onto the client's error taxonomy.
func (c *Client) evaluate(resp *Response) (*Response, error) {
	if resp.StatusCode == http.StatusMovedPermanently || resp.StatusCode == http.StatusFound {
		return nil, newRedirectError(c.shop.ShopID(), resp)
	}

	if resp.StatusCode == http.StatusNoContent {
		return &Response{StatusCode: resp.StatusCode, Body: nil, Headers: resp.Headers}, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody struct {
			Errors []APIError `json:"errors"`
		}
		_ = json.Unmarshal(resp.Body, &errBody)
		return nil, &RequestError{ShopID: c.shop.ShopID(), Response: resp, Errors: errBody.Errors}
	}

	return resp, nil
}

// getToken returns a valid bearer token, fetching a fresh one via the
// client-credentials grant on cache miss or expiry.
func (c *Client) getToken(ctx context.Context) (string, error) {
	token, err := c.cache.Get(ctx, c.shop.ShopID())
	if err != nil {
		return "", err
	}
	if token != nil {
		if !token.Expired() {
			return token.AccessToken, nil
		}
		if err := c.cache.Clear(ctx, c.shop.ShopID()); err != nil {
			return "", err
		}
	}

	grant, err := json.Marshal(map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     c.shop.ClientID(),
		"client_secret": c.shop.ClientSecret(),
	})
	if err != nil {
		return "", err
	}

	endpoint := strings.TrimRight(c.shop.ShopURL(), "/") + "/api/oauth/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(grant))
	if err != nil {
		return "", err
	}
	req.Header.Set("content-type", "application/json")

	resp, err := c.roundTrip(req)
	if err != nil {
		return "", err
	}

	if resp.StatusCode == http.StatusMovedPermanently || resp.StatusCode == http.StatusFound {
		return "", newRedirectError(c.shop.ShopID(), resp)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &AuthenticationError{ShopID: c.shop.ShopID(), Response: resp}
	}

	var grantResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(resp.Body, &grantResp); err != nil {
		return "", err
	}

	fresh := &Token{
		AccessToken: grantResp.AccessToken,
		ExpiresAt:   time.Now().Add(time.Duration(grantResp.ExpiresIn) * time.Second),
	}
	if err := c.cache.Set(ctx, c.shop.ShopID(), fresh); err != nil {
		return "", err
	}
	return fresh.AccessToken, nil
}
