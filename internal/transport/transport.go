// Package transport issues single HTTP requests with per-deployment
// timeout, TLS and proxy settings.
package transport

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"socmint/internal/components/assert"
	"socmint/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const DefaultTimeout = time.Second * 10

type Config struct {
	Timeout            time.Duration
	InsecureSkipVerify bool
	// Proxy is a proxy url, empty means no proxy.
	Proxy string
	// RequestsPerSecond throttles outgoing requests when > 0.
	RequestsPerSecond float64
	// DumpDir receives a text dump of every exchange when set.
	DumpDir string
}

type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Cookies []*http.Cookie
	// JSON is marshalled as the request body when non-nil.
	JSON any
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the response body as JSON into out.
func (r Response) Decode(out any) error {
	err := json.Unmarshal(r.Body, out)
	if err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// StatusError is returned (along with the response) for non-2xx statuses.
type StatusError struct {
	Method string
	URL    string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.Code)
}

// Doer is what platform clients depend on.
type Doer interface {
	Do(ctx context.Context, req Request) (Response, error)
}

type Client struct {
	http *resty.Client
}

func New(cfg Config, tel telemetry.API) *Client {
	assert.NotNil(tel)

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	httpClient := resty.New()
	httpClient.SetTimeout(cfg.Timeout)
	if cfg.InsecureSkipVerify {
		httpClient.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	if cfg.Proxy != "" {
		httpClient.SetProxy(cfg.Proxy)
	}

	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		rateLimiter := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, tel, "socmint/transport")

	if cfg.DumpDir != "" {
		dump, err := NewDirDump(cfg.DumpDir, tel)
		if err != nil {
			tel.ReportWarning(report_dump_write, err)
		} else {
			InstrumentDump(httpClient, dump)
		}
	}

	return &Client{http: httpClient}
}

func (c *Client) Do(ctx context.Context, req Request) (Response, error) {
	r := c.http.R().
		SetContext(ctx).
		SetHeaders(req.Headers)
	if len(req.Cookies) > 0 {
		r.SetCookies(req.Cookies)
	}
	if req.JSON != nil {
		r.SetHeader("content-type", "application/json").SetBody(req.JSON)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	res, err := r.Execute(method, req.URL)
	if err != nil {
		return Response{}, fmt.Errorf("%s %s: %w", method, req.URL, err)
	}

	out := Response{
		StatusCode: res.StatusCode(),
		Header:     res.Header(),
		Body:       res.Body(),
	}
	if !res.IsSuccess() {
		return out, &StatusError{Method: method, URL: req.URL, Code: res.StatusCode()}
	}
	return out, nil
}
