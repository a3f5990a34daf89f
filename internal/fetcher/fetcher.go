package fetcher

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/nao1215/prodcheck/internal/model"
	"golang.org/x/crypto/sha3"
)

// Default fetch settings.
const (
	// DefaultURL is the catalog endpoint checked when none is configured.
	DefaultURL = "https://fakestoreapi.com/products"

	// DefaultTimeout bounds a single catalog request.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize limits how much of the response body is read.
	DefaultMaxBodySize = 10 * 1024 * 1024

	// DefaultUserAgent identifies prodcheck in catalog requests.
	DefaultUserAgent = "prodcheck/1.0 (+https://github.com/nao1215/prodcheck)"
)

// ErrMalformedBody is recorded when a successful response is not valid JSON.
var ErrMalformedBody = errors.New("response body is not valid JSON")

// Result is the outcome of one catalog request.
type Result struct {
	// StatusCode is the HTTP status, or 0 when the request failed.
	StatusCode int

	// Records are the parsed records; empty when the body is not a
	// JSON array of objects or the request failed.
	Records []model.Record

	// Digest is the hex SHA3-256 of the response body.
	Digest string

	// Err is the transport or decoding failure, if any.
	Err error
}

// Fetcher retrieves product records from a catalog endpoint.
// It issues exactly one GET per call and never retries.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	headers     map[string]string
	maxBodySize int64
	logger      *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithHeaders adds custom request headers, for example an API key.
func WithHeaders(headers map[string]string) Option {
	return func(f *Fetcher) {
		for k, v := range headers {
			f.headers[k] = v
		}
	}
}

// WithMaxBodySize limits the number of body bytes read.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithLogger sets the logger used to report fetch failures.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// New creates a Fetcher using client. A nil client uses a client with
// DefaultTimeout.
func New(client *http.Client, opts ...Option) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	f := &Fetcher{
		client:      client,
		userAgent:   DefaultUserAgent,
		headers:     make(map[string]string),
		maxBodySize: DefaultMaxBodySize,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch requests url and returns the status code and the records.
// Failures never surface as errors: a failed request yields status 0 and
// no records.
func (f *Fetcher) Fetch(ctx context.Context, url string) (int, []model.Record) {
	res := f.FetchResult(ctx, url)
	return res.StatusCode, res.Records
}

// FetchResult requests url and returns the full outcome.
func (f *Fetcher) FetchResult(ctx context.Context, url string) *Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return f.failed(url, fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json")
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}
	f.logger.Debug("requesting catalog", "url", url, headerGroup(req.Header))

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return f.failed(url, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return f.failed(url, fmt.Errorf("failed to read response body: %w", err))
	}

	f.logger.Debug("catalog responded",
		"url", url,
		"status", resp.StatusCode,
		"bytes", len(body),
		"elapsed", time.Since(start),
	)

	result := &Result{
		StatusCode: resp.StatusCode,
		Records:    []model.Record{},
		Digest:     Digest(body),
	}

	if resp.StatusCode == http.StatusOK && !json.Valid(body) {
		return f.failed(url, fmt.Errorf("failed to decode response body: %w", ErrMalformedBody))
	}

	records, err := model.ParseRecords(body)
	if err != nil {
		f.logger.Debug("response body is not a record list",
			"url", url,
			"status", resp.StatusCode,
			"error", err,
		)
		return result
	}

	result.Records = records
	return result
}

// headerGroup returns the request headers as a log group.
func headerGroup(h http.Header) slog.Attr {
	attrs := make([]any, 0, len(h))
	for k := range h {
		attrs = append(attrs, slog.String(k, h.Get(k)))
	}
	return slog.Group("headers", attrs...)
}

// failed logs err and returns the result of a failed request.
func (f *Fetcher) failed(url string, err error) *Result {
	f.logger.Warn("error fetching data", "url", url, "error", err)
	return &Result{
		StatusCode: 0,
		Records:    []model.Record{},
		Err:        err,
	}
}

// Digest returns the hex SHA3-256 of data.
func Digest(data []byte) string {
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
