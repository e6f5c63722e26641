package patroni

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/Showmax/patroni-exporter/internal/config"
	"github.com/Showmax/patroni-exporter/internal/logger"
)

// Sentinel errors for the two upstream failure modes. Both are surfaced
// per-scrape and never fatal to the process.
var (
	// ErrUnreachable marks connection failures and timeouts.
	ErrUnreachable = errors.New("patroni unreachable")

	// ErrMalformedResponse marks bodies that are not valid JSON.
	ErrMalformedResponse = errors.New("malformed patroni response")
)

// maxBodySize caps how much of the upstream body is read. The Patroni status
// document is a few hundred bytes; anything near this limit is garbage.
const maxBodySize = 1 << 20

// Response is one raw answer from the Patroni API. The status code is kept
// alongside the body because non-2xx answers still carry meaning.
type Response struct {
	StatusCode int
	Body       []byte
}

// Client issues synchronous GETs against a single Patroni status endpoint.
// It performs no retries; the scraper polls again on the next scrape.
type Client struct {
	url        string
	httpClient *http.Client
	debug      bool
}

// NewClient builds a Client from the exporter configuration, applying the
// configured timeout and TLS verification policy.
func NewClient(cfg *config.Config) (*Client, error) {
	transport, transportErr := newTransport(cfg.Verify)
	if transportErr != nil {
		return nil, transportErr
	}

	return &Client{
		url: cfg.URL.String(),
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		debug: cfg.Debug,
	}, nil
}

// Fetch performs one GET against the status endpoint. The returned Response
// may carry any HTTP status code; only transport failures and non-JSON bodies
// are errors.
func (c *Client) Fetch(ctx context.Context) (*Response, error) {
	request, requestErr := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if requestErr != nil {
		return nil, fmt.Errorf("build request for %s: %w", c.url, requestErr)
	}

	httpResponse, doErr := c.httpClient.Do(request)
	if doErr != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnreachable, doErr)
	}
	defer httpResponse.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(httpResponse.Body, maxBodySize))
	if readErr != nil {
		return nil, fmt.Errorf("%w: read body: %s", ErrUnreachable, readErr)
	}

	if !json.Valid(body) {
		if c.debug {
			logger.L().Debug("patroni returned a non-JSON body",
				"url", c.url,
				"status", httpResponse.StatusCode,
				"body", string(body),
			)
		}

		return nil, fmt.Errorf("%w: status %d", ErrMalformedResponse, httpResponse.StatusCode)
	}

	logger.L().Debug("scraped patroni",
		"url", c.url,
		"status", httpResponse.StatusCode,
	)

	return &Response{
		StatusCode: httpResponse.StatusCode,
		Body:       body,
	}, nil
}

// newTransport builds the HTTP transport for the configured TLS policy:
// system trust store by default, no verification, or a CA bundle file.
func newTransport(verify config.VerifyPolicy) (*http.Transport, error) {
	transport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return nil, errors.New("http.DefaultTransport is not an *http.Transport")
	}

	transport = transport.Clone()

	switch {
	case verify.SkipVerify:
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // explicit --requests-verify=false
	case verify.CABundle != "":
		pemBytes, readErr := os.ReadFile(verify.CABundle)
		if readErr != nil {
			return nil, fmt.Errorf("read CA bundle %s: %w", verify.CABundle, readErr)
		}

		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pemBytes) {
			return nil, fmt.Errorf("CA bundle %s contains no usable certificates", verify.CABundle)
		}

		transport.TLSClientConfig = &tls.Config{RootCAs: pool}
	}

	return transport, nil
}
