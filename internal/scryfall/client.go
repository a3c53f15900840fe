// Package scryfall is a small client for the parts of the Scryfall REST API
// that proxymancer needs: named lookups, paged searches and image downloads
package scryfall

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// DefaultServer is the public API endpoint
const DefaultServer = "https://api.scryfall.com"

// Options configures a Client
type Options struct {
	Server    string
	UserAgent string
	// ImageVersion selects the image_uris entry (png, large, normal, ...)
	ImageVersion string
	// RequestsPerSecond limits API calls; zero disables limiting
	RequestsPerSecond float64
	HTTPClient        *http.Client
	Logger            *slog.Logger
}

// Client talks to the card-data service. It is safe for concurrent use
type Client struct {
	base         *url.URL
	userAgent    string
	imageVersion string
	http         *http.Client
	limiter      *rate.Limiter
	log          *slog.Logger
}

// NewHTTPClient returns an http.Client with dial and header timeouts suited
// to a command-line tool
func NewHTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	tr := &http.Transport{
		Proxy:       http.ProxyFromEnvironment,
		DialContext: dialer.DialContext,

		ForceAttemptHTTP2:     true,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
	}

	return &http.Client{Transport: tr, Timeout: timeout}
}

// New builds a Client from opts
func New(opts Options) (*Client, error) {
	server := opts.Server
	if server == "" {
		server = DefaultServer
	}
	base, err := url.Parse(server)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q", server)
	}

	c := &Client{
		base:         base,
		userAgent:    opts.UserAgent,
		imageVersion: opts.ImageVersion,
		http:         opts.HTTPClient,
		log:          opts.Logger,
	}
	if c.userAgent == "" {
		c.userAgent = "proxymancer"
	}
	if c.imageVersion == "" {
		c.imageVersion = "png"
	}
	if c.http == nil {
		c.http = NewHTTPClient(30 * time.Second)
	}
	if c.log == nil {
		c.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return c, nil
}

// APIError is the error object returned by the service
type APIError struct {
	Status   int      `json:"status"`
	Code     string   `json:"code"`
	Type     string   `json:"type"`
	Details  string   `json:"details"`
	Warnings []string `json:"warnings"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("scryfall %d %s: %s", e.Status, e.Code, e.Details)
	}
	return fmt.Sprintf("scryfall %d %s", e.Status, e.Code)
}

// IsNotFound reports whether err is a 404 from the service
func IsNotFound(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == http.StatusNotFound
}

// IsAmbiguous reports whether a named lookup matched too many cards
func IsAmbiguous(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Type == "ambiguous"
}

func (c *Client) endpoint(path ...string) *url.URL {
	return c.base.JoinPath(path...)
}

// getJSON performs a rate-limited GET and decodes the body into v. Non-2xx
// responses are returned as *APIError
func (c *Client) getJSON(ctx context.Context, u *url.URL, v any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	c.log.Debug("GET", "url", u.String())
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	c.log.Debug("RESPONSE", "url", u.String(), "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Code == "" {
			apiErr.Code = http.StatusText(resp.StatusCode)
		}
		apiErr.Status = resp.StatusCode
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("error decoding %s: %w", u.Path, err)
	}
	return nil
}

// Image downloads the raw bytes at imageURL. Image hosts are not rate
// limited
func (c *Client) Image(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "image/*")

	c.log.Debug("GET", "url", imageURL)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return body, resp.Header.Get("Content-Type"), nil
}
