// Package imagefetch downloads images to scan from remote URLs.
package imagefetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"qrmaster/internal/config"
	"qrmaster/internal/errors"
)

// Client downloads images over HTTP and caches the bodies by URL
type Client struct {
	httpClient *resty.Client
	cfg        config.FetchConfig
	bodyCache  *cache.Cache
	logger     *logrus.Logger
}

// NewClient creates a new image fetch client
func NewClient(cfg config.FetchConfig, logger *logrus.Logger) *Client {
	httpClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Accept", "image/*")

	client := &Client{
		httpClient: httpClient,
		cfg:        cfg,
		logger:     logger,
	}
	// go-cache reads a zero expiration as "never", so a zero TTL turns caching off
	if cfg.CacheTTL > 0 {
		client.bodyCache = cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	return client
}

// Fetch downloads the image at rawURL. A URL that is not absolute http(s)
// fails with an InputError; transport failures, non-2xx responses and bodies
// larger than the configured limit fail with a FetchError.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	rawURL = strings.TrimSpace(rawURL)
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, &errors.InputError{Field: "url", Message: "only absolute http and https URLs are supported"}
	}

	if c.bodyCache != nil {
		if cached, found := c.bodyCache.Get(rawURL); found {
			c.logger.Debugf("Using cached image for %s", rawURL)
			return cached.([]byte), nil
		}
	}

	c.logger.Infof("Downloading image from %s", rawURL)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(rawURL)
	if err != nil {
		return nil, &errors.FetchError{URL: rawURL, Message: fmt.Sprintf("request failed: %v", err)}
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		c.logger.Warnf("Image download failed - URL: %s, Status: %d", rawURL, resp.StatusCode())
		return nil, &errors.FetchError{URL: rawURL, Status: resp.StatusCode(), Message: "unexpected status"}
	}

	data, err := io.ReadAll(io.LimitReader(body, c.cfg.MaxBytes+1))
	if err != nil {
		return nil, &errors.FetchError{URL: rawURL, Status: resp.StatusCode(), Message: fmt.Sprintf("reading body: %v", err)}
	}
	if int64(len(data)) > c.cfg.MaxBytes {
		return nil, &errors.FetchError{
			URL:     rawURL,
			Status:  resp.StatusCode(),
			Message: fmt.Sprintf("image larger than %d bytes", c.cfg.MaxBytes),
		}
	}

	if c.bodyCache != nil {
		c.bodyCache.Set(rawURL, data, cache.DefaultExpiration)
	}
	c.logger.Debugf("Downloaded %d bytes from %s", len(data), rawURL)
	return data, nil
}
