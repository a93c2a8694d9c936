package client

import (
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/Ewixxx/PEMS/pkg/logger"
	"github.com/Ewixxx/PEMS/pkg/version"
)

// Client is our custom client type that ensures a timeout is used, and adds a
// user agent header to be polite. It is used for all outbound HTTP traffic:
// actuator commands to device firmware, and the panel's polling of the API.
type Client struct {
	Client    *http.Client
	streamer  *http.Client
	userAgent string
	verbose   bool
}

// NewClient returns a new client instance initialized with a user agent string
// and timeout. A second client without the overall timeout is kept for
// streaming requests, which stay open for as long as the consumer reads.
func NewClient(timeout int, verbose bool) *Client {
	c := &http.Client{
		Timeout: time.Duration(timeout) * time.Second,
	}

	return &Client{
		Client:    c,
		streamer:  &http.Client{},
		userAgent: fmt.Sprintf("%s/%s", version.BinaryName, version.Version),
		verbose:   verbose,
	}
}

// Get attempts to fetch the given URL, returning the response body as bytes.
func (c *Client) Get(ctx context.Context, requestURL string) ([]byte, error) {
	log := logger.FromContext(ctx)

	if c.verbose {
		log.Log(
			"msg", "getting url",
			"url", requestURL,
		)
	}

	req, err := http.NewRequest(http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create http request object")
	}

	req.Header.Set("User-Agent", c.userAgent)

	return c.do(ctx, req)
}

// PostForm attempts to post the given values to the given URL as an
// urlencoded form, returning the response body as bytes. This is the request
// shape the device firmware expects for actuator commands.
func (c *Client) PostForm(ctx context.Context, requestURL string, values url.Values) ([]byte, error) {
	log := logger.FromContext(ctx)

	if c.verbose {
		log.Log(
			"msg", "posting form",
			"url", requestURL,
		)
	}

	req, err := http.NewRequest(http.MethodPost, requestURL, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create http request object")
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.do(ctx, req)
}

// Post attempts to post the given body to the given URL as JSON, returning
// the response body as bytes.
func (c *Client) Post(ctx context.Context, requestURL, body string) ([]byte, error) {
	log := logger.FromContext(ctx)

	if c.verbose {
		log.Log(
			"msg", "posting json",
			"url", requestURL,
		)
	}

	req, err := http.NewRequest(http.MethodPost, requestURL, strings.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create http request object")
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/json")

	return c.do(ctx, req)
}

// GetStream performs a GET request but returns the raw response without
// consuming the body, for proxying long-lived streams. The caller is
// responsible for closing the response body.
func (c *Client) GetStream(ctx context.Context, requestURL string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create http request object")
	}

	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.streamer.Do(req.WithContext(ctx))
	if err != nil {
		if urlErr, ok := err.(*url.Error); ok && urlErr.Timeout() {
			return nil, TimeoutError
		}

		return nil, UnexpectedError
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("Unexpected response: %s", resp.Status)
	}

	return resp, nil
}

// do executes the prepared request, mapping transport failures and non-200
// responses to our sentinel error values.
func (c *Client) do(ctx context.Context, req *http.Request) ([]byte, error) {
	log := logger.FromContext(ctx)

	resp, err := c.Client.Do(req.WithContext(ctx))
	if err != nil {
		if urlErr, ok := err.(*url.Error); ok && urlErr.Timeout() {
			return nil, TimeoutError
		}

		return nil, UnexpectedError
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Log("msg", "unexpected response code", "code", resp.StatusCode)
		switch resp.StatusCode {
		case http.StatusNotFound:
			return nil, NotFoundError
		default:
			return nil, fmt.Errorf("Unexpected response: %s", resp.Status)
		}
	}

	return ioutil.ReadAll(resp.Body)
}
