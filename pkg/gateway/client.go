// Package gateway talks to the Event Gateway configuration API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Config holds what is needed to reach one space of the configuration API.
type Config struct {
	URL       string
	AccessKey string
	Space     string
}

// ConfigFromEnv fills blank fields from EVENT_GATEWAY_URL, EVENT_GATEWAY_ACCESS_KEY
// and EVENT_GATEWAY_SPACE.
func ConfigFromEnv(c Config) Config {
	if c.URL == "" {
		c.URL = os.Getenv("EVENT_GATEWAY_URL")
	}
	if c.AccessKey == "" {
		c.AccessKey = os.Getenv("EVENT_GATEWAY_ACCESS_KEY")
	}
	if c.Space == "" {
		c.Space = os.Getenv("EVENT_GATEWAY_SPACE")
	}
	return c
}

// Client is a HTTP client
type Client struct {
	BaseURL    *url.URL
	HTTPClient *http.Client
	AccessKey  string
	Space      string
}

// NewClient returns a client for the space named in c
func NewClient(c Config) (*Client, error) {

	if c.URL == "" {
		return nil, fmt.Errorf("missing event gateway URL")
	}
	if c.Space == "" {
		return nil, fmt.Errorf("missing event gateway space")
	}

	base, err := url.Parse(c.URL)
	if err != nil {
		return nil, fmt.Errorf("could not parse event gateway URL: %v", err)
	}

	return &Client{
		BaseURL:    base,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
		AccessKey:  c.AccessKey,
		Space:      c.Space,
	}, nil
}

// NewRequest creates a HTTP request
func (c *Client) NewRequest(ctx context.Context, path, method string, body []byte) (*http.Request, error) {

	p, err := url.Parse(path)
	if err != nil {
		return nil, err
	}
	u := c.BaseURL.ResolveReference(p)

	req, err := http.NewRequestWithContext(ctx, method, u.String(), bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if c.AccessKey != "" {
		req.Header.Set("Authorization", c.AccessKey)
	}

	return req, nil
}

// Do makes a HTTP request
func (c *Client) Do(req *http.Request) (*http.Response, error) {

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}

	return resp, err
}

// spacePath builds /v1/spaces/{space}/{collection}[/{id}]
func (c *Client) spacePath(collection string, id ...string) string {
	parts := []string{"/v1/spaces", url.PathEscape(c.Space), collection}
	for _, i := range id {
		parts = append(parts, url.PathEscape(i))
	}
	return strings.Join(parts, "/")
}

// call sends in as JSON and decodes a successful reply into out
func (c *Client) call(ctx context.Context, method, path string, in, out interface{}) error {

	b, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("could not marshal request: %v", err)
	}

	req, err := c.NewRequest(ctx, path, method, b)
	if err != nil {
		return fmt.Errorf("could not make request: %v", err)
	}

	res, err := c.Do(req)
	if err != nil {
		return fmt.Errorf("could not call event gateway: %v", err)
	}
	defer res.Body.Close()

	body, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("could not read event gateway response body: %v", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return decodeError(res.StatusCode, body)
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("could not decode event gateway response: %v", err)
	}
	return nil
}
